package main

import (
	"fmt"
	"os"

	"github.com/glyphcast/glyphcast"
)

func main() {
	p, err := glyphcast.NewPlayer()
	if err != nil {
		panic(err)
	}
	defer p.Close()
	if _, err := p.Load(os.Args[1]); err != nil {
		panic(err)
	}
	p.ShowFrame(0)
	switch ev := (<-p.Events()).(type) {
	case glyphcast.FrameEvent:
		for _, line := range ev.Frame.Lines {
			fmt.Println(line)
		}
	case glyphcast.ErrorEvent:
		panic(ev.Err)
	}
}
