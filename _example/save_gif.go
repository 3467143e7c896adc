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

	s := p.Settings()
	s.Charset = glyphcast.CharsetDetailed
	s.Color = glyphcast.Color256
	s.Dither = true
	p.Apply(s)

	p.SaveTo(os.Args[2])
	for ev := range p.Events() {
		switch ev := ev.(type) {
		case glyphcast.SaveProgressEvent:
			fmt.Fprintf(os.Stderr, "\r%d/%d", ev.Done, ev.Total)
		case glyphcast.SaveDoneEvent:
			fmt.Fprintf(os.Stderr, "\rsaved %s\n", ev.Path)
			return
		case glyphcast.ErrorEvent:
			panic(ev.Err)
		}
	}
}
