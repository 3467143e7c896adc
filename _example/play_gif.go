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
	s.Charset = glyphcast.CharsetBraille
	s.Dither = true
	p.Apply(s)

	term := &glyphcast.Xterm{Writer: os.Stdout}
	term.ShowCursor(false)
	defer term.ShowCursor(true)

	p.Play()
	drawn := false
	for ev := range p.Events() {
		switch ev := ev.(type) {
		case glyphcast.FrameEvent:
			if drawn {
				term.ResetCursor(ev.Frame.Height)
			}
			for _, line := range ev.Frame.Lines {
				fmt.Println(line)
			}
			drawn = true
		case glyphcast.ErrorEvent:
			panic(ev.Err)
		}
	}
}
