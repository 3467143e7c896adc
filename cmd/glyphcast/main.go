package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/glyphcast/glyphcast"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "glyphcast"
	app.Usage = "A command-line tool for rendering gifs and videos as character art."
	app.UsageText = "1) glyphcast [options] [file|url]\n" +
		/*      */ "   2) glyphcast [options] < [file]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "charset,s",
			Usage: "`CHARSET` is one of: simple, detailed, blocks, braille.",
			Value: "simple",
		},
		cli.StringFlag{
			Name:  "color",
			Usage: "`MODE` is one of: off, 256, truecolor.",
			Value: "off",
		},
		cli.BoolFlag{
			Name:  "dither,d",
			Usage: "Spreads quantization error to neighboring cells, simulating shades the charset lacks.",
		},
		cli.IntFlag{
			Name:  "brightness,b",
			Usage: "`BRIGHTNESS` = 0 gives the original image. BRIGHTNESS = -100 gives solid black and BRIGHTNESS = 100 gives solid white.",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "contrast,c",
			Usage: "`CONTRAST` = 100 gives the original image. CONTRAST = 0 gives solid grey; above 100 increases contrast.",
			Value: 100,
		},
		cli.BoolFlag{
			Name:  "invert,i",
			Usage: "Inverts the image.",
		},
		cli.StringFlag{
			Name:  "fit,f",
			Usage: "`FIT` = 80,25 scales down the output to fit 80 columns and 25 lines. Defaults to the terminal size.",
		},
		cli.IntFlag{
			Name:  "font-size",
			Usage: "`SIZE` in points of the monospace font used when saving to a file.",
			Value: glyphcast.DefaultFontSize,
		},
		cli.Float64Flag{
			Name:  "fps",
			Usage: "`FPS` overrides the output frame rate when saving video.",
		},
		cli.StringFlag{
			Name:  "out,o",
			Usage: "Save the animation to `PATH` (.gif or video) instead of printing. PATH = auto derives a name from the input.",
		},
		cli.BoolFlag{
			Name:  "play,p",
			Usage: "Animates the input in the terminal. ESC or CTRL-C to quit.",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "Print media info as JSON and exit.",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log playback and encoding internals to stderr.",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	path, cleanup, err := resolveInput(c.Args().First())
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	logger := zap.NewNop()
	if c.Bool("verbose") {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	player, err := glyphcast.NewPlayer(
		glyphcast.WithLogger(logger),
		glyphcast.WithRenderOpts(glyphcast.WithFontSize(c.Int("font-size"))),
		glyphcast.WithSaveOptions(glyphcast.SaveOptions{FPS: c.Float64("fps")}),
	)
	if err != nil {
		return err
	}
	defer player.Close()

	info, err := player.Load(path)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	player.Apply(settingsFrom(c, info))

	switch {
	case c.String("out") != "":
		out := c.String("out")
		if out == "auto" {
			out = autoName(c.Args().First(), player.Settings(), info.Kind)
		}
		return save(player, out)
	case c.Bool("play"):
		return play(player)
	default:
		return printFirst(player)
	}
}

// resolveInput turns the positional argument into a local file path.
// URLs are downloaded, an empty argument reads stdin, anything else is
// used as-is. cleanup removes the temp file, when one was made.
func resolveInput(input string) (path string, cleanup func(), err error) {
	switch {
	case input == "":
		path, err = stdinToTemp()
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		path, err = download(input)
	default:
		return input, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

func stdinToTemp() (string, error) {
	f, err := os.CreateTemp("", "glyphcast-*.gif")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, os.Stdin); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func download(url string) (string, error) {
	prog := make(chan glyphcast.Progress, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range prog {
			if p.Total > 0 {
				fmt.Fprintf(os.Stderr, "\rdownloading %d%%", p.Done*100/p.Total)
			} else {
				fmt.Fprintf(os.Stderr, "\rdownloading %d KiB", p.Done/1024)
			}
		}
		fmt.Fprint(os.Stderr, "\r\033[K")
	}()
	path, err := glyphcast.Fetch(context.Background(), url, prog)
	close(prog)
	<-done
	return path, err
}

func settingsFrom(c *cli.Context, info glyphcast.MediaInfo) glyphcast.Settings {
	s := glyphcast.DefaultSettings()
	s.Charset = glyphcast.CharsetName(c.String("charset"))
	s.Color = glyphcast.ColorMode(c.String("color"))
	s.Dither = c.Bool("dither")
	s.Brightness = c.Int("brightness")
	s.Contrast = c.Int("contrast")
	s.Invert = c.Bool("invert")

	cols, rows := fitBox(c)
	s.Width, s.Height = glyphcast.FitGrid(info.Width, info.Height, cols, rows)
	return s
}

// fitBox is the glyph budget: the fit flag when given, otherwise the
// terminal size with one line held back for the prompt.
func fitBox(c *cli.Context) (cols, rows int) {
	if fit := c.String("fit"); fit != "" {
		parts := strings.Split(fit, ",")
		if len(parts) == 2 {
			cols, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
			rows, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		}
	}
	if cols <= 0 || rows <= 0 {
		var err error
		cols, rows, err = term.GetSize(int(os.Stderr.Fd()))
		if err != nil {
			cols, rows = 80, 25 // Small, but a pretty standard default
		}
	}
	if rows > 1 {
		rows--
	}
	return cols, rows
}

// autoName derives an output file name from the input file.
func autoName(input string, s glyphcast.Settings, kind glyphcast.MediaKind) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "glyphcast"
	}
	suffix := "_glyphs"
	if s.Dither {
		suffix = "_dithered"
	}
	ext := ".gif"
	if kind == glyphcast.MediaVideo {
		ext = ".mp4"
	}
	return base + suffix + ext
}

func printFirst(p *glyphcast.Player) error {
	p.ShowFrame(0)
	for ev := range p.Events() {
		switch ev := ev.(type) {
		case glyphcast.FrameEvent:
			printFrame(os.Stdout, ev.Frame)
			return nil
		case glyphcast.ErrorEvent:
			return ev.Err
		}
	}
	return nil
}

func play(p *glyphcast.Player) error {
	t := &glyphcast.Xterm{Writer: os.Stdout}
	t.ShowCursor(false)
	defer t.ShowCursor(true)
	handleInterrupt(t)

	p.Play()
	prevRows := 0
	for ev := range p.Events() {
		switch ev := ev.(type) {
		case glyphcast.FrameEvent:
			if prevRows > 0 {
				t.ResetCursor(prevRows)
			}
			printFrame(os.Stdout, ev.Frame)
			prevRows = len(ev.Frame.Lines)
		case glyphcast.ErrorEvent:
			return ev.Err
		}
	}
	return nil
}

func save(p *glyphcast.Player, path string) error {
	p.SaveTo(path)
	for ev := range p.Events() {
		switch ev := ev.(type) {
		case glyphcast.SaveProgressEvent:
			if ev.Total > 0 {
				fmt.Fprintf(os.Stderr, "\rencoding %d/%d", ev.Done, ev.Total)
			} else {
				fmt.Fprintf(os.Stderr, "\rencoding %d", ev.Done)
			}
		case glyphcast.SaveDoneEvent:
			fmt.Fprintf(os.Stderr, "\rsaved %s\n", ev.Path)
			return nil
		case glyphcast.ErrorEvent:
			fmt.Fprintln(os.Stderr)
			return ev.Err
		}
	}
	return nil
}

func printFrame(w io.Writer, pf glyphcast.ProcessedFrame) {
	lines := pf.Lines
	if len(pf.ColorLines) > 0 {
		lines = pf.ColorLines
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func handleInterrupt(t glyphcast.Terminal) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signals
		t.ShowCursor(true)
		// Stop notifying this channel
		signal.Stop(signals)
		// Calling os.Exit here would be a bad idea if there are other goroutines
		// waiting to catch the same signal.
		if signum, ok := s.(syscall.Signal); ok {
			syscall.Kill(syscall.Getpid(), signum)
		} else {
			panic(fmt.Sprintf("unexpected signal: %v", s))
		}
	}()
}
