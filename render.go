package glyphcast

import (
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Cell geometry for monospace output. Width tracks the usual advance of
// a monospace glyph at a given point size; height adds line spacing.
const (
	DefaultFontSize = 14
	charWidthRatio  = 0.6
	charHeightPad   = 2
)

// FontCandidates is the default lookup order for a monospace TTF. The
// first path that parses wins. When none do, rendering falls back to the
// built-in fixed face, so output never depends on installed fonts.
var FontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/TTF/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/Library/Fonts/Courier New.ttf",
	"/Library/Fonts/Courier New Bold.ttf",
	"/System/Library/Fonts/Monaco.ttf",
	"C:\\Windows\\Fonts\\consola.ttf",
}

var white = color.NRGBA{255, 255, 255, 255}

// Renderer draws processed frames back onto rasters, one monospace cell
// per glyph.
type Renderer struct {
	fontSize   int
	candidates []string
	background color.NRGBA
	useColor   bool
	face       font.Face
}

type RenderOpt func(*Renderer)

// WithFontSize sets the point size that cell geometry derives from.
func WithFontSize(size int) RenderOpt {
	return func(r *Renderer) {
		if size > 0 {
			r.fontSize = size
		}
	}
}

// WithFontPaths replaces the TTF candidate list. With no arguments only
// the built-in face remains, which keeps output identical everywhere.
func WithFontPaths(paths ...string) RenderOpt {
	return func(r *Renderer) {
		r.candidates = paths
	}
}

// WithBackground sets the canvas fill.
func WithBackground(c color.NRGBA) RenderOpt {
	return func(r *Renderer) {
		r.background = c
	}
}

// WithPlainText ignores color directives; every glyph renders white.
func WithPlainText() RenderOpt {
	return func(r *Renderer) {
		r.useColor = false
	}
}

func NewRenderer(opts ...RenderOpt) *Renderer {
	r := &Renderer{
		fontSize:   DefaultFontSize,
		candidates: FontCandidates,
		background: color.NRGBA{0, 0, 0, 255},
		useColor:   true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.face = loadFace(r.candidates, float64(r.fontSize))
	return r
}

// loadFace tries each candidate in order and falls back to the fixed
// 7x13 face.
func loadFace(candidates []string, size float64) font.Face {
	for _, path := range candidates {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(b)
		if err != nil {
			continue
		}
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	}
	return basicfont.Face7x13
}

// CellSize reports the pixel dimensions of one glyph cell.
func (r *Renderer) CellSize() (w, h int) {
	return int(float64(r.fontSize) * charWidthRatio), r.fontSize + charHeightPad
}

// Render draws a processed frame onto an opaque raster. The canvas spans
// the longest visible line by the line count, at least 1x1. Directives in
// the frame steer a pen that starts white and resets to white.
func (r *Renderer) Render(pf ProcessedFrame) *image.NRGBA {
	lines := pf.Lines
	if r.useColor && len(pf.ColorLines) > 0 {
		lines = pf.ColorLines
	}

	cellW, cellH := r.CellSize()
	cols := 0
	parsed := make([][]glyphCell, len(lines))
	for i, line := range lines {
		parsed[i] = parseLine(line)
		if n := len(parsed[i]); n > cols {
			cols = n
		}
	}
	w := max(cols*cellW, 1)
	h := max(len(lines)*cellH, 1)

	img := imaging.New(w, h, r.background)
	d := &font.Drawer{
		Dst:  img,
		Face: r.face,
	}
	ascent := r.face.Metrics().Ascent.Ceil()
	for row, cells := range parsed {
		for col, cl := range cells {
			if cl.r == ' ' {
				continue
			}
			d.Src = image.NewUniform(cl.color)
			d.Dot = fixed.P(col*cellW, row*cellH+ascent)
			d.DrawString(string(cl.r))
		}
	}
	return img
}

// glyphCell is one visible glyph with the color in effect when it
// appeared.
type glyphCell struct {
	r     rune
	color color.NRGBA
}

// parseLine splits a directive-bearing line into visible cells. The pen
// starts white; 38;2;r;g;b and 38;5;n sequences change it, 0 resets it,
// and any other sequence passes through as a no-op.
func parseLine(line string) []glyphCell {
	cells := make([]glyphCell, 0, utf8.RuneCountInString(line))
	cur := white
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		if rs[i] == 0x1b && i+1 < len(rs) && rs[i+1] == '[' {
			j := i + 2
			for j < len(rs) && rs[j] != 'm' {
				j++
			}
			if j < len(rs) {
				if c, ok := directiveColor(string(rs[i+2 : j])); ok {
					cur = c
				}
				i = j
				continue
			}
		}
		cells = append(cells, glyphCell{r: rs[i], color: cur})
	}
	return cells
}

// directiveColor interprets the parameter list of one color directive.
func directiveColor(params string) (color.NRGBA, bool) {
	parts := strings.Split(params, ";")
	switch {
	case parts[0] == "" || parts[0] == "0":
		return white, true
	case len(parts) >= 5 && parts[0] == "38" && parts[1] == "2":
		return color.NRGBA{
			R: uint8(channelOr(parts[2], 255)),
			G: uint8(channelOr(parts[3], 255)),
			B: uint8(channelOr(parts[4], 255)),
			A: 255,
		}, true
	case len(parts) >= 3 && parts[0] == "38" && parts[1] == "5":
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, false
		}
		return ansi256RGB(n), true
	default:
		return color.NRGBA{}, false
	}
}

func channelOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return fallback
	}
	return n
}

// StripDirectives removes every escape sequence from s, leaving only the
// visible glyphs.
func StripDirectives(s string) string {
	var sb strings.Builder
	for _, c := range parseLine(s) {
		sb.WriteRune(c.r)
	}
	return sb.String()
}
