package glyphcast

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

const escReset = "\x1b[0m"

// ANSI256 quantizes an RGB triple to the xterm 256-color palette. Triples
// whose channels sit within 10 of each other count as gray and map onto
// the 24-step ramp at 232..255, with near black pinned to index 16 and
// near white to 231. Everything else lands in the 6x6x6 color cube.
func ANSI256(r, g, b uint8) int {
	rr, gg, bb := int(r), int(g), int(b)
	if absInt(rr-gg) < 10 && absInt(gg-bb) < 10 && absInt(rr-bb) < 10 {
		gray := (rr + gg + bb) / 3
		switch {
		case gray < 8:
			return 16
		case gray > 248:
			return 231
		default:
			return 232 + int(math.Round(float64(gray-8)/247.0*23.0))
		}
	}
	ri := int(math.Round(float64(rr) / 255.0 * 5.0))
	gi := int(math.Round(float64(gg) / 255.0 * 5.0))
	bi := int(math.Round(float64(bb) / 255.0 * 5.0))
	return 16 + 36*ri + 6*gi + bi
}

// ansi256RGB is the inverse lookup used when decoding directives back to
// pixels. Cube channels step by 51, the gray ramp by 10 from 8.
func ansi256RGB(n int) color.NRGBA {
	switch {
	case n < 16:
		return ansiBasic[n]
	case n < 232:
		n -= 16
		return color.NRGBA{
			R: uint8(n / 36 * 51),
			G: uint8(n / 6 % 6 * 51),
			B: uint8(n % 6 * 51),
			A: 255,
		}
	default:
		v := uint8((n-232)*10 + 8)
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	}
}

var ansiBasic = [16]color.NRGBA{
	{0, 0, 0, 255}, {128, 0, 0, 255}, {0, 128, 0, 255}, {128, 128, 0, 255},
	{0, 0, 128, 255}, {128, 0, 128, 255}, {0, 128, 128, 255}, {192, 192, 192, 255},
	{128, 128, 128, 255}, {255, 0, 0, 255}, {0, 255, 0, 255}, {255, 255, 0, 255},
	{0, 0, 255, 255}, {255, 0, 255, 255}, {0, 255, 255, 255}, {255, 255, 255, 255},
}

// escapeFor returns the directive selecting c under mode, or "" when color
// output is off.
func escapeFor(c color.NRGBA, mode ColorMode) string {
	switch mode {
	case ColorTrue:
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case Color256:
		return fmt.Sprintf("\x1b[38;5;%dm", ANSI256(c.R, c.G, c.B))
	default:
		return ""
	}
}

// ColorizeLine prefixes each glyph with the directive for its sampled
// color. Consecutive glyphs that encode to the same directive share one,
// and a single reset closes the line if any directive was emitted at all.
// A run of uniform color therefore costs two escapes, not one per glyph.
func ColorizeLine(glyphs []rune, colors []color.NRGBA, mode ColorMode) string {
	if mode == ColorOff {
		return string(glyphs)
	}
	var sb strings.Builder
	var prev string
	emitted := false
	for i, g := range glyphs {
		if i < len(colors) {
			if esc := escapeFor(colors[i], mode); esc != prev {
				sb.WriteString(esc)
				prev = esc
				emitted = true
			}
		}
		sb.WriteRune(g)
	}
	if emitted {
		sb.WriteString(escReset)
	}
	return sb.String()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
