package glyphcast

import "math"

// Glyph ramps, ordered dark to light. An empty cell of output is the
// first rune and a fully lit cell is the last.
var (
	simpleRamp   = []rune(" .:-=+*#%@")
	detailedRamp = []rune(" .`'^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$")
	blocksRamp   = []rune(" ▁▂▃▄▅▆▇█")
)

// Ramp returns the glyph ramp for name. Braille has no ramp; its glyphs
// are assembled dot by dot instead of looked up.
func Ramp(name CharsetName) []rune {
	switch name {
	case CharsetDetailed:
		return detailedRamp
	case CharsetBlocks:
		return blocksRamp
	default:
		return simpleRamp
	}
}

// Glyph maps a luminance in [0,1] onto ramp. The index grows monotonically
// with luminance and is clamped, so values nudged outside the range by
// error diffusion still land on an end of the ramp.
func Glyph(ramp []rune, lum float64) rune {
	i := int(math.Round(lum * float64(len(ramp)-1)))
	if i < 0 {
		i = 0
	}
	if i > len(ramp)-1 {
		i = len(ramp) - 1
	}
	return ramp[i]
}

// GlyphLines maps a luminance matrix row by row onto ramp, one rune per
// cell.
func GlyphLines(m [][]float64, ramp []rune) []string {
	lines := make([]string, len(m))
	for y, row := range m {
		out := make([]rune, len(row))
		for x, v := range row {
			out[x] = Glyph(ramp, v)
		}
		lines[y] = string(out)
	}
	return lines
}
