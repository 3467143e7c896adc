package glyphcast

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// ProcessedFrame is a frame mapped onto a glyph grid. Lines always holds
// exactly Height entries of Width visible glyphs; ColorLines carries the
// same glyphs with color directives woven in and stays empty while color
// output is off.
type ProcessedFrame struct {
	Index      int
	Lines      []string
	ColorLines []string
	DurationMS int
	Width      int
	Height     int
}

// ProcessFrame maps one frame onto a glyph grid: resample, extract
// luminance, apply brightness and contrast, invert, then map cells to
// glyphs, dithering along the way when asked. Identical inputs always
// produce identical output.
func ProcessFrame(f Frame, s Settings) ProcessedFrame {
	s = s.normalized()

	braille := s.Charset == CharsetBraille
	pw, ph := s.Width, s.Height
	if braille {
		// Each braille rune packs a 2x4 block of dots.
		pw, ph = s.Width*2, s.Height*4
	}

	m := luminance(resample(f.Image, pw, ph))
	adjust(m, s.Brightness, s.Contrast)
	if s.Invert {
		for y := range m {
			for x := range m[y] {
				m[y][x] = 1 - m[y][x]
			}
		}
	}

	var lines []string
	if braille {
		if s.Dither {
			DitherFloydSteinberg(m, 2)
		}
		lines = BrailleLines(m)
	} else {
		ramp := Ramp(s.Charset)
		if s.Dither {
			DitherFloydSteinberg(m, len(ramp))
		}
		lines = GlyphLines(m, ramp)
	}

	pf := ProcessedFrame{
		Index:      f.Index,
		Lines:      lines,
		DurationMS: f.DurationMS,
		Width:      s.Width,
		Height:     s.Height,
	}
	if s.Color != ColorOff {
		pf.ColorLines = colorize(f.Image, lines, s)
	}
	return pf
}

func resample(img image.Image, w, h int) *image.NRGBA {
	return imaging.Clone(resize.Resize(uint(w), uint(h), img, resize.Lanczos3))
}

// Luma per Rec. 601: 0.299 R + 0.587 G + 0.114 B, scaled to [0,1].
func luminance(img *image.NRGBA) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			row[x] = (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
		}
		m[y] = row
	}
	return m
}

// adjust shifts luminance by brightness/100, then scales the distance
// from mid-gray by contrast/100, clamping once after both.
func adjust(m [][]float64, brightness, contrast int) {
	if brightness == 0 && contrast == 100 {
		return
	}
	b := float64(brightness) / 100.0
	c := float64(contrast) / 100.0
	for y := range m {
		for x := range m[y] {
			v := m[y][x] + b
			v = (v-0.5)*c + 0.5
			m[y][x] = clamp01(v)
		}
	}
}

// colorize samples glyph colors from the unadjusted raster, so brightness
// and contrast shape the glyph choice but not the hue. Invert flips the
// samples independently of the luminance invert. Braille cells cover 2x4
// source pixels and average over the matching block of a double
// resolution resample; every other charset samples one pixel per cell.
func colorize(img *image.NRGBA, lines []string, s Settings) []string {
	var samples [][]color.NRGBA
	if s.Charset == CharsetBraille {
		big := resample(img, s.Width*2, s.Height*4)
		if s.Invert {
			big = imaging.Invert(big)
		}
		samples = blockMeans(big, s.Width, s.Height)
	} else {
		small := resample(img, s.Width, s.Height)
		if s.Invert {
			small = imaging.Invert(small)
		}
		samples = pixelRows(small)
	}
	out := make([]string, len(lines))
	for y, line := range lines {
		var colors []color.NRGBA
		if y < len(samples) {
			colors = samples[y]
		}
		out[y] = ColorizeLine([]rune(line), colors, s.Color)
	}
	return out
}

func pixelRows(img *image.NRGBA) [][]color.NRGBA {
	b := img.Bounds()
	rows := make([][]color.NRGBA, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([]color.NRGBA, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			c.A = 255
			row[x] = c
		}
		rows[y] = row
	}
	return rows
}

// blockMeans averages each 2x4 pixel block down to one sample.
func blockMeans(img *image.NRGBA, cols, rows int) [][]color.NRGBA {
	out := make([][]color.NRGBA, rows)
	for cy := 0; cy < rows; cy++ {
		row := make([]color.NRGBA, cols)
		for cx := 0; cx < cols; cx++ {
			var r, g, b int
			for y := cy * 4; y < cy*4+4; y++ {
				for x := cx * 2; x < cx*2+2; x++ {
					c := img.NRGBAAt(x, y)
					r += int(c.R)
					g += int(c.G)
					b += int(c.B)
				}
			}
			row[cx] = color.NRGBA{uint8(r / 8), uint8(g / 8), uint8(b / 8), 255}
		}
		out[cy] = row
	}
	return out
}
