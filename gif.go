package glyphcast

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// gifSource replays a layered GIF. Each stored layer may cover only the
// pixels that changed, so the decoder keeps a persistent canvas and
// pastes every layer over it in order: pixels with nonzero alpha
// overwrite, the rest show through from earlier frames.
type gifSource struct {
	info   MediaInfo
	layers []*image.Paletted
	delays []int // per layer, ms
}

var opaqueBlack = color.NRGBA{0, 0, 0, 255}

func openGIF(path string) (*gifSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	giff, err := gif.DecodeAll(f)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if len(giff.Image) == 0 {
		return nil, &OpenError{Path: path, Err: errors.New("no frames")}
	}

	// The logical screen can be absent from the header; the first layer's
	// extent stands in for it then.
	w, h := giff.Config.Width, giff.Config.Height
	if w == 0 || h == 0 {
		b := giff.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}

	delays := make([]int, len(giff.Image))
	for i := range giff.Image {
		d := 0
		if i < len(giff.Delay) {
			d = giff.Delay[i] * 10 // gif stores hundredths of a second
		}
		if d <= 0 {
			d = DefaultFrameDurationMS
		}
		if d < MinFrameDurationMS {
			d = MinFrameDurationMS
		}
		delays[i] = d
	}

	return &gifSource{
		info: MediaInfo{
			Path:       path,
			Kind:       MediaGIF,
			FrameCount: len(giff.Image),
			FPS:        1000.0 / float64(delays[0]),
			Width:      w,
			Height:     h,
		},
		layers: giff.Image,
		delays: delays,
	}, nil
}

func (s *gifSource) Info() MediaInfo { return s.info }

// Frames composites layers onto one reused canvas, so a full pass costs
// each pixel once per layer rather than once per layer per frame. The
// returned frames are copies and safe to hold onto.
func (s *gifSource) Frames() *FrameIter {
	canvas := imaging.New(s.info.Width, s.info.Height, opaqueBlack)
	pos := 0
	return &FrameIter{
		next: func() (Frame, error) {
			if pos >= len(s.layers) {
				return Frame{}, io.EOF
			}
			i := pos
			pos++
			paste(canvas, s.layers[i])
			return Frame{Index: i, Image: imaging.Clone(canvas), DurationMS: s.delays[i]}, nil
		},
	}
}

// Frame replays layers 0..i onto a fresh canvas. Random access costs one
// paste per preceding layer; sequential access should use Frames.
func (s *gifSource) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(s.layers) {
		return Frame{}, &FrameNotFoundError{Index: i, Count: len(s.layers)}
	}
	canvas := imaging.New(s.info.Width, s.info.Height, opaqueBlack)
	for j := 0; j <= i; j++ {
		paste(canvas, s.layers[j])
	}
	return Frame{Index: i, Image: canvas, DurationMS: s.delays[i]}, nil
}

func (s *gifSource) Close() error { return nil }

func (s *gifSource) sealed() {}

// paste copies every opaque pixel of layer onto dst and leaves the rest
// of dst untouched.
func paste(dst *image.NRGBA, layer image.Image) {
	b := layer.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := layer.At(x, y)
			if _, _, _, a := c.RGBA(); a == 0 {
				continue
			}
			dst.Set(x, y, c)
		}
	}
}
