package glyphcast

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestSaveEmptySequence(t *testing.T) {
	err := Save(context.Background(), filepath.Join(t.TempDir(), "out.gif"), SeqOf(nil, nil), SaveOptions{})
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("err = %v, want ErrEmptySequence", err)
	}
}

func TestSaveUnsupportedExtension(t *testing.T) {
	frames := []*image.NRGBA{imaging.New(2, 2, color.NRGBA{255, 0, 0, 255})}
	err := Save(context.Background(), "out.webp", SeqOf(frames, nil), SaveOptions{})
	var uf *UnsupportedFormatError
	if !errors.As(err, &uf) {
		t.Fatalf("err = %v, want UnsupportedFormatError", err)
	}
}

func TestEncodeGIF(t *testing.T) {
	frames := []*image.NRGBA{
		imaging.New(8, 8, color.NRGBA{255, 0, 0, 255}),
		imaging.New(4, 4, color.NRGBA{0, 0, 255, 255}),
	}
	prog := make(chan Progress, 16)
	out := filepath.Join(t.TempDir(), "out.gif")

	err := EncodeGIF(context.Background(), out, SeqOf(frames, []int{200, 100}), SaveOptions{Progress: prog})
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	giff, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}

	if len(giff.Image) != 2 {
		t.Fatalf("frame count = %d, want 2", len(giff.Image))
	}
	// The smaller frame pads up to the largest bounds.
	for i, img := range giff.Image {
		if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
			t.Errorf("frame %d = %dx%d, want 8x8", i, b.Dx(), b.Dy())
		}
	}
	if giff.Delay[0] != 20 || giff.Delay[1] != 10 {
		t.Errorf("delays = %v, want [20 10] hundredths", giff.Delay)
	}
	if giff.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0 (loop forever)", giff.LoopCount)
	}
	for i, d := range giff.Disposal {
		if d != gif.DisposalBackground {
			t.Errorf("disposal[%d] = %d, want background", i, d)
		}
	}

	// Frame 0 stays red after palettization; frame 1's padded corner is
	// black fill, not blue.
	r0, g0, b0, _ := giff.Image[0].At(4, 4).RGBA()
	if r0>>8 < 200 || g0>>8 > 60 || b0>>8 > 60 {
		t.Errorf("frame 0 center = %d,%d,%d, want red", r0>>8, g0>>8, b0>>8)
	}
	r1, g1, b1, _ := giff.Image[1].At(6, 6).RGBA()
	if r1>>8 > 60 || g1>>8 > 60 || b1>>8 > 60 {
		t.Errorf("frame 1 padding = %d,%d,%d, want black", r1>>8, g1>>8, b1>>8)
	}

	var last Progress
	n := 0
	for {
		select {
		case p := <-prog:
			last = p
			n++
			continue
		default:
		}
		break
	}
	if n != 2 {
		t.Errorf("progress count = %d, want 2", n)
	}
	if last.Done != 2 || last.Total != 2 {
		t.Errorf("last progress = %+v, want 2/2", last)
	}
}

func TestEncodeGIFDefaultDelay(t *testing.T) {
	frames := []*image.NRGBA{imaging.New(2, 2, color.NRGBA{255, 255, 255, 255})}
	out := filepath.Join(t.TempDir(), "out.gif")
	if err := EncodeGIF(context.Background(), out, SeqOf(frames, nil), SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	giff, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if giff.Delay[0] != DefaultFrameDurationMS/10 {
		t.Errorf("delay = %d, want default %d", giff.Delay[0], DefaultFrameDurationMS/10)
	}
}

func TestEncodeGIFCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := []*image.NRGBA{imaging.New(2, 2, color.NRGBA{255, 0, 0, 255})}
	err := EncodeGIF(ctx, filepath.Join(t.TempDir(), "out.gif"), SeqOf(frames, nil), SaveOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestEncodeVideoEmptySequence(t *testing.T) {
	// The sequence is consumed before ffmpeg is even looked up, so this
	// fails the same way on machines without it installed.
	err := EncodeVideo(context.Background(), filepath.Join(t.TempDir(), "out.mp4"), SeqOf(nil, nil), SaveOptions{})
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("err = %v, want ErrEmptySequence", err)
	}
}

func TestEncodeVideoMissingBinary(t *testing.T) {
	frames := []*image.NRGBA{imaging.New(2, 2, color.NRGBA{255, 0, 0, 255})}
	err := EncodeVideo(context.Background(), filepath.Join(t.TempDir(), "out.mp4"),
		SeqOf(frames, nil), SaveOptions{FFmpeg: "glyphcast-test-no-ffmpeg"})
	var oe *OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OpenError", err)
	}
}

func TestSeqOfDelays(t *testing.T) {
	frames := []*image.NRGBA{
		imaging.New(1, 1, color.NRGBA{}),
		imaging.New(1, 1, color.NRGBA{}),
		imaging.New(1, 1, color.NRGBA{}),
	}
	// Below-minimum, valid, and missing delays.
	seq := SeqOf(frames, []int{5, 250})

	wants := []int{DefaultFrameDurationMS, 250, DefaultFrameDurationMS}
	for i, want := range wants {
		_, d, err := seq.Next()
		if err != nil {
			t.Fatal(err)
		}
		if d != want {
			t.Errorf("delay %d = %d, want %d", i, d, want)
		}
	}
	if _, _, err := seq.Next(); err == nil {
		t.Fatal("want io.EOF after the last frame")
	}
}

func TestConform(t *testing.T) {
	src := imaging.New(2, 2, color.NRGBA{255, 0, 0, 255})

	same := conform(src, 2, 2)
	if same != src {
		t.Error("matching dimensions should return the image untouched")
	}

	padded := conform(src, 4, 4)
	if padded.Bounds().Dx() != 4 || padded.Bounds().Dy() != 4 {
		t.Fatalf("padded = %v", padded.Bounds())
	}
	if got := padded.NRGBAAt(1, 1); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("content pixel = %v, want red", got)
	}
	if got := padded.NRGBAAt(3, 3); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("pad pixel = %v, want black", got)
	}

	cropped := conform(imaging.New(4, 4, color.NRGBA{0, 255, 0, 255}), 2, 2)
	if cropped.Bounds().Dx() != 2 || cropped.Bounds().Dy() != 2 {
		t.Fatalf("cropped = %v", cropped.Bounds())
	}
	if got := cropped.NRGBAAt(1, 1); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("cropped pixel = %v, want green", got)
	}
}
