package glyphcast

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	testRed  = color.NRGBA{255, 0, 0, 255}
	testBlue = color.NRGBA{0, 0, 255, 255}
)

// writeTestGIF writes a 4x4 two-frame animation. Frame 0 is solid red.
// Frame 1 stores only a 2x2 patch at (1,1): its top left pixel is
// transparent, the rest is blue. Composited, frame 1 shows red at (1,1)
// through the hole. Delays are in hundredths of a second, as GIF stores
// them.
func writeTestGIF(t *testing.T, d0, d1 int) string {
	t.Helper()

	base := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{testRed})

	patch := image.NewPaletted(image.Rect(1, 1, 3, 3), color.Palette{color.NRGBA{}, testBlue})
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			patch.SetColorIndex(x, y, 1)
		}
	}
	patch.SetColorIndex(1, 1, 0)

	path := filepath.Join(t.TempDir(), "anim.gif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	err = gif.EncodeAll(f, &gif.GIF{
		Image:  []*image.Paletted{base, patch},
		Delay:  []int{d0, d1},
		Config: image.Config{Width: 4, Height: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenGIFInfo(t *testing.T) {
	src, err := Open(writeTestGIF(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	info := src.Info()
	if info.Kind != MediaGIF {
		t.Errorf("Kind = %q, want gif", info.Kind)
	}
	if info.FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", info.FrameCount)
	}
	if info.Width != 4 || info.Height != 4 {
		t.Errorf("dims = %dx%d, want 4x4", info.Width, info.Height)
	}
	if info.FPS != 5 {
		t.Errorf("FPS = %v, want 5 (1000ms / 200ms)", info.FPS)
	}
}

func TestGIFSequentialCompositing(t *testing.T) {
	src, err := Open(writeTestGIF(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var frames []Frame
	iter := src.Frames()
	for iter.Next() {
		frames = append(frames, iter.Frame())
	}
	if err := iter.Err(); err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}

	if frames[0].DurationMS != 200 || frames[1].DurationMS != 100 {
		t.Errorf("durations = %d, %d, want 200, 100", frames[0].DurationMS, frames[1].DurationMS)
	}

	// Frame 0 is fully covered by the base layer.
	for _, p := range []image.Point{{0, 0}, {1, 1}, {3, 3}} {
		if got := frames[0].Image.NRGBAAt(p.X, p.Y); got != testRed {
			t.Errorf("frame 0 at %v = %v, want red", p, got)
		}
	}

	// Frame 1: the patch overwrites (2,1), (1,2), (2,2); its transparent
	// pixel at (1,1) lets frame 0 show through; outside the patch stays.
	f1 := frames[1].Image
	if got := f1.NRGBAAt(1, 1); got != testRed {
		t.Errorf("frame 1 hole = %v, want red showing through", got)
	}
	for _, p := range []image.Point{{2, 1}, {1, 2}, {2, 2}} {
		if got := f1.NRGBAAt(p.X, p.Y); got != testBlue {
			t.Errorf("frame 1 at %v = %v, want blue", p, got)
		}
	}
	if got := f1.NRGBAAt(0, 0); got != testRed {
		t.Errorf("frame 1 at (0,0) = %v, want red", got)
	}
}

func TestGIFRandomAccessMatchesSequential(t *testing.T) {
	src, err := Open(writeTestGIF(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	iter := src.Frames()
	var seq []Frame
	for iter.Next() {
		seq = append(seq, iter.Frame())
	}

	for i := range seq {
		got, err := src.Frame(i)
		if err != nil {
			t.Fatalf("Frame(%d): %v", i, err)
		}
		if got.DurationMS != seq[i].DurationMS {
			t.Errorf("Frame(%d) duration = %d, want %d", i, got.DurationMS, seq[i].DurationMS)
		}
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				if a, b := got.Image.NRGBAAt(x, y), seq[i].Image.NRGBAAt(x, y); a != b {
					t.Fatalf("Frame(%d) at (%d,%d) = %v, sequential saw %v", i, x, y, a, b)
				}
			}
		}
	}
}

func TestGIFIteratorsAreIndependent(t *testing.T) {
	src, err := Open(writeTestGIF(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	// Two interleaved passes each keep their own canvas.
	a, b := src.Frames(), src.Frames()
	if !a.Next() || !b.Next() {
		t.Fatal("first Next failed")
	}
	if !a.Next() {
		t.Fatal("second Next on a failed")
	}
	// a is at frame 1, b still at frame 0.
	if got := a.Frame().Image.NRGBAAt(2, 2); got != testBlue {
		t.Errorf("a frame 1 at (2,2) = %v, want blue", got)
	}
	if got := b.Frame().Image.NRGBAAt(2, 2); got != testRed {
		t.Errorf("b frame 0 at (2,2) = %v, want red", got)
	}
}

func TestGIFFrameOutOfRange(t *testing.T) {
	src, err := Open(writeTestGIF(t, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	for _, i := range []int{-1, 2, 99} {
		_, err := src.Frame(i)
		var nf *FrameNotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("Frame(%d) = %v, want FrameNotFoundError", i, err)
			continue
		}
		if nf.Index != i || nf.Count != 2 {
			t.Errorf("Frame(%d) error = %+v", i, nf)
		}
	}
}

func TestGIFZeroDelayDefaults(t *testing.T) {
	src, err := Open(writeTestGIF(t, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	iter := src.Frames()
	for iter.Next() {
		if got := iter.Frame().DurationMS; got != DefaultFrameDurationMS {
			t.Errorf("duration = %d, want default %d", got, DefaultFrameDurationMS)
		}
	}
	if src.Info().FPS != 10 {
		t.Errorf("FPS = %v, want 10", src.Info().FPS)
	}
}

func TestKindOf(t *testing.T) {
	for _, tt := range []struct {
		path string
		want MediaKind
	}{
		{"x.gif", MediaGIF},
		{"X.GIF", MediaGIF},
		{"dir/clip.mp4", MediaVideo},
		{"b.MKV", MediaVideo},
		{"c.webm", MediaVideo},
		{"c.mov", MediaVideo},
		{"c.avi", MediaVideo},
		{"photo.png", ""},
		{"noext", ""},
		{"", ""},
	} {
		if got := KindOf(tt.path); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("notes.txt")
	var uf *UnsupportedFormatError
	if !errors.As(err, &uf) {
		t.Fatalf("err = %v, want UnsupportedFormatError", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.gif"))
	var oe *OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OpenError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped not-exist", err)
	}
}

func TestOpenVideoMissingBinaries(t *testing.T) {
	// Binary resolution happens before the file is touched, so a missing
	// ffprobe fails fast with an OpenError.
	_, err := Open("clip.mp4", WithFFmpeg("glyphcast-test-no-ffmpeg", "glyphcast-test-no-ffprobe"))
	var oe *OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OpenError", err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("err = %v, want wrapped exec.ErrNotFound", err)
	}
}

func TestFailedIter(t *testing.T) {
	boom := errors.New("boom")
	iter := failedIter(boom)
	if iter.Next() {
		t.Fatal("Next = true on failed iterator")
	}
	if iter.Err() != boom {
		t.Errorf("Err = %v, want boom", iter.Err())
	}
}
