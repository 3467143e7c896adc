package glyphcast

import (
	"image"
	"io"
	"path/filepath"
	"strings"
)

// MediaKind discriminates the two supported source containers.
type MediaKind string

const (
	MediaGIF   MediaKind = "gif"
	MediaVideo MediaKind = "video"
)

// Frame duration bounds, in milliseconds. Sources clamp to the floor and
// substitute the default when the container carries no timing metadata.
const (
	MinFrameDurationMS     = 10
	DefaultFrameDurationMS = 100
)

// Frame is one fully composited, opaque raster plus its display duration.
type Frame struct {
	Index      int
	Image      *image.NRGBA
	DurationMS int
}

// MediaInfo describes an opened source.
type MediaInfo struct {
	Path       string
	Kind       MediaKind
	FrameCount int
	FPS        float64
	Width      int
	Height     int
}

// MediaSource is a decoded animation. Exactly two implementations exist,
// one per container; the unexported method keeps the set closed.
type MediaSource interface {
	Info() MediaInfo
	// Frames starts a fresh sequential pass over every frame.
	Frames() *FrameIter
	// Frame decodes the frame at index i without disturbing any running
	// iterator. Out of range indexes return a FrameNotFoundError.
	Frame(i int) (Frame, error)
	Close() error

	sealed()
}

// Open probes path and returns the matching source. The container is
// chosen by extension: .gif decodes as a layered animation, the video
// extensions decode through ffmpeg, and anything else is refused.
func Open(path string, opts ...SourceOption) (MediaSource, error) {
	switch KindOf(path) {
	case MediaGIF:
		return openGIF(path)
	case MediaVideo:
		return openVideo(path, opts...)
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

var videoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// KindOf reports which container the path's extension selects, or "" when
// neither applies. Matching is case insensitive.
func KindOf(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".gif":
		return MediaGIF
	case videoExts[ext]:
		return MediaVideo
	default:
		return ""
	}
}

type sourceConfig struct {
	ffmpeg  string
	ffprobe string
}

type SourceOption func(*sourceConfig)

// WithFFmpeg overrides the ffmpeg and ffprobe binaries video sources
// shell out to.
func WithFFmpeg(ffmpeg, ffprobe string) SourceOption {
	return func(cfg *sourceConfig) {
		cfg.ffmpeg = ffmpeg
		cfg.ffprobe = ffprobe
	}
}

func newSourceConfig(opts ...SourceOption) sourceConfig {
	cfg := sourceConfig{ffmpeg: defaultFFmpeg, ffprobe: defaultFFprobe}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FrameIter walks a source's frames in order, decoding lazily. Use it
// like bufio.Scanner: Next, then Frame, then check Err once Next returns
// false.
type FrameIter struct {
	next    func() (Frame, error) // returns io.EOF at the end
	release func() error
	cur     Frame
	err     error
	done    bool
}

func (it *FrameIter) Next() bool {
	if it.done {
		return false
	}
	f, err := it.next()
	if err != nil {
		if err != io.EOF {
			it.err = err
		}
		it.done = true
		return false
	}
	it.cur = f
	return true
}

// Frame returns the frame decoded by the last successful Next.
func (it *FrameIter) Frame() Frame { return it.cur }

func (it *FrameIter) Err() error { return it.err }

// Close releases the decoder early. Iterators that run to completion do
// not need it, but abandoning one mid-pass without Close can leak a
// decoder process.
func (it *FrameIter) Close() error {
	it.done = true
	if it.release != nil {
		return it.release()
	}
	return nil
}

func failedIter(err error) *FrameIter {
	return &FrameIter{
		next: func() (Frame, error) { return Frame{}, err },
	}
}
