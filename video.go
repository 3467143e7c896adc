package glyphcast

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"math"
	"os/exec"

	"github.com/disintegration/imaging"
)

// videoSource decodes container video by shelling out to ffmpeg. Probing
// happens once at open, sequential passes stream PNG frames over a pipe,
// and random access asks ffmpeg to select a single frame.
type videoSource struct {
	info       MediaInfo
	ffmpeg     string
	durationMS int
}

func openVideo(path string, opts ...SourceOption) (*videoSource, error) {
	cfg := newSourceConfig(opts...)

	// Resolve both binaries up front so a missing install surfaces here
	// instead of as a mid-stream failure.
	ffprobe, err := exec.LookPath(cfg.ffprobe)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	ffmpeg, err := exec.LookPath(cfg.ffmpeg)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	raw, err := runCapture(context.Background(), ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	w, h, frames, fps, err := parseProbe(raw)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	durationMS := int(math.Round(1000.0 / fps))
	if durationMS < MinFrameDurationMS {
		durationMS = MinFrameDurationMS
	}

	return &videoSource{
		info: MediaInfo{
			Path:       path,
			Kind:       MediaVideo,
			FrameCount: frames,
			FPS:        fps,
			Width:      w,
			Height:     h,
		},
		ffmpeg:     ffmpeg,
		durationMS: durationMS,
	}, nil
}

func (s *videoSource) Info() MediaInfo { return s.info }

// Frames starts one ffmpeg process that emits every frame as a PNG on
// stdout. Each PNG ends at its IEND chunk, so consecutive decodes off the
// same buffered reader walk the stream frame by frame.
func (s *videoSource) Frames() *FrameIter {
	cmd := exec.Command(s.ffmpeg,
		"-v", "error",
		"-i", s.info.Path,
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failedIter(err)
	}
	if err := cmd.Start(); err != nil {
		return failedIter(err)
	}

	br := bufio.NewReaderSize(stdout, 1<<20)
	idx := 0
	return &FrameIter{
		next: func() (Frame, error) {
			if _, err := br.Peek(1); err == io.EOF {
				if werr := cmd.Wait(); werr != nil {
					return Frame{}, wrapExecError(s.ffmpeg, cmd.Args[1:], werr, stderr.String())
				}
				return Frame{}, io.EOF
			}
			img, err := png.Decode(br)
			if err != nil {
				cmd.Process.Kill()
				cmd.Wait()
				return Frame{}, err
			}
			f := Frame{Index: idx, Image: imaging.Clone(img), DurationMS: s.durationMS}
			idx++
			return f, nil
		},
		release: func() error {
			cmd.Process.Kill()
			cmd.Wait()
			return nil
		},
	}
}

// Frame asks ffmpeg for exactly the i-th frame. The select filter walks
// the stream to get there, so this is exact rather than fast.
func (s *videoSource) Frame(i int) (Frame, error) {
	if i < 0 || (s.info.FrameCount > 0 && i >= s.info.FrameCount) {
		return Frame{}, &FrameNotFoundError{Index: i, Count: s.info.FrameCount}
	}
	out, err := runCapture(context.Background(), s.ffmpeg,
		"-v", "error",
		"-i", s.info.Path,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", i),
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	if err != nil {
		return Frame{}, err
	}
	if len(out) == 0 {
		return Frame{}, &FrameNotFoundError{Index: i, Count: s.info.FrameCount}
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return Frame{}, err
	}
	return Frame{Index: i, Image: imaging.Clone(img), DurationMS: s.durationMS}, nil
}

func (s *videoSource) Close() error { return nil }

func (s *videoSource) sealed() {}
