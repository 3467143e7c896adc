package glyphcast

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Progress reports how far an encode has come. Total is zero when the
// frame count is unknown up front, as with video sources read as a
// stream.
type Progress struct {
	Done  int
	Total int
}

// FrameSeq supplies rendered frames to an encoder one at a time. Next
// returns io.EOF after the last frame. Durations are milliseconds.
type FrameSeq interface {
	Next() (img *image.NRGBA, durationMS int, err error)
}

type sliceSeq struct {
	frames []*image.NRGBA
	delays []int
	i      int
}

func (s *sliceSeq) Next() (*image.NRGBA, int, error) {
	if s.i >= len(s.frames) {
		return nil, 0, io.EOF
	}
	img, d := s.frames[s.i], s.delays[s.i]
	s.i++
	return img, d, nil
}

// SeqOf wraps in-memory frames as a FrameSeq. Missing delays default to
// the standard frame duration.
func SeqOf(frames []*image.NRGBA, delaysMS []int) FrameSeq {
	delays := make([]int, len(frames))
	for i := range delays {
		if i < len(delaysMS) && delaysMS[i] >= MinFrameDurationMS {
			delays[i] = delaysMS[i]
		} else {
			delays[i] = DefaultFrameDurationMS
		}
	}
	return &sliceSeq{frames: frames, delays: delays}
}

// SaveOptions tune an encode. The zero value is usable.
type SaveOptions struct {
	// Total primes progress reporting when the caller knows the frame
	// count ahead of time.
	Total int
	// Progress receives encode progress. Sends never block; a slow
	// receiver just sees fewer updates.
	Progress chan<- Progress
	// FFmpeg overrides the encoder binary for video output.
	FFmpeg string
	// FPS overrides the output frame rate for video. Zero derives the
	// rate from the first frame's duration.
	FPS float64
}

func (o SaveOptions) withDefaults() SaveOptions {
	if o.FFmpeg == "" {
		o.FFmpeg = defaultFFmpeg
	}
	return o
}

func (o SaveOptions) report(done int) {
	if o.Progress == nil {
		return
	}
	select {
	case o.Progress <- Progress{Done: done, Total: o.Total}:
	default:
	}
}

// Save encodes seq to path, picking the container from the extension.
// GIF output needs no external tools; video output shells out to ffmpeg.
func Save(ctx context.Context, path string, seq FrameSeq, opts SaveOptions) error {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".gif":
		return EncodeGIF(ctx, path, seq, opts)
	case videoExts[ext]:
		return EncodeVideo(ctx, path, seq, opts)
	default:
		return &UnsupportedFormatError{Path: path}
	}
}

// EncodeGIF writes seq as an animated GIF. Frames smaller than the
// largest one are padded on their right and bottom edges so every
// palettized image shares the sequence bounds. The file loops forever.
func EncodeGIF(ctx context.Context, path string, seq FrameSeq, opts SaveOptions) error {
	opts = opts.withDefaults()

	var frames []*image.NRGBA
	var delays []int
	maxW, maxH := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, d, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		frames = append(frames, img)
		delays = append(delays, d)
		if w := img.Bounds().Dx(); w > maxW {
			maxW = w
		}
		if h := img.Bounds().Dy(); h > maxH {
			maxH = h
		}
	}
	if len(frames) == 0 {
		return ErrEmptySequence
	}
	if opts.Total == 0 {
		opts.Total = len(frames)
	}

	out := &gif.GIF{LoopCount: 0}
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if frame.Bounds().Dx() < maxW || frame.Bounds().Dy() < maxH {
			padded := imaging.New(maxW, maxH, opaqueBlack)
			paste(padded, frame)
			frame = padded
		}
		pal := image.NewPaletted(image.Rect(0, 0, maxW, maxH), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, pal.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, pal)
		out.Delay = append(out.Delay, delays[i]/10)
		out.Disposal = append(out.Disposal, gif.DisposalBackground)
		opts.report(i + 1)
	}

	f, err := os.Create(path)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	if err := gif.EncodeAll(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeVideo streams seq into ffmpeg as PNG frames over stdin and
// writes H.264 output. The first frame fixes the output dimensions;
// later frames are padded or cropped to match, since a video stream
// cannot change size mid-file.
func EncodeVideo(ctx context.Context, path string, seq FrameSeq, opts SaveOptions) error {
	opts = opts.withDefaults()

	first, firstDelay, err := seq.Next()
	if err == io.EOF {
		return ErrEmptySequence
	}
	if err != nil {
		return err
	}

	if _, err := exec.LookPath(opts.FFmpeg); err != nil {
		return &OpenError{Path: path, Err: err}
	}

	fps := opts.FPS
	if fps <= 0 {
		if firstDelay < MinFrameDurationMS {
			firstDelay = DefaultFrameDurationMS
		}
		fps = 1000 / float64(firstDelay)
	}

	args := []string{
		"-y",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-framerate", fmt.Sprintf("%.6g", fps),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	}
	cmd := exec.CommandContext(ctx, opts.FFmpeg, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return wrapExecError(opts.FFmpeg, args, err, stderr.String())
	}

	w, h := first.Bounds().Dx(), first.Bounds().Dy()
	bw := bufio.NewWriter(stdin)
	img, done := first, 1
	for {
		if err := ctx.Err(); err != nil {
			stdin.Close()
			cmd.Process.Kill()
			cmd.Wait()
			return err
		}
		if err := png.Encode(bw, conform(img, w, h)); err != nil {
			stdin.Close()
			cmd.Process.Kill()
			cmd.Wait()
			return err
		}
		opts.report(done)

		img, _, err = seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			stdin.Close()
			cmd.Process.Kill()
			cmd.Wait()
			return err
		}
		done++
	}
	if err := bw.Flush(); err != nil {
		stdin.Close()
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	if err := stdin.Close(); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	if err := cmd.Wait(); err != nil {
		return wrapExecError(opts.FFmpeg, args, err, stderr.String())
	}
	return nil
}

// conform pads or crops img to exactly w x h, anchored at the top left.
// Out-of-range writes fall off the canvas, which is what crop means here.
func conform(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	out := imaging.New(w, h, opaqueBlack)
	paste(out, img)
	return out
}
