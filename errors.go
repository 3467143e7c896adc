package glyphcast

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEmptySequence is returned by the batch encoders when the frame
// sequence yields nothing.
var ErrEmptySequence = errors.New("glyphcast: empty frame sequence")

// ErrNoSource is returned by Player operations before any media is loaded.
var ErrNoSource = errors.New("glyphcast: no source loaded")

// OpenError wraps any failure to open or probe a media file.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("glyphcast: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// FrameNotFoundError reports random access outside [0, Count).
type FrameNotFoundError struct {
	Index int
	Count int
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("glyphcast: frame %d out of range (%d frames)", e.Index, e.Count)
}

// UnsupportedFormatError reports a path whose extension selects neither a
// layered animation nor a container video.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("glyphcast: unsupported format: %s", e.Path)
}

// DownloadError wraps a failed fetch of a remote media URL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("glyphcast: download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExecError carries the exit status and trailing stderr of a failed
// ffmpeg or ffprobe run.
type ExecError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("glyphcast: %s exited with code %d", e.Name, e.ExitCode)
	if tail := stderrTail(e.Stderr, 3); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

func wrapExecError(name string, args []string, err error, stderr string) error {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ExecError{Name: name, Args: args, ExitCode: code, Stderr: stderr, Err: err}
}

// stderrTail keeps the last n lines, which is where ffmpeg puts the part
// worth reading.
func stderrTail(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " | ")
}
