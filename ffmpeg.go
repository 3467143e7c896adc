package glyphcast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
)

// runCapture executes name with args and returns stdout. Failures carry
// the exit code and a stderr tail, which beats ffmpeg's bare exit status
// by a wide margin.
func runCapture(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, wrapExecError(name, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// probeOutput mirrors the JSON document ffprobe prints under
// -print_format json -show_format -show_streams. Several numeric fields
// arrive as strings. Parsing is kept separate from process execution so
// it can be tested without the binary installed.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// parseProbe extracts the first video stream's geometry from raw ffprobe
// JSON. Frame counts missing from the stream are estimated from the
// container duration, and a missing rate falls back to 24.
func parseProbe(raw []byte) (width, height, frames int, fps float64, err error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, 0, 0, 0, err
	}
	var v *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			v = &out.Streams[i]
			break
		}
	}
	if v == nil {
		return 0, 0, 0, 0, errors.New("no video stream")
	}
	fps = parseRate(v.AvgFrameRate)
	if fps == 0 {
		fps = parseRate(v.RFrameRate)
	}
	if fps == 0 {
		fps = 24
	}
	frames, _ = strconv.Atoi(v.NbFrames)
	if frames == 0 {
		if d, derr := strconv.ParseFloat(out.Format.Duration, 64); derr == nil {
			frames = int(d*fps + 0.5)
		}
	}
	return v.Width, v.Height, frames, fps, nil
}

// parseRate parses ffprobe's fractional rates, eg "30000/1001" or "25/1".
// Malformed or zero-denominator rates come back as 0.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
