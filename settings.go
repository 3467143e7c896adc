package glyphcast

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// CharsetName selects one of the built-in glyph ramps.
type CharsetName string

const (
	CharsetSimple   CharsetName = "simple"
	CharsetDetailed CharsetName = "detailed"
	CharsetBlocks   CharsetName = "blocks"
	CharsetBraille  CharsetName = "braille"
)

// ColorMode selects how glyph colors are emitted.
type ColorMode string

const (
	ColorOff  ColorMode = "off"
	Color256  ColorMode = "256"
	ColorTrue ColorMode = "truecolor"
)

// Settings describes one complete conversion configuration. Two equal
// Settings values always produce identical output for the same frame.
type Settings struct {
	Charset    CharsetName
	Color      ColorMode
	Dither     bool
	Brightness int // -100 solid black .. 100 solid white, 0 keeps the original
	Contrast   int // percent, 100 keeps the original, 0 is solid grey
	Invert     bool
	Width      int // glyph columns
	Height     int // glyph rows
}

func DefaultSettings() Settings {
	return Settings{
		Charset:  CharsetSimple,
		Color:    ColorOff,
		Contrast: 100,
		Width:    80,
		Height:   24,
	}
}

// Fingerprint digests every field into a short hex string. Cached results
// are partitioned by it, so any change of any field moves to a fresh
// partition while equal settings share one.
func (s Settings) Fingerprint() string {
	canon := fmt.Sprintf("%s:%s:%t:%d:%d:%t:%d:%d",
		s.Charset, s.Color, s.Dither, s.Brightness, s.Contrast, s.Invert, s.Width, s.Height)
	sum := md5.Sum([]byte(canon))
	return hex.EncodeToString(sum[:])[:12]
}

func (s Settings) normalized() Settings {
	if s.Charset == "" {
		s.Charset = CharsetSimple
	}
	if s.Color == "" {
		s.Color = ColorOff
	}
	if s.Width < 1 {
		s.Width = 1
	}
	if s.Height < 1 {
		s.Height = 1
	}
	return s
}
