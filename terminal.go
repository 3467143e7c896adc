package glyphcast

import (
	"fmt"
	"io"
)

// Terminal cursor control for in-place animation playback.
type Terminal interface {
	ResetCursor(rows int)
	ShowCursor(show bool)
}

type Xterm struct {
	Writer io.Writer
}

// Move the cursor to the beginning of the line and up rows
func (term *Xterm) ResetCursor(rows int) {
	term.Writer.Write([]byte(fmt.Sprintf("\033[999D\033[%dA", rows)))
}

func (term *Xterm) ShowCursor(show bool) {
	if show {
		term.Writer.Write([]byte("\033[?12l\033[?25h"))
	} else {
		term.Writer.Write([]byte("\033[?25l"))
	}
}

// A terminal cell is about twice as tall as it is wide, so fitting an
// image means weighing rows double.
const terminalCharAspect = 0.5

// FitGrid scales a srcW x srcH image down to a glyph grid no larger than
// maxCols x maxRows, preserving aspect ratio under the cell shape. The
// result is never smaller than 1x1 and never upscales.
func FitGrid(srcW, srcH, maxCols, maxRows int) (cols, rows int) {
	if srcW < 1 || srcH < 1 || maxCols < 1 || maxRows < 1 {
		return 1, 1
	}
	// Rows the image would need at full width.
	cols = maxCols
	rows = int(float64(srcH) / float64(srcW) * float64(cols) * terminalCharAspect)
	if rows > maxRows {
		rows = maxRows
		cols = int(float64(srcW) / float64(srcH) * float64(rows) / terminalCharAspect)
	}
	if cols > maxCols {
		cols = maxCols
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}
