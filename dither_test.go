package glyphcast

import (
	"math"
	"testing"
)

func TestDitherFixedPoints(t *testing.T) {
	// Values already on a level quantize to themselves and diffuse nothing.
	m := [][]float64{
		{0, 1, 0},
		{1, 0, 1},
	}
	want := [][]float64{
		{0, 1, 0},
		{1, 0, 1},
	}
	DitherFloydSteinberg(m, 2)
	for y := range want {
		for x := range want[y] {
			if m[y][x] != want[y][x] {
				t.Errorf("m[%d][%d] = %v, want %v", y, x, m[y][x], want[y][x])
			}
		}
	}
}

func TestDitherSingleCellRounding(t *testing.T) {
	up := [][]float64{{0.5}}
	DitherFloydSteinberg(up, 2)
	if up[0][0] != 1 {
		t.Errorf("0.5 quantized to %v, want 1", up[0][0])
	}

	down := [][]float64{{0.49}}
	DitherFloydSteinberg(down, 2)
	if down[0][0] != 0 {
		t.Errorf("0.49 quantized to %v, want 0", down[0][0])
	}
}

func TestDitherMidGrayOnLevel(t *testing.T) {
	// With 3 levels the grid is {0, 0.5, 1}, so a 0.5 matrix is already
	// quantized and must come back bit for bit.
	m := make([][]float64, 4)
	for y := range m {
		m[y] = []float64{0.5, 0.5, 0.5, 0.5}
	}
	DitherFloydSteinberg(m, 3)
	for y := range m {
		for x := range m[y] {
			if m[y][x] != 0.5 {
				t.Fatalf("m[%d][%d] = %v, want 0.5 exactly", y, x, m[y][x])
			}
		}
	}
}

func TestDitherPreservesMeanBrightness(t *testing.T) {
	const n = 16
	m := make([][]float64, n)
	for y := range m {
		m[y] = make([]float64, n)
		for x := range m[y] {
			m[y][x] = 0.5
		}
	}
	DitherFloydSteinberg(m, 2)

	sum := 0.0
	for y := range m {
		for x := range m[y] {
			v := m[y][x]
			if v != 0 && v != 1 {
				t.Fatalf("m[%d][%d] = %v, not a level", y, x, v)
			}
			sum += v
		}
	}
	mean := sum / (n * n)
	if math.Abs(mean-0.5) > 0.15 {
		t.Errorf("mean = %v, want within 0.15 of 0.5", mean)
	}
}

func TestDitherOutputClamped(t *testing.T) {
	// A hard edge makes the diffused error overshoot; results stay in range.
	m := make([][]float64, 8)
	for y := range m {
		m[y] = make([]float64, 8)
		for x := range m[y] {
			if x < 4 {
				m[y][x] = 0.45
			} else {
				m[y][x] = 0.55
			}
		}
	}
	DitherFloydSteinberg(m, 2)
	for y := range m {
		for x := range m[y] {
			if v := m[y][x]; v != 0 && v != 1 {
				t.Fatalf("m[%d][%d] = %v, want 0 or 1", y, x, v)
			}
		}
	}
}

func TestDitherEmptyMatrix(t *testing.T) {
	if got := DitherFloydSteinberg(nil, 2); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
