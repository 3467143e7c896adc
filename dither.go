package glyphcast

import "math"

// DitherFloydSteinberg quantizes m in place to the given number of evenly
// spaced levels, diffusing each cell's quantization error onto its
// unvisited neighbors:
//
//	        *    7/16
//	3/16  5/16   1/16
//
// Shares that would cross the matrix boundary are dropped. The scan is
// strictly row-major: every cell folds in error from cells visited before
// it, so the loop carries a data dependency and cannot be split across
// goroutines.
func DitherFloydSteinberg(m [][]float64, levels int) [][]float64 {
	step := 1.0
	if levels > 1 {
		step = 1.0 / float64(levels-1)
	}
	h := len(m)
	if h == 0 {
		return m
	}
	w := len(m[0])
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := m[y][x]
			v := clamp01(math.Round(old/step) * step)
			m[y][x] = v
			diff := old - v
			if x+1 < w {
				m[y][x+1] += diff * 7 / 16
			}
			if y+1 < h {
				if x > 0 {
					m[y+1][x-1] += diff * 3 / 16
				}
				m[y+1][x] += diff * 5 / 16
				if x+1 < w {
					m[y+1][x+1] += diff * 1 / 16
				}
			}
		}
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
