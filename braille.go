package glyphcast

// Braille represents an 8 dot braille pattern in x,y coordinate space. Eg:
//
//	+----------+
//	|(0,0)(1,0)|
//	|(0,1)(1,1)|
//	|(0,2)(1,2)|
//	|(0,3)(1,3)|
//	+----------+
type Braille [2][4]int

// Rune maps each point in braille to a dot identifier and calculates the
// corresponding unicode symbol.
//
//	+------+
//	|(1)(4)|
//	|(2)(5)|
//	|(3)(6)|
//	|(7)(8)|
//	+------+
//
// See https://en.wikipedia.org/wiki/Braille_Patterns#Identifying.2C_naming_and_ordering)
func (b Braille) Rune() rune {
	lowEndian := [8]int{b[0][0], b[0][1], b[0][2], b[1][0], b[1][1], b[1][2], b[0][3], b[1][3]}
	var v int
	for i, x := range lowEndian {
		v += x << uint(i)
	}
	return rune(v) + '⠀'
}

// String returns a unicode braille character, anywhere between an empty
// cell (U+2800) and a full one (U+28FF).
func (b Braille) String() string {
	return string(b.Rune())
}

// BrailleLines converts a luminance matrix into lines of braille runes,
// one rune per 2x4 block. Values above 0.5 light their dot. The matrix is
// padded on the bottom and right with unlit dots when its dimensions are
// not multiples of the cell size, so a 5x3 matrix still yields 2 lines of
// 2 runes.
func BrailleLines(m [][]float64) []string {
	h := len(m)
	if h == 0 {
		return nil
	}
	w := len(m[0])
	lines := make([]string, 0, (h+3)/4)
	for py := 0; py < h; py += 4 {
		out := make([]rune, 0, (w+1)/2)
		for px := 0; px < w; px += 2 {
			var b Braille
			// Draw left-right, top-bottom.
			for y := 0; y < 4; y++ {
				for x := 0; x < 2; x++ {
					if px+x >= w || py+y >= h {
						continue
					}
					if m[py+y][px+x] > 0.5 {
						b[x][y] = 1
					}
				}
			}
			out = append(out, b.Rune())
		}
		lines = append(lines, string(out))
	}
	return lines
}
