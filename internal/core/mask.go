package core

import "math/bits"

// Mask is a bit-packed occupancy bitmap used for pixel-precise collision tests.
// Bit x of row y lives in words[y*stride + x/64] at position x%64.
type Mask struct {
	width  int
	height int
	stride int // uint64 words per row
	words  []uint64
}

// NewMask creates an empty mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + 63) / 64
	return &Mask{
		width:  width,
		height: height,
		stride: stride,
		words:  make([]uint64, stride*height),
	}
}

// NewFilledMask creates a mask with every pixel set.
func NewFilledMask(width, height int) *Mask {
	m := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// MaskFromRows builds a mask from ASCII art. Any rune other than ' ' and '.'
// marks an occupied pixel. The width is taken from the longest row.
func MaskFromRows(rows ...string) *Mask {
	width := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	m := NewMask(width, len(rows))
	for y, row := range rows {
		for x, r := range []rune(row) {
			if r != ' ' && r != '.' {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int {
	return m.width
}

// Height returns the mask height in pixels.
func (m *Mask) Height() int {
	return m.height
}

// Bounds returns the mask rectangle placed at the origin.
func (m *Mask) Bounds() Rect {
	return NewRect(0, 0, m.width, m.height)
}

// Set marks or clears the pixel at (x, y).
// Out-of-bounds coordinates are silently ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	i := y*m.stride + x/64
	bit := uint64(1) << uint(x%64)
	if on {
		m.words[i] |= bit
	} else {
		m.words[i] &^= bit
	}
}

// Get reports whether the pixel at (x, y) is occupied.
// Out-of-bounds coordinates are empty.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.words[y*m.stride+x/64]&(uint64(1)<<uint(x%64)) != 0
}

// Count returns the number of occupied pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// FlipVertical returns a copy of the mask mirrored top to bottom.
func (m *Mask) FlipVertical() *Mask {
	out := NewMask(m.width, m.height)
	for y := 0; y < m.height; y++ {
		src := m.row(y)
		dst := out.row(m.height - 1 - y)
		copy(dst, src)
	}
	return out
}

// Overlaps reports whether any occupied pixel of m coincides with an occupied
// pixel of other when other's origin is placed at (dx, dy) in m's frame.
// The test ANDs whole words across the intersecting rectangle.
func (m *Mask) Overlaps(other *Mask, dx, dy int) bool {
	if m == nil || other == nil {
		return false
	}
	overlap := m.Bounds().Intersect(other.Bounds().Translate(dx, dy))
	if overlap.Empty() {
		return false
	}

	x0, x1 := overlap.X, overlap.Right()
	y0, y1 := overlap.Y, overlap.Bottom()

	for y := y0; y < y1; y++ {
		rowA := m.row(y)
		rowB := other.row(y - dy)
		for x := x0; x < x1; x += 64 {
			n := Min(64, x1-x)
			if extractBits(rowA, x, n)&extractBits(rowB, x-dx, n) != 0 {
				return true
			}
		}
	}
	return false
}

// row returns the words backing row y.
func (m *Mask) row(y int) []uint64 {
	return m.words[y*m.stride : (y+1)*m.stride]
}

// extractBits returns n (<= 64) bits of row starting at bit start, LSB first.
func extractBits(row []uint64, start, n int) uint64 {
	word := start / 64
	off := uint(start % 64)
	v := row[word] >> off
	if off != 0 && word+1 < len(row) {
		v |= row[word+1] << (64 - off)
	}
	if n < 64 {
		v &= (uint64(1) << uint(n)) - 1
	}
	return v
}
