package sim

// Ground is the scrolling floor, tiled from two segments. It is cosmetic:
// only its Y takes part in boundary checks.
type Ground struct {
	X1, X2 int // Left edges of the leading and trailing segment
	Y      int // Top of the floor
	Width  int // Segment width

	speed int
}

// NewGround creates a floor at y with the trailing segment butted against
// the leading one.
func NewGround(y, width, speed int) *Ground {
	return &Ground{
		X1:    0,
		X2:    width,
		Y:     y,
		Width: width,
		speed: speed,
	}
}

// Advance scrolls both segments and moves the leading one behind the
// trailing one once it has fully left the screen.
func (g *Ground) Advance() {
	g.X1 -= g.speed
	g.X2 -= g.speed

	if g.X1+g.Width <= 0 {
		g.X1 = g.X2
		g.X2 = g.X1 + g.Width
	}
}
