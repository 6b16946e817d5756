package sim

import (
	"math/rand"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
)

// barrierSet is the geometry shared by every obstacle of a round.
type barrierSet struct {
	upper   *core.Mask
	lower   *core.Mask
	width   int
	gapSize int
	gapMin  int
	gapMax  int
	speed   int
}

func newBarrierSet(cfg config.Obstacles, assets Assets) *barrierSet {
	return &barrierSet{
		upper:   assets.UpperBarrier,
		lower:   assets.LowerBarrier,
		width:   assets.BarrierWidth(),
		gapSize: cfg.GapSize,
		gapMin:  cfg.GapMin,
		gapMax:  cfg.GapMax,
		speed:   cfg.Speed,
	}
}

// Obstacle is a pair of barriers with a fixed-size opening between them.
type Obstacle struct {
	X          int  // Left edge
	GapY       int  // Top edge of the opening, sampled once at creation
	UpperBound int  // Y of the upper barrier's top-left corner
	LowerBound int  // Y of the lower barrier's top-left corner
	Passed     bool // Whether the cohort has flown past this obstacle

	geom *barrierSet
}

// newObstacle creates an obstacle at x with a gap drawn uniformly from
// [gapMin, gapMax).
func newObstacle(x int, rng *rand.Rand, geom *barrierSet) *Obstacle {
	gapY := geom.gapMin + rng.Intn(geom.gapMax-geom.gapMin)
	return newObstacleAt(x, gapY, geom)
}

// newObstacleAt creates an obstacle with a fixed gap.
func newObstacleAt(x, gapY int, geom *barrierSet) *Obstacle {
	return &Obstacle{
		X:          x,
		GapY:       gapY,
		UpperBound: gapY - geom.upper.Height(),
		LowerBound: gapY + geom.gapSize,
		geom:       geom,
	}
}

// Advance scrolls the obstacle left by the shared speed.
func (o *Obstacle) Advance() {
	o.X -= o.geom.speed
}

// Width returns the horizontal extent of the barriers.
func (o *Obstacle) Width() int {
	return o.geom.width
}

// RightEdge returns the x just past the barriers.
func (o *Obstacle) RightEdge() int {
	return o.X + o.geom.width
}

// OffScreen reports whether the obstacle has fully left the playfield.
func (o *Obstacle) OffScreen() bool {
	return o.RightEdge() < 0
}

// GapSize returns the vertical size of the opening.
func (o *Obstacle) GapSize() int {
	return o.geom.gapSize
}

// CollidesWith tests the agent's current frame mask against both barrier
// masks, pixel by pixel. The result depends only on the current placement.
func (o *Obstacle) CollidesWith(a *Agent) bool {
	ax, ay := a.Position()
	m := a.Mask()
	if m.Overlaps(o.geom.upper, o.X-ax, o.UpperBound-ay) {
		return true
	}
	return m.Overlaps(o.geom.lower, o.X-ax, o.LowerBound-ay)
}

// UpperRect returns the bounding rectangle of the upper barrier.
func (o *Obstacle) UpperRect() core.Rect {
	return core.NewRect(o.X, o.UpperBound, o.geom.upper.Width(), o.geom.upper.Height())
}

// LowerRect returns the bounding rectangle of the lower barrier.
func (o *Obstacle) LowerRect() core.Rect {
	return core.NewRect(o.X, o.LowerBound, o.geom.lower.Width(), o.geom.lower.Height())
}
