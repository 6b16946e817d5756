package sim

import (
	"math/rand"
	"testing"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
)

// boxAssets uses solid rectangles: a 10x10 agent and 20x100 barriers.
func boxAssets() Assets {
	return Assets{
		AgentFrames:  []*core.Mask{core.NewFilledMask(10, 10)},
		UpperBarrier: core.NewFilledMask(20, 100),
		LowerBarrier: core.NewFilledMask(20, 100),
		GroundWidth:  50,
		GroundHeight: 10,
	}
}

func boxAgent(x int, y float64) *Agent {
	cfg := config.DefaultSimConfig().Agent
	cfg.SpawnX = x
	cfg.SpawnY = y
	return NewAgent(0, cfg, boxAssets().AgentFrames)
}

func TestObstacleBoundsDeriveFromGap(t *testing.T) {
	geom := newBarrierSet(config.DefaultSimConfig().Obstacles, DefaultAssets())

	first := newObstacleAt(550, 100, geom)
	second := newObstacleAt(550, 300, geom)

	tests := []struct {
		name         string
		o            *Obstacle
		upper, lower int
	}{
		{"gap at 100", first, 100 - DefaultBarrierHeight, 100 + 200},
		{"gap at 300", second, 300 - DefaultBarrierHeight, 300 + 200},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.o.UpperBound != tc.upper {
				t.Errorf("UpperBound = %d, expected %d", tc.o.UpperBound, tc.upper)
			}
			if tc.o.LowerBound != tc.lower {
				t.Errorf("LowerBound = %d, expected %d", tc.o.LowerBound, tc.lower)
			}
			if tc.o.GapSize() != 200 {
				t.Errorf("GapSize() = %d, expected 200", tc.o.GapSize())
			}
		})
	}
}

func TestObstacleGapSampling(t *testing.T) {
	cfg := config.DefaultSimConfig().Obstacles
	geom := newBarrierSet(cfg, DefaultAssets())
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 1000; i++ {
		o := newObstacle(0, rng, geom)
		if o.GapY < cfg.GapMin || o.GapY >= cfg.GapMax {
			t.Fatalf("gap %d outside [%d, %d)", o.GapY, cfg.GapMin, cfg.GapMax)
		}
		if o.LowerBound-o.GapY != cfg.GapSize {
			t.Fatalf("gap size %d, expected %d", o.LowerBound-o.GapY, cfg.GapSize)
		}
	}
}

func TestObstacleAdvanceAndOffScreen(t *testing.T) {
	geom := newBarrierSet(config.DefaultSimConfig().Obstacles, DefaultAssets())
	o := newObstacleAt(0, 200, geom)

	o.Advance()
	if o.X != -5 {
		t.Errorf("X = %d after one tick, expected -5", o.X)
	}

	// Right edge exactly at 0 is still on screen
	o.X = -DefaultBarrierWidth
	if o.OffScreen() {
		t.Error("obstacle with right edge at 0 should still be on screen")
	}
	o.X--
	if !o.OffScreen() {
		t.Error("obstacle with right edge at -1 should be off screen")
	}
}

func TestCollisionAtBarrierEdge(t *testing.T) {
	cfg := config.DefaultSimConfig().Obstacles
	cfg.GapSize = 200
	geom := newBarrierSet(cfg, boxAssets())

	// Upper barrier covers y in [-60, 40), lower starts at 240.
	o := newObstacleAt(100, 40, geom)

	tests := []struct {
		name     string
		x        int
		y        float64
		expected bool
	}{
		{"touching upper barrier from below", 100, 40, false},
		{"one row into upper barrier", 100, 39, true},
		{"touching lower barrier from above", 100, 230, false},
		{"one row into lower barrier", 100, 231, true},
		{"left of barrier, adjacent", 90, 0, false},
		{"one column into barrier from the left", 91, 0, true},
		{"right of barrier, adjacent", 120, 0, false},
		{"one column into barrier from the right", 119, 0, true},
		{"inside the gap", 105, 120, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := o.CollidesWith(boxAgent(tc.x, tc.y)); got != tc.expected {
				t.Errorf("CollidesWith() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestCollisionIsPixelPrecise(t *testing.T) {
	assets := DefaultAssets()
	geom := newBarrierSet(config.DefaultSimConfig().Obstacles, assets)
	o := newObstacleAt(100, 200, geom)

	// A single-pixel agent on the rounded top-left corner of the lower lip.
	cfg := config.DefaultSimConfig().Agent
	cfg.SpawnX = o.X
	cfg.SpawnY = float64(o.LowerBound)
	dot := NewAgent(0, cfg, []*core.Mask{core.MaskFromRows("#")})

	if !o.LowerRect().Contains(o.X, o.LowerBound) {
		t.Fatal("corner should lie inside the barrier's bounding box")
	}
	if o.CollidesWith(dot) {
		t.Error("rounded lip corner should not collide")
	}

	// Two pixels in, the lip is solid.
	cfg.SpawnX = o.X + 2
	cfg.SpawnY = float64(o.LowerBound + 2)
	dot = NewAgent(0, cfg, []*core.Mask{core.MaskFromRows("#")})
	if !o.CollidesWith(dot) {
		t.Error("solid lip should collide")
	}
}

func TestCollisionIgnoresHistory(t *testing.T) {
	geom := newBarrierSet(config.DefaultSimConfig().Obstacles, boxAssets())
	o := newObstacleAt(100, 40, geom)

	fresh := boxAgent(100, 39)
	veteran := boxAgent(100, 300)
	for i := 0; i < 25; i++ {
		veteran.ApplyDecision(i%3 == 0)
		veteran.Advance()
	}
	veteran.y = 39

	if o.CollidesWith(fresh) != o.CollidesWith(veteran) {
		t.Error("collision should depend only on the current placement")
	}
}
