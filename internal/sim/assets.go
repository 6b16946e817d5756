package sim

import (
	"fmt"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
)

// Default sprite dimensions, matching the 2x-scaled original artwork.
const (
	DefaultAgentWidth    = 68
	DefaultAgentHeight   = 48
	DefaultBarrierWidth  = 104
	DefaultBarrierHeight = 640
	DefaultGroundWidth   = 672
	DefaultGroundHeight  = 224

	barrierLipHeight = 48
	barrierLipInset  = 4
)

// Assets is the collision geometry a round is built from. The rendering side
// owns the actual artwork and supplies one occupancy mask per visual frame.
type Assets struct {
	// AgentFrames is the animation cycle; the agent steps through it in order.
	AgentFrames []*core.Mask
	// UpperBarrier hangs from the top, its lip at the bottom edge.
	UpperBarrier *core.Mask
	// LowerBarrier rises from the ground, its lip at the top edge.
	LowerBarrier *core.Mask
	GroundWidth  int
	GroundHeight int
}

// Validate checks that every mask is present and non-empty.
func (a Assets) Validate() error {
	if len(a.AgentFrames) == 0 {
		return fmt.Errorf("sim: assets: no agent frames: %w", config.ErrInvalid)
	}
	for i, f := range a.AgentFrames {
		if f == nil || f.Width() == 0 || f.Height() == 0 {
			return fmt.Errorf("sim: assets: agent frame %d is empty: %w", i, config.ErrInvalid)
		}
	}
	if a.UpperBarrier == nil || a.UpperBarrier.Width() == 0 || a.UpperBarrier.Height() == 0 {
		return fmt.Errorf("sim: assets: upper barrier is empty: %w", config.ErrInvalid)
	}
	if a.LowerBarrier == nil || a.LowerBarrier.Width() == 0 || a.LowerBarrier.Height() == 0 {
		return fmt.Errorf("sim: assets: lower barrier is empty: %w", config.ErrInvalid)
	}
	if a.GroundWidth <= 0 || a.GroundHeight <= 0 {
		return fmt.Errorf("sim: assets: ground segment must have positive size: %w", config.ErrInvalid)
	}
	return nil
}

// BarrierWidth returns the horizontal extent of an obstacle.
func (a Assets) BarrierWidth() int {
	return core.Max(a.UpperBarrier.Width(), a.LowerBarrier.Width())
}

// DefaultAssets generates silhouettes with the original sprite dimensions:
// an elliptical bird with three wing poses and a pipe with a wider lip.
func DefaultAssets() Assets {
	up := agentFrame(4, 14)
	mid := agentFrame(18, 28)
	down := agentFrame(32, 42)

	lower := barrierMask(DefaultBarrierWidth, DefaultBarrierHeight)

	return Assets{
		AgentFrames:  []*core.Mask{up, mid, down, mid},
		UpperBarrier: lower.FlipVertical(),
		LowerBarrier: lower,
		GroundWidth:  DefaultGroundWidth,
		GroundHeight: DefaultGroundHeight,
	}
}

// agentFrame draws the body ellipse, the beak and a wing spanning rows
// wingTop..wingBottom.
func agentFrame(wingTop, wingBottom int) *core.Mask {
	m := core.NewMask(DefaultAgentWidth, DefaultAgentHeight)

	// Body
	cx, cy := 32.0, 24.0
	rx, ry := 28.0, 19.0
	for y := 0; y < DefaultAgentHeight; y++ {
		for x := 0; x < DefaultAgentWidth; x++ {
			nx := (float64(x) + 0.5 - cx) / rx
			ny := (float64(y) + 0.5 - cy) / ry
			if nx*nx+ny*ny <= 1 {
				m.Set(x, y, true)
			}
		}
	}

	// Beak
	for y := 22; y < 30; y++ {
		for x := 58; x < DefaultAgentWidth; x++ {
			m.Set(x, y, true)
		}
	}

	// Wing
	for y := wingTop; y <= wingBottom; y++ {
		for x := 2; x < 22; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// barrierMask draws a pipe whose lip occupies the top rows at full width and
// whose shaft is inset on both sides. The lip corners are rounded, which is
// what makes a bounding-box test unfairly strict.
func barrierMask(width, height int) *core.Mask {
	m := core.NewMask(width, height)
	for y := 0; y < height; y++ {
		x0, x1 := barrierLipInset, width-barrierLipInset
		if y < barrierLipHeight {
			x0, x1 = 0, width
		}
		for x := x0; x < x1; x++ {
			m.Set(x, y, true)
		}
	}

	// Round the four lip corners with a radius of 3 pixels.
	corners := [][2]int{{0, 0}, {width - 1, 0}, {0, barrierLipHeight - 1}, {width - 1, barrierLipHeight - 1}}
	for _, c := range corners {
		for dy := 0; dy < 3; dy++ {
			for dx := 0; dx < 3-dy; dx++ {
				x, y := c[0]+dx, c[1]+dy
				if c[0] > 0 {
					x = c[0] - dx
				}
				if c[1] > 0 {
					y = c[1] - dy
				}
				m.Set(x, y, false)
			}
		}
	}
	return m
}
