package sim

import (
	"math"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
)

// AgentID is a stable handle for an agent within its round. IDs are assigned
// 0..n-1 at spawn and never reused, so they stay valid while the live set
// shrinks.
type AgentID int

// Agent is a flying entity whose vertical motion follows the discrete
// kinematic equation d = v0*t + g*t^2, restarted on every impulse.
type Agent struct {
	id       AgentID
	x        int
	y        float64
	tilt     float64
	velocity float64 // v0 of the current arc
	ticks    int     // ticks since last impulse

	gravity float64
	minStep float64
	maxStep float64

	frames     []*core.Mask
	frame      int
	frameTicks int
	animTicks  int
}

// NewAgent creates an agent at the configured spawn point. The arc clock
// starts at zero with the configured jump velocity as v0.
func NewAgent(id AgentID, cfg config.Agent, frames []*core.Mask) *Agent {
	return &Agent{
		id:        id,
		x:         cfg.SpawnX,
		y:         cfg.SpawnY,
		velocity:  cfg.JumpVelocity,
		gravity:   cfg.Gravity,
		minStep:   cfg.MinStep,
		maxStep:   cfg.MaxStep,
		frames:    frames,
		animTicks: cfg.AnimationTicks,
	}
}

// ApplyDecision applies one tick's decision. A jump flips the direction of
// v0 and restarts the arc clock; no jump leaves the arc untouched.
func (a *Agent) ApplyDecision(jump bool) {
	if !jump {
		return
	}
	a.velocity = -a.velocity
	a.ticks = 0
}

// Advance integrates one tick of flight and returns the applied displacement.
func (a *Agent) Advance() float64 {
	a.ticks++
	t := float64(a.ticks)

	d := clampStep(a.velocity*t+a.gravity*t*t, a.minStep, a.maxStep)
	a.y += d

	slope := a.velocity + 2*a.gravity*t
	a.tilt = -math.Trunc(math.Atan(slope) * 180 / math.Pi)

	a.animate()
	return d
}

// clampStep bounds |d| to [lo, hi] keeping its direction.
// A zero displacement counts as upward.
func clampStep(d, lo, hi float64) float64 {
	sign := -1.0
	if d > 0 {
		sign = 1.0
	}
	return sign * core.ClampF(math.Abs(d), lo, hi)
}

// animate steps the frame cycle every animTicks ticks.
func (a *Agent) animate() {
	if len(a.frames) == 0 || a.animTicks <= 0 {
		return
	}
	a.frameTicks++
	if a.frameTicks >= a.animTicks {
		a.frame = (a.frame + 1) % len(a.frames)
		a.frameTicks -= a.animTicks
	}
}

// ID returns the agent's stable handle.
func (a *Agent) ID() AgentID {
	return a.id
}

// X returns the fixed horizontal position.
func (a *Agent) X() int {
	return a.x
}

// Y returns the vertical position of the top edge.
func (a *Agent) Y() float64 {
	return a.y
}

// Tilt returns the nose angle in degrees; positive is nose-up.
// It is observation metadata only.
func (a *Agent) Tilt() float64 {
	return a.tilt
}

// Velocity returns v0 of the current arc.
func (a *Agent) Velocity() float64 {
	return a.velocity
}

// TicksSinceImpulse returns the arc clock.
func (a *Agent) TicksSinceImpulse() int {
	return a.ticks
}

// Frame returns the current animation frame index.
func (a *Agent) Frame() int {
	return a.frame
}

// Mask returns the collision mask of the current animation frame.
func (a *Agent) Mask() *core.Mask {
	return a.frames[a.frame]
}

// Height returns the height of the current frame.
func (a *Agent) Height() int {
	return a.Mask().Height()
}

// Position returns the integer placement origin used for collision tests.
// Y is rounded half to even.
func (a *Agent) Position() (int, int) {
	return a.x, int(math.RoundToEven(a.y))
}
