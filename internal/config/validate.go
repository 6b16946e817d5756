package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError describes a single rejected parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate checks every required parameter. All failures are reported,
// joined in field order.
func (c SimConfig) Validate() error {
	var errs []error
	positive := func(field string, v float64) {
		if v <= 0 {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("must be positive, got %v", v)})
		}
	}

	positive("playfield.width", float64(c.Playfield.Width))
	positive("playfield.height", float64(c.Playfield.Height))

	positive("agent.spawn_y", c.Agent.SpawnY)
	positive("agent.gravity", c.Agent.Gravity)
	positive("agent.min_step", c.Agent.MinStep)
	positive("agent.max_step", c.Agent.MaxStep)
	positive("agent.animation_ticks", float64(c.Agent.AnimationTicks))
	if c.Agent.JumpVelocity == 0 {
		errs = append(errs, &ValidationError{Field: "agent.jump_velocity", Reason: "must be non-zero"})
	}
	if c.Agent.SpawnX < 0 {
		errs = append(errs, &ValidationError{Field: "agent.spawn_x", Reason: fmt.Sprintf("must not be negative, got %d", c.Agent.SpawnX)})
	}
	if c.Agent.MinStep > c.Agent.MaxStep {
		errs = append(errs, &ValidationError{
			Field:  "agent.min_step",
			Reason: fmt.Sprintf("must not exceed max_step (%v > %v)", c.Agent.MinStep, c.Agent.MaxStep),
		})
	}
	if c.Playfield.Height > 0 && c.Agent.SpawnY >= float64(c.Playfield.Height) {
		errs = append(errs, &ValidationError{Field: "agent.spawn_y", Reason: "must lie inside the playfield"})
	}

	positive("obstacles.first_x", float64(c.Obstacles.FirstX))
	positive("obstacles.spawn_x", float64(c.Obstacles.SpawnX))
	positive("obstacles.speed", float64(c.Obstacles.Speed))
	positive("obstacles.gap_size", float64(c.Obstacles.GapSize))
	if c.Obstacles.GapMin < 0 {
		errs = append(errs, &ValidationError{Field: "obstacles.gap_min", Reason: fmt.Sprintf("must not be negative, got %d", c.Obstacles.GapMin)})
	}
	if c.Obstacles.GapMax <= c.Obstacles.GapMin {
		errs = append(errs, &ValidationError{
			Field:  "obstacles.gap_max",
			Reason: fmt.Sprintf("must exceed gap_min (%d <= %d)", c.Obstacles.GapMax, c.Obstacles.GapMin),
		})
	}

	positive("ground.speed", float64(c.Ground.Speed))

	positive("rewards.survival", c.Rewards.Survival)
	positive("rewards.pass", c.Rewards.Pass)
	if c.Rewards.CollisionPenalty < 0 {
		errs = append(errs, &ValidationError{Field: "rewards.collision_penalty", Reason: "must not be negative"})
	}

	return errors.Join(errs...)
}
