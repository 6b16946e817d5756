// Package config provides YAML-based simulation parameters, their embedded
// defaults and validation.
package config

// SimConfig is the parameter bundle for a simulated round.
type SimConfig struct {
	Playfield Playfield `yaml:"playfield"`
	Agent     Agent     `yaml:"agent"`
	Obstacles Obstacles `yaml:"obstacles"`
	Ground    Ground    `yaml:"ground"`
	Rewards   Rewards   `yaml:"rewards"`
}

// Playfield defines the visible world size.
type Playfield struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Agent defines spawn point and flight kinematics.
type Agent struct {
	SpawnX         int     `yaml:"spawn_x"`
	SpawnY         float64 `yaml:"spawn_y"`
	JumpVelocity   float64 `yaml:"jump_velocity"`   // Initial velocity at spawn; negative = up
	Gravity        float64 `yaml:"gravity"`         // g in d = v0*t + g*t^2
	MinStep        float64 `yaml:"min_step"`        // Smallest |displacement| per tick
	MaxStep        float64 `yaml:"max_step"`        // Largest |displacement| per tick
	AnimationTicks int     `yaml:"animation_ticks"` // Ticks per animation frame
}

// Obstacles defines barrier motion and gap geometry.
type Obstacles struct {
	FirstX  int `yaml:"first_x"`  // X of the obstacle created at round start
	SpawnX  int `yaml:"spawn_x"`  // X of every later obstacle
	Speed   int `yaml:"speed"`    // Scroll per tick
	GapSize int `yaml:"gap_size"` // Vertical opening between barriers
	GapMin  int `yaml:"gap_min"`  // Inclusive lower bound of the sampled gap top
	GapMax  int `yaml:"gap_max"`  // Exclusive upper bound of the sampled gap top
}

// Ground defines the scrolling floor.
type Ground struct {
	Speed int `yaml:"speed"`
}

// Rewards defines fitness increments.
type Rewards struct {
	Survival         float64 `yaml:"survival"`          // Added every tick an agent is alive
	Pass             float64 `yaml:"pass"`              // Added to survivors when an obstacle is passed
	CollisionPenalty float64 `yaml:"collision_penalty"` // Subtracted on barrier collision
}
