package config

import (
	_ "embed"
)

//go:embed defaults/sim.yaml
var defaultSimYAML []byte

// DefaultSimConfig returns the default simulation parameters.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Playfield: Playfield{
			Width:  550,
			Height: 1000,
		},
		Agent: Agent{
			SpawnX:         230,
			SpawnY:         350,
			JumpVelocity:   -10.5,
			Gravity:        1.5,
			MinStep:        1,
			MaxStep:        16,
			AnimationTicks: 5,
		},
		Obstacles: Obstacles{
			FirstX:  700,
			SpawnX:  550,
			Speed:   5,
			GapSize: 200,
			GapMin:  50,
			GapMax:  450,
		},
		Ground: Ground{
			Speed: 5,
		},
		Rewards: Rewards{
			Survival:         0.1,
			Pass:             5,
			CollisionPenalty: 1,
		},
	}
}

// DefaultYAML returns the embedded default YAML document.
func DefaultYAML() []byte {
	return defaultSimYAML
}
