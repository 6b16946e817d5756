package core

// RuntimeConfig contains the viewer-side settings for driving a round.
// The simulation itself is parameterised by config.SimConfig; this struct
// only carries what the platform layer needs for pacing and layout.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Simulation ticks per second (default 30)
	Seed     int64 // RNG seed for deterministic rounds
	Agents   int   // Population size for each round
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
		Seed:     0, // 0 means use current time in platform layer
		Agents:   20,
	}
}
