// Package policy provides reference decision functions for driving a round
// without an external trainer: a single-layer perceptron, a coin flip and a
// policy that never jumps.
package policy

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/neuroflap/internal/sim"
)

// JumpThreshold is the activation above which a perceptron jumps.
const JumpThreshold = 0.5

// Perceptron maps the three observation inputs through a tanh unit.
type Perceptron struct {
	Weights [3]float64
	Bias    float64
}

// Activation returns tanh(w·x + b) for the observation.
func (p Perceptron) Activation(obs sim.Observation) float64 {
	sum := p.Bias
	for i, x := range obs.Inputs() {
		sum += p.Weights[i] * x
	}
	return math.Tanh(sum)
}

// Decide jumps when the activation exceeds JumpThreshold.
func (p Perceptron) Decide(obs sim.Observation) bool {
	return p.Activation(obs) > JumpThreshold
}

// RandomPerceptron draws weights and bias uniformly from [-1, 1).
func RandomPerceptron(rng *rand.Rand) Perceptron {
	var p Perceptron
	for i := range p.Weights {
		p.Weights[i] = rng.Float64()*2 - 1
	}
	p.Bias = rng.Float64()*2 - 1
	return p
}

// RandomPerceptrons returns n independently initialised perceptrons, one per
// agent id.
func RandomPerceptrons(n int, rng *rand.Rand) sim.Policies {
	out := make(sim.Policies, n)
	for i := range out {
		out[i] = RandomPerceptron(rng)
	}
	return out
}

// Coin jumps with probability P on every tick.
type Coin struct {
	P   float64
	rng *rand.Rand
}

// NewCoin creates a coin policy drawing from rng.
func NewCoin(p float64, rng *rand.Rand) *Coin {
	return &Coin{P: p, rng: rng}
}

// Decide ignores the observation.
func (c *Coin) Decide(sim.Observation) bool {
	return c.rng.Float64() < c.P
}

// Coins returns n coin policies sharing one random source.
func Coins(n int, p float64, rng *rand.Rand) sim.Policies {
	out := make(sim.Policies, n)
	for i := range out {
		out[i] = NewCoin(p, rng)
	}
	return out
}

// Idle never jumps.
type Idle struct{}

// Decide always returns false.
func (Idle) Decide(sim.Observation) bool {
	return false
}

// Idles returns n idle policies.
func Idles(n int) sim.Policies {
	out := make(sim.Policies, n)
	for i := range out {
		out[i] = Idle{}
	}
	return out
}
