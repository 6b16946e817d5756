package policy

import (
	"math/rand"

	"github.com/vovakirdan/neuroflap/internal/registry"
	"github.com/vovakirdan/neuroflap/internal/sim"
)

// DefaultCoinP is the per-tick jump probability of the registered coin policy.
const DefaultCoinP = 0.08

func init() {
	registry.Register("perceptron", "randomly initialised tanh perceptrons", RandomPerceptrons)
	registry.Register("coin", "jumps at random on about one tick in twelve", func(n int, rng *rand.Rand) sim.Policies {
		return Coins(n, DefaultCoinP, rng)
	})
	registry.Register("idle", "never jumps", func(n int, _ *rand.Rand) sim.Policies {
		return Idles(n)
	})
}
