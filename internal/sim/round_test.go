package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/vovakirdan/neuroflap/internal/config"
)

var idle = DecisionFunc(func(AgentID, Observation) bool { return false })

// hoverConfig keeps agents drifting 0.01 units per tick inside a gap that
// spans most of the playfield, so they survive long enough to pass obstacles.
func hoverConfig() config.SimConfig {
	cfg := config.DefaultSimConfig()
	cfg.Agent.JumpVelocity = -0.001
	cfg.Agent.Gravity = 0.001
	cfg.Agent.MinStep = 0.01
	cfg.Agent.MaxStep = 0.01
	cfg.Obstacles.GapSize = 600
	cfg.Obstacles.GapMin = 100
	cfg.Obstacles.GapMax = 101
	return cfg
}

func mustStart(t *testing.T, cfg config.SimConfig, n int, seed int64) *Round {
	t.Helper()
	r, err := StartRound(cfg, DefaultAssets(), n, seed)
	if err != nil {
		t.Fatalf("StartRound() failed: %v", err)
	}
	return r
}

func TestStartRound(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 5, 1)

	if r.State() != Running {
		t.Errorf("State() = %v, expected running", r.State())
	}
	if r.Alive() != 5 || r.Size() != 5 {
		t.Errorf("Alive() = %d, Size() = %d, expected 5", r.Alive(), r.Size())
	}
	if r.Score() != 0 {
		t.Errorf("Score() = %d, expected 0", r.Score())
	}

	obstacles := r.Obstacles()
	if len(obstacles) != 1 || obstacles[0].X != 700 {
		t.Fatalf("expected one obstacle at x=700, got %+v", obstacles)
	}
	for _, a := range r.Agents() {
		if a.X != 230 || a.Y != 350 {
			t.Errorf("agent %d spawned at (%d, %f)", a.ID, a.X, a.Y)
		}
	}

	g := r.Ground()
	if g.Y != 1000-DefaultGroundHeight || g.X2 != g.X1+g.Width {
		t.Errorf("unexpected ground %+v", g)
	}
}

func TestStartRoundRejectsBadInput(t *testing.T) {
	bad := config.DefaultSimConfig()
	bad.Obstacles.GapSize = 0

	noFrames := DefaultAssets()
	noFrames.AgentFrames = nil

	tests := []struct {
		name   string
		cfg    config.SimConfig
		assets Assets
		agents int
	}{
		{"zero agents", config.DefaultSimConfig(), DefaultAssets(), 0},
		{"negative agents", config.DefaultSimConfig(), DefaultAssets(), -3},
		{"non-positive gap size", bad, DefaultAssets(), 10},
		{"missing agent frames", config.DefaultSimConfig(), noFrames, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := StartRound(tc.cfg, tc.assets, tc.agents, 1)
			if err == nil {
				t.Fatal("StartRound() should fail")
			}
			if r != nil {
				t.Error("StartRound() should not return a round on error")
			}
			if !errors.Is(err, config.ErrInvalid) {
				t.Errorf("error should wrap config.ErrInvalid: %v", err)
			}
		})
	}
}

func TestFreeFallReachesGroundInExactTicks(t *testing.T) {
	cfg := config.DefaultSimConfig()
	r := mustStart(t, cfg, 1, 1)

	// Independent integration of d = v0*t + g*t^2 with the |d| clamp.
	groundY := float64(cfg.Playfield.Height - DefaultGroundHeight)
	y := cfg.Agent.SpawnY
	expected := 0
	for y+DefaultAgentHeight < groundY {
		expected++
		tt := float64(expected)
		d := cfg.Agent.JumpVelocity*tt + cfg.Agent.Gravity*tt*tt
		switch {
		case d > 0:
			d = math.Min(math.Max(d, cfg.Agent.MinStep), cfg.Agent.MaxStep)
		default:
			d = -math.Min(math.Max(-d, cfg.Agent.MinStep), cfg.Agent.MaxStep)
		}
		y += d
	}
	// Rises 81 units over 7 ticks, then 12 and 16 per tick: 297 + 16*27 >= 728.
	if expected != 36 {
		t.Fatalf("formula gives %d ticks, expected 36", expected)
	}

	var last TickResult
	for i := 0; i < 100 && !r.Finished(); i++ {
		last = r.Tick(idle)
	}

	if last.Tick != expected {
		t.Errorf("agent left the playfield at tick %d, expected %d", last.Tick, expected)
	}
	if len(last.Eliminations) != 1 || last.Eliminations[0].Reason != ReasonBoundary {
		t.Errorf("expected a single boundary elimination, got %+v", last.Eliminations)
	}
	if !last.Finished || r.State() != Finished {
		t.Error("round should be finished")
	}

	fitness, _ := r.Fitness(0)
	if math.Abs(fitness-0.1*float64(expected)) > 1e-9 {
		t.Errorf("fitness = %f, expected %f (no penalty on boundary exit)", fitness, 0.1*float64(expected))
	}
}

func TestFitnessAccounting(t *testing.T) {
	r := mustStart(t, hoverConfig(), 4, 9)

	const ticks = 300
	passTicks := []int{}
	for i := 0; i < ticks; i++ {
		res := r.Tick(idle)
		if len(res.Eliminations) != 0 {
			t.Fatalf("tick %d: unexpected eliminations %+v", res.Tick, res.Eliminations)
		}
		if res.Passed > 0 {
			passTicks = append(passTicks, res.Tick)
		}
	}

	// First obstacle: 804 - 5t < 230 at t=115; later ones spawn at 550 and
	// need 85 ticks each.
	want := []int{115, 200, 285}
	if len(passTicks) != len(want) {
		t.Fatalf("passes at ticks %v, expected %v", passTicks, want)
	}
	for i := range want {
		if passTicks[i] != want[i] {
			t.Errorf("pass %d at tick %d, expected %d", i, passTicks[i], want[i])
		}
	}
	if r.Score() != 3 {
		t.Errorf("Score() = %d, expected 3", r.Score())
	}

	expected := 0.1*ticks + 5*3
	for _, res := range r.Results() {
		if !res.Alive {
			t.Errorf("agent %d should be alive", res.Agent)
		}
		if math.Abs(res.Fitness-expected) > 1e-9 {
			t.Errorf("agent %d fitness = %f, expected %f", res.Agent, res.Fitness, expected)
		}
		if res.TicksAlive != ticks {
			t.Errorf("agent %d TicksAlive = %d, expected %d", res.Agent, res.TicksAlive, ticks)
		}
	}
}

func TestPassedObstacleScoresOnce(t *testing.T) {
	r := mustStart(t, hoverConfig(), 2, 5)

	seen := map[*Obstacle]bool{}
	totalPassed := 0
	for i := 0; i < 600; i++ {
		res := r.Tick(idle)
		totalPassed += res.Passed
		if res.Passed > 1 {
			t.Fatalf("tick %d: %d obstacles passed at once", res.Tick, res.Passed)
		}

		for o := range seen {
			if !o.Passed {
				t.Fatalf("tick %d: passed flag reverted", res.Tick)
			}
		}
		for _, o := range r.obstacles {
			if o.Passed {
				seen[o] = true
			}
		}
	}

	if totalPassed != r.Score() {
		t.Errorf("sum of per-tick passes %d != score %d", totalPassed, r.Score())
	}
	if len(seen) != r.Score() {
		t.Errorf("%d distinct obstacles passed, score %d", len(seen), r.Score())
	}
}

func TestActiveObstacleSkipsPassedLead(t *testing.T) {
	r := mustStart(t, hoverConfig(), 1, 11)

	// The lead barrier already sits behind the agent; the second is ahead.
	r.ClearObstacles()
	r.PlaceObstacle(100, 100)
	r.PlaceObstacle(600, 150)

	res := r.Tick(idle)
	obs := res.Observations[0].Observation
	want := Observation{Y: 350, GapDistance: 200, LowerDistance: 400}
	if obs != want {
		t.Errorf("observation = %+v, expected %+v", obs, want)
	}
	if res.Passed != 1 || r.Score() != 1 {
		t.Errorf("lead barrier should be scored on the first tick, got passed=%d score=%d", res.Passed, r.Score())
	}
}

func TestActiveObstacleWithSingleLead(t *testing.T) {
	r := mustStart(t, hoverConfig(), 1, 11)

	// Behind the agent but alone in the queue: still the active one.
	r.ClearObstacles()
	r.PlaceObstacle(100, 100)

	res := r.Tick(idle)
	obs := res.Observations[0].Observation
	if obs.GapDistance != 250 || obs.LowerDistance != 350 {
		t.Errorf("observation should target the only obstacle: %+v", obs)
	}
}

func TestFirstTickObservation(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 2, 4)
	gap := r.Obstacles()[0]

	var calls []AgentID
	res := r.Tick(DecisionFunc(func(id AgentID, obs Observation) bool {
		calls = append(calls, id)
		if obs.Y != 350 {
			t.Errorf("agent %d observed Y %f before moving, expected 350", id, obs.Y)
		}
		return false
	}))

	if len(calls) != 2 || calls[0] != 0 || calls[1] != 1 {
		t.Errorf("decisions requested in order %v, expected [0 1]", calls)
	}
	want := Observation{Y: 350, GapDistance: math.Abs(350 - float64(gap.GapY)), LowerDistance: math.Abs(350 - float64(gap.LowerBound))}
	if res.Observations[0].Observation != want {
		t.Errorf("observation = %+v, expected %+v", res.Observations[0].Observation, want)
	}
	if res.FitnessDeltas[0] != 0.1 || res.FitnessDeltas[1] != 0.1 {
		t.Errorf("expected survival deltas of 0.1, got %v", res.FitnessDeltas)
	}
}

func TestCollisionPenalty(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 1, 2)

	// Barrier right on top of the agent, gap far below.
	r.ClearObstacles()
	r.PlaceObstacle(200, 600)

	res := r.Tick(idle)
	if len(res.Eliminations) != 1 || res.Eliminations[0].Reason != ReasonCollision {
		t.Fatalf("expected a collision, got %+v", res.Eliminations)
	}
	if math.Abs(res.FitnessDeltas[0]-(0.1-1)) > 1e-9 {
		t.Errorf("fitness delta = %f, expected -0.9", res.FitnessDeltas[0])
	}
	if !res.Finished {
		t.Error("round should finish when the only agent collides")
	}
}

func TestCollisionPenaltyAppliedOnce(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 1, 2)

	// Two overlapping obstacles both hit the agent; it is removed by the first.
	r.ClearObstacles()
	r.PlaceObstacle(200, 600)
	r.PlaceObstacle(210, 600)

	r.Tick(idle)
	fitness, _ := r.Fitness(0)
	if math.Abs(fitness-(0.1-1)) > 1e-9 {
		t.Errorf("fitness = %f, expected a single penalty", fitness)
	}
}

func TestEliminationKeepsRemainingAgentsAligned(t *testing.T) {
	r := mustStart(t, hoverConfig(), 3, 8)

	for i := 0; i < 10; i++ {
		r.Tick(idle)
	}
	if err := r.Eliminate(1); err != nil {
		t.Fatalf("Eliminate(1) failed: %v", err)
	}
	if err := r.Eliminate(1); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("second Eliminate(1) should fail with ErrUnknownAgent, got %v", err)
	}

	// Agent 2 jumps every tick, agent 0 never does.
	var calls []AgentID
	provider := DecisionFunc(func(id AgentID, _ Observation) bool {
		calls = append(calls, id)
		return id == 2
	})
	var last TickResult
	for i := 0; i < 20; i++ {
		last = r.Tick(provider)
	}

	if r.Alive() != 2 {
		t.Fatalf("Alive() = %d, expected 2", r.Alive())
	}
	ids := r.LiveIDs()
	if ids[0] != 0 || ids[1] != 2 {
		t.Errorf("LiveIDs() = %v, expected [0 2]", ids)
	}
	for i := 0; i < len(calls); i += 2 {
		if calls[i] != 0 || calls[i+1] != 2 {
			t.Fatalf("decision order broken at call %d: %v", i, calls)
		}
	}

	results := r.Results()
	if math.Abs(results[0].Fitness-3.0) > 1e-9 || math.Abs(results[2].Fitness-3.0) > 1e-9 {
		t.Errorf("survivors should have 30 ticks of reward, got %f and %f", results[0].Fitness, results[2].Fitness)
	}
	if math.Abs(results[1].Fitness-1.0) > 1e-9 {
		t.Errorf("removed agent should keep its 10 ticks of reward, got %f", results[1].Fitness)
	}
	if results[1].Elimination.Reason != ReasonForced || results[1].Elimination.Tick != 10 {
		t.Errorf("unexpected elimination record %+v", results[1].Elimination)
	}

	if !last.Observations[1].Jumped || last.Observations[0].Jumped {
		t.Errorf("decisions reached the wrong agents: %+v", last.Observations)
	}
}

func TestEliminationFromInsideProvider(t *testing.T) {
	r := mustStart(t, hoverConfig(), 3, 8)

	var calls []AgentID
	res := r.Tick(DecisionFunc(func(id AgentID, _ Observation) bool {
		calls = append(calls, id)
		if id == 0 {
			if err := r.Eliminate(1); err != nil {
				t.Errorf("Eliminate(1) failed: %v", err)
			}
		}
		return false
	}))

	if len(calls) != 2 || calls[0] != 0 || calls[1] != 2 {
		t.Errorf("provider calls = %v, expected [0 2]", calls)
	}
	if _, ok := res.FitnessDeltas[1]; ok {
		t.Error("removed agent should not be rewarded for the tick")
	}
	if res.Alive != 2 {
		t.Errorf("Alive = %d, expected 2", res.Alive)
	}
}

func TestPopulationMonotonic(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 30, 21)
	rng := rand.New(rand.NewSource(21))
	coin := DecisionFunc(func(AgentID, Observation) bool { return rng.Intn(6) == 0 })

	alive := r.Alive()
	for i := 0; i < 5000 && !r.Finished(); i++ {
		res := r.Tick(coin)
		if res.Alive > alive {
			t.Fatalf("tick %d: population grew from %d to %d", res.Tick, alive, res.Alive)
		}
		if alive-res.Alive != len(res.Eliminations) {
			t.Fatalf("tick %d: lost %d agents but reported %d eliminations", res.Tick, alive-res.Alive, len(res.Eliminations))
		}
		alive = res.Alive
	}

	if !r.Finished() {
		t.Fatal("random flapping should not survive 5000 ticks")
	}
	for _, res := range r.Results() {
		if res.Alive || res.Elimination.Reason == ReasonNone {
			t.Errorf("agent %d has no elimination record", res.Agent)
		}
	}
}

func TestTickAfterFinishIsNoop(t *testing.T) {
	r := mustStart(t, config.DefaultSimConfig(), 1, 1)
	if err := r.Eliminate(0); err != nil {
		t.Fatalf("Eliminate(0) failed: %v", err)
	}
	if !r.Finished() {
		t.Fatal("round should finish once the last agent is removed")
	}

	res := r.Tick(idle)
	if !res.Finished || res.Tick != 0 || len(res.Observations) != 0 {
		t.Errorf("tick after finish should be a no-op, got %+v", res)
	}
}

func TestRoundDeterminism(t *testing.T) {
	run := func() []AgentResult {
		r := mustStart(t, config.DefaultSimConfig(), 10, 12345)
		rng := rand.New(rand.NewSource(99))
		coin := DecisionFunc(func(AgentID, Observation) bool { return rng.Intn(5) == 0 })
		for i := 0; i < 3000 && !r.Finished(); i++ {
			r.Tick(coin)
		}
		return r.Results()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("agent %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPoliciesProvider(t *testing.T) {
	p := Policies{
		PolicyFunc(func(Observation) bool { return true }),
		nil,
	}

	if !p.Decide(0, Observation{}) {
		t.Error("policy 0 should jump")
	}
	if p.Decide(1, Observation{}) {
		t.Error("nil policy should never jump")
	}
	if p.Decide(5, Observation{}) {
		t.Error("unpaired agent should never jump")
	}
}

func TestGroundScrollsSeamlessly(t *testing.T) {
	g := NewGround(776, DefaultGroundWidth, 5)

	wrapped := false
	prev := g.X1
	for i := 0; i < 1000; i++ {
		g.Advance()
		if g.X1 > prev {
			wrapped = true
		}
		prev = g.X1
		if g.X2 != g.X1+g.Width {
			t.Fatalf("tick %d: segments separated (%d, %d)", i, g.X1, g.X2)
		}
		if g.X1+g.Width <= 0 {
			t.Fatalf("tick %d: leading segment left the screen without rotating", i)
		}
		if g.X1 > 0 {
			t.Fatalf("tick %d: leading segment moved right of the origin", i)
		}
	}
	if !wrapped {
		t.Error("ground should have wrapped at least once")
	}
}
