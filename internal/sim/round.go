// Package sim implements the obstacle-avoidance environment used to score a
// population of externally controlled agents: flight kinematics, scrolling
// barriers with pixel-precise collision, and the per-tick population loop.
//
// A Round is single-threaded and not safe for concurrent use. Every tick is
// fully resolved before Tick returns; a driver halts a round simply by not
// calling Tick again.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/neuroflap/internal/config"
)

// State is the lifecycle state of a round.
type State int

const (
	Running  State = iota // At least one agent alive
	Finished              // No agents alive; terminal
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Reason explains why an agent left the live set.
type Reason int

const (
	ReasonNone      Reason = iota
	ReasonCollision        // Hit a barrier; penalised
	ReasonBoundary         // Touched the ground or the ceiling
	ReasonForced           // Removed by the driver through Eliminate
)

// String returns a human-readable name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCollision:
		return "collision"
	case ReasonBoundary:
		return "boundary"
	case ReasonForced:
		return "forced"
	default:
		return "unknown"
	}
}

// ErrUnknownAgent is returned by Eliminate for ids that are not alive.
var ErrUnknownAgent = errors.New("sim: agent is not alive")

// Elimination records an agent leaving the live set.
type Elimination struct {
	Agent  AgentID
	Reason Reason
	Tick   int
}

// AgentObservation pairs an agent with what it observed this tick.
type AgentObservation struct {
	Agent       AgentID
	Observation Observation
	Jumped      bool
}

// TickResult is returned by Round.Tick.
type TickResult struct {
	Tick          int
	Observations  []AgentObservation
	FitnessDeltas map[AgentID]float64
	Eliminations  []Elimination
	Passed        int // Obstacles passed this tick
	Score         int
	Alive         int
	Finished      bool
}

// AgentResult is the end-of-round (or current) outcome for one agent.
type AgentResult struct {
	Agent       AgentID
	Fitness     float64
	Alive       bool
	TicksAlive  int
	Elimination Elimination // Zero Reason while alive
}

// AgentView is a read-only snapshot of a live agent for rendering.
type AgentView struct {
	ID    AgentID
	X     int
	Y     float64
	Tilt  float64
	Frame int
}

// agentRecord binds an agent to its fitness accumulator. Records are never
// moved or deleted; the live slice is rebuilt by filtering.
type agentRecord struct {
	agent       *Agent
	fitness     float64
	alive       bool
	ticksAlive  int
	elimination Elimination
}

// Round is one simulation from population spawn to last-agent elimination.
type Round struct {
	cfg    config.SimConfig
	assets Assets
	rng    *rand.Rand
	seed   int64

	records   []*agentRecord // Indexed by AgentID
	live      []*agentRecord // Ascending AgentID
	obstacles []*Obstacle    // Oldest (leftmost) first
	barriers  *barrierSet
	ground    *Ground

	score int
	tick  int
	state State
}

// StartRound validates the parameters and spawns agentCount agents at the
// spawn point together with one obstacle.
func StartRound(cfg config.SimConfig, assets Assets, agentCount int, seed int64) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: cannot start round: %w", err)
	}
	if err := assets.Validate(); err != nil {
		return nil, err
	}
	if agentCount <= 0 {
		return nil, fmt.Errorf("sim: cannot start round: %w", &config.ValidationError{
			Field:  "agents",
			Reason: fmt.Sprintf("must be positive, got %d", agentCount),
		})
	}

	r := &Round{
		cfg:      cfg,
		assets:   assets,
		rng:      rand.New(rand.NewSource(seed)),
		seed:     seed,
		records:  make([]*agentRecord, agentCount),
		live:     make([]*agentRecord, agentCount),
		barriers: newBarrierSet(cfg.Obstacles, assets),
		ground:   NewGround(cfg.Playfield.Height-assets.GroundHeight, assets.GroundWidth, cfg.Ground.Speed),
		state:    Running,
	}

	for i := range r.records {
		rec := &agentRecord{
			agent: NewAgent(AgentID(i), cfg.Agent, assets.AgentFrames),
			alive: true,
		}
		r.records[i] = rec
		r.live[i] = rec
	}

	r.spawnObstacle(cfg.Obstacles.FirstX)
	return r, nil
}

// spawnObstacle appends an obstacle with a freshly sampled gap.
func (r *Round) spawnObstacle(x int) {
	r.obstacles = append(r.obstacles, newObstacle(x, r.rng, r.barriers))
}

// PlaceObstacle appends an obstacle with a fixed gap top. It lets a driver
// replay a known course instead of a sampled one.
func (r *Round) PlaceObstacle(x, gapY int) Obstacle {
	o := newObstacleAt(x, gapY, r.barriers)
	r.obstacles = append(r.obstacles, o)
	return *o
}

// ClearObstacles empties the obstacle queue. Together with PlaceObstacle it
// lets a driver lay out a scripted course.
func (r *Round) ClearObstacles() {
	r.obstacles = r.obstacles[:0]
}

// Tick advances the round by one step. The order of the phases below is part
// of the contract: reordering them changes fitness outcomes.
func (r *Round) Tick(provider DecisionProvider) TickResult {
	if r.state == Finished {
		return r.result(0, nil, nil, nil)
	}
	r.tick++

	deltas := make(map[AgentID]float64, len(r.live))
	var eliminations []Elimination

	// 1. Pick the obstacle the cohort is heading for.
	if len(r.obstacles) == 0 {
		r.spawnObstacle(r.cfg.Obstacles.SpawnX)
	}
	active := r.obstacles[r.activeIndex()]

	// 2. Decide, reward survival, apply and integrate, in id order.
	observations := make([]AgentObservation, 0, len(r.live))
	for _, rec := range r.live {
		if !rec.alive {
			continue // Eliminated by the provider earlier in this loop
		}
		a := rec.agent
		obs := Observation{
			Y:             a.Y(),
			GapDistance:   math.Abs(a.Y() - float64(active.GapY)),
			LowerDistance: math.Abs(a.Y() - float64(active.LowerBound)),
		}
		jump := false
		if provider != nil {
			jump = provider.Decide(a.ID(), obs)
		}
		if !rec.alive {
			continue
		}
		observations = append(observations, AgentObservation{Agent: a.ID(), Observation: obs, Jumped: jump})

		rec.fitness += r.cfg.Rewards.Survival
		deltas[a.ID()] += r.cfg.Rewards.Survival
		rec.ticksAlive++

		a.ApplyDecision(jump)
		a.Advance()
	}

	// 3. Scroll the floor.
	r.ground.Advance()

	// 4. Scroll obstacles, collide, and detect passes.
	passed := 0
	offScreen := false
	for _, o := range r.obstacles {
		o.Advance()

		for _, rec := range r.live {
			if !rec.alive || !o.CollidesWith(rec.agent) {
				continue
			}
			rec.fitness -= r.cfg.Rewards.CollisionPenalty
			deltas[rec.agent.ID()] -= r.cfg.Rewards.CollisionPenalty
			eliminations = append(eliminations, r.eliminate(rec, ReasonCollision))
		}

		if o.OffScreen() {
			offScreen = true
		}

		if !o.Passed {
			if refX, ok := r.referenceX(); ok && o.RightEdge() < refX {
				o.Passed = true
				passed++
			}
		}
	}

	// 5. Score passes, reward survivors, queue replacements.
	for i := 0; i < passed; i++ {
		r.score++
		for _, rec := range r.live {
			if !rec.alive {
				continue
			}
			rec.fitness += r.cfg.Rewards.Pass
			deltas[rec.agent.ID()] += r.cfg.Rewards.Pass
		}
		r.spawnObstacle(r.cfg.Obstacles.SpawnX)
	}

	// 6. Drop obstacles that scrolled away.
	if offScreen {
		kept := r.obstacles[:0]
		for _, o := range r.obstacles {
			if !o.OffScreen() {
				kept = append(kept, o)
			}
		}
		r.obstacles = kept
	}

	// 7. Floor and ceiling; no penalty.
	for _, rec := range r.live {
		if !rec.alive {
			continue
		}
		a := rec.agent
		if a.Y()+float64(a.Height()) >= float64(r.ground.Y) || a.Y() <= 0 {
			eliminations = append(eliminations, r.eliminate(rec, ReasonBoundary))
		}
	}

	// 8. Reconcile the live set and finish when it is empty.
	r.compact()

	return r.result(passed, observations, deltas, eliminations)
}

// activeIndex returns 1 when the lead obstacle is already behind the cohort
// and a second one is queued, else 0.
func (r *Round) activeIndex() int {
	if len(r.obstacles) < 2 {
		return 0
	}
	refX, ok := r.referenceX()
	if ok && refX > r.obstacles[0].RightEdge() {
		return 1
	}
	return 0
}

// referenceX returns the x of the leftmost live agent.
func (r *Round) referenceX() (int, bool) {
	found := false
	x := 0
	for _, rec := range r.live {
		if !rec.alive {
			continue
		}
		if !found || rec.agent.X() < x {
			x = rec.agent.X()
			found = true
		}
	}
	return x, found
}

// eliminate marks rec as no longer alive. The live slice is rebuilt in
// compact, so iteration over it stays valid.
func (r *Round) eliminate(rec *agentRecord, reason Reason) Elimination {
	rec.alive = false
	rec.elimination = Elimination{
		Agent:  rec.agent.ID(),
		Reason: reason,
		Tick:   r.tick,
	}
	return rec.elimination
}

// compact filters eliminated records out of the live set and updates state.
func (r *Round) compact() {
	kept := make([]*agentRecord, 0, len(r.live))
	for _, rec := range r.live {
		if rec.alive {
			kept = append(kept, rec)
		}
	}
	r.live = kept
	r.checkInvariants()

	if len(r.live) == 0 {
		r.state = Finished
	}
}

// checkInvariants panics if the live set and the records disagree. That can
// only happen through a programming error.
func (r *Round) checkInvariants() {
	alive := 0
	for _, rec := range r.records {
		if rec.alive {
			alive++
		}
	}
	if alive != len(r.live) {
		panic(fmt.Sprintf("sim: live set out of sync: %d records alive, %d in live set", alive, len(r.live)))
	}
	for i := 1; i < len(r.live); i++ {
		if r.live[i-1].agent.ID() >= r.live[i].agent.ID() {
			panic("sim: live set out of order")
		}
	}
}

func (r *Round) result(passed int, obs []AgentObservation, deltas map[AgentID]float64, elims []Elimination) TickResult {
	if deltas == nil {
		deltas = map[AgentID]float64{}
	}
	return TickResult{
		Tick:          r.tick,
		Observations:  obs,
		FitnessDeltas: deltas,
		Eliminations:  elims,
		Passed:        passed,
		Score:         r.score,
		Alive:         len(r.live),
		Finished:      r.state == Finished,
	}
}

// Eliminate removes a live agent without penalty. It may be called between
// ticks or from inside a DecisionProvider; in the latter case the agent is
// skipped for the rest of the tick.
func (r *Round) Eliminate(id AgentID) error {
	if int(id) < 0 || int(id) >= len(r.records) || !r.records[id].alive {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	r.eliminate(r.records[id], ReasonForced)
	r.compact()
	return nil
}

// State returns the round's lifecycle state.
func (r *Round) State() State {
	return r.state
}

// Finished reports whether every agent has been eliminated.
func (r *Round) Finished() bool {
	return r.state == Finished
}

// Score returns the number of obstacles passed by the surviving cohort.
func (r *Round) Score() int {
	return r.score
}

// TickCount returns the number of ticks simulated so far.
func (r *Round) TickCount() int {
	return r.tick
}

// Seed returns the seed the obstacle gaps are drawn from.
func (r *Round) Seed() int64 {
	return r.seed
}

// Size returns the population size the round started with.
func (r *Round) Size() int {
	return len(r.records)
}

// Alive returns the number of live agents.
func (r *Round) Alive() int {
	return len(r.live)
}

// LiveIDs returns the ids of live agents in ascending order.
func (r *Round) LiveIDs() []AgentID {
	ids := make([]AgentID, len(r.live))
	for i, rec := range r.live {
		ids[i] = rec.agent.ID()
	}
	return ids
}

// Agent returns the live agent with the given id.
func (r *Round) Agent(id AgentID) (*Agent, bool) {
	if int(id) < 0 || int(id) >= len(r.records) || !r.records[id].alive {
		return nil, false
	}
	return r.records[id].agent, true
}

// Agents returns snapshots of the live agents.
func (r *Round) Agents() []AgentView {
	views := make([]AgentView, len(r.live))
	for i, rec := range r.live {
		a := rec.agent
		views[i] = AgentView{ID: a.ID(), X: a.X(), Y: a.Y(), Tilt: a.Tilt(), Frame: a.Frame()}
	}
	return views
}

// Obstacles returns copies of the queued obstacles, oldest first.
func (r *Round) Obstacles() []Obstacle {
	out := make([]Obstacle, len(r.obstacles))
	for i, o := range r.obstacles {
		out[i] = *o
	}
	return out
}

// Ground returns a copy of the floor state.
func (r *Round) Ground() Ground {
	return *r.ground
}

// Config returns the parameters the round was started with.
func (r *Round) Config() config.SimConfig {
	return r.cfg
}

// Assets returns the collision geometry of the round.
func (r *Round) Assets() Assets {
	return r.assets
}

// Fitness returns the accumulated fitness of an agent, alive or not.
func (r *Round) Fitness(id AgentID) (float64, bool) {
	if int(id) < 0 || int(id) >= len(r.records) {
		return 0, false
	}
	return r.records[id].fitness, true
}

// Results returns the outcome of every agent, in id order.
func (r *Round) Results() []AgentResult {
	out := make([]AgentResult, len(r.records))
	for i, rec := range r.records {
		out[i] = AgentResult{
			Agent:       rec.agent.ID(),
			Fitness:     rec.fitness,
			Alive:       rec.alive,
			TicksAlive:  rec.ticksAlive,
			Elimination: rec.elimination,
		}
	}
	return out
}
