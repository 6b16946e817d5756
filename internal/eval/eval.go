// Package eval runs rounds headlessly and reports per-agent fitness.
package eval

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/sim"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

// Evaluator drives rounds to completion without rendering.
type Evaluator struct {
	Config   config.SimConfig
	Assets   sim.Assets
	MaxTicks int         // Zero means no limit
	Logger   *log.Logger // Nil discards output
}

// New returns an evaluator with default assets and the given parameters.
func New(cfg config.SimConfig, maxTicks int, logger *log.Logger) *Evaluator {
	return &Evaluator{
		Config:   cfg,
		Assets:   sim.DefaultAssets(),
		MaxTicks: maxTicks,
		Logger:   logger,
	}
}

// Report is the outcome of one evaluated round.
type Report struct {
	RoundID  string
	Seed     int64
	Ticks    int
	Score    int
	Halted   bool // Stopped by the tick limit or cancellation
	Results  []sim.AgentResult
	Duration time.Duration
}

// Best returns the fittest agent. Ties go to the lowest id.
func (r *Report) Best() sim.AgentResult {
	var best sim.AgentResult
	for i, res := range r.Results {
		if i == 0 || res.Fitness > best.Fitness {
			best = res
		}
	}
	return best
}

// Record converts the report into rows for the round store.
func (r *Report) Record(policy string) (storage.RoundRecord, []storage.AgentRecord) {
	round := storage.RoundRecord{
		RoundID:     r.RoundID,
		Policy:      policy,
		Seed:        r.Seed,
		Agents:      len(r.Results),
		Ticks:       r.Ticks,
		Score:       r.Score,
		BestFitness: r.Best().Fitness,
		Halted:      r.Halted,
	}

	agents := make([]storage.AgentRecord, len(r.Results))
	for i, res := range r.Results {
		agents[i] = storage.AgentRecord{
			RoundID:    r.RoundID,
			AgentID:    int(res.Agent),
			Fitness:    res.Fitness,
			TicksAlive: res.TicksAlive,
			Reason:     res.Elimination.Reason.String(),
		}
	}
	return round, agents
}

func (e *Evaluator) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

// Evaluate runs one round with one agent per policy. It stops when every
// agent is eliminated, when MaxTicks is reached, or when ctx is cancelled.
// Cancellation is only observed between ticks; in that case the partial
// report is returned together with the context error.
func (e *Evaluator) Evaluate(ctx context.Context, policies sim.Policies, seed int64) (*Report, error) {
	logger := e.logger()

	round, err := sim.StartRound(e.Config, e.Assets, len(policies), seed)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}

	report := &Report{
		RoundID: uuid.NewString(),
		Seed:    seed,
	}
	logger.Debug("round started", "round", report.RoundID, "agents", len(policies), "seed", seed)

	start := time.Now()
	var runErr error
	for !round.Finished() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if e.MaxTicks > 0 && round.TickCount() >= e.MaxTicks {
			break
		}

		res := round.Tick(policies)
		for _, el := range res.Eliminations {
			logger.Debug("agent eliminated", "round", report.RoundID, "agent", el.Agent, "reason", el.Reason, "tick", el.Tick)
		}
		if res.Passed > 0 {
			logger.Debug("obstacle passed", "round", report.RoundID, "score", res.Score, "alive", res.Alive)
		}
	}

	report.Ticks = round.TickCount()
	report.Score = round.Score()
	report.Halted = !round.Finished()
	report.Results = round.Results()
	report.Duration = time.Since(start)

	best := report.Best()
	logger.Info("round finished",
		"round", report.RoundID,
		"ticks", report.Ticks,
		"score", report.Score,
		"best_agent", best.Agent,
		"best_fitness", fmt.Sprintf("%.1f", best.Fitness),
		"halted", report.Halted,
	)

	return report, runErr
}

// EvaluateSeeds runs one round per seed, building a fresh population for each
// from build. It stops at the first error.
func (e *Evaluator) EvaluateSeeds(ctx context.Context, seeds []int64, build func(seed int64) (sim.Policies, error)) ([]*Report, error) {
	reports := make([]*Report, 0, len(seeds))
	for _, seed := range seeds {
		policies, err := build(seed)
		if err != nil {
			return reports, fmt.Errorf("eval: cannot build population for seed %d: %w", seed, err)
		}
		report, err := e.Evaluate(ctx, policies, seed)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
