package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuroflap/internal/eval"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

var (
	flagPolicy   string
	flagAgents   int
	flagRounds   int
	flagMaxTicks int
	flagNoSave   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate a population headlessly",
	Long: `Run one or more rounds without rendering and print per-round results.

Each round uses its own seed: the base seed plus the round index. Results are
saved to the rounds database unless --no-save is given. Ctrl+C stops the
current round at the next tick; the partial round is still reported.

Examples:
  neuroflap run
  neuroflap run --policy coin --agents 100
  neuroflap run --rounds 10 --seed 42 --max-ticks 5000`,
	Run: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagPolicy, "policy", "perceptron", "Policy driving the agents")
	runCmd.Flags().IntVar(&flagAgents, "agents", 20, "Population size")
	runCmd.Flags().IntVar(&flagRounds, "rounds", 1, "Number of rounds (one seed each)")
	runCmd.Flags().IntVar(&flagMaxTicks, "max-ticks", 20000, "Stop a round after this many ticks (0 = no limit)")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record results")
}

func runRun(_ *cobra.Command, _ []string) {
	requirePolicy(flagPolicy)
	if flagRounds <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --rounds must be positive")
		os.Exit(1)
	}

	logger := newLogger()
	evaluator := eval.New(loadSimConfig(), flagMaxTicks, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := baseSeed()
	seeds := make([]int64, flagRounds)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}

	reports, runErr := evaluator.EvaluateSeeds(ctx, seeds, populationFor(flagPolicy, flagAgents))

	var store *storage.Store
	if !flagNoSave && len(reports) > 0 {
		var err error
		store, err = storage.Open(flagDBPath)
		if err != nil {
			logger.Warn("could not open rounds database", "error", err)
		} else {
			defer store.Close()
		}
	}

	fmt.Printf("Policy %s, %d agents\n\n", flagPolicy, flagAgents)
	fmt.Printf("  %-5s  %-20s  %7s  %5s  %10s  %10s\n", "Round", "Seed", "Ticks", "Score", "Best", "Best agent")
	fmt.Printf("  %-5s  %-20s  %7s  %5s  %10s  %10s\n", "-----", "----", "-----", "-----", "----", "----------")

	for i, r := range reports {
		best := r.Best()
		ticks := fmt.Sprintf("%d", r.Ticks)
		if r.Halted {
			ticks += "*"
		}
		fmt.Printf("  %-5d  %-20d  %7s  %5d  %10.1f  %10d\n", i+1, r.Seed, ticks, r.Score, best.Fitness, best.Agent)

		if store != nil {
			round, agents := r.Record(flagPolicy)
			if _, err := store.SaveRound(round, agents); err != nil {
				logger.Warn("could not save round", "round", r.RoundID, "error", err)
			}
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "\nStopped: %v\n", runErr)
		os.Exit(1)
	}
}
