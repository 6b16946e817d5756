package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/neuroflap/internal/core"
	"github.com/vovakirdan/neuroflap/internal/platform/tui"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

var (
	flagWatchPolicy string
	flagWatchAgents int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a population play live",
	Long: `Play a round in the terminal, drawing barriers, agents and the floor.

Controls:
  P/Space    - Pause
  R          - Start a new round with the next seed
  +/-        - Faster/slower
  Q/Ctrl+C   - Quit

Finished rounds are saved to the rounds database.

Examples:
  neuroflap watch
  neuroflap watch --policy coin --agents 40
  neuroflap watch --seed 7 --fps 60`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchPolicy, "policy", "perceptron", "Policy driving the agents")
	watchCmd.Flags().IntVar(&flagWatchAgents, "agents", 20, "Population size")
}

func runWatch(_ *cobra.Command, _ []string) {
	requirePolicy(flagWatchPolicy)

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	cfg := core.DefaultConfig()
	cfg.ScreenW = width
	cfg.ScreenH = height
	cfg.TickRate = flagFPS
	cfg.Seed = baseSeed()
	cfg.Agents = flagWatchAgents

	logger := newLogger()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open rounds database", "error", err)
		store = nil
	}

	runErr := tui.Run(tui.ViewerOptions{
		Policy:     flagWatchPolicy,
		Population: populationFor(flagWatchPolicy, cfg.Agents),
		Sim:        loadSimConfig(),
		Runtime:    cfg,
		Store:      store,
		Logger:     logger,
	})

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", runErr)
		os.Exit(1)
	}
}
