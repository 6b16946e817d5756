// neuroflap scores populations of obstacle-avoiding agents in the terminal.
//
// Usage:
//
//	neuroflap run              - Evaluate a population headlessly
//	neuroflap watch            - Watch a population play live
//	neuroflap serve            - Start SSH server for spectators
//	neuroflap history          - Show the best saved rounds
//	neuroflap policies         - List available policies
//
// Global flags:
//
//	--fps <rate>      - Set viewer frame rate (default: 30)
//	--seed <value>    - Set RNG seed for reproducible rounds
//	--db <path>       - Set database path (default: ~/.neuroflap/rounds.db)
//	--config <path>   - Use a custom simulation config YAML
//	--verbose         - Log every elimination and pass
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuroflap/internal/config"
	_ "github.com/vovakirdan/neuroflap/internal/policy" // Register reference policies
	"github.com/vovakirdan/neuroflap/internal/registry"
	"github.com/vovakirdan/neuroflap/internal/sim"
)

var (
	// Global flags
	flagFPS     int
	flagSeed    int64
	flagDBPath  string
	flagConfig  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neuroflap",
	Short: "Neuroflap - score agent populations on a scrolling obstacle course",
	Long: `Neuroflap runs populations of agents through a side-scrolling course of
barriers and scores every agent by how long it survives and how many
barriers the population clears.

Available commands:
  run       - Evaluate a population headlessly and save the results
  watch     - Watch a population play in the terminal
  serve     - Start SSH server where every session watches its own round
  history   - View the best saved rounds
  policies  - List the registered policies

Examples:
  neuroflap run --policy perceptron --agents 50 --rounds 5
  neuroflap watch --policy coin
  neuroflap serve --ssh :2222
  neuroflap history --tui`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Viewer frame rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.neuroflap/rounds.db", "Path to rounds database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom simulation config YAML")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(policiesCmd)
}

// newLogger builds the process logger from the global flags.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "neuroflap",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadSimConfig loads the simulation parameters or exits.
func loadSimConfig() config.SimConfig {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config:\n%v\n", err)
		os.Exit(1)
	}
	return cfg
}

// baseSeed returns the --seed flag, or a time-based seed when it is zero.
func baseSeed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// requirePolicy exits with a hint when the policy is unknown.
func requirePolicy(id string) {
	if !registry.Exists(id) {
		fmt.Fprintf(os.Stderr, "Error: unknown policy %q\n", id)
		fmt.Fprintln(os.Stderr, "Run 'neuroflap policies' to see available policies.")
		os.Exit(1)
	}
}

// populationFor returns a builder that creates n agents of the given policy,
// seeding their randomness from the round seed.
func populationFor(id string, n int) func(seed int64) (sim.Policies, error) {
	return func(seed int64) (sim.Policies, error) {
		return registry.Create(id, n, rand.New(rand.NewSource(seed)))
	}
}
