package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/neuroflap/internal/platform/tui"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

var (
	flagHistoryPolicy string
	flagHistoryLimit  int
	flagHistoryTUI    bool
	flagHistoryClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the best saved rounds",
	Long: `Display the best saved rounds, ranked by score and then by the fitness
of the best agent. Rounds marked with * were stopped before every agent
was eliminated.

Examples:
  neuroflap history
  neuroflap history --policy coin --limit 20
  neuroflap history --tui
  neuroflap history --policy idle --clear`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryPolicy, "policy", "", "Only show rounds of this policy")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of rounds to show")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse the history interactively")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete the saved rounds of --policy (all when empty)")
}

func runHistory(_ *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening rounds database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagHistoryClear {
		if err := store.ClearRounds(flagHistoryPolicy); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing rounds: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared.")
		return
	}

	if flagHistoryTUI {
		width, height := 100, 30 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		if err := tui.RunHistory(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error running history browser: %v\n", err)
			os.Exit(1)
		}
		return
	}

	rounds, err := store.TopRounds(flagHistoryPolicy, flagHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving rounds: %v\n", err)
		os.Exit(1)
	}

	title := "all policies"
	if flagHistoryPolicy != "" {
		title = flagHistoryPolicy
	}
	fmt.Printf("Best rounds - %s\n", title)
	fmt.Println()

	if len(rounds) == 0 {
		fmt.Println("No rounds recorded yet.")
		fmt.Println()
		fmt.Println("Run 'neuroflap run' to record the first round!")
		return
	}

	fmt.Printf("  %-4s  %-12s  %-5s  %-8s  %-7s  %-6s  %s\n", "Rank", "Policy", "Score", "Best", "Ticks", "Agents", "Date")
	fmt.Printf("  %-4s  %-12s  %-5s  %-8s  %-7s  %-6s  %s\n", "----", "------", "-----", "----", "-----", "------", "----")

	for i, r := range rounds {
		ticks := fmt.Sprintf("%d", r.Ticks)
		if r.Halted {
			ticks += "*"
		}
		fmt.Printf("  %-4d  %-12s  %-5d  %-8.1f  %-7s  %-6d  %s\n",
			i+1, r.Policy, r.Score, r.BestFitness, ticks, r.Agents, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.PolicyStats()
	if err != nil || len(stats) == 0 {
		return
	}
	fmt.Println()
	for _, s := range stats {
		if flagHistoryPolicy != "" && s.Policy != flagHistoryPolicy {
			continue
		}
		fmt.Printf("%s: %d rounds, best score %d, average %.2f\n", s.Policy, s.Rounds, s.BestScore, s.AvgScore)
	}
}
