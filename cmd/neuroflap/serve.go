package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuroflap/internal/platform/tui"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServePolicy string
	flagServeAgents int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spectator SSH server",
	Long: `Start an SSH server where every connection watches its own round.

Each session gets a fresh round (the first uses --seed, every later
session the next seed) and the same viewer controls as 'neuroflap watch'. Finished rounds are saved to the
shared rounds database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.neuroflap/host_key

Examples:
  neuroflap serve
  neuroflap serve --ssh :2222 --policy coin
  neuroflap serve --host-key ./my_host_key

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServePolicy, "policy", "perceptron", "Policy driving the agents")
	serveCmd.Flags().IntVar(&flagServeAgents, "agents", 20, "Population size per session")
}

func runServe(_ *cobra.Command, _ []string) {
	requirePolicy(flagServePolicy)
	logger := newLogger()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open rounds database", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.Policy = flagServePolicy
	cfg.Population = populationFor(flagServePolicy, flagServeAgents)
	cfg.Sim = loadSimConfig()
	cfg.TickRate = flagFPS
	cfg.BaseSeed = baseSeed()

	server, err := tui.NewSSHServer(cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Neuroflap SSH server listening on %s\n", server.Addr())
	fmt.Println("Connect with: ssh localhost -p", portFromAddr(server.Addr()))
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// portFromAddr extracts the port from an address like ":23234" or "0.0.0.0:23234".
func portFromAddr(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i+1:]
		}
	}
	return addr
}
