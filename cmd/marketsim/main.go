// Command marketsim runs seeded bilateral negotiation market simulations.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	// .env is optional; used for local overrides like OLLAMA_BASE_URL
	godotenv.Load()

	root := &cobra.Command{
		Use:   "marketsim",
		Short: "Deterministic buyer/seller negotiation market simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newSweepCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
