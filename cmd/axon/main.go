package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axon-dev/axon/internal/config"
	"github.com/axon-dev/axon/pkg/signals"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗─┐ ┬┌─┐┌┐┌
  ╠═╣┌┴┬┘│ ││││
  ╩ ╩┴ └─└─┘┘└┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "axon",
		Short: "Lazy reactive signals for entity worlds",
		Long: `Axon is a lazy reactive signal engine for Go.

State, computed, effect and task nodes live on entities in a host
world. Sends are queued, collapsed last-write-wins, and drained in
explicit propagation passes:

  • Lazy memoized computeds, evaluated at most once per pass
  • Synchronous effects with exclusive host access
  • Deduplicated async tasks reporting back through deferred batches
  • Contained failures with stale-value reads and diagnostics
  • Live graph inspector over HTTP and WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		demoCmd(),
		benchCmd(),
		inspectCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Axon ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}

// engineOptions converts file configuration into engine options.
func engineOptions(cfg *config.Config) []signals.Option {
	return []signals.Option{
		signals.WithMaxEvalDepth(cfg.Engine.MaxEvalDepth),
		signals.WithEagerCycleCheck(cfg.Engine.EagerCycleCheck),
		signals.WithDiagnosticLimit(cfg.Engine.DiagnosticLimit),
	}
}
