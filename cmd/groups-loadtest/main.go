// Command groups-loadtest load tests the bulk membership API of the group
// service.
//
// Purpose:
//
//	Create a temporary group, add synthetic and/or directory members to it in
//	chunks while timing every call against a latency budget, and delete the
//	group again. Exit codes distinguish latency, membership and cleanup
//	failures so CI pipelines can react to each.
//
// Dependencies:
//   - internal/commands: Cobra command implementations
//   - internal/errors: CLIError with exit codes
//
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/commands"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := commands.NewRootCommand(fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildTime))
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var cliErr *clierrors.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "%v\n", cliErr)
			os.Exit(cliErr.ExitCode)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(clierrors.ExitGeneral)
	}
}
