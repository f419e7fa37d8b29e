package commands

import (
	"errors"
	"strings"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/health"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/loadtest"
)

// toCLIError classifies err into a CLIError carrying the matching exit code.
func toCLIError(err error) *clierrors.CLIError {
	if err == nil {
		return nil
	}

	var cliErr *clierrors.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var unavailable *health.UnavailableError
	if errors.As(err, &unavailable) {
		names := make([]string, 0, len(unavailable.Unhealthy))
		urls := make([]string, 0, len(unavailable.Unhealthy))
		for _, h := range unavailable.Unhealthy {
			names = append(names, h.Service)
			urls = append(urls, h.URL)
		}
		e := clierrors.NewServiceUnavailableError(strings.Join(names, ", "), strings.Join(urls, ", "))
		e.Err = err
		return e
	}

	var budget *loadtest.LatencyBudgetError
	if errors.As(err, &budget) {
		return clierrors.NewLatencyBudgetError(err)
	}

	var membership *loadtest.MembershipError
	if errors.As(err, &membership) {
		return clierrors.NewMembershipError(err)
	}

	var cleanup *loadtest.CleanupError
	if errors.As(err, &cleanup) {
		return clierrors.NewCleanupError(cleanup.GroupID, cleanup.Err)
	}

	var step *loadtest.StepError
	if errors.As(err, &step) && step.Step == loadtest.StepAuth {
		return clierrors.NewAuthenticationError(step.Err)
	}

	suggestion := "Re-run with --log-level debug for request details."
	var status *client.StatusError
	if errors.As(err, &status) {
		switch {
		case status.StatusCode == 401 || status.StatusCode == 403:
			suggestion = "The token was rejected. Check the client's grants and --audience."
		case status.StatusCode >= 500:
			suggestion = "The service returned a server error. Check its logs for the request."
		}
	}
	e := clierrors.NewOperationError(err.Error(), suggestion)
	e.Err = err
	return e
}
