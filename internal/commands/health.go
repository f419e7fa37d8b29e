package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/health"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/output"
)

// HealthCommand creates the health command.
func HealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the group service (and directory API, if set) is reachable",
		RunE:  runHealth,
	}
	cmd.Flags().String("health-path", "", "Health endpoint path on the group service")
	cmd.Flags().String("directory-health-path", "", "Health endpoint path on the directory API (skipped when empty)")
	return cmd
}

func runHealth(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	services := []health.Service{{Name: "group-service", URL: e.cfg.Target.URL + e.cfg.Target.HealthPath}}
	if p, _ := cmd.Flags().GetString("directory-health-path"); p != "" && e.cfg.Directory.URL != "" {
		services = append(services, health.Service{Name: "directory", URL: e.cfg.Directory.URL + p})
	}

	results, checkErr := health.NewChecker(e.cfg.HTTP.HealthCheckTimeout).CheckRequired(cmd.Context(), services...)

	if e.cfg.Output.Format == "json" {
		var errOut *output.ErrorOutput
		if checkErr != nil {
			errOut = &output.ErrorOutput{Message: checkErr.Error(), Code: "SERVICE_UNAVAILABLE"}
		}
		if err := output.NewJSONFormatter(e.stdout).WriteResult("health", results, nil, errOut); err != nil {
			return err
		}
	} else if !e.cfg.Output.Quiet {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.Service, r.URL, strconv.FormatBool(r.Healthy), r.Latency.Round(time.Millisecond).String(), r.ErrorMsg})
		}
		if err := output.PrintTable(e.stdout, []string{"SERVICE", "URL", "HEALTHY", "LATENCY", "ERROR"}, rows); err != nil {
			return err
		}
	}

	if checkErr != nil {
		return toCLIError(checkErr)
	}
	return nil
}
