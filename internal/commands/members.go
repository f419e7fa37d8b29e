package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/auth"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/directory"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/output"
)

// MembersCommand creates the members command, which reads ids from the
// directory API without touching the group service.
func MembersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Fetch member ids from the directory API",
		Long: `Members reads exactly --count ids from the paginated directory API. With
--out the list is saved as a members file that 'run --members-file' accepts.`,
		RunE: runMembers,
	}
	f := cmd.Flags()
	f.Int("count", 100, "Number of ids to fetch")
	f.String("directory-kind", "", "Directory listing to read: users, groups")
	f.Int("page-size", 0, "Directory page size (max 100)")
	f.Duration("page-delay", 0, "Pause between directory pages (default 1s)")
	f.String("out", "", "Write the ids to this members file (.json or .yaml)")
	return cmd
}

func runMembers(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		return clierrors.NewUsageError(fmt.Sprintf("--count must be at least 1, got %d", count))
	}
	if err := e.cfg.ValidateDirectory(); err != nil {
		return clierrors.NewValidationError(err.Error(), "Set DIRECTORY_API_URL or pass --directory-url.")
	}
	if err := e.requireAuth(); err != nil {
		return err
	}

	ctx := cmd.Context()
	ts := e.tokenSource(ctx)
	if _, err := auth.FetchToken(ts); err != nil {
		return clierrors.NewAuthenticationError(err)
	}
	httpClient := auth.NewHTTPClient(ts, http.DefaultTransport, e.cfg.HTTP.Timeout)

	dir := e.directoryClient(httpClient, func(p directory.PageStats) {
		e.log.Info("directory page", zap.Int("page", p.Page), zap.Int("count", p.Count))
	})
	list, err := dir.FetchMembers(ctx, count)
	if err != nil {
		return toCLIError(err)
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := members.WriteFile(out, list); err != nil {
			return clierrors.NewOperationError(err.Error(), "Check that the output directory exists and is writable.")
		}
		e.log.Info("members file written", zap.String("path", out), zap.Int("members", len(list)))
	}

	if e.cfg.Output.Format == "json" {
		return output.NewJSONFormatter(e.stdout).WriteSuccess("members", list, map[string]interface{}{"count": len(list)})
	}
	if e.cfg.Output.Quiet {
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		rows = append(rows, []string{m.ID, string(m.Type)})
	}
	return output.PrintTable(e.stdout, []string{"ID", "TYPE"}, rows)
}
