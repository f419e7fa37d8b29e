package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/auth"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/output"
)

// DeleteGroupCommand creates the delete-group command for removing a test
// group a previous run could not clean up.
func DeleteGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-group",
		Short: "Delete a test group left behind by a failed cleanup",
		RunE:  runDeleteGroup,
	}
	cmd.Flags().String("group-id", "", "ID of the group to delete (required)")
	cmd.Flags().Duration("cleanup-timeout", 0, "Timeout for the delete call")
	_ = cmd.MarkFlagRequired("group-id")
	return cmd
}

func runDeleteGroup(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	groupID, _ := cmd.Flags().GetString("group-id")
	if groupID == "" {
		return clierrors.NewUsageError("--group-id is required")
	}
	if err := e.requireAuth(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.LoadTest.CleanupTimeout)
	defer cancel()

	ts := e.tokenSource(ctx)
	if _, err := auth.FetchToken(ts); err != nil {
		return clierrors.NewAuthenticationError(err)
	}
	c := groups.NewClient(e.cfg.Target.URL, auth.NewHTTPClient(ts, http.DefaultTransport, e.cfg.HTTP.Timeout))
	if err := c.DeleteGroup(ctx, groupID); err != nil {
		return clierrors.NewCleanupError(groupID, err)
	}
	e.log.Info("group deleted", zap.String("group_id", groupID))

	if e.cfg.Output.Format == "json" {
		return output.NewJSONFormatter(e.stdout).WriteSuccess("delete-group", map[string]string{"group_id": groupID}, nil)
	}
	if !e.cfg.Output.Quiet {
		fmt.Fprintf(e.stdout, "Deleted group %s\n", groupID)
	}
	return nil
}
