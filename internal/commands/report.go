package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/loadtest"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/output"
)

var chunkColumns = []string{"chunk", "members", "succeeded", "failed", "duration_ms", "outcome"}

func chunkRow(c loadtest.ChunkTiming) []string {
	return []string{
		strconv.Itoa(c.Index),
		strconv.Itoa(c.Members),
		strconv.Itoa(c.Succeeded),
		strconv.Itoa(c.Failed),
		strconv.FormatInt(c.Duration.Milliseconds(), 10),
		c.Outcome,
	}
}

// writeReport renders the report in the configured format. cliErr, when set,
// is embedded in JSON output; table output leaves errors to main.
func writeReport(w io.Writer, format string, report *loadtest.Report, cliErr *clierrors.CLIError) error {
	if format == "json" {
		var errOut *output.ErrorOutput
		if cliErr != nil {
			errOut = &output.ErrorOutput{
				Message:    cliErr.Error(),
				Code:       string(cliErr.Code),
				Suggestion: cliErr.Suggestion,
			}
		}
		return output.NewJSONFormatter(w).WriteResult("run", report, report.Summary(), errOut)
	}

	stats := report.Stats()
	t := output.NewTableFormatter(w)
	t.WriteField("Run", report.RunID)
	t.WriteField("Group", fallback(report.GroupID, "(not created)"))
	t.WriteField("Members requested", report.Requested)
	t.WriteField("  from directory", report.FromDirectory)
	t.WriteField("  synthetic", report.Synthetic)
	t.WriteField("  from file", report.FromFile)
	t.WriteField("Members added", report.Added)
	t.WriteField("Chunks", fmt.Sprintf("%d (size %d, budget %s)", stats.Count(), report.ChunkSize, report.Budget))
	t.WriteField("Latency", fmt.Sprintf("min %s / max %s / avg %s",
		stats.Min().Round(time.Millisecond), stats.Max().Round(time.Millisecond), stats.Avg().Round(time.Millisecond)))
	t.WriteField("Duration", report.Duration.Round(time.Millisecond))
	t.WriteField("Cleaned up", report.CleanedUp)
	if err := t.Flush(); err != nil {
		return err
	}

	if len(report.Chunks) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	rows := make([][]string, 0, len(report.Chunks))
	for _, c := range report.Chunks {
		rows = append(rows, chunkRow(c))
	}
	return output.PrintTable(w, chunkColumns, rows)
}

// writeChunkCSV exports the chunk timings for later analysis.
func writeChunkCSV(path string, report *loadtest.Report) error {
	c, err := output.CreateCSVFile(path)
	if err != nil {
		return err
	}
	if err := c.WriteMetadata(map[string]interface{}{
		"run_id":     report.RunID,
		"group_id":   report.GroupID,
		"budget_ms":  report.Budget.Milliseconds(),
		"chunk_size": report.ChunkSize,
	}); err != nil {
		c.Close()
		return err
	}
	if err := c.WriteHeader(chunkColumns); err != nil {
		c.Close()
		return err
	}
	for _, chunk := range report.Chunks {
		if err := c.WriteRow(chunkRow(chunk)); err != nil {
			c.Close()
			return err
		}
	}
	return c.Close()
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
