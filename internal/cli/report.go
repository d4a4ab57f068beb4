package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [DOC]",
	Short: "Print a readable summary of a document",
	Long: `Prints the sleep window, the per-metric bed/wake and previous-day
values, overnight HRV and blood pressure readings of a normalized
document. DOC defaults to result.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	path := "result.json"
	if len(args) > 0 {
		path = args[0]
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	zone, err := a.cfg.OutputZone()
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout(), doc, zone)
}
