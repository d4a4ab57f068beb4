package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/models"
)

var (
	appendDryRun bool
	appendForce  bool
	appendDate   string
)

var appendCmd = &cobra.Command{
	Use:   "append [DOC]",
	Short: "Append the summary row of a document to the sinks",
	Long: `Builds the summary row from a normalized document and appends it to
every enabled sink. The document is read from DOC, or from the document
store with --date.

A sink that already received the same document is skipped unless --force
is given. --dry-run prints the row instead of appending it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().BoolVar(&appendDryRun, "dry-run", false, "Print the row without appending")
	appendCmd.Flags().BoolVar(&appendForce, "force", false, "Append even if the document was appended before")
	appendCmd.Flags().StringVar(&appendDate, "date", "", "Load the document for this date from the document store")
}

func runAppend(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && appendDate == "" {
		return fmt.Errorf("append needs DOC or --date")
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := a.pipeline(ctx, pipelineMode{append: !appendDryRun})
	if err != nil {
		return err
	}

	var data []byte
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		day, perr := parseDate(appendDate)
		if perr != nil {
			return perr
		}
		data, err = p.Load(ctx, day)
	}
	if err != nil {
		return err
	}

	if appendDryRun {
		_, row, err := p.Row(data)
		if err != nil {
			return err
		}
		out, err := json.Marshal(row)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	res, err := p.Append(ctx, data, appendForce)
	if err != nil {
		return err
	}
	a.log.Info("append finished", "date", res.Day.Format(models.DateLayout),
		"appended", res.Appended, "skipped", res.Skipped)
	return nil
}
