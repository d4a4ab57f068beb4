package cli

import (
	"github.com/spf13/cobra"
)

var fetchSave bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [DATE]",
	Short: "Fetch and normalize one day of data",
	Long: `Fetches the sleep, body battery, stress, heart rate, HRV and blood
pressure data for DATE (default: today), rewrites every timestamp to
ISO 8601 and prints the resulting document.

With --save the document is also written to the document store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "Save the document to the document store")
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, day, err := resolveDay(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := a.pipeline(ctx, pipelineMode{fetch: true})
	if err != nil {
		return err
	}
	doc, err := p.Fetch(ctx, day)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(doc.Data); err != nil {
		return err
	}
	if fetchSave {
		return p.Save(ctx, doc)
	}
	return nil
}
