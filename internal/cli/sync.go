package cli

import (
	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/models"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync [DATE]",
	Short: "Fetch, save and append one day",
	Long: `Runs fetch --save and append for DATE (default: today) in one go.
This is the command to schedule once a day.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Append even if the document was appended before")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, day, err := resolveDay(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := a.pipeline(ctx, pipelineMode{fetch: true, append: true})
	if err != nil {
		return err
	}
	res, err := p.Sync(ctx, day, syncForce)
	if err != nil {
		return err
	}
	a.log.Info("sync finished", "date", day.Format(models.DateLayout),
		"appended", res.Appended, "skipped", res.Skipped)
	return nil
}
