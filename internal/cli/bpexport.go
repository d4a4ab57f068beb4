package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/bpexport"
)

var bpExportCmd = &cobra.Command{
	Use:   "bp-export START END [OUT]",
	Short: "Export the first blood pressure reading of each day to CSV",
	Long: `Writes one CSV line per day between START and END (inclusive) holding
the earliest blood pressure reading of that day. Days without a reading
are left out. OUT defaults to blood_pressure_first.csv.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runBPExport,
}

func runBPExport(cmd *cobra.Command, args []string) error {
	start, err := parseDate(args[0])
	if err != nil {
		return err
	}
	end, err := parseDate(args[1])
	if err != nil {
		return err
	}
	out := bpexport.DefaultOutput
	if len(args) > 2 {
		out = args[2]
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	c, err := a.client(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	n, err := bpexport.New(c, a.cfg.Provider.RequestDelay, a.log).Export(ctx, start, end, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d days exported to %s\n", n, out)
	return nil
}
