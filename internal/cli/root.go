package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/config"
	"github.com/claude/vitalsync/internal/models"
)

var (
	configPath string
	verbose    bool
)

var errInvalidDate = errors.New("invalid date, use YYYY-MM-DD")

var rootCmd = &cobra.Command{
	Use:   "vitalsync",
	Short: "vitalsync - daily wearable summaries for spreadsheets and databases",
	Long: `vitalsync fetches one day of sleep, body battery, stress, heart rate,
HRV and blood pressure data from Garmin Connect, normalizes the timestamps
into a single JSON document and reduces it to one spreadsheet row.

Rows are appended to Google Sheets and/or PostgreSQL. The stored history is
served over HTTP and MCP.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(bpExportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file. The default path may be absent, an
// explicitly given one may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		return config.Load(configPath)
	}
	return config.LoadOptional(configPath)
}

// newLogger logs to stderr so stdout stays free for documents and rows.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseDate(s string) (time.Time, error) {
	day, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, s)
	}
	return day, nil
}

// today returns the current calendar date in loc as a UTC midnight.
func today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
