package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	appendDryRun, appendForce, appendDate = false, false, ""
	fetchSave, syncForce, mcpServerURL = false, false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestParseDate verifies the accepted date format and the error message.
func TestParseDate(t *testing.T) {
	day, err := parseDate("2025-05-06")
	if err != nil {
		t.Fatal(err)
	}
	if !day.Equal(time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v", day)
	}
	for _, s := range []string{"2025/05/06", "2025-13-01", "yesterday", ""} {
		_, err := parseDate(s)
		if !errors.Is(err, errInvalidDate) {
			t.Errorf("parseDate(%q) err = %v", s, err)
		}
	}
}

// TestToday verifies that the calendar date is taken in the configured zone.
func TestToday(t *testing.T) {
	now := time.Date(2025, 5, 5, 20, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)
	if got := today(now, tokyo); !got.Equal(time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today in JST = %v", got)
	}
	if got := today(now, time.UTC); !got.Equal(time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today in UTC = %v", got)
	}
}

// TestFetchInvalidDate verifies that a bad DATE fails before any network use.
func TestFetchInvalidDate(t *testing.T) {
	cfg := writeConfig(t, "timezone: Asia/Tokyo\n")
	_, err := execute(t, "fetch", "2025-13-01", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "invalid date, use YYYY-MM-DD") {
		t.Errorf("err = %v", err)
	}
}

// TestBPExportInvalidDate verifies range argument validation.
func TestBPExportInvalidDate(t *testing.T) {
	cfg := writeConfig(t, "timezone: Asia/Tokyo\n")
	if _, err := execute(t, "bp-export", "2025-05-01", "May 3", "--config", cfg); !errors.Is(err, errInvalidDate) {
		t.Errorf("err = %v", err)
	}
	if _, err := execute(t, "bp-export", "2025-05-01", "--config", cfg); err == nil {
		t.Error("expected argument count error")
	}
}

// TestAppendNeedsInput verifies that append refuses to run without a
// document source.
func TestAppendNeedsInput(t *testing.T) {
	cfg := writeConfig(t, "timezone: Asia/Tokyo\n")
	if _, err := execute(t, "append", "--config", cfg); err == nil {
		t.Error("expected error without DOC or --date")
	}
}

// TestAppendDryRunIncomplete verifies that --dry-run builds the row without
// any sink configured and reports an incomplete document.
func TestAppendDryRunIncomplete(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "timezone: Asia/Tokyo\ndocuments:\n  dir: "+dir+"\n")
	doc := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(doc, []byte(`{"date": "2025-05-06"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "append", doc, "--dry-run", "--config", cfg)
	if err == nil {
		t.Fatalf("expected incomplete document error, printed %q", out)
	}
	if !errors.Is(err, models.ErrIncompleteRecord) {
		t.Errorf("err = %v", err)
	}
}

// TestMissingExplicitConfig verifies that an explicitly named config file
// must exist.
func TestMissingExplicitConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := execute(t, "report", "--config", missing); err == nil {
		t.Error("expected config error")
	}
}

// TestReport verifies that report renders a document file.
func TestReport(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "output_offset: \"+09:00\"\n")
	doc := filepath.Join(dir, "result.json")
	if err := os.WriteFile(doc, []byte(`{"date": "2025-05-06"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "report", doc, "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2025-05-06") || !strings.Contains(out, "== Sleep") {
		t.Errorf("output:\n%s", out)
	}
}

// TestInvalidTZWarns verifies that an unknown TZ is logged and the command
// still runs.
func TestInvalidTZWarns(t *testing.T) {
	t.Setenv("TZ", "Mars/Olympus")
	dir := t.TempDir()
	cfg := writeConfig(t, "output_offset: \"+09:00\"\n")
	doc := filepath.Join(dir, "result.json")
	if err := os.WriteFile(doc, []byte(`{"date": "2025-05-06"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "report", doc, "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "Mars/Olympus") {
		t.Errorf("output missing TZ warning:\n%s", out)
	}
}

// TestServeNeedsAPIKey verifies that serve refuses to start without a key.
func TestServeNeedsAPIKey(t *testing.T) {
	t.Setenv("VITALSYNC_AUTH_API_KEY", "")
	cfg := writeConfig(t, "timezone: Asia/Tokyo\n")
	_, err := execute(t, "serve", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("err = %v", err)
	}
}

// TestMigrateNeedsDatabase verifies the database.enabled check.
func TestMigrateNeedsDatabase(t *testing.T) {
	cfg := writeConfig(t, "timezone: Asia/Tokyo\n")
	_, err := execute(t, "migrate", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "database.enabled") {
		t.Errorf("err = %v", err)
	}
}

// TestVersion verifies the version output.
func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "vitalsync "+Version) {
		t.Errorf("output = %q", out)
	}
}
