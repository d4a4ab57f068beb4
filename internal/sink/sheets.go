package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID accepts a bare ID or a full spreadsheet URL.
func SpreadsheetID(s string) string {
	if m := spreadsheetURL.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// NewSheetsService builds a Sheets API client from a service-account key file.
func NewSheetsService(ctx context.Context, keyFile string) (*sheets.Service, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading sheets key: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets key: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return svc, nil
}

// Sheets appends rows to one range of a spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
	log           *slog.Logger
}

// NewSheets returns a sink for spreadsheet, which may be an ID or URL. An
// empty range appends after the table on the first sheet.
func NewSheets(svc *sheets.Service, spreadsheet, rng string, log *slog.Logger) *Sheets {
	if rng == "" {
		rng = "A1"
	}
	return &Sheets{svc: svc, spreadsheetID: SpreadsheetID(spreadsheet), rng: rng, log: log}
}

func (s *Sheets) Name() string { return "sheets" }

// Append writes row with USER_ENTERED semantics, so ISO strings and numbers
// are typed the way the sheet would type them on manual entry.
func (s *Sheets) Append(ctx context.Context, row []any) error {
	cells := make([]any, len(row))
	for i, v := range row {
		if v == nil {
			v = ""
		}
		cells[i] = v
	}
	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: [][]any{cells}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to spreadsheet %s: %w", s.spreadsheetID, err)
	}
	if resp.Updates != nil {
		s.log.Info("appended row to sheet", "range", resp.Updates.UpdatedRange)
	}
	return nil
}
