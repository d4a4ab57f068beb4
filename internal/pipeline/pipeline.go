package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalsync/internal/docstore"
	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/ingest/garmin"
	"github.com/claude/vitalsync/internal/sink"
	"github.com/claude/vitalsync/internal/storage"
	"github.com/claude/vitalsync/internal/summary"
)

// ErrNoSinks is returned by Append when no sink is configured.
var ErrNoSinks = errors.New("no sinks configured")

// AppendState remembers which document was appended to which sink.
// *state.DB satisfies it.
type AppendState interface {
	IsAppended(ctx context.Context, day time.Time, sink, hash string) (bool, error)
	MarkAppended(ctx context.Context, day time.Time, sink, hash string) error
}

// RunRecorder stores run logs. *storage.DB satisfies it.
type RunRecorder interface {
	InsertRunLog(ctx context.Context, l storage.RunLog) (uuid.UUID, error)
}

// HashFunc fingerprints a document for the appended-state check.
type HashFunc func([]byte) string

// Options wires a Pipeline. Source and Docs are needed for fetching,
// Sinks and State for appending. Runs is optional.
type Options struct {
	Source    ingest.Source
	Assembler *garmin.Assembler
	Builder   *summary.Builder
	Docs      docstore.Store
	Sinks     []sink.Sink
	State     AppendState
	Hash      HashFunc
	Runs      RunRecorder
}

// Pipeline processes one day at a time.
type Pipeline struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Pipeline {
	return &Pipeline{opts: opts, log: log}
}

// Document is a normalized day document in its persisted JSON form.
type Document struct {
	Day    time.Time
	Data   []byte
	Result *ingest.Result
}

// AppendResult lists which sinks received the row and which were skipped
// because they already had the same document.
type AppendResult struct {
	Day      time.Time
	Appended []string
	Skipped  []string
}

// Fetch retrieves and normalizes the document for day.
func (p *Pipeline) Fetch(ctx context.Context, day time.Time) (*Document, error) {
	payloads, err := p.opts.Source.Payloads(ctx, day)
	if err != nil {
		return nil, err
	}
	doc, result := p.opts.Assembler.Assemble(payloads, day)
	data, err := EncodeDocument(doc)
	if err != nil {
		return nil, err
	}
	p.log.Info("document assembled", "date", result.Date,
		"rows", result.RowsAdapted, "dropped", result.RowsDropped, "leaves", result.LeavesWritten)
	return &Document{Day: day, Data: data, Result: result}, nil
}

// EncodeDocument renders doc as two-space indented JSON. Non-ASCII text
// and HTML characters are written as is.
func EncodeDocument(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}

// Save persists a fetched document to the document store.
func (p *Pipeline) Save(ctx context.Context, d *Document) error {
	if p.opts.Docs == nil {
		return errors.New("no document store configured")
	}
	if err := p.opts.Docs.Save(ctx, d.Day, d.Data); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Load reads the stored document for day.
func (p *Pipeline) Load(ctx context.Context, day time.Time) ([]byte, error) {
	if p.opts.Docs == nil {
		return nil, errors.New("no document store configured")
	}
	return p.opts.Docs.Load(ctx, day)
}

// Row decodes a persisted document and builds its summary row.
func (p *Pipeline) Row(data []byte) (time.Time, []any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, nil, fmt.Errorf("decoding document: %w", err)
	}
	s, err := p.opts.Builder.Build(doc)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("building row: %w", err)
	}
	return s.Date, s.Values(), nil
}

// Append builds the row for a persisted document and appends it to every
// sink that has not already received this exact document. With force the
// state check is skipped.
func (p *Pipeline) Append(ctx context.Context, data []byte, force bool) (*AppendResult, error) {
	start := time.Now()
	res, err := p.appendRow(ctx, data, force)
	var day time.Time
	if res != nil {
		day = res.Day
	}
	p.recordRun(ctx, "append", day, start, res, err)
	return res, err
}

// Sync fetches, saves and appends day in one run.
func (p *Pipeline) Sync(ctx context.Context, day time.Time, force bool) (*AppendResult, error) {
	start := time.Now()
	res, err := p.sync(ctx, day, force)
	p.recordRun(ctx, "sync", day, start, res, err)
	return res, err
}

func (p *Pipeline) sync(ctx context.Context, day time.Time, force bool) (*AppendResult, error) {
	doc, err := p.Fetch(ctx, day)
	if err != nil {
		return nil, err
	}
	if err := p.Save(ctx, doc); err != nil {
		return nil, err
	}
	return p.appendRow(ctx, doc.Data, force)
}

func (p *Pipeline) appendRow(ctx context.Context, data []byte, force bool) (*AppendResult, error) {
	if len(p.opts.Sinks) == 0 {
		return nil, ErrNoSinks
	}
	day, row, err := p.Row(data)
	if err != nil {
		return nil, err
	}
	res := &AppendResult{Day: day}
	hash := p.opts.Hash(data)

	for _, s := range p.opts.Sinks {
		if !force {
			done, err := p.opts.State.IsAppended(ctx, day, s.Name(), hash)
			if err != nil {
				return res, fmt.Errorf("checking append state: %w", err)
			}
			if done {
				p.log.Info("row already appended, skipping", "sink", s.Name(), "date", day.Format(time.DateOnly))
				res.Skipped = append(res.Skipped, s.Name())
				continue
			}
		}
		if err := s.Append(ctx, row); err != nil {
			return res, fmt.Errorf("appending to %s: %w", s.Name(), err)
		}
		if err := p.opts.State.MarkAppended(ctx, day, s.Name(), hash); err != nil {
			return res, fmt.Errorf("recording append: %w", err)
		}
		p.log.Info("row appended", "sink", s.Name(), "date", day.Format(time.DateOnly))
		res.Appended = append(res.Appended, s.Name())
	}
	return res, nil
}

func (p *Pipeline) recordRun(ctx context.Context, command string, day, start time.Time, res *AppendResult, runErr error) {
	if p.opts.Runs == nil {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	l := storage.RunLog{Command: command, Status: storage.RunSuccess, DurationMs: &ms}
	if !day.IsZero() {
		l.Day = &day
	}
	switch {
	case runErr != nil:
		msg := runErr.Error()
		l.Status = storage.RunError
		l.ErrorMessage = &msg
	case res != nil && len(res.Appended) == 0:
		l.Status = storage.RunSkipped
	}
	if _, err := p.opts.Runs.InsertRunLog(ctx, l); err != nil {
		p.log.Warn("failed to record run", "command", command, "error", err)
	}
}
