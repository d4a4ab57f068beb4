package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/config"
	"github.com/claude/vitalsync/internal/connect"
	"github.com/claude/vitalsync/internal/docstore"
	"github.com/claude/vitalsync/internal/ingest/garmin"
	"github.com/claude/vitalsync/internal/pipeline"
	"github.com/claude/vitalsync/internal/sink"
	"github.com/claude/vitalsync/internal/state"
	"github.com/claude/vitalsync/internal/storage"
	"github.com/claude/vitalsync/internal/summary"
)

// app holds the config and lazily opened resources of one command run.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	st      *state.DB
	db      *storage.DB
	closers []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd.ErrOrStderr())
	for _, w := range cfg.Warnings {
		log.Warn("config: " + w)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// resolveDay parses the optional DATE argument before touching the config,
// falling back to today in the configured zone.
func resolveDay(cmd *cobra.Command, args []string) (*app, time.Time, error) {
	var day time.Time
	if len(args) > 0 {
		d, err := parseDate(args[0])
		if err != nil {
			return nil, time.Time{}, err
		}
		day = d
	}
	a, err := newApp(cmd)
	if err != nil {
		return nil, time.Time{}, err
	}
	if day.IsZero() {
		loc, err := a.cfg.Location()
		if err != nil {
			return nil, time.Time{}, err
		}
		day = today(time.Now(), loc)
	}
	return a, day, nil
}

func (a *app) state() (*state.DB, error) {
	if a.st != nil {
		return a.st, nil
	}
	st, err := state.Open(a.cfg.Provider.StatePath())
	if err != nil {
		return nil, err
	}
	a.st = st
	a.closers = append(a.closers, func() { st.Close() })
	return st, nil
}

// database opens PostgreSQL, or returns nil when it is disabled.
func (a *app) database(ctx context.Context) (*storage.DB, error) {
	if !a.cfg.Database.Enabled {
		return nil, nil
	}
	if a.db != nil {
		return a.db, nil
	}
	db, err := storage.New(ctx, a.cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.log.Debug("database connected")
	return db, nil
}

// client signs in to the provider and returns an API client.
func (a *app) client(ctx context.Context) (*connect.Client, error) {
	st, err := a.state()
	if err != nil {
		return nil, err
	}
	sess := connect.NewSession(a.cfg.Provider, st, a.log)
	if err := sess.Acquire(ctx); err != nil {
		return nil, err
	}
	hc, err := sess.Client(ctx)
	if err != nil {
		return nil, err
	}
	hc.Timeout = a.cfg.Provider.Timeout
	return connect.NewClient(a.cfg.Provider.BaseURL, hc, a.log), nil
}

func (a *app) documents(ctx context.Context) (docstore.Store, error) {
	d := a.cfg.Documents
	if d.GCSBucket == "" {
		return &docstore.Dir{Path: d.Dir}, nil
	}
	g, err := docstore.NewGCS(ctx, d.GCSBucket, d.GCSPrefix)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { g.Close() })
	return g, nil
}

func (a *app) sinks(ctx context.Context) ([]sink.Sink, error) {
	var sinks []sink.Sink
	if s := a.cfg.Sheets; s.Enabled {
		svc, err := sink.NewSheetsService(ctx, s.KeyFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewSheets(svc, s.Spreadsheet, s.Range, a.log))
	}
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	if db != nil {
		sinks = append(sinks, sink.NewPostgres(db, a.log))
	}
	return sinks, nil
}

func (a *app) builder() (*summary.Builder, error) {
	zone, err := a.cfg.OutputZone()
	if err != nil {
		return nil, err
	}
	return summary.NewBuilder(zone), nil
}

func (a *app) assembler() *garmin.Assembler {
	return garmin.NewAssembler(a.cfg.Normalize.TimeKeys, a.log)
}

// pipelineMode selects which halves of the pipeline a command needs.
type pipelineMode struct {
	fetch  bool
	append bool
}

func (a *app) pipeline(ctx context.Context, mode pipelineMode) (*pipeline.Pipeline, error) {
	b, err := a.builder()
	if err != nil {
		return nil, err
	}
	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	opts := pipeline.Options{
		Assembler: a.assembler(),
		Builder:   b,
		Docs:      docs,
		Hash:      state.HashBytes,
	}
	if mode.fetch {
		c, err := a.client(ctx)
		if err != nil {
			return nil, err
		}
		opts.Source = pipeline.NewFetcher(c, a.log)
	}
	if mode.append {
		if opts.Sinks, err = a.sinks(ctx); err != nil {
			return nil, err
		}
		if opts.State, err = a.state(); err != nil {
			return nil, err
		}
		if a.db != nil {
			opts.Runs = a.db
		}
	}
	return pipeline.New(opts, a.log), nil
}

func requireDatabase(cfg *config.Config, cmd string) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("%s needs database.enabled", cmd)
	}
	return nil
}
