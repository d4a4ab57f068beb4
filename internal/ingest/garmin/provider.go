// Package garmin turns Garmin Connect responses into a normalized daily
// document.
package garmin

import (
	"log/slog"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/normalize"
)

// Assembler builds normalized documents from raw payloads.
type Assembler struct {
	rewriter *normalize.Rewriter
	log      *slog.Logger
}

// NewAssembler creates an Assembler whose rewriter matches timeKeys. Empty
// timeKeys selects normalize.DefaultTimeKeys.
func NewAssembler(timeKeys []string, log *slog.Logger) *Assembler {
	return &Assembler{rewriter: normalize.NewTimeRewriter(timeKeys), log: log}
}

// Assemble reshapes every array-shaped metric into keyed records, combines
// them with the sleep payload under the document keys and rewrites all
// time-bearing leaves. No aggregation happens here.
func (a *Assembler) Assemble(p *ingest.Payloads, day time.Time) (map[string]any, *ingest.Result) {
	if p == nil {
		p = &ingest.Payloads{}
	}
	result := &ingest.Result{
		Date:        day.Format(models.DateLayout),
		RowsAdapted: map[string]int{},
	}

	adapt := func(s Series, payload any) []any {
		recs, dropped := Adapt(s.Rows(payload), s.Fields)
		result.RowsAdapted[s.Name] += len(recs)
		result.RowsDropped += dropped
		if dropped > 0 {
			a.log.Debug("dropped rows of unknown shape", "series", s.Name, "count", dropped)
		}
		return recs
	}

	doc := map[string]any{
		models.DocDate:              result.Date,
		models.DocSleep:             p.Sleep,
		models.DocBodyBattery:       adapt(BodyBatterySeries, p.BodyBattery),
		models.DocStress:            adapt(StressSeries, p.Stress),
		models.DocHeartRate:         adapt(HeartRateSeries, p.HeartRate),
		models.DocHRV:               adapt(HRVSeries, p.HRV),
		models.DocBloodPressure:     adapt(BloodPressureSeries, p.BloodPressure),
		models.DocBloodPressurePrev: adapt(BloodPressureSeries, p.BloodPressurePrev),
	}

	out := a.rewriter.Rewrite(doc).(map[string]any)
	result.LeavesWritten = normalize.CountLeaves(out)
	return out, result
}
