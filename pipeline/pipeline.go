package pipeline

import (
	"context"
	"time"
)

// Site is the reference record for one monitored reef site.
type Site struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Municipality   string  `json:"municipality"`
	ImageURL       *string `json:"image_url,omitempty"`
	DescriptionEN  *string `json:"description_en,omitempty"`
	DescriptionFIL *string `json:"description_fil,omitempty"`
}

// SurveyValue is one raw (date, value) row for a single metric column.
// A nil value means the survey did not report that metric.
type SurveyValue struct {
	Date  time.Time
	Value *float64
}

// SurveyStore is the read-only query interface the pipeline consumes.
// Implementations own connection management, timeouts, and retries;
// failures they return are wrapped into FetchError here and never masked.
type SurveyStore interface {
	ListSites(ctx context.Context) ([]Site, error)
	GetSite(ctx context.Context, id int) (*Site, error)
	FetchSurveyValues(ctx context.Context, siteID int, column string, start, end time.Time) ([]SurveyValue, error)
}

// DateRange scopes a request. Zero Start means "from the data", zero End
// means "through the latest survey".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Pipeline turns raw survey rows into chart-ready series and summaries.
// Every method is pure given its inputs and the store contents, so one
// Pipeline value is safe to share across requests.
type Pipeline struct {
	store SurveyStore
	opts  Options
}

// New validates the options and builds a pipeline.
func New(store SurveyStore, opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{store: store, opts: opts}, nil
}

// Options exposes the validated configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// fetchSiteRows loads one site's rows for a metric, scoped to the floor and
// the requested end. Rows come back date-ordered from the store.
func (p *Pipeline) fetchSiteRows(ctx context.Context, siteID int, m Metric, dr DateRange) ([]SurveyValue, error) {
	rows, err := p.store.FetchSurveyValues(ctx, siteID, m.Column, p.opts.Floor, dr.End)
	if err != nil {
		return nil, &FetchError{SiteID: siteID, Metric: m.Key, Err: err}
	}
	return rows, nil
}

// timelineFor derives the canonical timeline for a set of fetched rows.
// An explicit range wins; otherwise the extent comes from the data itself.
func (p *Pipeline) timelineFor(dr DateRange, rowSets ...[]SurveyValue) Timeline {
	rawStart := dr.Start
	rawEnd := dr.End
	if rawStart.IsZero() || rawEnd.IsZero() {
		dataMin, dataMax := rowExtent(rowSets)
		if rawStart.IsZero() {
			rawStart = dataMin
		}
		if rawEnd.IsZero() {
			rawEnd = dataMax
		}
	}
	return NewTimeline(rawStart, rawEnd, p.opts)
}

func rowExtent(rowSets [][]SurveyValue) (time.Time, time.Time) {
	var min, max time.Time
	for _, rows := range rowSets {
		for _, r := range rows {
			if min.IsZero() || r.Date.Before(min) {
				min = r.Date
			}
			if max.IsZero() || r.Date.After(max) {
				max = r.Date
			}
		}
	}
	return min, max
}

// alignValues places rows onto the timeline, one value per bucket. When
// several surveys land in the same bucket the last row wins; rows are
// date-ordered, so that is the most recent survey.
func alignValues(tl Timeline, rows []SurveyValue) []Value {
	values := make([]Value, len(tl.Buckets))
	for _, r := range rows {
		idx := tl.IndexFor(r.Date)
		if idx < 0 {
			continue
		}
		values[idx] = FromPtr(r.Value)
	}
	return values
}
