package pipeline

import (
	"context"
	"fmt"
)

// Series is one metric across all buckets for one entity (a site, a
// municipality average, or the all-sites average).
type Series struct {
	Label    string
	Metric   Metric
	Timeline Timeline
	Values   []Value
}

// SeriesRow is the JSON shape of one aligned bucket.
type SeriesRow struct {
	Bucket string `json:"bucket"`
	Phase  string `json:"phase"`
	Value  Value  `json:"value"`
}

// Rows renders the series one row per bucket, missing values as null.
func (s Series) Rows() []SeriesRow {
	rows := make([]SeriesRow, len(s.Timeline.Buckets))
	for i, b := range s.Timeline.Buckets {
		rows[i] = SeriesRow{Bucket: b.Label, Phase: b.Phase.String(), Value: s.Values[i]}
	}
	return rows
}

// IsEmpty reports whether no bucket holds data.
func (s Series) IsEmpty() bool {
	for _, v := range s.Values {
		if v.IsPresent() {
			return false
		}
	}
	return true
}

// BuildSeries aligns one site's surveys for a metric onto the canonical
// quarterly timeline. A site with no surveys yields an empty series, not an
// error; only store failures surface, as FetchError.
func (p *Pipeline) BuildSeries(ctx context.Context, siteID int, m Metric, dr DateRange) (Series, error) {
	site, err := p.store.GetSite(ctx, siteID)
	if err != nil {
		return Series{}, &FetchError{SiteID: siteID, Err: err}
	}
	if site == nil {
		return Series{}, &ValidationError{Field: "site_id", Reason: fmt.Sprintf("unknown site %d", siteID)}
	}

	rows, err := p.fetchSiteRows(ctx, siteID, m, dr)
	if err != nil {
		return Series{}, err
	}

	tl := p.timelineFor(dr, rows)
	return Series{
		Label:    site.Name,
		Metric:   m,
		Timeline: tl,
		Values:   alignValues(tl, rows),
	}, nil
}
