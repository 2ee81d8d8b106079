package pipeline

import (
	"context"
	"fmt"
)

// Grouping selects the member sites of an aggregate series. An empty
// Municipality means all sites; ExcludeSiteID drops the dashboard's current
// site so "compare with average" never compares a site against itself.
type Grouping struct {
	Municipality  string
	ExcludeSiteID int
}

// Label is the legend name for the aggregate.
func (g Grouping) Label() string {
	if g.Municipality != "" {
		return fmt.Sprintf("%s Average", g.Municipality)
	}
	return "All Sites Average"
}

// BuildAggregate averages a metric per bucket over the grouping's member
// sites. A member missing a value for a bucket contributes zero to the mean
// and the denominator stays the full member count, so entity counts are
// stable across buckets. Zero members yields zero values, not an error.
func (p *Pipeline) BuildAggregate(ctx context.Context, g Grouping, m Metric, dr DateRange) (Series, error) {
	sites, err := p.store.ListSites(ctx)
	if err != nil {
		return Series{}, &FetchError{Err: err}
	}

	members := make([]Site, 0, len(sites))
	for _, site := range sites {
		if g.Municipality != "" && site.Municipality != g.Municipality {
			continue
		}
		if g.ExcludeSiteID != 0 && site.ID == g.ExcludeSiteID {
			continue
		}
		members = append(members, site)
	}

	rowSets := make([][]SurveyValue, len(members))
	for i, site := range members {
		rows, err := p.fetchSiteRows(ctx, site.ID, m, dr)
		if err != nil {
			return Series{}, err
		}
		rowSets[i] = rows
	}

	tl := p.timelineFor(dr, rowSets...)
	values := make([]Value, len(tl.Buckets))
	for i := range tl.Buckets {
		values[i] = Present(0)
	}
	if len(members) > 0 {
		for _, rows := range rowSets {
			aligned := alignValues(tl, rows)
			for i, v := range aligned {
				sum, _ := values[i].Float64()
				values[i] = Present(sum + v.Or(0))
			}
		}
		for i := range values {
			sum, _ := values[i].Float64()
			values[i] = Present(sum / float64(len(members)))
		}
	}

	return Series{
		Label:    g.Label(),
		Metric:   m,
		Timeline: tl,
		Values:   values,
	}, nil
}
