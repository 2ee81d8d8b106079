package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComparisonColumn is one entity's values across the shared buckets. An
// entity with no data at all keeps its all-missing column so it still shows
// up in the chart legend.
type ComparisonColumn struct {
	Label  string  `json:"label"`
	Values []Value `json:"values"`
}

// ComparisonTable is the wide multi-entity table for multi-line charts:
// one row key per bucket, one column per entity, primary first.
type ComparisonTable struct {
	Metric  Metric             `json:"metric"`
	Buckets []string           `json:"buckets"`
	Columns []ComparisonColumn `json:"columns"`
}

// comparisonRef is a parsed comparison entity token: a site id,
// "municipality:<name>", or "all".
type comparisonRef struct {
	siteID       int
	municipality string
	all          bool
}

func parseComparisonRef(token string) (comparisonRef, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "all":
		return comparisonRef{all: true}, nil
	case strings.HasPrefix(token, "municipality:"):
		name := strings.TrimPrefix(token, "municipality:")
		if name == "" {
			return comparisonRef{}, &ValidationError{Field: "compare", Reason: "empty municipality name"}
		}
		return comparisonRef{municipality: name}, nil
	default:
		id, err := strconv.Atoi(token)
		if err != nil || id <= 0 {
			return comparisonRef{}, &ValidationError{Field: "compare", Reason: fmt.Sprintf("unrecognized entity %q", token)}
		}
		return comparisonRef{siteID: id}, nil
	}
}

// BuildComparison assembles one shared-timeline table for a primary site and
// 1..MaxComparisonSites comparison entities. Oversized lists and unknown
// entities are rejected before any survey data is fetched.
func (p *Pipeline) BuildComparison(ctx context.Context, primaryID int, compare []string, m Metric, dr DateRange) (ComparisonTable, error) {
	if len(compare) == 0 {
		return ComparisonTable{}, &ValidationError{Field: "compare", Reason: "at least one comparison entity is required"}
	}
	if len(compare) > p.opts.MaxComparisonSites {
		return ComparisonTable{}, &ValidationError{
			Field:  "compare",
			Reason: fmt.Sprintf("%d comparison entities requested, maximum is %d", len(compare), p.opts.MaxComparisonSites),
		}
	}

	refs := make([]comparisonRef, len(compare))
	for i, token := range compare {
		ref, err := parseComparisonRef(token)
		if err != nil {
			return ComparisonTable{}, err
		}
		refs[i] = ref
	}

	sites, err := p.store.ListSites(ctx)
	if err != nil {
		return ComparisonTable{}, &FetchError{Err: err}
	}
	byID := make(map[int]Site, len(sites))
	byMunicipality := make(map[string][]Site)
	for _, site := range sites {
		byID[site.ID] = site
		byMunicipality[site.Municipality] = append(byMunicipality[site.Municipality], site)
	}

	primary, ok := byID[primaryID]
	if !ok {
		return ComparisonTable{}, &ValidationError{Field: "primary", Reason: fmt.Sprintf("unknown site %d", primaryID)}
	}
	for _, ref := range refs {
		if ref.siteID != 0 {
			if _, ok := byID[ref.siteID]; !ok {
				return ComparisonTable{}, &ValidationError{Field: "compare", Reason: fmt.Sprintf("unknown site %d", ref.siteID)}
			}
		}
		if ref.municipality != "" {
			if _, ok := byMunicipality[ref.municipality]; !ok {
				return ComparisonTable{}, &ValidationError{Field: "compare", Reason: fmt.Sprintf("unknown municipality %q", ref.municipality)}
			}
		}
	}

	// One fetch per distinct site, shared by every column that needs it.
	needed := map[int]bool{primaryID: true}
	for _, ref := range refs {
		switch {
		case ref.siteID != 0:
			needed[ref.siteID] = true
		case ref.all:
			for _, site := range sites {
				needed[site.ID] = true
			}
		default:
			for _, site := range byMunicipality[ref.municipality] {
				needed[site.ID] = true
			}
		}
	}

	rowsBySite := make(map[int][]SurveyValue, len(needed))
	rowSets := make([][]SurveyValue, 0, len(needed))
	for siteID := range needed {
		rows, err := p.fetchSiteRows(ctx, siteID, m, dr)
		if err != nil {
			return ComparisonTable{}, err
		}
		rowsBySite[siteID] = rows
		rowSets = append(rowSets, rows)
	}

	tl := p.timelineFor(dr, rowSets...)

	siteColumn := func(site Site) ComparisonColumn {
		return ComparisonColumn{Label: site.Name, Values: alignValues(tl, rowsBySite[site.ID])}
	}
	aggregateColumn := func(label string, members []Site) ComparisonColumn {
		values := make([]Value, len(tl.Buckets))
		for i := range values {
			values[i] = Present(0)
		}
		if len(members) > 0 {
			for _, site := range members {
				for i, v := range alignValues(tl, rowsBySite[site.ID]) {
					sum, _ := values[i].Float64()
					values[i] = Present(sum + v.Or(0))
				}
			}
			for i := range values {
				sum, _ := values[i].Float64()
				values[i] = Present(sum / float64(len(members)))
			}
		}
		return ComparisonColumn{Label: label, Values: values}
	}

	columns := make([]ComparisonColumn, 0, len(refs)+1)
	columns = append(columns, siteColumn(primary))
	for _, ref := range refs {
		switch {
		case ref.siteID != 0:
			columns = append(columns, siteColumn(byID[ref.siteID]))
		case ref.all:
			columns = append(columns, aggregateColumn("All Sites Average", sites))
		default:
			columns = append(columns, aggregateColumn(
				fmt.Sprintf("%s Average", ref.municipality), byMunicipality[ref.municipality]))
		}
	}

	return ComparisonTable{Metric: m, Buckets: tl.Labels(), Columns: columns}, nil
}

// SnapshotRow is one site's bar in a single-bucket snapshot chart.
type SnapshotRow struct {
	SiteID       int     `json:"site_id"`
	Site         string  `json:"site"`
	Municipality string  `json:"municipality"`
	Value        float64 `json:"value"`
	HasData      bool    `json:"has_data"`
}

// Snapshot is the bar-chart table for one bucket: every configured site
// appears, ordered by municipality then name. Missing values are substituted
// with zero here and only here; upstream series keep the explicit marker.
type Snapshot struct {
	Metric Metric        `json:"metric"`
	Bucket string        `json:"bucket"`
	Rows   []SnapshotRow `json:"rows"`
}

// BuildSnapshot produces the current-season-by-site bar table. An empty
// bucketLabel selects the latest bucket where any site reported data.
func (p *Pipeline) BuildSnapshot(ctx context.Context, m Metric, bucketLabel string) (Snapshot, error) {
	sites, err := p.store.ListSites(ctx)
	if err != nil {
		return Snapshot{}, &FetchError{Err: err}
	}

	rowSets := make([][]SurveyValue, len(sites))
	for i, site := range sites {
		rows, err := p.fetchSiteRows(ctx, site.ID, m, DateRange{})
		if err != nil {
			return Snapshot{}, err
		}
		rowSets[i] = rows
	}

	tl := p.timelineFor(DateRange{}, rowSets...)
	if tl.IsEmpty() {
		return Snapshot{Metric: m}, nil
	}

	aligned := make([][]Value, len(sites))
	for i := range sites {
		aligned[i] = alignValues(tl, rowSets[i])
	}

	idx := -1
	if bucketLabel != "" {
		idx = tl.IndexForLabel(bucketLabel)
		if idx < 0 {
			return Snapshot{}, &ValidationError{Field: "bucket", Reason: fmt.Sprintf("unknown bucket %q", bucketLabel)}
		}
	} else {
		for b := len(tl.Buckets) - 1; b >= 0 && idx < 0; b-- {
			for i := range sites {
				if aligned[i][b].IsPresent() {
					idx = b
					break
				}
			}
		}
		if idx < 0 {
			idx = len(tl.Buckets) - 1
		}
	}

	rows := make([]SnapshotRow, len(sites))
	for i, site := range sites {
		v := aligned[i][idx]
		rows[i] = SnapshotRow{
			SiteID:       site.ID,
			Site:         site.Name,
			Municipality: site.Municipality,
			Value:        v.Or(0),
			HasData:      v.IsPresent(),
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Municipality != rows[j].Municipality {
			return rows[i].Municipality < rows[j].Municipality
		}
		return rows[i].Site < rows[j].Site
	})

	return Snapshot{Metric: m, Bucket: tl.Buckets[idx].Label, Rows: rows}, nil
}
