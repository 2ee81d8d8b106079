package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func comparisonStore() *fakeStore {
	return &fakeStore{
		sites: []Site{
			{ID: 1, Name: "Andulay", Municipality: "Siaton"},
			{ID: 2, Name: "Antulang", Municipality: "Siaton"},
			{ID: 3, Name: "Basak", Municipality: "Zamboanguita"},
			{ID: 4, Name: "Lutoban Pier", Municipality: "Zamboanguita"},
		},
		rows: map[string][]SurveyValue{
			rowKey(1, "hard_coral_cover"): {{Date: date(2019, time.April, 10), Value: fptr(40)}},
			rowKey(2, "hard_coral_cover"): {{Date: date(2019, time.April, 12), Value: fptr(20)}},
			rowKey(3, "hard_coral_cover"): {{Date: date(2019, time.April, 15), Value: fptr(80)}},
			// Site 4 has no surveys at all.
		},
	}
}

func TestBuildComparisonColumns(t *testing.T) {
	p := newTestPipeline(comparisonStore())
	m, _ := MetricByKey("hard_coral")

	table, err := p.BuildComparison(context.Background(), 3, []string{"1", "municipality:Siaton", "all"}, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}

	wantLabels := []string{"Basak", "Andulay", "Siaton Average", "All Sites Average"}
	if len(table.Columns) != len(wantLabels) {
		t.Fatalf("expected %d columns, got %d", len(wantLabels), len(table.Columns))
	}
	for i, want := range wantLabels {
		if table.Columns[i].Label != want {
			t.Errorf("column %d: expected %q, got %q", i, want, table.Columns[i].Label)
		}
		if len(table.Columns[i].Values) != len(table.Buckets) {
			t.Errorf("column %q: values/buckets length mismatch", table.Columns[i].Label)
		}
	}

	tl := NewTimeline(date(2019, time.April, 1), date(2019, time.April, 15), testOptions())
	idx := tl.IndexForLabel("MAR-MAY 2019")
	if idx < 0 || len(table.Buckets) != len(tl.Buckets) {
		t.Fatal("unexpected bucket layout")
	}

	if got, ok := table.Columns[0].Values[idx].Float64(); !ok || got != 80 {
		t.Errorf("primary column: expected 80, got %v ok=%v", got, ok)
	}
	// Siaton average: (40+20)/2.
	if got, ok := table.Columns[2].Values[idx].Float64(); !ok || got != 30 {
		t.Errorf("Siaton Average: expected 30, got %v ok=%v", got, ok)
	}
	// All-sites average with the silent site counting as zero: (40+20+80+0)/4.
	if got, ok := table.Columns[3].Values[idx].Float64(); !ok || got != 35 {
		t.Errorf("All Sites Average: expected 35, got %v ok=%v", got, ok)
	}
}

func TestBuildComparisonKeepsAllMissingColumn(t *testing.T) {
	p := newTestPipeline(comparisonStore())
	m, _ := MetricByKey("hard_coral")

	table, err := p.BuildComparison(context.Background(), 1, []string{"4"}, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}
	if len(table.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(table.Columns))
	}
	col := table.Columns[1]
	if col.Label != "Lutoban Pier" {
		t.Fatalf("expected the dataless site to keep its column, got %q", col.Label)
	}
	for i, v := range col.Values {
		if v.IsPresent() {
			t.Errorf("bucket %d: dataless site should stay missing", i)
		}
	}
}

func TestBuildComparisonRejectsOversizedList(t *testing.T) {
	store := comparisonStore()
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	compare := []string{"1", "2", "3", "4", "all", "municipality:Siaton", "municipality:Zamboanguita"}
	_, err := p.BuildComparison(context.Background(), 1, compare, m, DateRange{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.fetchCalls != 0 || store.listCalls != 0 {
		t.Error("oversized list must be rejected before touching the store")
	}
}

func TestBuildComparisonRejectsBadEntities(t *testing.T) {
	p := newTestPipeline(comparisonStore())
	m, _ := MetricByKey("hard_coral")

	tests := []struct {
		name    string
		primary int
		compare []string
	}{
		{"empty list", 1, nil},
		{"unknown site", 1, []string{"42"}},
		{"unknown municipality", 1, []string{"municipality:Atlantis"}},
		{"malformed token", 1, []string{"municipality:"}},
		{"garbage token", 1, []string{"latest"}},
		{"unknown primary", 42, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.BuildComparison(context.Background(), tt.primary, tt.compare, m, DateRange{})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestBuildSnapshotLatestBucket(t *testing.T) {
	store := comparisonStore()
	store.rows[rowKey(1, "hard_coral_cover")] = append(
		store.rows[rowKey(1, "hard_coral_cover")],
		SurveyValue{Date: date(2023, time.May, 2), Value: fptr(55)},
	)
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	snap, err := p.BuildSnapshot(context.Background(), m, "")
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Bucket != "MAR-MAY 2023" {
		t.Errorf("expected latest surveyed bucket MAR-MAY 2023, got %q", snap.Bucket)
	}
	if len(snap.Rows) != 4 {
		t.Fatalf("expected every site in the snapshot, got %d rows", len(snap.Rows))
	}

	// Sorted by municipality then site name.
	wantOrder := []string{"Andulay", "Antulang", "Basak", "Lutoban Pier"}
	for i, want := range wantOrder {
		if snap.Rows[i].Site != want {
			t.Errorf("row %d: expected %q, got %q", i, want, snap.Rows[i].Site)
		}
	}

	// Only Andulay surveyed that bucket; everyone else is zero-filled.
	for _, row := range snap.Rows {
		if row.Site == "Andulay" {
			if !row.HasData || row.Value != 55 {
				t.Errorf("Andulay: expected 55 with data, got %+v", row)
			}
			continue
		}
		if row.HasData || row.Value != 0 {
			t.Errorf("%s: expected zero-filled row, got %+v", row.Site, row)
		}
	}
}

func TestBuildSnapshotExplicitBucket(t *testing.T) {
	p := newTestPipeline(comparisonStore())
	m, _ := MetricByKey("hard_coral")

	snap, err := p.BuildSnapshot(context.Background(), m, "MAR-MAY 2019")
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Bucket != "MAR-MAY 2019" {
		t.Errorf("expected requested bucket, got %q", snap.Bucket)
	}

	_, err = p.BuildSnapshot(context.Background(), m, "MAR-MAY 1999")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown bucket: expected ValidationError, got %v", err)
	}
}

func TestBuildSnapshotNoData(t *testing.T) {
	store := comparisonStore()
	store.rows = nil
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	snap, err := p.BuildSnapshot(context.Background(), m, "")
	if err != nil {
		t.Fatalf("no data is not an error, got %v", err)
	}
	if len(snap.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(snap.Rows))
	}
}
