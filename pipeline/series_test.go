package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func basakStore() *fakeStore {
	rows := append(
		quarterlyRows(date(2017, time.October, 1), date(2020, time.January, 1), 42.5),
		quarterlyRows(date(2022, time.April, 1), date(2025, time.April, 1), 61.0)...,
	)
	return &fakeStore{
		sites: []Site{
			{ID: 5, Name: "Basak", Municipality: "Zamboanguita"},
		},
		rows: map[string][]SurveyValue{
			rowKey(5, "hard_coral_cover"): rows,
		},
	}
}

func TestBuildSeriesAlignsOntoFullTimeline(t *testing.T) {
	store := basakStore()
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	series, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}

	if series.Label != "Basak" {
		t.Errorf("expected label Basak, got %q", series.Label)
	}
	if len(series.Timeline.Buckets) != 34 {
		t.Fatalf("expected 34 buckets (floor through 2025-04-01), got %d", len(series.Timeline.Buckets))
	}
	if len(series.Values) != len(series.Timeline.Buckets) {
		t.Fatalf("values/buckets length mismatch: %d vs %d", len(series.Values), len(series.Timeline.Buckets))
	}

	present := 0
	for _, v := range series.Values {
		if v.IsPresent() {
			present++
		}
	}
	if present != 23 {
		t.Errorf("expected 23 present buckets, got %d", present)
	}

	// The three floor-padding buckets before the first survey stay missing.
	for i := 0; i < 3; i++ {
		if series.Values[i].IsPresent() {
			t.Errorf("bucket %d precedes the first survey and should be missing", i)
		}
	}
	// Every bucket inside the gap stays missing.
	for i, b := range series.Timeline.Buckets {
		if b.Phase == InGap && series.Values[i].IsPresent() {
			t.Errorf("in-gap bucket %s should be missing", b.Label)
		}
	}
}

func TestBuildSeriesMissingIsNotZero(t *testing.T) {
	p := newTestPipeline(basakStore())
	m, _ := MetricByKey("hard_coral")

	series, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}

	idx := series.Timeline.IndexForLabel("JUN-AUG 2021")
	if idx < 0 {
		t.Fatal("expected an in-gap bucket on the timeline")
	}
	v := series.Values[idx]
	if v.IsPresent() {
		t.Fatal("in-gap bucket should be missing")
	}
	if _, ok := v.Float64(); ok {
		t.Error("Float64 on a missing value should report not-ok")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("missing value should marshal to null, got %s", raw)
	}
}

func TestBuildSeriesLastValueWinsInBucket(t *testing.T) {
	store := basakStore()
	store.rows[rowKey(5, "hard_coral_cover")] = []SurveyValue{
		{Date: date(2018, time.January, 5), Value: fptr(10)},
		{Date: date(2018, time.February, 20), Value: fptr(12)},
	}
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	series, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}

	idx := series.Timeline.IndexForLabel("DEC-FEB 2018")
	if idx < 0 {
		t.Fatal("expected DEC-FEB 2018 bucket")
	}
	got, ok := series.Values[idx].Float64()
	if !ok || got != 12 {
		t.Errorf("expected the later survey to win (12), got %v ok=%v", got, ok)
	}
}

func TestBuildSeriesDeterministic(t *testing.T) {
	p := newTestPipeline(basakStore())
	m, _ := MetricByKey("hard_coral")

	first, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	second, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs should produce identical series")
	}
}

func TestBuildSeriesNoSurveysYieldsEmptySeries(t *testing.T) {
	store := basakStore()
	store.rows = nil
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	series, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("no surveys is not an error, got %v", err)
	}
	if !series.IsEmpty() {
		t.Error("expected an empty series")
	}
	if !series.Timeline.IsEmpty() {
		t.Error("no data and no explicit range should yield no buckets")
	}
}

func TestBuildSeriesExplicitRange(t *testing.T) {
	p := newTestPipeline(basakStore())
	m, _ := MetricByKey("hard_coral")

	dr := DateRange{Start: date(2018, time.January, 1), End: date(2019, time.January, 1)}
	series, err := p.BuildSeries(context.Background(), 5, m, dr)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	// Explicit ranges still extend back to the floor.
	if !series.Timeline.Buckets[0].Start.Equal(date(2017, time.January, 1)) {
		t.Errorf("expected floor start, got %s", series.Timeline.Buckets[0].Start)
	}
	last := series.Timeline.Buckets[len(series.Timeline.Buckets)-1]
	if !last.Start.Equal(date(2019, time.January, 1)) {
		t.Errorf("expected last bucket 2019-01-01, got %s", last.Start)
	}
}

func TestBuildSeriesUnknownSite(t *testing.T) {
	p := newTestPipeline(basakStore())
	m, _ := MetricByKey("hard_coral")

	_, err := p.BuildSeries(context.Background(), 99, m, DateRange{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildSeriesStoreFailure(t *testing.T) {
	store := basakStore()
	store.err = errors.New("connection refused")
	p := newTestPipeline(store)
	m, _ := MetricByKey("hard_coral")

	_, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, store.err) {
		t.Error("FetchError should wrap the store error")
	}
}

func TestSeriesRows(t *testing.T) {
	p := newTestPipeline(basakStore())
	m, _ := MetricByKey("hard_coral")

	series, err := p.BuildSeries(context.Background(), 5, m, DateRange{})
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	rows := series.Rows()
	if len(rows) != len(series.Timeline.Buckets) {
		t.Fatalf("expected one row per bucket, got %d", len(rows))
	}
	if rows[0].Bucket != "DEC-FEB 2017" || rows[0].Phase != "pre_gap" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
}

func TestMetricLookupsAgree(t *testing.T) {
	for _, m := range Metrics() {
		byKey, ok := MetricByKey(m.Key)
		if !ok || byKey != m {
			t.Errorf("MetricByKey(%q) does not round-trip", m.Key)
		}
		byColumn, ok := MetricByColumn(m.Column)
		if !ok || byColumn != m {
			t.Errorf("MetricByColumn(%q) does not round-trip", m.Column)
		}
		byName, ok := MetricByDisplayName(m.DisplayName)
		if !ok || byName != m {
			t.Errorf("MetricByDisplayName(%q) does not round-trip", m.DisplayName)
		}
	}
	if _, ok := MetricByKey("sea_cucumbers"); ok {
		t.Error("unknown metric key should not resolve")
	}
}
