package pipeline

import (
	"context"
	"fmt"
	"time"
)

// fakeStore implements SurveyStore for tests.
type fakeStore struct {
	sites      []Site
	rows       map[string][]SurveyValue // "<siteID>/<column>"
	err        error
	fetchCalls int
	listCalls  int
}

func rowKey(siteID int, column string) string {
	return fmt.Sprintf("%d/%s", siteID, column)
}

func (f *fakeStore) ListSites(ctx context.Context) ([]Site, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sites, nil
}

func (f *fakeStore) GetSite(ctx context.Context, id int) (*Site, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, site := range f.sites {
		if site.ID == id {
			s := site
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FetchSurveyValues(ctx context.Context, siteID int, column string, start, end time.Time) ([]SurveyValue, error) {
	f.fetchCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []SurveyValue
	for _, row := range f.rows[rowKey(siteID, column)] {
		if !start.IsZero() && row.Date.Before(start) {
			continue
		}
		if !end.IsZero() && row.Date.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fptr(v float64) *float64 {
	return &v
}

func testOptions() Options {
	return Options{
		Floor:              date(2017, time.January, 1),
		Gap:                GapInterval{Start: date(2020, time.April, 1), End: date(2022, time.March, 1)},
		MaxComparisonSites: 5,
	}
}

func newTestPipeline(store *fakeStore) *Pipeline {
	p, err := New(store, testOptions())
	if err != nil {
		panic(err)
	}
	return p
}

// quarterlyRows produces one row per quarter from first through last.
func quarterlyRows(first, last time.Time, value float64) []SurveyValue {
	var rows []SurveyValue
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 3, 0) {
		rows = append(rows, SurveyValue{Date: cur, Value: fptr(value)})
	}
	return rows
}
