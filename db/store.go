package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marine-conservation-ph/reef-survey-viewer/pipeline"
)

// Store wraps database access helpers. It implements pipeline.SurveyStore
// with a bounded retry on transient failures.
type Store struct {
	pool    *pgxpool.Pool
	retries int
	timeout time.Duration
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string, retries int, timeout time.Duration) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, retries: retries, timeout: timeout}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// withRetry runs fn under the store timeout, retrying up to s.retries times.
// Context cancellation is never retried.
func (s *Store) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

const listSitesSQL = `
    SELECT id, name, municipality, image_url, description_en, description_fil
    FROM sites
    ORDER BY municipality, name
`

// ListSites returns all monitored site records.
func (s *Store) ListSites(ctx context.Context) ([]pipeline.Site, error) {
	var sites []pipeline.Site
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, listSitesSQL)
		if err != nil {
			return err
		}
		defer rows.Close()

		sites = make([]pipeline.Site, 0)
		for rows.Next() {
			var site pipeline.Site
			if err := rows.Scan(
				&site.ID,
				&site.Name,
				&site.Municipality,
				&site.ImageURL,
				&site.DescriptionEN,
				&site.DescriptionFIL,
			); err != nil {
				return err
			}
			sites = append(sites, site)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return sites, nil
}

const getSiteSQL = `
    SELECT id, name, municipality, image_url, description_en, description_fil
    FROM sites
    WHERE id = $1
`

// GetSite returns one site, or nil when the id is unknown.
func (s *Store) GetSite(ctx context.Context, id int) (*pipeline.Site, error) {
	var site *pipeline.Site
	err := s.withRetry(ctx, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, getSiteSQL, id)

		var rec pipeline.Site
		if err := row.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Municipality,
			&rec.ImageURL,
			&rec.DescriptionEN,
			&rec.DescriptionFIL,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				site = nil
				return nil
			}
			return err
		}
		site = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// FetchSurveyValues returns date-ordered (date, value) rows for one site and
// one metric column. The column name comes from the closed metric catalog,
// never from request input.
func (s *Store) FetchSurveyValues(ctx context.Context, siteID int, column string, start, end time.Time) ([]pipeline.SurveyValue, error) {
	if _, ok := pipeline.MetricByColumn(column); !ok {
		return nil, fmt.Errorf("unknown survey column %q", column)
	}

	sql := `SELECT date, ` + column + ` FROM surveys WHERE site_id = $1`
	args := []any{siteID}
	if !start.IsZero() {
		args = append(args, start)
		sql += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		sql += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	sql += " ORDER BY date"

	var values []pipeline.SurveyValue
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		values = make([]pipeline.SurveyValue, 0)
		for rows.Next() {
			var v pipeline.SurveyValue
			if err := rows.Scan(&v.Date, &v.Value); err != nil {
				return err
			}
			values = append(values, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
