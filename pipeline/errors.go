package pipeline

import "fmt"

// FetchError wraps a store failure. It surfaces after the store's bounded
// retries are exhausted; an empty result set is not a FetchError.
type FetchError struct {
	SiteID int
	Metric string
	Err    error
}

func (e *FetchError) Error() string {
	if e.SiteID > 0 && e.Metric != "" {
		return fmt.Sprintf("fetch surveys for site %d metric %s: %v", e.SiteID, e.Metric, e.Err)
	}
	if e.SiteID > 0 {
		return fmt.Sprintf("fetch data for site %d: %v", e.SiteID, e.Err)
	}
	return fmt.Sprintf("fetch data: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a request before any survey data is fetched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigError reports a malformed pipeline option. Fatal at startup, never
// produced per-request.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Option, e.Reason)
}
