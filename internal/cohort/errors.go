package cohort

import "errors"

var (
	// ErrStoreUnavailable reports a connection or authentication failure
	// talking to a store. Fatal for the affected sample only.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreTimeout reports a store query that exceeded its deadline.
	// It is never retried here; retry policy belongs to the caller.
	ErrStoreTimeout = errors.New("store query timed out")

	// ErrUndefinedStatistic is returned when a statistic is read from a
	// summary that was computed over zero observations.
	ErrUndefinedStatistic = errors.New("statistic undefined: no data")

	// ErrMalformedPanelReference reports a panel identifier that cannot be
	// resolved to a region set. It aborts a run before classification.
	ErrMalformedPanelReference = errors.New("malformed panel reference")

	// ErrInvalidInput is returned by the summary functions for empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedAnnotation marks a variant observation whose annotation
	// payload cannot be classified. Such variants are skipped and counted.
	ErrMalformedAnnotation = errors.New("malformed annotation")
)
