package cohort

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// VariantStore is the read side of the cohort's variant observations.
// Implementations must return consistently ordered results and report
// failures as ErrStoreUnavailable or ErrStoreTimeout.
type VariantStore interface {
	// FindByIdentity returns every observation of id across all samples,
	// runs and libraries, ordered by position, ref, alt, sample, library
	// and run. Matching is exact on every identity field.
	FindByIdentity(ctx context.Context, id VariantIdentity) ([]VariantObservation, error)

	// FindLibraryVariants returns the observations made by one library on
	// the given reference genome whose population allele frequency does
	// not exceed maxPopAF.
	FindLibraryVariants(ctx context.Context, lib Library, genome string, maxPopAF float64) ([]VariantObservation, error)
}

// CoverageStore is the read side of per-region coverage observations.
type CoverageStore interface {
	// FindByRegion returns every historical coverage observation of region,
	// ordered by sample and run.
	FindByRegion(ctx context.Context, region string) ([]RegionCoverageObservation, error)

	// FindLibraryCoverage returns the coverage rows one library recorded
	// for region with the given coverage program.
	FindLibraryCoverage(ctx context.Context, lib Library, region, program string) ([]RegionCoverageObservation, error)
}

// PanelResolver maps a panel identifier to its target regions.
// Unresolvable identifiers yield ErrMalformedPanelReference.
type PanelResolver interface {
	Resolve(ctx context.Context, panelID string) (RegionSet, error)
}

// queryContext bounds a single store query. A non-positive timeout leaves
// the parent deadline in charge.
func queryContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError makes sure a store failure carries one of the store error
// kinds, whatever the backend returned.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, ErrStoreTimeout), errors.Is(err, ErrStoreUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrStoreTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}
