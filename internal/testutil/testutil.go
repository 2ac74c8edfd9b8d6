// Package testutil provides in-memory stores, a static panel resolver and
// fixture builders shared by the cohort tests.
package testutil

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertErrorIs fails the test unless err matches target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// VariantStore is an in-memory cohort.VariantStore. Errors set in Err or
// LibraryErrs are returned instead of results.
type VariantStore struct {
	mu           sync.Mutex
	observations []cohort.VariantObservation

	Err         error
	LibraryErrs map[string]error
	IdentityErr error
	calls       int
}

var _ cohort.VariantStore = (*VariantStore)(nil)

// NewVariantStore returns a store holding obs.
func NewVariantStore(obs ...cohort.VariantObservation) *VariantStore {
	return &VariantStore{observations: slices.Clone(obs), LibraryErrs: make(map[string]error)}
}

// Add appends observations to the store.
func (s *VariantStore) Add(obs ...cohort.VariantObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, obs...)
}

// Calls returns how many queries the store has served.
func (s *VariantStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *VariantStore) FindByIdentity(ctx context.Context, id cohort.VariantIdentity) ([]cohort.VariantObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.IdentityErr != nil {
		return nil, s.IdentityErr
	}

	var out []cohort.VariantObservation
	for _, obs := range s.observations {
		if obs.Identity == id {
			out = append(out, obs)
		}
	}
	slices.SortStableFunc(out, func(a, b cohort.VariantObservation) int {
		return cmp.Or(
			cmp.Compare(a.Sample, b.Sample),
			cmp.Compare(a.Library, b.Library),
			cmp.Compare(a.RunID, b.RunID),
		)
	})
	return out, nil
}

func (s *VariantStore) FindLibraryVariants(ctx context.Context, lib cohort.Library, genome string, maxPopAF float64) ([]cohort.VariantObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.LibraryErrs[lib.Name]; err != nil {
		return nil, err
	}

	var out []cohort.VariantObservation
	for _, obs := range s.observations {
		if obs.Sample == lib.Sample && obs.Library == lib.Name && obs.RunID == lib.RunID &&
			obs.Identity.ReferenceGenome == genome && obs.Annotation.MaxPopAF <= maxPopAF {
			out = append(out, obs)
		}
	}
	slices.SortStableFunc(out, func(a, b cohort.VariantObservation) int {
		return cmp.Or(
			cmp.Compare(a.Identity.Chromosome, b.Identity.Chromosome),
			cmp.Compare(a.Identity.Position, b.Identity.Position),
			cmp.Compare(a.Identity.Ref, b.Identity.Ref),
			cmp.Compare(a.Identity.Alt, b.Identity.Alt),
			cmp.Compare(a.DateAnnotated, b.DateAnnotated),
		)
	})
	return out, nil
}

// CoverageStore is an in-memory cohort.CoverageStore.
type CoverageStore struct {
	mu   sync.Mutex
	rows []cohort.RegionCoverageObservation

	Err        error
	RegionErrs map[string]error
}

var _ cohort.CoverageStore = (*CoverageStore)(nil)

// NewCoverageStore returns a store holding rows.
func NewCoverageStore(rows ...cohort.RegionCoverageObservation) *CoverageStore {
	return &CoverageStore{rows: slices.Clone(rows), RegionErrs: make(map[string]error)}
}

// Add appends rows to the store.
func (s *CoverageStore) Add(rows ...cohort.RegionCoverageObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

func (s *CoverageStore) FindByRegion(ctx context.Context, region string) ([]cohort.RegionCoverageObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.RegionErrs[region]; err != nil {
		return nil, err
	}

	var out []cohort.RegionCoverageObservation
	for _, row := range s.rows {
		if row.Region == region {
			out = append(out, row)
		}
	}
	slices.SortStableFunc(out, func(a, b cohort.RegionCoverageObservation) int {
		return cmp.Or(cmp.Compare(a.Sample, b.Sample), cmp.Compare(a.RunID, b.RunID))
	})
	return out, nil
}

func (s *CoverageStore) FindLibraryCoverage(ctx context.Context, lib cohort.Library, region, program string) ([]cohort.RegionCoverageObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []cohort.RegionCoverageObservation
	for _, row := range s.rows {
		if row.Region == region && row.Sample == lib.Sample && row.Library == lib.Name &&
			row.RunID == lib.RunID && row.Program == program {
			out = append(out, row)
		}
	}
	return out, nil
}

// StaticPanels resolves panel ids from a fixed map.
type StaticPanels map[string][]string

var _ cohort.PanelResolver = StaticPanels(nil)

func (p StaticPanels) Resolve(_ context.Context, panelID string) (cohort.RegionSet, error) {
	set := cohort.NewRegionSet(p[panelID]...)
	if set.Len() == 0 {
		return cohort.RegionSet{}, fmt.Errorf("panel %q: %w", panelID, cohort.ErrMalformedPanelReference)
	}
	return set, nil
}

// Genome is the reference genome used by fixtures.
const Genome = "GRCh37.75"

// Identity builds a variant identity on Genome.
func Identity(chrom string, pos int64, ref, alt string) cohort.VariantIdentity {
	return cohort.VariantIdentity{ReferenceGenome: Genome, Chromosome: chrom, Position: pos, Ref: ref, Alt: alt}
}

// Library builds a library of sample in run on panel "onco/core".
func Library(sample, name, run string) cohort.Library {
	return cohort.Library{Sample: sample, Name: name, RunID: run, Panel: "onco", Report: "core"}
}

// Observation builds a passing, low-impact observation of id by lib in the
// given regions. Tests adjust the returned value as needed.
func Observation(id cohort.VariantIdentity, lib cohort.Library, af float64, regions ...string) cohort.VariantObservation {
	return cohort.VariantObservation{
		Identity:     id,
		Sample:       lib.Sample,
		Library:      lib.Name,
		RunID:        lib.RunID,
		Callers:      []string{"mutect", "vardict"},
		MaxSomaticAF: af,
		MinDepth:     450,
		MaxDepth:     600,
		Regions:      cohort.Assigned(regions...),
		Annotation: cohort.Annotation{
			Gene:     "TP53",
			Impact:   "synonymous_variant",
			Severity: cohort.SeverityLow,
		},
	}
}

// Coverage builds a coverage row of lib for region.
func Coverage(lib cohort.Library, region string, mean float64) cohort.RegionCoverageObservation {
	return cohort.RegionCoverageObservation{
		Region:       region,
		Sample:       lib.Sample,
		RunID:        lib.RunID,
		Library:      lib.Name,
		Program:      "sambamba",
		MeanCoverage: mean,
		NumReads:     int64(mean * 10),
	}
}
