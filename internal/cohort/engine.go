package cohort

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/cohort-tiering/internal/monitoring"
	"github.com/banshee-data/cohort-tiering/internal/timeutil"
)

// Engine runs cohort classification for a batch of samples.
type Engine struct {
	Variants VariantStore
	Coverage CoverageStore
	Panels   PanelResolver

	Thresholds      Thresholds
	GenomeVersion   string
	CoverageProgram string

	// QueryTimeout bounds every individual store query.
	QueryTimeout time.Duration
	// Workers bounds how many regions or samples are processed at once.
	Workers int
	Clock   timeutil.Clock
}

// SampleOutcome is the result of classifying one sample. Err is set when
// the sample failed; sibling samples are unaffected.
type SampleOutcome struct {
	Sample string        `json:"sample"`
	Report *SampleReport `json:"report,omitempty"`
	Err    error         `json:"-"`
}

// RunResult is the output of one engine run.
type RunResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Thresholds Thresholds      `json:"thresholds"`
	Regions    []string        `json:"regions"`
	Stats      *CohortStats    `json:"-"`
	Samples    []SampleOutcome `json:"samples"`
}

// Failed returns the outcomes that ended in error.
func (r *RunResult) Failed() []SampleOutcome {
	return lo.Filter(r.Samples, func(o SampleOutcome, _ int) bool { return o.Err != nil })
}

func (e *Engine) clock() timeutil.Clock {
	if e.Clock == nil {
		return timeutil.RealClock{}
	}
	return e.Clock
}

func (e *Engine) workers() int {
	if e.Workers <= 0 {
		return 1
	}
	return e.Workers
}

// RegionUniverse resolves the panel of every library and returns the union
// of their target regions in first-seen order, with the region set of each
// panel keyed by panel id.
func RegionUniverse(ctx context.Context, panels PanelResolver, samples []Sample) ([]string, map[string]RegionSet, error) {
	targets := make(map[string]RegionSet)
	var universe []string
	for _, sample := range samples {
		for _, lib := range sample.Libraries {
			id := lib.PanelID()
			if _, ok := targets[id]; ok {
				continue
			}
			set, err := panels.Resolve(ctx, id)
			if err != nil {
				if !errors.Is(err, ErrMalformedPanelReference) {
					err = fmt.Errorf("%w: %w", ErrMalformedPanelReference, err)
				}
				return nil, nil, fmt.Errorf("library %s of sample %s: %w", lib.Name, sample.Name, err)
			}
			targets[id] = set
			universe = append(universe, set.IDs()...)
		}
	}
	return lo.Uniq(universe), targets, nil
}

// Run resolves panels, aggregates cohort coverage for the region universe,
// and then classifies every sample concurrently against that snapshot.
// Panel and aggregation failures abort the run; a failure inside one
// sample is reported in its SampleOutcome.
func (e *Engine) Run(ctx context.Context, samples []Sample) (*RunResult, error) {
	result := &RunResult{
		RunID:      uuid.NewString(),
		StartedAt:  e.clock().Now(),
		Thresholds: e.Thresholds,
	}
	monitoring.Logf("run %s: %d samples", result.RunID, len(samples))

	universe, targets, err := RegionUniverse(ctx, e.Panels, samples)
	if err != nil {
		return nil, err
	}
	result.Regions = universe

	monitoring.Logf("run %s: aggregating cohort coverage for %d regions", result.RunID, len(universe))
	stats, err := NewCoverageAggregator(e.Coverage, e.workers(), e.QueryTimeout).Aggregate(ctx, universe)
	if err != nil {
		return nil, fmt.Errorf("aggregate cohort coverage: %w", err)
	}
	result.Stats = stats

	result.Samples = make([]SampleOutcome, len(samples))
	var g errgroup.Group
	g.SetLimit(e.workers())
	for i, sample := range samples {
		g.Go(func() error {
			report, err := e.ClassifySample(ctx, sample, targets, stats)
			if err != nil {
				monitoring.Logf("sample %s failed: %v", sample.Name, err)
			}
			result.Samples[i] = SampleOutcome{Sample: sample.Name, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	result.FinishedAt = e.clock().Now()
	monitoring.Logf("run %s: finished in %s, %d of %d samples failed",
		result.RunID, result.FinishedAt.Sub(result.StartedAt), len(result.Failed()), len(samples))
	return result, nil
}

// ClassifySample classifies every library of sample. Libraries are scanned
// in order, each into its own partial report that is merged at the end.
func (e *Engine) ClassifySample(ctx context.Context, sample Sample, targets map[string]RegionSet, stats *CohortStats) (*SampleReport, error) {
	report := NewSampleReport(sample.Name)
	for _, lib := range sample.Libraries {
		set, ok := targets[lib.PanelID()]
		if !ok {
			return nil, fmt.Errorf("library %s: panel %q not resolved: %w", lib.Name, lib.PanelID(), ErrMalformedPanelReference)
		}
		part, err := e.classifyLibrary(ctx, lib, set, stats)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
		report.Merge(part)
	}
	return report, nil
}

func (e *Engine) classifyLibrary(ctx context.Context, lib Library, targets RegionSet, stats *CohortStats) (*SampleReport, error) {
	logf := monitoring.ForSample(lib.Sample)
	part := NewSampleReport(lib.Sample)
	part.Libraries = []Library{lib}

	logf("%s: retrieving coverage for %d target regions", lib.Name, targets.Len())
	coverage, err := e.libraryCoverage(ctx, lib, targets)
	if err != nil {
		return nil, err
	}
	for _, region := range targets.IDs() {
		cohortStats := stats.Subset([]string{region})[region]
		part.RegionStats[region] = cohortStats
		for _, row := range coverage[region] {
			part.Coverage = append(part.Coverage, ReportedCoverage{
				RegionCoverageObservation: row,
				Status:                    CoverageStatusFor(row.MeanCoverage, e.Thresholds),
				Cohort:                    cohortStats,
			})
		}
	}

	qctx, cancel := queryContext(ctx, e.QueryTimeout)
	variants, err := e.Variants.FindLibraryVariants(qctx, lib, e.GenomeVersion, e.Thresholds.MaxPopAF)
	cancel()
	if err != nil {
		return nil, storeError("variants", err)
	}
	logf("%s: retrieved %d variants", lib.Name, len(variants))

	matcher := NewMatcher(e.Variants, e.QueryTimeout)
	classifier := NewTierClassifier(e.Thresholds)

	for _, obs := range variants {
		if err := obs.Validate(); err != nil {
			logf("%s: skipping %s: %v", lib.Name, obs.Identity, err)
			part.AddSkipped()
			continue
		}

		placement := AssignRegion(obs.Regions, targets)
		if !placement.OnTarget {
			part.AddOffTarget(placement.Key)
			continue
		}

		match, err := matcher.Match(ctx, obs)
		if err != nil {
			return nil, err
		}

		res, err := classifier.Classify(obs, placement.Regions, match)
		if err != nil {
			logf("%s: skipping %s: %v", lib.Name, obs.Identity, err)
			part.AddSkipped()
			continue
		}
		for _, region := range placement.Regions {
			res.Coverage = append(res.Coverage, coverage[region]...)
		}
		part.Add(res)
	}

	c := part.Counters
	logf("%s: iterated %d variants: %d passing, %d low frequency, %d low depth, %d off target, %d skipped",
		lib.Name, c.Iterated, c.Passed, c.LowFrequency, c.LowDepth, c.OffTarget, c.Skipped)
	return part, nil
}

func (e *Engine) libraryCoverage(ctx context.Context, lib Library, targets RegionSet) (map[string][]RegionCoverageObservation, error) {
	out := make(map[string][]RegionCoverageObservation, targets.Len())
	for _, region := range targets.IDs() {
		qctx, cancel := queryContext(ctx, e.QueryTimeout)
		rows, err := e.Coverage.FindLibraryCoverage(qctx, lib, region, e.CoverageProgram)
		cancel()
		if err != nil {
			return nil, storeError("coverage for region "+region, err)
		}
		out[region] = rows
	}
	return out, nil
}
