package cohort

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// CohortRegionStats is the cohort-wide summary of mean coverage for one
// region. NoData is set when the cohort holds no observation of the region;
// Summary is then zero and must not be read as measured values.
type CohortRegionStats struct {
	Region  string  `json:"region"`
	Summary Summary `json:"summary"`
	NoData  bool    `json:"no_data"`
}

// Value returns the summary, or ErrUndefinedStatistic when NoData is set.
func (s CohortRegionStats) Value() (Summary, error) {
	if s.NoData {
		return Summary{}, ErrUndefinedStatistic
	}
	return s.Summary, nil
}

// CohortStats is an immutable snapshot of CohortRegionStats keyed by region.
// It is built once per run and shared read-only by all samples.
type CohortStats struct {
	order   []string
	regions map[string]CohortRegionStats
}

// NewCohortStats builds a snapshot from per-region stats.
func NewCohortStats(stats ...CohortRegionStats) *CohortStats {
	c := &CohortStats{regions: make(map[string]CohortRegionStats, len(stats))}
	for _, s := range stats {
		if _, ok := c.regions[s.Region]; !ok {
			c.order = append(c.order, s.Region)
		}
		c.regions[s.Region] = s
	}
	return c
}

// Get returns the stats of region. Regions outside the aggregated universe
// report ok=false.
func (c *CohortStats) Get(region string) (CohortRegionStats, bool) {
	s, ok := c.regions[region]
	return s, ok
}

// Regions lists the aggregated regions in aggregation order.
func (c *CohortStats) Regions() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Subset copies the stats of the given regions; unknown regions are
// reported as NoData.
func (c *CohortStats) Subset(regions []string) map[string]CohortRegionStats {
	out := make(map[string]CohortRegionStats, len(regions))
	for _, r := range regions {
		s, ok := c.regions[r]
		if !ok {
			s = CohortRegionStats{Region: r, NoData: true}
		}
		out[r] = s
	}
	return out
}

// CoverageAggregator computes cohort-wide coverage statistics for a region
// universe.
type CoverageAggregator struct {
	Store        CoverageStore
	Workers      int
	QueryTimeout time.Duration
}

// NewCoverageAggregator creates an aggregator with the given parallelism
// and per-query timeout.
func NewCoverageAggregator(store CoverageStore, workers int, timeout time.Duration) *CoverageAggregator {
	return &CoverageAggregator{Store: store, Workers: workers, QueryTimeout: timeout}
}

// Aggregate fetches every historical coverage observation of each region
// and summarises mean coverage. A region with no observations is returned
// with NoData set. Any store failure aborts the aggregation.
func (a *CoverageAggregator) Aggregate(ctx context.Context, regions []string) (*CohortStats, error) {
	results := make([]CohortRegionStats, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	if a.Workers > 0 {
		g.SetLimit(a.Workers)
	}
	for i, region := range regions {
		g.Go(func() error {
			s, err := a.aggregateRegion(gctx, region)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCohortStats(results...), nil
}

func (a *CoverageAggregator) aggregateRegion(ctx context.Context, region string) (CohortRegionStats, error) {
	qctx, cancel := queryContext(ctx, a.QueryTimeout)
	defer cancel()

	rows, err := a.Store.FindByRegion(qctx, region)
	if err != nil {
		return CohortRegionStats{}, storeError("coverage for region "+region, err)
	}

	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row.MeanCoverage
	}

	summary, err := Summarize(values)
	if errors.Is(err, ErrInvalidInput) {
		return CohortRegionStats{Region: region, NoData: true}, nil
	}
	if err != nil {
		return CohortRegionStats{}, err
	}
	return CohortRegionStats{Region: region, Summary: summary}, nil
}
