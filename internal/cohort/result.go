package cohort

// Counters tally what happened to each variant of a sample. Every iterated
// variant lands in exactly one of Passed, LowFrequency, LowDepth, OffTarget
// or Skipped.
type Counters struct {
	Iterated     int `json:"iterated"`
	Passed       int `json:"passed"`
	LowFrequency int `json:"filtered_low_freq"`
	LowDepth     int `json:"filtered_low_depth"`
	OffTarget    int `json:"filtered_off_target"`
	Skipped      int `json:"skipped"`
}

// Merge adds o into c.
func (c *Counters) Merge(o Counters) {
	c.Iterated += o.Iterated
	c.Passed += o.Passed
	c.LowFrequency += o.LowFrequency
	c.LowDepth += o.LowDepth
	c.OffTarget += o.OffTarget
	c.Skipped += o.Skipped
}

// CoverageStatus grades a library's mean coverage of a region.
type CoverageStatus string

const (
	CoverageFail CoverageStatus = "fail"
	CoverageWarn CoverageStatus = "warn"
	CoveragePass CoverageStatus = "pass"
)

// CoverageStatusFor grades mean coverage against the depth thresholds.
func CoverageStatusFor(meanCoverage float64, th Thresholds) CoverageStatus {
	switch {
	case meanCoverage < float64(th.MinDepth):
		return CoverageFail
	case meanCoverage < float64(th.GoodDepth):
		return CoverageWarn
	default:
		return CoveragePass
	}
}

// ReportedCoverage is one library coverage row with its grade and the
// cohort statistics of its region.
type ReportedCoverage struct {
	RegionCoverageObservation
	Status CoverageStatus    `json:"status"`
	Cohort CohortRegionStats `json:"cohort"`
}

// SampleReport is everything reporting needs for one sample. It holds no
// logic beyond collection.
type SampleReport struct {
	Sample            string                          `json:"sample"`
	Libraries         []Library                       `json:"libraries"`
	Counters          Counters                        `json:"counters"`
	OffTargetByRegion map[string]int                  `json:"off_target_by_region"`
	Tiers             map[Tier][]ClassificationResult `json:"tiers"`
	Coverage          []ReportedCoverage              `json:"coverage"`
	RegionStats       map[string]CohortRegionStats    `json:"region_stats"`
}

// NewSampleReport returns an empty report with every tier present.
func NewSampleReport(name string) *SampleReport {
	r := &SampleReport{
		Sample:            name,
		OffTargetByRegion: make(map[string]int),
		Tiers:             make(map[Tier][]ClassificationResult, len(Tiers)),
		RegionStats:       make(map[string]CohortRegionStats),
	}
	for _, t := range Tiers {
		r.Tiers[t] = nil
	}
	return r
}

// Add records a classified variant under its tier.
func (r *SampleReport) Add(res ClassificationResult) {
	r.Counters.Iterated++
	switch {
	case res.Gate.Pass:
		r.Counters.Passed++
	case res.Gate.Reason == ReasonLowFrequency:
		r.Counters.LowFrequency++
	default:
		r.Counters.LowDepth++
	}
	r.Tiers[res.Tier] = append(r.Tiers[res.Tier], res)
}

// AddOffTarget records a variant outside the library's target regions.
func (r *SampleReport) AddOffTarget(key string) {
	r.Counters.Iterated++
	r.Counters.OffTarget++
	r.OffTargetByRegion[key]++
}

// AddSkipped records a variant that could not be classified.
func (r *SampleReport) AddSkipped() {
	r.Counters.Iterated++
	r.Counters.Skipped++
}

// Merge folds a partial report, typically one library's, into r.
func (r *SampleReport) Merge(o *SampleReport) {
	r.Libraries = append(r.Libraries, o.Libraries...)
	r.Counters.Merge(o.Counters)
	for key, n := range o.OffTargetByRegion {
		r.OffTargetByRegion[key] += n
	}
	for tier, results := range o.Tiers {
		r.Tiers[tier] = append(r.Tiers[tier], results...)
	}
	r.Coverage = append(r.Coverage, o.Coverage...)
	for region, s := range o.RegionStats {
		r.RegionStats[region] = s
	}
}

// Count returns the number of results in tier.
func (r *SampleReport) Count(tier Tier) int { return len(r.Tiers[tier]) }

// Classified returns the number of variants placed in any tier.
func (r *SampleReport) Classified() int {
	n := 0
	for _, results := range r.Tiers {
		n += len(results)
	}
	return n
}
