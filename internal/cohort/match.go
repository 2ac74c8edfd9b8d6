package cohort

import (
	"context"
	"time"
)

// MatchSet gathers every cohort observation of one variant identity,
// partitioned into the whole cohort and the current run. The run subset
// includes the observation being classified.
type MatchSet struct {
	AllAFs       []float64      `json:"all_afs"`
	RunAFs       []float64      `json:"run_afs"`
	RunSamples   []string       `json:"run_samples"`
	CallerCounts map[string]int `json:"caller_counts"`
}

// NumMatches is the number of cohort observations of the identity.
func (m MatchSet) NumMatches() int { return len(m.AllAFs) }

// NumInRun is the number of observations made in the current run.
func (m MatchSet) NumInRun() int { return len(m.RunAFs) }

// Matcher looks up prior observations of a variant across the cohort.
type Matcher struct {
	Store        VariantStore
	QueryTimeout time.Duration
}

// NewMatcher creates a Matcher bounded by timeout per query.
func NewMatcher(store VariantStore, timeout time.Duration) *Matcher {
	return &Matcher{Store: store, QueryTimeout: timeout}
}

// Match retrieves every observation sharing obs's identity and partitions
// it against obs's run.
func (m *Matcher) Match(ctx context.Context, obs VariantObservation) (MatchSet, error) {
	qctx, cancel := queryContext(ctx, m.QueryTimeout)
	defer cancel()

	matches, err := m.Store.FindByIdentity(qctx, obs.Identity)
	if err != nil {
		return MatchSet{}, storeError("match "+obs.Identity.String(), err)
	}
	return PartitionMatches(obs, matches), nil
}

// PartitionMatches builds a MatchSet from the cohort observations of obs's
// identity. The current observation always matches itself, so an empty
// result is treated as obs alone.
func PartitionMatches(obs VariantObservation, matches []VariantObservation) MatchSet {
	if len(matches) == 0 {
		matches = []VariantObservation{obs}
	}

	set := MatchSet{
		AllAFs:       make([]float64, 0, len(matches)),
		CallerCounts: TallyCallers(matches),
	}
	for _, match := range matches {
		set.AllAFs = append(set.AllAFs, match.MaxSomaticAF)
		if match.RunID == obs.RunID {
			set.RunAFs = append(set.RunAFs, match.MaxSomaticAF)
			set.RunSamples = append(set.RunSamples, match.Library)
		}
	}
	// A snapshot taken before obs was stored can miss it.
	if len(set.RunAFs) == 0 {
		set.RunAFs = append(set.RunAFs, obs.MaxSomaticAF)
		set.RunSamples = append(set.RunSamples, obs.Library)
	}
	return set
}
