package cohort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = Thresholds{MinSAF: 0.01, MinDepth: 200, GoodDepth: 500, MaxPopAF: 0.005}

func classifiable(af float64, depth int) VariantObservation {
	return VariantObservation{
		Identity:     VariantIdentity{ReferenceGenome: "GRCh37.75", Chromosome: "12", Position: 25398284, Ref: "C", Alt: "T"},
		Sample:       "S1",
		Library:      "S1-L1",
		RunID:        "run-1",
		Callers:      []string{"mutect", "vardict"},
		MaxSomaticAF: af,
		MaxDepth:     depth,
		Regions:      Assigned("KRAS_ex2"),
		Annotation:   Annotation{Gene: "KRAS", Severity: SeverityLow},
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*VariantObservation)
		want   Category
	}{
		{"cosmic id", func(o *VariantObservation) { o.Annotation.CosmicIDs = []string{"COSM516"} }, CategoryCosmicClinVar},
		{"clinvar pathogenic", func(o *VariantObservation) { o.Annotation.ClinVarSignificance = []string{"pathogenic"} }, CategoryCosmicClinVar},
		{"clinvar drug response", func(o *VariantObservation) {
			o.Annotation.ClinVarSignificance = []string{"benign", "Drug-Response"}
		}, CategoryCosmicClinVar},
		{"clinvar benign only", func(o *VariantObservation) { o.Annotation.ClinVarSignificance = []string{"benign"} }, CategoryLowImpact},
		{"cosmic beats high", func(o *VariantObservation) {
			o.Annotation.CosmicIDs = []string{"COSM516"}
			o.Annotation.Severity = SeverityHigh
		}, CategoryCosmicClinVar},
		{"high", func(o *VariantObservation) { o.Annotation.Severity = SeverityHigh }, CategoryHighImpact},
		{"med", func(o *VariantObservation) { o.Annotation.Severity = SeverityMed }, CategoryMedImpact},
		{"low", func(o *VariantObservation) {}, CategoryLowImpact},
		{"unknown severity", func(o *VariantObservation) { o.Annotation.Severity = "MODIFIER" }, CategoryLowImpact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obs := classifiable(0.2, 600)
			tt.mutate(&obs)
			assert.Equal(t, tt.want, Categorize(obs))
		})
	}
}

func TestApplyGate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		af    float64
		depth int
		want  Gate
	}{
		{"pass", 0.2, 600, Gate{Pass: true}},
		{"at thresholds", 0.01, 200, Gate{Pass: true}},
		{"low frequency", 0.003, 600, Gate{Reason: ReasonLowFrequency}},
		{"low depth", 0.2, 150, Gate{Reason: ReasonLowDepth}},
		{"both fail reports frequency", 0.003, 10, Gate{Reason: ReasonLowFrequency}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ApplyGate(classifiable(tt.af, tt.depth), testThresholds))
		})
	}
}

// Frequency below min_saf always reports low frequency, whatever the depth.
func TestApplyGate_FrequencyBeforeDepth(t *testing.T) {
	t.Parallel()
	for _, af := range []float64{0, 0.001, 0.005, 0.0099} {
		for _, depth := range []int{0, 50, 199, 200, 10000} {
			gate := ApplyGate(classifiable(af, depth), testThresholds)
			assert.False(t, gate.Pass)
			assert.Equal(t, ReasonLowFrequency, gate.Reason, "af=%v depth=%d", af, depth)
		}
	}
}

func TestCategoryTier(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TierHighImpact, CategoryHighImpact.Tier(true))
	assert.Equal(t, TierHighImpactFail, CategoryHighImpact.Tier(false))
	assert.Equal(t, TierCosmicClinVarFail, CategoryCosmicClinVar.Tier(false))
	assert.Len(t, Tiers, 8)
}

func TestReviewFlagFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*VariantObservation)
		want   ReviewFlag
	}{
		{"none", func(o *VariantObservation) { o.MaxSomaticAF = 0.03 }, FlagNone},
		{"single freebayes", func(o *VariantObservation) { o.Callers = []string{"freebayes"} }, FlagCaution},
		{"single pindel beats pathogenic", func(o *VariantObservation) {
			o.Callers = []string{"pindel"}
			o.Annotation.ClinVarSignificance = []string{"pathogenic"}
		}, FlagCaution},
		{"freebayes with others", func(o *VariantObservation) {
			o.Callers = []string{"freebayes", "mutect"}
			o.MaxSomaticAF = 0.03
		}, FlagNone},
		{"pathogenic", func(o *VariantObservation) { o.Annotation.ClinVarSignificance = []string{"likely-pathogenic"} }, FlagPathogenic},
		{"high af", func(o *VariantObservation) { o.MaxSomaticAF = 0.2 }, FlagInterest},
		{"cosmic samples", func(o *VariantObservation) {
			o.MaxSomaticAF = 0.03
			o.Annotation.CosmicNumSamples = "2,17"
		}, FlagInterest},
		{"few cosmic samples", func(o *VariantObservation) {
			o.MaxSomaticAF = 0.03
			o.Annotation.CosmicNumSamples = "4"
		}, FlagNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obs := classifiable(0.2, 600)
			tt.mutate(&obs)
			assert.Equal(t, tt.want, ReviewFlagFor(obs))
		})
	}
}

func TestTierClassifier_Classify(t *testing.T) {
	t.Parallel()
	obs := classifiable(0.10, 600)
	obs.Annotation.Severity = SeverityHigh
	cohortObs := []VariantObservation{
		{Library: "S0-L1", RunID: "run-0", MaxSomaticAF: 0.02, Callers: []string{"mutect"}},
		obs,
		{Library: "S2-L1", RunID: "run-1", MaxSomaticAF: 0.30, Callers: []string{"vardict", "scalpel"}},
	}
	match := PartitionMatches(obs, cohortObs)

	res, err := NewTierClassifier(testThresholds).Classify(obs, []string{"KRAS_ex2"}, match)
	require.NoError(t, err)

	assert.Equal(t, CategoryHighImpact, res.Category)
	assert.Equal(t, TierHighImpact, res.Tier)
	assert.True(t, res.Gate.Pass)
	assert.InDelta(t, 0.10, res.VAFMedian, 1e-12)
	assert.InDelta(t, 50.0, res.PercentileRank, 1e-9)
	assert.InDelta(t, 0.20, res.RunMedian, 1e-12)
	assert.Equal(t, 3, res.NumTimesCalled)
	assert.Equal(t, 2, res.NumTimesInRun)
	assert.Equal(t, []string{"S1-L1", "S2-L1"}, res.MatchingSamples)
	assert.Equal(t, []CallerCount{{"mutect", 2}, {"scalpel", 1}, {"vardict", 2}}, res.CallerCounts)
	assert.Equal(t, []string{"KRAS_ex2"}, res.Regions)
	assert.Equal(t, FlagInterest, res.Flag)
}

func TestTierClassifier_CosmicLowFrequency(t *testing.T) {
	t.Parallel()
	obs := classifiable(0.003, 900)
	obs.Annotation.CosmicIDs = []string{"COSM12600"}
	obs.Annotation.Severity = SeverityLow

	res, err := NewTierClassifier(testThresholds).Classify(obs, []string{"KRAS_ex2"}, PartitionMatches(obs, nil))
	require.NoError(t, err)
	assert.Equal(t, TierCosmicClinVarFail, res.Tier)
	assert.Equal(t, ReasonLowFrequency, res.Gate.Reason)
}

// Every observation lands in exactly one of the eight tiers.
func TestTierClassifier_ExactlyOneTier(t *testing.T) {
	t.Parallel()
	tc := NewTierClassifier(testThresholds)
	severities := []Severity{SeverityHigh, SeverityMed, SeverityLow, ""}
	for _, sev := range severities {
		for _, cosmic := range []bool{true, false} {
			for _, af := range []float64{0.001, 0.5} {
				for _, depth := range []int{10, 900} {
					obs := classifiable(af, depth)
					obs.Annotation.Severity = sev
					if cosmic {
						obs.Annotation.CosmicIDs = []string{"COSM1"}
					}
					res, err := tc.Classify(obs, nil, PartitionMatches(obs, nil))
					require.NoError(t, err)
					assert.Contains(t, Tiers, res.Tier)
					assert.Equal(t, res.Category.Tier(res.Gate.Pass), res.Tier)
				}
			}
		}
	}
}

func TestMaxCosmicSamples(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, maxCosmicSamples(""))
	assert.Equal(t, 12, maxCosmicSamples("3,12,7"))
	assert.Equal(t, 40, maxCosmicSamples("None;40"))
}
