package cohort

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Category is the identity bucket a variant falls into before gating.
type Category string

const (
	CategoryCosmicClinVar Category = "cosmic_clinvar"
	CategoryHighImpact    Category = "high_impact"
	CategoryMedImpact     Category = "med_impact"
	CategoryLowImpact     Category = "low_impact"
)

// Tier is the terminal label: a category plus its pass/fail outcome.
type Tier string

const (
	TierCosmicClinVar     Tier = "cosmic_clinvar"
	TierHighImpact        Tier = "high_impact"
	TierMedImpact         Tier = "med_impact"
	TierLowImpact         Tier = "low_impact"
	TierCosmicClinVarFail Tier = "cosmic_clinvar_fail"
	TierHighImpactFail    Tier = "high_impact_fail"
	TierMedImpactFail     Tier = "med_impact_fail"
	TierLowImpactFail     Tier = "low_impact_fail"
)

// Tiers lists every terminal label in review order: passing tiers first.
var Tiers = []Tier{
	TierCosmicClinVar, TierHighImpact, TierMedImpact, TierLowImpact,
	TierCosmicClinVarFail, TierHighImpactFail, TierMedImpactFail, TierLowImpactFail,
}

// Tier returns the terminal label for the category given the gate outcome.
func (c Category) Tier(pass bool) Tier {
	if pass {
		return Tier(c)
	}
	return Tier(string(c) + "_fail")
}

// FailReason explains a failed gate.
type FailReason string

const (
	ReasonLowFrequency FailReason = "low frequency"
	ReasonLowDepth     FailReason = "low depth"
)

// Gate is the pass/fail outcome of the frequency and depth thresholds.
type Gate struct {
	Pass   bool       `json:"pass"`
	Reason FailReason `json:"reason,omitempty"`
}

// ApplyGate checks frequency strictly before depth, so a variant failing
// both is recorded as low frequency.
func ApplyGate(obs VariantObservation, th Thresholds) Gate {
	switch {
	case obs.MaxSomaticAF < th.MinSAF:
		return Gate{Reason: ReasonLowFrequency}
	case obs.MaxDepth < th.MinDepth:
		return Gate{Reason: ReasonLowDepth}
	default:
		return Gate{Pass: true}
	}
}

// clinVarTier1Terms are the clinical-significance terms that place a
// variant in the COSMIC/ClinVar category.
var clinVarTier1Terms = []string{"pathogenic", "likely-pathogenic", "drug-response"}

func hasTier1Significance(terms []string) bool {
	return lo.ContainsBy(terms, func(term string) bool {
		return lo.Contains(clinVarTier1Terms, strings.ToLower(strings.TrimSpace(term)))
	})
}

// tierRule pairs a category with its membership predicate.
type tierRule struct {
	category Category
	matches  func(VariantObservation) bool
}

// tierRules is evaluated top to bottom; the first matching rule wins.
var tierRules = []tierRule{
	{CategoryCosmicClinVar, func(o VariantObservation) bool {
		return len(o.Annotation.CosmicIDs) > 0 || hasTier1Significance(o.Annotation.ClinVarSignificance)
	}},
	{CategoryHighImpact, func(o VariantObservation) bool { return o.Annotation.Severity == SeverityHigh }},
	{CategoryMedImpact, func(o VariantObservation) bool { return o.Annotation.Severity == SeverityMed }},
	{CategoryLowImpact, func(VariantObservation) bool { return true }},
}

// Categorize returns the first category whose rule matches obs.
func Categorize(obs VariantObservation) Category {
	for _, rule := range tierRules {
		if rule.matches(obs) {
			return rule.category
		}
	}
	return CategoryLowImpact
}

// ReviewFlag is a reviewer hint attached to classified variants.
type ReviewFlag string

const (
	FlagNone ReviewFlag = "none"
	// FlagCaution marks a variant called only by a single low-confidence caller.
	FlagCaution    ReviewFlag = "caution"
	FlagPathogenic ReviewFlag = "pathogenic"
	FlagInterest   ReviewFlag = "interest"
)

const (
	interestAF            = 0.05
	interestCosmicSamples = 5
)

var lowConfidenceCallers = []string{"freebayes", "pindel"}

var cosmicCountPattern = regexp.MustCompile(`\b\d+\b`)

// maxCosmicSamples returns the largest sample count listed in the COSMIC
// num_samples field, which may hold several counts.
func maxCosmicSamples(field string) int {
	best := 0
	for _, num := range cosmicCountPattern.FindAllString(field, -1) {
		if n, err := strconv.Atoi(num); err == nil && n > best {
			best = n
		}
	}
	return best
}

// ReviewFlagFor derives the reviewer hint; the first matching flag wins.
func ReviewFlagFor(obs VariantObservation) ReviewFlag {
	switch {
	case len(obs.Callers) == 1 && lo.Contains(lowConfidenceCallers, obs.Callers[0]):
		return FlagCaution
	case hasTier1Significance(obs.Annotation.ClinVarSignificance):
		return FlagPathogenic
	case obs.MaxSomaticAF > interestAF:
		return FlagInterest
	case maxCosmicSamples(obs.Annotation.CosmicNumSamples) >= interestCosmicSamples:
		return FlagInterest
	default:
		return FlagNone
	}
}

// ClassificationResult is the outcome for one on-target observation.
type ClassificationResult struct {
	Observation VariantObservation `json:"observation"`
	Category    Category           `json:"category"`
	Tier        Tier               `json:"tier"`
	Gate        Gate               `json:"gate"`
	Flag        ReviewFlag         `json:"flag"`

	VAFMedian      float64 `json:"vaf_median"`
	VAFStdDev      float64 `json:"vaf_std_dev"`
	RunMedian      float64 `json:"run_median"`
	PercentileRank float64 `json:"percentile_rank"`

	NumTimesCalled  int           `json:"num_times_called"`
	NumTimesInRun   int           `json:"num_times_in_run"`
	MatchingSamples []string      `json:"matching_samples"`
	CallerCounts    []CallerCount `json:"caller_counts"`

	// Regions are the on-target region ids; Coverage holds the library's
	// coverage rows for those regions, when recorded.
	Regions  []string                    `json:"regions"`
	Coverage []RegionCoverageObservation `json:"coverage,omitempty"`
}

// TierClassifier buckets on-target observations into tiers.
type TierClassifier struct {
	Thresholds Thresholds
}

// NewTierClassifier creates a classifier gating on th.
func NewTierClassifier(th Thresholds) *TierClassifier {
	return &TierClassifier{Thresholds: th}
}

// Classify assigns obs exactly one tier and attaches the cohort statistics
// computed from match.
func (tc *TierClassifier) Classify(obs VariantObservation, regions []string, match MatchSet) (ClassificationResult, error) {
	median, err := Median(match.AllAFs)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify %s: %w", obs.Identity, err)
	}
	sd, err := PopulationStdDev(match.AllAFs)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify %s: %w", obs.Identity, err)
	}
	runMedian, err := Median(match.RunAFs)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify %s: %w", obs.Identity, err)
	}
	rank, err := PercentileRank(match.AllAFs, obs.MaxSomaticAF)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify %s: %w", obs.Identity, err)
	}

	category := Categorize(obs)
	gate := ApplyGate(obs, tc.Thresholds)

	return ClassificationResult{
		Observation:     obs,
		Category:        category,
		Tier:            category.Tier(gate.Pass),
		Gate:            gate,
		Flag:            ReviewFlagFor(obs),
		VAFMedian:       median,
		VAFStdDev:       sd,
		RunMedian:       runMedian,
		PercentileRank:  rank,
		NumTimesCalled:  match.NumMatches(),
		NumTimesInRun:   match.NumInRun(),
		MatchingSamples: match.RunSamples,
		CallerCounts:    SortedCallerCounts(match.CallerCounts),
		Regions:         regions,
	}, nil
}
