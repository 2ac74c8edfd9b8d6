package cohort

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// VariantIdentity uniquely identifies a variant across the whole cohort,
// independent of the sample, run or library that observed it.
type VariantIdentity struct {
	ReferenceGenome string `json:"reference_genome"`
	Chromosome      string `json:"chrom"`
	Position        int64  `json:"pos"`
	Ref             string `json:"ref"`
	Alt             string `json:"alt"`
}

func (id VariantIdentity) String() string {
	return fmt.Sprintf("%s:%s:%d:%s>%s", id.ReferenceGenome, id.Chromosome, id.Position, id.Ref, id.Alt)
}

// Severity is the functional-consequence class assigned by annotation.
type Severity string

const (
	SeverityHigh Severity = "HIGH"
	SeverityMed  Severity = "MED"
	SeverityLow  Severity = "LOW"
)

// Annotation is the knowledge-base payload attached to an observation by
// the upstream annotation pipeline.
type Annotation struct {
	Gene        string   `json:"gene"`
	Impact      string   `json:"impact"`
	Severity    Severity `json:"severity"`
	End         int64    `json:"end"`
	CodonChange string   `json:"codon_change,omitempty"`
	AAChange    string   `json:"aa_change,omitempty"`
	RsIDs       []string `json:"rs_ids,omitempty"`

	CosmicIDs        []string `json:"cosmic_ids,omitempty"`
	CosmicNumSamples string   `json:"cosmic_num_samples,omitempty"`
	CosmicAA         string   `json:"cosmic_aa,omitempty"`

	ClinVarSignificance []string `json:"clinvar_significance,omitempty"`
	ClinVarHGVS         string   `json:"clinvar_hgvs,omitempty"`
	ClinVarDisease      string   `json:"clinvar_disease,omitempty"`

	// MaxPopAF is the highest population allele frequency across the
	// population databases consulted.
	MaxPopAF float64 `json:"max_pop_af"`
}

// VariantObservation is one row per (identity, sample, run, library).
// Observations are read-only here.
type VariantObservation struct {
	Identity VariantIdentity `json:"identity"`
	Sample   string          `json:"sample"`
	Library  string          `json:"library"`
	RunID    string          `json:"run_id"`

	Callers  []string           `json:"callers"`
	CallerAF map[string]float64 `json:"caller_af,omitempty"`

	// MaxSomaticAF is the highest somatic allele frequency reported by
	// any caller.
	MaxSomaticAF float64 `json:"max_som_af"`
	MinDepth     int     `json:"min_depth"`
	MaxDepth     int     `json:"max_depth"`

	Regions    RegionAssignment `json:"regions"`
	Annotation Annotation       `json:"annotation"`

	DateAnnotated int64 `json:"date_annotated,omitempty"`

	// Err is set by the store when the annotation payload could not be
	// decoded. Validate reports it as ErrMalformedAnnotation.
	Err error `json:"-"`
}

// Validate reports whether the observation carries enough well-formed data
// to be classified.
func (o VariantObservation) Validate() error {
	if o.Err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAnnotation, o.Err)
	}
	if o.Identity.Chromosome == "" || o.Identity.Position <= 0 {
		return fmt.Errorf("%w: incomplete identity %s", ErrMalformedAnnotation, o.Identity)
	}
	if math.IsNaN(o.MaxSomaticAF) || o.MaxSomaticAF < 0 || o.MaxSomaticAF > 1 {
		return fmt.Errorf("%w: allele frequency %v out of range", ErrMalformedAnnotation, o.MaxSomaticAF)
	}
	if o.MaxDepth < 0 || o.MinDepth < 0 {
		return fmt.Errorf("%w: negative depth", ErrMalformedAnnotation)
	}
	return nil
}

// RegionCoverageObservation is one row per (region, sample, run, library).
type RegionCoverageObservation struct {
	Region       string  `json:"region"`
	Sample       string  `json:"sample"`
	RunID        string  `json:"run_id"`
	Library      string  `json:"library"`
	Program      string  `json:"program"`
	MeanCoverage float64 `json:"mean_coverage"`
	NumReads     int64   `json:"num_reads"`
}

// Library is one sequenced library of a sample, with the panel and report
// template that define its target regions.
type Library struct {
	Sample string `json:"sample" yaml:"sample"`
	Name   string `json:"library_name" yaml:"library_name"`
	RunID  string `json:"run_id" yaml:"run_id"`
	Panel  string `json:"panel" yaml:"panel"`
	Report string `json:"report" yaml:"report"`
}

// PanelID names the panel definition for this library's report template.
func (l Library) PanelID() string {
	if l.Report == "" {
		return l.Panel
	}
	return path.Join(l.Panel, l.Report)
}

// Sample groups the libraries sequenced for one clinical sample.
type Sample struct {
	Name      string    `json:"name"`
	Libraries []Library `json:"libraries"`
}

// Thresholds are the pass/fail gates and query filters for a run.
type Thresholds struct {
	MinSAF    float64 `json:"min_saf"`
	MinDepth  int     `json:"min_depth"`
	GoodDepth int     `json:"good_depth"`
	MaxPopAF  float64 `json:"max_pop_af"`
}

// RegionSet is an ordered, de-duplicated set of target region ids.
type RegionSet struct {
	ids     []string
	members map[string]struct{}
}

// NewRegionSet builds a set from ids, keeping first-seen order and dropping
// blanks and duplicates.
func NewRegionSet(ids ...string) RegionSet {
	s := RegionSet{members: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s.members[id]; ok {
			continue
		}
		s.members[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports whether id is a member of the set.
func (s RegionSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

// IDs returns the members in insertion order.
func (s RegionSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s RegionSet) Len() int { return len(s.ids) }
