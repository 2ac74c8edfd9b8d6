package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

// VariantStore reads and writes variant observations.
type VariantStore struct {
	db *DB
}

// NewVariantStore creates a store backed by db.
func NewVariantStore(db *DB) *VariantStore {
	return &VariantStore{db: db}
}

var _ cohort.VariantStore = (*VariantStore)(nil)

// variantRow mirrors a variant_observations row.
type variantRow struct {
	ID              string  `db:"id"`
	ReferenceGenome string  `db:"reference_genome"`
	Chromosome      string  `db:"chrom"`
	Position        int64   `db:"pos"`
	Ref             string  `db:"ref"`
	Alt             string  `db:"alt"`
	Sample          string  `db:"sample"`
	Library         string  `db:"library_name"`
	RunID           string  `db:"run_id"`
	Callers         string  `db:"callers"`
	CallerAF        string  `db:"caller_af"`
	MaxSomaticAF    float64 `db:"max_som_aaf"`
	MinDepth        int     `db:"min_depth"`
	MaxDepth        int     `db:"max_depth"`
	Regions         string  `db:"regions"`
	MaxPopAF        float64 `db:"max_pop_af"`
	Annotation      string  `db:"annotation"`
	DateAnnotated   int64   `db:"date_annotated"`
}

const variantColumns = `id, reference_genome, chrom, pos, ref, alt, sample, library_name, run_id,
	callers, caller_af, max_som_aaf, min_depth, max_depth, regions, max_pop_af,
	annotation, date_annotated`

// observation converts the row to its domain form. A payload that cannot be
// decoded is reported on the observation rather than failing the query.
func (r variantRow) observation() cohort.VariantObservation {
	obs := cohort.VariantObservation{
		Identity: cohort.VariantIdentity{
			ReferenceGenome: r.ReferenceGenome,
			Chromosome:      r.Chromosome,
			Position:        r.Position,
			Ref:             r.Ref,
			Alt:             r.Alt,
		},
		Sample:        r.Sample,
		Library:       r.Library,
		RunID:         r.RunID,
		Callers:       lo.Compact(strings.Split(r.Callers, ",")),
		MaxSomaticAF:  r.MaxSomaticAF,
		MinDepth:      r.MinDepth,
		MaxDepth:      r.MaxDepth,
		Regions:       cohort.ParseRegionField(r.Regions),
		DateAnnotated: r.DateAnnotated,
	}
	if r.CallerAF != "" {
		if err := json.Unmarshal([]byte(r.CallerAF), &obs.CallerAF); err != nil {
			obs.Err = fmt.Errorf("caller_af of %s: %w", r.ID, err)
		}
	}
	if r.Annotation != "" {
		if err := json.Unmarshal([]byte(r.Annotation), &obs.Annotation); err != nil {
			obs.Err = fmt.Errorf("annotation of %s: %w", r.ID, err)
		}
	}
	obs.Annotation.MaxPopAF = r.MaxPopAF
	return obs
}

func observations(rows []variantRow) []cohort.VariantObservation {
	return lo.Map(rows, func(r variantRow, _ int) cohort.VariantObservation { return r.observation() })
}

// FindByIdentity returns every observation of id across the cohort.
func (s *VariantStore) FindByIdentity(ctx context.Context, id cohort.VariantIdentity) ([]cohort.VariantObservation, error) {
	var rows []variantRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+variantColumns+`
		FROM variant_observations
		WHERE reference_genome = ? AND chrom = ? AND pos = ? AND ref = ? AND alt = ?
		ORDER BY pos, ref, alt, sample, library_name, run_id`,
		id.ReferenceGenome, id.Chromosome, id.Position, id.Ref, id.Alt)
	if err != nil {
		return nil, classify("find variant "+id.String(), err)
	}
	return observations(rows), nil
}

// FindLibraryVariants returns one library's observations on genome whose
// population allele frequency is at most maxPopAF.
func (s *VariantStore) FindLibraryVariants(ctx context.Context, lib cohort.Library, genome string, maxPopAF float64) ([]cohort.VariantObservation, error) {
	var rows []variantRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+variantColumns+`
		FROM variant_observations
		WHERE reference_genome = ? AND sample = ? AND run_id = ? AND library_name = ? AND max_pop_af <= ?
		ORDER BY library_name, chrom, pos, ref, alt, date_annotated`,
		genome, lib.Sample, lib.RunID, lib.Name, maxPopAF)
	if err != nil {
		return nil, classify("find variants of library "+lib.Name, err)
	}
	return observations(rows), nil
}

// InsertObservation stores obs, replacing any earlier observation of the
// same identity by the same sample, library and run. It returns the row id.
func (s *VariantStore) InsertObservation(ctx context.Context, obs cohort.VariantObservation) (string, error) {
	annotation, err := json.Marshal(obs.Annotation)
	if err != nil {
		return "", fmt.Errorf("encode annotation: %w", err)
	}
	callerAF := []byte("{}")
	if len(obs.CallerAF) > 0 {
		if callerAF, err = json.Marshal(obs.CallerAF); err != nil {
			return "", fmt.Errorf("encode caller_af: %w", err)
		}
	}

	row := variantRow{
		ID:              uuid.NewString(),
		ReferenceGenome: obs.Identity.ReferenceGenome,
		Chromosome:      obs.Identity.Chromosome,
		Position:        obs.Identity.Position,
		Ref:             obs.Identity.Ref,
		Alt:             obs.Identity.Alt,
		Sample:          obs.Sample,
		Library:         obs.Library,
		RunID:           obs.RunID,
		Callers:         strings.Join(obs.Callers, ","),
		CallerAF:        string(callerAF),
		MaxSomaticAF:    obs.MaxSomaticAF,
		MinDepth:        obs.MinDepth,
		MaxDepth:        obs.MaxDepth,
		Regions:         obs.Regions.Key(),
		MaxPopAF:        obs.Annotation.MaxPopAF,
		Annotation:      string(annotation),
		DateAnnotated:   obs.DateAnnotated,
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO variant_observations (`+variantColumns+`)
		VALUES (:id, :reference_genome, :chrom, :pos, :ref, :alt, :sample, :library_name, :run_id,
			:callers, :caller_af, :max_som_aaf, :min_depth, :max_depth, :regions, :max_pop_af,
			:annotation, :date_annotated)`, row)
	if err != nil {
		return "", classify("insert variant "+obs.Identity.String(), err)
	}
	return row.ID, nil
}
