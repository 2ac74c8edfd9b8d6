package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

// CoverageStore reads and writes per-region coverage observations.
type CoverageStore struct {
	db *DB
}

// NewCoverageStore creates a store backed by db.
func NewCoverageStore(db *DB) *CoverageStore {
	return &CoverageStore{db: db}
}

var _ cohort.CoverageStore = (*CoverageStore)(nil)

type coverageRow struct {
	ID           string  `db:"id"`
	Region       string  `db:"region"`
	Sample       string  `db:"sample"`
	Library      string  `db:"library_name"`
	RunID        string  `db:"run_id"`
	Program      string  `db:"program"`
	MeanCoverage float64 `db:"mean_coverage"`
	NumReads     int64   `db:"num_reads"`
}

const coverageColumns = `id, region, sample, library_name, run_id, program, mean_coverage, num_reads`

func (r coverageRow) observation() cohort.RegionCoverageObservation {
	return cohort.RegionCoverageObservation{
		Region:       r.Region,
		Sample:       r.Sample,
		RunID:        r.RunID,
		Library:      r.Library,
		Program:      r.Program,
		MeanCoverage: r.MeanCoverage,
		NumReads:     r.NumReads,
	}
}

func coverageObservations(rows []coverageRow) []cohort.RegionCoverageObservation {
	return lo.Map(rows, func(r coverageRow, _ int) cohort.RegionCoverageObservation { return r.observation() })
}

// FindByRegion returns every historical coverage observation of region.
func (s *CoverageStore) FindByRegion(ctx context.Context, region string) ([]cohort.RegionCoverageObservation, error) {
	var rows []coverageRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+coverageColumns+`
		FROM region_coverage
		WHERE region = ?
		ORDER BY sample, run_id, library_name, program`, region)
	if err != nil {
		return nil, classify("find coverage of region "+region, err)
	}
	return coverageObservations(rows), nil
}

// FindLibraryCoverage returns the rows lib recorded for region with program.
func (s *CoverageStore) FindLibraryCoverage(ctx context.Context, lib cohort.Library, region, program string) ([]cohort.RegionCoverageObservation, error) {
	var rows []coverageRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+coverageColumns+`
		FROM region_coverage
		WHERE sample = ? AND region = ? AND run_id = ? AND library_name = ? AND program = ?
		ORDER BY region, run_id`,
		lib.Sample, region, lib.RunID, lib.Name, program)
	if err != nil {
		return nil, classify("find coverage of library "+lib.Name, err)
	}
	return coverageObservations(rows), nil
}

// InsertCoverage stores c, replacing any earlier row for the same region,
// sample, library, run and program. It returns the row id.
func (s *CoverageStore) InsertCoverage(ctx context.Context, c cohort.RegionCoverageObservation) (string, error) {
	row := coverageRow{
		ID:           uuid.NewString(),
		Region:       c.Region,
		Sample:       c.Sample,
		Library:      c.Library,
		RunID:        c.RunID,
		Program:      c.Program,
		MeanCoverage: c.MeanCoverage,
		NumReads:     c.NumReads,
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO region_coverage (`+coverageColumns+`)
		VALUES (:id, :region, :sample, :library_name, :run_id, :program, :mean_coverage, :num_reads)`, row)
	if err != nil {
		return "", classify("insert coverage of region "+c.Region, err)
	}
	return row.ID, nil
}
