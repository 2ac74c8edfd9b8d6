package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
	"github.com/banshee-data/cohort-tiering/internal/monitoring"
)

// newTestDB returns a migrated database in a temporary directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	db, err := OpenMigrated(filepath.Join(t.TempDir(), "cohort.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func braf(genome string) cohort.VariantIdentity {
	return cohort.VariantIdentity{ReferenceGenome: genome, Chromosome: "7", Position: 140453136, Ref: "A", Alt: "T"}
}

func observationOf(id cohort.VariantIdentity, sample, library, run string, af float64) cohort.VariantObservation {
	return cohort.VariantObservation{
		Identity:     id,
		Sample:       sample,
		Library:      library,
		RunID:        run,
		Callers:      []string{"mutect", "vardict"},
		CallerAF:     map[string]float64{"mutect": af, "vardict": af},
		MaxSomaticAF: af,
		MinDepth:     400,
		MaxDepth:     650,
		Regions:      cohort.Assigned("BRAF_ex15"),
		Annotation: cohort.Annotation{
			Gene:      "BRAF",
			Impact:    "missense_variant",
			Severity:  cohort.SeverityMed,
			CosmicIDs: []string{"COSM476"},
			MaxPopAF:  0.0001,
		},
		DateAnnotated: 1709283600,
	}
}
