package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

// SamplesSheet is the YAML list of libraries to classify in one run.
//
//	libraries:
//	  - sample: S-001
//	    library_name: S-001-L1
//	    run_id: 240301_M0042
//	    panel: onco
//	    report: core
type SamplesSheet struct {
	Libraries []cohort.Library `yaml:"libraries"`
}

// LoadSamples reads a samples sheet and groups its libraries by sample.
// Samples are returned in first-seen order and keep their libraries in
// file order.
func LoadSamples(path string) ([]cohort.Sample, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("samples file must have .yaml or .yml extension, got %q", ext)
	}
	data, err := readLimited(cleanPath)
	if err != nil {
		return nil, err
	}

	var sheet SamplesSheet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sheet); err != nil {
		return nil, fmt.Errorf("failed to parse samples YAML: %w", err)
	}
	if err := sheet.Validate(); err != nil {
		return nil, fmt.Errorf("invalid samples sheet: %w", err)
	}
	return sheet.Samples(), nil
}

// Validate checks every library carries the fields needed to query the
// stores and resolve its panel.
func (s SamplesSheet) Validate() error {
	if len(s.Libraries) == 0 {
		return errors.New("no libraries listed")
	}
	seen := make(map[string]bool, len(s.Libraries))
	for i, lib := range s.Libraries {
		switch {
		case lib.Sample == "":
			return fmt.Errorf("library %d: sample is required", i)
		case lib.Name == "":
			return fmt.Errorf("library %d: library_name is required", i)
		case lib.RunID == "":
			return fmt.Errorf("library %s: run_id is required", lib.Name)
		case lib.Panel == "":
			return fmt.Errorf("library %s: panel is required", lib.Name)
		}
		key := lib.Sample + "\x00" + lib.Name + "\x00" + lib.RunID
		if seen[key] {
			return fmt.Errorf("library %s of sample %s in run %s listed twice", lib.Name, lib.Sample, lib.RunID)
		}
		seen[key] = true
	}
	return nil
}

// Samples groups the sheet's libraries by sample name.
func (s SamplesSheet) Samples() []cohort.Sample {
	groups := lo.GroupBy(s.Libraries, func(lib cohort.Library) string { return lib.Sample })
	names := lo.Uniq(lo.Map(s.Libraries, func(lib cohort.Library, _ int) string { return lib.Sample }))
	return lo.Map(names, func(name string, _ int) cohort.Sample {
		return cohort.Sample{Name: name, Libraries: groups[name]}
	})
}
