// Package report writes the per-sample bundles handed to downstream
// reporting.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
	"github.com/banshee-data/cohort-tiering/internal/fsutil"
	"github.com/banshee-data/cohort-tiering/internal/monitoring"
	"github.com/banshee-data/cohort-tiering/internal/security"
	"github.com/banshee-data/cohort-tiering/internal/version"
)

// ErrBundleCollision is returned when distinct sample names share a bundle
// file name.
var ErrBundleCollision = errors.New("bundle file name collision")

// Bundle is the file written for one sample.
type Bundle struct {
	RunID         string               `json:"run_id"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	Version       string               `json:"version"`
	GenomeVersion string               `json:"genome_version"`
	Thresholds    cohort.Thresholds    `json:"thresholds"`
	Report        *cohort.SampleReport `json:"report"`
}

// Writer writes bundles below Dir.
type Writer struct {
	FS            fsutil.FileSystem
	Dir           string
	GenomeVersion string
}

// NewWriter returns a Writer on the real filesystem.
func NewWriter(dir, genomeVersion string) *Writer {
	return &Writer{FS: fsutil.OSFileSystem{}, Dir: dir, GenomeVersion: genomeVersion}
}

// Path is where the bundle of sample is written.
func (w *Writer) Path(sample string) string {
	return filepath.Join(w.Dir, security.SanitizeFilename(sample)+".json")
}

// Write writes one bundle per successful sample. Failed samples are
// reported together once every other bundle is on disk. Nothing is written
// when two samples would share a file.
func (w *Writer) Write(res *cohort.RunResult) error {
	if err := w.checkCollisions(res); err != nil {
		return err
	}
	if err := w.FS.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, o := range res.Samples {
		if o.Err != nil {
			continue
		}
		bundle := Bundle{
			RunID:         res.RunID,
			StartedAt:     res.StartedAt,
			FinishedAt:    res.FinishedAt,
			Version:       version.Version,
			GenomeVersion: w.GenomeVersion,
			Thresholds:    res.Thresholds,
			Report:        o.Report,
		}
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", o.Sample, err)
		}
		path := w.Path(o.Sample)
		if err := w.FS.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		monitoring.Logf("wrote %s", path)
	}

	if failed := res.Failed(); len(failed) > 0 {
		for _, o := range failed {
			monitoring.Logf("sample %s: %v", o.Sample, o.Err)
		}
		return fmt.Errorf("%d of %d samples failed", len(failed), len(res.Samples))
	}
	return nil
}

// checkCollisions rejects runs in which two successful samples map to the
// same bundle file.
func (w *Writer) checkCollisions(res *cohort.RunResult) error {
	owners := make(map[string]string)
	for _, o := range res.Samples {
		if o.Err != nil {
			continue
		}
		path := w.Path(o.Sample)
		if prev, ok := owners[path]; ok {
			return fmt.Errorf("%w: samples %q and %q both map to %s", ErrBundleCollision, prev, o.Sample, path)
		}
		owners[path] = o.Sample
	}
	return nil
}

// Read loads a bundle written by Write.
func Read(fsys fsutil.FileSystem, path string) (*Bundle, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &b, nil
}
