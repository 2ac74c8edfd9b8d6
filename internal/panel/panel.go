// Package panel resolves panel identifiers to their target regions from
// definitions on disk.
//
// A panel id such as "onco/core" names either a YAML definition at
// <root>/onco/core.yaml:
//
//	name: Core oncology
//	regions:
//	  - BRAF_ex15
//	  - KRAS_ex2
//
// or a plain list at <root>/onco/core with one region per line. Blank lines
// and lines starting with '#' are ignored in plain lists.
package panel

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
	"github.com/banshee-data/cohort-tiering/internal/security"
)

// maxPanelSize guards against reading something that is not a panel.
const maxPanelSize = 1 << 20

// Definition is the YAML form of a panel.
type Definition struct {
	Name    string   `yaml:"name"`
	Regions []string `yaml:"regions"`
}

// FileResolver reads panel definitions below a root directory. Resolved
// panels are cached for the life of the resolver.
type FileResolver struct {
	root string

	mu    sync.Mutex
	cache map[string]cohort.RegionSet
}

var _ cohort.PanelResolver = (*FileResolver)(nil)

// NewFileResolver creates a resolver rooted at root.
func NewFileResolver(root string) *FileResolver {
	return &FileResolver{root: root, cache: make(map[string]cohort.RegionSet)}
}

// Resolve returns the target regions of panelID. Unknown, unreadable or
// empty panels yield cohort.ErrMalformedPanelReference.
func (r *FileResolver) Resolve(ctx context.Context, panelID string) (cohort.RegionSet, error) {
	if err := ctx.Err(); err != nil {
		return cohort.RegionSet{}, err
	}

	r.mu.Lock()
	set, ok := r.cache[panelID]
	r.mu.Unlock()
	if ok {
		return set, nil
	}

	set, err := r.load(panelID)
	if err != nil {
		return cohort.RegionSet{}, fmt.Errorf("panel %q: %w", panelID, err)
	}

	r.mu.Lock()
	r.cache[panelID] = set
	r.mu.Unlock()
	return set, nil
}

func (r *FileResolver) load(panelID string) (cohort.RegionSet, error) {
	clean := path.Clean(panelID)
	if panelID == "" || clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return cohort.RegionSet{}, fmt.Errorf("%w: invalid identifier", cohort.ErrMalformedPanelReference)
	}
	base := filepath.Join(r.root, filepath.FromSlash(clean))

	if data, err := r.readCandidate(base + ".yaml"); err == nil {
		return parseYAML(data)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return cohort.RegionSet{}, err
	}

	data, err := r.readCandidate(base)
	if errors.Is(err, fs.ErrNotExist) {
		return cohort.RegionSet{}, fmt.Errorf("%w: no definition under %s", cohort.ErrMalformedPanelReference, r.root)
	}
	if err != nil {
		return cohort.RegionSet{}, err
	}
	return parseList(data)
}

// readCandidate reads p once it is known to resolve inside the panel root.
func (r *FileResolver) readCandidate(p string) ([]byte, error) {
	if err := security.ValidatePathWithinDirectory(p, r.root); err != nil {
		return nil, fmt.Errorf("%w: %w", cohort.ErrMalformedPanelReference, err)
	}
	return readPanelFile(p)
}

func readPanelFile(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	if info.Size() > maxPanelSize {
		return nil, fmt.Errorf("%w: %s is too large (%d bytes)", cohort.ErrMalformedPanelReference, p, info.Size())
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cohort.ErrMalformedPanelReference, err)
	}
	return data, nil
}

func parseYAML(data []byte) (cohort.RegionSet, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return cohort.RegionSet{}, fmt.Errorf("%w: %w", cohort.ErrMalformedPanelReference, err)
	}
	return nonEmpty(cohort.NewRegionSet(def.Regions...))
}

func parseList(data []byte) (cohort.RegionSet, error) {
	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return cohort.RegionSet{}, fmt.Errorf("%w: %w", cohort.ErrMalformedPanelReference, err)
	}
	return nonEmpty(cohort.NewRegionSet(ids...))
}

func nonEmpty(set cohort.RegionSet) (cohort.RegionSet, error) {
	if set.Len() == 0 {
		return cohort.RegionSet{}, fmt.Errorf("%w: no regions", cohort.ErrMalformedPanelReference)
	}
	return set, nil
}
