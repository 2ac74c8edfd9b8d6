package cohort

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// UnassignedRegionKey is the off-target diagnostic key for observations
// with no region assignment.
const UnassignedRegionKey = "unassigned"

// RegionAssignment is the parsed set of regions an annotation placed a
// variant in. An assignment with no ids is unassigned.
type RegionAssignment struct {
	IDs []string `json:"ids,omitempty"`
}

// Assigned builds an assignment from explicit region ids.
func Assigned(ids ...string) RegionAssignment {
	return RegionAssignment{IDs: NewRegionSet(ids...).IDs()}
}

// ParseRegionField parses the stored region field: a single id, a
// comma-joined list, or one of the legacy "no region" markers ("", "None",
// "unassigned"), which parse to an unassigned value.
func ParseRegionField(raw string) RegionAssignment {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "None", UnassignedRegionKey:
		return RegionAssignment{}
	}
	return Assigned(strings.Split(raw, ",")...)
}

// UnmarshalJSON accepts either the object form {"ids": [...]} or the raw
// region field as written by the annotation pipeline, e.g. "A,B" or
// "unassigned".
func (a *RegionAssignment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = RegionAssignment{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: regions: %w", ErrMalformedAnnotation, err)
		}
		*a = ParseRegionField(raw)
		return nil
	}
	type plain RegionAssignment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: regions: %w", ErrMalformedAnnotation, err)
	}
	*a = Assigned(p.IDs...)
	return nil
}

// Unassigned reports whether no region was assigned.
func (a RegionAssignment) Unassigned() bool { return len(a.IDs) == 0 }

// Key is the diagnostic key used for off-target tallies and the storage
// form of the assignment.
func (a RegionAssignment) Key() string {
	if a.Unassigned() {
		return UnassignedRegionKey
	}
	return strings.Join(a.IDs, ",")
}

// Placement is the outcome of region assignment for one observation.
type Placement struct {
	OnTarget bool
	// Regions holds every candidate region when on target.
	Regions []string
	// Key identifies the raw assignment for off-target diagnostics.
	Key string
}

// AssignRegion places an observation on target when any of its candidate
// regions is in targets. Unassigned observations are always off target.
func AssignRegion(a RegionAssignment, targets RegionSet) Placement {
	p := Placement{Key: a.Key()}
	if a.Unassigned() {
		return p
	}
	if lo.ContainsBy(a.IDs, targets.Contains) {
		p.OnTarget = true
		p.Regions = append([]string(nil), a.IDs...)
	}
	return p
}
