package cohort

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegionField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw        string
		want       []string
		unassigned bool
		key        string
	}{
		{"", nil, true, "unassigned"},
		{"None", nil, true, "unassigned"},
		{"unassigned", nil, true, "unassigned"},
		{"  unassigned ", nil, true, "unassigned"},
		{"TP53_ex8", []string{"TP53_ex8"}, false, "TP53_ex8"},
		{"TP53_ex8,TP53_ex9", []string{"TP53_ex8", "TP53_ex9"}, false, "TP53_ex8,TP53_ex9"},
		{"A, B,,A", []string{"A", "B"}, false, "A,B"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got := ParseRegionField(tt.raw)
			assert.Equal(t, tt.want, got.IDs)
			assert.Equal(t, tt.unassigned, got.Unassigned())
			assert.Equal(t, tt.key, got.Key())
		})
	}
}

func TestAssignRegion(t *testing.T) {
	t.Parallel()
	targets := NewRegionSet("A", "B")

	tests := []struct {
		name     string
		raw      string
		onTarget bool
		regions  []string
		key      string
	}{
		{"unassigned", "unassigned", false, nil, "unassigned"},
		{"legacy none", "None", false, nil, "unassigned"},
		{"single hit", "A", true, []string{"A"}, "A"},
		{"one of several", "C,B", true, []string{"C", "B"}, "C,B"},
		{"miss", "C,D", false, nil, "C,D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := AssignRegion(ParseRegionField(tt.raw), targets)
			assert.Equal(t, tt.onTarget, p.OnTarget)
			assert.Equal(t, tt.regions, p.Regions)
			assert.Equal(t, tt.key, p.Key)
		})
	}
}

func TestRegionSet(t *testing.T) {
	t.Parallel()
	s := NewRegionSet("KRAS_ex2", " ", "BRAF_ex15", "KRAS_ex2")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"KRAS_ex2", "BRAF_ex15"}, s.IDs())
	assert.True(t, s.Contains("BRAF_ex15"))
	assert.False(t, s.Contains("EGFR_ex19"))

	ids := s.IDs()
	ids[0] = "changed"
	assert.Equal(t, "KRAS_ex2", s.IDs()[0], "IDs returns a copy")

	var zero RegionSet
	assert.False(t, zero.Contains("A"))
	assert.Zero(t, zero.Len())
}

func TestRegionAssignment_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"object", `{"ids":["A","B"]}`, []string{"A", "B"}},
		{"raw list", `"A,B"`, []string{"A", "B"}},
		{"raw single", `"BRAF_ex15"`, []string{"BRAF_ex15"}},
		{"raw unassigned", `"unassigned"`, nil},
		{"raw legacy none", `"None"`, nil},
		{"raw empty", `""`, nil},
		{"null", `null`, nil},
		{"empty object", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var a RegionAssignment
			require.NoError(t, json.Unmarshal([]byte(tt.in), &a))
			if tt.want == nil {
				assert.True(t, a.Unassigned())
				assert.Equal(t, UnassignedRegionKey, a.Key())
				return
			}
			assert.Equal(t, tt.want, a.IDs)
		})
	}
}

func TestRegionAssignment_UnmarshalInObservation(t *testing.T) {
	t.Parallel()
	var obs VariantObservation
	require.NoError(t, json.Unmarshal([]byte(`{"sample":"S1","regions":"KRAS_ex2,BRAF_ex15"}`), &obs))
	assert.Equal(t, []string{"KRAS_ex2", "BRAF_ex15"}, obs.Regions.IDs)

	err := json.Unmarshal([]byte(`{"regions":42}`), &obs)
	assert.ErrorIs(t, err, ErrMalformedAnnotation)
}
