package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStage_KnownPoints(t *testing.T) {
	cases := []struct {
		name      string
		revenue   float64
		headcount float64
		want      int
		wantName  string
	}{
		{"empty business", 0, 0, 0, "Improvise"},
		{"first sales", 50_000, 1, 1, "Monetize"},
		{"small team", 300_000, 3, 2, "Advertise"},
		{"picklist midpoint", 375_000, 7, 2, "Advertise"},
		{"departments", 50_000_000, 375, 7, "Categorize"},
		{"large enterprise", 150_000_000, 375, 9, "Capitalize"},
		{"contradictory negatives", -5, -5, 2, "Advertise"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveStage(tc.revenue, tc.headcount)
			assert.Equal(t, tc.want, got.Stage)
			assert.Equal(t, tc.wantName, got.Name)
		})
	}
}

func TestResolveStage_Totality(t *testing.T) {
	values := []float64{0, -1, -1e12, 1, 1e15, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, r := range values {
		for _, h := range values {
			got := ResolveStage(r, h)
			assert.GreaterOrEqual(t, got.Stage, 0)
			assert.LessOrEqual(t, got.Stage, 9)
		}
	}
}

func TestResolveStageOptional_MissingIsZero(t *testing.T) {
	assert.Equal(t, 0, ResolveStageOptional(nil, nil).Stage)

	rev := 150_000_000.0
	hc := 375.0
	assert.Equal(t, 9, ResolveStageOptional(&rev, &hc).Stage)
}

func TestResolveStage_SingleDimensionMatch(t *testing.T) {
	got := ResolveStage(2_000_000, 1_000_000)
	assert.Equal(t, 3, got.Stage)
}

func TestStages_ReturnsCopy(t *testing.T) {
	all := Stages()
	require.Len(t, all, 10)
	for i, s := range all {
		assert.Equal(t, i, s.Stage)
	}

	all[0].Name = "mutated"
	all[0].ConstraintsAndActions[0] = "mutated"
	fresh, ok := StageByIndex(0)
	require.True(t, ok)
	assert.Equal(t, "Improvise", fresh.Name)
	assert.NotEqual(t, "mutated", fresh.ConstraintsAndActions[0])

	_, ok = StageByIndex(10)
	assert.False(t, ok)
}

func TestStages_MonotonicRanges(t *testing.T) {
	all := Stages()
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i].RevenueMin, all[i-1].RevenueMin, "stage %d revenue", i)
		assert.GreaterOrEqual(t, all[i].HeadcountMin, all[i-1].HeadcountMin, "stage %d headcount", i)
	}
}

func TestBusinessStage_JSONUnboundedRevenue(t *testing.T) {
	top, _ := StageByIndex(9)
	raw, err := json.Marshal(top)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["revenue_max"])
	assert.Equal(t, "≥100M", decoded["revenue_range"])
	assert.Equal(t, "Capitalize", decoded["name"])

	mid, _ := StageByIndex(3)
	raw, err = json.Marshal(mid)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 3_000_000.0, decoded["revenue_max"])
}
