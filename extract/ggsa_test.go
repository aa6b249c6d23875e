package extract

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/agrodash/pizarra/models"
)

func decodeObject(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestGrains_MixesValuesAndFallbacks(t *testing.T) {
	spot := decodeObject(t, `{
		"soja":  {"rosario": "$410.000", "quequen": "$400.000"},
		"trigo": {"rosario": ""},
		"maiz":  {"rosario": 0},
		"sorgo": {"rosario": 185.5}
	}`)
	board := FirstBoard(decodeObject(t, `{"pizarra": [
		{"soja": {"rosario": "$405.000"}, "girasol": {"rosario": null}},
		{"soja": {"rosario": "ignored"}}
	]}`))

	got := Grains(spot, board)
	want := models.GrainsResponse{
		Soy:       models.GrainPrices{Spot: "$410.000", Board: "$405.000"},
		Wheat:     models.GrainPrices{Spot: "u$s 202 c/desc", Board: BoardFallback},
		Corn:      models.GrainPrices{Spot: "u$s 172 c/desc", Board: BoardFallback},
		Sorghum:   models.GrainPrices{Spot: 185.5, Board: BoardFallback},
		Sunflower: models.GrainPrices{Spot: "u$s 202 c/desc", Board: BoardFallback},
		Source:    GrainsURL,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Grains() mismatch (-want +got):\n%s", diff)
	}
}

func TestGrains_NothingFetched(t *testing.T) {
	got := Grains(nil, nil)

	require.Equal(t, "$390.000", got.Soy.Spot)
	require.Equal(t, "u$s 175 c/desc", got.Sorghum.Spot)
	require.Equal(t, BoardFallback, got.Sunflower.Board)
	require.Equal(t, GrainsURL, got.Source)
}

func TestFirstBoard(t *testing.T) {
	require.Nil(t, FirstBoard(nil))
	require.Nil(t, FirstBoard(decodeObject(t, `{"pizarra": []}`)))
	require.Nil(t, FirstBoard(decodeObject(t, `{"pizarra": "n/d"}`)))
	require.Nil(t, FirstBoard(decodeObject(t, `{"pizarra": ["x"]}`)))
	require.NotNil(t, FirstBoard(decodeObject(t, `{"pizarra": [{}]}`)))
}

func TestTruthy(t *testing.T) {
	require.False(t, truthy(nil))
	require.False(t, truthy(""))
	require.False(t, truthy(float64(0)))
	require.False(t, truthy(false))
	require.True(t, truthy("0"))
	require.True(t, truthy(1.5))
	require.True(t, truthy(true))
	require.True(t, truthy(map[string]any{}))
}
