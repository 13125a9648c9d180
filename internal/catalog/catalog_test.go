package catalog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []Country {
	return []Country{
		{
			Code: "CN", Code3: "CHN", Name: "China", Region: "Asia", Subregion: "Eastern Asia",
			Population: 1_410_000_000, AreaKm2: 9_596_960,
			GDP: &GDP{Value: 17_960_000_000_000, Year: 2022},
		},
		{
			Code: "IN", Code3: "IND", Name: "India", Region: "Asia", Subregion: "Southern Asia",
			Population: 1_410_000_000, AreaKm2: 3_287_263,
			GDP: &GDP{Value: 3_390_000_000_000, Year: 2022},
		},
		{
			Code: "MC", Code3: "MCO", Name: "Monaco", Region: "Europe", Subregion: "Western Europe",
			Population: 36_000, AreaKm2: 2.02,
			Borders: []string{"FRA"},
		},
		{
			Code: "FR", Code3: "FRA", Name: "France", Region: "Europe", Subregion: "Western Europe",
			Population: 68_000_000, AreaKm2: 551_695,
			Borders: []string{"MCO", "ESP", "XXX"},
			GDP:     &GDP{Value: 2_780_000_000_000, Year: 2022},
		},
	}
}

func TestNewDropsIncompleteAndDuplicateRecords(t *testing.T) {
	records := append(testRecords(),
		Country{Code: "", Name: "Nowhere"},
		Country{Code: "ZZ", Name: ""},
		Country{Code: "FR", Code3: "FRA", Name: "France Again", Population: 1},
	)

	c := New(records, zerolog.Nop())

	assert.Equal(t, 4, c.Len())
	fr, ok := c.Get("FR")
	require.True(t, ok)
	assert.Equal(t, "France", fr.Name, "first occurrence wins")
}

func TestGetResolvesBothCodeForms(t *testing.T) {
	c := New(testRecords(), zerolog.Nop())

	byTwo, ok := c.Get("mc")
	require.True(t, ok)
	byThree, ok := c.Get("MCO")
	require.True(t, ok)
	assert.Same(t, byTwo, byThree)

	_, ok = c.Get("XX")
	assert.False(t, ok)
}

func TestPopulationRankBreaksTiesByInputOrder(t *testing.T) {
	c := New(testRecords(), zerolog.Nop())

	// China and India tie on population; China appears first in the input.
	cnRank, ok := c.PopulationRank("CN")
	require.True(t, ok)
	inRank, ok := c.PopulationRank("IN")
	require.True(t, ok)

	assert.Equal(t, 1, cnRank)
	assert.Equal(t, 2, inRank)

	frRank, _ := c.PopulationRank("FR")
	mcRank, _ := c.PopulationRank("MC")
	assert.Equal(t, 3, frRank)
	assert.Equal(t, 4, mcRank)
}

func TestGDPRankSkipsCountriesWithoutFigures(t *testing.T) {
	c := New(testRecords(), zerolog.Nop())

	rank, ok := c.GDPRank("CN")
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	_, ok = c.GDPRank("MC")
	assert.False(t, ok, "Monaco has no GDP figure in the fixture")
}

func TestNeighborsResolvesOnlyKnownBorders(t *testing.T) {
	c := New(testRecords(), zerolog.Nop())

	fr, _ := c.Get("FR")
	neighbors := c.Neighbors(fr)

	// ESP and XXX are absent from the fixture catalog.
	require.Len(t, neighbors, 1)
	assert.Equal(t, "MC", neighbors[0].Code)

	assert.Nil(t, c.Neighbors(nil))
}

func TestRegionsAndGrouping(t *testing.T) {
	c := New(testRecords(), zerolog.Nop())

	assert.Equal(t, []string{"Asia", "Europe"}, c.Regions())

	grouped := c.CodesByRegion()
	assert.ElementsMatch(t, []string{"CN", "IN"}, grouped["Asia"])
	assert.ElementsMatch(t, []string{"MC", "FR"}, grouped["Europe"])
}

func TestFameScoreOrdersPopulationFirst(t *testing.T) {
	big := Country{Population: 1_000_000, AreaKm2: 100}
	small := Country{Population: 50_000, AreaKm2: 2_000_000}

	assert.Greater(t, big.FameScore(), small.FameScore())
}
