package engine

import (
	"math"

	"github.com/mapstreak/geoquiz/internal/catalog"
)

// minWindowSize guarantees every level can draw from enough distinct
// countries to avoid starving the selector.
const minWindowSize = 10

// band maps a level range onto a fractional slice of a fame-sorted pool.
// Early bands take a narrow famous prefix; later bands widen and shift
// toward the obscure tail; the last band covers everything.
type band struct {
	maxLevel  int
	startFrac float64
	endFrac   float64
}

var difficultyBands = []band{
	{maxLevel: 3, startFrac: 0, endFrac: 0.15},
	{maxLevel: 7, startFrac: 0, endFrac: 0.35},
	{maxLevel: 15, startFrac: 0.20, endFrac: 0.60},
	{maxLevel: 30, startFrac: 0.40, endFrac: 1},
	{maxLevel: math.MaxInt, startFrac: 0, endFrac: 1},
}

func bandIndexForLevel(level int) int {
	for i, b := range difficultyBands {
		if level <= b.maxLevel {
			return i
		}
	}
	return len(difficultyBands) - 1
}

// windowForLevel slices a fame-sorted pool down to the countries in play
// at the given level. The window always holds at least
// min(minWindowSize, len(pool)) entries.
func windowForLevel(pool []*catalog.Country, level int) []*catalog.Country {
	n := len(pool)
	if n == 0 {
		return nil
	}

	b := difficultyBands[bandIndexForLevel(level)]
	start := int(float64(n) * b.startFrac)
	end := int(math.Ceil(float64(n) * b.endFrac))
	if end > n {
		end = n
	}

	floor := minWindowSize
	if floor > n {
		floor = n
	}
	if end-start < floor {
		start = end - floor
		if start < 0 {
			start = 0
			end = floor
		}
	}
	return pool[start:end]
}

// typeUnlocks is the level each question type becomes available. The
// set only ever grows with level: identity types first, geometry and
// comparisons next, detail and reasoning later, visual recognition last.
var typeUnlocks = []struct {
	level int
	types []QuestionType
}{
	{1, []QuestionType{TypeFlagMatch, TypeCapitalMCQ}},
	{2, []QuestionType{TypeMapTap, TypeRegionMCQ}},
	{3, []QuestionType{TypePopulationPair, TypeAreaPair, TypePopulationMore}},
	{4, []QuestionType{TypeCurrencyMCQ, TypeCityMCQ, TypeLanguageMCQ}},
	{5, []QuestionType{TypeNeighborMCQ, TypeLandlockedMCQ}},
	{6, []QuestionType{TypeRiverMCQ, TypePeakMCQ, TypeRangeMCQ, TypeFlagColorsMCQ}},
	{8, []QuestionType{TypePopulationTier, TypeGDPTier, TypeExportsMCQ, TypeUNESCOMCQ}},
	{10, []QuestionType{TypeSubregionOutlier, TypeNeighborCountMCQ, TypePopulationRank}},
	{12, []QuestionType{TypeSilhouetteMCQ, TypeCoastlineMCQ, TypeLandmarkPhotoMCQ}},
}

// typesForLevel returns the unlocked question types in unlock order.
func typesForLevel(level int) []QuestionType {
	var out []QuestionType
	for _, u := range typeUnlocks {
		if level < u.level {
			break
		}
		out = append(out, u.types...)
	}
	return out
}

// TypesForLevel exposes the unlock set for summary endpoints.
func TypesForLevel(level int) []QuestionType {
	return typesForLevel(level)
}
