package engine

// basePointsTable ranks question types by intrinsic difficulty. Finding
// a country on the map pays the most; straight identity questions the
// least. The placeholder type is absent on purpose and scores zero.
var basePointsTable = map[QuestionType]int{
	TypeMapTap:           150,
	TypeSilhouetteMCQ:    130,
	TypeCoastlineMCQ:     130,
	TypeLandmarkPhotoMCQ: 130,
	TypeSubregionOutlier: 125,
	TypePopulationRank:   125,
	TypeNeighborCountMCQ: 120,
	TypePopulationTier:   115,
	TypeGDPTier:          115,
	TypeExportsMCQ:       115,
	TypeUNESCOMCQ:        115,
	TypePopulationPair:   110,
	TypeAreaPair:         110,
	TypeRiverMCQ:         110,
	TypePeakMCQ:          110,
	TypeRangeMCQ:         110,
	TypeNeighborMCQ:      110,
	TypePopulationMore:   105,
	TypeCurrencyMCQ:      105,
	TypeCityMCQ:          105,
	TypeLanguageMCQ:      105,
	TypeFlagColorsMCQ:    105,
	TypeRegionMCQ:        100,
	TypeLandlockedMCQ:    100,
	TypeFlagMatch:        100,
	TypeCapitalMCQ:       100,
}

// BasePoints returns the unmultiplied score for a question type.
func BasePoints(t QuestionType) int {
	return basePointsTable[t]
}
