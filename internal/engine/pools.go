package engine

import (
	"sort"

	"github.com/mapstreak/geoquiz/internal/catalog"
	"github.com/mapstreak/geoquiz/internal/geo"
)

// Dataset is an immutable snapshot of everything the engine draws
// questions from. A dataset refresh builds a new snapshot and swaps it
// in whole; pools are always derived from the catalog and geometry they
// ship with.
type Dataset struct {
	Version int64
	Catalog *catalog.Catalog
	Borders *geo.Index
	Rivers  *geo.RiverIndex
	Pools   *PoolSet
}

// NewDataset derives the per-type pools and bundles the snapshot.
func NewDataset(version int64, cat *catalog.Catalog, borders *geo.Index, rivers *geo.RiverIndex) *Dataset {
	return &Dataset{
		Version: version,
		Catalog: cat,
		Borders: borders,
		Rivers:  rivers,
		Pools:   buildPools(cat, borders),
	}
}

// PoolSet holds one fame-sorted candidate pool per question type.
type PoolSet struct {
	pools map[QuestionType][]*catalog.Country
}

// Pool returns the candidates qualifying for a question type, sorted
// from famous to obscure. Callers must not mutate the slice.
func (p *PoolSet) Pool(t QuestionType) []*catalog.Country {
	return p.pools[t]
}

// Size reports the pool length for a question type.
func (p *PoolSet) Size(t QuestionType) int {
	return len(p.pools[t])
}

// qualifies reports whether a country has the fields a question type
// needs. Geometry-dependent types consult the border index, so a missing
// geometry load leaves those pools empty and the types starved rather
// than failing.
func qualifies(t QuestionType, c *catalog.Country, cat *catalog.Catalog, borders *geo.Index) bool {
	switch t {
	case TypeMapTap, TypeSilhouetteMCQ:
		return borders != nil && borders.Has(c.Code)
	case TypeCoastlineMCQ:
		return borders != nil && borders.Has(c.Code) && !c.Landlocked
	case TypeFlagMatch, TypeFlagColorsMCQ:
		return c.FlagAsset != ""
	case TypeCapitalMCQ:
		return len(c.Capitals) > 0 && c.Capitals[0] != ""
	case TypeCurrencyMCQ:
		return len(c.Currencies) > 0 && c.Currencies[0].Code != ""
	case TypeCityMCQ:
		return len(c.Cities) > 0 && c.Cities[0] != ""
	case TypeRiverMCQ:
		return len(c.Rivers) > 0 && c.Rivers[0] != ""
	case TypeLanguageMCQ:
		return len(c.Languages) > 0 && c.Languages[0] != ""
	case TypePeakMCQ:
		return c.Peak != nil && c.Peak.Name != ""
	case TypeRangeMCQ:
		return len(c.Ranges) > 0 && c.Ranges[0] != ""
	case TypeRegionMCQ:
		return len(c.PhysicalRegions) > 0 && c.PhysicalRegions[0] != ""
	case TypeNeighborMCQ:
		return len(cat.Neighbors(c)) > 0
	case TypeNeighborCountMCQ, TypeLandlockedMCQ:
		return true
	case TypePopulationMore, TypePopulationPair:
		return c.Population > 0
	case TypeAreaPair:
		return c.AreaKm2 > 0
	case TypeSubregionOutlier:
		return c.Region != "" && c.Subregion != ""
	case TypePopulationRank:
		return c.Population > 0 && c.Region != ""
	case TypePopulationTier:
		return c.Population > 0
	case TypeGDPTier:
		return c.GDP != nil && c.GDP.Value > 0
	case TypeExportsMCQ:
		return len(c.Exports) > 0 && c.Exports[0] != ""
	case TypeUNESCOMCQ:
		return len(c.UNESCOSites) > 0 && c.UNESCOSites[0] != ""
	case TypeLandmarkPhotoMCQ:
		return len(c.Landmarks) > 0 && c.Landmarks[0] != ""
	default:
		return false
	}
}

func buildPools(cat *catalog.Catalog, borders *geo.Index) *PoolSet {
	set := &PoolSet{pools: make(map[QuestionType][]*catalog.Country, len(AllTypes))}
	all := cat.All()
	for _, t := range AllTypes {
		pool := make([]*catalog.Country, 0, len(all))
		for _, c := range all {
			if qualifies(t, c, cat, borders) {
				pool = append(pool, c)
			}
		}
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].FameScore() > pool[j].FameScore()
		})
		set.pools[t] = pool
	}
	return set
}
