package catalog

// Currency is one currency in circulation in a country.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Peak is a country's highest point.
type Peak struct {
	Name      string  `json:"name"`
	Elevation float64 `json:"elevation_m"`
}

// GDP is a nominal GDP figure with its reference year.
type GDP struct {
	Value float64 `json:"value_usd"`
	Year  int     `json:"year"`
}

// Country is one record of the merged geography dataset. Records are
// produced by the offline data pipeline and are read-only at runtime.
type Country struct {
	Code            string     `json:"code"`  // ISO 3166-1 alpha-2
	Code3           string     `json:"code3"` // ISO 3166-1 alpha-3
	Name            string     `json:"name"`
	Capitals        []string   `json:"capitals"`
	Region          string     `json:"region"`
	Subregion       string     `json:"subregion"`
	Population      int64      `json:"population"`
	AreaKm2         float64    `json:"area_km2"`
	Landlocked      bool       `json:"landlocked"`
	Currencies      []Currency `json:"currencies"`
	Languages       []string   `json:"languages"`
	Borders         []string   `json:"borders"` // alpha-3 codes of neighbors
	Cities          []string   `json:"cities"`
	Rivers          []string   `json:"rivers"`
	Peak            *Peak      `json:"highest_peak,omitempty"`
	Ranges          []string   `json:"mountain_ranges,omitempty"`
	PhysicalRegions []string   `json:"physical_regions,omitempty"`
	FlagAsset       string     `json:"flag_asset"`
	GDP             *GDP       `json:"gdp,omitempty"`
	Exports         []string   `json:"top_exports,omitempty"`
	UNESCOSites     []string   `json:"unesco_sites,omitempty"`
	Landmarks       []string   `json:"landmark_assets,omitempty"`
}

// FameScore orders countries from well-known to obscure. Population
// dominates; area breaks up the long tail of small-population states.
func (c *Country) FameScore() float64 {
	return float64(c.Population) + c.AreaKm2/10
}
