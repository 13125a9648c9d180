package catalog

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Catalog holds the enriched country set with O(1) code lookup and the
// rank tables tier questions depend on. Built once per dataset load.
type Catalog struct {
	countries []*Country
	byCode    map[string]*Country
	byCode3   map[string]*Country
	popRank   map[string]int
	gdpRank   map[string]int
}

// New indexes the raw country array. Records without a code or name are
// dropped with a warning; duplicates keep the first occurrence.
func New(records []Country, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		byCode:  make(map[string]*Country, len(records)),
		byCode3: make(map[string]*Country, len(records)),
		popRank: make(map[string]int),
		gdpRank: make(map[string]int),
	}

	for i := range records {
		rec := records[i]
		rec.Code = strings.ToUpper(strings.TrimSpace(rec.Code))
		rec.Code3 = strings.ToUpper(strings.TrimSpace(rec.Code3))
		if rec.Code == "" || rec.Name == "" {
			logger.Warn().Str("code", rec.Code).Str("name", rec.Name).Msg("dropping incomplete country record")
			continue
		}
		if _, exists := c.byCode[rec.Code]; exists {
			logger.Warn().Str("code", rec.Code).Msg("dropping duplicate country record")
			continue
		}
		stored := &rec
		c.countries = append(c.countries, stored)
		c.byCode[rec.Code] = stored
		if rec.Code3 != "" {
			c.byCode3[rec.Code3] = stored
		}
	}

	c.buildRankTables()
	logger.Info().Int("countries", len(c.countries)).Msg("country catalog built")
	return c
}

// buildRankTables assigns 1-based descending ranks. Ties keep input order
// via stable sort over the original indices.
func (c *Catalog) buildRankTables() {
	type ranked struct {
		code  string
		value float64
	}

	byPop := make([]ranked, 0, len(c.countries))
	byGDP := make([]ranked, 0, len(c.countries))
	for _, rec := range c.countries {
		if rec.Population > 0 {
			byPop = append(byPop, ranked{code: rec.Code, value: float64(rec.Population)})
		}
		if rec.GDP != nil && rec.GDP.Value > 0 {
			byGDP = append(byGDP, ranked{code: rec.Code, value: rec.GDP.Value})
		}
	}

	sort.SliceStable(byPop, func(i, j int) bool { return byPop[i].value > byPop[j].value })
	sort.SliceStable(byGDP, func(i, j int) bool { return byGDP[i].value > byGDP[j].value })

	for i, r := range byPop {
		c.popRank[r.code] = i + 1
	}
	for i, r := range byGDP {
		c.gdpRank[r.code] = i + 1
	}
}

// Get resolves a country by alpha-2 or alpha-3 code.
func (c *Catalog) Get(code string) (*Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if rec, ok := c.byCode[code]; ok {
		return rec, true
	}
	rec, ok := c.byCode3[code]
	return rec, ok
}

// All returns every record in input order. Callers must not mutate.
func (c *Catalog) All() []*Country {
	return c.countries
}

// Len reports the number of indexed countries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.countries)
}

// PopulationRank returns the 1-based population rank, when known.
func (c *Catalog) PopulationRank(code string) (int, bool) {
	rank, ok := c.popRank[strings.ToUpper(code)]
	return rank, ok
}

// GDPRank returns the 1-based GDP rank, when known.
func (c *Catalog) GDPRank(code string) (int, bool) {
	rank, ok := c.gdpRank[strings.ToUpper(code)]
	return rank, ok
}

// Neighbors resolves a country's border codes against the catalog,
// skipping entries that do not resolve.
func (c *Catalog) Neighbors(rec *Country) []*Country {
	if rec == nil || len(rec.Borders) == 0 {
		return nil
	}
	out := make([]*Country, 0, len(rec.Borders))
	for _, border := range rec.Borders {
		if n, ok := c.Get(border); ok && n.Code != rec.Code {
			out = append(out, n)
		}
	}
	return out
}

// Regions lists the distinct continent-level regions in sorted order.
func (c *Catalog) Regions() []string {
	seen := make(map[string]struct{})
	for _, rec := range c.countries {
		if rec.Region != "" {
			seen[rec.Region] = struct{}{}
		}
	}
	regions := make([]string, 0, len(seen))
	for region := range seen {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// CodesByRegion groups country codes per region for summary views.
func (c *Catalog) CodesByRegion() map[string][]string {
	out := make(map[string][]string)
	for _, rec := range c.countries {
		if rec.Region == "" {
			continue
		}
		out[rec.Region] = append(out[rec.Region], rec.Code)
	}
	return out
}
