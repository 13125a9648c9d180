package engine

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/catalog"
	"github.com/mapstreak/geoquiz/internal/geo"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func euro() []catalog.Currency {
	return []catalog.Currency{{Code: "EUR", Name: "Euro"}}
}

// testCountries is a small but fully attributed dataset spanning three
// regions, five subregions, and every field the builders touch.
func testCountries() []catalog.Country {
	return []catalog.Country{
		{
			Code: "FR", Code3: "FRA", Name: "France",
			Capitals: []string{"Paris"}, Region: "Europe", Subregion: "Western Europe",
			Population: 68_000_000, AreaKm2: 551_695,
			Currencies: euro(), Languages: []string{"French"},
			Borders: []string{"DEU", "BEL", "ESP", "ITA", "CHE"},
			Cities:  []string{"Lyon", "Marseille"}, Rivers: []string{"Seine", "Loire"},
			Peak:   &catalog.Peak{Name: "Mont Blanc", Elevation: 4807},
			Ranges: []string{"Alps", "Pyrenees"}, PhysicalRegions: []string{"Massif Central"},
			FlagAsset: "flags/fr.svg", GDP: &catalog.GDP{Value: 2.78e12, Year: 2023},
			Exports: []string{"Aircraft", "Wine"}, UNESCOSites: []string{"Palace of Versailles"},
			Landmarks: []string{"landmarks/eiffel.jpg"},
		},
		{
			Code: "DE", Code3: "DEU", Name: "Germany",
			Capitals: []string{"Berlin"}, Region: "Europe", Subregion: "Western Europe",
			Population: 84_000_000, AreaKm2: 357_588,
			Currencies: euro(), Languages: []string{"German"},
			Borders: []string{"FRA", "NLD", "BEL", "CHE"},
			Cities:  []string{"Munich", "Hamburg"}, Rivers: []string{"Rhine", "Danube"},
			Peak:   &catalog.Peak{Name: "Zugspitze", Elevation: 2962},
			Ranges: []string{"Alps"}, PhysicalRegions: []string{"North German Plain"},
			FlagAsset: "flags/de.svg", GDP: &catalog.GDP{Value: 4.07e12, Year: 2023},
			Exports: []string{"Cars", "Machinery"}, UNESCOSites: []string{"Cologne Cathedral"},
		},
		{
			Code: "NL", Code3: "NLD", Name: "Netherlands",
			Capitals: []string{"Amsterdam"}, Region: "Europe", Subregion: "Western Europe",
			Population: 17_800_000, AreaKm2: 41_850,
			Currencies: euro(), Languages: []string{"Dutch"},
			Borders: []string{"DEU", "BEL"},
			Cities:  []string{"Rotterdam"}, Rivers: []string{"Rhine"},
			FlagAsset: "flags/nl.svg", GDP: &catalog.GDP{Value: 1.01e12, Year: 2023},
		},
		{
			Code: "BE", Code3: "BEL", Name: "Belgium",
			Capitals: []string{"Brussels"}, Region: "Europe", Subregion: "Western Europe",
			Population: 11_600_000, AreaKm2: 30_689,
			Currencies: euro(), Languages: []string{"Dutch", "French"},
			Borders: []string{"FRA", "DEU", "NLD"},
			Cities:  []string{"Antwerp"}, Rivers: []string{"Meuse"},
			FlagAsset: "flags/be.svg", GDP: &catalog.GDP{Value: 5.8e11, Year: 2023},
		},
		{
			Code: "CH", Code3: "CHE", Name: "Switzerland",
			Capitals: []string{"Bern"}, Region: "Europe", Subregion: "Western Europe",
			Population: 8_800_000, AreaKm2: 41_284, Landlocked: true,
			Currencies: []catalog.Currency{{Code: "CHF", Name: "Swiss Franc"}},
			Languages:  []string{"German", "French", "Italian"},
			Borders:    []string{"FRA", "DEU", "ITA"},
			Cities:     []string{"Zurich", "Geneva"}, Rivers: []string{"Rhine"},
			Peak:   &catalog.Peak{Name: "Dufourspitze", Elevation: 4634},
			Ranges: []string{"Alps"},
			FlagAsset: "flags/ch.svg", GDP: &catalog.GDP{Value: 8.1e11, Year: 2023},
		},
		{
			Code: "ES", Code3: "ESP", Name: "Spain",
			Capitals: []string{"Madrid"}, Region: "Europe", Subregion: "Southern Europe",
			Population: 47_500_000, AreaKm2: 505_992,
			Currencies: euro(), Languages: []string{"Spanish"},
			Borders: []string{"FRA", "PRT"},
			Cities:  []string{"Barcelona", "Seville"}, Rivers: []string{"Tagus", "Ebro"},
			Peak:   &catalog.Peak{Name: "Teide", Elevation: 3715},
			Ranges: []string{"Pyrenees"}, PhysicalRegions: []string{"Meseta Central"},
			FlagAsset: "flags/es.svg", GDP: &catalog.GDP{Value: 1.4e12, Year: 2023},
			Exports: []string{"Cars", "Olive Oil"}, UNESCOSites: []string{"Alhambra"},
		},
		{
			Code: "IT", Code3: "ITA", Name: "Italy",
			Capitals: []string{"Rome"}, Region: "Europe", Subregion: "Southern Europe",
			Population: 59_000_000, AreaKm2: 301_340,
			Currencies: euro(), Languages: []string{"Italian"},
			Borders: []string{"FRA", "CHE"},
			Cities:  []string{"Milan", "Naples"}, Rivers: []string{"Po"},
			Peak:   &catalog.Peak{Name: "Monte Bianco", Elevation: 4808},
			Ranges: []string{"Alps", "Apennines"}, PhysicalRegions: []string{"Po Valley"},
			FlagAsset: "flags/it.svg", GDP: &catalog.GDP{Value: 2.1e12, Year: 2023},
			Exports: []string{"Machinery", "Fashion"}, UNESCOSites: []string{"Venice and its Lagoon"},
			Landmarks: []string{"landmarks/colosseum.jpg"},
		},
		{
			Code: "PT", Code3: "PRT", Name: "Portugal",
			Capitals: []string{"Lisbon"}, Region: "Europe", Subregion: "Southern Europe",
			Population: 10_300_000, AreaKm2: 92_226,
			Currencies: euro(), Languages: []string{"Portuguese"},
			Borders: []string{"ESP"},
			Cities:  []string{"Porto"}, Rivers: []string{"Tagus"},
			FlagAsset: "flags/pt.svg", GDP: &catalog.GDP{Value: 2.5e11, Year: 2023},
		},
		{
			Code: "CN", Code3: "CHN", Name: "China",
			Capitals: []string{"Beijing"}, Region: "Asia", Subregion: "Eastern Asia",
			Population: 1_411_000_000, AreaKm2: 9_596_961,
			Currencies: []catalog.Currency{{Code: "CNY", Name: "Renminbi"}},
			Languages:  []string{"Mandarin Chinese"},
			Borders:    []string{"IND"},
			Cities:     []string{"Shanghai"}, Rivers: []string{"Yangtze"},
			Peak:   &catalog.Peak{Name: "Mount Everest", Elevation: 8849},
			Ranges: []string{"Himalayas"}, PhysicalRegions: []string{"Tibetan Plateau"},
			FlagAsset: "flags/cn.svg", GDP: &catalog.GDP{Value: 1.79e13, Year: 2023},
			Exports: []string{"Electronics", "Textiles"}, UNESCOSites: []string{"Great Wall"},
			Landmarks: []string{"landmarks/greatwall.jpg"},
		},
		{
			Code: "JP", Code3: "JPN", Name: "Japan",
			Capitals: []string{"Tokyo"}, Region: "Asia", Subregion: "Eastern Asia",
			Population: 125_000_000, AreaKm2: 377_975,
			Currencies: []catalog.Currency{{Code: "JPY", Name: "Yen"}},
			Languages:  []string{"Japanese"},
			Cities:     []string{"Osaka"}, Rivers: []string{"Shinano"},
			Peak:      &catalog.Peak{Name: "Mount Fuji", Elevation: 3776},
			FlagAsset: "flags/jp.svg", GDP: &catalog.GDP{Value: 4.2e12, Year: 2023},
			Exports: []string{"Vehicles", "Electronics"}, UNESCOSites: []string{"Itsukushima Shrine"},
		},
		{
			Code: "KR", Code3: "KOR", Name: "South Korea",
			Capitals: []string{"Seoul"}, Region: "Asia", Subregion: "Eastern Asia",
			Population: 51_700_000, AreaKm2: 100_210,
			Currencies: []catalog.Currency{{Code: "KRW", Name: "Won"}},
			Languages:  []string{"Korean"},
			Borders:    []string{"PRK"},
			Cities:     []string{"Busan"}, Rivers: []string{"Han"},
			FlagAsset: "flags/kr.svg", GDP: &catalog.GDP{Value: 1.67e12, Year: 2023},
		},
		{
			Code: "IN", Code3: "IND", Name: "India",
			Capitals: []string{"New Delhi"}, Region: "Asia", Subregion: "Southern Asia",
			Population: 1_408_000_000, AreaKm2: 3_287_263,
			Currencies: []catalog.Currency{{Code: "INR", Name: "Rupee"}},
			Languages:  []string{"Hindi", "English"},
			Borders:    []string{"CHN"},
			Cities:     []string{"Mumbai"}, Rivers: []string{"Ganges"},
			Peak:   &catalog.Peak{Name: "Kangchenjunga", Elevation: 8586},
			Ranges: []string{"Himalayas"}, PhysicalRegions: []string{"Deccan Plateau"},
			FlagAsset: "flags/in.svg", GDP: &catalog.GDP{Value: 3.4e12, Year: 2023},
			Exports: []string{"Petroleum Products", "Gems"}, UNESCOSites: []string{"Taj Mahal"},
			Landmarks: []string{"landmarks/tajmahal.jpg"},
		},
		{
			Code: "BR", Code3: "BRA", Name: "Brazil",
			Capitals: []string{"Brasília"}, Region: "Americas", Subregion: "South America",
			Population: 214_000_000, AreaKm2: 8_515_767,
			Currencies: []catalog.Currency{{Code: "BRL", Name: "Real"}},
			Languages:  []string{"Portuguese"},
			Borders:    []string{"ARG"},
			Cities:     []string{"São Paulo"}, Rivers: []string{"Amazon"},
			PhysicalRegions: []string{"Amazon Basin"},
			FlagAsset:       "flags/br.svg", GDP: &catalog.GDP{Value: 1.92e12, Year: 2023},
			Exports: []string{"Soybeans", "Iron Ore"},
			Landmarks: []string{"landmarks/christ.jpg"},
		},
		{
			Code: "AR", Code3: "ARG", Name: "Argentina",
			Capitals: []string{"Buenos Aires"}, Region: "Americas", Subregion: "South America",
			Population: 45_800_000, AreaKm2: 2_780_400,
			Currencies: []catalog.Currency{{Code: "ARS", Name: "Peso"}},
			Languages:  []string{"Spanish"},
			Borders:    []string{"BRA"},
			Cities:     []string{"Córdoba"}, Rivers: []string{"Paraná"},
			Peak:   &catalog.Peak{Name: "Aconcagua", Elevation: 6961},
			Ranges: []string{"Andes"}, PhysicalRegions: []string{"Pampas"},
			FlagAsset: "flags/ar.svg", GDP: &catalog.GDP{Value: 6.3e11, Year: 2023},
		},
	}
}

// borderFeature builds a square Polygon feature anchored at (west, south).
func borderFeature(t *testing.T, code string, west, south, size float64) geo.Feature {
	t.Helper()
	ring := [][]float64{
		{west, south}, {west + size, south},
		{west + size, south + size}, {west, south + size},
		{west, south},
	}
	coords, err := json.Marshal([][][]float64{ring})
	if err != nil {
		t.Fatalf("marshal ring: %v", err)
	}
	return geo.Feature{
		Type:       "Feature",
		Properties: map[string]interface{}{"code": code},
		Geometry:   geo.Geometry{Type: "Polygon", Coordinates: coords},
	}
}

func riverFeature(t *testing.T, name string, coords [][]float64) geo.Feature {
	t.Helper()
	raw, err := json.Marshal(coords)
	if err != nil {
		t.Fatalf("marshal line: %v", err)
	}
	return geo.Feature{
		Type:       "Feature",
		Properties: map[string]interface{}{"name": name},
		Geometry:   geo.Geometry{Type: "LineString", Coordinates: raw},
	}
}

// testDataset assembles a full snapshot: the fixture catalog, one
// non-overlapping border square per country, and a single indexed river.
func testDataset(t *testing.T) *Dataset {
	t.Helper()
	logger := zerolog.Nop()
	cat := catalog.New(testCountries(), logger)

	borderFC := &geo.FeatureCollection{Type: "FeatureCollection"}
	for i, c := range cat.All() {
		west := float64(i*20 - 160)
		borderFC.Features = append(borderFC.Features, borderFeature(t, c.Code, west, 0, 10))
	}
	borders := geo.BuildIndex(borderFC, logger)

	riverFC := &geo.FeatureCollection{
		Type: "FeatureCollection",
		Features: []geo.Feature{
			riverFeature(t, "Seine", [][]float64{{2, 48}, {3, 49}}),
		},
	}
	rivers := geo.BuildRiverIndex(riverFC, logger)

	return NewDataset(1, cat, borders, rivers)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testDataset(t), Config{Rand: testRNG()})
}

func mustGet(t *testing.T, data *Dataset, code string) *catalog.Country {
	t.Helper()
	c, ok := data.Catalog.Get(code)
	if !ok {
		t.Fatalf("country %s missing from fixture", code)
	}
	return c
}
