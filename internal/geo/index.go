package geo

import (
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// BBox is an axis-aligned envelope in degrees.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func emptyBBox() BBox {
	return BBox{
		West:  math.Inf(1),
		South: math.Inf(1),
		East:  math.Inf(-1),
		North: math.Inf(-1),
	}
}

func (b BBox) isEmpty() bool {
	return b.West > b.East || b.South > b.North
}

func (b BBox) extend(lng, lat float64) BBox {
	if lng < b.West {
		b.West = lng
	}
	if lng > b.East {
		b.East = lng
	}
	if lat < b.South {
		b.South = lat
	}
	if lat > b.North {
		b.North = lat
	}
	return b
}

func (b BBox) merge(other BBox) BBox {
	if other.isEmpty() {
		return b
	}
	if b.isEmpty() {
		return other
	}
	b = b.extend(other.West, other.South)
	return b.extend(other.East, other.North)
}

// Contains reports whether the point lies inside the box, borders included.
func (b BBox) Contains(lng, lat float64) bool {
	return lng >= b.West && lng <= b.East && lat >= b.South && lat <= b.North
}

// Center returns the box midpoint.
func (b BBox) Center() (lng, lat float64) {
	return (b.West + b.East) / 2, (b.South + b.North) / 2
}

// Shape is one country's border geometry: a multipolygon (every polygon a
// ring list, first ring the exterior, the rest holes) plus the tight
// envelope of all ring vertices.
type Shape struct {
	Code     string
	Polygons [][][][]float64
	BBox     BBox
}

// Index maps country codes to their border shapes.
type Index struct {
	shapes map[string]*Shape
}

// BuildIndex scans a border feature collection and indexes every feature
// that carries a resolvable country code and Polygon/MultiPolygon geometry.
// Malformed features are logged and dropped; the index never fails as a
// whole. Features sharing a code are merged into one shape.
func BuildIndex(fc *FeatureCollection, logger zerolog.Logger) *Index {
	ix := &Index{shapes: make(map[string]*Shape)}
	if fc == nil {
		return ix
	}

	skipped := 0
	for i := range fc.Features {
		f := &fc.Features[i]
		code := f.CountryCode()
		if code == "" {
			skipped++
			continue
		}
		polys, err := f.Geometry.PolygonSet()
		if err != nil {
			logger.Warn().Err(err).Str("code", code).Msg("skipping border feature")
			skipped++
			continue
		}
		box := emptyBBox()
		ok := true
		for _, poly := range polys {
			for _, ring := range poly {
				for _, pos := range ring {
					if len(pos) < 2 {
						ok = false
						break
					}
					box = box.extend(pos[0], pos[1])
				}
			}
		}
		if !ok || box.isEmpty() {
			logger.Warn().Str("code", code).Msg("skipping border feature with malformed coordinates")
			skipped++
			continue
		}

		if existing, found := ix.shapes[code]; found {
			existing.Polygons = append(existing.Polygons, polys...)
			existing.BBox = existing.BBox.merge(box)
		} else {
			ix.shapes[code] = &Shape{Code: code, Polygons: polys, BBox: box}
		}
	}

	logger.Info().Int("countries", len(ix.shapes)).Int("skipped", skipped).Msg("border index built")
	return ix
}

// Shape returns the border shape for a country code.
func (ix *Index) Shape(code string) (*Shape, bool) {
	s, ok := ix.shapes[strings.ToUpper(code)]
	return s, ok
}

// Has reports whether geometry exists for the code.
func (ix *Index) Has(code string) bool {
	_, ok := ix.shapes[strings.ToUpper(code)]
	return ok
}

// Codes lists all indexed country codes in sorted order.
func (ix *Index) Codes() []string {
	codes := make([]string, 0, len(ix.shapes))
	for code := range ix.shapes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len reports the number of indexed countries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.shapes)
}

// RiverIndex maps normalized river names to the merged envelope of every
// segment sharing that name.
type RiverIndex struct {
	boxes map[string]BBox
}

// NormalizeRiverName lower-cases and collapses internal whitespace so
// "Rio  Grande " and "rio grande" key the same entry.
func NormalizeRiverName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// BuildRiverIndex merges river line features by normalized name.
func BuildRiverIndex(fc *FeatureCollection, logger zerolog.Logger) *RiverIndex {
	rx := &RiverIndex{boxes: make(map[string]BBox)}
	if fc == nil {
		return rx
	}

	skipped := 0
	for i := range fc.Features {
		f := &fc.Features[i]
		name := NormalizeRiverName(f.Name())
		if name == "" {
			skipped++
			continue
		}
		lines, err := f.Geometry.LineSet()
		if err != nil {
			logger.Warn().Err(err).Str("river", name).Msg("skipping river feature")
			skipped++
			continue
		}
		box := emptyBBox()
		for _, line := range lines {
			for _, pos := range line {
				if len(pos) < 2 {
					continue
				}
				box = box.extend(pos[0], pos[1])
			}
		}
		if box.isEmpty() {
			skipped++
			continue
		}
		if existing, found := rx.boxes[name]; found {
			rx.boxes[name] = existing.merge(box)
		} else {
			rx.boxes[name] = box
		}
	}

	logger.Info().Int("rivers", len(rx.boxes)).Int("skipped", skipped).Msg("river index built")
	return rx
}

// BBox returns the merged envelope for a river name (normalized internally).
func (rx *RiverIndex) BBox(name string) (BBox, bool) {
	box, ok := rx.boxes[NormalizeRiverName(name)]
	return box, ok
}

// Has reports whether the river name is indexed.
func (rx *RiverIndex) Has(name string) bool {
	_, ok := rx.boxes[NormalizeRiverName(name)]
	return ok
}

// Len reports the number of distinct rivers.
func (rx *RiverIndex) Len() int {
	if rx == nil {
		return 0
	}
	return len(rx.boxes)
}
