package geo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FeatureCollection is the subset of GeoJSON this package consumes.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature carries one geographic feature with its raw properties.
type Feature struct {
	Type       string                 `json:"type"`
	ID         json.RawMessage        `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry defers coordinate decoding until the type is known.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseFeatureCollection decodes a GeoJSON document.
func ParseFeatureCollection(data []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected root type %q", fc.Type)
	}
	return &fc, nil
}

// PolygonSet returns the geometry as a multipolygon: a list of polygons,
// each a list of rings, each ring a list of [lng, lat] positions. Plain
// polygons come back as a single-entry set.
func (g *Geometry) PolygonSet() ([][][][]float64, error) {
	switch g.Type {
	case "Polygon":
		var poly [][][]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return [][][][]float64{poly}, nil
	case "MultiPolygon":
		var multi [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		return multi, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// LineSet returns the geometry as a list of line strings, each a list of
// [lng, lat] positions.
func (g *Geometry) LineSet() ([][][]float64, error) {
	switch g.Type {
	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("decode linestring coordinates: %w", err)
		}
		return [][][]float64{line}, nil
	case "MultiLineString":
		var multi [][][]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("decode multilinestring coordinates: %w", err)
		}
		return multi, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// codePropertyKeys are tried in order when resolving a feature's country code.
var codePropertyKeys = []string{"code", "iso_a2", "ISO_A2", "cca2", "id"}

// CountryCode resolves the feature's country code property, upper-cased.
// Returns "" when no usable code is present.
func (f *Feature) CountryCode() string {
	for _, key := range codePropertyKeys {
		if raw, ok := f.Properties[key]; ok {
			if s, ok := raw.(string); ok {
				s = strings.ToUpper(strings.TrimSpace(s))
				// Natural Earth marks unassigned territories with "-99".
				if s != "" && s != "-99" {
					return s
				}
			}
		}
	}
	if len(f.ID) > 0 {
		var s string
		if err := json.Unmarshal(f.ID, &s); err == nil {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// Name returns the feature's name property, used for river grouping.
func (f *Feature) Name() string {
	for _, key := range []string{"name", "NAME", "river_name"} {
		if raw, ok := f.Properties[key]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
