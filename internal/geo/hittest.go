package geo

import (
	"math"
	"strings"
)

const (
	// crossingEpsilon keeps the crossing-number division finite when an
	// edge is nearly horizontal.
	crossingEpsilon = 1e-12

	// smallTargetPx is the projected size below which a country is too
	// small to tap precisely.
	smallTargetPx = 12.0

	// smallTargetRadiusPx is the allowed click distance from a small
	// target's projected center.
	smallTargetRadiusPx = 28.0
)

// Tap describes one map click as reported by the presentation layer.
type Tap struct {
	Lng float64
	Lat float64

	// RenderedCodes holds the country codes of map features the client
	// found within a small pixel radius of the click.
	RenderedCodes []string

	// Screen is the client-projected pixel context, when available.
	Screen *ScreenContext
}

// ScreenContext is the target's geographic bbox projected through the
// current camera, plus the click position, all in screen pixels.
type ScreenContext struct {
	TargetMinX float64 `json:"target_min_x"`
	TargetMinY float64 `json:"target_min_y"`
	TargetMaxX float64 `json:"target_max_x"`
	TargetMaxY float64 `json:"target_max_y"`
	ClickX     float64 `json:"click_x"`
	ClickY     float64 `json:"click_y"`
}

// IsHit decides whether a tap counts as hitting the target country.
// Any one of three conditions suffices: the click coordinate lies inside
// the target's rings, the client rendered the target under the click
// pixel, or the target projects too small to tap and the click landed
// within the fallback radius of its center.
func IsHit(tap Tap, target *Shape) bool {
	if target == nil {
		return false
	}

	if target.BBox.Contains(tap.Lng, tap.Lat) && shapeContains(target, tap.Lng, tap.Lat) {
		return true
	}

	for _, code := range tap.RenderedCodes {
		if strings.EqualFold(strings.TrimSpace(code), target.Code) {
			return true
		}
	}

	if tap.Screen != nil && tap.Screen.hitsSmallTarget() {
		return true
	}

	return false
}

// ContainsPoint reports whether the point lies inside the shape's rings,
// with the bbox rejection test applied first.
func (s *Shape) ContainsPoint(lng, lat float64) bool {
	if s == nil || !s.BBox.Contains(lng, lat) {
		return false
	}
	return shapeContains(s, lng, lat)
}

func shapeContains(s *Shape, lng, lat float64) bool {
	for _, poly := range s.Polygons {
		if polygonContains(poly, lng, lat) {
			return true
		}
	}
	return false
}

// polygonContains applies the exterior ring first, then subtracts holes.
func polygonContains(poly [][][]float64, lng, lat float64) bool {
	if len(poly) == 0 || !ringContains(poly[0], lng, lat) {
		return false
	}
	for _, hole := range poly[1:] {
		if ringContains(hole, lng, lat) {
			return false
		}
	}
	return true
}

// ringContains is the even-odd crossing-number test. The strict
// inequality pairing keeps a vertex exactly at the test latitude from
// being counted twice.
func ringContains(ring [][]float64, lng, lat float64) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			return false
		}
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) {
			xCross := xi + (lat-yi)*(xj-xi)/(yj-yi+crossingEpsilon)
			if lng < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func (sc *ScreenContext) hitsSmallTarget() bool {
	width := sc.TargetMaxX - sc.TargetMinX
	height := sc.TargetMaxY - sc.TargetMinY
	if width >= smallTargetPx || height >= smallTargetPx {
		return false
	}
	centerX := (sc.TargetMinX + sc.TargetMaxX) / 2
	centerY := (sc.TargetMinY + sc.TargetMaxY) / 2
	return math.Hypot(sc.ClickX-centerX, sc.ClickY-centerY) <= smallTargetRadiusPx
}
