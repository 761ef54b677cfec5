// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gen

import (
	"math"
	"sync"
)

const seedCount = 42
const corridorHalfWidth = 1.8
const maxRoadSegmentSqLen = 360000.0

type provinceSeed struct {
	x, y float64
	id   uint8
}

type roadSegment struct {
	x0, y0, x1, y1 float64
}

var (
	provinceOnce sync.Once
	seeds        [seedCount]provinceSeed
	roads        []roadSegment
)

// ensureSeeds computes the 42 deterministic Voronoi seeds (and the road
// network between their centroids) exactly once, from a fixed hash of grid
// indices, matching spec §4.1's "computed once ... and cached".
func ensureSeeds() {
	provinceOnce.Do(func() {
		// Four corner barbarian seeds, all sharing id 0.
		const margin = MapSize * 0.06
		corners := [4][2]float64{
			{margin, margin},
			{MapSize - margin, margin},
			{margin, MapSize - margin},
			{MapSize - margin, MapSize - margin},
		}
		for i, c := range corners {
			seeds[i] = provinceSeed{x: c[0], y: c[1], id: 0}
		}

		// Remaining 38 seeds: laid out on a jittered grid, derived from a
		// fixed hash of grid indices so the result never depends on
		// iteration order or platform.
		const remaining = seedCount - 4
		const cols = 7
		const rows = 6 // cols*rows = 42 >= remaining
		cellW := MapSize / float64(cols)
		cellH := MapSize / float64(rows)

		idx := 4
		nextID := uint8(1)
		for gy := 0; gy < rows && idx < seedCount; gy++ {
			for gx := 0; gx < cols && idx < seedCount; gx++ {
				jx := hash2d(float64(gx)*31.0+7.0, float64(gy)*17.0+3.0)
				jy := hash2d(float64(gx)*11.0+5.0, float64(gy)*23.0+13.0)

				cx := (float64(gx)+0.25+jx*0.5) * cellW
				cy := (float64(gy)+0.25+jy*0.5) * cellH

				seeds[idx] = provinceSeed{x: cx, y: cy, id: nextID}
				idx++
				nextID++
			}
		}

		// Road network: connect nearby province centroids (not the corner
		// barbarian seeds) whose squared distance is within bounds.
		for i := 4; i < seedCount; i++ {
			for j := i + 1; j < seedCount; j++ {
				dx := seeds[i].x - seeds[j].x
				dy := seeds[i].y - seeds[j].y
				d2 := dx*dx + dy*dy
				if d2 <= maxRoadSegmentSqLen {
					roads = append(roads, roadSegment{
						x0: seeds[i].x, y0: seeds[i].y,
						x1: seeds[j].x, y1: seeds[j].y,
					})
				}
			}
		}
	})
}

// nearestProvince returns the id of the Voronoi seed nearest to (wx,wy).
func nearestProvince(wx, wy int) uint8 {
	ensureSeeds()

	best := math.MaxFloat64
	var bestID uint8
	x, y := float64(wx), float64(wy)
	for _, s := range seeds {
		dx := x - s.x
		dy := y - s.y
		d2 := dx*dx + dy*dy
		if d2 < best {
			best = d2
			bestID = s.id
		}
	}
	return bestID
}

// onRoad reports whether (wx,wy) falls within corridorHalfWidth tiles of any
// road segment between nearby province centroids.
func onRoad(wx, wy int) bool {
	ensureSeeds()

	x, y := float64(wx), float64(wy)
	for _, r := range roads {
		if pointToSegmentDistance(x, y, r.x0, r.y0, r.x1, r.y1) <= corridorHalfWidth {
			return true
		}
	}
	return false
}

func pointToSegmentDistance(px, py, x0, y0, x1, y1 float64) float64 {
	dx := x1 - x0
	dy := y1 - y0
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x0, py-y0)
	}
	t := ((px-x0)*dx + (py-y0)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx := x0 + t*dx
	cy := y0 + t*dy
	return math.Hypot(px-cx, py-cy)
}
