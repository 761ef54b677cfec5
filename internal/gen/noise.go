// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gen

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// moistureSeed (and moistureSeed+1) seed the perlin fields so that equal
// inputs always yield bitwise-equal ChunkData (spec P1), across processes and
// platforms, matching the teacher's practice of deriving every Generator
// from a fixed terrain.Seed (server/terrain/noise/noise.go). The height field
// is a fixed sin/cos sum and reads no seed; heightSeed is not used.
const (
	heightSeed   int64 = 0x4D656469 // "Medi"
	moistureSeed int64 = 0x74657272 // "terr"
)

// moistureNoise is the perlin.Perlin field used for biome selection, and
// colorNoise the separately-seeded one behind per-column mesh color
// variation. These are the one place the teacher's aquilax/go-perlin
// dependency is carried forward unchanged in spirit: moistureNoise's
// alpha/beta/octaves mirror server/terrain/noise/noise.go's landLo generator.
var moistureNoise = perlin.NewPerlin(2.5, 3.0, 4, moistureSeed)
var colorNoise = perlin.NewPerlin(2.0, 2.0, 3, moistureSeed+1)

// height computes H(wx,wy) per spec §4.1: a layered sinusoidal field shaped
// by a non-negative mountain band and an edge fade that produces ocean
// borders, clamped and rounded to a valid tile height.
func height(wx, wy int) uint8 {
	n := sinCosOctaves(float64(wx), float64(wy))
	mb := mountainBoost(wx, wy)
	ef := edgeFade(wx, wy)

	h := float64(MaxHeight) * (n + mb + 0.4) * ef
	h = math.Round(h)
	if h < 0 {
		h = 0
	}
	if h > float64(MaxHeight) {
		h = float64(MaxHeight)
	}
	return uint8(h)
}

// sinCosOctaves is the fixed 4-octave sum of sin/cos in absolute world
// coordinates spec §4.1 calls for. Each octave doubles frequency and halves
// amplitude; dividing by the summed peak amplitudes bounds the result to
// [-1, 1].
func sinCosOctaves(wx, wy float64) float64 {
	const baseFreq = 1.0 / 220.0

	var sum, amp, freq, norm float64
	amp = 1.0
	freq = baseFreq
	for octave := 0; octave < 4; octave++ {
		sum += amp * (math.Sin(wx*freq+float64(octave)*1.7) + math.Cos(wy*freq-float64(octave)*2.3))
		norm += amp * 2
		amp *= 0.5
		freq *= 2.07 // non-integer lacunarity avoids axis-aligned repetition
	}
	return sum / norm
}

// mountainBoost is a non-negative quadratic band centred at
// (0.5*MapSize, 0.3*MapSize), per spec §4.1.
func mountainBoost(wx, wy int) float64 {
	const (
		centerXFrac = 0.5
		centerYFrac = 0.3
		radius      = MapSize * 0.18
	)
	cx := MapSize * centerXFrac
	cy := MapSize * centerYFrac

	dx := float64(wx) - cx
	dy := float64(wy) - cy
	d2 := dx*dx + dy*dy
	r2 := radius * radius

	if d2 >= r2 {
		return 0
	}
	t := 1.0 - d2/r2 // 1 at center, 0 at radius
	return t * t * 0.9
}

// edgeFade ramps 0->1 across the outer 25% of the map, producing ocean
// borders on every side of the continent.
func edgeFade(wx, wy int) float64 {
	const band = 0.25

	fx := edgeFadeAxis(wx, MapSize, band)
	fy := edgeFadeAxis(wy, MapSize, band)
	if fx < fy {
		return fx
	}
	return fy
}

func edgeFadeAxis(w int, size int, band float64) float64 {
	half := float64(size) / 2
	distFromCenter := math.Abs(float64(w) - half)
	innerEdge := half * (1 - band)
	if distFromCenter <= innerEdge {
		return 1
	}
	if distFromCenter >= half {
		return 0
	}
	t := (half - distFromCenter) / (half - innerEdge)
	return t
}

// moisture is an independent noise field (same family as height, different
// offsets) used to select among land biome variants.
func moisture(wx, wy int) float64 {
	v := moistureNoise.Noise2D(float64(wx)*0.003, float64(wy)*0.003)
	return clamp01(v*0.5 + 0.5)
}

// hash2d is the spec-mandated cheap pseudo-random tie-breaker:
// fract(sin(x*12.9898 + y*78.233) * 43758.5453).
func hash2d(x, y float64) float64 {
	v := math.Sin(x*12.9898+y*78.233) * 43758.5453
	_, frac := math.Modf(v)
	if frac < 0 {
		frac += 1
	}
	return frac
}

// columnColorNoise returns a deterministic per-column multiplier used to vary
// vertex color within a biome (spec §4.2's "deterministic per-column noise
// factor"), in [0.85, 1.15].
func columnColorNoise(wx, wy int) float32 {
	v := colorNoise.Noise2D(float64(wx)*0.08, float64(wy)*0.08)
	return float32(0.85 + clamp01(v*0.5+0.5)*0.3)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
