// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"math"

	"github.com/chewxy/math32"
)

// Vec2f is a 2D float32 vector, used wherever the chunk pipeline needs a
// world-space XZ position: the scheduler's camera position (internal/scheduler)
// and the loaded-chunk window it derives from it (Scheduler.LoadedWindow).
type Vec2f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (vec Vec2f) Mul(factor float32) Vec2f {
	vec.X *= factor
	vec.Y *= factor
	return vec
}

func (vec Vec2f) Div(divisor float32) Vec2f {
	return vec.Mul(1.0 / divisor)
}

func (vec Vec2f) Add(otherVec Vec2f) Vec2f {
	vec.X += otherVec.X
	vec.Y += otherVec.Y
	return vec
}

func (vec Vec2f) Sub(otherVec Vec2f) Vec2f {
	vec.X -= otherVec.X
	vec.Y -= otherVec.Y
	return vec
}

func (vec Vec2f) Length() float32 {
	return math32.Hypot(vec.X, vec.Y)
}

// Floor rounds each component down to the nearest integer, the operation the
// scheduler uses to turn a continuous camera position into a chunk index.
func (vec Vec2f) Floor() Vec2f {
	// Use math.Floor instead of math32 because it uses assembly.
	vec.X = float32(math.Floor(float64(vec.X)))
	vec.Y = float32(math.Floor(float64(vec.Y)))
	return vec
}
