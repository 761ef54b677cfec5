// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// AABB is a center-plus-extent axis-aligned box, used to express the
// scheduler's loaded-chunk window in world space (Scheduler.LoadedWindow).
type AABB struct {
	Vec2f
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func AABBFrom(x, y, width, height float32) AABB {
	return AABB{
		Vec2f:  Vec2f{X: x, Y: y},
		Width:  width,
		Height: height,
	}
}

// Intersects reports whether a and b overlap.
func (a AABB) Intersects(b AABB) bool {
	a, b = a.CornerCoordinates(), b.CornerCoordinates()
	return a.X+a.Width >= b.X && a.X <= b.X+b.Width && a.Y+a.Height >= b.Y && a.Y <= b.Height+b.Y
}

// Contains reports whether a fully contains b.
func (a AABB) Contains(b AABB) bool {
	a, b = a.CornerCoordinates(), b.CornerCoordinates()
	return a.X <= b.X && a.Y <= b.Y && a.X+a.Width >= b.X+b.Width && a.Y+a.Height >= b.Y+b.Height
}

// CornerCoordinates converts a from center coordinates to corner (min-X,
// min-Y) coordinates, the form the debug endpoint reports window bounds in.
func (a AABB) CornerCoordinates() AABB {
	a.Vec2f = Vec2f{X: a.X - a.Width*0.5, Y: a.Y - a.Height*0.5}
	return a
}
