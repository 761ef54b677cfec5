// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// Mat4 is a column-major 4x4 float32 matrix, the transform type consumed by
// BatchSlab.SetMatrix. The teacher's world package is entirely 2D (Vec2f,
// Angle) and has no 3D transform; this follows the same "small value type,
// cheap to copy, math32-flavored" shape for the spec's voxel-terrain world.
type Mat4 [16]float32

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix placing geometry at (x,y,z), matching the
// chunk placement rule in spec §4.6: (cx*32 - 1024, 0, cy*32 - 1024).
func Translation(x, y, z float32) Mat4 {
	m := Identity()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}

// ChunkPlacement returns the world-matrix for placing coord's chunk on the map.
func ChunkPlacement(coord ChunkCoord) Mat4 {
	x, z := coord.WorldOrigin()
	return Translation(x, 0, z)
}
