// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

type offset struct{ dx, dy int32 }

// spiralOffsets returns every (dx,dy) with Chebyshev distance <= radius,
// ordered outward ring by ring (distance 0, then 1, then 2, ...), each ring
// visited in a fixed deterministic order. This gives the scheduler a stable
// load order regardless of map iteration, and lets load_radius bound work
// with a simple prefix/slice of the list.
func spiralOffsets(radius int) []offset {
	offsets := []offset{{0, 0}}
	for d := 1; d <= radius; d++ {
		dist := int32(d)
		// Top and bottom rows of the ring, full width.
		for dx := -dist; dx <= dist; dx++ {
			offsets = append(offsets, offset{dx, -dist})
		}
		for dx := -dist; dx <= dist; dx++ {
			offsets = append(offsets, offset{dx, dist})
		}
		// Left and right columns of the ring, excluding corners already listed.
		for dy := -dist + 1; dy <= dist-1; dy++ {
			offsets = append(offsets, offset{-dist, dy})
			offsets = append(offsets, offset{dist, dy})
		}
	}
	return offsets
}
