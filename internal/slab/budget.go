// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package slab implements the Batch Slab (C6): one shared vertex/index arena
// per LOD collapsing every loaded chunk of that LOD into a single draw
// resource. Grounded on the fixed-size nibble-packed arrays of the teacher's
// terrain/compressed/chunk.go: a chunk there is a slot in a pre-sized grid
// keyed by (x,y); here a chunk's mesh is a slot in a pre-sized arena keyed by
// geometry id. Instance bookkeeping (the scheduler mutates many live
// instances per frame) follows the swap-with-last removal and
// index-map-plus-shrink discipline of world/sector/world.go.
package slab

// Budget is the fixed per-LOD capacity table (spec §4.6). Real values are a
// tunable policy; the default per-chunk sizes hold the mesher's worst case
// for each LOD (5 faces per supertile, 4 vertices and 6 indices per face).
type Budget struct {
	MaxChunks       int
	VertsPerChunk   int
	IndicesPerChunk int
}

// DefaultBudgets is indexed by world.LOD (0..3).
var DefaultBudgets = [4]Budget{
	{MaxChunks: 150, VertsPerChunk: 20480, IndicesPerChunk: 30720},
	{MaxChunks: 250, VertsPerChunk: 5120, IndicesPerChunk: 7680},
	{MaxChunks: 400, VertsPerChunk: 1280, IndicesPerChunk: 1920},
	{MaxChunks: 400, VertsPerChunk: 320, IndicesPerChunk: 480},
}
