// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mesh implements the Greedy Mesher (C2): a pure function from a
// chunk's tile data at a given LOD to a renderable triangle mesh. Grounded on
// the retrieved cubetopia-voxel-game mesher's per-face vertex/normal tables
// and neighbor-visibility test, adapted from full 3D voxels to column
// extrusion over a heightfield.
package mesh

import (
	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/world"
)

// Buffers holds a mesh's raw vertex/index data, exactly as spec §3 names it.
type Buffers struct {
	Positions []float32 // 3 per vertex
	Normals   []float32 // 3 per vertex
	Colors    []float32 // 3 per vertex
	Indices   []uint32
}

// VertexCount returns the number of vertices encoded in Positions.
func (b Buffers) VertexCount() int { return len(b.Positions) / 3 }

// TriangleCount returns the number of triangles encoded in Indices.
func (b Buffers) TriangleCount() int { return len(b.Indices) / 3 }

const (
	topShade   = 1.0
	eastShade  = 0.88
	northShade = 0.80
	southShade = 0.80
	westShade  = 0.65
)

// face direction deltas in the supertile grid, paired with shading and
// outward normal. Bottom is intentionally absent: it is never emitted.
type faceDir struct {
	dgx, dgy int
	shade    float32
	normal   [3]float32
}

var (
	faceEast  = faceDir{dgx: 1, dgy: 0, shade: eastShade, normal: [3]float32{1, 0, 0}}
	faceWest  = faceDir{dgx: -1, dgy: 0, shade: westShade, normal: [3]float32{-1, 0, 0}}
	faceNorth = faceDir{dgx: 0, dgy: -1, shade: northShade, normal: [3]float32{0, 0, -1}}
	faceSouth = faceDir{dgx: 0, dgy: 1, shade: southShade, normal: [3]float32{0, 0, 1}}
)

// Mesh converts ChunkData into a triangle mesh at the given LOD. Pure: no
// I/O, no shared state, depends only on its arguments. Never fails for a
// well-formed ChunkData (array length exactly TilesPerChunk is the caller's
// responsibility, per spec §4.2).
func Mesh(data gen.ChunkData, lod world.LOD) Buffers {
	step := lod.Step()
	tilesPerAxis := lod.TilesPerAxis()

	type column struct {
		height uint8
		biome  uint8
	}
	cols := make([]column, tilesPerAxis*tilesPerAxis)
	at := func(gx, gy int) column { return cols[gy*tilesPerAxis+gx] }

	baseX := int(data.Coord.CX) * world.ChunkSize
	baseY := int(data.Coord.CY) * world.ChunkSize

	for gy := 0; gy < tilesPerAxis; gy++ {
		for gx := 0; gx < tilesPerAxis; gx++ {
			h := blockMaxHeight(data, gx, gy, step)
			cx, cy := gx*step+step/2, gy*step+step/2
			b := data.Biomes[world.TileIndex(cx, cy)]
			cols[gy*tilesPerAxis+gx] = column{height: h, biome: b}
		}
	}

	// Pre-size to the worst case: 5 faces per supertile, 4 verts + 2 tris each.
	maxFaces := 5 * tilesPerAxis * tilesPerAxis
	buf := Buffers{
		Positions: make([]float32, 0, maxFaces*4*3),
		Normals:   make([]float32, 0, maxFaces*4*3),
		Colors:    make([]float32, 0, maxFaces*4*3),
		Indices:   make([]uint32, 0, maxFaces*6),
	}

	emitQuad := func(p [4][3]float32, normal [3]float32, color [3]float32) {
		base := uint32(buf.VertexCount())
		for _, v := range p {
			buf.Positions = append(buf.Positions, v[0], v[1], v[2])
			buf.Normals = append(buf.Normals, normal[0], normal[1], normal[2])
			buf.Colors = append(buf.Colors, color[0], color[1], color[2])
		}
		buf.Indices = append(buf.Indices,
			base+0, base+1, base+2,
			base+2, base+3, base+0,
		)
	}

	shadeColor := func(biome uint8, wx, wy int, shade float32) [3]float32 {
		r, g, b := gen.BiomeColor(biome)
		n := gen.ColumnColorNoise(wx, wy)
		return [3]float32{clamp01(r * shade * n), clamp01(g * shade * n), clamp01(b * shade * n)}
	}

	size := float32(step)

	for gy := 0; gy < tilesPerAxis; gy++ {
		for gx := 0; gx < tilesPerAxis; gx++ {
			c := at(gx, gy)
			h := float32(c.height)
			x0, x1 := float32(gx)*size, float32(gx+1)*size
			z0, z1 := float32(gy)*size, float32(gy+1)*size
			wx := baseX + gx*step + step/2
			wy := baseY + gy*step + step/2

			// Top face: always emitted.
			emitQuad([4][3]float32{
				{x0, h, z0}, {x1, h, z0}, {x1, h, z1}, {x0, h, z1},
			}, [3]float32{0, 1, 0}, shadeColor(c.biome, wx, wy, topShade))

			for _, f := range []faceDir{faceEast, faceWest, faceNorth, faceSouth} {
				ngx, ngy := gx+f.dgx, gy+f.dgy
				if ngx < 0 || ngx >= tilesPerAxis || ngy < 0 || ngy >= tilesPerAxis {
					continue // no neighbour within this chunk at this LOD
				}
				n := at(ngx, ngy)
				if n.height >= c.height {
					continue // only strictly shorter neighbours expose a side
				}
				nh := float32(n.height)
				quad := sideQuad(f, x0, x1, z0, z1, h, nh)
				emitQuad(quad, f.normal, shadeColor(c.biome, wx, wy, f.shade))
			}
		}
	}

	return buf
}

// sideQuad builds the 4 corners of a side face: the two upper vertices sit
// at this column's height, the two lower vertices sit at the neighbour's
// (shorter) height, producing a watertight cliff face (spec §4.2).
func sideQuad(f faceDir, x0, x1, z0, z1, h, neighborH float32) [4][3]float32 {
	switch {
	case f.dgx == 1: // east: face at x1, spans z0..z1
		return [4][3]float32{
			{x1, h, z0}, {x1, h, z1}, {x1, neighborH, z1}, {x1, neighborH, z0},
		}
	case f.dgx == -1: // west: face at x0, spans z0..z1 (reverse winding vs east)
		return [4][3]float32{
			{x0, h, z1}, {x0, h, z0}, {x0, neighborH, z0}, {x0, neighborH, z1},
		}
	case f.dgy == -1: // north: face at z0, spans x0..x1
		return [4][3]float32{
			{x1, h, z0}, {x0, h, z0}, {x0, neighborH, z0}, {x1, neighborH, z0},
		}
	default: // south: face at z1, spans x0..x1
		return [4][3]float32{
			{x0, h, z1}, {x1, h, z1}, {x1, neighborH, z1}, {x0, neighborH, z1},
		}
	}
}

// blockMaxHeight samples the maximum tile height in the s x s block whose
// top-left corner is (gx*s, gy*s), per spec §4.2's LOD downsampling rule.
func blockMaxHeight(data gen.ChunkData, gx, gy, step int) uint8 {
	var maxH uint8
	for dy := 0; dy < step; dy++ {
		for dx := 0; dx < step; dx++ {
			h := data.Heights[world.TileIndex(gx*step+dx, gy*step+dy)]
			if h > maxH {
				maxH = h
			}
		}
	}
	return maxH
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
