// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package slab

import "github.com/ramonfueglister/roma-aeterna/world"

// InstanceView is one draw instance as the renderer sees it: which slot's
// geometry to draw, with which world transform and tint.
type InstanceView struct {
	Geometry GeometryID
	Matrix   world.Mat4
	Tint     [4]float32
}

// RenderHandle is the opaque back-end handle C6 owns and the renderer reads
// (spec §4.6). Positions/Normals/Colors/Indices are the raw arena contents;
// Instances lists every live draw call against them. Material is
// vertex-coloured, flat-shaded, depth_write=false, with render order equal
// to the slab's LOD so coarser LODs draw behind finer ones.
type RenderHandle struct {
	Positions   []float32
	Normals     []float32
	Colors      []float32
	Indices     []uint32
	Instances   []InstanceView
	RenderOrder int
	DepthWrite  bool
}

// Handle produces a view over the slab's current state. Vertices and Indices
// alias the slab's arenas directly; Instances is a copy taken at call time.
// Safe to read from the
// rendering thread, which is the only thread ever allowed to mutate a slab
// (spec §4.6 thread-affinity).
func (s *Slab) Handle() RenderHandle {
	views := make([]InstanceView, len(s.instances))
	for i, inst := range s.instances {
		views[i] = InstanceView{Geometry: inst.geometry, Matrix: inst.matrix, Tint: inst.tint}
	}
	return RenderHandle{
		Positions:   s.positions,
		Normals:     s.normals,
		Colors:      s.colors,
		Indices:     s.indices,
		Instances:   views,
		RenderOrder: int(s.lod),
		DepthWrite:  false,
	}
}
