// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package slab

import (
	"testing"

	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/world"
)

func sampleMesh(t *testing.T, coord world.ChunkCoord, lod world.LOD) mesh.Buffers {
	t.Helper()
	return mesh.Mesh(gen.Generate(coord), lod)
}

func TestSlab_AddGeometryThenInstanceRoundTrips(t *testing.T) {
	buf := sampleMesh(t, world.ChunkCoord{CX: 1, CY: 1}, world.LOD3)
	s := New(world.LOD3, DefaultBudgets[world.LOD3])

	geomID, err := s.AddGeometry(buf)
	if err != nil {
		t.Fatalf("AddGeometry: %v", err)
	}
	instID := s.AddInstance(geomID)

	h := s.Handle()
	if len(h.Instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(h.Instances))
	}
	if h.Instances[0].Tint != ([4]float32{1, 1, 1, 1}) {
		t.Fatalf("expected default opaque white tint, got %v", h.Instances[0].Tint)
	}

	m := world.ChunkPlacement(world.ChunkCoord{CX: 1, CY: 1})
	s.SetMatrix(instID, m)
	s.SetTint(instID, 1, 1, 1, 0.5)

	h = s.Handle()
	if h.Instances[0].Matrix != m {
		t.Fatalf("SetMatrix did not take effect")
	}
	if h.Instances[0].Tint != ([4]float32{1, 1, 1, 0.5}) {
		t.Fatalf("SetTint did not take effect")
	}
}

func TestSlab_CapacityRestoredAfterDelete(t *testing.T) {
	budget := DefaultBudgets[world.LOD0]
	budget.MaxChunks = 2
	s := New(world.LOD0, budget)

	buf := sampleMesh(t, world.ChunkCoord{CX: 2, CY: 2}, world.LOD0)

	g1, err := s.AddGeometry(buf)
	if err != nil {
		t.Fatalf("AddGeometry 1: %v", err)
	}
	if _, err := s.AddGeometry(buf); err != nil {
		t.Fatalf("AddGeometry 2: %v", err)
	}
	if s.FreeSlotCount() != 0 {
		t.Fatalf("expected slab to be full, got %d free slots", s.FreeSlotCount())
	}
	if _, err := s.AddGeometry(buf); err != ErrSlabFull {
		t.Fatalf("expected ErrSlabFull on a full slab, got %v", err)
	}

	s.DeleteGeometry(g1)
	if s.FreeSlotCount() != 1 {
		t.Fatalf("expected 1 free slot after delete, got %d", s.FreeSlotCount())
	}
	if _, err := s.AddGeometry(buf); err != nil {
		t.Fatalf("expected capacity restored after delete, got %v", err)
	}
}

func TestSlab_AddGeometryRejectsOversizedBuffers(t *testing.T) {
	tiny := Budget{MaxChunks: 4, VertsPerChunk: 1, IndicesPerChunk: 1}
	s := New(world.LOD0, tiny)

	buf := sampleMesh(t, world.ChunkCoord{CX: 3, CY: 3}, world.LOD0)
	if _, err := s.AddGeometry(buf); err != ErrSlabFull {
		t.Fatalf("expected ErrSlabFull for a buffer exceeding per-slot budget, got %v", err)
	}
}

func TestSlab_DeleteInstanceRemovesItAndKeepsOthersAddressable(t *testing.T) {
	s := New(world.LOD2, DefaultBudgets[world.LOD2])
	buf := sampleMesh(t, world.ChunkCoord{CX: 4, CY: 4}, world.LOD2)
	geom, _ := s.AddGeometry(buf)

	a := s.AddInstance(geom)
	b := s.AddInstance(geom)
	c := s.AddInstance(geom)

	s.DeleteInstance(a)
	if s.InstanceCount() != 2 {
		t.Fatalf("expected 2 instances after delete, got %d", s.InstanceCount())
	}

	s.SetTint(b, 0.1, 0.2, 0.3, 0.4)
	s.SetTint(c, 0.5, 0.6, 0.7, 0.8)

	var gotB, gotC bool
	for _, inst := range s.Handle().Instances {
		switch inst.Tint {
		case [4]float32{0.1, 0.2, 0.3, 0.4}:
			gotB = true
		case [4]float32{0.5, 0.6, 0.7, 0.8}:
			gotC = true
		}
	}
	if !gotB || !gotC {
		t.Fatalf("expected both surviving instances' tints to be independently addressable after delete")
	}
}

func TestSlab_RenderHandleReflectsLODOrdering(t *testing.T) {
	s := New(world.LOD2, DefaultBudgets[world.LOD2])
	if got := s.Handle().RenderOrder; got != 2 {
		t.Fatalf("expected render order 2, got %d", got)
	}
	if s.Handle().DepthWrite {
		t.Fatalf("expected depth_write=false for alpha-blended LOD layers")
	}
}
