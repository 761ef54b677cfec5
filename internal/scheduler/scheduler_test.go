// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ramonfueglister/roma-aeterna/internal/cache"
	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/internal/workerpool"
	"github.com/ramonfueglister/roma-aeterna/world"
)

// centerChunk is the chunk camera=(0,0) maps to: floor((0+1024)/32) = 32.
var centerChunk = world.ChunkCoord{CX: 32, CY: 32}

func sampleBuffers(t *testing.T, coord world.ChunkCoord, lod world.LOD) mesh.Buffers {
	t.Helper()
	return mesh.Mesh(gen.Generate(coord), lod)
}

func countEvents(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// TestScheduler_FreshBootLoadsFullWindow is scenario S1.
func TestScheduler_FreshBootLoadsFullWindow(t *testing.T) {
	s := New(2, 3, nil, nil)

	loadedTotal := 0
	for i := 0; i < 13; i++ {
		s.Update(0, 0, nil)
		loadedTotal += countEvents(s.DrainEvents(), ChunkLoaded)
	}

	if s.LoadedCount() != 25 {
		t.Fatalf("expected 25 loaded chunks, got %d", s.LoadedCount())
	}
	if loadedTotal != 25 {
		t.Fatalf("expected exactly 25 chunk_loaded events across all calls, got %d", loadedTotal)
	}
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			c := centerChunk.Add(int32(dx), int32(dy))
			if !s.IsLoaded(c) {
				t.Fatalf("expected %s to be loaded", c)
			}
		}
	}
}

// TestScheduler_MoveByOneChunk is scenario S2.
func TestScheduler_MoveByOneChunk(t *testing.T) {
	s := New(2, 3, nil, nil)
	for i := 0; i < 13; i++ {
		s.Update(0, 0, nil)
	}
	s.DrainEvents()

	var loaded, unloaded int
	for i := 0; i < 20; i++ {
		s.Update(world.ChunkSize, 0, nil)
		evs := s.DrainEvents()
		loaded += countEvents(evs, ChunkLoaded)
		unloaded += countEvents(evs, ChunkUnloaded)
	}

	if s.LoadedCount() != 25 {
		t.Fatalf("expected 25 loaded chunks after the move, got %d", s.LoadedCount())
	}
	if loaded != 5 {
		t.Fatalf("expected exactly 5 new chunk_loaded events, got %d", loaded)
	}
	if unloaded != 5 {
		t.Fatalf("expected exactly 5 chunk_unloaded events, got %d", unloaded)
	}
	newCenter := world.ChunkCoord{CX: 33, CY: 32}
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			if !s.IsLoaded(newCenter.Add(int32(dx), int32(dy))) {
				t.Fatalf("expected %s to be loaded after the move", newCenter.Add(int32(dx), int32(dy)))
			}
		}
	}
}

// TestScheduler_LODBoundarySweep is scenario S3.
func TestScheduler_LODBoundarySweep(t *testing.T) {
	s := New(15, 20, nil, nil)
	s.SetLoadBudgetPerFrame(4096)

	s.Update(0, 0, nil)
	s.DrainEvents()
	if lod, ok := s.LODOf(centerChunk); !ok || lod != world.LOD0 {
		t.Fatalf("expected centerChunk to start at LOD0, got %v ok=%v", lod, ok)
	}

	var sawTransition bool
	for k := 1; k <= 11; k++ {
		s.Update(float32(k)*world.ChunkSize, 0, nil)
		evs := s.DrainEvents()
		for _, e := range evs {
			if e.Kind == LODChanged && e.Coord == centerChunk {
				if k != 10 {
					t.Fatalf("expected the LOD0->1 transition at k=10, happened at k=%d", k)
				}
				if e.LOD != world.LOD1 {
					t.Fatalf("expected transition to LOD1, got %v", e.LOD)
				}
				sawTransition = true
			}
		}
	}
	if !sawTransition {
		t.Fatalf("expected a lod_changed event for centerChunk by d=11")
	}
	lod, ok := s.LODOf(centerChunk)
	if !ok || lod != world.LOD1 {
		t.Fatalf("expected centerChunk to end at LOD1, got %v ok=%v", lod, ok)
	}

	entry, ok := s.loaded[centerChunk]
	if !ok {
		t.Fatalf("expected centerChunk to still be loaded")
	}
	tint := tintOf(s, entry)
	if tint >= 1.0 {
		t.Fatalf("expected alpha to dip below 1.0 in the boundary band, got %v", tint)
	}
	if tint < 0.05 {
		t.Fatalf("expected alpha to never fall below the anti-pop floor 0.05, got %v", tint)
	}
}

func tintOf(s *Scheduler, e *loadedEntry) float32 {
	for _, inst := range s.slabs[e.lod].Handle().Instances {
		if inst.Geometry == e.geometry {
			return inst.Tint[3]
		}
	}
	return -1
}

// TestScheduler_Idempotence is P7.
func TestScheduler_Idempotence(t *testing.T) {
	s := New(2, 3, nil, nil)
	for i := 0; i < 13; i++ {
		s.Update(0, 0, nil)
	}
	before := s.LoadedCount()

	s.Update(0, 0, nil)
	s.Update(0, 0, nil)

	if s.LoadedCount() != before {
		t.Fatalf("expected identical repeated update to load the same set, got %d want %d", s.LoadedCount(), before)
	}
}

// TestScheduler_LoadBudgetCapsSubmissionsPerUpdate is P8.
func TestScheduler_LoadBudgetCapsSubmissionsPerUpdate(t *testing.T) {
	s := New(5, 8, nil, nil)
	s.Update(0, 0, nil)
	if got := countEvents(s.DrainEvents(), ChunkLoaded); got > DefaultLoadBudgetPerFrame {
		t.Fatalf("expected at most %d loads in one update, got %d", DefaultLoadBudgetPerFrame, got)
	}
}

// TestScheduler_UnloadHysteresis is P9.
func TestScheduler_UnloadHysteresis(t *testing.T) {
	s := New(2, 4, nil, nil)
	s.SetLoadBudgetPerFrame(1024)
	s.Update(0, 0, nil)

	edge := centerChunk.Add(2, 0) // distance 2, inside load_radius
	if !s.IsLoaded(edge) {
		t.Fatalf("expected edge chunk to be loaded")
	}

	// Move camera so edge's distance becomes 4: still <= unload_radius(4).
	s.Update(-2*world.ChunkSize, 0, nil)
	if !s.IsLoaded(edge) {
		t.Fatalf("expected edge chunk to remain loaded at distance == unload_radius")
	}

	// Move further: distance becomes 5 > unload_radius(4).
	s.Update(-3*world.ChunkSize, 0, nil)
	if s.IsLoaded(edge) {
		t.Fatalf("expected edge chunk to be unloaded once distance exceeds unload_radius")
	}
}

// TestScheduler_StaleResponseDiscardedAfterUnload is P12: a result arriving
// for a coord whose pending generation has since moved on (re-pended,
// unloaded, or swapped) must never land in a slab.
func TestScheduler_StaleResponseDiscardedAfterUnload(t *testing.T) {
	s := New(1, 1, nil, nil)
	coord := centerChunk

	s.genCounter[coord] = 1
	s.pendingSet[coord] = 1
	// The coord moves on to a new generation (e.g. unloaded then reloaded,
	// or LOD-swapped) before the original result arrives.
	s.genCounter[coord] = 2
	s.pendingSet[coord] = 2

	sample := sampleBuffers(t, coord, world.LOD0)
	s.applyResult(coord, world.LOD0, false, 0, 1 /* stale generation */, sample)

	if s.IsLoaded(coord) {
		t.Fatalf("expected a stale result to be discarded, not loaded into a slab")
	}
}

// TestScheduler_LoadedWindowTracksCamera exercises the world.Vec2f/AABB
// plumbing behind LoadedWindow and CameraPosition.
func TestScheduler_LoadedWindowTracksCamera(t *testing.T) {
	s := New(2, 3, nil, nil)
	s.Update(64, -32, nil)

	pos := s.CameraPosition()
	if pos.X != 64 || pos.Y != -32 {
		t.Fatalf("expected CameraPosition {64,-32}, got %v", pos)
	}

	window := s.LoadedWindow()
	wantSide := float32(2*2+1) * world.ChunkSize
	if window.Width != wantSide || window.Height != wantSide {
		t.Fatalf("expected window side %v, got {%v,%v}", wantSide, window.Width, window.Height)
	}
	if window.X != pos.X || window.Y != pos.Y {
		t.Fatalf("expected window centered on the camera, got center {%v,%v}", window.X, window.Y)
	}

	ox, oz := world.ChunkCoord{CX: 34, CY: 31}.WorldOrigin() // chunk holding (64,-32)
	chunkBox := world.AABBFrom(ox+world.ChunkSize/2, oz+world.ChunkSize/2, 1, 1)
	if !window.Intersects(chunkBox) {
		t.Fatalf("expected the loaded window to intersect the camera's own chunk")
	}
}

// TestScheduler_CacheHitPathSkipsWorkerPool is scenario S5: a warm cache
// means a second scheduler run against the same store never needs the pool.
func TestScheduler_CacheHitPathSkipsWorkerPool(t *testing.T) {
	store := cache.NewMeshCache(cache.NewMemoryStore())

	warm := New(2, 3, store, nil)
	for i := 0; i < 13; i++ {
		warm.Update(0, 0, nil)
	}
	if warm.LoadedCount() != 25 {
		t.Fatalf("expected the warm-up run to load 25 chunks, got %d", warm.LoadedCount())
	}

	var meshCalls int32
	countingMesh := func(coord world.ChunkCoord, lod world.LOD) mesh.Buffers {
		atomic.AddInt32(&meshCalls, 1)
		return workerpool.DefaultMeshFunc(coord, lod)
	}
	pool := workerpool.NewPool(2, time.Second, countingMesh)
	defer pool.Dispose()

	restarted := New(2, 3, store, pool)
	for i := 0; i < 13; i++ {
		restarted.Update(0, 0, nil)
	}

	if restarted.LoadedCount() != 25 {
		t.Fatalf("expected the restarted run to load 25 chunks, got %d", restarted.LoadedCount())
	}
	if atomic.LoadInt32(&meshCalls) != 0 {
		t.Fatalf("expected zero worker-pool meshing calls on an all-hits cache, got %d", meshCalls)
	}
}

// TestScheduler_FallsBackToSyncMeshOnWorkerFailure exercises the worker
// failure path of the load/meshing protocol (spec §4.7 step 5).
func TestScheduler_FallsBackToSyncMeshOnWorkerFailure(t *testing.T) {
	var mu sync.Mutex
	first := true
	flaky := func(coord world.ChunkCoord, lod world.LOD) mesh.Buffers {
		mu.Lock()
		crash := first
		first = false
		mu.Unlock()
		if crash {
			panic("simulated worker crash")
		}
		return workerpool.DefaultMeshFunc(coord, lod)
	}
	pool := workerpool.NewPool(1, time.Second, flaky)
	defer pool.Dispose()

	s := New(0, 1, nil, pool)
	s.Update(0, 0, nil)

	for i := 0; i < 100 && !s.IsLoaded(centerChunk); i++ {
		time.Sleep(2 * time.Millisecond)
		s.Update(0, 0, nil)
	}

	if !s.IsLoaded(centerChunk) {
		t.Fatalf("expected the scheduler to recover via synchronous fallback after a worker crash")
	}
}
