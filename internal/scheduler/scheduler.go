// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler implements the Chunk Scheduler (C7): the controller
// gluing the generator, mesher, cache, worker pool, and batch slabs
// together behind a single per-frame Update call. Grounded on the
// teacher's Hub (server/hub.go): one owner goroutine/thread, a bounded
// per-call work budget, and a pending-set check to discard stale
// asynchronous results — the same shape as Hub.run's register/unregister
// channel handling, adapted from a channel-select loop to an explicit
// Update method since C7 is driven by an external render loop, not its
// own goroutine.
package scheduler

import (
	"log"
	"math"

	"github.com/ramonfueglister/roma-aeterna/internal/cache"
	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/hashx"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/internal/slab"
	"github.com/ramonfueglister/roma-aeterna/internal/workerpool"
	"github.com/ramonfueglister/roma-aeterna/world"
)

// DefaultLoadBudgetPerFrame bounds how many new load requests one Update
// call may submit, regardless of how far the camera has moved.
const DefaultLoadBudgetPerFrame = 2

// lodBlend is LOD_BLEND from spec §4.7: 150 world units / CHUNK_SIZE.
const lodBlend = 150.0 / float64(world.ChunkSize)

var lodBoundaries = [3]int{9, 31, 94}

type loadedEntry struct {
	lod      world.LOD
	geometry slab.GeometryID
	instance slab.InstanceID
}

type inFlightRequest struct {
	coord       world.ChunkCoord
	lod         world.LOD
	isSwap      bool
	oldLOD      world.LOD
	generation  uint64
	fingerprint string
	future      *workerpool.Future
}

// Scheduler is the Chunk Scheduler (C7).
type Scheduler struct {
	slabs [4]*slab.Slab
	cache *cache.MeshCache
	pool  *workerpool.Pool

	loadRadius         int
	unloadRadius       int
	loadBudgetPerFrame int

	hasRun          bool
	cameraPos       world.Vec2f
	cameraChunk     world.ChunkCoord
	lastCameraChunk world.ChunkCoord
	lastLoadRadius  int
	windowSettled   bool

	loaded     map[world.ChunkCoord]*loadedEntry
	genCounter map[world.ChunkCoord]uint64
	pendingSet map[world.ChunkCoord]uint64
	inFlight   []*inFlightRequest

	events []Event

	// OnMeshReady and OnChunkUnloaded are the direct hooks from spec §4.7,
	// for systems that need handles into the slab rather than just events.
	OnMeshReady     func(coord world.ChunkCoord, lod world.LOD, geometry slab.GeometryID, instance slab.InstanceID)
	OnChunkUnloaded func(coord world.ChunkCoord)
}

// New constructs a Scheduler with one slab per LOD sized by slab.DefaultBudgets.
// A nil meshCache falls back to an in-memory cache; a nil pool makes every
// meshing job run synchronously on the calling (scheduler) thread.
func New(loadRadius, unloadRadius int, meshCache *cache.MeshCache, pool *workerpool.Pool) *Scheduler {
	if meshCache == nil {
		meshCache = cache.NewMeshCache(cache.NewMemoryStore())
	}
	s := &Scheduler{
		cache:              meshCache,
		pool:               pool,
		loadRadius:         loadRadius,
		unloadRadius:       unloadRadius,
		loadBudgetPerFrame: DefaultLoadBudgetPerFrame,
		loaded:             make(map[world.ChunkCoord]*loadedEntry),
		genCounter:         make(map[world.ChunkCoord]uint64),
		pendingSet:         make(map[world.ChunkCoord]uint64),
	}
	for l := world.LOD0; int(l) < len(s.slabs); l++ {
		s.slabs[l] = slab.New(l, slab.DefaultBudgets[l])
	}
	return s
}

// SetLoadBudgetPerFrame overrides DefaultLoadBudgetPerFrame.
func (s *Scheduler) SetLoadBudgetPerFrame(n int) { s.loadBudgetPerFrame = n }

// LoadedCount reports how many chunks are currently loaded.
func (s *Scheduler) LoadedCount() int { return len(s.loaded) }

// IsLoaded reports whether coord currently has a live slab instance.
func (s *Scheduler) IsLoaded(coord world.ChunkCoord) bool {
	_, ok := s.loaded[coord]
	return ok
}

// LODOf reports the LOD a loaded coord currently occupies.
func (s *Scheduler) LODOf(coord world.ChunkCoord) (world.LOD, bool) {
	e, ok := s.loaded[coord]
	if !ok {
		return 0, false
	}
	return e.lod, true
}

// Slab exposes one LOD's slab for renderer/test inspection.
func (s *Scheduler) Slab(lod world.LOD) *slab.Slab { return s.slabs[lod] }

// CameraPosition returns the raw world-space position passed to the most
// recent Update call.
func (s *Scheduler) CameraPosition() world.Vec2f { return s.cameraPos }

// LoadedWindow returns the axis-aligned world-space square the scheduler is
// currently trying to keep resident around the camera: a box of side
// (2*load_radius+1)*ChunkSize centered on the camera's exact position
// (spec's "loaded-chunk window", SPEC_FULL §3).
func (s *Scheduler) LoadedWindow() world.AABB {
	extent := float32(2*s.loadRadius+1) * world.ChunkSize
	return world.AABBFrom(s.cameraPos.X, s.cameraPos.Y, extent, extent)
}

// DrainEvents returns and clears the accumulated event log.
func (s *Scheduler) DrainEvents() []Event {
	e := s.events
	s.events = nil
	return e
}

func (s *Scheduler) emit(e Event) { s.events = append(s.events, e) }

// Update runs one scheduling pass for the given camera position. viewRange,
// if non-nil, overrides the configured load/unload radii (spec §4.7 step 2).
func (s *Scheduler) Update(cameraX, cameraZ float32, viewRange *int) {
	s.drainCompleted()

	s.cameraPos = world.Vec2f{X: cameraX, Y: cameraZ}
	shifted := s.cameraPos.
		Add(world.Vec2f{X: world.MapSize / 2, Y: world.MapSize / 2}).
		Div(world.ChunkSize).
		Floor()
	s.cameraChunk = world.ChunkCoord{CX: int32(shifted.X), CY: int32(shifted.Y)}

	if viewRange != nil {
		s.loadRadius = *viewRange
		s.unloadRadius = *viewRange + 4
	}

	s.applyBoundaryAlpha()

	if s.hasRun && s.windowSettled && s.cameraChunk == s.lastCameraChunk && s.loadRadius == s.lastLoadRadius {
		return
	}
	s.hasRun = true
	s.lastCameraChunk = s.cameraChunk
	s.lastLoadRadius = s.loadRadius

	budget := s.loadBudgetPerFrame
	s.windowSettled = s.loadPass(&budget)
	s.unloadPass()
	s.lodReassignPass()
}

// loadPass reports whether it walked the whole window without running out
// of budget.
func (s *Scheduler) loadPass(budget *int) bool {
	for _, off := range spiralOffsets(s.loadRadius) {
		if *budget <= 0 {
			return false
		}
		coord := s.cameraChunk.Add(off.dx, off.dy)
		if !coord.InBounds() {
			continue
		}
		if _, ok := s.loaded[coord]; ok {
			continue
		}
		if _, ok := s.pendingSet[coord]; ok {
			continue
		}
		dist := s.cameraChunk.ChebyshevDistance(coord)
		s.beginLoad(coord, world.LODForDistance(dist), false, 0)
		*budget--
	}
	return true
}

func (s *Scheduler) unloadPass() {
	for coord, entry := range s.loaded {
		if s.cameraChunk.ChebyshevDistance(coord) <= s.unloadRadius {
			continue
		}
		s.slabs[entry.lod].DeleteInstance(entry.instance)
		s.slabs[entry.lod].DeleteGeometry(entry.geometry)
		delete(s.loaded, coord)
		delete(s.pendingSet, coord)
		s.emit(Event{Kind: ChunkUnloaded, Coord: coord})
		if s.OnChunkUnloaded != nil {
			s.OnChunkUnloaded(coord)
		}
	}
}

func (s *Scheduler) lodReassignPass() {
	for coord, entry := range s.loaded {
		dist := s.cameraChunk.ChebyshevDistance(coord)
		desired := world.LODForDistance(dist)
		if desired == entry.lod {
			continue
		}
		if _, pending := s.pendingSet[coord]; pending {
			continue
		}
		s.beginLoad(coord, desired, true, entry.lod)
	}
}

// beginLoad runs the load/meshing protocol (spec §4.7) for one coord: mark
// pending, generate, fingerprint, check the cache, then either dispatch to
// the pool or mesh synchronously.
func (s *Scheduler) beginLoad(coord world.ChunkCoord, lod world.LOD, isSwap bool, oldLOD world.LOD) {
	s.genCounter[coord]++
	g := s.genCounter[coord]
	s.pendingSet[coord] = g

	data := gen.Generate(coord)
	fp := hashx.Fingerprint(data)

	if buf, ok := s.cache.Get(coord, lod, fp); ok {
		s.applyResult(coord, lod, isSwap, oldLOD, g, buf)
		return
	}

	if s.pool != nil {
		future := s.pool.RequestMesh(coord, lod)
		s.inFlight = append(s.inFlight, &inFlightRequest{
			coord: coord, lod: lod, isSwap: isSwap, oldLOD: oldLOD,
			generation: g, fingerprint: fp, future: future,
		})
		return
	}

	buf := mesh.Mesh(data, lod)
	s.cache.Put(coord, lod, fp, buf)
	s.applyResult(coord, lod, isSwap, oldLOD, g, buf)
}

// drainCompleted polls every outstanding worker-pool request without
// blocking, applying whichever have finished.
func (s *Scheduler) drainCompleted() {
	if len(s.inFlight) == 0 {
		return
	}
	remaining := s.inFlight[:0]
	for _, req := range s.inFlight {
		select {
		case r := <-req.future.Done():
			if s.pendingSet[req.coord] != req.generation {
				continue // superseded or unloaded while in flight (P12)
			}
			if r.Err != nil {
				// Worker timeout or crash: fall back to synchronous meshing
				// on the scheduling thread, per spec §4.7 step 5.
				data := gen.Generate(req.coord)
				buf := mesh.Mesh(data, req.lod)
				s.cache.Put(req.coord, req.lod, req.fingerprint, buf)
				s.applyResult(req.coord, req.lod, req.isSwap, req.oldLOD, req.generation, buf)
				continue
			}
			s.cache.Put(req.coord, req.lod, req.fingerprint, r.Buffers)
			s.applyResult(req.coord, req.lod, req.isSwap, req.oldLOD, req.generation, r.Buffers)
		default:
			remaining = append(remaining, req)
		}
	}
	s.inFlight = remaining
}

// applyResult finishes the load/swap protocol once a mesh is in hand,
// discarding stale or racing results per the pending-set check.
func (s *Scheduler) applyResult(coord world.ChunkCoord, lod world.LOD, isSwap bool, oldLOD world.LOD, generation uint64, buf mesh.Buffers) {
	if s.pendingSet[coord] != generation {
		return
	}
	if isSwap {
		old, ok := s.loaded[coord]
		if !ok || old.lod != oldLOD {
			delete(s.pendingSet, coord)
			return
		}
	} else if _, ok := s.loaded[coord]; ok {
		delete(s.pendingSet, coord)
		return
	}

	geomID, err := s.slabs[lod].AddGeometry(buf)
	if err != nil {
		// Slab full: log-and-drop. Do not retain coord; the next
		// scheduling pass may retry it.
		log.Printf("scheduler: LOD%d slab full, dropping chunk %v", lod, coord)
		delete(s.pendingSet, coord)
		if isSwap {
			old := s.loaded[coord]
			s.slabs[old.lod].DeleteInstance(old.instance)
			s.slabs[old.lod].DeleteGeometry(old.geometry)
			delete(s.loaded, coord)
			s.emit(Event{Kind: ChunkUnloaded, Coord: coord})
			if s.OnChunkUnloaded != nil {
				s.OnChunkUnloaded(coord)
			}
		}
		return
	}
	instID := s.slabs[lod].AddInstance(geomID)
	s.slabs[lod].SetMatrix(instID, world.ChunkPlacement(coord))
	s.slabs[lod].SetTint(instID, 1, 1, 1, 1)

	if isSwap {
		old := s.loaded[coord]
		s.slabs[old.lod].DeleteInstance(old.instance)
		s.slabs[old.lod].DeleteGeometry(old.geometry)
	}

	s.loaded[coord] = &loadedEntry{lod: lod, geometry: geomID, instance: instID}
	delete(s.pendingSet, coord)

	if isSwap {
		s.emit(Event{Kind: LODChanged, Coord: coord, LOD: lod})
	} else {
		s.emit(Event{Kind: ChunkLoaded, Coord: coord})
	}
	if s.OnMeshReady != nil {
		s.OnMeshReady(coord, lod, geomID, instID)
	}
}

// applyBoundaryAlpha runs every scheduling pass (even idempotent ones, per
// spec §4.7 step 3) so fading stays continuous as the camera approaches a
// boundary without necessarily crossing a whole chunk.
func (s *Scheduler) applyBoundaryAlpha() {
	for coord, entry := range s.loaded {
		dist := s.cameraChunk.ChebyshevDistance(coord)
		alpha := boundaryAlpha(dist)
		s.slabs[entry.lod].SetTint(entry.instance, 1, 1, 1, alpha)
	}
}

func boundaryAlpha(dist int) float32 {
	minDelta := math.MaxInt32
	nearestBoundary := 0
	for _, b := range lodBoundaries {
		delta := dist - b
		if delta < 0 {
			delta = -delta
		}
		if delta < minDelta {
			minDelta = delta
			nearestBoundary = b
		}
	}
	if float64(minDelta) >= lodBlend {
		return 1.0
	}
	frac := float32(float64(minDelta) / lodBlend)
	var alpha float32
	if dist >= nearestBoundary {
		alpha = frac // far side: fading in
	} else {
		alpha = 1 - frac // near side: fading out
	}
	if alpha < 0.05 {
		alpha = 0.05
	}
	return alpha
}
