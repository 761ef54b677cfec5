// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"testing"

	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/hashx"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/world"
)

func sampleBuffers(t *testing.T) (world.ChunkCoord, string, mesh.Buffers) {
	t.Helper()
	coord := world.ChunkCoord{CX: 3, CY: 9}
	data := gen.Generate(coord)
	return coord, hashx.Fingerprint(data), mesh.Mesh(data, world.LOD1)
}

func TestMeshCache_MissBeforePut(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, _ := sampleBuffers(t)

	if _, ok := c.Get(coord, world.LOD1, fp); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestMeshCache_HitAfterPut(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, buf := sampleBuffers(t)

	c.Put(coord, world.LOD1, fp, buf)

	got, ok := c.Get(coord, world.LOD1, fp)
	if !ok {
		t.Fatalf("expected hit after put")
	}
	if len(got.Positions) != len(buf.Positions) || len(got.Indices) != len(buf.Indices) {
		t.Fatalf("round-tripped buffers have mismatched lengths")
	}
}

func TestMeshCache_DistinctLODsAreDistinctKeys(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, buf := sampleBuffers(t)

	c.Put(coord, world.LOD0, fp, buf)

	if _, ok := c.Get(coord, world.LOD1, fp); ok {
		t.Fatalf("expected LOD1 to miss when only LOD0 was stored")
	}
	if _, ok := c.Get(coord, world.LOD0, fp); !ok {
		t.Fatalf("expected LOD0 to hit")
	}
}

func TestMeshCache_DistinctFingerprintsAreDistinctKeys(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, buf := sampleBuffers(t)

	c.Put(coord, world.LOD1, fp, buf)

	if _, ok := c.Get(coord, world.LOD1, "stale-fingerprint"); ok {
		t.Fatalf("expected a changed fingerprint to miss the cache")
	}
}

func TestMeshCache_InvalidateRemovesAllVariantsForCoord(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, buf := sampleBuffers(t)
	other := world.ChunkCoord{CX: coord.CX + 1, CY: coord.CY}
	otherData := gen.Generate(other)
	otherFp := hashx.Fingerprint(otherData)

	c.Put(coord, world.LOD0, fp, buf)
	c.Put(coord, world.LOD1, fp, buf)
	c.Put(other, world.LOD0, otherFp, buf)

	c.Invalidate(coord)

	if _, ok := c.Get(coord, world.LOD0, fp); ok {
		t.Fatalf("expected LOD0 entry for coord to be invalidated")
	}
	if _, ok := c.Get(coord, world.LOD1, fp); ok {
		t.Fatalf("expected LOD1 entry for coord to be invalidated")
	}
	if _, ok := c.Get(other, world.LOD0, otherFp); !ok {
		t.Fatalf("expected other coord's entry to survive invalidation")
	}
}

func TestMeshCache_ClearRemovesEverything(t *testing.T) {
	c := NewMeshCache(NewMemoryStore())
	coord, fp, buf := sampleBuffers(t)
	other := world.ChunkCoord{CX: coord.CX + 1, CY: coord.CY}
	otherData := gen.Generate(other)
	otherFp := hashx.Fingerprint(otherData)

	c.Put(coord, world.LOD0, fp, buf)
	c.Put(other, world.LOD0, otherFp, buf)

	c.Clear()

	if _, ok := c.Get(coord, world.LOD0, fp); ok {
		t.Fatalf("expected Clear to remove coord entry")
	}
	if _, ok := c.Get(other, world.LOD0, otherFp); ok {
		t.Fatalf("expected Clear to remove other entry")
	}
}

// failingStore always errors, exercising the best-effort swallow contract.
type failingStore struct{}

func (failingStore) Get(string) ([]byte, error)        { return nil, ErrNotFound }
func (failingStore) Put(string, []byte) error          { return errBoom }
func (failingStore) Delete(string) error                { return errBoom }
func (failingStore) ListKeys(string) ([]string, error) { return nil, errBoom }

var errBoom = &storeError{"boom"}

type storeError struct{ msg string }

func (e *storeError) Error() string { return e.msg }

func TestMeshCache_ToleratesStoreFailures(t *testing.T) {
	c := NewMeshCache(failingStore{})
	coord, fp, buf := sampleBuffers(t)

	// None of these should panic; Put/Invalidate/Clear swallow errors and
	// Get simply reports a miss.
	c.Put(coord, world.LOD0, fp, buf)
	if _, ok := c.Get(coord, world.LOD0, fp); ok {
		t.Fatalf("expected miss when the store is failing")
	}
	c.Invalidate(coord)
	c.Clear()
}
