// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"fmt"

	"github.com/ramonfueglister/roma-aeterna/internal/codec"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/world"
)

// MeshCache is the Mesh Cache (C4): a persistent mapping from
// (coord, lod, fingerprint) to mesh buffers over an opaque Store. Both
// directions are best-effort — every Store error is swallowed, since the
// caller must always be prepared to treat a cache miss as the source of
// truth (spec §4.4).
type MeshCache struct {
	store Store
}

func NewMeshCache(store Store) *MeshCache {
	return &MeshCache{store: store}
}

func key(coord world.ChunkCoord, lod world.LOD, fingerprint string) string {
	return fmt.Sprintf("mesh:%s:%d:%s", coord.String(), lod, fingerprint)
}

// Get returns the cached buffers and true on a hit. Any Store error, a
// missing key, or a corrupt blob are all treated identically as a miss.
func (c *MeshCache) Get(coord world.ChunkCoord, lod world.LOD, fingerprint string) (mesh.Buffers, bool) {
	blob, err := c.store.Get(key(coord, lod, fingerprint))
	if err != nil {
		return mesh.Buffers{}, false
	}
	buf, err := codec.DecodeMeshBlob(blob)
	if err != nil {
		return mesh.Buffers{}, false
	}
	return buf, true
}

// Put stores buffers for later Get. Store failures are swallowed: a failed
// Put simply means future Gets will miss, which callers already tolerate.
func (c *MeshCache) Put(coord world.ChunkCoord, lod world.LOD, fingerprint string, buf mesh.Buffers) {
	_ = c.store.Put(key(coord, lod, fingerprint), codec.EncodeMeshBlob(buf))
}

// Invalidate removes every LOD+fingerprint variant cached for coord.
func (c *MeshCache) Invalidate(coord world.ChunkCoord) {
	prefix := fmt.Sprintf("mesh:%s:", coord.String())
	keys, err := c.store.ListKeys(prefix)
	if err != nil {
		return
	}
	for _, k := range keys {
		_ = c.store.Delete(k)
	}
}

// Clear removes every entry the cache has ever written.
func (c *MeshCache) Clear() {
	keys, err := c.store.ListKeys("mesh:")
	if err != nil {
		return
	}
	for _, k := range keys {
		_ = c.store.Delete(k)
	}
}
