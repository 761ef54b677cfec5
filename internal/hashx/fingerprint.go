// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hashx implements the Content Hasher (C3): a fast, non-cryptographic
// fingerprint over a chunk's four tile arrays. Uses the standard library's
// hash/fnv rather than a third-party package — FNV-1a is itself a named,
// standard algorithm the Go standard library implements directly, and no
// repository in the retrieved pack reaches for a third-party hashing library
// for a content fingerprint (see DESIGN.md).
package hashx

import (
	"fmt"
	"hash/fnv"

	"github.com/ramonfueglister/roma-aeterna/internal/gen"
)

// Fingerprint computes the stable "<h>-<b>-<f>-<p>" identity of a chunk's
// tile data, per spec §3/§4.3. Collisions are treated as impossibly rare and
// unhandled: a collision would merely serve a visually-inert stale mesh.
func Fingerprint(data gen.ChunkData) string {
	return fmt.Sprintf("%s-%s-%s-%s",
		hashBytes(data.Heights[:]),
		hashBytes(data.Biomes[:]),
		hashBytes(data.Flags[:]),
		hashBytes(data.Provinces[:]),
	)
}

func hashBytes(b []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(b) // hash.Hash32.Write never errors
	return fmt.Sprintf("%08x", h.Sum32())
}
