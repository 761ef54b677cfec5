// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package workerpool

import (
	"fmt"

	"github.com/ramonfueglister/roma-aeterna/world"
)

// TimeoutError is returned by a Future when its request's timeout elapses
// before any worker finished it.
type TimeoutError struct {
	Coord world.ChunkCoord
	LOD   world.LOD
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Timed Out for (%d,%d) LOD%d", e.Coord.CX, e.Coord.CY, e.LOD)
}

// CrashedError is returned by a Future whose worker panicked mid-task.
type CrashedError struct {
	Coord world.ChunkCoord
	LOD   world.LOD
}

func (e *CrashedError) Error() string {
	return fmt.Sprintf("worker crashed meshing (%d,%d) LOD%d", e.Coord.CX, e.Coord.CY, e.LOD)
}

// ErrDisposed is returned to every in-flight and queued request once Dispose
// runs.
var ErrDisposed = &disposedError{}

type disposedError struct{}

func (*disposedError) Error() string { return "pool disposed" }
