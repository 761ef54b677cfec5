// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workerpool implements the Worker Pool (C5): a fixed-size set of
// goroutines that run greedy-meshing jobs off the scheduler's thread, with
// least-loaded dispatch, an overflow FIFO queue, per-request timeouts, and
// worker crash recovery. Modeled on the single-goroutine run-loop idiom of
// the teacher's Hub (server/hub.go): all pool bookkeeping lives in one
// goroutine reached only through channels, so it needs no locks.
package workerpool

import (
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"

	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/world"
)

// MeshFunc performs the (potentially slow, potentially panicking) meshing
// work a worker goroutine carries out for one request.
type MeshFunc func(coord world.ChunkCoord, lod world.LOD) mesh.Buffers

// DefaultMeshFunc chains the ChunkData Generator and Greedy Mesher, the
// pairing C5 exists to run off the scheduling thread.
func DefaultMeshFunc(coord world.ChunkCoord, lod world.LOD) mesh.Buffers {
	return mesh.Mesh(gen.Generate(coord), lod)
}

// DefaultTimeout is the per-request timeout used when Pool is constructed
// without an explicit one.
const DefaultTimeout = 5 * time.Second

type task struct {
	id    uint64
	coord world.ChunkCoord
	lod   world.LOD
}

type requestMsg struct {
	id       uint64
	coord    world.ChunkCoord
	lod      world.LOD
	resultCh chan Result
}

type workerResult struct {
	workerIdx  int
	generation uuid.UUID
	id         uint64
	buffers    mesh.Buffers
	crashed    bool
}

type worker struct {
	idx        int
	generation uuid.UUID
	taskCh     chan task
	busy       bool
}

type pendingEntry struct {
	req        *requestMsg
	workerIdx  int
	generation uuid.UUID
	timer      *time.Timer
}

type timeoutMsg struct {
	id uint64
}

type setSizeMsg struct {
	size int
	done chan struct{}
}

// Pool is the C5 Worker Pool.
type Pool struct {
	meshFn  MeshFunc
	timeout time.Duration

	submitCh  chan *requestMsg
	doneCh    chan workerResult
	timeoutCh chan timeoutMsg
	setSizeCh chan setSizeMsg
	disposeCh chan chan struct{}

	nextID uint64
}

// NewPool starts size worker goroutines and the pool's control loop.
func NewPool(size int, timeout time.Duration, meshFn MeshFunc) *Pool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if meshFn == nil {
		meshFn = DefaultMeshFunc
	}
	p := &Pool{
		meshFn:    meshFn,
		timeout:   timeout,
		submitCh:  make(chan *requestMsg),
		doneCh:    make(chan workerResult),
		timeoutCh: make(chan timeoutMsg),
		setSizeCh: make(chan setSizeMsg),
		disposeCh: make(chan chan struct{}),
	}
	go p.run(size)
	return p
}

// RequestMesh enqueues a meshing job and returns a Future for its result.
// Dispatch is least-loaded with lowest-index-wins on ties; if every worker
// already has a task in flight, the request queues in FIFO order instead of
// piling onto a busy worker.
func (p *Pool) RequestMesh(coord world.ChunkCoord, lod world.LOD) *Future {
	req := &requestMsg{
		id:       atomic.AddUint64(&p.nextID, 1),
		coord:    coord,
		lod:      lod,
		resultCh: make(chan Result, 1),
	}
	p.submitCh <- req
	return &Future{resultCh: req.resultCh}
}

// SetPoolSize adjusts the number of workers. Growing spawns new workers
// immediately. Shrinking removes workers from the end of the pool: idle ones
// stop at once, and a busy one (with any idle ones before it) stops once it
// finishes its in-flight task.
func (p *Pool) SetPoolSize(size int) {
	done := make(chan struct{})
	p.setSizeCh <- setSizeMsg{size: size, done: done}
	<-done
}

// Dispose rejects every in-flight and queued request with ErrDisposed and
// terminates all workers. The pool must not be used afterward.
func (p *Pool) Dispose() {
	done := make(chan struct{})
	p.disposeCh <- done
	<-done
}

func (p *Pool) run(initialSize int) {
	workers := make([]*worker, 0, initialSize)
	targetSize := initialSize
	var queue []*requestMsg
	pending := make(map[uint64]*pendingEntry)

	spawn := func(idx int) *worker {
		w := &worker{idx: idx, generation: uuid.Must(uuid.NewV4()), taskCh: make(chan task, 1)}
		go p.runWorker(w)
		return w
	}

	for i := 0; i < initialSize; i++ {
		workers = append(workers, spawn(i))
	}

	dispatch := func() {
		for len(queue) > 0 {
			idx := leastLoadedIdle(workers)
			if idx < 0 {
				return
			}
			req := queue[0]
			queue = queue[1:]
			assign(p, workers[idx], req, pending)
		}
	}

	for {
		select {
		case req := <-p.submitCh:
			idx := leastLoadedIdle(workers)
			if idx < 0 {
				queue = append(queue, req)
				continue
			}
			assign(p, workers[idx], req, pending)

		case wr := <-p.doneCh:
			entry, ok := pending[wr.id]
			stale := !ok || entry.generation != wr.generation
			if wr.workerIdx < len(workers) {
				w := workers[wr.workerIdx]
				if w != nil && w.generation == wr.generation {
					w.busy = false
				}
			}
			// A busy tail worker that held up an earlier shrink is retired
			// as soon as it finishes.
			for len(workers) > targetSize && (workers[len(workers)-1] == nil || !workers[len(workers)-1].busy) {
				if last := workers[len(workers)-1]; last != nil {
					close(last.taskCh)
				}
				workers = workers[:len(workers)-1]
			}
			if wr.crashed {
				if ok {
					delete(pending, wr.id)
					entry.timer.Stop()
					entry.req.resultCh <- Result{Err: &CrashedError{Coord: entry.req.coord, LOD: entry.req.lod}}
				}
				if wr.workerIdx < len(workers) && len(workers) <= targetSize {
					workers[wr.workerIdx] = spawn(wr.workerIdx)
				} else if wr.workerIdx < len(workers) {
					workers[wr.workerIdx] = nil
				}
				dispatch()
				continue
			}
			if stale {
				// Late response for a timed-out or already-resolved request.
				continue
			}
			delete(pending, wr.id)
			entry.timer.Stop()
			entry.req.resultCh <- Result{Buffers: wr.buffers}
			dispatch()

		case t := <-p.timeoutCh:
			entry, ok := pending[t.id]
			if !ok {
				continue
			}
			delete(pending, t.id)
			if entry.workerIdx < len(workers) {
				if w := workers[entry.workerIdx]; w != nil && w.generation == entry.generation {
					w.busy = false
				}
			}
			entry.req.resultCh <- Result{Err: &TimeoutError{Coord: entry.req.coord, LOD: entry.req.lod}}
			dispatch()

		case msg := <-p.setSizeCh:
			targetSize = msg.size
			for len(workers) < targetSize {
				workers = append(workers, spawn(len(workers)))
			}
			// Only the tail can shrink without reshuffling live worker
			// indices (indices double as slice positions elsewhere). A busy
			// worker at the tail blocks further shrinking until it finishes
			// its task; the doneCh case then retires it.
			for len(workers) > targetSize {
				last := workers[len(workers)-1]
				if last == nil {
					workers = workers[:len(workers)-1]
					continue
				}
				if last.busy {
					break
				}
				close(last.taskCh)
				workers = workers[:len(workers)-1]
			}
			close(msg.done)

		case done := <-p.disposeCh:
			for _, req := range queue {
				req.resultCh <- Result{Err: ErrDisposed}
			}
			queue = nil
			for _, entry := range pending {
				entry.timer.Stop()
				entry.req.resultCh <- Result{Err: ErrDisposed}
			}
			pending = make(map[uint64]*pendingEntry)
			for _, w := range workers {
				if w != nil {
					close(w.taskCh)
				}
			}
			close(done)
			return
		}
	}
}

func assign(p *Pool, w *worker, req *requestMsg, pending map[uint64]*pendingEntry) {
	w.busy = true
	entry := &pendingEntry{
		req:        req,
		workerIdx:  w.idx,
		generation: w.generation,
		timer: time.AfterFunc(p.timeout, func() {
			p.timeoutCh <- timeoutMsg{id: req.id}
		}),
	}
	pending[req.id] = entry
	w.taskCh <- task{id: req.id, coord: req.coord, lod: req.lod}
}

// leastLoadedIdle returns the lowest index of an idle, live worker, or -1 if
// every worker is busy or dead.
func leastLoadedIdle(workers []*worker) int {
	for i, w := range workers {
		if w != nil && !w.busy {
			return i
		}
	}
	return -1
}

// runWorker processes tasks until its channel is closed (graceful shrink or
// Dispose) or a task panics. A panic terminates this goroutine entirely,
// matching spec's "dead worker is terminated" — the control loop spawns a
// fresh replacement at the same index rather than letting this one carry on.
func (p *Pool) runWorker(w *worker) {
	for t := range w.taskCh {
		if p.runTask(w, t) {
			return
		}
	}
}

// runTask runs one job, reporting its outcome on doneCh. It returns true if
// the task panicked, signaling the caller to stop this worker for good.
func (p *Pool) runTask(w *worker, t task) (crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			crashed = true
			p.doneCh <- workerResult{workerIdx: w.idx, generation: w.generation, id: t.id, crashed: true}
		}
	}()
	buf := p.meshFn(t.coord, t.lod)
	p.doneCh <- workerResult{workerIdx: w.idx, generation: w.generation, id: t.id, buffers: buf}
	return false
}
