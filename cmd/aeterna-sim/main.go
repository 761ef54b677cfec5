// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command aeterna-sim wires the chunk pipeline (C1-C7) to a concrete KV
// backend and worker runtime and drives it from a synthetic camera path,
// exposing a read-only /debug JSON endpoint in the teacher's serveIndex
// style (server/main.go, server/http.go).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/ramonfueglister/roma-aeterna/internal/cache"
	"github.com/ramonfueglister/roma-aeterna/internal/scheduler"
	"github.com/ramonfueglister/roma-aeterna/internal/workerpool"
	"github.com/ramonfueglister/roma-aeterna/world"
)

func main() {
	var (
		port         int
		backend      string
		fileRoot     string
		s3Bucket     string
		dynamoTable  string
		awsRegion    string
		retries      uint64
		workers      int
		loadRadius   int
		unloadRadius int
		speed        float64
	)

	flag.IntVar(&port, "port", 8192, "http service port")
	flag.StringVar(&backend, "backend", "memory", "KV backend: memory, file, s3, dynamo")
	flag.StringVar(&fileRoot, "file-root", "./mesh-cache", "root directory for the file backend")
	flag.StringVar(&s3Bucket, "s3-bucket", "", "bucket name for the s3 backend")
	flag.StringVar(&dynamoTable, "dynamo-table", "", "table name for the dynamo backend")
	flag.StringVar(&awsRegion, "aws-region", "us-east-1", "AWS region for the s3/dynamo backends")
	flag.Uint64Var(&retries, "retries", 0, "max retry attempts wrapping the remote backends (0 disables retrying)")
	flag.IntVar(&workers, "workers", 4, "worker pool size")
	flag.IntVar(&loadRadius, "load-radius", 6, "chunk load radius")
	flag.IntVar(&unloadRadius, "unload-radius", 9, "chunk unload radius")
	flag.Float64Var(&speed, "speed", 64, "synthetic camera speed, world units/sec")
	flag.Parse()

	store, err := newStore(backend, fileRoot, s3Bucket, dynamoTable, awsRegion)
	if err != nil {
		log.Fatal("backend: ", err)
	}
	if retries > 0 && (backend == "s3" || backend == "dynamo") {
		store = cache.NewRetryingStore(store, retries)
	}
	meshCache := cache.NewMeshCache(store)

	pool := workerpool.NewPool(workers, workerpool.DefaultTimeout, workerpool.DefaultMeshFunc)
	defer pool.Dispose()

	sched := scheduler.New(loadRadius, unloadRadius, meshCache, pool)

	d := &debugServer{sched: sched, pool: pool}
	go d.driveCamera(speed)

	http.HandleFunc("/debug", d.serveDebug)
	log.Println("aeterna-sim started")
	log.Fatal("ListenAndServe: ", http.ListenAndServe(fmt.Sprint(":", port), nil))
}

func newStore(backend, fileRoot, s3Bucket, dynamoTable, region string) (cache.Store, error) {
	switch backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "file":
		fs, err := cache.NewFileStore(fileRoot)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		if s3Bucket == "" {
			return nil, fmt.Errorf("-s3-bucket is required for the s3 backend")
		}
		sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
		if err != nil {
			return nil, err
		}
		return cache.NewS3Store(sess, s3Bucket), nil
	case "dynamo":
		if dynamoTable == "" {
			return nil, fmt.Errorf("-dynamo-table is required for the dynamo backend")
		}
		sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
		if err != nil {
			return nil, err
		}
		return cache.NewDynamoStore(sess, dynamoTable), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// debugServer drives a synthetic camera moving along +x and answers /debug status
// requests, mirroring the teacher's Hub.statusJSON/serveIndex pattern
// (server/hub.go, server/main.go) without needing an actual renderer.
type debugServer struct {
	sched *scheduler.Scheduler
	pool  *workerpool.Pool

	startPos world.Vec2f
}

func (d *debugServer) driveCamera(speed float64) {
	const tick = 100 * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var t float64
	for range ticker.C {
		t += tick.Seconds()
		d.sched.Update(float32(speed*t), 0, nil)
		d.sched.DrainEvents() // keep the log from growing unbounded; a real
		// consumer would forward these instead of discarding them.
	}
}

type debugStatus struct {
	LoadedCount      int            `json:"loaded_count"`
	CameraX          float32        `json:"camera_x"`
	CameraZ          float32        `json:"camera_z"`
	DistanceFromBoot float32        `json:"distance_from_boot"`
	WindowMinCorner  world.Vec2f    `json:"window_min_corner"`
	WindowSide       float32        `json:"window_side"`
	SlabUsage        map[string]int `json:"slab_instances_by_lod"`
}

func (d *debugServer) serveDebug(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	camera := d.sched.CameraPosition()
	window := d.sched.LoadedWindow().CornerCoordinates()

	status := debugStatus{
		LoadedCount:      d.sched.LoadedCount(),
		CameraX:          camera.X,
		CameraZ:          camera.Y,
		DistanceFromBoot: camera.Sub(d.startPos).Length(),
		WindowMinCorner:  window.Vec2f,
		WindowSide:       window.Width,
		SlabUsage:        make(map[string]int),
	}
	for lod := world.LOD0; int(lod) <= int(world.LOD3); lod++ {
		status.SlabUsage[fmt.Sprint(lod)] = len(d.sched.Slab(lod).Handle().Instances)
	}

	buf, err := json.Marshal(status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf)
}
