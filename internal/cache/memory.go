// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"strings"
	"sync"
)

// MemoryStore is a sync.Map-backed Store, the default backend for tests and
// single-process development, analogous in spirit to the teacher's in-memory
// ClientList bookkeeping: no external dependency, safe for concurrent use.
type MemoryStore struct {
	values sync.Map // string -> []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return v.([]byte), nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	// Copy so the caller cannot mutate the stored bytes after Put returns.
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values.Store(key, cp)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.values.Delete(key)
	return nil
}

func (m *MemoryStore) ListKeys(prefix string) ([]string, error) {
	var keys []string
	m.values.Range(func(k, _ interface{}) bool {
		ks := k.(string)
		if strings.HasPrefix(ks, prefix) {
			keys = append(keys, ks)
		}
		return true
	})
	return keys, nil
}
