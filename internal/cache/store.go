// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache implements the Mesh Cache (C4): a persistent mapping from
// (coord, lod, fingerprint) to mesh buffers over an opaque key-value store,
// plus four concrete Store backends satisfying the host capability contract
// from spec §6.5.
package cache

import "errors"

// Store is the persistent key-value store host capability (spec §6.5):
// get/put/delete/list by opaque string key. Every method may fail; C4 is
// responsible for treating those failures as best-effort (spec §4.4/§7).
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
}

// ErrNotFound is returned by Get when a key is absent. Backends that cannot
// distinguish "absent" from "empty" should prefer returning this error.
var ErrNotFound = errors.New("cache: key not found")
