// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import "github.com/cenkalti/backoff"

// RetryingStore wraps a Store, retrying failed operations with exponential
// backoff before giving up. Remote backends (S3Store, DynamoStore) are prone
// to transient network failures that a local MemoryStore/FileStore never
// sees; wrapping only those two keeps retry overhead off the hot local path.
type RetryingStore struct {
	inner      Store
	maxRetries uint64
}

// NewRetryingStore wraps inner with up to maxRetries retries per operation,
// using backoff's default exponential schedule.
func NewRetryingStore(inner Store, maxRetries uint64) *RetryingStore {
	return &RetryingStore{inner: inner, maxRetries: maxRetries}
}

func (r *RetryingStore) policy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries)
}

func (r *RetryingStore) Get(key string) ([]byte, error) {
	var value []byte
	err := backoff.Retry(func() error {
		v, err := r.inner.Get(key)
		if err == ErrNotFound {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		value = v
		return nil
	}, r.policy())
	return value, unwrapPermanent(err)
}

func (r *RetryingStore) Put(key string, value []byte) error {
	return unwrapPermanent(backoff.Retry(func() error {
		return r.inner.Put(key, value)
	}, r.policy()))
}

func (r *RetryingStore) Delete(key string) error {
	return unwrapPermanent(backoff.Retry(func() error {
		return r.inner.Delete(key)
	}, r.policy()))
}

func (r *RetryingStore) ListKeys(prefix string) ([]string, error) {
	var keys []string
	err := backoff.Retry(func() error {
		k, err := r.inner.ListKeys(prefix)
		if err != nil {
			return err
		}
		keys = k
		return nil
	}, r.policy())
	return keys, unwrapPermanent(err)
}

// unwrapPermanent recovers the original sentinel error from backoff.Permanent
// so callers can still compare against ErrNotFound with ==.
func unwrapPermanent(err error) error {
	if pe, ok := err.(*backoff.PermanentError); ok {
		return pe.Err
	}
	return err
}
