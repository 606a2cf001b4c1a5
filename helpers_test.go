// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"errors"
	"testing"
	"time"
)

var testDomain = GenerateDomain()

// fakeResource is an in-memory Resource that records destruction.
type fakeResource struct {
	name      string
	size      uint64
	destroyed int
}

func (r *fakeResource) ByteSize() uint64 { return r.size }
func (r *fakeResource) Destroy()         { r.destroyed++ }

// fakeFactory creates fakeResources of the hinted size and remembers them.
type fakeFactory struct {
	created []*fakeResource
	err     error
}

func (f *fakeFactory) Create(key Key, sizeHint uint64) (Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := &fakeResource{name: key.String(), size: sizeHint}
	f.created = append(f.created, r)
	return r, nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func uniqueKey(id uint32) Key    { return NewUniqueKey(testDomain, id) }
func scratchKey(w, h uint32) Key { return NewScratchKey(testDomain, w, h) }

// mustAcquire calls FindOrCreate and fails the test on error.
func mustAcquire(t *testing.T, c *ResourceCache, key Key, size uint64, f Factory, opts ...RequestOption) *Handle {
	t.Helper()
	h, err := c.FindOrCreate(key, size, f, opts...)
	if err != nil {
		t.Fatalf("FindOrCreate(%v) error = %v", key, err)
	}
	return h
}

// addPurgeable inserts a resource under key and releases it right away.
func addPurgeable(t *testing.T, c *ResourceCache, key Key, size uint64, f Factory) ResourceID {
	t.Helper()
	h := mustAcquire(t, c, key, size, f)
	h.Release()
	return h.ID()
}

// checkUsage fails the test if the cache usage differs from the expectation.
func checkUsage(t *testing.T, c *ResourceCache, wantCount int, wantBytes uint64) {
	t.Helper()
	checkValid(t, c)
	count, bytes := c.Usage()
	if count != wantCount || bytes != wantBytes {
		t.Errorf("Usage() = (%d, %d), want (%d, %d)", count, bytes, wantCount, wantBytes)
	}
}

// checkValid fails the test if the cache bookkeeping is inconsistent.
func checkValid(t *testing.T, c *ResourceCache) {
	t.Helper()
	if err := c.validate(); err != nil {
		t.Fatalf("inconsistent cache: %v", err)
	}
}

var errAlloc = errors.New("out of device memory")
