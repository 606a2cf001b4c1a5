// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/gogpu/gpucache/internal/lru"
)

// ResourceCache maps keys to resident GPU resources and keeps them within a
// budget of resource count and bytes.
//
// Locked resources (held through a Handle) are never purged. Unlocked
// resources stay resident in a purgeable queue ordered by last use and are
// only destroyed by a purge pass: PurgeUnlockedResources, PurgeNotUsedSince
// or the Flush of the owning Context. Acquiring never fails because of the
// budget; the cache goes over budget instead and catches up at the next pass.
//
// ResourceCache is not safe for concurrent use. All calls must come from
// the goroutine that owns the rendering context.
type ResourceCache struct {
	name  string
	clock func() time.Time

	// Budget
	maxCount int
	maxBytes uint64

	// Residency
	entries   map[ResourceID]*entry
	scratch   map[Key][]*entry // findable scratch resources, oldest availability first
	unique    map[Key]*entry   // current holder of each unique key
	purgeable *lru.Queue[*entry]

	nextID   ResourceID
	useToken uint64

	// Accounting
	totalBytes     uint64
	budgetedCount  int
	budgetedBytes  uint64
	purgeableBytes uint64
	peakBytes      uint64

	// Statistics
	hits      uint64
	misses    uint64
	creations uint64
	evictions uint64
	purges    uint64

	closed bool
}

// NewResourceCache creates an empty cache.
// Only WithName, WithBudget and WithClock apply.
func NewResourceCache(opts ...Option) *ResourceCache {
	o := applyOptions(opts)
	return newResourceCache(o)
}

func newResourceCache(o options) *ResourceCache {
	return &ResourceCache{
		name:      o.name,
		clock:     o.clock,
		maxCount:  o.maxCount,
		maxBytes:  o.maxBytes,
		entries:   make(map[ResourceID]*entry),
		scratch:   make(map[Key][]*entry),
		unique:    make(map[Key]*entry),
		purgeable: lru.NewQueue[*entry](),
		nextID:    1,
	}
}

// request holds per-call options of FindOrCreate.
type request struct {
	shareable  bool
	unbudgeted bool
}

// RequestOption configures a single FindOrCreate call.
type RequestOption func(*request)

// Shareable lets several holders lock the same scratch resource at once,
// e.g. read-only textures. Ignored for unique keys, which are always
// exclusive.
func Shareable() RequestOption {
	return func(r *request) { r.shareable = true }
}

// Unbudgeted keeps the resource out of the budget while it is locked, for
// resources whose lifetime is managed by an outside owner. It is counted
// against the budget again once released. Ignored for shareable requests.
func Unbudgeted() RequestOption {
	return func(r *request) { r.unbudgeted = true }
}

// FindOrCreate returns a locked handle to a resource matching key.
//
// On a hit the existing resource is locked and becomes the most recently
// used. On a miss factory creates a new one, which is inserted locked and
// counted against the budget even if that puts the cache over it.
//
// The handle stays valid until Release is called on it.
func (c *ResourceCache) FindOrCreate(key Key, sizeHint uint64, factory Factory, opts ...RequestOption) (*Handle, error) {
	if c.closed {
		return nil, ErrCacheClosed
	}
	if !key.IsValid() {
		return nil, ErrInvalidKey
	}

	var req request
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	if key.IsUnique() {
		req.shareable = false
	}
	if req.shareable {
		req.unbudgeted = false
	}

	if e := c.find(key, req); e != nil {
		c.hits++
		c.lock(e, req)
		return newHandle(c, e), nil
	}

	c.misses++
	if factory == nil {
		return nil, ErrNilFactory
	}
	res, err := factory.Create(key, sizeHint)
	if err != nil {
		return nil, fmt.Errorf("gpucache: create %v: %w", key, err)
	}
	if res == nil {
		return nil, fmt.Errorf("gpucache: create %v: %w", key, ErrNilResource)
	}

	e := c.insert(key, res, req)
	return newHandle(c, e), nil
}

// find returns an available resource for key, or nil.
func (c *ResourceCache) find(key Key, req request) *entry {
	if key.IsUnique() {
		e, ok := c.unique[key]
		if ok && e.locks == 0 {
			return e
		}
		return nil
	}

	// Most recently available first, so that older idle resources keep
	// aging toward the tail of the purgeable queue.
	candidates := c.scratch[key]
	for i := len(candidates) - 1; i >= 0; i-- {
		e := candidates[i]
		if e.locks == 0 || (req.shareable && e.shared) {
			return e
		}
	}
	return nil
}

// lock adds one lock to e and marks it most recently used.
func (c *ResourceCache) lock(e *entry, req request) {
	if e.node != nil {
		c.purgeable.Remove(e.node)
		e.node = nil
		c.purgeableBytes -= e.size
	}

	if e.key.IsScratch() {
		if req.shareable {
			e.shared = true
		} else {
			c.removeFromScratch(e)
		}
	}

	if req.unbudgeted && e.budgeted {
		e.budgeted = false
		c.budgetedCount--
		c.budgetedBytes -= e.size
	}

	e.locks++
	c.touch(e)
}

// insert makes res resident under key, locked once.
func (c *ResourceCache) insert(key Key, res Resource, req request) *entry {
	e := &entry{
		id:       c.nextID,
		res:      res,
		key:      key,
		size:     res.ByteSize(),
		locks:    1,
		shared:   req.shareable,
		budgeted: !req.unbudgeted,
	}
	c.nextID++
	c.creations++

	if key.IsUnique() {
		if prev, ok := c.unique[key]; ok {
			// The previous holder is locked (otherwise it would have been a
			// hit). It gives up the key and is destroyed on its last release.
			prev.key = Key{}
			Logger().Debug("gpucache: unique key taken over",
				"cache", c.name, "key", key, "previous", prev.id, "current", e.id)
		}
		c.unique[key] = e
	} else if req.shareable {
		c.addToScratch(e)
	}

	c.entries[e.id] = e
	c.totalBytes += e.size
	if e.budgeted {
		c.budgetedCount++
		c.budgetedBytes += e.size
	}
	c.peakBytes = max(c.peakBytes, c.totalBytes)
	c.touch(e)

	Logger().Debug("gpucache: resource created",
		"cache", c.name, "id", e.id, "key", key, "size", e.size, "budgeted", e.budgeted)
	return e
}

// release drops one lock from e. At zero locks the resource becomes
// purgeable but stays resident.
func (c *ResourceCache) release(e *entry) {
	if c.closed || e.destroyed || e.locks == 0 {
		return
	}
	e.locks--
	if e.locks > 0 {
		return
	}

	e.shared = false
	e.lastAccess = c.clock()
	if !e.budgeted {
		e.budgeted = true
		c.budgetedCount++
		c.budgetedBytes += e.size
	}

	if !e.key.IsValid() {
		// Lost its unique key; nothing can ever find it again.
		c.destroy(e)
		return
	}

	if e.key.IsScratch() && !e.findable {
		c.addToScratch(e)
	}

	e.node = c.purgeable.Insert(e, e.token)
	c.purgeableBytes += e.size
}

// touch gives e a fresh use token and access time.
func (c *ResourceCache) touch(e *entry) {
	e.lastAccess = c.clock()
	if e.size == 0 {
		e.token = lru.MaxToken
		return
	}
	c.useToken++
	e.token = c.useToken
}

func (c *ResourceCache) addToScratch(e *entry) {
	c.scratch[e.key] = append(c.scratch[e.key], e)
	e.findable = true
}

func (c *ResourceCache) removeFromScratch(e *entry) {
	if !e.findable {
		return
	}
	list := c.scratch[e.key]
	if i := slices.Index(list, e); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	if len(list) == 0 {
		delete(c.scratch, e.key)
	} else {
		c.scratch[e.key] = list
	}
	e.findable = false
}

// destroy removes e from every structure and frees the resource.
func (c *ResourceCache) destroy(e *entry) {
	if e.node != nil {
		c.purgeable.Remove(e.node)
		e.node = nil
		c.purgeableBytes -= e.size
	}
	if e.key.IsScratch() {
		c.removeFromScratch(e)
	} else if e.key.IsUnique() && c.unique[e.key] == e {
		delete(c.unique, e.key)
	}

	delete(c.entries, e.id)
	c.totalBytes -= e.size
	if e.budgeted {
		c.budgetedCount--
		c.budgetedBytes -= e.size
	}
	c.purges++

	e.destroyed = true
	e.res.Destroy()
}

// Contains reports whether a resource with the given id is resident.
func (c *ResourceCache) Contains(id ResourceID) bool {
	_, ok := c.entries[id]
	return ok
}

// VisitResources calls fn for every resident resource in id order until fn
// returns false.
func (c *ResourceCache) VisitResources(fn func(ResourceInfo) bool) {
	all := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, e)
	}
	slices.SortFunc(all, func(a, b *entry) int { return cmp.Compare(a.id, b.id) })
	for _, e := range all {
		if !fn(e.info()) {
			return
		}
	}
}

// OldestPurgeable returns the resource the next budget pass would evict
// first. ok is false if nothing is purgeable.
func (c *ResourceCache) OldestPurgeable() (info ResourceInfo, ok bool) {
	n := c.purgeable.Oldest()
	if n == nil {
		return ResourceInfo{}, false
	}
	return n.Value.info(), true
}

// Close destroys every resident resource, locked or not, and marks the
// cache closed. Handles still held become inert: Release is a no-op.
// Close is idempotent.
func (c *ResourceCache) Close() {
	if c.closed {
		return
	}

	var leaked []ResourceID
	for id, e := range c.entries {
		if e.locks > 0 {
			leaked = append(leaked, id)
		}
	}
	if len(leaked) > 0 {
		slices.Sort(leaked)
		Logger().Warn("gpucache: closing cache with locked resources",
			"cache", c.name, "count", len(leaked), "ids", leaked)
	}

	c.purgeable.Clear()
	for _, e := range c.entries {
		e.node = nil
		e.destroyed = true
		e.res.Destroy()
		c.purges++
	}

	c.entries = nil
	c.scratch = nil
	c.unique = nil
	c.totalBytes = 0
	c.budgetedCount = 0
	c.budgetedBytes = 0
	c.purgeableBytes = 0
	c.closed = true

	Logger().Debug("gpucache: cache closed", "cache", c.name)
}

// Closed reports whether Close has been called.
func (c *ResourceCache) Closed() bool {
	return c.closed
}

// validate checks that the maps, the purgeable queue and the accounting
// agree with each other. Tests call it after mutations.
func (c *ResourceCache) validate() error {
	if c.closed {
		if len(c.entries) != 0 || c.purgeable.Len() != 0 || c.totalBytes != 0 || c.budgetedCount != 0 {
			return fmt.Errorf("closed cache still holds resources")
		}
		return nil
	}

	var (
		totalBytes, budgetedBytes, purgeableBytes uint64
		budgetedCount, purgeableCount, findable   int
	)
	for id, e := range c.entries {
		switch {
		case e.id != id:
			return fmt.Errorf("resource %d stored under id %d", e.id, id)
		case e.destroyed:
			return fmt.Errorf("resource %d is destroyed but resident", id)
		case e.purgeable() != (e.locks == 0):
			return fmt.Errorf("resource %d: %d locks, purgeable %v", id, e.locks, e.purgeable())
		case !e.budgeted && e.locks == 0:
			return fmt.Errorf("resource %d is unlocked and unbudgeted", id)
		case !e.key.IsValid() && e.locks == 0:
			return fmt.Errorf("resource %d lost its key but is still resident unlocked", id)
		case e.key.IsScratch() && e.locks == 0 && !e.findable:
			return fmt.Errorf("unlocked scratch resource %d is not findable", id)
		case e.findable && e.locks > 0 && !e.shared:
			return fmt.Errorf("exclusively locked resource %d is findable", id)
		}
		if e.key.IsUnique() && c.unique[e.key] != e {
			return fmt.Errorf("resource %d is not the holder of its unique key", id)
		}

		totalBytes += e.size
		if e.budgeted {
			budgetedCount++
			budgetedBytes += e.size
		}
		if e.purgeable() {
			purgeableCount++
			purgeableBytes += e.size
		}
		if e.findable {
			findable++
		}
	}

	var listed int
	for key, list := range c.scratch {
		if len(list) == 0 {
			return fmt.Errorf("empty scratch list for %v", key)
		}
		for _, e := range list {
			if e.key != key || !e.findable || c.entries[e.id] != e {
				return fmt.Errorf("stale scratch entry %d under %v", e.id, key)
			}
		}
		listed += len(list)
	}
	for key, e := range c.unique {
		if e.key != key || c.entries[e.id] != e {
			return fmt.Errorf("stale unique entry %d under %v", e.id, key)
		}
	}

	switch {
	case listed != findable:
		return fmt.Errorf("scratch map lists %d resources, %d are findable", listed, findable)
	case purgeableCount != c.purgeable.Len():
		return fmt.Errorf("purgeable queue holds %d resources, want %d", c.purgeable.Len(), purgeableCount)
	case totalBytes != c.totalBytes:
		return fmt.Errorf("total bytes %d, want %d", c.totalBytes, totalBytes)
	case budgetedCount != c.budgetedCount || budgetedBytes != c.budgetedBytes:
		return fmt.Errorf("budgeted usage (%d, %d), want (%d, %d)",
			c.budgetedCount, c.budgetedBytes, budgetedCount, budgetedBytes)
	case purgeableBytes != c.purgeableBytes:
		return fmt.Errorf("purgeable bytes %d, want %d", c.purgeableBytes, purgeableBytes)
	}
	return nil
}
