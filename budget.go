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

// PurgeMode selects how much PurgeUnlockedResources reclaims.
type PurgeMode uint8

const (
	// PurgeBudgetOnly evicts unlocked resources, least recently used first,
	// only until the cache is within budget. This is what a flush runs.
	PurgeBudgetOnly PurgeMode = iota

	// PurgeAll destroys every unlocked resource regardless of budget.
	PurgeAll
)

// String returns a human-readable name for the mode.
func (m PurgeMode) String() string {
	switch m {
	case PurgeBudgetOnly:
		return "BudgetOnly"
	case PurgeAll:
		return "All"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// SetBudget reconfigures the budget. A negative count is treated as zero.
//
// Nothing is evicted here even if usage now exceeds the budget; the next
// purge pass (explicit or at flush) brings the cache back within it.
func (c *ResourceCache) SetBudget(maxCount int, maxBytes uint64) {
	c.maxCount = max(maxCount, 0)
	c.maxBytes = maxBytes
	Logger().Debug("gpucache: budget changed",
		"cache", c.name, "maxCount", c.maxCount, "maxBytes", c.maxBytes,
		"count", c.budgetedCount, "bytes", c.budgetedBytes)
}

// Budget returns the configured maximum resource count and bytes.
func (c *ResourceCache) Budget() (maxCount int, maxBytes uint64) {
	return c.maxCount, c.maxBytes
}

// Usage returns the number and total size of budgeted resident resources.
// Resources locked with Unbudgeted are not included.
func (c *ResourceCache) Usage() (count int, bytes uint64) {
	return c.budgetedCount, c.budgetedBytes
}

// IsOverBudget reports whether usage currently exceeds the budget.
func (c *ResourceCache) IsOverBudget() bool {
	return c.overBudget()
}

func (c *ResourceCache) overBudget() bool {
	return c.budgetedBytes > c.maxBytes || c.budgetedCount > c.maxCount
}

// PurgeUnlockedResources runs a purge pass and returns the number of
// destroyed resources. Locked resources are never touched.
//
// With PurgeBudgetOnly the cache may remain over budget if everything left
// is locked.
func (c *ResourceCache) PurgeUnlockedResources(mode PurgeMode) int {
	if c.closed {
		return 0
	}

	var purged int
	switch mode {
	case PurgeAll:
		for n := c.purgeable.Oldest(); n != nil; n = c.purgeable.Oldest() {
			c.destroy(n.Value)
			purged++
		}
	default:
		purged = c.purgeToBudget()
	}

	if purged > 0 {
		Logger().Debug("gpucache: purge pass",
			"cache", c.name, "mode", mode, "purged", purged,
			"count", c.budgetedCount, "bytes", c.budgetedBytes)
	}
	return purged
}

// purgeToBudget evicts from the least recently used end until the cache is
// within budget or nothing purgeable is left. It never evicts more than
// needed.
func (c *ResourceCache) purgeToBudget() int {
	var purged int
	for c.overBudget() {
		n := c.purgeable.Oldest()
		if n == nil {
			break
		}
		e := n.Value
		// Zero-sized resources sort last; evicting them cannot help the
		// byte budget, only the count budget.
		if e.size == 0 && c.budgetedCount <= c.maxCount {
			break
		}
		c.destroy(e)
		c.evictions++
		purged++
	}
	return purged
}

// PurgeNotUsedSince destroys unlocked resources last accessed before t and
// then evicts further, least recently used first, if the cache is still
// over budget. It returns the number of destroyed resources.
func (c *ResourceCache) PurgeNotUsedSince(t time.Time) int {
	if c.closed {
		return 0
	}

	var stale []*entry
	c.purgeable.Each(func(n *lru.Node[*entry]) bool {
		if n.Value.lastAccess.Before(t) {
			stale = append(stale, n.Value)
		}
		return true
	})
	slices.SortFunc(stale, func(a, b *entry) int { return cmp.Compare(a.token, b.token) })
	for _, e := range stale {
		c.destroy(e)
	}

	purged := len(stale) + c.purgeToBudget()
	if purged > 0 {
		Logger().Debug("gpucache: purged resources not used since",
			"cache", c.name, "since", t, "purged", purged)
	}
	return purged
}
