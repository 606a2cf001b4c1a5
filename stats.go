// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import "fmt"

// Stats contains resource cache statistics.
type Stats struct {
	// ResourceCount is the number of resident resources, locked or not.
	ResourceCount int
	// ResourceBytes is the total size of resident resources.
	ResourceBytes uint64

	// BudgetedCount and BudgetedBytes are what the budget is checked against.
	BudgetedCount int
	BudgetedBytes uint64

	// LockedCount is the number of resources held by at least one handle.
	LockedCount int

	// PurgeableCount and PurgeableBytes describe unlocked resident resources.
	PurgeableCount int
	PurgeableBytes uint64

	// MaxCount and MaxBytes are the configured budget.
	MaxCount int
	MaxBytes uint64

	// PeakBytes is the largest ResourceBytes seen since creation.
	PeakBytes uint64

	// Hits and Misses count FindOrCreate lookups.
	Hits   uint64
	Misses uint64

	// Creations counts resources created by factories.
	Creations uint64

	// Evictions counts resources destroyed to satisfy the budget.
	Evictions uint64

	// Purges counts every destroyed resource, evictions included.
	Purges uint64
}

// HitRate returns the hit rate 0.0 to 1.0, or 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// OverBudget reports whether the snapshot exceeds its budget.
func (s Stats) OverBudget() bool {
	return s.BudgetedBytes > s.MaxBytes || s.BudgetedCount > s.MaxCount
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Cache[%d/%d resources, %d/%d KB, %d locked, %d purgeable, %.1f%% hits, %d evictions]",
		s.BudgetedCount, s.MaxCount,
		s.BudgetedBytes/1024, s.MaxBytes/1024,
		s.LockedCount, s.PurgeableCount,
		s.HitRate()*100, s.Evictions)
}

// Stats returns current cache statistics.
func (c *ResourceCache) Stats() Stats {
	return Stats{
		ResourceCount:  len(c.entries),
		ResourceBytes:  c.totalBytes,
		BudgetedCount:  c.budgetedCount,
		BudgetedBytes:  c.budgetedBytes,
		LockedCount:    len(c.entries) - c.purgeable.Len(),
		PurgeableCount: c.purgeable.Len(),
		PurgeableBytes: c.purgeableBytes,
		MaxCount:       c.maxCount,
		MaxBytes:       c.maxBytes,
		PeakBytes:      c.peakBytes,
		Hits:           c.hits,
		Misses:         c.misses,
		Creations:      c.creations,
		Evictions:      c.evictions,
		Purges:         c.purges,
	}
}

// ResetStats zeroes the hit, miss, creation, eviction and purge counters
// and restarts peak tracking from the current size.
func (c *ResourceCache) ResetStats() {
	c.hits = 0
	c.misses = 0
	c.creations = 0
	c.evictions = 0
	c.purges = 0
	c.peakBytes = c.totalBytes
}
