// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"strings"
	"testing"
)

func TestStatsHitRate(t *testing.T) {
	tests := []struct {
		name         string
		hits, misses uint64
		want         float64
	}{
		{"no lookups", 0, 0, 0},
		{"all hits", 4, 0, 1},
		{"half", 2, 2, 0.5},
		{"all misses", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatsSnapshot(t *testing.T) {
	c := NewResourceCache(WithBudget(10, 1000))
	f := &fakeFactory{}

	addPurgeable(t, c, uniqueKey(1), 100, f)
	held := mustAcquire(t, c, uniqueKey(2), 200, f)
	mustAcquire(t, c, uniqueKey(1), 100, f).Release()
	unbudgeted := mustAcquire(t, c, uniqueKey(3), 50, f, Unbudgeted())

	s := c.Stats()
	want := Stats{
		ResourceCount:  3,
		ResourceBytes:  350,
		BudgetedCount:  2,
		BudgetedBytes:  300,
		LockedCount:    2,
		PurgeableCount: 1,
		PurgeableBytes: 100,
		MaxCount:       10,
		MaxBytes:       1000,
		PeakBytes:      350,
		Hits:           1,
		Misses:         3,
		Creations:      3,
	}
	if s != want {
		t.Errorf("Stats() =\n%+v\nwant\n%+v", s, want)
	}

	held.Release()
	unbudgeted.Release()
	c.PurgeUnlockedResources(PurgeAll)

	s = c.Stats()
	if s.ResourceCount != 0 || s.PeakBytes != 350 || s.Purges != 3 || s.Evictions != 0 {
		t.Errorf("after PurgeAll: %+v", s)
	}

	c.ResetStats()
	s = c.Stats()
	if s.Hits != 0 || s.Misses != 0 || s.Purges != 0 || s.PeakBytes != 0 {
		t.Errorf("after ResetStats: %+v", s)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{BudgetedCount: 2, MaxCount: 4, BudgetedBytes: 4096, MaxBytes: 8192, Hits: 1, Misses: 1}
	got := s.String()
	for _, want := range []string{"2/4 resources", "4/8 KB", "50.0% hits"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
	if s.OverBudget() {
		t.Error("OverBudget() = true, want false")
	}
	s.BudgetedCount = 5
	if !s.OverBudget() {
		t.Error("OverBudget() = false, want true")
	}
}
