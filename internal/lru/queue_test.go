// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lru

import (
	"math/rand"
	"slices"
	"testing"
)

// drain pops every value from oldest to newest.
func drain(q *Queue[string]) []string {
	var out []string
	for n := q.Oldest(); n != nil; n = q.Oldest() {
		out = append(out, n.Value)
		q.Remove(n)
	}
	return out
}

func TestInsertOrdersByToken(t *testing.T) {
	tests := []struct {
		name   string
		tokens map[string]uint64
		insert []string
		want   []string
	}{
		{
			name:   "ascending",
			tokens: map[string]uint64{"a": 1, "b": 2, "c": 3},
			insert: []string{"a", "b", "c"},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "descending",
			tokens: map[string]uint64{"a": 1, "b": 2, "c": 3},
			insert: []string{"c", "b", "a"},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "middle",
			tokens: map[string]uint64{"a": 1, "b": 5, "c": 3},
			insert: []string{"a", "b", "c"},
			want:   []string{"a", "c", "b"},
		},
		{
			name:   "ties are FIFO",
			tokens: map[string]uint64{"a": 7, "b": 7, "c": 7},
			insert: []string{"a", "b", "c"},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "max token sorts newest",
			tokens: map[string]uint64{"zero": MaxToken, "a": 1, "b": 2},
			insert: []string{"zero", "a", "b"},
			want:   []string{"a", "b", "zero"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue[string]()
			for _, v := range tt.insert {
				q.Insert(v, tt.tokens[v])
			}
			if q.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", q.Len(), len(tt.want))
			}
			if got := drain(q); !slices.Equal(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	q := NewQueue[string]()
	a := q.Insert("a", 1)
	b := q.Insert("b", 2)
	c := q.Insert("c", 3)

	q.Remove(b)
	if q.Len() != 2 || q.Oldest() != a {
		t.Errorf("after removing middle: len %d", q.Len())
	}

	q.Remove(a)
	if q.Oldest() != c {
		t.Error("expected c to be oldest")
	}

	q.Remove(c)
	if q.Len() != 0 || q.Oldest() != nil {
		t.Error("expected empty queue")
	}

	// Removing again, or removing nil, must not corrupt the length.
	q.Remove(c)
	q.Remove(nil)
	if q.Len() != 0 {
		t.Errorf("Len() = %d after double remove, want 0", q.Len())
	}
}

func TestRemoveForeignNode(t *testing.T) {
	q1 := NewQueue[string]()
	q2 := NewQueue[string]()
	n := q1.Insert("a", 1)
	q2.Insert("b", 1)

	q2.Remove(n)
	if q1.Len() != 1 || q2.Len() != 1 {
		t.Errorf("foreign remove changed lengths: %d, %d", q1.Len(), q2.Len())
	}
}

func TestRandomRemovalsKeepOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	q := NewQueue[string]()
	var nodes []*Node[string]
	for _, tok := range rng.Perm(200) {
		nodes = append(nodes, q.Insert("", uint64(tok)))
	}
	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	for _, n := range nodes[:100] {
		q.Remove(n)
	}

	var prev uint64
	for n := q.Oldest(); n != nil; n = q.Oldest() {
		if n.Token() < prev {
			t.Fatalf("token %d came out after %d", n.Token(), prev)
		}
		prev = n.Token()
		q.Remove(n)
	}
}

func TestEach(t *testing.T) {
	q := NewQueue[string]()
	q.Insert("a", 3)
	q.Insert("b", 1)
	q.Insert("c", 2)

	var got []string
	q.Each(func(n *Node[string]) bool {
		got = append(got, n.Value)
		return true
	})
	slices.Sort(got)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Each visited %v", got)
	}

	var visited int
	q.Each(func(*Node[string]) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("Each visited %d nodes after stop, want 1", visited)
	}
}

func TestClear(t *testing.T) {
	q := NewQueue[string]()
	n := q.Insert("a", 1)
	q.Insert("b", 2)

	q.Clear()
	if q.Len() != 0 || q.Oldest() != nil {
		t.Error("expected empty queue after Clear")
	}
	// A cleared node is no longer in the queue.
	q.Insert("c", 3)
	q.Remove(n)
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestToken(t *testing.T) {
	q := NewQueue[int]()
	n := q.Insert(1, 42)
	if n.Token() != 42 {
		t.Errorf("Token() = %d, want 42", n.Token())
	}
}

func BenchmarkInsertRemoveRecent(b *testing.B) {
	q := NewQueue[int]()
	for i := range 1000 {
		q.Insert(i, uint64(i))
	}
	token := uint64(1000)
	b.ReportAllocs()
	for b.Loop() {
		n := q.Insert(0, token)
		token++
		q.Remove(n)
	}
}

// Inserting in descending token order is what releasing handles newest
// first produces.
func BenchmarkInsertDescending(b *testing.B) {
	const n = 10000
	for b.Loop() {
		q := NewQueue[int]()
		for i := n; i > 0; i-- {
			q.Insert(i, uint64(i))
		}
	}
}
