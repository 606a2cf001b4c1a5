// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lru provides the purgeable queue of the resource cache.
//
// Nodes are ordered by use token: the lowest token (least recently used)
// comes out first. Nodes with equal tokens come out in insertion order.
// The reserved MaxToken is shared by every zero-sized resource and always
// sorts last.
package lru

import (
	"container/heap"
	"math"
)

// MaxToken is the use token reserved for entries that must sort after every
// other entry.
const MaxToken = math.MaxUint64

// Node is an entry in a Queue.
// The node stores its value so the owner can go from queue position back to
// the cached entry in O(1).
type Node[V any] struct {
	Value V
	token uint64
	seq   uint64
	index int // position in the heap, -1 once removed
	queue *Queue[V]
}

// Token returns the use token the node was inserted with.
func (n *Node[V]) Token() uint64 {
	return n.token
}

// Queue is a min-heap of nodes keyed by (token, insertion order).
// Insert and Remove are O(log n), Oldest is O(1).
// The queue is not thread-safe; callers must handle synchronization.
type Queue[V any] struct {
	nodes nodeHeap[V]
	seq   uint64
}

// NewQueue creates an empty queue.
func NewQueue[V any]() *Queue[V] {
	return &Queue[V]{}
}

// Len returns the number of nodes in the queue.
func (q *Queue[V]) Len() int {
	return len(q.nodes)
}

// Insert adds value with the given token and returns its node.
func (q *Queue[V]) Insert(value V, token uint64) *Node[V] {
	q.seq++
	node := &Node[V]{Value: value, token: token, seq: q.seq, queue: q}
	heap.Push(&q.nodes, node)
	return node
}

// Remove removes a node from the queue. Removing a node that is not in this
// queue is a no-op.
func (q *Queue[V]) Remove(node *Node[V]) {
	if node == nil || node.queue != q || node.index < 0 {
		return
	}
	heap.Remove(&q.nodes, node.index)
	node.queue = nil
}

// Oldest returns the node with the lowest token without removing it.
// Returns nil if the queue is empty.
func (q *Queue[V]) Oldest() *Node[V] {
	if len(q.nodes) == 0 {
		return nil
	}
	return q.nodes[0]
}

// Each calls fn for every node, in no particular order, until fn returns
// false. fn must not modify the queue.
func (q *Queue[V]) Each(fn func(*Node[V]) bool) {
	for _, n := range q.nodes {
		if !fn(n) {
			return
		}
	}
}

// Clear removes all nodes from the queue.
func (q *Queue[V]) Clear() {
	for _, n := range q.nodes {
		n.index = -1
		n.queue = nil
	}
	clear(q.nodes)
	q.nodes = q.nodes[:0]
}

// nodeHeap implements heap.Interface.
type nodeHeap[V any] []*Node[V]

func (h nodeHeap[V]) Len() int { return len(h) }

func (h nodeHeap[V]) Less(i, j int) bool {
	if h[i].token != h[j].token {
		return h[i].token < h[j].token
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap[V]) Push(x any) {
	n := x.(*Node[V])
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap[V]) Pop() any {
	old := *h
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*h = old[:last]
	return n
}
