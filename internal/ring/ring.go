// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ring provides a fixed-capacity FIFO ring buffer used to hand
// packet containers from the acquisition loop to consumers.
package ring // import "github.com/go-aer/daq/internal/ring"

import "sync"

// Buffer is a bounded FIFO queue. Put fails when the buffer is full and
// Get fails when it is empty; callers decide whether to retry or drop.
type Buffer[T any] struct {
	mu    sync.Mutex
	elems []T
	head  int
	tail  int
	n     int
}

// New returns a buffer holding at most capacity elements.
// Capacity must be strictly positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: non-positive capacity")
	}
	return &Buffer[T]{elems: make([]T, capacity)}
}

// Put appends v to the buffer. It reports whether the element was
// stored, false meaning the buffer was full.
func (b *Buffer[T]) Put(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.n == len(b.elems) {
		return false
	}
	b.elems[b.tail] = v
	b.tail = (b.tail + 1) % len(b.elems)
	b.n++
	return true
}

// Get removes and returns the oldest element. It reports false when the
// buffer is empty.
func (b *Buffer[T]) Get() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero T
	if b.n == 0 {
		return zero, false
	}
	v := b.elems[b.head]
	b.elems[b.head] = zero
	b.head = (b.head + 1) % len(b.elems)
	b.n--
	return v, true
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int { return len(b.elems) }
