// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ring implements a bounded history buffer that retains the
// most recently written values.
package ring

// Buffer is a fixed capacity ring of values. When full, writes
// overwrite the oldest values.
type Buffer[T any] struct {
	data  []T
	start int // Index of the oldest value.
	n     int // Number of values held.
}

// NewBuffer returns a Buffer holding at most n values.
func NewBuffer[T any](n int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, n)}
}

// Len returns the number of values held.
func (r *Buffer[T]) Len() int { return r.n }

// Size returns the capacity of the buffer.
func (r *Buffer[T]) Size() int { return len(r.data) }

// Write appends src, discarding the oldest values if the buffer
// overflows.
func (r *Buffer[T]) Write(src ...T) {
	size := len(r.data)
	if size == 0 {
		return
	}
	if len(src) >= size {
		copy(r.data, src[len(src)-size:])
		r.start = 0
		r.n = size
		return
	}
	end := (r.start + r.n) % size
	c := copy(r.data[end:], src)
	copy(r.data, src[c:])
	r.n += len(src)
	if r.n > size {
		r.start = (r.start + r.n - size) % size
		r.n = size
	}
}

// CopyTo copies the held values, oldest first, into dst and returns
// the number of values copied.
func (r *Buffer[T]) CopyTo(dst []T) int {
	end := min(r.start+r.n, len(r.data))
	c := copy(dst, r.data[r.start:end])
	if c < len(dst) && r.start+r.n > len(r.data) {
		c += copy(dst[c:], r.data[:r.start+r.n-len(r.data)])
	}
	return c
}

// Read copies the held values into dst as for CopyTo and discards the
// values that were copied.
func (r *Buffer[T]) Read(dst []T) int {
	c := r.CopyTo(dst)
	r.Advance(c)
	return c
}

// Advance discards up to n of the oldest values.
func (r *Buffer[T]) Advance(n int) {
	n = min(n, r.n)
	if n <= 0 {
		return
	}
	r.start = (r.start + n) % len(r.data)
	r.n -= n
}

// Values returns a newly allocated slice of the held values, oldest
// first.
func (r *Buffer[T]) Values() []T {
	v := make([]T, r.n)
	r.CopyTo(v)
	return v
}

// Reset discards all held values.
func (r *Buffer[T]) Reset() {
	r.start = 0
	r.n = 0
}
