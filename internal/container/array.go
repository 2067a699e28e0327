// Package container provides the growable array every other launcher
// component stores its records in.
package container

import (
	"iter"
	"math"
	"strconv"
	"unsafe"

	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// NotFound is returned by the Find functions when nothing matches.
const NotFound = -1

// Unlimited disables the capacity limit of an Array.
const Unlimited = 0

// Array is a growable buffer of fixed-size elements.
//
// The buffer length is the capacity; only the first Len elements are live.
// Growth doubles the capacity (minimum 1). All index checks use Len, so
// allocated-but-unused slots are never readable.
type Array[T any] struct {
	buf   []T
	size  int
	limit int
}

// New returns an empty array with the given initial capacity.
func New[T any](capacity int) *Array[T] {
	a := &Array[T]{}
	if capacity > 0 {
		a.buf = make([]T, capacity)
	}
	return a
}

// NewWithLimit returns an empty array whose capacity may never exceed limit.
// Growth past the limit fails with an allocation failure.
func NewWithLimit[T any](limit int) *Array[T] {
	return &Array[T]{limit: limit}
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.size }

// Cap returns the allocated capacity.
func (a *Array[T]) Cap() int { return len(a.buf) }

// Reserve grows the capacity to at least n. It never shrinks.
// On failure the contents and capacity are unchanged.
func (a *Array[T]) Reserve(n int) error {
	if n <= len(a.buf) {
		return nil
	}
	if a.limit != Unlimited && n > a.limit {
		return apperrors.WithMetadata(apperrors.CodeAllocationFailure,
			"reserve "+strconv.Itoa(n)+" exceeds limit "+strconv.Itoa(a.limit),
			map[string]string{"Container": "array"})
	}
	if n > maxElements[T]() {
		return apperrors.WithMetadata(apperrors.CodeAllocationFailure,
			"reserve "+strconv.Itoa(n)+" exceeds addressable size",
			map[string]string{"Container": "array"})
	}
	grown := make([]T, n)
	copy(grown, a.buf[:a.size])
	a.buf = grown
	return nil
}

// Resize sets the number of live elements. New slots hold the zero value;
// shrinking keeps the capacity.
func (a *Array[T]) Resize(n int) error {
	if n < 0 {
		return outOfRange(n, a.size)
	}
	if err := a.Reserve(n); err != nil {
		return err
	}
	var zero T
	for i := a.size; i < n; i++ {
		a.buf[i] = zero
	}
	for i := n; i < a.size; i++ {
		a.buf[i] = zero
	}
	a.size = n
	return nil
}

// PushBack appends v, doubling the capacity when full.
func (a *Array[T]) PushBack(v T) error {
	if err := a.grow(); err != nil {
		return err
	}
	a.buf[a.size] = v
	a.size++
	return nil
}

// PopBack removes and returns the last element.
func (a *Array[T]) PopBack() (T, error) {
	var zero T
	if a.size == 0 {
		return zero, outOfRange(0, 0)
	}
	a.size--
	v := a.buf[a.size]
	a.buf[a.size] = zero
	return v, nil
}

// Insert places v at index, shifting later elements up. Index may equal Len.
func (a *Array[T]) Insert(index int, v T) error {
	if index < 0 || index > a.size {
		return outOfRange(index, a.size)
	}
	if err := a.grow(); err != nil {
		return err
	}
	copy(a.buf[index+1:a.size+1], a.buf[index:a.size])
	a.buf[index] = v
	a.size++
	return nil
}

// Erase removes the element at index, shifting later elements down.
func (a *Array[T]) Erase(index int) error {
	if index < 0 || index >= a.size {
		return outOfRange(index, a.size)
	}
	copy(a.buf[index:a.size-1], a.buf[index+1:a.size])
	a.size--
	var zero T
	a.buf[a.size] = zero
	return nil
}

// Set overwrites the element at index.
func (a *Array[T]) Set(index int, v T) error {
	if index < 0 || index >= a.size {
		return outOfRange(index, a.size)
	}
	a.buf[index] = v
	return nil
}

// Get returns the element at index.
func (a *Array[T]) Get(index int) (T, error) {
	if index < 0 || index >= a.size {
		var zero T
		return zero, outOfRange(index, a.size)
	}
	return a.buf[index], nil
}

// Clear drops every element but keeps the capacity.
func (a *Array[T]) Clear() {
	clear(a.buf[:a.size])
	a.size = 0
}

// Cleanup releases the buffer. Calling it again is a no-op.
func (a *Array[T]) Cleanup() {
	a.buf = nil
	a.size = 0
}

// FindByPredicate returns the first index whose element satisfies pred,
// or NotFound.
func (a *Array[T]) FindByPredicate(pred func(v T, ctx any) bool, ctx any) int {
	for i := 0; i < a.size; i++ {
		if pred(a.buf[i], ctx) {
			return i
		}
	}
	return NotFound
}

// All yields index/element pairs of the live elements in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.size; i++ {
			if !yield(i, a.buf[i]) {
				return
			}
		}
	}
}

// FindByValue returns the first index holding a value equal to v, or NotFound.
func FindByValue[T comparable](a *Array[T], v T) int {
	for i := 0; i < a.size; i++ {
		if a.buf[i] == v {
			return i
		}
	}
	return NotFound
}

func (a *Array[T]) grow() error {
	if a.size < len(a.buf) {
		return nil
	}
	next := len(a.buf) * 2
	if next == 0 {
		next = 1
	}
	if a.limit != Unlimited && next > a.limit {
		next = a.limit
	}
	if next <= a.size {
		return apperrors.WithMetadata(apperrors.CodeAllocationFailure,
			"array is at its limit of "+strconv.Itoa(a.limit),
			map[string]string{"Container": "array"})
	}
	return a.Reserve(next)
}

// maxElements bounds a single allocation so make never panics on length.
func maxElements[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}
	return math.MaxInt32 / size
}

func outOfRange(index, size int) error {
	return apperrors.WithMetadata(apperrors.CodeOutOfRange,
		"index "+strconv.Itoa(index)+" out of range [0,"+strconv.Itoa(size)+")",
		map[string]string{"Index": strconv.Itoa(index)})
}
