// Package iters adapts badger iterators to range-over-func sequences.
package iters

import (
	"iter"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerIterator is the interface that represents a badger iterator.
type BadgerIterator interface {
	Close()
	Item() *badger.Item
	Next()
	Rewind()
	Seek(key []byte)
	Valid() bool
}

var _ BadgerIterator = (*badger.Iterator)(nil)

// Keys iterates over the keys of it from the start, with the first trim bytes removed.
// Keys shorter than trim are skipped. The yielded slices are only valid until the next iteration.
func Keys(it BadgerIterator, trim int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) < trim {
				continue
			}
			if !yield(key[trim:]) {
				return
			}
		}
	}
}

// CollectKeys collects all the keys from the iterator and returns copies of them.
func CollectKeys(it BadgerIterator) [][]byte {
	var keys [][]byte
	for key := range Keys(it, 0) {
		keys = append(keys, append([]byte(nil), key...))
	}
	return keys
}
