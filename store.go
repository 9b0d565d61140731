// Package flatkv holds the badger plumbing shared by the flat result stores.
package flatkv

import (
	badger "github.com/dgraph-io/badger/v4"
)

// Store is the generalized interface that represents a key-value store with get, set, delete and iterate operations.
// *badger.Txn implements it.
type Store interface {
	Delete(key []byte) error
	Get(key []byte) (item *badger.Item, err error)
	NewIterator(opts badger.IteratorOptions) *badger.Iterator
	Set(key, value []byte) error
	SetEntry(e *badger.Entry) error
}

var _ Store = (*badger.Txn)(nil)
