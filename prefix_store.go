package flatkv

import (
	"slices"

	badger "github.com/dgraph-io/badger/v4"
)

// PrefixStore is a store that prefixes all keys with a given prefix.
type PrefixStore struct {
	base   Store
	prefix []byte
}

// NewPrefixStore creates a new PrefixStore.
func NewPrefixStore(store Store, prefix []byte) *PrefixStore {
	return &PrefixStore{
		base:   store,
		prefix: slices.Clone(prefix),
	}
}

// Prefix returns the prefix of the store.
func (s *PrefixStore) Prefix() []byte {
	return s.prefix
}

// Sub returns a store nested under this one with the given prefix appended.
func (s *PrefixStore) Sub(prefix ...byte) *PrefixStore {
	return &PrefixStore{
		base:   s.base,
		prefix: slices.Concat(s.prefix, prefix),
	}
}

// Key returns key as it is stored in the base store.
func (s *PrefixStore) Key(key []byte) []byte {
	return slices.Concat(s.prefix, key)
}

// Delete deletes the key from the store.
func (s *PrefixStore) Delete(key []byte) error {
	return s.base.Delete(s.Key(key))
}

// Get gets the key from the store.
func (s *PrefixStore) Get(key []byte) (*badger.Item, error) {
	return s.base.Get(s.Key(key))
}

// NewIterator creates an iterator over the keys of the store that start with opts.Prefix.
// Keys returned by the iterator include the store prefix.
func (s *PrefixStore) NewIterator(opts badger.IteratorOptions) *badger.Iterator {
	opts.Prefix = s.Key(opts.Prefix)
	return s.base.NewIterator(opts)
}

// Set sets the key in the store.
func (s *PrefixStore) Set(key, value []byte) error {
	return s.base.Set(s.Key(key), value)
}

// SetEntry sets the entry in the store.
func (s *PrefixStore) SetEntry(e *badger.Entry) error {
	e.Key = s.Key(e.Key)
	return s.base.SetEntry(e)
}

var _ Store = (*PrefixStore)(nil)
