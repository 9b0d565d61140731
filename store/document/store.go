// Package document stores flattened results in badger, one key per leaf.
//
// Keys live under a prefix:
//
//	prefix m id          manifest: the interned paths of the document, in order
//	prefix v id pathKey  leaf value
//	prefix i pathKey     roaring bitmap of the ids of documents holding the path
//	prefix n             path registry
//	prefix s             id sequence
//
// Paths are interned to fixed length keys with a flatkv.NameRegistry and leaves are msgpack encoded.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/ehsanranjbar/flatkv"
	"github.com/ehsanranjbar/flatkv/codec"
	"github.com/ehsanranjbar/flatkv/codec/lex"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/iters"
	"github.com/ehsanranjbar/flatkv/query"
	"github.com/go-logr/logr"
	msgpack "github.com/vmihailenco/msgpack/v5"
)

// DefaultPrefix is the prefix used when none is given.
const DefaultPrefix = "flat"

const (
	manifestSpace = 'm'
	valueSpace    = 'v'
	indexSpace    = 'i'
	registrySpace = 'n'
	sequenceSpace = 's'

	sequenceBandwidth = 64
	idLen             = 8
)

// ErrNotFound is returned for ids and paths that are not stored.
var ErrNotFound = errors.New("not found")

// Store keeps flattened results in a badger database.
type Store struct {
	db     *badger.DB
	prefix []byte
	keyLen int
	logger logr.Logger
	names  *flatkv.NameRegistry
	seq    *badger.Sequence
	values codec.ValueCodec
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the prefix every key of the store starts with.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = []byte(prefix)
	}
}

// WithKeyLen sets the length of interned path keys. Longer keys allow more distinct paths.
func WithKeyLen(n int) Option {
	return func(s *Store) {
		s.keyLen = n
	}
}

// WithLogger sets the logger of the store.
func WithLogger(logger logr.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens a Store on db. The store does not own db; Close releases only the store's own resources.
func Open(db *badger.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:     db,
		prefix: []byte(DefaultPrefix),
		keyLen: 2,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	names, err := flatkv.NewNameRegistry(
		db,
		flatkv.WithRegistryPrefix(s.key(registrySpace)),
		flatkv.WithRegistryKeyLen(s.keyLen),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open path registry: %w", err)
	}
	s.names = names

	seq, err := db.GetSequence(s.key(sequenceSpace), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to open id sequence: %w", err)
	}
	s.seq = seq

	return s, nil
}

func (s *Store) key(space byte, parts ...[]byte) []byte {
	return slices.Concat(append([][]byte{s.prefix, {space}}, parts...)...)
}

func (s *Store) space(txn *badger.Txn, space byte) *flatkv.PrefixStore {
	return flatkv.NewPrefixStore(txn, s.key(space))
}

// Close releases the id sequence.
func (s *Store) Close() error {
	return s.seq.Release()
}

// Put stores r under a new id and returns it. Ids start at 1.
func (s *Store) Put(r *flatten.Result) (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	id := n + 1

	if err := s.Set(id, r); err != nil {
		return 0, err
	}
	return id, nil
}

type leaf struct {
	key   []byte
	value []byte
}

// Set stores r under id, replacing the document stored there.
func (s *Store) Set(id uint64, r *flatten.Result) error {
	leaves := make([]leaf, 0, r.Len())
	for path, v := range r.All() {
		key, err := s.names.Name(path)
		if err != nil {
			return fmt.Errorf("failed to intern path %q: %w", path, err)
		}
		bz, err := s.values.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode value of %q: %w", path, err)
		}
		leaves = append(leaves, leaf{key: key, value: bz})
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		idKey := lex.EncodeUint64(id)
		if err := s.remove(txn, id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		values := s.space(txn, valueSpace)
		keys := make([][]byte, 0, len(leaves))
		for _, l := range leaves {
			if err := values.Set(slices.Concat(idKey, l.key), l.value); err != nil {
				return fmt.Errorf("failed to set value: %w", err)
			}
			if err := s.updateIndex(txn, l.key, func(bm *roaring64.Bitmap) { bm.Add(id) }); err != nil {
				return err
			}
			keys = append(keys, l.key)
		}

		manifest, err := msgpack.Marshal(keys)
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return s.space(txn, manifestSpace).Set(idKey, manifest)
	})
	if err != nil {
		return fmt.Errorf("failed to set document %d: %w", id, err)
	}

	s.logger.V(1).Info("Stored document", "id", id, "paths", len(leaves))
	return nil
}

// Get returns the document stored under id.
func (s *Store) Get(id uint64) (*flatten.Result, error) {
	var r *flatten.Result
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = s.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) get(txn *badger.Txn, id uint64) (*flatten.Result, error) {
	keys, err := s.manifest(txn, id)
	if err != nil {
		return nil, err
	}

	type pair struct {
		path  string
		value any
	}
	idKey := lex.EncodeUint64(id)
	values := s.space(txn, valueSpace)
	pairs := make([]pair, 0, len(keys))
	for _, key := range keys {
		path, ok := s.names.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("unknown path key %x in document %d", key, id)
		}
		v, err := s.value(values, slices.Concat(idKey, key))
		if err != nil {
			return nil, fmt.Errorf("failed to get %q of document %d: %w", path, id, err)
		}
		pairs = append(pairs, pair{path: path, value: v})
	}

	return flatten.Collect(func(yield func(string, any) bool) {
		for _, p := range pairs {
			if !yield(p.path, p.value) {
				return
			}
		}
	}), nil
}

// GetPath returns the leaf of the document stored under id at path.
func (s *Store) GetPath(id uint64, path string) (any, error) {
	key, ok := s.names.Key(path)
	if !ok {
		return nil, fmt.Errorf("path %q: %w", path, ErrNotFound)
	}

	var v any
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		v, err = s.value(s.space(txn, valueSpace), slices.Concat(lex.EncodeUint64(id), key))
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("path %q of document %d: %w", path, id, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes the document stored under id.
func (s *Store) Delete(id uint64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return s.remove(txn, id)
	})
	if err != nil {
		return err
	}

	s.logger.V(1).Info("Deleted document", "id", id)
	return nil
}

func (s *Store) remove(txn *badger.Txn, id uint64) error {
	keys, err := s.manifest(txn, id)
	if err != nil {
		return err
	}

	idKey := lex.EncodeUint64(id)
	values := s.space(txn, valueSpace)
	for _, key := range keys {
		if err := values.Delete(slices.Concat(idKey, key)); err != nil {
			return fmt.Errorf("failed to delete value: %w", err)
		}
		if err := s.updateIndex(txn, key, func(bm *roaring64.Bitmap) { bm.Remove(id) }); err != nil {
			return err
		}
	}
	return s.space(txn, manifestSpace).Delete(idKey)
}

// Has returns the ids of the documents that hold a leaf at path.
func (s *Store) Has(path string) (*roaring64.Bitmap, error) {
	key, ok := s.names.Key(path)
	if !ok {
		return roaring64.New(), nil
	}

	var bm *roaring64.Bitmap
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		bm, err = s.index(s.space(txn, indexSpace), key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// IDs returns the ids of every stored document in ascending order.
func (s *Store) IDs() ([]uint64, error) {
	var ids []uint64
	err := s.db.View(func(txn *badger.Txn) error {
		return s.iterate(txn, func(id uint64) error {
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Query returns the ids of the documents matching the qlbridge expression q in ascending order.
// The _id identifier resolves to the id of the document.
func (s *Store) Query(q string) ([]uint64, error) {
	f, err := query.Compile(q)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	err = s.db.View(func(txn *badger.Txn) error {
		return s.iterate(txn, func(id uint64) error {
			r, err := s.get(txn, id)
			if err != nil {
				return err
			}
			if f.MatchDocument(id, r) {
				ids = append(ids, id)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.V(1).Info("Queried documents", "query", q, "matches", len(ids))
	return ids, nil
}

func (s *Store) iterate(txn *badger.Txn, f func(id uint64) error) error {
	manifests := s.space(txn, manifestSpace)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := manifests.NewIterator(opts)
	defer it.Close()

	for key := range iters.Keys(it, len(manifests.Prefix())) {
		if len(key) != idLen {
			continue
		}
		if err := f(lex.DecodeUint64(key)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) manifest(txn *badger.Txn, id uint64) ([][]byte, error) {
	item, err := s.space(txn, manifestSpace).Get(lex.EncodeUint64(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}

	var keys [][]byte
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &keys)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return keys, nil
}

func (s *Store) value(values *flatkv.PrefixStore, key []byte) (any, error) {
	item, err := values.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var v any
	err = item.Value(func(val []byte) error {
		v, err = s.values.Decode(val)
		return err
	})
	return v, err
}

func (s *Store) index(idx *flatkv.PrefixStore, key []byte) (*roaring64.Bitmap, error) {
	bm := roaring64.New()
	item, err := idx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return bm, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}

	err = item.Value(func(val []byte) error {
		return bm.UnmarshalBinary(bytes.Clone(val))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	return bm, nil
}

func (s *Store) updateIndex(txn *badger.Txn, key []byte, f func(*roaring64.Bitmap)) error {
	idx := s.space(txn, indexSpace)
	bm, err := s.index(idx, key)
	if err != nil {
		return err
	}

	f(bm)
	if bm.IsEmpty() {
		return idx.Delete(key)
	}

	bz, err := bm.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return idx.Set(key, bz)
}
