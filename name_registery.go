package flatkv

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ehsanranjbar/flatkv/codec/lex"
	msgpack "github.com/vmihailenco/msgpack/v5"
)

// ErrRegistryFull is returned when every key of the configured length is taken.
var ErrRegistryFull = errors.New("name registry is full")

// NameRegistry associates a long string name, such as a flattened path, with a unique sized byte slice.
// Names and keys are persisted together so a reopened registry hands out the same keys.
type NameRegistry struct {
	db      *badger.DB
	prefix  []byte
	keyLen  int
	nextKey []byte
	m       map[string][]byte
	rev     map[string]string
	mu      sync.RWMutex
}

// NewNameRegistry creates a new NameRegistry.
func NewNameRegistry(db *badger.DB, opts ...func(*NameRegistry)) (*NameRegistry, error) {
	nreg := &NameRegistry{
		db:     db,
		keyLen: 1,
	}
	for _, opt := range opts {
		opt(nreg)
	}
	if nreg.keyLen < 1 {
		return nil, fmt.Errorf("invalid name registry key length %d", nreg.keyLen)
	}
	nreg.nextKey = lex.Increment(bytes.Repeat([]byte{0}, nreg.keyLen))

	err := nreg.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load name registry: %w", err)
	}
	return nreg, nil
}

// WithRegistryPrefix sets the key the NameRegistry persists itself under.
func WithRegistryPrefix(prefix []byte) func(*NameRegistry) {
	return func(nreg *NameRegistry) {
		nreg.prefix = prefix
	}
}

// WithRegistryKeyLen sets the key length for the NameRegistry.
func WithRegistryKeyLen(keyLen int) func(*NameRegistry) {
	return func(nreg *NameRegistry) {
		nreg.keyLen = keyLen
	}
}

func (nreg *NameRegistry) load() error {
	nreg.m = make(map[string][]byte)
	err := nreg.db.View(func(txn *badger.Txn) error {
		configItem, err := txn.Get(nreg.getConfigKey())
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get config item: %w", err)
		}

		return configItem.Value(func(val []byte) error {
			dec := msgpack.GetDecoder()
			dec.Reset(bytes.NewReader(val))
			defer msgpack.PutDecoder(dec)

			err := dec.DecodeMulti(&nreg.m, &nreg.nextKey)
			if err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	nreg.rev = make(map[string]string, len(nreg.m))
	for name, key := range nreg.m {
		nreg.rev[string(key)] = name
	}
	return nil
}

func (nreg *NameRegistry) getConfigKey() []byte {
	if len(nreg.prefix) == 0 {
		return bytes.Repeat([]byte{0}, nreg.keyLen)
	}
	return nreg.prefix
}

// KeyLen returns the length of the keys handed out by the registry.
func (nreg *NameRegistry) KeyLen() int {
	return nreg.keyLen
}

// MustName is like Name but panics if an error occurs.
func (nreg *NameRegistry) MustName(name string) []byte {
	key, err := nreg.Name(name)
	if err != nil {
		panic(err)
	}
	return key
}

// Name associates a name with a unique key.
func (nreg *NameRegistry) Name(name string) ([]byte, error) {
	nreg.mu.RLock()
	key, ok := nreg.m[name]
	nreg.mu.RUnlock()
	if ok {
		return key, nil
	}

	nreg.mu.Lock()
	defer nreg.mu.Unlock()

	if key, ok := nreg.m[name]; ok {
		return key, nil
	}

	if len(nreg.nextKey) > nreg.keyLen {
		return nil, ErrRegistryFull
	}

	key = bytes.Clone(nreg.nextKey)
	prev := bytes.Clone(nreg.nextKey)
	nreg.m[name] = key
	nreg.rev[string(key)] = name
	nreg.nextKey = lex.Increment(nreg.nextKey)

	err := nreg.update()
	if err != nil {
		delete(nreg.m, name)
		delete(nreg.rev, string(key))
		nreg.nextKey = prev
		return nil, fmt.Errorf("failed to update name registry: %w", err)
	}

	return key, nil
}

// Key returns the key associated with name without registering it.
func (nreg *NameRegistry) Key(name string) ([]byte, bool) {
	nreg.mu.RLock()
	defer nreg.mu.RUnlock()

	key, ok := nreg.m[name]
	return key, ok
}

// Lookup returns the name associated with key.
func (nreg *NameRegistry) Lookup(key []byte) (string, bool) {
	nreg.mu.RLock()
	defer nreg.mu.RUnlock()

	name, ok := nreg.rev[string(key)]
	return name, ok
}

func (nreg *NameRegistry) update() error {
	return nreg.db.Update(func(txn *badger.Txn) error {
		enc := msgpack.GetEncoder()
		var buf bytes.Buffer
		enc.Reset(&buf)
		defer msgpack.PutEncoder(enc)

		err := enc.EncodeMulti(nreg.m, nreg.nextKey)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		err = txn.Set(nreg.getConfigKey(), buf.Bytes())
		if err != nil {
			return fmt.Errorf("failed to set config item: %w", err)
		}

		return nil
	})
}
