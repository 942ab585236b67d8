package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockKeyPrefix namespaces block records; keys are the prefix followed by the
// big-endian height so iteration order equals chain order.
var blockKeyPrefix = []byte("block/")

// LevelDBStore persists the chain in an embedded LevelDB database.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (or creates) a LevelDB database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

// NewLevelDBStore wraps an already-open database.
func NewLevelDBStore(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{db: db}
}

func blockKey(height int64) []byte {
	key := make([]byte, len(blockKeyPrefix)+8)
	copy(key, blockKeyPrefix)
	binary.BigEndian.PutUint64(key[len(blockKeyPrefix):], uint64(height))
	return key
}

// Load implements Store.
func (s *LevelDBStore) Load(_ context.Context) ([]*Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix(blockKeyPrefix), nil)
	defer iter.Release()

	var blocks []*Block
	for iter.Next() {
		b := &Block{}
		if err := json.Unmarshal(iter.Value(), b); err != nil {
			return nil, fmt.Errorf("decode block record %x: %w", iter.Key(), err)
		}
		blocks = append(blocks, b)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

// Save implements Store. Writes are synced to disk before returning.
func (s *LevelDBStore) Save(_ context.Context, b *Block) error {
	key := blockKey(b.Height)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return fmt.Errorf("check block %d: %w", b.Height, err)
	}
	if exists {
		return fmt.Errorf("block %d already persisted", b.Height)
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", b.Height, err)
	}
	if err := s.db.Put(key, raw, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("put block %d: %w", b.Height, err)
	}
	return nil
}

// Close implements Store.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
