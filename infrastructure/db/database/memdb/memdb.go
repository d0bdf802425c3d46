package memdb

import (
	"strings"
	"sync"

	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
)

// MemDB is an in-memory database.Database kept in a red-black tree
// ordered by the raw key bytes. Nothing is persisted.
type MemDB struct {
	mtx      sync.RWMutex
	tree     *redblacktree.Tree
	isClosed bool
}

// NewMemDB returns an empty in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{
		tree: redblacktree.NewWithStringComparator(),
	}
}

// Compile-time check that MemDB implements database.Database.
var _ database.Database = (*MemDB)(nil)

var errClosed = errors.New("cannot access a closed memdb")

// Close drops all the data held by the database.
// This method is part of the Database interface.
func (db *MemDB) Close() error {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	if db.isClosed {
		return errors.New("cannot close an already closed memdb")
	}
	db.isClosed = true
	db.tree.Clear()
	return nil
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
// This method is part of the DataAccessor interface.
func (db *MemDB) Put(key *database.Key, value []byte) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	if db.isClosed {
		return errClosed
	}
	db.put(key.Bytes(), value)
	return nil
}

func (db *MemDB) put(key []byte, value []byte) {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	db.tree.Put(string(key), valueCopy)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
// This method is part of the DataAccessor interface.
func (db *MemDB) Get(key *database.Key) ([]byte, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	if db.isClosed {
		return nil, errClosed
	}
	value, found := db.tree.Get(string(key.Bytes()))
	if !found {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return value.([]byte), nil
}

// Has returns true if the database does contains the
// given key.
// This method is part of the DataAccessor interface.
func (db *MemDB) Has(key *database.Key) (bool, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	if db.isClosed {
		return false, errClosed
	}
	_, found := db.tree.Get(string(key.Bytes()))
	return found, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
// This method is part of the DataAccessor interface.
func (db *MemDB) Delete(key *database.Key) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	if db.isClosed {
		return errClosed
	}
	db.tree.Remove(string(key.Bytes()))
	return nil
}

// Cursor begins a new cursor over the given bucket.
// This method is part of the DataAccessor interface.
func (db *MemDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return db.CursorWithPrefix(bucket, nil)
}

// CursorWithPrefix begins a new cursor over the keys of bucket whose
// suffix starts with suffixPrefix. The cursor copies the matching pairs,
// so later writes are not visible through it.
// This method is part of the DataAccessor interface.
func (db *MemDB) CursorWithPrefix(bucket *database.Bucket, suffixPrefix []byte) (database.Cursor, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	if db.isClosed {
		return nil, errClosed
	}

	prefix := string(bucket.PrefixPath(suffixPrefix))
	var pairs []pair
	iterator := db.tree.Iterator()
	for iterator.Next() {
		key := iterator.Key().(string)
		if key < prefix {
			continue
		}
		if !strings.HasPrefix(key, prefix) {
			break
		}
		pairs = append(pairs, pair{key: []byte(key), value: iterator.Value().([]byte)})
	}
	return newCursor(bucket, pairs), nil
}
