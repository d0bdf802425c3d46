package boltdb

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// rootBucket is the single bolt bucket every key lives in. Database
// buckets are expressed through key paths, as with the other backends.
var rootBucket = []byte("kv")

const openTimeout = 5 * time.Second

// BoltDB defines a thin wrapper around a bolt database file.
type BoltDB struct {
	bolt *bolt.DB
}

// NewBoltDB opens the bolt database file at path, creating it if needed.
func NewBoltDB(path string) (*BoltDB, error) {
	boltDB, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening bolt database %s", path)
	}
	err = boltDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		closeErr := boltDB.Close()
		if closeErr != nil {
			log.Warnf("Failed closing bolt database %s: %s", path, closeErr)
		}
		return nil, errors.WithStack(err)
	}
	log.Debugf("Opened bolt database %s", path)
	return &BoltDB{bolt: boltDB}, nil
}

// Compile-time check that BoltDB implements database.Database.
var _ database.Database = (*BoltDB)(nil)

// Close closes the bolt database. It waits for open cursors, which hold
// read transactions, to be closed.
// This method is part of the Database interface.
func (db *BoltDB) Close() error {
	return errors.WithStack(db.bolt.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
// This method is part of the DataAccessor interface.
func (db *BoltDB) Put(key *database.Key, value []byte) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key.Bytes(), value)
	})
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
// This method is part of the DataAccessor interface.
func (db *BoltDB) Get(key *database.Key) ([]byte, error) {
	var value []byte
	err := db.bolt.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(rootBucket).Get(key.Bytes())
		if data == nil {
			return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
		}
		// bolt values are only valid while the transaction is open
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has returns true if the database does contains the
// given key.
// This method is part of the DataAccessor interface.
func (db *BoltDB) Has(key *database.Key) (bool, error) {
	exists := false
	err := db.bolt.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(rootBucket).Get(key.Bytes()) != nil
		return nil
	})
	return exists, errors.WithStack(err)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
// This method is part of the DataAccessor interface.
func (db *BoltDB) Delete(key *database.Key) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key.Bytes())
	})
	return errors.WithStack(err)
}

// Cursor begins a new cursor over the given bucket.
// This method is part of the DataAccessor interface.
func (db *BoltDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return db.CursorWithPrefix(bucket, nil)
}

// CursorWithPrefix begins a new cursor over the keys of bucket whose
// suffix starts with suffixPrefix. The cursor holds a bolt read
// transaction until it is closed.
// This method is part of the DataAccessor interface.
func (db *BoltDB) CursorWithPrefix(bucket *database.Bucket, suffixPrefix []byte) (database.Cursor, error) {
	tx, err := db.bolt.Begin(false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newCursor(tx, bucket, suffixPrefix), nil
}
