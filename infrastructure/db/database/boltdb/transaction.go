package boltdb

import (
	"github.com/boltdb/bolt"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

type operation struct {
	key      []byte
	value    []byte
	isDelete bool
}

// BoltTransaction buffers writes and applies them in a single bolt write
// transaction on Commit. Reads see the committed state only.
type BoltTransaction struct {
	db         *BoltDB
	operations []operation
	isClosed   bool
}

// Begin begins a new transaction.
// This method is part of the Database interface.
func (db *BoltDB) Begin() (database.Transaction, error) {
	return &BoltTransaction{db: db}, nil
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	tx.operations = append(tx.operations, operation{key: key.Bytes(), value: value})
	return nil
}

// Get gets the committed value for the given key.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return tx.db.Get(key)
}

// Has returns true if the committed database contains the given key.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return tx.db.Has(key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	tx.operations = append(tx.operations, operation{key: key.Bytes(), isDelete: true})
	return nil
}

// Cursor begins a new cursor over the given bucket.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return tx.CursorWithPrefix(bucket, nil)
}

// CursorWithPrefix begins a new cursor over committed data.
// This method is part of the DataAccessor interface.
func (tx *BoltTransaction) CursorWithPrefix(bucket *database.Bucket, suffixPrefix []byte) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return tx.db.CursorWithPrefix(bucket, suffixPrefix)
}

// Commit applies every buffered write atomically.
// This method is part of the Transaction interface.
func (tx *BoltTransaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true

	err := tx.db.bolt.Update(func(boltTx *bolt.Tx) error {
		bucket := boltTx.Bucket(rootBucket)
		for _, operation := range tx.operations {
			var err error
			if operation.isDelete {
				err = bucket.Delete(operation.key)
			} else {
				err = bucket.Put(operation.key, operation.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	tx.operations = nil
	return errors.WithStack(err)
}

// Rollback drops every buffered write.
// This method is part of the Transaction interface.
func (tx *BoltTransaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.operations = nil
	return nil
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *BoltTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}
