package memdb

import (
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

type operation struct {
	key      []byte
	value    []byte
	isDelete bool
}

// transaction buffers writes and applies them atomically on Commit.
// Reads go to the committed state of the database.
type transaction struct {
	db         *MemDB
	operations []operation
	isClosed   bool
}

// Begin begins a new transaction.
// This method is part of the Database interface.
func (db *MemDB) Begin() (database.Transaction, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	if db.isClosed {
		return nil, errClosed
	}
	return &transaction{db: db}, nil
}

func (tx *transaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	tx.operations = append(tx.operations, operation{key: key.Bytes(), value: value})
	return nil
}

func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return tx.db.Get(key)
}

func (tx *transaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return tx.db.Has(key)
}

func (tx *transaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	tx.operations = append(tx.operations, operation{key: key.Bytes(), isDelete: true})
	return nil
}

func (tx *transaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return tx.CursorWithPrefix(bucket, nil)
}

func (tx *transaction) CursorWithPrefix(bucket *database.Bucket, suffixPrefix []byte) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return tx.db.CursorWithPrefix(bucket, suffixPrefix)
}

func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true

	tx.db.mtx.Lock()
	defer tx.db.mtx.Unlock()

	if tx.db.isClosed {
		return errClosed
	}
	for _, operation := range tx.operations {
		if operation.isDelete {
			tx.db.tree.Remove(string(operation.key))
			continue
		}
		tx.db.put(operation.key, operation.value)
	}
	tx.operations = nil
	return nil
}

func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.operations = nil
	return nil
}

func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}
