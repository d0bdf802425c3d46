package boltdb

import (
	"bytes"

	"github.com/boltdb/bolt"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// BoltCursor wraps a bolt cursor restricted to a key prefix. It owns the
// read transaction the bolt cursor belongs to.
type BoltCursor struct {
	tx         *bolt.Tx
	boltCursor *bolt.Cursor
	bucket     *database.Bucket
	prefix     []byte

	isStarted    bool
	currentKey   []byte
	currentValue []byte
	isClosed     bool
}

func newCursor(tx *bolt.Tx, bucket *database.Bucket, suffixPrefix []byte) *BoltCursor {
	return &BoltCursor{
		tx:         tx,
		boltCursor: tx.Bucket(rootBucket).Cursor(),
		bucket:     bucket,
		prefix:     bucket.PrefixPath(suffixPrefix),
	}
}

func (c *BoltCursor) setCurrent(key []byte, value []byte) bool {
	if key == nil || !bytes.HasPrefix(key, c.prefix) {
		c.currentKey = nil
		c.currentValue = nil
		return false
	}
	c.currentKey = key
	c.currentValue = value
	return true
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *BoltCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if !c.isStarted {
		return c.First()
	}
	if c.currentKey == nil {
		return false
	}
	return c.setCurrent(c.boltCursor.Next())
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *BoltCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.isStarted = true
	return c.setCurrent(c.boltCursor.Seek(c.prefix))
}

// Seek moves the iterator to the key/value pair whose key is exactly the
// given key. It returns ErrNotFound if such pair does not exist.
func (c *BoltCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	c.isStarted = true
	keyBytes := key.Bytes()
	found := c.setCurrent(c.boltCursor.Seek(keyBytes))
	if !found || !bytes.Equal(c.currentKey, keyBytes) {
		c.currentKey = nil
		c.currentValue = nil
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *BoltCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if c.currentKey == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	suffix := bytes.TrimPrefix(c.currentKey, c.bucket.Path())
	suffixCopy := make([]byte, len(suffix))
	copy(suffixCopy, suffix)
	return c.bucket.Key(suffixCopy), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
// The returned slice is only valid until the cursor is closed.
func (c *BoltCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if c.currentKey == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.currentValue, nil
}

// Close releases the read transaction held by the cursor.
func (c *BoltCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.boltCursor = nil
	c.currentKey = nil
	c.currentValue = nil
	return errors.WithStack(c.tx.Rollback())
}
