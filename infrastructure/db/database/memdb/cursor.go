package memdb

import (
	"bytes"

	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

type pair struct {
	key   []byte
	value []byte
}

// cursor walks a copy of the pairs that matched its prefix when it was
// opened. index -1 is before the first pair, len(pairs) is exhausted.
type cursor struct {
	bucket   *database.Bucket
	pairs    []pair
	index    int
	isClosed bool
}

func newCursor(bucket *database.Bucket, pairs []pair) *cursor {
	return &cursor{
		bucket: bucket,
		pairs:  pairs,
		index:  -1,
	}
}

func (c *cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if c.index < len(c.pairs) {
		c.index++
	}
	return c.index < len(c.pairs)
}

func (c *cursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	if len(c.pairs) == 0 {
		c.index = 0
		return false
	}
	c.index = 0
	return true
}

func (c *cursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	keyBytes := key.Bytes()
	for i, pair := range c.pairs {
		if bytes.Equal(pair.key, keyBytes) {
			c.index = i
			return nil
		}
	}
	return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
}

func (c *cursor) current() (pair, bool) {
	if c.index < 0 || c.index >= len(c.pairs) {
		return pair{}, false
	}
	return c.pairs[c.index], true
}

func (c *cursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	current, ok := c.current()
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	suffix := bytes.TrimPrefix(current.key, c.bucket.Path())
	return c.bucket.Key(suffix), nil
}

func (c *cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	current, ok := c.current()
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return current.value, nil
}

func (c *cursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.pairs = nil
	return nil
}
