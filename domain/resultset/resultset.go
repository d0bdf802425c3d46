package resultset

import (
	"sync"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// beforeFirst is the position of a result set that is not yet on an entry.
const beforeFirst = -1

// Owner is notified when a result set it opened is closed, so it can drop
// the result set from its registry.
type Owner interface {
	ResultSetClosed(rs *ResultSet)
}

// ResultSet is a positional cursor over a fixed snapshot of entries.
// It is safe for concurrent use.
type ResultSet struct {
	id    uuid.UUID
	owner Owner

	mtx      sync.Mutex
	entries  []*model.Entry
	count    int
	position int
	isClosed bool
}

// New returns a result set over entries, positioned before the first
// entry. owner may be nil.
func New(entries []*model.Entry, owner Owner) *ResultSet {
	return &ResultSet{
		id:       uuid.New(),
		owner:    owner,
		entries:  entries,
		count:    len(entries),
		position: beforeFirst,
	}
}

// ID returns the identity of the result set in its owner's registry.
func (rs *ResultSet) ID() uuid.UUID {
	return rs.id
}

// IsClosed returns whether Close was called. Unlike every other
// operation it never fails.
func (rs *ResultSet) IsClosed() bool {
	rs.mtx.Lock()
	defer rs.mtx.Unlock()

	return rs.isClosed
}

// withLock runs f under the result set lock, unless the result set is
// closed.
func (rs *ResultSet) withLock(f func()) error {
	rs.mtx.Lock()
	defer rs.mtx.Unlock()

	if rs.isClosed {
		return errors.WithStack(ErrClosedResultSet)
	}
	f()
	return nil
}

// afterLast returns the resting position past the last entry. For an
// empty result set this is beforeFirst.
func (rs *ResultSet) afterLast() int {
	if rs.count == 0 {
		return beforeFirst
	}
	return rs.count
}

// moveTo sets the position to target, clamping it to the boundaries, and
// returns whether the result set is now on an entry.
// Must be called with the lock held.
func (rs *ResultSet) moveTo(target int) bool {
	switch {
	case target < 0:
		rs.position = beforeFirst
		return false
	case target >= rs.count:
		rs.position = rs.afterLast()
		return false
	}
	rs.position = target
	return true
}

// Count returns the number of entries in the result set.
func (rs *ResultSet) Count() (int, error) {
	var count int
	err := rs.withLock(func() {
		count = rs.count
	})
	return count, err
}

// Position returns the current position: -1 before the first entry,
// Count() after the last one.
func (rs *ResultSet) Position() (int, error) {
	var position int
	err := rs.withLock(func() {
		position = rs.position
	})
	return position, err
}

// MoveToFirst moves to the first entry. It returns false if the result
// set is empty.
func (rs *ResultSet) MoveToFirst() (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		moved = rs.moveTo(0)
	})
	return moved, err
}

// MoveToLast moves to the last entry. It returns false if the result set
// is empty.
func (rs *ResultSet) MoveToLast() (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		moved = rs.moveTo(rs.count - 1)
	})
	return moved, err
}

// MoveToNext moves one entry forward. Moving past the last entry leaves
// the result set after the last entry and returns false.
func (rs *ResultSet) MoveToNext() (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		moved = rs.moveTo(rs.position + 1)
	})
	return moved, err
}

// MoveToPrevious moves one entry backward. Moving before the first entry,
// including from the first entry itself, leaves the result set before the
// first entry and returns false.
func (rs *ResultSet) MoveToPrevious() (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		moved = rs.moveTo(rs.position - 1)
	})
	return moved, err
}

// Move moves offset entries from the current position, backward for a
// negative offset. It has the same result as offset calls to MoveToNext
// (or -offset calls to MoveToPrevious): overruns stop at the boundary and
// return false.
func (rs *ResultSet) Move(offset int) (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		// Clamp before adding so that extreme offsets cannot overflow.
		switch {
		case offset >= rs.count-rs.position:
			moved = rs.moveTo(rs.count)
		case offset <= beforeFirst-rs.position:
			moved = rs.moveTo(beforeFirst)
		default:
			moved = rs.moveTo(rs.position + offset)
		}
	})
	return moved, err
}

// MoveToPosition moves to the entry at position. -1 and Count() are the
// boundary positions: moving to them succeeds in changing the position
// but returns false. Any other position outside the result set leaves
// the position unchanged and returns false.
func (rs *ResultSet) MoveToPosition(position int) (bool, error) {
	var moved bool
	err := rs.withLock(func() {
		if position < beforeFirst || position > rs.count {
			return
		}
		moved = rs.moveTo(position)
	})
	return moved, err
}

// IsFirst returns whether the result set is on its first entry.
func (rs *ResultSet) IsFirst() (bool, error) {
	var isFirst bool
	err := rs.withLock(func() {
		isFirst = rs.count > 0 && rs.position == 0
	})
	return isFirst, err
}

// IsLast returns whether the result set is on its last entry.
func (rs *ResultSet) IsLast() (bool, error) {
	var isLast bool
	err := rs.withLock(func() {
		isLast = rs.count > 0 && rs.position == rs.count-1
	})
	return isLast, err
}

// IsBeforeFirst returns whether the result set is before its first entry.
// This is always the case for an empty result set.
func (rs *ResultSet) IsBeforeFirst() (bool, error) {
	var isBeforeFirst bool
	err := rs.withLock(func() {
		isBeforeFirst = rs.position == beforeFirst
	})
	return isBeforeFirst, err
}

// IsAfterLast returns whether the result set is after its last entry.
func (rs *ResultSet) IsAfterLast() (bool, error) {
	var isAfterLast bool
	err := rs.withLock(func() {
		isAfterLast = rs.count > 0 && rs.position == rs.count
	})
	return isAfterLast, err
}

// Entry returns the entry at the current position, or ErrNoCurrentEntry
// if the result set is before the first entry or after the last one.
func (rs *ResultSet) Entry() (*model.Entry, error) {
	var entry *model.Entry
	var entryErr error
	err := rs.withLock(func() {
		if rs.position < 0 || rs.position >= rs.count {
			entryErr = errors.Wrapf(ErrNoCurrentEntry, "position %d of %d", rs.position, rs.count)
			return
		}
		entry = rs.entries[rs.position]
	})
	if err != nil {
		return nil, err
	}
	return entry, entryErr
}

// Close releases the snapshot and tells the owner the result set is gone.
// Closing a closed result set returns ErrClosedResultSet.
func (rs *ResultSet) Close() error {
	err := rs.withLock(func() {
		rs.isClosed = true
		rs.entries = nil
	})
	if err != nil {
		return err
	}

	if rs.owner != nil {
		rs.owner.ResultSetClosed(rs)
	}
	return nil
}
