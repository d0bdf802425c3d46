package kvstore

import "github.com/distributeddata/kvstore/domain/model"

// change is the net effect of one or more writes to a single key.
type change struct {
	key      string
	previous *model.Value // nil if the key was absent before the first write
	current  *model.Value // nil if the key is deleted
}

// changeSet accumulates writes so that they can be reported as a single
// ChangeNotification, in the order keys were first written.
type changeSet struct {
	order   []string
	changes map[string]*change
}

func newChangeSet() *changeSet {
	return &changeSet{changes: make(map[string]*change)}
}

// lookup returns the value key has after the writes recorded so far.
// known is false if the set has no write to key.
func (cs *changeSet) lookup(key string) (value *model.Value, known bool) {
	c, ok := cs.changes[key]
	if !ok {
		return nil, false
	}
	return c.current, true
}

func (cs *changeSet) record(key string, previous, current *model.Value) {
	c, ok := cs.changes[key]
	if !ok {
		cs.order = append(cs.order, key)
		cs.changes[key] = &change{key: key, previous: previous, current: current}
		return
	}
	c.current = current
}

// notification returns the notification describing the set, or nil if
// the writes cancel out.
func (cs *changeSet) notification(deviceID string) *model.ChangeNotification {
	notification := &model.ChangeNotification{DeviceID: deviceID}
	for _, key := range cs.order {
		c := cs.changes[key]
		switch {
		case c.previous == nil && c.current != nil:
			notification.InsertEntries = append(notification.InsertEntries, model.NewEntry(key, c.current))
		case c.previous != nil && c.current != nil:
			notification.UpdateEntries = append(notification.UpdateEntries, model.NewEntry(key, c.current))
		case c.previous != nil && c.current == nil:
			notification.DeleteEntries = append(notification.DeleteEntries, model.NewEntry(key, c.previous))
		}
	}
	if notification.IsEmpty() {
		return nil
	}
	return notification
}
