package kvstore

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/distributeddata/kvstore/infrastructure/logger"
)

// writer applies writes to a database transaction and records their net
// effect in a change set.
type writer struct {
	store   *Store
	dbTx    database.Transaction
	changes *changeSet
}

// previous returns the value key has before the write being applied.
func (w *writer) previous(key string) (*model.Value, error) {
	if value, known := w.changes.lookup(key); known {
		return value, nil
	}
	return w.store.readCommitted(key)
}

func (w *writer) put(key string, value *model.Value, serialized []byte) error {
	previous, err := w.previous(key)
	if err != nil {
		return err
	}
	stored, err := w.store.encodeValue(key, serialized)
	if err != nil {
		return err
	}
	err = w.dbTx.Put(storageKey(key), stored)
	if err != nil {
		return err
	}
	w.changes.record(key, previous, value)
	return nil
}

func (w *writer) delete(key string) error {
	previous, err := w.previous(key)
	if err != nil {
		return err
	}
	if previous == nil {
		return nil
	}
	err = w.dbTx.Delete(storageKey(key))
	if err != nil {
		return err
	}
	w.changes.record(key, previous, nil)
	return nil
}

// write runs f against the open transaction if there is one. Otherwise
// it runs f in a database transaction of its own, commits it and
// publishes the resulting notification.
func (s *Store) write(f func(w *writer) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	if s.transaction != nil {
		return f(&writer{store: s, dbTx: s.transaction.dbTx, changes: s.transaction.changes})
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	w := &writer{store: s, dbTx: dbTx, changes: newChangeSet()}
	err = f(w)
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	s.publish(w.changes.notification(s.deviceID))
	return nil
}

// publish queues notification for every observer of local changes.
// Must be called with the write lock held, so observers see
// notifications in commit order.
func (s *Store) publish(notification *model.ChangeNotification) {
	if notification == nil {
		return
	}
	log.Tracef("Store %s publishing %s", s.id, logger.NewLogClosure(func() string {
		return spew.Sdump(notification)
	}))
	for _, sub := range s.subscriptions {
		if sub.subscribeType.ReceivesLocal() {
			sub.enqueue(notification)
		}
	}
}
