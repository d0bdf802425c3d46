package kvstore

import (
	"time"

	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// pendingTransaction is the explicit transaction of a store.
type pendingTransaction struct {
	dbTx    database.Transaction
	changes *changeSet
}

// StartTransaction opens a transaction. Until Commit or Rollback every
// write of the store goes into it, and nothing is visible to reads or
// observers.
func (s *Store) StartTransaction() (err error) {
	defer s.measure("start_transaction", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	if s.transaction != nil {
		return errors.WithStack(ErrTransactionInProgress)
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	s.transaction = &pendingTransaction{dbTx: dbTx, changes: newChangeSet()}
	log.Debugf("Store %s started a transaction", s.id)
	return nil
}

// Commit applies the writes of the open transaction and notifies
// observers of their net effect with a single notification.
func (s *Store) Commit() (err error) {
	defer s.measure("commit", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	if s.transaction == nil {
		return errors.WithStack(ErrNoTransaction)
	}

	transaction := s.transaction
	s.transaction = nil
	err = transaction.dbTx.Commit()
	if err != nil {
		_ = transaction.dbTx.RollbackUnlessClosed()
		return err
	}
	s.metrics.RecordTransaction(s.id, "commit")
	log.Debugf("Store %s committed a transaction of %d keys", s.id, len(transaction.changes.order))

	s.publish(transaction.changes.notification(s.deviceID))
	return nil
}

// Rollback discards the writes of the open transaction.
func (s *Store) Rollback() (err error) {
	defer s.measure("rollback", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	if s.transaction == nil {
		return errors.WithStack(ErrNoTransaction)
	}

	transaction := s.transaction
	s.transaction = nil
	s.metrics.RecordTransaction(s.id, "rollback")
	log.Debugf("Store %s rolled back a transaction", s.id)
	return transaction.dbTx.Rollback()
}
