package kvstore

import (
	"time"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/domain/query"
	"github.com/distributeddata/kvstore/domain/resultset"
	"github.com/pkg/errors"
)

// readEntries returns the committed entries whose key starts with prefix,
// in key order.
func (s *Store) readEntries(prefix string) ([]*model.Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	err := s.checkOpen()
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.CursorWithPrefix(entriesBucket, []byte(prefix))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var entries []*model.Entry
	for cursor.Next() {
		storageKey, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		stored, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		key := string(storageKey.Suffix())
		value, err := s.decodeValue(key, stored)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.NewEntry(key, value))
	}
	return entries, nil
}

func (s *Store) queryEntries(q *query.Query) ([]*model.Entry, error) {
	if q == nil {
		return nil, invalidArgument("nil query")
	}
	err := q.Validate()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s", err)
	}
	err = s.validatePrefix(q.KeyPrefix())
	if err != nil {
		return nil, err
	}
	entries, err := s.readEntries(q.KeyPrefix())
	if err != nil {
		return nil, err
	}
	return q.Apply(entries)
}

// GetEntries returns the entries whose key starts with keyPrefix, in key
// order. An empty prefix returns every entry.
func (s *Store) GetEntries(keyPrefix string) (entries []*model.Entry, err error) {
	defer s.measure("get_entries", time.Now(), &err)

	err = s.validatePrefix(keyPrefix)
	if err != nil {
		return nil, err
	}
	return s.readEntries(keyPrefix)
}

// GetEntriesByQuery returns the entries matching q.
func (s *Store) GetEntriesByQuery(q *query.Query) (entries []*model.Entry, err error) {
	defer s.measure("get_entries_by_query", time.Now(), &err)

	return s.queryEntries(q)
}

// GetResultSize returns how many entries match q.
func (s *Store) GetResultSize(q *query.Query) (size int, err error) {
	defer s.measure("get_result_size", time.Now(), &err)

	entries, err := s.queryEntries(q)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// GetResultSet opens a result set over the entries whose key starts with
// keyPrefix. The result set holds a snapshot: later writes do not show in
// it. It must be closed, either directly or with CloseResultSet.
func (s *Store) GetResultSet(keyPrefix string) (rs *resultset.ResultSet, err error) {
	defer s.measure("get_result_set", time.Now(), &err)

	err = s.validatePrefix(keyPrefix)
	if err != nil {
		return nil, err
	}
	return s.openResultSet(func() ([]*model.Entry, error) {
		return s.readEntries(keyPrefix)
	})
}

// GetResultSetByQuery opens a result set over the entries matching q.
func (s *Store) GetResultSetByQuery(q *query.Query) (rs *resultset.ResultSet, err error) {
	defer s.measure("get_result_set_by_query", time.Now(), &err)

	return s.openResultSet(func() ([]*model.Entry, error) {
		return s.queryEntries(q)
	})
}

func (s *Store) openResultSet(readEntries func() ([]*model.Entry, error)) (*resultset.ResultSet, error) {
	s.resultSetsLock.Lock()
	defer s.resultSetsLock.Unlock()

	if len(s.resultSets) >= model.MaxOpenResultSets {
		return nil, errors.Wrapf(ErrTooManyResultSets, "store %s already has %d open result sets",
			s.id, len(s.resultSets))
	}

	entries, err := readEntries()
	if err != nil {
		return nil, err
	}

	rs := resultset.New(entries, s)
	s.resultSets[rs.ID()] = rs
	s.metrics.SetOpenResultSets(s.id, len(s.resultSets))
	log.Debugf("Store %s opened result set %s over %d entries", s.id, rs.ID(), len(entries))
	return rs, nil
}

// CloseResultSet closes a result set opened by this store.
func (s *Store) CloseResultSet(rs *resultset.ResultSet) (err error) {
	defer s.measure("close_result_set", time.Now(), &err)

	if rs == nil {
		return invalidArgument("nil result set")
	}

	s.mtx.RLock()
	err = s.checkOpen()
	s.mtx.RUnlock()
	if err != nil {
		return err
	}

	s.resultSetsLock.Lock()
	registered, ok := s.resultSets[rs.ID()]
	s.resultSetsLock.Unlock()
	if !ok || registered != rs {
		return errors.Wrapf(ErrForeignResultSet, "result set %s", rs.ID())
	}

	return rs.Close()
}

// ResultSetClosed drops rs from the registry of open result sets.
// It is called by rs when it is closed.
func (s *Store) ResultSetClosed(rs *resultset.ResultSet) {
	s.resultSetsLock.Lock()
	defer s.resultSetsLock.Unlock()

	delete(s.resultSets, rs.ID())
	s.metrics.SetOpenResultSets(s.id, len(s.resultSets))
	log.Tracef("Store %s closed result set %s", s.id, rs.ID())
}

// OpenResultSetCount returns how many result sets are open.
func (s *Store) OpenResultSetCount() int {
	s.resultSetsLock.Lock()
	defer s.resultSetsLock.Unlock()

	return len(s.resultSets)
}

func (s *Store) closeAllResultSets() {
	s.resultSetsLock.Lock()
	open := make([]*resultset.ResultSet, 0, len(s.resultSets))
	for _, rs := range s.resultSets {
		open = append(open, rs)
	}
	s.resultSetsLock.Unlock()

	if len(open) > 0 {
		log.Debugf("Store %s closing %d result sets left open", s.id, len(open))
	}
	for _, rs := range open {
		err := rs.Close()
		if err != nil {
			// Closed concurrently by its user
			log.Tracef("Result set %s was already closed: %s", rs.ID(), err)
		}
	}
}
