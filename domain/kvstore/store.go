package kvstore

import (
	"sync"
	"time"

	"github.com/distributeddata/kvstore/domain/encryption"
	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/domain/resultset"
	"github.com/distributeddata/kvstore/domain/serialization"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/distributeddata/kvstore/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	entriesBucket = database.MakeBucket([]byte("entries"))
	metaBucket    = database.MakeBucket([]byte("meta"))

	encryptedKey     = metaBucket.Key([]byte("encrypted"))
	securityLevelKey = metaBucket.Key([]byte("security-level"))
)

// DefaultDeviceID is the device ID reported in notifications of changes
// made through a store that was not given one.
const DefaultDeviceID = "local"

// Config holds everything needed to open a Store.
type Config struct {
	// ID is the store ID, used in logs, metrics and key derivation.
	ID string

	// Options are the store options. nil means model.DefaultOptions().
	Options *model.Options

	// Database holds the store data. The store closes it on Close.
	Database database.Database

	// RootKey is required when Options.Encrypt is set.
	RootKey []byte

	// DeviceID is reported in change notifications.
	DeviceID string

	// Metrics may be nil.
	Metrics *metrics.Collector

	// OnClose, if set, is called once the store is closed.
	OnClose func(store *Store)
}

// Store is a single-version key/value store. Values are typed, keys are
// strings, and all operations are safe for concurrent use.
//
// Reads always see committed data: writes made inside a transaction are
// visible only after Commit.
type Store struct {
	id       string
	options  *model.Options
	db       database.Database
	sealer   *encryption.Sealer
	deviceID string
	metrics  *metrics.Collector
	onClose  func(store *Store)

	// mtx serializes writes and guards everything below.
	mtx           sync.RWMutex
	isClosed      bool
	transaction   *pendingTransaction
	subscriptions map[SubscriptionID]*subscription
	securityLevel model.SecurityLevel
	syncSettings  syncSettings

	resultSetsLock sync.Mutex
	resultSets     map[uuid.UUID]*resultset.ResultSet
}

// Open opens the store described by cfg.
func Open(cfg *Config) (*Store, error) {
	if cfg.Database == nil {
		return nil, errors.New("cannot open a store without a database")
	}
	options := cfg.Options
	if options == nil {
		options = model.DefaultOptions()
	}
	if !options.SecurityLevel.IsValid() {
		return nil, invalidArgument("unknown security level %d", options.SecurityLevel)
	}
	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}

	s := &Store{
		id:            cfg.ID,
		options:       options,
		db:            cfg.Database,
		deviceID:      deviceID,
		metrics:       cfg.Metrics,
		onClose:       cfg.OnClose,
		subscriptions: make(map[SubscriptionID]*subscription),
		resultSets:    make(map[uuid.UUID]*resultset.ResultSet),
		syncSettings:  defaultSyncSettings(),
	}

	if options.Encrypt {
		sealer, err := encryption.NewSealer(cfg.RootKey, cfg.ID)
		if err != nil {
			return nil, err
		}
		s.sealer = sealer
	}

	err := s.loadMetadata()
	if err != nil {
		return nil, err
	}

	log.Debugf("Opened store %s (%s, security level %s, encrypted: %t)",
		s.id, options.KVStoreType, s.securityLevel, options.Encrypt)
	return s, nil
}

// loadMetadata records the encryption flag and security level of a new
// store, and checks them against the options of an existing one.
func (s *Store) loadMetadata() error {
	encryptedFlag := []byte{0}
	if s.options.Encrypt {
		encryptedFlag[0] = 1
	}

	stored, err := s.db.Get(encryptedKey)
	if database.IsNotFoundError(err) {
		err = s.db.Put(encryptedKey, encryptedFlag)
		if err != nil {
			return err
		}
		err = s.db.Put(securityLevelKey, []byte{byte(s.options.SecurityLevel)})
		if err != nil {
			return err
		}
		s.securityLevel = s.options.SecurityLevel
		return nil
	}
	if err != nil {
		return err
	}
	if len(stored) != 1 || stored[0] != encryptedFlag[0] {
		return errors.Wrapf(ErrOptionsMismatch, "store %s was created with encryption "+
			"set to %t", s.id, !s.options.Encrypt)
	}

	level, err := s.db.Get(securityLevelKey)
	if err != nil {
		return err
	}
	if len(level) != 1 {
		return errors.Errorf("malformed security level of store %s", s.id)
	}
	s.securityLevel = model.SecurityLevel(level[0])
	return nil
}

// ID returns the store ID.
func (s *Store) ID() string {
	return s.id
}

// Options returns the options the store was opened with.
func (s *Store) Options() model.Options {
	return *s.options
}

// measure records the duration and outcome of an operation. Use as
//
//	defer s.measure("put", time.Now(), &err)
func (s *Store) measure(operation string, start time.Time, err *error) {
	s.metrics.RecordOperation(s.id, operation, time.Since(start), *err)
}

func (s *Store) checkOpen() error {
	if s.isClosed {
		return errors.Wrapf(ErrClosedStore, "store %s is closed", s.id)
	}
	return nil
}

func storageKey(key string) *database.Key {
	return entriesBucket.Key([]byte(key))
}

// encodeValue returns the bytes stored for value under key.
func (s *Store) encodeValue(key string, serialized []byte) ([]byte, error) {
	if s.sealer == nil {
		return serialized, nil
	}
	return s.sealer.Seal(storageKey(key).Bytes(), serialized)
}

// decodeValue is the inverse of encodeValue.
func (s *Store) decodeValue(key string, stored []byte) (*model.Value, error) {
	if s.sealer != nil {
		var err error
		stored, err = s.sealer.Open(storageKey(key).Bytes(), stored)
		if err != nil {
			return nil, errors.Wrapf(err, "failed opening the value of key %s", key)
		}
	}
	value, err := serialization.DeserializeValue(stored)
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding the value of key %s", key)
	}
	return value, nil
}

// readCommitted returns the committed value of key, or nil if it is
// missing.
func (s *Store) readCommitted(key string) (*model.Value, error) {
	stored, err := s.db.Get(storageKey(key))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decodeValue(key, stored)
}

// Put sets the value of key.
func (s *Store) Put(key string, value *model.Value) (err error) {
	defer s.measure("put", time.Now(), &err)

	err = s.validateKey(key)
	if err != nil {
		return err
	}
	serialized, err := serializeValue(value)
	if err != nil {
		return err
	}
	return s.write(func(w *writer) error {
		return w.put(key, value, serialized)
	})
}

// Get returns the value of key, or ErrNotFound.
func (s *Store) Get(key string) (value *model.Value, err error) {
	defer s.measure("get", time.Now(), &err)

	err = s.validateKey(key)
	if err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	err = s.checkOpen()
	if err != nil {
		return nil, err
	}
	value, err = s.readCommitted(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, errors.Wrapf(ErrNotFound, "key %s not found", key)
	}
	return value, nil
}

// Delete removes key. Deleting a missing key succeeds without notifying
// anyone.
func (s *Store) Delete(key string) (err error) {
	defer s.measure("delete", time.Now(), &err)

	err = s.validateKey(key)
	if err != nil {
		return err
	}
	return s.write(func(w *writer) error {
		return w.delete(key)
	})
}

// PutBatch sets the values of every entry atomically. Every entry is
// validated before anything is written.
func (s *Store) PutBatch(entries []*model.Entry) (err error) {
	defer s.measure("put_batch", time.Now(), &err)

	err = validateBatchSize(len(entries))
	if err != nil {
		return err
	}
	serializedValues := make([][]byte, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return invalidArgument("nil entry at index %d", i)
		}
		err = s.validateKey(entry.Key)
		if err != nil {
			return err
		}
		serializedValues[i], err = serializeValue(entry.Value)
		if err != nil {
			return errors.Wrapf(err, "entry %s", entry.Key)
		}
	}

	return s.write(func(w *writer) error {
		for i, entry := range entries {
			err := w.put(entry.Key, entry.Value, serializedValues[i])
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteBatch removes every key atomically.
func (s *Store) DeleteBatch(keys []string) (err error) {
	defer s.measure("delete_batch", time.Now(), &err)

	err = validateBatchSize(len(keys))
	if err != nil {
		return err
	}
	for _, key := range keys {
		err = s.validateKey(key)
		if err != nil {
			return err
		}
	}

	return s.write(func(w *writer) error {
		for _, key := range keys {
			err := w.delete(key)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSecurityLevel returns the security level the store was created with.
func (s *Store) GetSecurityLevel() (model.SecurityLevel, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	err := s.checkOpen()
	if err != nil {
		return 0, err
	}
	return s.securityLevel, nil
}

// Close closes every open result set, rolls back an open transaction,
// stops every observer and closes the database. Every later call fails
// with ErrClosedStore.
func (s *Store) Close() error {
	s.mtx.Lock()
	err := s.checkOpen()
	if err != nil {
		s.mtx.Unlock()
		return err
	}
	s.isClosed = true

	if s.transaction != nil {
		log.Warnf("Store %s closed with an open transaction. Rolling it back", s.id)
		rollbackErr := s.transaction.dbTx.Rollback()
		if rollbackErr != nil {
			log.Errorf("Failed rolling back the transaction of store %s: %s", s.id, rollbackErr)
		}
		s.transaction = nil
	}
	for id, sub := range s.subscriptions {
		s.dropPending(sub.stop())
		delete(s.subscriptions, id)
	}
	s.mtx.Unlock()

	s.closeAllResultSets()

	err = s.db.Close()
	if err != nil {
		return errors.Wrapf(err, "failed closing the database of store %s", s.id)
	}

	log.Debugf("Closed store %s", s.id)
	if s.onClose != nil {
		s.onClose(s)
	}
	return nil
}

// IsClosed returns whether Close was called.
func (s *Store) IsClosed() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.isClosed
}
