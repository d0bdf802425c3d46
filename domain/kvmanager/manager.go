package kvmanager

import (
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/distributeddata/kvstore/domain/kvstore"
	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/infrastructure/metrics"
	"github.com/pkg/errors"
)

// Config holds the configuration of a KVManager.
type Config struct {
	// BundleName names the application owning the stores. Stores live
	// under DataDir/BundleName.
	BundleName string
	DataDir    string

	// RootKey is the key encrypted stores derive their keys from. It is
	// only required for stores opened with Options.Encrypt.
	RootKey []byte

	// Optional settings
	DeviceID            string
	Metrics             *metrics.Collector
	LevelDBCacheSizeMiB int
}

// KVManager opens and tracks the stores of one bundle. A store ID is open
// at most once: GetKVStore returns the same Store until it is closed.
type KVManager struct {
	bundleName          string
	dataDir             string
	rootKey             []byte
	deviceID            string
	metrics             *metrics.Collector
	levelDBCacheSizeMiB int

	mtx      sync.Mutex
	isClosed bool
	stores   map[string]*kvstore.Store
}

// NewKVManager returns a KVManager for the bundle described by cfg.
func NewKVManager(cfg *Config) (*KVManager, error) {
	if cfg == nil {
		return nil, invalidArgument("nil config")
	}
	err := validateStoreID(cfg.BundleName)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid bundle name")
	}
	if cfg.DataDir == "" {
		return nil, invalidArgument("empty data directory")
	}
	cacheSize := cfg.LevelDBCacheSizeMiB
	if cacheSize <= 0 {
		cacheSize = defaultLevelDBCacheSizeMiB
	}

	log.Debugf("Created a manager for bundle %s at %s", cfg.BundleName, cfg.DataDir)
	return &KVManager{
		bundleName:          cfg.BundleName,
		dataDir:             cfg.DataDir,
		rootKey:             cfg.RootKey,
		deviceID:            cfg.DeviceID,
		metrics:             cfg.Metrics,
		levelDBCacheSizeMiB: cacheSize,
		stores:              make(map[string]*kvstore.Store),
	}, nil
}

func (m *KVManager) checkOpen() error {
	if m.isClosed {
		return errors.WithStack(ErrClosedManager)
	}
	return nil
}

func (m *KVManager) checkBundle(bundleName string) error {
	if bundleName != m.bundleName {
		return invalidArgument("unknown bundle %s", bundleName)
	}
	return nil
}

// GetKVStore opens the store storeID, creating it if it is missing and
// options.CreateIfMissing is set. nil options mean model.DefaultOptions().
// If the store is already open, the open instance is returned.
func (m *KVManager) GetKVStore(storeID string, options *model.Options) (*kvstore.Store, error) {
	err := validateStoreID(storeID)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = model.DefaultOptions()
	}
	err = validateBackend(options.Backend)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	err = m.checkOpen()
	if err != nil {
		return nil, err
	}
	if store, ok := m.stores[storeID]; ok {
		return store, nil
	}

	existingBackend, err := backendOnDisk(m.storeDir(storeID))
	if err != nil {
		return nil, err
	}
	if existingBackend == "" && !options.CreateIfMissing {
		return nil, errors.Wrapf(ErrStoreNotFound, "store %s", storeID)
	}
	if existingBackend != "" && existingBackend != options.Backend {
		return nil, errors.Wrapf(ErrBackendMismatch, "store %s was created with %s, not %s",
			storeID, existingBackend, options.Backend)
	}

	db, err := m.openDatabase(storeID, options.Backend)
	if err != nil {
		return nil, err
	}
	storeOptions := *options
	store, err := kvstore.Open(&kvstore.Config{
		ID:       storeID,
		Options:  &storeOptions,
		Database: db,
		RootKey:  m.rootKey,
		DeviceID: m.deviceID,
		Metrics:  m.metrics,
		OnClose:  m.storeClosed,
	})
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			log.Warnf("Failed closing the database of store %s: %s", storeID, closeErr)
		}
		return nil, err
	}

	m.stores[storeID] = store
	m.metrics.SetOpenStores(len(m.stores))
	log.Infof("Opened store %s of bundle %s (%s)", storeID, m.bundleName, options.Backend)
	return store, nil
}

// storeClosed is called by a store once it is closed, however it was
// closed.
func (m *KVManager) storeClosed(store *kvstore.Store) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.stores[store.ID()] == store {
		delete(m.stores, store.ID())
		m.metrics.SetOpenStores(len(m.stores))
	}
}

// CloseKVStore closes store, which must be the open store storeID of
// bundleName.
func (m *KVManager) CloseKVStore(bundleName string, storeID string, store *kvstore.Store) error {
	err := m.checkBundle(bundleName)
	if err != nil {
		return err
	}
	if store == nil {
		return invalidArgument("nil store")
	}

	m.mtx.Lock()
	err = m.checkOpen()
	if err != nil {
		m.mtx.Unlock()
		return err
	}
	open, ok := m.stores[storeID]
	m.mtx.Unlock()
	if !ok || open != store {
		return errors.Wrapf(ErrStoreNotFound, "store %s is not open", storeID)
	}

	return store.Close()
}

// DeleteKVStore deletes the data of storeID. The store must be closed.
func (m *KVManager) DeleteKVStore(bundleName string, storeID string) error {
	err := m.checkBundle(bundleName)
	if err != nil {
		return err
	}
	err = validateStoreID(storeID)
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	err = m.checkOpen()
	if err != nil {
		return err
	}
	if _, ok := m.stores[storeID]; ok {
		return errors.Wrapf(ErrStoreOpen, "cannot delete store %s", storeID)
	}

	storeDir := m.storeDir(storeID)
	exists, err := pathExists(storeDir)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrStoreNotFound, "store %s", storeID)
	}
	err = os.RemoveAll(storeDir)
	if err != nil {
		return errors.Wrapf(err, "failed deleting store %s", storeID)
	}
	log.Infof("Deleted store %s of bundle %s", storeID, m.bundleName)
	return nil
}

// GetAllKVStoreIDs returns the IDs of the stores of bundleName, sorted.
// These are the stores with data on disk and the open memdb stores.
func (m *KVManager) GetAllKVStoreIDs(bundleName string) ([]string, error) {
	err := m.checkBundle(bundleName)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	err = m.checkOpen()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(m.stores))
	for id := range m.stores {
		ids[id] = struct{}{}
	}

	dirEntries, err := ioutil.ReadDir(m.bundleDir())
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WithStack(err)
	}
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || validateStoreID(dirEntry.Name()) != nil {
			continue
		}
		backend, err := backendOnDisk(m.storeDir(dirEntry.Name()))
		if err != nil {
			return nil, err
		}
		if backend != "" {
			ids[dirEntry.Name()] = struct{}{}
		}
	}

	storeIDs := make([]string, 0, len(ids))
	for id := range ids {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)
	return storeIDs, nil
}

// Close closes every open store. Every later call fails with
// ErrClosedManager.
func (m *KVManager) Close() error {
	m.mtx.Lock()
	err := m.checkOpen()
	if err != nil {
		m.mtx.Unlock()
		return err
	}
	m.isClosed = true
	stores := make([]*kvstore.Store, 0, len(m.stores))
	for _, store := range m.stores {
		stores = append(stores, store)
	}
	m.mtx.Unlock()

	var firstErr error
	for _, store := range stores {
		err := store.Close()
		if err != nil && !errors.Is(err, kvstore.ErrClosedStore) {
			log.Errorf("Failed closing store %s: %s", store.ID(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	log.Debugf("Closed the manager of bundle %s", m.bundleName)
	return firstErr
}
