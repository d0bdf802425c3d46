package kvmanager

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/distributeddata/kvstore/infrastructure/db/database/boltdb"
	"github.com/distributeddata/kvstore/infrastructure/db/database/ldb"
	"github.com/distributeddata/kvstore/infrastructure/db/database/memdb"
	"github.com/pkg/errors"
)

const (
	levelDBDirectoryName = "ldb"
	boltDBFileName       = "store.bolt"

	defaultLevelDBCacheSizeMiB = 16
)

var storeIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateStoreID(storeID string) error {
	if storeID == "" {
		return invalidArgument("empty store ID")
	}
	if len(storeID) > model.MaxStoreIDLength {
		return invalidArgument("store ID is %d bytes long, the maximum is %d",
			len(storeID), model.MaxStoreIDLength)
	}
	if !storeIDRegexp.MatchString(storeID) {
		return invalidArgument("store ID %q may only contain letters, digits and underscores", storeID)
	}
	return nil
}

func validateBackend(backend string) error {
	switch backend {
	case model.BackendLevelDB, model.BackendBoltDB, model.BackendMemDB:
		return nil
	}
	return invalidArgument("unknown backend %q", backend)
}

// storeDir is the directory holding the data of storeID.
func (m *KVManager) storeDir(storeID string) string {
	return filepath.Join(m.bundleDir(), storeID)
}

func (m *KVManager) bundleDir() string {
	return filepath.Join(m.dataDir, m.bundleName)
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}

// backendOnDisk returns the backend whose data is in storeDir, or "" if
// there is none.
func backendOnDisk(storeDir string) (string, error) {
	exists, err := pathExists(filepath.Join(storeDir, levelDBDirectoryName))
	if err != nil {
		return "", err
	}
	if exists {
		return model.BackendLevelDB, nil
	}
	exists, err = pathExists(filepath.Join(storeDir, boltDBFileName))
	if err != nil {
		return "", err
	}
	if exists {
		return model.BackendBoltDB, nil
	}
	return "", nil
}

// openDatabase opens the database of a store. memdb databases live in
// memory only, so a memdb store is always a new one.
func (m *KVManager) openDatabase(storeID string, backend string) (database.Database, error) {
	if backend == model.BackendMemDB {
		return memdb.NewMemDB(), nil
	}

	storeDir := m.storeDir(storeID)
	err := os.MkdirAll(storeDir, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating the directory of store %s", storeID)
	}

	switch backend {
	case model.BackendLevelDB:
		db, err := ldb.NewLevelDB(filepath.Join(storeDir, levelDBDirectoryName), m.levelDBCacheSizeMiB)
		if err != nil {
			return nil, err
		}
		return db, nil
	case model.BackendBoltDB:
		db, err := boltdb.NewBoltDB(filepath.Join(storeDir, boltDBFileName))
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, invalidArgument("unknown backend %q", backend)
}
