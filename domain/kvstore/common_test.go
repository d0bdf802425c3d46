package kvstore

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/distributeddata/kvstore/infrastructure/db/database/boltdb"
	"github.com/distributeddata/kvstore/infrastructure/db/database/ldb"
	"github.com/distributeddata/kvstore/infrastructure/db/database/memdb"
)

var testRootKey = []byte("0123456789abcdef0123456789abcdef")

func prepareStoreForTest(t *testing.T, testName string, options *model.Options) (store *Store, teardownFunc func()) {
	store, err := Open(&Config{
		ID:       "test_store",
		Options:  options,
		Database: memdb.NewMemDB(),
		RootKey:  testRootKey,
	})
	if err != nil {
		t.Fatalf("%s: Open unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		if !store.IsClosed() {
			err := store.Close()
			if err != nil {
				t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
			}
		}
	}
	return store, teardownFunc
}

type databasePrepareFunc func(t *testing.T, testName string) (db database.Database, name string, teardownFunc func())

var databasePrepareFuncs = []databasePrepareFunc{
	func(t *testing.T, testName string) (database.Database, string, func()) {
		path, err := ioutil.TempDir("", testName)
		if err != nil {
			t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
		}
		db, err := ldb.NewLevelDB(path, 8)
		if err != nil {
			t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
		}
		return db, "ldb", func() { _ = os.RemoveAll(path) }
	},
	func(t *testing.T, testName string) (database.Database, string, func()) {
		path, err := ioutil.TempDir("", testName)
		if err != nil {
			t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
		}
		db, err := boltdb.NewBoltDB(filepath.Join(path, "store.bolt"))
		if err != nil {
			t.Fatalf("%s: NewBoltDB unexpectedly failed: %s", testName, err)
		}
		return db, "boltdb", func() { _ = os.RemoveAll(path) }
	},
	func(t *testing.T, testName string) (database.Database, string, func()) {
		return memdb.NewMemDB(), "memdb", func() {}
	},
}

// testForAllBackends runs testFunc against a store on every database
// backend. The store is closed by the test or by the teardown.
func testForAllBackends(t *testing.T, testName string, testFunc func(t *testing.T, store *Store, testName string)) {
	for _, prepareDatabase := range databasePrepareFuncs {
		func() {
			db, dbType, teardownFunc := prepareDatabase(t, testName)
			defer teardownFunc()

			store, err := Open(&Config{ID: "test_store", Database: db})
			if err != nil {
				t.Fatalf("%s: Open unexpectedly failed: %s", testName, err)
			}
			defer func() {
				if !store.IsClosed() {
					_ = store.Close()
				}
			}()

			testFunc(t, store, fmt.Sprintf("%s: %s", dbType, testName))
		}()
	}
}

func putBatchForTest(t *testing.T, testName string, store *Store, prefix string, count int) []*model.Entry {
	entries := make([]*model.Entry, count)
	for i := 0; i < count; i++ {
		entries[i] = model.NewEntry(fmt.Sprintf("%s%d", prefix, i), model.NewStringValue(fmt.Sprintf("value%d", i)))
	}
	err := store.PutBatch(entries)
	if err != nil {
		t.Fatalf("%s: PutBatch unexpectedly failed: %s", testName, err)
	}
	return entries
}

// notificationCollector is an Observer that forwards notifications to a
// channel.
type notificationCollector chan *model.ChangeNotification

func newNotificationCollector() notificationCollector {
	return make(notificationCollector, 100)
}

func (c notificationCollector) observe(notification *model.ChangeNotification) {
	c <- notification
}

func (c notificationCollector) next(t *testing.T, testName string) *model.ChangeNotification {
	select {
	case notification := <-c:
		return notification
	case <-time.After(5 * time.Second):
		t.Fatalf("%s: timed out waiting for a notification", testName)
	}
	return nil
}

func (c notificationCollector) expectNone(t *testing.T, testName string) {
	select {
	case notification := <-c:
		t.Fatalf("%s: unexpected notification: %+v", testName, notification)
	case <-time.After(100 * time.Millisecond):
	}
}
