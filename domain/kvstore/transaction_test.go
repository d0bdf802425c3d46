package kvstore

import (
	"testing"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/pkg/errors"
)

func TestTransactionCommit(t *testing.T) {
	testForAllBackends(t, "TestTransactionCommit", testTransactionCommit)
}

func testTransactionCommit(t *testing.T, store *Store, testName string) {
	err := store.Put("updated", model.NewStringValue("old"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = store.Put("deleted", model.NewStringValue("doomed"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	collector := newNotificationCollector()
	_, err = store.On(model.SubscribeTypeLocal, collector.observe)
	if err != nil {
		t.Fatalf("%s: On unexpectedly failed: %s", testName, err)
	}

	err = store.StartTransaction()
	if err != nil {
		t.Fatalf("%s: StartTransaction unexpectedly failed: %s", testName, err)
	}
	err = store.StartTransaction()
	if !errors.Is(err, ErrTransactionInProgress) {
		t.Fatalf("%s: nested StartTransaction returned wrong error: %v", testName, err)
	}

	writes := []func() error{
		func() error { return store.Put("inserted", model.NewIntegerValue(1)) },
		func() error { return store.Put("inserted", model.NewIntegerValue(2)) },
		func() error { return store.Put("updated", model.NewStringValue("new")) },
		func() error { return store.Delete("deleted") },
		func() error { return store.Put("transient", model.NewIntegerValue(3)) },
		func() error { return store.Delete("transient") },
	}
	for i, write := range writes {
		err := write()
		if err != nil {
			t.Fatalf("%s: write %d unexpectedly failed: %s", testName, i, err)
		}
	}

	_, err = store.Get("inserted")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: an uncommitted write is visible: %v", testName, err)
	}
	collector.expectNone(t, testName)

	err = store.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}

	notification := collector.next(t, testName)
	if len(notification.InsertEntries) != 1 ||
		!notification.InsertEntries[0].Equal(model.NewEntry("inserted", model.NewIntegerValue(2))) {
		t.Fatalf("%s: wrong inserts: %+v", testName, notification.InsertEntries)
	}
	if len(notification.UpdateEntries) != 1 ||
		!notification.UpdateEntries[0].Equal(model.NewEntry("updated", model.NewStringValue("new"))) {
		t.Fatalf("%s: wrong updates: %+v", testName, notification.UpdateEntries)
	}
	if len(notification.DeleteEntries) != 1 ||
		!notification.DeleteEntries[0].Equal(model.NewEntry("deleted", model.NewStringValue("doomed"))) {
		t.Fatalf("%s: wrong deletes: %+v", testName, notification.DeleteEntries)
	}
	collector.expectNone(t, testName)

	value, err := store.Get("inserted")
	if err != nil || !value.Equal(model.NewIntegerValue(2)) {
		t.Fatalf("%s: committed value is %v, %v", testName, value, err)
	}
	_, err = store.Get("transient")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: transient key survived the commit: %v", testName, err)
	}

	err = store.Commit()
	if !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("%s: Commit without a transaction returned wrong error: %v", testName, err)
	}
}

func TestTransactionRollback(t *testing.T) {
	testForAllBackends(t, "TestTransactionRollback", testTransactionRollback)
}

func testTransactionRollback(t *testing.T, store *Store, testName string) {
	collector := newNotificationCollector()
	_, err := store.On(model.SubscribeTypeAll, collector.observe)
	if err != nil {
		t.Fatalf("%s: On unexpectedly failed: %s", testName, err)
	}

	err = store.StartTransaction()
	if err != nil {
		t.Fatalf("%s: StartTransaction unexpectedly failed: %s", testName, err)
	}
	err = store.Put("key", model.NewDoubleValue(1.5))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = store.Rollback()
	if err != nil {
		t.Fatalf("%s: Rollback unexpectedly failed: %s", testName, err)
	}
	_, err = store.Get("key")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: a rolled back write is visible: %v", testName, err)
	}
	collector.expectNone(t, testName)

	err = store.Rollback()
	if !errors.Is(err, ErrNoTransaction) {
		t.Fatalf("%s: Rollback without a transaction returned wrong error: %v", testName, err)
	}

	// Writes after a rollback commit on their own again
	err = store.Put("key", model.NewDoubleValue(2.5))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	collector.next(t, testName)
}
