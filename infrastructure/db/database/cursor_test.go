package database_test

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/distributeddata/kvstore/infrastructure/db/database"
)

func prepareCursorForTest(t *testing.T, db database.Database, testName string) database.Cursor {
	cursor, err := db.Cursor(database.MakeBucket([]byte("bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly "+
			"failed: %s", testName, err)
	}

	return cursor
}

func TestCursorNext(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorNext", testCursorNext)
}

func testCursorNext(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)
	cursor := prepareCursorForTest(t, db, testName)

	// Make sure that all the entries exist in the cursor, in their
	// correct order
	for _, entry := range entries {
		hasNext := cursor.Next()
		if !hasNext {
			t.Fatalf("%s: cursor unexpectedly "+
				"done", testName)
		}
		cursorKey, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly "+
				"failed: %s", testName, err)
		}
		if !bytes.Equal(cursorKey.Bytes(), entry.key.Bytes()) {
			t.Fatalf("%s: Cursor returned "+
				"wrong key. Want: %s, got: %s", testName, entry.key, cursorKey)
		}
		cursorValue, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly "+
				"failed: %s", testName, err)
		}
		if !bytes.Equal(cursorValue, entry.value) {
			t.Fatalf("%s: Cursor returned "+
				"wrong value. Want: %s, got: %s", testName, entry.value, cursorValue)
		}
	}

	// The cursor should now be exhausted. Make sure Next now
	// returns false, and keeps returning false
	for i := 0; i < 2; i++ {
		hasNext := cursor.Next()
		if hasNext {
			t.Fatalf("%s: cursor unexpectedly "+
				"not done", testName)
		}
	}
	_, err := cursor.Key()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Key of an exhausted cursor "+
			"returned wrong error: %v", testName, err)
	}

	err = cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close unexpectedly "+
			"failed: %s", testName, err)
	}
}

func TestCursorFirst(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorFirst", testCursorFirst)
}

func testCursorFirst(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)
	cursor := prepareCursorForTest(t, db, testName)
	defer cursor.Close()

	// Make sure that First returns true when the cursor is not empty
	exists := cursor.First()
	if !exists {
		t.Fatalf("%s: Cursor unexpectedly "+
			"returned false", testName)
	}

	// Make sure that the first key and value are as expected
	firstEntryKey := entries[0].key
	firstCursorKey, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key unexpectedly "+
			"failed: %s", testName, err)
	}
	if !reflect.DeepEqual(firstCursorKey.Bytes(), firstEntryKey.Bytes()) {
		t.Fatalf("%s: Cursor returned "+
			"wrong key. Want: %s, got: %s", testName, firstEntryKey, firstCursorKey)
	}

	// Exhaust the cursor, then rewind it with First
	for cursor.Next() {
	}
	exists = cursor.First()
	if !exists {
		t.Fatalf("%s: First after exhaustion "+
			"unexpectedly returned false", testName)
	}
	rewoundValue, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly "+
			"failed: %s", testName, err)
	}
	if !bytes.Equal(rewoundValue, entries[0].value) {
		t.Fatalf("%s: rewound cursor returned "+
			"wrong value: %s", testName, rewoundValue)
	}

	// Make sure that First returns false when the cursor is empty
	emptyCursor, err := db.Cursor(database.MakeBucket([]byte("empty-bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly "+
			"failed: %s", testName, err)
	}
	defer emptyCursor.Close()
	exists = emptyCursor.First()
	if exists {
		t.Fatalf("%s: Empty cursor unexpectedly "+
			"returned true", testName)
	}
}

func TestCursorSeek(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSeek", testCursorSeek)
}

func testCursorSeek(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)
	cursor := prepareCursorForTest(t, db, testName)
	defer cursor.Close()

	// Seek to the fourth entry and make sure it exists
	fourthEntry := entries[3]
	err := cursor.Seek(fourthEntry.key)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly "+
			"failed: %s", testName, err)
	}

	// Make sure that the key and value are as expected
	fourthEntryValue, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly "+
			"failed: %s", testName, err)
	}
	if !bytes.Equal(fourthEntryValue, fourthEntry.value) {
		t.Fatalf("%s: Cursor returned "+
			"wrong value. Want: %s, got: %s",
			testName, fourthEntry.value, fourthEntryValue)
	}

	// Make sure that Next still works as expected after Seek
	hasNext := cursor.Next()
	if !hasNext {
		t.Fatalf("%s: Next unexpectedly "+
			"returned false", testName)
	}
	fifthCursorKey, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key unexpectedly "+
			"failed: %s", testName, err)
	}
	if !bytes.Equal(fifthCursorKey.Bytes(), entries[4].key.Bytes()) {
		t.Fatalf("%s: Cursor returned "+
			"wrong key. Want: %s, got: %s", testName, entries[4].key, fifthCursorKey)
	}

	// Seek to a value that doesn't exist and make sure that
	// the returned error is ErrNotFound
	err = cursor.Seek(database.MakeBucket([]byte("bucket")).Key([]byte("doesn't exist")))
	if err == nil {
		t.Fatalf("%s: Seek unexpectedly "+
			"succeeded", testName)
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Seek returned "+
			"wrong error: %s", testName, err)
	}
}

func TestCursorWithPrefix(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorWithPrefix", testCursorWithPrefix)
}

func testCursorWithPrefix(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("entries"))
	otherBucket := database.MakeBucket([]byte("entriez"))
	for i := 0; i < 5; i++ {
		for _, prefix := range []string{"user_", "userx", "item_"} {
			err := db.Put(bucket.Key([]byte(fmt.Sprintf("%s%d", prefix, i))), []byte(prefix))
			if err != nil {
				t.Fatalf("%s: Put unexpectedly "+
					"failed: %s", testName, err)
			}
		}
		err := db.Put(otherBucket.Key([]byte(fmt.Sprintf("user_%d", i))), []byte("other"))
		if err != nil {
			t.Fatalf("%s: Put unexpectedly "+
				"failed: %s", testName, err)
		}
	}

	cursor, err := db.CursorWithPrefix(bucket, []byte("user_"))
	if err != nil {
		t.Fatalf("%s: CursorWithPrefix unexpectedly "+
			"failed: %s", testName, err)
	}
	defer cursor.Close()

	var suffixes []string
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly "+
				"failed: %s", testName, err)
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly "+
				"failed: %s", testName, err)
		}
		if string(value) != "user_" {
			t.Fatalf("%s: cursor returned a value from "+
				"outside the prefix: %s", testName, value)
		}
		suffixes = append(suffixes, string(key.Suffix()))
	}
	expected := "user_0,user_1,user_2,user_3,user_4"
	if strings.Join(suffixes, ",") != expected {
		t.Fatalf("%s: wrong keys. Want: %s, got: %s",
			testName, expected, strings.Join(suffixes, ","))
	}
}

func TestCursorCloseErrors(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorCloseErrors", testCursorCloseErrors)
}

func testCursorCloseErrors(t *testing.T, db database.Database, testName string) {
	populateDatabaseForTest(t, db, testName)
	cursor := prepareCursorForTest(t, db, testName)

	err := cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close unexpectedly "+
			"failed: %s", testName, err)
	}

	functions := map[string]func() error{
		"Seek": func() error {
			return cursor.Seek(database.MakeBucket([]byte("bucket")).Key([]byte("key0")))
		},
		"Key": func() error {
			_, err := cursor.Key()
			return err
		},
		"Value": func() error {
			_, err := cursor.Value()
			return err
		},
		"Close": cursor.Close,
	}
	for name, function := range functions {
		err := function()
		if err == nil {
			t.Fatalf("%s: %s on a closed cursor "+
				"unexpectedly succeeded", testName, name)
		}
		if !strings.Contains(err.Error(), "closed cursor") {
			t.Fatalf("%s: %s returned wrong error. "+
				"Want: closed cursor, got: %s", testName, name, err)
		}
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("%s: Next on a closed cursor "+
					"unexpectedly didn't panic", testName)
			}
		}()
		cursor.Next()
	}()
}
