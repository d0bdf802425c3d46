package database

import (
	"bytes"
	"reflect"
	"testing"
)

func TestBucketPath(t *testing.T) {
	tests := []struct {
		bucketByteSlices [][]byte
		expectedPath     []byte
	}{
		{
			bucketByteSlices: [][]byte{[]byte("hello")},
			expectedPath:     []byte("hello/"),
		},
		{
			bucketByteSlices: [][]byte{[]byte("hello"), []byte("world")},
			expectedPath:     []byte("hello/world/"),
		},
	}

	for _, test := range tests {
		// Build a result using the MakeBucket function alone
		resultKey := MakeBucket(test.bucketByteSlices...).Path()
		if !reflect.DeepEqual(resultKey, test.expectedPath) {
			t.Errorf("TestBucketPath: got wrong path using MakeBucket. "+
				"Want: %s, got: %s", string(test.expectedPath), string(resultKey))
		}

		// Build a result using sub-Bucket calls
		bucket := MakeBucket()
		for _, bucketBytes := range test.bucketByteSlices {
			bucket = bucket.Bucket(bucketBytes)
		}
		resultKey = bucket.Path()
		if !reflect.DeepEqual(resultKey, test.expectedPath) {
			t.Errorf("TestBucketPath: got wrong path using sub-Bucket "+
				"calls. Want: %s, got: %s", string(test.expectedPath), string(resultKey))
		}
	}
}

func TestBucketKey(t *testing.T) {
	bucket := MakeBucket([]byte("entries"))
	key := bucket.Key([]byte("user_1"))

	if !bytes.Equal(key.Bytes(), []byte("entries/user_1")) {
		t.Fatalf("TestBucketKey: wrong key bytes: %s", key.Bytes())
	}
	if !bytes.Equal(key.Suffix(), []byte("user_1")) {
		t.Fatalf("TestBucketKey: wrong suffix: %s", key.Suffix())
	}
	if key.Bucket() != bucket {
		t.Fatalf("TestBucketKey: key lost its bucket")
	}
	if !bytes.Equal(bucket.PrefixPath([]byte("user")), []byte("entries/user")) {
		t.Fatalf("TestBucketKey: wrong prefix path: %s", bucket.PrefixPath([]byte("user")))
	}
}
