package model

const (
	// MaxKeyLength is the maximum length of a key, in bytes.
	MaxKeyLength = 1024

	// MaxValueLength is the maximum length of a serialized value, in bytes.
	MaxValueLength = 4194303

	// MaxKeyLengthDevice is the maximum key length in a device
	// collaboration store.
	MaxKeyLengthDevice = 896

	// MaxStoreIDLength is the maximum length of a store ID.
	MaxStoreIDLength = 128

	// MaxQueryLength is the maximum length of a query's rendered form.
	MaxQueryLength = 512000

	// MaxBatchSize is the maximum number of items in a batch write.
	MaxBatchSize = 128

	// MaxOpenResultSets is the maximum number of result sets a store
	// keeps open at the same time.
	MaxOpenResultSets = 8
)
