package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

// Options is a function that returns a leveldb
// opt.Options struct for opening a database.
// It's defined as a variable for the sake of testing.
var Options = func(cacheSizeMiB int) *opt.Options {
	// Store values are at most a few MiB, so the write buffer only
	// needs to hold a handful of them.
	return &opt.Options{
		Compression:            opt.SnappyCompression,
		BlockCacheCapacity:     cacheSizeMiB * opt.MiB,
		WriteBuffer:            (cacheSizeMiB / 2) * opt.MiB,
		DisableSeeksCompaction: true,
	}
}
