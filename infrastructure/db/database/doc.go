/*
Package database defines the interfaces of the key/value database that
backs every store, together with the Key and Bucket helpers used to build
database keys.

Backends

Three implementations exist, each in its own sub-package:

	ldb     goleveldb, the default
	boltdb  a single bolt file
	memdb   an in-memory ordered tree, for ephemeral stores and tests

Cursors

A Cursor walks the keys of a bucket, or of a key prefix inside a bucket, in
ascending byte order. Cursors observe the database as it was when they were
opened.
*/
package database
