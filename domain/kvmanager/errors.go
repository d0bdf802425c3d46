package kvmanager

import (
	"github.com/distributeddata/kvstore/domain/kvstore"
	"github.com/pkg/errors"
)

var (
	// ErrStoreNotFound is returned by GetKVStore when the store does not
	// exist and Options.CreateIfMissing is not set, and by DeleteKVStore
	// for a store that does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrStoreOpen is returned by DeleteKVStore for a store that is open.
	ErrStoreOpen = errors.New("store is open")

	// ErrClosedManager is returned by every operation of a closed manager.
	ErrClosedManager = errors.New("closed manager")

	// ErrBackendMismatch is returned when a store is opened with a
	// backend other than the one its data was written by.
	ErrBackendMismatch = errors.New("store was created with another backend")

	// ErrInvalidArgument is kvstore's invalid argument error, so that
	// callers can check one error for both packages.
	ErrInvalidArgument = kvstore.ErrInvalidArgument
)

func invalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
