package kvstore

import (
	"github.com/distributeddata/kvstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by Get for a missing key. It is the
	// database's not found error, so database.IsNotFoundError works too.
	ErrNotFound = database.ErrNotFound

	// ErrClosedStore is returned by every operation of a closed store.
	ErrClosedStore = errors.New("closed store")

	// ErrInvalidArgument is wrapped by every input validation error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManyResultSets is returned when opening a result set while
	// the maximum number of result sets is already open.
	ErrTooManyResultSets = errors.New("too many open result sets")

	// ErrForeignResultSet is returned by CloseResultSet for a result set
	// this store did not open, or already closed.
	ErrForeignResultSet = errors.New("result set does not belong to this store")

	// ErrTransactionInProgress is returned by StartTransaction while a
	// transaction is open.
	ErrTransactionInProgress = errors.New("a transaction is already in progress")

	// ErrNoTransaction is returned by Commit and Rollback when no
	// transaction is open.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrOptionsMismatch is returned when a store is reopened with
	// options its data cannot be read with.
	ErrOptionsMismatch = errors.New("options do not match the stored data")
)

func invalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
