package resultset

import "github.com/pkg/errors"

var (
	// ErrClosedResultSet is returned by every operation of a result set
	// after it was closed.
	ErrClosedResultSet = errors.New("closed result set")

	// ErrNoCurrentEntry is returned by Entry when the result set is
	// before the first entry or after the last one.
	ErrNoCurrentEntry = errors.New("result set is not positioned on an entry")
)
