package query

import "github.com/pkg/errors"

// ErrInvalidQuery is wrapped by every error reported by Query.Validate.
var ErrInvalidQuery = errors.New("invalid query")
