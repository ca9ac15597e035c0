package clients

import "github.com/cockroachdb/errors"

var (
	ErrNotFound          = errors.New("client not found")
	ErrDuplicateClientID = errors.New("client id already exists")
	// ErrInvalidDeadline is attached with errors.Mark; match it with cockroachdb errors.Is.
	ErrInvalidDeadline   = errors.New("invalid deadline format, use YYYY-MM-DD")
	ErrInvalidInput      = errors.New("invalid input")
)
