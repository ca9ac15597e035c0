package process

import "github.com/cockroachdb/errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInferenceFailed = errors.New("inference failed")
)
