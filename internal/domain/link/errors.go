package link

import "errors"

var (
	// ErrFlowNotFound indicates no flow exists with the given id.
	ErrFlowNotFound = errors.New("link flow not found")
	// ErrInvalidInput indicates invalid link input.
	ErrInvalidInput = errors.New("invalid link input")
)
