package queue

import "errors"

var (
	// ErrQueueNotFound indicates the queue doesn't exist.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrNotAuthorized indicates the caller lacks capability for the operation.
	ErrNotAuthorized = errors.New("caller not authorized for this operation")
)
