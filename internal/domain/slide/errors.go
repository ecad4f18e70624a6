package slide

import "errors"

var (
	// ErrSlideNotFound indicates the slide doesn't exist.
	ErrSlideNotFound = errors.New("slide not found")
	// ErrNotAuthorized indicates the caller lacks capability for the operation.
	ErrNotAuthorized = errors.New("caller not authorized for this operation")
	// ErrNotLocked indicates a mutation was attempted on an unlocked slide.
	ErrNotLocked = errors.New("slide not locked")
	// ErrLockedByOther indicates a live lock is held by another session.
	ErrLockedByOther = errors.New("slide locked by another session")
	// ErrLockConflict indicates acquire or release lost to a live foreign lock.
	ErrLockConflict = errors.New("slide lock held by another session")
	// ErrInvalidInput indicates a malformed or incomplete save request.
	ErrInvalidInput = errors.New("invalid slide input")
	// ErrInvalidSchedule indicates the schedule window disagrees with the flags.
	ErrInvalidSchedule = errors.New("schedule window inconsistent with slide flags")
)
