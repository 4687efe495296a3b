package forum

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrRoomNotFound is returned when a room id does not exist.
	ErrRoomNotFound = fmt.Errorf("room %w", ErrNotFound)
	// ErrMessageNotFound is returned when a message id does not exist.
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	// ErrUserNotFound is returned when a user id does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrPermissionDenied matches every *PermissionError.
	ErrPermissionDenied = errors.New("permission denied")
)

// PermissionError carries the reason an actor was refused.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrPermissionDenied) true.
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}
