package backup

import (
	"errors"
	"fmt"
)

// Sentinel errors for the lifecycle taxonomy
var (
	// ErrInvalidBackup is returned when an archive fails validation: it is
	// not a zip, lacks the store member, or its store file is not a
	// well-formed gallery database. Distinct from transient I/O failures.
	ErrInvalidBackup = errors.New("invalid backup")

	// ErrSwapFailed is returned when a restore fails after it has started
	// mutating live state. Live store and photos may be inconsistent and
	// manual inspection is warranted.
	ErrSwapFailed = errors.New("restore swap failed")

	// ErrUnsafeName is returned when an archive name does not match the
	// strict backup filename pattern (path traversal attempts included)
	ErrUnsafeName = errors.New("unsafe archive name")

	// ErrArchiveNotFound is returned when a named archive does not exist
	ErrArchiveNotFound = errors.New("archive not found")
)

// InvalidBackupError carries the reason an archive was rejected
type InvalidBackupError struct {
	Reason string
}

func (e *InvalidBackupError) Error() string {
	return fmt.Sprintf("invalid backup: %s", e.Reason)
}

func (e *InvalidBackupError) Unwrap() error {
	return ErrInvalidBackup
}

// SwapError records which swap step failed so an operator knows what to check
type SwapError struct {
	Step  string
	Cause error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("restore swap failed during %s: %v", e.Step, e.Cause)
}

func (e *SwapError) Unwrap() error {
	return ErrSwapFailed
}

// IsInvalidBackup checks if an error is a backup validation error
func IsInvalidBackup(err error) bool {
	return errors.Is(err, ErrInvalidBackup)
}

// IsSwapFailure checks if an error is a swap-phase failure
func IsSwapFailure(err error) bool {
	return errors.Is(err, ErrSwapFailed)
}

// IsUnsafeName checks if an error is a filename-safety rejection
func IsUnsafeName(err error) bool {
	return errors.Is(err, ErrUnsafeName)
}

// IsNotFound checks if an error is a missing-archive error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrArchiveNotFound)
}
