package apperrors

import "fmt"

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// ErrEntryExpired is returned when a cached search result exists but its
// expiry timestamp has passed. It is deliberately distinct from ErrNotFound
// so callers can tell "never seen" from "seen but too old".
type ErrEntryExpired struct {
	ID string
}

// Error implements the error interface.
func (e *ErrEntryExpired) Error() string {
	return fmt.Sprintf("subtitle %s expired, search again", e.ID)
}

// Is allows for error checking with errors.Is().
func (e *ErrEntryExpired) Is(target error) bool {
	_, ok := target.(*ErrEntryExpired)
	return ok
}

// ErrProviderFailure wraps an error returned by a subtitle provider during
// search or download.
type ErrProviderFailure struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ErrProviderFailure) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying provider error.
func (e *ErrProviderFailure) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrProviderFailure) Is(target error) bool {
	_, ok := target.(*ErrProviderFailure)
	return ok
}

// ErrNoSubtitleInArchive is returned when a downloaded archive contains no
// recognizable subtitle file.
type ErrNoSubtitleInArchive struct {
	FileCount int
}

// Error implements the error interface.
func (e *ErrNoSubtitleInArchive) Error() string {
	return fmt.Sprintf("no subtitle file found in archive (searched %d files)", e.FileCount)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoSubtitleInArchive) Is(target error) bool {
	_, ok := target.(*ErrNoSubtitleInArchive)
	return ok
}
