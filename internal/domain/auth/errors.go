package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrStorageCorrupt     = errors.New("persisted session is corrupt")
	ErrTimeout            = errors.New("operation timed out")
)

// AuthenticationError reports a rejected login attempt.
type AuthenticationError struct {
	Email string
}

func (e *AuthenticationError) Error() string { return "Invalid credentials" }

func (e *AuthenticationError) Unwrap() error { return ErrInvalidCredentials }

// ValidationError reports a signup request that conflicts with a known account.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrAccountExists }

// StorageCorruptionError is produced while restoring a persisted identity
// that cannot be decoded. Restore absorbs it.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return "persisted session " + e.Key + " is corrupt: " + e.Err.Error()
}

func (e *StorageCorruptionError) Unwrap() []error { return []error{ErrStorageCorrupt, e.Err} }

// TimeoutError reports a storage or credential call that exceeded the
// operation timeout.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string { return e.Op + " timed out" }

func (e *TimeoutError) Unwrap() []error { return []error{ErrTimeout, e.Err} }
