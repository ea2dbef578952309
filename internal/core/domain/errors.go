// internal/core/domain/errors.go
package domain

import "errors"

var (
	// ErrInspectionNotFound is returned when no inspection matches the id
	ErrInspectionNotFound = errors.New("inspection not found")

	// ErrInvalidInput wraps validation failures
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed marks a failed read of the inspection list. The
	// dashboard treats it as an empty list, the API as a bad gateway.
	ErrFetchFailed = errors.New("fetching inspections failed")

	// ErrUserNotFound is returned when no account matches
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when email or password do not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid covers expired, malformed and revoked session tokens
	ErrSessionInvalid = errors.New("session invalid")

	// ErrExportNotFound is returned for unknown or expired export jobs
	ErrExportNotFound = errors.New("export not found")

	// ErrResetTokenInvalid is returned for unknown or consumed reset tokens
	ErrResetTokenInvalid = errors.New("password reset token invalid")
)
