package subtrack

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Stable text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeUserExists       = "USER_EXISTS"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeUnauthorized     = "UNAUTHORIZED"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	TextCodeDuplicateField   = "DUPLICATE_FIELD"
)

// ErrUserExists is returned when sign-up hits an already registered email
var ErrUserExists = errors.New("User already exists!", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeUserExists)

// ErrUserNotFound is returned when sign-in cannot resolve the email
var ErrUserNotFound = errors.New("User not found!", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrInvalidPassword is returned when the password does not match the stored hash
var ErrInvalidPassword = errors.New("Invalid password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrUnauthorized is the generic rejection used by the bearer middleware. It
// deliberately does not say which check failed.
var ErrUnauthorized = errors.New("Unauthorized", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrOwnershipMismatch is returned when an authenticated caller requests a
// resource owned by a different user
var ErrOwnershipMismatch = errors.New("Unauthorized!", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrResourceNotFound covers malformed identifiers and missing records
var ErrResourceNotFound = errors.New("Resource not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeResourceNotFound)

// ErrDuplicateField is the normalized shape of a storage uniqueness violation
var ErrDuplicateField = errors.New("Duplicate field value entered", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateField)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = errors.New("the session token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens that fail parsing or verification
var ErrTokenMalformed = errors.New("the session token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the low level bcrypt mismatch
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateKeyError detects a storage-layer uniqueness violation. SQLite and
// Postgres report these with different messages and neither driver exposes a
// typed error through bun.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
