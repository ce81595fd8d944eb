package services

import "errors"

// Failure taxonomy for the access path. NotFound-class errors are terminal,
// the Unavailable pair is transient and retryable, ErrNoStorageKey is a data
// integrity gap. "Not purchased" is deliberately absent: it is a normal access
// decision, never an error.
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrVersionNotFound     = errors.New("course version not found")
	ErrVersionNotPublished = errors.New("course version not published")

	ErrLedgerUnavailable  = errors.New("entitlement ledger unavailable")
	ErrStorageUnavailable = errors.New("media storage unavailable")

	ErrNoStorageKey = errors.New("video has no storage key")

	ErrVersionNotDraft = errors.New("course version is not in draft")

	ErrCertificateNotFound = errors.New("certificate not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrNotCourseAuthor    = errors.New("caller does not own this course")
	ErrNotEntitled        = errors.New("no active entitlement for this course")
)
