package entity

import "errors"

var (
	// Posting errors
	ErrPostingNotFound = errors.New("posting not found")

	// Submission errors
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("already submitted for this posting")
	ErrInvalidStatus      = errors.New("invalid status")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden operation")
)
