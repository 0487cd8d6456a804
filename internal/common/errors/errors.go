// Package errors provides standardized error handling for the relay pipeline.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSignatureInvalid  ErrorCode = "SIGNATURE_INVALID"
	ErrCodeUnknownLocation   ErrorCode = "UNKNOWN_LOCATION"
	ErrCodeEntryMalformed    ErrorCode = "ENTRY_MALFORMED"
	ErrCodeBoardSubmitFailed ErrorCode = "BOARD_SUBMIT_FAILED"

	// Recovered locally, never surfaced to the webhook caller.
	ErrCodePhotoFetchDegraded ErrorCode = "PHOTO_FETCH_DEGRADED"
	ErrCodeChatNotifyFailed   ErrorCode = "CHAT_NOTIFY_FAILED"
	ErrCodeDedupUnavailable   ErrorCode = "DEDUP_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps an error code to the status returned to the webhook
// caller. Details never include signature or token material.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeSignatureInvalid, ErrCodeEntryMalformed:
		return http.StatusBadRequest
	case ErrCodeUnknownLocation:
		return http.StatusNotFound
	case ErrCodeBoardSubmitFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSignatureInvalidError creates a non-retryable authentication error.
func NewSignatureInvalidError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSignatureInvalid,
		Message:   "Webhook signature verification failed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownLocationError creates a non-retryable client error.
func NewUnknownLocationError(code string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownLocation,
		Message:   "Unknown location code",
		Details:   fmt.Sprintf("location: %s", code),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEntryMalformedError creates a non-retryable payload error.
func NewEntryMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEntryMalformed,
		Message:   "Check-in entry payload could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBoardSubmitFailedError creates a retryable publish error. Retryable
// here means the provider may redeliver the webhook; the relay itself never
// retries within a request.
func NewBoardSubmitFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBoardSubmitFailed,
		Message:   "Community board rejected the submission",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
