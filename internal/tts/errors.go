package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrAuthentication indicates a missing or rejected API credential
	ErrAuthentication = errors.New("authentication failed")

	// ErrSynthesisFailed indicates the synthesis service failed
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrEmptyText indicates there was nothing to speak
	ErrEmptyText = errors.New("empty text provided for speech conversion")

	// ErrTextTooLong indicates the text exceeds the engine limit
	ErrTextTooLong = errors.New("text too long for speech conversion")

	// ErrInvalidVoice indicates an unknown voice name
	ErrInvalidVoice = errors.New("invalid voice")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	ErrorCodeAuthentication ErrorCode = "AUTHENTICATION"
	ErrorCodeSynthesis      ErrorCode = "SYNTHESIS"
	ErrorCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrorCodeTimeout        ErrorCode = "TIMEOUT"
	ErrorCodeCanceled       ErrorCode = "CANCELED"
)

// Error represents a TTS-specific error with additional context
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// NewError creates a new TTS error
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match an Error against the sentinel for its code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.Code == ErrorCodeAuthentication
	case ErrSynthesisFailed:
		return e.Code == ErrorCodeSynthesis || e.Code == ErrorCodeTimeout
	}
	return false
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the operation can be retried
func (e *Error) IsRetryable() bool {
	return e.Code == ErrorCodeTimeout
}

// IsAuthentication reports whether err is a credential failure.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
