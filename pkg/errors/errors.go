package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures and non-2xx responses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeBlocked represents anti-bot 403 responses
	ErrorTypeBlocked ErrorType = "blocked"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeHistory represents history store errors
	ErrorTypeHistory ErrorType = "history"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeNotify represents notification delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// DealError represents an error raised somewhere in the deal pipeline
type DealError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *DealError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *DealError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if another attempt may succeed
func (e *DealError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeBlocked:
		return true
	default:
		return false
	}
}

// New creates a new DealError
func New(errType ErrorType, component, message string, err error) *DealError {
	return &DealError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *DealError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewBlocked creates a new blocked (HTTP 403) error
func NewBlocked(component, message string) *DealError {
	return New(ErrorTypeBlocked, component, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *DealError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewHistory creates a new history store error
func NewHistory(component, message string, err error) *DealError {
	return New(ErrorTypeHistory, component, message, err)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *DealError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *DealError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewNotify creates a new notification error
func NewNotify(component, message string, err error) *DealError {
	return New(ErrorTypeNotify, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *DealError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// Is reports whether err carries a DealError of the given type
func Is(err error, errType ErrorType) bool {
	var de *DealError
	if stderrors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// IsBlocked reports whether err was caused by an anti-bot block
func IsBlocked(err error) bool {
	return Is(err, ErrorTypeBlocked)
}

// IsRetryable reports whether another attempt may fix err.
// Errors that are not DealErrors, such as timeouts from the HTTP client, count as retryable.
func IsRetryable(err error) bool {
	var de *DealError
	if stderrors.As(err, &de) {
		return de.IsRetryable()
	}
	return true
}
