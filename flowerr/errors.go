// Package flowerr provides the error taxonomy and classification helpers
// shared by every package in the dataflow runtime.
package flowerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Class classifies an error for retry/escalation decisions.
type Class int

const (
	// Transient errors may succeed if retried.
	Transient Class = iota
	// Invalid errors are caused by bad input or configuration and must not be retried.
	Invalid
	// Fatal errors are unrecoverable and should stop processing.
	Fatal
)

// String returns the human-readable name of the class.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Named errors from spec.md §7's taxonomy.
var (
	// ErrBlockCallNotFound is returned when an opaque call or signal name
	// is not registered in a block's Capabilities map.
	ErrBlockCallNotFound = errors.New("block call not found")
	// ErrBufferConvertError is returned when a dtype pair has no registered converter.
	ErrBufferConvertError = errors.New("no converter registered for dtype pair")
	// ErrDataFormatException is returned for malformed topology JSON.
	ErrDataFormatException = errors.New("malformed topology description")
	// ErrPortAccessError is returned for a reference to a port that cannot be auto-allocated.
	ErrPortAccessError = errors.New("port does not exist and cannot be auto-allocated")
	// ErrObjectConvertError is returned when a boxed-variant value cannot be unwrapped to the requested type.
	ErrObjectConvertError = errors.New("object convert error")
	// ErrObjectCompareError is returned when two boxed-variant values cannot be compared.
	ErrObjectCompareError = errors.New("object compare error")

	// ErrAlreadyActive / ErrNotActive mirror block-lifecycle misuse.
	ErrAlreadyActive = errors.New("block already active")
	ErrNotActive     = errors.New("block not active")

	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrConnectionLost     = errors.New("connection lost")
	ErrResourceExhausted  = errors.New("resource exhausted")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// ClassifiedError wraps an error with a Class and call-site context.
type ClassifiedError struct {
	Class     Class
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient reports whether err is classified Transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Transient
	}

	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "network", "temporary", "unavailable", "busy"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal reports whether err is classified Fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Fatal
	}

	if errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrResourceExhausted) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"fatal", "panic", "corrupted", "out of memory"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid reports whether err is classified Invalid.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Invalid
	}

	return errors.Is(err, ErrDataFormatException) ||
		errors.Is(err, ErrPortAccessError) ||
		errors.Is(err, ErrBufferConvertError)
}

func newClassified(class Class, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{Class: class, Err: err, Message: message, Component: component, Operation: operation}
}

// Wrap applies the standard "component.method: action failed: %w" format,
// preserving the wrapped error's classification if it has one.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps err and marks it Transient.
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(Transient, wrapped, component, method, wrapped.Error())
}

// WrapFatal wraps err and marks it Fatal.
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(Fatal, wrapped, component, method, wrapped.Error())
}

// WrapInvalid wraps err and marks it Invalid.
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(Invalid, wrapped, component, method, wrapped.Error())
}

// RetryConfig configures exponential-backoff retry for transient errors.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry reports whether attempt should be retried given err.
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}
	return IsTransient(err)
}

// BackoffDelay computes the delay before the given retry attempt.
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}
	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.BackoffFactor)
		if delay > rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	return delay
}

// CallNotFound builds ErrBlockCallNotFound wrapped with the offending name.
func CallNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrBlockCallNotFound, name)
}

// ConvertError builds ErrBufferConvertError for a from/to dtype pair.
func ConvertError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrBufferConvertError, from, to)
}

// DataFormatError builds ErrDataFormatException naming the offending index.
func DataFormatError(index int, reason string) error {
	return fmt.Errorf("%w: element %d: %s", ErrDataFormatException, index, reason)
}

// PortAccessErrorf builds ErrPortAccessError naming the offending port.
func PortAccessErrorf(blockName, portName string) error {
	return fmt.Errorf("%w: %s.%s", ErrPortAccessError, blockName, portName)
}

// TopologyConnectError aggregates the failure messages from a single commit
// phase (subscription changes, activation/deactivation, buffer-manager
// negotiation) into one reported error, per spec.md §4.6/§7.
type TopologyConnectError struct {
	Operation string
	Failures  []string
}

// Error implements the error interface.
func (e *TopologyConnectError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: no failures recorded", e.Operation)
	}
	return fmt.Sprintf("%s: %d failure(s):\n%s", e.Operation, len(e.Failures), strings.Join(e.Failures, "\n"))
}

// NewTopologyConnectError returns nil if failures is empty, otherwise an
// aggregated *TopologyConnectError -- callers always check for nil before
// raising it, matching the "throw only when non-empty" contract fixed by
// spec.md §9's Open Question resolution.
func NewTopologyConnectError(operation string, failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	return &TopologyConnectError{Operation: operation, Failures: failures}
}
