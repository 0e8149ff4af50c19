package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// ErrorType represents different types of errors that can occur
type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeFileSystem
	ErrorTypeUI
	ErrorTypeWatcher
	ErrorTypeProvider
	ErrorTypeResolution
	ErrorTypeFileOperation
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeFileSystem:
		return "filesystem"
	case ErrorTypeUI:
		return "ui"
	case ErrorTypeWatcher:
		return "watcher"
	case ErrorTypeProvider:
		return "provider"
	case ErrorTypeResolution:
		return "resolution"
	case ErrorTypeFileOperation:
		return "fileop"
	default:
		return "unknown"
	}
}

// Sentinel causes for file operations. Security failures are kept apart
// from plain I/O failures so callers can present them differently.
var (
	ErrAccessDenied  = stderrors.New("access denied")
	ErrPathNotFound  = stderrors.New("path not found")
	ErrAlreadyExists = stderrors.New("already exists")
	ErrCanceled      = stderrors.New("operation canceled")
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Type, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error
func NewConfigError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewFileSystemError creates a new filesystem error
func NewFileSystemError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeFileSystem,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewUIError creates a new UI error
func NewUIError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeUI,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewWatcherError creates a new watcher error
func NewWatcherError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeWatcher,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewProviderError creates a new item provider error
func NewProviderError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeProvider,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewResolutionError creates an error for a failed background resolution.
// These are logged and dropped, never shown to the user.
func NewResolutionError(operation, path string, err error) *AppError {
	msg := "resolution failed"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Type:      ErrorTypeResolution,
		Operation: operation,
		Path:      path,
		Message:   msg,
		Err:       err,
	}
}

// NewFileOperationError creates a file operation error. The cause is
// classified so errors.Is works against the sentinel values.
func NewFileOperationError(operation, path string, err error) *AppError {
	cause := Classify(err)
	msg := "failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Type:      ErrorTypeFileOperation,
		Operation: operation,
		Path:      path,
		Message:   msg,
		Err:       cause,
	}
}

// classified keeps the original error while matching a sentinel.
type classified struct {
	sentinel error
	err      error
}

func (c classified) Error() string {
	return c.sentinel.Error() + ": " + c.err.Error()
}

func (c classified) Unwrap() []error { return []error{c.sentinel, c.err} }

// Classify maps well-known filesystem errors onto the sentinel causes.
// Unknown errors are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ErrAccessDenied), stderrors.Is(err, ErrPathNotFound),
		stderrors.Is(err, ErrAlreadyExists), stderrors.Is(err, ErrCanceled):
		return err
	case stderrors.Is(err, fs.ErrPermission):
		return classified{sentinel: ErrAccessDenied, err: err}
	case stderrors.Is(err, fs.ErrNotExist):
		return classified{sentinel: ErrPathNotFound, err: err}
	case stderrors.Is(err, fs.ErrExist):
		return classified{sentinel: ErrAlreadyExists, err: err}
	default:
		return err
	}
}

// IsSecurity reports whether err is an authorization failure.
func IsSecurity(err error) bool {
	return stderrors.Is(err, ErrAccessDenied) || stderrors.Is(err, fs.ErrPermission)
}
