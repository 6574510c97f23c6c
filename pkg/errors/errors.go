package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrNotSupported  ErrorCode = "NOT_SUPPORTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Archive and content set errors
	ErrUnsupportedEntryType ErrorCode = "UNSUPPORTED_ENTRY_TYPE"
	ErrSymlinkCycle         ErrorCode = "SYMLINK_CYCLE"
	ErrFrozenSet            ErrorCode = "FROZEN_SET"
	ErrArchiveRead          ErrorCode = "ARCHIVE_READ"
	ErrArchiveWrite         ErrorCode = "ARCHIVE_WRITE"

	// Trigger errors
	ErrMissingChangeset  ErrorCode = "MISSING_CHANGESET"
	ErrBlockModification ErrorCode = "BLOCK_MODIFICATION"
	ErrTriggerWarning    ErrorCode = "TRIGGER_WARNING"
	ErrReentrantHook     ErrorCode = "REENTRANT_HOOK"
	ErrTriggerInvalid    ErrorCode = "TRIGGER_INVALID"

	// Watcher errors
	ErrNotArmed ErrorCode = "NOT_ARMED"

	// Tool errors
	ErrToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	ErrToolExecute  ErrorCode = "TOOL_EXECUTE"

	// Record store errors
	ErrRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrRecordCorrupt  ErrorCode = "RECORD_CORRUPT"

	// FileSystem errors
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileCreate    ErrorCode = "FILE_CREATE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"

	// Worker pool errors
	ErrStopped ErrorCode = "STOPPED"
)

// FsmergeError represents a structured error with code and details
type FsmergeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *FsmergeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *FsmergeError) Unwrap() error {
	return e.Wrapped
}

// Is matches any FsmergeError carrying the same code
func (e *FsmergeError) Is(target error) bool {
	var targetErr *FsmergeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new FsmergeError with the given code and message
func New(code ErrorCode, message string) *FsmergeError {
	return &FsmergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new FsmergeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *FsmergeError {
	return &FsmergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a FsmergeError.
// A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &FsmergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &FsmergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *FsmergeError) WithDetail(key string, value interface{}) *FsmergeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if any error in the chain has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var fe *FsmergeError
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Code == code {
			return true
		}
		err = fe.Wrapped
	}
	return false
}

// GetErrorCode returns the outermost error code, or ErrUnknown if err is not a FsmergeError
func GetErrorCode(err error) ErrorCode {
	var fe *FsmergeError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a FsmergeError
func GetErrorDetails(err error) map[string]interface{} {
	var fe *FsmergeError
	if errors.As(err, &fe) {
		return fe.Details
	}
	return nil
}

// WithDetails adds multiple details to the error
func (e *FsmergeError) WithDetails(details map[string]interface{}) *FsmergeError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// IsNotExist reports whether err, or anything it wraps, is a missing-file
// error from the filesystem
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Join wraps errors.Join
func Join(errs ...error) error { return errors.Join(errs...) }
