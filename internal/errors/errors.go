package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a SmartGallery error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrPermissionDenied   ErrorCode = "PERMISSION_DENIED"   // 403
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrConflict           ErrorCode = "CONFLICT"            // 409
	ErrNotStreaming       ErrorCode = "NOT_STREAMING"       // 409
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"      // 413
	ErrInternal           ErrorCode = "INTERNAL"            // 500
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
	ErrDeviceUnavailable  ErrorCode = "DEVICE_UNAVAILABLE"  // 503
)

// GalleryError represents a structured error with code, status, and details.
type GalleryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *GalleryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *GalleryError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GalleryError {
	return &GalleryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewPermissionDenied creates a 403 error when camera or microphone access is refused.
func NewPermissionDenied(device string, cause error) *GalleryError {
	return &GalleryError{
		Code:    ErrPermissionDenied,
		Status:  403,
		Message: fmt.Sprintf("permission denied for %s", device),
		Details: map[string]any{"device": device},
		cause:   cause,
	}
}

// NewNotFound creates a 404 error for when a library item cannot be found.
func NewNotFound(identifier string) *GalleryError {
	return &GalleryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("item not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *GalleryError {
	return &GalleryError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewNotStreaming creates a 409 error for operations that need a live camera stream.
func NewNotStreaming(op string) *GalleryError {
	return &GalleryError{
		Code:    ErrNotStreaming,
		Status:  409,
		Message: fmt.Sprintf("camera not started: cannot %s", op),
		Details: map[string]any{"operation": op},
	}
}

// NewQuotaExceeded creates a 413 error when a write would exceed the storage quota.
func NewQuotaExceeded(quota, required int64) *GalleryError {
	return &GalleryError{
		Code:    ErrQuotaExceeded,
		Status:  413,
		Message: fmt.Sprintf("storage quota exceeded: %d bytes required (quota %d)", required, quota),
		Details: map[string]any{"quota_bytes": quota, "required_bytes": required},
	}
}

// NewStorageUnavailable creates a 503 error for storage read/write failures.
func NewStorageUnavailable(cause error) *GalleryError {
	msg := "storage unavailable"
	if cause != nil {
		msg = fmt.Sprintf("storage unavailable: %v", cause)
	}
	return &GalleryError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
		cause:   cause,
	}
}

// NewDeviceUnavailable creates a 503 error when no camera can satisfy the request.
func NewDeviceUnavailable(msg string, cause error) *GalleryError {
	return &GalleryError{
		Code:    ErrDeviceUnavailable,
		Status:  503,
		Message: msg,
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GalleryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GalleryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a GalleryError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GalleryError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// As returns the GalleryError in err's chain, wrapping unknown errors as INTERNAL.
func As(err error) *GalleryError {
	if err == nil {
		return nil
	}
	var gErr *GalleryError
	if stderrors.As(err, &gErr) {
		return gErr
	}
	return NewInternal(err)
}
