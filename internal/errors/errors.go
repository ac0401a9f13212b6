package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Horizon error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrTranscriptTooShort  ErrorCode = "TRANSCRIPT_TOO_SHORT" // 422
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrUpstream            ErrorCode = "UPSTREAM"             // 502
	ErrAccessDenied        ErrorCode = "ACCESS_DENIED"        // 502
	ErrNotConfigured       ErrorCode = "NOT_CONFIGURED"       // 503
	ErrAnalysisUnavailable ErrorCode = "ANALYSIS_UNAVAILABLE" // 503
)

// HorizonError represents a structured error with code, status, and details.
type HorizonError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *HorizonError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HorizonError {
	return &HorizonError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing call, contact or history item.
func NewNotFound(kind, identifier string) *HorizonError {
	return &HorizonError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewTranscriptTooShort creates a 422 error when a transcript cannot be analyzed.
func NewTranscriptTooShort(min, actual int) *HorizonError {
	return &HorizonError{
		Code:    ErrTranscriptTooShort,
		Status:  422,
		Message: "transcript is too short to analyze",
		Details: map[string]any{"min_chars": min, "actual_chars": actual},
	}
}

// NewUpstream creates a 502 error for transport failures and backend-reported errors.
func NewUpstream(msg string) *HorizonError {
	return &HorizonError{
		Code:    ErrUpstream,
		Status:  502,
		Message: msg,
	}
}

// NewHTTPStatus creates a 502 error for a non-2xx backend response.
func NewHTTPStatus(status int, statusText string) *HorizonError {
	return &HorizonError{
		Code:    ErrUpstream,
		Status:  502,
		Message: fmt.Sprintf("HTTP Error %d: %s", status, statusText),
		Details: map[string]any{"http_status": status},
	}
}

// NewAccessDenied creates a 502 error for the HTML-instead-of-JSON sentinel
// returned by a misconfigured Apps Script deployment.
func NewAccessDenied() *HorizonError {
	return &HorizonError{
		Code:    ErrAccessDenied,
		Status:  502,
		Message: "Access Denied: Received HTML instead of JSON. Check GAS permissions.",
	}
}

// NewNotConfigured creates a 503 error when no backend URL is set.
func NewNotConfigured() *HorizonError {
	return &HorizonError{
		Code:    ErrNotConfigured,
		Status:  503,
		Message: "Backend URL not configured",
	}
}

// NewAnalysisUnavailable creates a 503 error when no analyzer can serve a request.
func NewAnalysisUnavailable(msg string) *HorizonError {
	return &HorizonError{
		Code:    ErrAnalysisUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HorizonError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HorizonError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error (or anything it wraps) is a HorizonError with the given code.
func Is(err error, code ErrorCode) bool {
	var hErr *HorizonError
	if stderrors.As(err, &hErr) {
		return hErr.Code == code
	}
	return false
}

// As returns the HorizonError carried by err, wrapping unknown errors as internal.
func As(err error) *HorizonError {
	if err == nil {
		return nil
	}
	var hErr *HorizonError
	if stderrors.As(err, &hErr) {
		return hErr
	}
	return NewInternal(err)
}
