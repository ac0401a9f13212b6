package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestHorizonError_Error(t *testing.T) {
	err := &HorizonError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "call not found",
	}

	expected := "NOT_FOUND: call not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("transcript is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "transcript is required" {
		t.Errorf("Message = %q, want %q", err.Message, "transcript is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("call", "log-abc")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Message != "call not found: log-abc" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["identifier"] != "log-abc" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "log-abc")
	}
}

func TestNewHTTPStatus(t *testing.T) {
	err := NewHTTPStatus(500, "Internal Server Error")

	if err.Code != ErrUpstream {
		t.Errorf("Code = %q, want %q", err.Code, ErrUpstream)
	}
	if err.Message != "HTTP Error 500: Internal Server Error" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["http_status"] != 500 {
		t.Errorf("Details[http_status] = %v", err.Details["http_status"])
	}
}

func TestNewAccessDenied(t *testing.T) {
	err := NewAccessDenied()
	if err.Code != ErrAccessDenied {
		t.Errorf("Code = %q, want %q", err.Code, ErrAccessDenied)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
}

func TestNewNotConfigured(t *testing.T) {
	err := NewNotConfigured()
	if err.Code != ErrNotConfigured || err.Status != 503 {
		t.Errorf("got %s/%d, want NOT_CONFIGURED/503", err.Code, err.Status)
	}
}

func TestNewTranscriptTooShort(t *testing.T) {
	err := NewTranscriptTooShort(10, 3)
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["min_chars"] != 10 || err.Details["actual_chars"] != 3 {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("database connection failed"))
	if err.Message != "database connection failed" {
		t.Errorf("Message = %q", err.Message)
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("call", "x"), ErrNotFound, true},
		{"different code", NewNotFound("call", "x"), ErrInternal, false},
		{"wrapped", fmt.Errorf("refresh: %w", NewUpstream("boom")), ErrUpstream, true},
		{"plain error", stderrors.New("plain"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	if As(nil) != nil {
		t.Error("As(nil) should be nil")
	}

	orig := NewAccessDenied()
	if got := As(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("As() = %v, want original", got)
	}

	got := As(stderrors.New("boom"))
	if got.Code != ErrInternal || got.Message != "boom" {
		t.Errorf("As(plain) = %v", got)
	}
}
