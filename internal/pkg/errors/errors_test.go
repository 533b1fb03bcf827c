package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeValidation, "invalid input"),
			want: "VALIDATION_ERROR: invalid input",
		},
		{
			name: "with wrapped error",
			err:  Wrap(CodeInternal, "something failed", errors.New("underlying")),
			want: "INTERNAL_ERROR: something failed: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeInternal, "wrapped", underlying)

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, underlying)
	}
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
		{CodeProviderError, http.StatusInternalServerError},
		{CodeCacheError, http.StatusInternalServerError},
		{CodeIndexError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test")
			if status := err.HTTPStatus(); status != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", status, tt.status)
			}
		})
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := New(CodeValidation, "invalid").
		WithDetail("field", "name").
		WithDetail("reason", "required")

	if err.Details["field"] != "name" {
		t.Errorf("Details[field] = %s, want name", err.Details["field"])
	}

	if err.Details["reason"] != "required" {
		t.Errorf("Details[reason] = %s, want required", err.Details["reason"])
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError("bad input")
		if err.Code != CodeValidation {
			t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
		}
	})

	t.Run("NotFoundError", func(t *testing.T) {
		err := NotFoundError("query q-1")
		if err.Code != CodeNotFound {
			t.Errorf("Code = %s, want %s", err.Code, CodeNotFound)
		}
		if err.Message != "query q-1 not found" {
			t.Errorf("Message = %s, want 'query q-1 not found'", err.Message)
		}
	})

	t.Run("ProviderError", func(t *testing.T) {
		err := ProviderError("court_records", errors.New("timeout"))
		if err.Code != CodeProviderError {
			t.Errorf("Code = %s, want %s", err.Code, CodeProviderError)
		}
		if err.Message != "provider court_records failed" {
			t.Errorf("Message = %s, want 'provider court_records failed'", err.Message)
		}
	})

	t.Run("TimeoutError", func(t *testing.T) {
		err := TimeoutError("provider fan-out")
		if err.Code != CodeTimeout {
			t.Errorf("Code = %s, want %s", err.Code, CodeTimeout)
		}
		if err.Message != "provider fan-out timed out" {
			t.Errorf("Message = %s, want 'provider fan-out timed out'", err.Message)
		}
	})

	t.Run("RateLimitedError", func(t *testing.T) {
		err := RateLimitedError(30)
		if err.Code != CodeRateLimited {
			t.Errorf("Code = %s, want %s", err.Code, CodeRateLimited)
		}
		if err.Details["retry_after"] != "30" {
			t.Errorf("Details[retry_after] = %s, want 30", err.Details["retry_after"])
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFoundError("query")) {
		t.Error("IsNotFound() = false for a not-found error")
	}
	if IsNotFound(ValidationError("bad")) {
		t.Error("IsNotFound() = true for a validation error")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound() = true for a plain error")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ValidationError("bad")) {
		t.Error("IsValidation() = false for a validation error")
	}
	if IsValidation(NotFoundError("query")) {
		t.Error("IsValidation() = true for a not-found error")
	}
}
