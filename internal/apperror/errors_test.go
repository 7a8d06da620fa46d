package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_StatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		code int
		typ  string
	}{
		{NewNotFound("x"), http.StatusNotFound, "not_found"},
		{NewBadRequest("x"), http.StatusBadRequest, "bad_request"},
		{NewUnauthorized("x"), http.StatusUnauthorized, "unauthorized"},
		{NewInvalidCredentials("x"), http.StatusUnauthorized, "invalid_credentials"},
		{NewForbidden("x"), http.StatusForbidden, "forbidden"},
		{NewConflict("x"), http.StatusConflict, "conflict"},
		{NewValidation("x"), http.StatusUnprocessableEntity, "validation_error"},
		{NewInternal(errors.New("boom")), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("%s: expected code %d, got %d", tc.typ, tc.code, tc.err.Code)
		}
		if tc.err.Type != tc.typ {
			t.Errorf("expected type %s, got %s", tc.typ, tc.err.Type)
		}
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.3:3306: connection refused")
	err := NewInternal(cause)

	if SafeMessage(err) == cause.Error() {
		t.Error("internal cause leaked into the safe message")
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause to errors.Is")
	}
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("loading book: %w", NewNotFound("book not found"))

	if !IsNotFound(wrapped) {
		t.Fatal("expected wrapped not-found to be detected")
	}
	if SafeCode(wrapped) != http.StatusNotFound {
		t.Errorf("expected 404, got %d", SafeCode(wrapped))
	}
	if SafeMessage(wrapped) != "book not found" {
		t.Errorf("unexpected message %q", SafeMessage(wrapped))
	}
}

func TestSafe_PlainError(t *testing.T) {
	err := errors.New("raw driver error")
	if SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("expected 500 for plain error, got %d", SafeCode(err))
	}
	if SafeMessage(err) == err.Error() {
		t.Error("plain error message leaked")
	}
	if IsNotFound(err) {
		t.Error("plain error reported as not found")
	}
}
