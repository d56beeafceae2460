package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("title required", nil), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorized("nope"), CodeUnauthorized, http.StatusForbidden},
		{"unauthenticated", NewUnauthenticated("missing token"), CodeUnauthenticated, http.StatusUnauthorized},
		{"conflict", NewConflict("stale", nil), CodeConflict, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("assign: %w", NewConflict("stale", nil)), CodeConflict, http.StatusConflict},
		{"plain error", errors.New("connection reset"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.HTTPStatus != tt.wantStatus {
				t.Errorf("status = %d, want %d", got.HTTPStatus, tt.wantStatus)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestKindPredicates(t *testing.T) {
	conflict := NewConflict("ticket is not pending", nil)
	if !IsConflict(conflict) || IsUnauthorized(conflict) || IsInternal(conflict) {
		t.Errorf("conflict predicates wrong for %v", conflict)
	}
	if !IsUnauthorized(NewUnauthorized("x")) {
		t.Error("expected IsUnauthorized")
	}
	if !IsValidation(NewValidationError("x", nil)) {
		t.Error("expected IsValidation")
	}
	if !IsNotFound(NewNotFound("user", nil)) {
		t.Error("expected IsNotFound")
	}
	if !IsInternal(errors.New("boom")) {
		t.Error("plain errors are internal")
	}
	if IsInternal(nil) {
		t.Error("nil is not internal")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("pool closed")
	err := NewInternalError(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected internal error to wrap its cause")
	}
	if err.Error() != "internal server error: pool closed" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
