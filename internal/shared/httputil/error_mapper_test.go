package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"mesaYaBooking/internal/shared/validation"
)

var (
	errNotFound = errors.New("restaurant not found")
	errTaken    = errors.New("email already in use")
)

func TestErrorMapperMap(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().
		WithMapping(errNotFound, http.StatusNotFound, "restaurant not found").
		WithMapping(errTaken, http.StatusConflict, "").
		WithDefault(http.StatusBadGateway, "backend unavailable")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "nil", err: nil, status: http.StatusOK},
		{name: "wrapped mapping", err: fmt.Errorf("get: %w", errNotFound), status: http.StatusNotFound, message: "restaurant not found"},
		{name: "deadline", err: fmt.Errorf("find: %w", context.DeadlineExceeded), status: http.StatusGatewayTimeout, message: "request timeout"},
		{name: "cancelled", err: context.Canceled, status: http.StatusServiceUnavailable, message: "request cancelled"},
		{name: "empty message without passthrough", err: errTaken, status: http.StatusConflict, message: ""},
		{name: "default", err: errors.New("boom"), status: http.StatusBadGateway, message: "backend unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := mapper.Map(tt.err)
			if info.Status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, info.Status)
			}
			if info.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, info.Message)
			}
		})
	}
}

func TestErrorMapperPassthrough(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().WithMapping(errTaken, http.StatusConflict, "").WithMessagePassthrough()
	err := fmt.Errorf("provider: %w", errTaken)

	httpErr := mapper.HTTPError(err)
	if httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", httpErr.Code)
	}
	if httpErr.Message != err.Error() {
		t.Fatalf("expected verbatim message %q, got %v", err.Error(), httpErr.Message)
	}
	if !errors.Is(httpErr.Internal, errTaken) {
		t.Fatalf("expected internal error to be kept")
	}
}

func TestQuickMap(t *testing.T) {
	t.Parallel()

	info := QuickMap(errNotFound, ErrorMapping{Error: errNotFound, Status: http.StatusNotFound, Message: "missing"})
	if info.Status != http.StatusNotFound || info.Message != "missing" {
		t.Fatalf("unexpected mapping %+v", info)
	}
	if info := QuickMap(errTaken); info.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", info.Status)
	}
}

func TestHTTPErrorValidation(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()
	he := mapper.HTTPError(fmt.Errorf("submit: %w", validation.Errors{"partySize": "must be at least 1"}))
	if he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", he.Code)
	}
	body, ok := he.Message.(map[string]any)
	if !ok {
		t.Fatalf("expected structured message, got %T", he.Message)
	}
	fields, ok := body["fields"].(validation.Errors)
	if !ok || fields["partySize"] == "" {
		t.Fatalf("expected partySize field error, got %v", body)
	}

	if he := mapper.HTTPError(errNotFound); he.Code != http.StatusInternalServerError || he.Internal != errNotFound {
		t.Fatalf("expected default mapping with internal error, got %d", he.Code)
	}
}
