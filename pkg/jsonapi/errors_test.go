package jsonapi

import (
	"errors"
	"testing"
)

func TestErrorBuilder(t *testing.T) {
	err := NewError(422, "invalid_field", "Validation Failed").
		Detail("name must not be empty").
		Pointer("/name").
		Meta("field", "name").
		Build()

	if err.Status != "422" {
		t.Errorf("Status = %q, want %q", err.Status, "422")
	}
	if err.Code != "invalid_field" {
		t.Errorf("Code = %q, want %q", err.Code, "invalid_field")
	}
	if err.Detail != "name must not be empty" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Source == nil || err.Source.Pointer != "/name" {
		t.Errorf("Source = %+v, want pointer /name", err.Source)
	}
	if err.Meta["field"] != "name" {
		t.Errorf("Meta = %+v", err.Meta)
	}
	if err.StatusCode() != 422 {
		t.Errorf("StatusCode() = %d, want 422", err.StatusCode())
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        Error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"bad request", ErrBadRequest("malformed body"), 400, "bad_request", "malformed body"},
		{"not found default detail", ErrNotFound(""), 404, "not_found", "The requested resource was not found"},
		{"no operation", ErrNoOperation("GET", "/nope"), 404, "no_operation", "No operation is documented for GET /nope"},
		{"method not allowed", ErrMethodNotAllowed("PATCH"), 405, "method_not_allowed", "The PATCH method is not allowed for this resource"},
		{"unknown module", ErrUnknownModule("pets_controller"), 501, "unknown_module", "No module named 'pets_controller' is registered"},
		{"unknown operation", ErrUnknownOperation("pets", "list_pets"), 501, "unknown_operation", "Module 'pets' does not implement operation 'list_pets'"},
		{"internal default detail", ErrInternal(""), 500, "internal_error", "An internal error occurred"},
		{"service unavailable", ErrServiceUnavailable("spec not loaded"), 503, "service_unavailable", "spec not loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", got, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", tt.err.Detail, tt.wantDetail)
			}
		})
	}
}

func TestErrFromError(t *testing.T) {
	err := ErrFromError(nil)
	if err.StatusCode() != 500 {
		t.Errorf("StatusCode() = %d, want 500", err.StatusCode())
	}

	err = ErrFromError(errors.New("boom"))
	if err.StatusCode() != 500 || err.Detail != "boom" {
		t.Errorf("got %+v, want 500 with detail %q", err, "boom")
	}
}
