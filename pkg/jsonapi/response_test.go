package jsonapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return doc
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrNoOperation("GET", "/missing"))

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != ContentType {
		t.Errorf("Content-Type = %q, want %q", got, ContentType)
	}

	doc := decodeDocument(t, rec)
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(doc.Errors))
	}
	if doc.Errors[0].Code != "no_operation" {
		t.Errorf("code = %q, want no_operation", doc.Errors[0].Code)
	}
	if doc.JSONAPI == nil || doc.JSONAPI.Version != Version {
		t.Errorf("jsonapi = %+v, want version %s", doc.JSONAPI, Version)
	}
}

func TestWriteError_NoErrorsFallsBackToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec)

	if rec.Code != 500 {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	doc := decodeDocument(t, rec)
	if len(doc.Errors) != 1 || doc.Errors[0].Code != "internal_error" {
		t.Errorf("errors = %+v, want single internal_error", doc.Errors)
	}
}

func TestWriteCollection(t *testing.T) {
	rec := httptest.NewRecorder()
	resources := []Resource{
		{Type: "violation", ID: "v1", Attributes: map[string]any{"status": 200}},
		{Type: "violation", ID: "v2", Attributes: map[string]any{"status": 404}},
	}
	WriteCollection(rec, 200, resources, Meta{"count": 2})

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Data []Resource `json:"data"`
		Meta Meta       `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(doc.Data) != 2 || doc.Data[0].ID != "v1" {
		t.Errorf("data = %+v", doc.Data)
	}
	if doc.Meta["count"] != float64(2) {
		t.Errorf("meta = %+v", doc.Meta)
	}
}

func TestWriteCollection_NilResourcesEncodesEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCollection(rec, 200, nil, nil)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if string(doc["data"]) != "[]" {
		t.Errorf("data = %s, want []", doc["data"])
	}
}

func TestWriteMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMeta(rec, 200, Meta{"status": "ok"})

	doc := decodeDocument(t, rec)
	if doc.Meta["status"] != "ok" {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if len(doc.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", doc.Errors)
	}
}
