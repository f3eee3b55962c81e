package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const minimalDoc = `
swagger: "2.0"
info:
  title: Minimal
paths:
  /things:
    get:
      operationId: list_things
      responses:
        "200":
          description: ok
          schema:
            type: array
            items:
              type: object
  /things/{id}:
    get:
      responses:
        "200":
          description: ok
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.Version != "2.0" {
		t.Errorf("Version = %q, want 2.0", doc.Version)
	}
	if doc.Title != "Minimal" {
		t.Errorf("Title = %q, want Minimal", doc.Title)
	}

	op, ok := doc.Operation("/things", "GET")
	if !ok {
		t.Fatal("Operation(/things, GET) not found")
	}
	if op.OperationID != "list_things" {
		t.Errorf("OperationID = %q, want list_things", op.OperationID)
	}
	if op.Responses["200"] == nil {
		t.Error("response 200 missing")
	}
	if op.Responses["200"].JSONSchema() == nil {
		t.Error("response 200 should declare a JSON schema")
	}
}

func TestParse_UnquotedStatusCodes(t *testing.T) {
	const doc = `
swagger: "2.0"
info:
  title: Bare codes
paths:
  /things:
    get:
      operationId: list_things
      responses:
        200:
          description: ok
          schema:
            type: array
            items:
              type: object
        404:
          description: missing
`
	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	op, ok := d.Operation("/things", "GET")
	if !ok {
		t.Fatal("Operation(/things, GET) not found")
	}
	if len(op.Responses) != 2 {
		t.Fatalf("len(Responses) = %d, want 2", len(op.Responses))
	}
	if op.Responses["200"] == nil {
		t.Fatal("response 200 missing")
	}
	if op.Responses["200"].JSONSchema() == nil {
		t.Error("response 200 should declare a JSON schema")
	}
	if op.Responses["404"] == nil {
		t.Error("response 404 missing")
	}

	// The retained source must stay JSON-encodable for serving.
	if _, err := json.Marshal(d.Source); err != nil {
		t.Errorf("Source does not re-encode as JSON: %v", err)
	}
}

func TestParse_NoPaths(t *testing.T) {
	if _, err := Parse([]byte(`swagger: "2.0"`)); err == nil {
		t.Error("Parse() should fail when the document declares no paths")
	}
}

func TestParse_BadPath(t *testing.T) {
	bad := `
paths:
  pets:
    get:
      responses: {}
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Error("Parse() should reject paths without a leading slash")
	}
}

func TestLoad_Petstore(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "petstore.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(doc.Paths()); got != 2 {
		t.Errorf("len(Paths()) = %d, want 2", got)
	}

	op, ok := doc.Operation("/pets", "post")
	if !ok {
		t.Fatal("Operation(/pets, post) not found")
	}
	if op.Controller != "pets_controller" {
		t.Errorf("Controller = %q, want pets_controller", op.Controller)
	}
	if op.OperationID != "create_pet" {
		t.Errorf("OperationID = %q, want create_pet", op.OperationID)
	}

	op, ok = doc.Operation("/pets/{id}", "delete")
	if !ok {
		t.Fatal("Operation(/pets/{id}, delete) not found")
	}
	if op.OperationID != "admin.remove_pet" {
		t.Errorf("OperationID = %q, want admin.remove_pet", op.OperationID)
	}
}

func TestDocument_MatchRequest(t *testing.T) {
	doc, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		method   string
		path     string
		wantTmpl string
		wantOK   bool
	}{
		{"GET", "/things", "/things", true},
		{"get", "/things/", "/things", true},
		{"GET", "/things/42", "/things/{id}", true},
		{"POST", "/things", "", false},
		{"GET", "/things/42/extra", "", false},
		{"GET", "/other", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+"_"+tt.path, func(t *testing.T) {
			m, ok := doc.MatchRequest(tt.method, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("MatchRequest(%s, %s) ok = %v, want %v", tt.method, tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.Template != tt.wantTmpl {
				t.Errorf("Template = %q, want %q", m.Template, tt.wantTmpl)
			}
		})
	}

	m, ok := doc.MatchRequest("GET", "/things/42")
	if !ok {
		t.Fatal("MatchRequest(GET, /things/42) should match")
	}
	if m.Params["id"] != "42" {
		t.Errorf("Params[id] = %q, want 42", m.Params["id"])
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"pets", "/pets"},
		{"/pets", "/pets"},
		{"/pets/", "/pets"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(path, []byte(minimalDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	if h.Get().Title != "Minimal" {
		t.Errorf("Title = %q, want Minimal", h.Get().Title)
	}

	var notified *Document
	h.OnChange(func(d *Document) { notified = d })

	updated := []byte(`
swagger: "2.0"
info:
  title: Updated
paths:
  /things:
    get:
      responses:
        "200":
          description: ok
`)
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if h.Get().Title != "Updated" {
		t.Errorf("Title after reload = %q, want Updated", h.Get().Title)
	}
	if notified == nil || notified.Title != "Updated" {
		t.Error("OnChange callback should receive the new document")
	}

	// Broken file keeps the old document
	if err := os.WriteFile(path, []byte("paths: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err == nil {
		t.Error("Reload() should fail for a broken document")
	}
	if h.Get().Title != "Updated" {
		t.Errorf("broken reload replaced document, Title = %q", h.Get().Title)
	}
}
