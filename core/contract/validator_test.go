package contract

import (
	"strings"
	"testing"

	"github.com/specgate/specgate/core/spec"
)

const petsDoc = `
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    get:
      operationId: list_pets
      responses:
        "200":
          description: pet list
          schema:
            type: array
            items:
              type: object
              required: [id, name]
              properties:
                id:
                  type: integer
                name:
                  type: string
        "404":
          description: none found
  /pets/{id}:
    get:
      operationId: get_pet
      responses:
        "200":
          description: one pet
          schema:
            type: object
            required: [id, name]
            properties:
              id:
                type: integer
              name:
                type: string
        default:
          description: error
          schema:
            type: object
            required: [message]
            properties:
              message:
                type: string
`

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	doc, err := spec.Parse([]byte(petsDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	v, err := NewValidator(doc)
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	return v
}

func TestValidator_Check(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name       string
		method     string
		template   string
		status     int
		payload    string
		wantOK     bool
		wantSkip   string
		wantDetail string
	}{
		{
			name:     "conforming array",
			method:   "GET",
			template: "/pets",
			status:   200,
			payload:  `[{"id": 1, "name": "rex"}, {"id": 2, "name": "mittens", "tag": "cat"}]`,
			wantOK:   true,
		},
		{
			name:       "wrong element type",
			method:     "GET",
			template:   "/pets",
			status:     200,
			payload:    `[{"id": "1", "name": "rex"}]`,
			wantDetail: "integer",
		},
		{
			name:       "missing required property",
			method:     "GET",
			template:   "/pets/{id}",
			status:     200,
			payload:    `{"id": 7}`,
			wantDetail: "name",
		},
		{
			name:       "body is not JSON",
			method:     "GET",
			template:   "/pets",
			status:     200,
			payload:    `<html>oops</html>`,
			wantDetail: "not valid JSON",
		},
		{
			name:     "declared status without schema",
			method:   "GET",
			template: "/pets",
			status:   404,
			payload:  `ignored`,
			wantSkip: ReasonNoSchema,
		},
		{
			name:     "undeclared status without default",
			method:   "GET",
			template: "/pets",
			status:   418,
			payload:  `{}`,
			wantSkip: ReasonUnspecifiedStatus,
		},
		{
			name:     "undeclared status falls back to default",
			method:   "GET",
			template: "/pets/{id}",
			status:   503,
			payload:  `{"message": "overloaded"}`,
			wantOK:   true,
		},
		{
			name:       "default schema violation",
			method:     "GET",
			template:   "/pets/{id}",
			status:     503,
			payload:    `{"detail": "overloaded"}`,
			wantDetail: "message",
		},
		{
			name:     "unknown operation",
			method:   "DELETE",
			template: "/pets",
			status:   200,
			payload:  `[]`,
			wantSkip: ReasonUnspecifiedStatus,
		},
		{
			name:     "method is case-insensitive",
			method:   "get",
			template: "/pets",
			status:   200,
			payload:  `[]`,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := v.Check(tt.method, tt.template, tt.status, []byte(tt.payload))

			if tt.wantSkip != "" {
				if !rep.Skipped {
					t.Fatalf("Check() skipped = false, want reason %q", tt.wantSkip)
				}
				if rep.Reason != tt.wantSkip {
					t.Errorf("Check() reason = %q, want %q", rep.Reason, tt.wantSkip)
				}
				return
			}

			if rep.Skipped {
				t.Fatalf("Check() skipped with reason %q, want checked", rep.Reason)
			}
			if tt.wantOK {
				if !rep.OK() {
					t.Errorf("Check() violations = %v, want conforming", rep.Violations)
				}
				return
			}
			if rep.OK() {
				t.Fatal("Check() reported conforming, want violation")
			}
			if !strings.Contains(rep.Message(), tt.wantDetail) {
				t.Errorf("Message() = %q, want mention of %q", rep.Message(), tt.wantDetail)
			}
		})
	}
}

func TestValidator_Check_MultipleViolations(t *testing.T) {
	v := newTestValidator(t)

	rep := v.Check("GET", "/pets", 200, []byte(`[{"id": "a"}, {"name": 3}]`))
	if rep.OK() || rep.Skipped {
		t.Fatalf("Check() = %+v, want violations", rep)
	}
	if len(rep.Violations) < 2 {
		t.Errorf("Check() violations = %v, want at least 2", rep.Violations)
	}
	if msg := rep.Message(); !strings.Contains(msg, ". ") {
		t.Errorf("Message() = %q, want joined messages", msg)
	}
}

func TestNewValidator_BadSchema(t *testing.T) {
	const doc = `
swagger: "2.0"
info:
  title: Broken
  version: "1.0"
paths:
  /things:
    get:
      responses:
        "200":
          description: broken
          schema:
            type: 12
`
	d, err := spec.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := NewValidator(d); err == nil {
		t.Error("NewValidator() should reject an uncompilable schema")
	}
}
