package http

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/specgate/specgate/pkg/jsonapi"
	"github.com/specgate/specgate/ports"
)

type violationsBody struct {
	Data []jsonapi.Resource `json:"data"`
	Meta jsonapi.Meta       `json:"meta"`
}

func decodeViolations(t *testing.T, rec *httptest.ResponseRecorder) violationsBody {
	t.Helper()
	var body violationsBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return body
}

func TestViolations_SchemaViolationIsRecordedAndListed(t *testing.T) {
	router, _ := newTestRouter(t)

	// The handler delivers its bytes untouched even though they violate
	// the declared schema.
	rec := serve(t, router, "GET", "/broken")
	if rec.Code != 200 {
		t.Fatalf("dispatch status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `["not","an","object"]` {
		t.Errorf("delivered body = %s, want handler output unchanged", got)
	}

	rec = serve(t, router, "GET", "/violations")
	if rec.Code != 200 {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	body := decodeViolations(t, rec)
	if len(body.Data) != 1 {
		t.Fatalf("violations = %d, want 1", len(body.Data))
	}
	v := body.Data[0]
	if v.Type != "violation" {
		t.Errorf("type = %q, want violation", v.Type)
	}
	if v.Attributes["kind"] != ports.ViolationKindSchema {
		t.Errorf("kind = %v, want %q", v.Attributes["kind"], ports.ViolationKindSchema)
	}
	if v.Attributes["template"] != "/broken" {
		t.Errorf("template = %v, want /broken", v.Attributes["template"])
	}
	if body.Meta["count"] != float64(1) {
		t.Errorf("meta = %+v, want count 1", body.Meta)
	}
}

func TestViolations_UnspecifiedStatusIsRecorded(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(t, router, "GET", "/teapot")
	if rec.Code != 418 {
		t.Fatalf("dispatch status = %d, want 418 delivered unchanged", rec.Code)
	}

	rec = serve(t, router, "GET", "/violations")
	body := decodeViolations(t, rec)
	if len(body.Data) != 1 {
		t.Fatalf("violations = %d, want 1", len(body.Data))
	}
	v := body.Data[0]
	if v.Attributes["kind"] != ports.ViolationKindUnspecifiedStatus {
		t.Errorf("kind = %v, want %q", v.Attributes["kind"], ports.ViolationKindUnspecifiedStatus)
	}
	if v.Attributes["status"] != float64(418) {
		t.Errorf("status = %v, want 418", v.Attributes["status"])
	}
}

func TestViolations_ConformingResponsesRecordNothing(t *testing.T) {
	router, _ := newTestRouter(t)

	serve(t, router, "GET", "/pets")

	rec := serve(t, router, "GET", "/violations")
	body := decodeViolations(t, rec)
	if len(body.Data) != 0 {
		t.Errorf("violations = %+v, want none", body.Data)
	}
}

func TestViolations_ListLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	for i := 0; i < 5; i++ {
		serve(t, router, "GET", "/broken")
	}

	rec := serve(t, router, "GET", "/violations?limit=2")
	body := decodeViolations(t, rec)
	if len(body.Data) != 2 {
		t.Errorf("violations = %d, want 2", len(body.Data))
	}
}

func TestViolations_ListBadLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, q := range []string{"limit=abc", "limit=-1"} {
		rec := serve(t, router, "GET", "/violations?"+q)
		if rec.Code != 400 {
			t.Errorf("%s status = %d, want 400", q, rec.Code)
		}
		errs := decodeErrors(t, rec)
		if len(errs) != 1 || errs[0].Source == nil || errs[0].Source.Parameter != "limit" {
			t.Errorf("%s errors = %+v, want limit parameter error", q, errs)
		}
	}
}

func TestViolations_Purge(t *testing.T) {
	router, _ := newTestRouter(t)

	serve(t, router, "GET", "/broken")
	serve(t, router, "GET", "/broken")

	cutoff := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec := serve(t, router, "DELETE", fmt.Sprintf("/violations?before=%s", cutoff))
	if rec.Code != 200 {
		t.Fatalf("purge status = %d, want 200", rec.Code)
	}
	var doc jsonapi.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if doc.Meta["purged"] != float64(2) {
		t.Errorf("meta = %+v, want purged 2", doc.Meta)
	}

	rec = serve(t, router, "GET", "/violations")
	if body := decodeViolations(t, rec); len(body.Data) != 0 {
		t.Errorf("violations after purge = %d, want 0", len(body.Data))
	}
}

func TestViolations_PurgeRequiresValidBefore(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, q := range []string{"", "before=yesterday"} {
		target := "/violations"
		if q != "" {
			target += "?" + q
		}
		rec := serve(t, router, "DELETE", target)
		if rec.Code != 400 {
			t.Errorf("%q status = %d, want 400", q, rec.Code)
		}
	}
}
