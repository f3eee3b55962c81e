package app

import (
	"net/http/httptest"
	"testing"
)

func TestInterceptor_PassesBytesAndStatusThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 0)

	iw.Header().Set("Content-Type", "application/json")
	iw.WriteHeader(201)
	if _, err := iw.Write([]byte(`{"id":1}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if rec.Code != 201 {
		t.Errorf("client status = %d, want 201", rec.Code)
	}
	if got := rec.Body.String(); got != `{"id":1}` {
		t.Errorf("client body = %q, want original payload", got)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Error("headers should reach the underlying writer")
	}
	if iw.Status() != 201 {
		t.Errorf("Status() = %d, want 201", iw.Status())
	}
	if string(iw.Body()) != `{"id":1}` {
		t.Errorf("Body() = %q, want retained copy", iw.Body())
	}
}

func TestInterceptor_DefaultsTo200OnFirstWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 0)

	iw.Write([]byte("ok"))

	if iw.Status() != 200 {
		t.Errorf("Status() = %d, want 200", iw.Status())
	}
	if !iw.Committed() {
		t.Error("Committed() should be true after a write")
	}
}

func TestInterceptor_SecondWriteHeaderIgnored(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 0)

	iw.WriteHeader(200)
	iw.WriteHeader(500)

	if rec.Code != 200 {
		t.Errorf("client status = %d, want first status to stick", rec.Code)
	}
	if iw.Status() != 200 {
		t.Errorf("Status() = %d, want 200", iw.Status())
	}
}

func TestInterceptor_CaptureLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 4)

	iw.Write([]byte("12345678"))

	if got := rec.Body.String(); got != "12345678" {
		t.Errorf("client body = %q, delivery must not be cut", got)
	}
	if got := string(iw.Body()); got != "1234" {
		t.Errorf("Body() = %q, want bounded prefix", got)
	}
	if !iw.Truncated() {
		t.Error("Truncated() should report the cut")
	}
	if iw.BytesWritten() != 8 {
		t.Errorf("BytesWritten() = %d, want 8", iw.BytesWritten())
	}
}

func TestInterceptor_MultipleWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 0)

	iw.Write([]byte(`[{"id":1},`))
	iw.Write([]byte(`{"id":2}]`))

	want := `[{"id":1},{"id":2}]`
	if got := rec.Body.String(); got != want {
		t.Errorf("client body = %q, want %q", got, want)
	}
	if got := string(iw.Body()); got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
	if iw.Truncated() {
		t.Error("Truncated() should be false under the limit")
	}
}

func TestInterceptor_NotCommittedWithoutWrite(t *testing.T) {
	iw := NewInterceptor(httptest.NewRecorder(), 0)
	if iw.Committed() {
		t.Error("Committed() should be false before any write")
	}
}

func TestInterceptor_FlushPassthrough(t *testing.T) {
	rec := httptest.NewRecorder()
	iw := NewInterceptor(rec, 0)

	iw.Write([]byte("chunk"))
	iw.Flush()

	if !rec.Flushed {
		t.Error("Flush() should reach the underlying writer")
	}
}
