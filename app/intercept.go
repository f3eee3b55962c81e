package app

import (
	"bytes"
	"net/http"
)

// DefaultCaptureLimit bounds how much of a response body an interceptor
// retains for validation. Larger bodies are still delivered in full, only
// the validation copy is cut off.
const DefaultCaptureLimit = 1 << 20

// Interceptor decorates an http.ResponseWriter so the dispatcher can
// validate what a handler sent after the fact. Every byte and the status
// code pass through to the client untouched; validation reads the retained
// copy once the handler returns.
//
// An Interceptor is allocated per request and must not be reused.
type Interceptor struct {
	w http.ResponseWriter

	status      int
	wroteHeader bool
	written     int64

	buf   bytes.Buffer
	limit int
}

// NewInterceptor wraps a ResponseWriter. A non-positive limit selects
// DefaultCaptureLimit.
func NewInterceptor(w http.ResponseWriter, limit int) *Interceptor {
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}
	return &Interceptor{w: w, status: http.StatusOK, limit: limit}
}

// Header returns the underlying header map.
func (i *Interceptor) Header() http.Header {
	return i.w.Header()
}

// WriteHeader records the status and forwards it exactly once.
func (i *Interceptor) WriteHeader(status int) {
	if i.wroteHeader {
		return
	}
	i.wroteHeader = true
	i.status = status
	i.w.WriteHeader(status)
}

// Write forwards the bytes to the client and retains a bounded copy.
func (i *Interceptor) Write(p []byte) (int, error) {
	if !i.wroteHeader {
		i.WriteHeader(http.StatusOK)
	}
	if room := i.limit - i.buf.Len(); room > 0 {
		if len(p) <= room {
			i.buf.Write(p)
		} else {
			i.buf.Write(p[:room])
		}
	}
	n, err := i.w.Write(p)
	i.written += int64(n)
	return n, err
}

// Flush forwards to the underlying writer when it supports streaming.
func (i *Interceptor) Flush() {
	if f, ok := i.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Status returns the status delivered to the client, defaulting to 200
// when the handler never set one.
func (i *Interceptor) Status() int { return i.status }

// Committed reports whether the handler sent anything at all.
func (i *Interceptor) Committed() bool { return i.wroteHeader }

// BytesWritten returns how many body bytes reached the client.
func (i *Interceptor) BytesWritten() int64 { return i.written }

// Body returns the retained copy of the response body.
func (i *Interceptor) Body() []byte { return i.buf.Bytes() }

// Truncated reports whether the body exceeded the capture limit, in which
// case Body holds only a prefix and validation is skipped.
func (i *Interceptor) Truncated() bool { return i.written > int64(i.buf.Len()) }
