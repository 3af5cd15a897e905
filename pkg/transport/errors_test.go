package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/richieat/richieat/pkg/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		errType    api.ErrorType
		wantStatus int
	}{
		{api.ErrorTypeValidation, http.StatusBadRequest},
		{api.ErrorTypeUnauthorized, http.StatusUnauthorized},
		{api.ErrorTypeForbidden, http.StatusForbidden},
		{api.ErrorTypeNotFound, http.StatusNotFound},
		{api.ErrorTypeConflict, http.StatusConflict},
		{api.ErrorTypePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{api.ErrorTypeUnsupportedMedia, http.StatusUnsupportedMediaType},
		{api.ErrorTypeServerError, http.StatusInternalServerError},
		{api.ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			got := HTTPStatusFromError(&api.APIError{Type: tt.errType, Message: "test"})
			if got != tt.wantStatus {
				t.Errorf("HTTPStatusFromError(%q) = %d, want %d", tt.errType, got, tt.wantStatus)
			}
		})
	}
}

// serveError runs err through the error handler inside the request ID stage.
func serveError(eh *ErrorHandler, err error) (*httptest.ResponseRecorder, api.ErrorResponse) {
	h := RequestID()(Handle(eh, func(w http.ResponseWriter, r *http.Request) error {
		return err
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	var body api.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	return rec, body
}

func TestErrorHandler_APIError(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), false)
	wrapped := fmt.Errorf("handler: %w", api.NewConflictError(api.CodeDuplicateEmail, "Email already registered"))

	rec, body := serveError(eh, wrapped)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if body.Success || body.Code != api.CodeDuplicateEmail || body.Message != "Email already registered" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.RequestID == "" || body.RequestID != rec.Header().Get(RequestIDHeader) {
		t.Errorf("requestId %q does not match header %q", body.RequestID, rec.Header().Get(RequestIDHeader))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestErrorHandler_UnexpectedErrorHiddenInProduction(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), false)

	rec, body := serveError(eh, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if body.Message != "Internal server error" || body.Detail != "" {
		t.Errorf("production must not leak detail: %+v", body)
	}
	if body.RequestID == "" {
		t.Error("requestId missing")
	}
}

func TestErrorHandler_UnexpectedErrorShownInDevelopment(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), true)

	_, body := serveError(eh, errors.New("pq: connection refused"))

	if body.Message != "pq: connection refused" || body.Detail != "pq: connection refused" {
		t.Errorf("development should expose the message: %+v", body)
	}
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), false)
	h := Recovery(eh)(RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body api.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if body.RequestID == "" || body.RequestID != rec.Header().Get(RequestIDHeader) {
		t.Errorf("requestId %q should match header %q", body.RequestID, rec.Header().Get(RequestIDHeader))
	}
	if body.Message != "Internal server error" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRecovery_AfterWriteKeepsResponse(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), false)
	h := Recovery(eh)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
		t.Errorf("got %d %q, want the partial response untouched", rec.Code, rec.Body.String())
	}
}

func TestRecovery_AbortHandlerReraised(t *testing.T) {
	eh := NewErrorHandler(discardLogger(), false)
	h := Recovery(eh)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestRecovery_PanicStillLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p, err := NewStandardPipeline(StandardConfig{
		Logger:       logger,
		ErrorHandler: NewErrorHandler(discardLogger(), false),
	})
	if err != nil {
		t.Fatal(err)
	}
	h := p.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/clients", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	out := buf.String()
	for _, want := range []string{
		"request completed",
		"status=500",
		"panicked=true",
		"request_id=" + rec.Header().Get(RequestIDHeader),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %q: %s", want, out)
		}
	}
}

func TestSecurityLog_SeesStatusOfPanickingRequest(t *testing.T) {
	f := newSecurityFixture(1, time.Minute)
	eh := NewErrorHandler(discardLogger(), false)
	h := Recovery(eh)(f.log.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		panic("after deny")
	})))

	req := httptest.NewRequest("GET", "/api/auth/profile", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := f.log.Failures(remoteHost(req.RemoteAddr)); got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}
