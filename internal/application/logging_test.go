package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/event-planner/internal/catalog"
	"github.com/example/event-planner/internal/logging"
	"github.com/example/event-planner/internal/persistence"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{fmt.Errorf("lookup: %w", ErrNotFound), "not_found"},
		{ErrInvalidCredentials, "invalid_credentials"},
		{ErrUnsupportedFormat, "unsupported_format"},
		{fmt.Errorf("selection: persist: %w", persistence.ErrLocked), "storage_locked"},
		{&ValidationError{FieldErrors: map[string]string{"mode": "bad"}}, "validation"},
		{&catalog.LoadError{Problems: []string{"duplicate id"}}, "catalog_invalid"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tc := range tests {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)))

	serviceLogger(ctx, baseLogger, "PlannerService", "AddEvent", "event_id", "tn-1").InfoContext(ctx, "event added")
	if base.Len() != 0 {
		t.Fatalf("expected base logger to stay silent, got %q", base.String())
	}
	for _, want := range []string{`"service":"PlannerService"`, `"operation":"AddEvent"`, `"event_id":"tn-1"`} {
		if !strings.Contains(scoped.String(), want) {
			t.Fatalf("expected %s in %q", want, scoped.String())
		}
	}
}
