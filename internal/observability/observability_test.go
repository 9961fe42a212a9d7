package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/naydelinzavala7/back-login-mongo/internal/actorctx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"mongo duplicate key", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, "unique_violation"},
		{"pg unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"connection text", errors.New("connection refused"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestObserveDB_CountsErrors(t *testing.T) {
	p := NewProm(NewRegistry())

	_ = p.ObserveDB("users.insert", func() error { return nil })
	err := p.ObserveDB("users.insert", func() error { return &pgconn.PgError{Code: "23505"} })
	if err == nil {
		t.Fatalf("expected the wrapped error to be returned")
	}

	got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.insert", "unique_violation"))
	if got != 1 {
		t.Fatalf("errors_total = %v, want 1", got)
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.DebugContext(ctx, "hidden at info level")
	log.InfoContext(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if line["trace_id"] != traceID.String() {
		t.Fatalf("trace_id = %v, want %s", line["trace_id"], traceID)
	}
	if line["span_id"] != spanID.String() {
		t.Fatalf("span_id = %v, want %s", line["span_id"], spanID)
	}
}

func TestLogger_AddsUserIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUserID(context.Background(), "u1")

	log.InfoContext(ctx, "from service")
	log.InfoContext(ctx, "access log", "user_id", "u1")
	log.Info("no request context")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %s", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if first["user_id"] != "u1" {
		t.Fatalf("user_id = %v, want u1", first["user_id"])
	}

	if n := bytes.Count(lines[1], []byte(`"user_id"`)); n != 1 {
		t.Fatalf("user_id written %d times: %s", n, lines[1])
	}

	if bytes.Contains(lines[2], []byte("user_id")) {
		t.Fatalf("unexpected user_id without context: %s", lines[2])
	}
}

func TestObserveDB_NoMatchIsNotAnError(t *testing.T) {
	p := NewProm(NewRegistry())

	tests := []struct {
		op  string
		err error
	}{
		{op: "users.find_by_email", err: mongo.ErrNoDocuments},
		{op: "users.update", err: fmt.Errorf("decode: %w", mongo.ErrNoDocuments)},
		{op: "users.find_by_id", err: pgx.ErrNoRows},
	}

	for _, tt := range tests {
		err := p.ObserveDB(tt.op, func() error { return tt.err })
		if !errors.Is(err, tt.err) {
			t.Fatalf("%s: got %v, want the original error back", tt.op, err)
		}
	}

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("errors_total has %d series, want none", n)
	}
	if n := testutil.CollectAndCount(p.DbQueryDuration); n != len(tests) {
		t.Fatalf("query_duration has %d series, want %d", n, len(tests))
	}
}
