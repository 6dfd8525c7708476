package lgr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(newTraceHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: replaceAttr,
	})))
}

func TestTraceHandlerAddsSpanContext(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:  trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["trace_id"] != sc.TraceID().String() {
		t.Errorf("trace_id = %v", rec["trace_id"])
	}
	if rec["span_id"] != sc.SpanID().String() {
		t.Errorf("span_id = %v", rec["span_id"])
	}
}

func TestTraceHandlerWithoutSpanContext(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).Info("plain")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("unexpected trace_id in %s", buf.String())
	}
}

func TestErrorsAreExpanded(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).Error("failed", slog.Any("error", Errorf("boom %d", 7)))

	var rec struct {
		Error struct {
			Msg   string       `json:"msg"`
			Trace []stackFrame `json:"trace"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Error.Msg != "boom 7" {
		t.Errorf("msg = %q", rec.Error.Msg)
	}
	if len(rec.Error.Trace) == 0 {
		t.Errorf("expected a stack trace")
	}
}

func TestPlainErrorHasNoTrace(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).Error("failed", slog.Any("error", errors.New("plain")))

	if strings.Contains(buf.String(), `"trace"`) {
		t.Errorf("unexpected trace in %s", buf.String())
	}
}

func TestFanoutWritesToAll(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(fanout{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	})

	logger.Info("info only")
	logger.Error("both")

	if !strings.Contains(a.String(), "info only") || !strings.Contains(a.String(), "both") {
		t.Errorf("first handler got %q", a.String())
	}
	if strings.Contains(b.String(), "info only") || !strings.Contains(b.String(), "both") {
		t.Errorf("second handler got %q", b.String())
	}
}
