package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}
}

func TestWithContextExtractsIDs(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, ProjectIDKey, "proj-456")

	log.WithContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-123") {
		t.Errorf("output missing request_id: %s", out)
	}
	if !strings.Contains(out, "project_id=proj-456") {
		t.Errorf("output missing project_id: %s", out)
	}
}

func TestWithContextEmpty(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.WithContext(context.Background()).Info("hello")

	out := buf.String()
	if strings.Contains(out, "request_id") || strings.Contains(out, "project_id") {
		t.Errorf("unexpected context fields: %s", out)
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.WithRequestID("req-789").Info("hello")

	if !strings.Contains(buf.String(), "request_id=req-789") {
		t.Errorf("output missing request_id: %s", buf.String())
	}
}
