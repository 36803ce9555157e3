package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	err := errors.NewValidationError("k", "must be in [2, n]", 1)
	logger.Error("fold construction failed", ErrAttr(err))

	var record map[string]interface{}
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if _, ok := record[ErrAttrKey]; !ok {
		t.Error("error attribute missing from record")
	}
	if _, ok := record[StacktraceAttrKey]; !ok {
		t.Error("stacktrace attribute missing from record")
	}
}

func TestErrFmtHandlerPassthrough(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	logger.Info("plain message", SamplesKey, 100)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if record["msg"] != "plain message" {
		t.Errorf("unexpected message: %v", record["msg"])
	}
	if _, ok := record[StacktraceAttrKey]; ok {
		t.Error("stacktrace should not be added without an error attribute")
	}
}

func TestToLogLevel(t *testing.T) {
	if ToLogLevel("debug") != slog.LevelDebug {
		t.Error("debug level mismatch")
	}
	if ToLogLevel("warn") != slog.LevelWarn {
		t.Error("warn level mismatch")
	}
}

func TestHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	opts := slog.HandlerOptions{Level: slog.LevelWarn}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, &opts))

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
