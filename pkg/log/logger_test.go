package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/YuminosukeSato/lifeboat/pkg/errors"
)

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		lvl, err := ToLogLevel(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, lvl)
	}

	_, err := ToLogLevel("loud")
	assert.Error(t, err)
}

func TestSetupLoggerWritesJSONAtLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info"))

	slog.Debug("filtered out")
	slog.Info("run started", "seed", 42)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "run started", rec["msg"])
	assert.Equal(t, float64(42), rec["seed"])
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetupLogger(&buf, "loud"))
}

func TestStackHandlerAttachesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStackHandler(slog.NewJSONHandler(&buf, nil)))

	err := pkgerrors.NewNotFittedError("Pipeline", "Transform")
	logger.Error("fit required", ErrAttr(err))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	stack, ok := rec[StacktraceAttrKey].(string)
	require.True(t, ok, "record has no %s attribute", StacktraceAttrKey)
	assert.NotEmpty(t, stack)
}

func TestStackHandlerLeavesPlainRecordsAlone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStackHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("no error here", "rows", 891)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, ok := rec[StacktraceAttrKey]
	assert.False(t, ok)
}
