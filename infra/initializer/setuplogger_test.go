package initializer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Log{Format: "json", Level: 0, Prefix: "[test]"}, &buf)
	logger.Info("deposit allocated", "user_id", "u-1")
	logger.Debug("hidden at info level")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "deposit allocated", line["msg"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Same(t, logger, slog.Default())
}

func TestSetupLogger_UnknownFormatFallsBackToText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Log{Format: "xml"}, &buf)
	logger.Warn("bill skipped", "bill_id", "b-1")
	assert.Contains(t, buf.String(), "bill skipped")
	assert.Contains(t, buf.String(), "b-1")
}
