package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.LoggingConfig
		level     logrus.Level
		formatter logrus.Formatter
	}{
		{"json default", domain.LoggingConfig{Level: "info", Format: "json"}, logrus.InfoLevel, &logrus.JSONFormatter{}},
		{"text debug", domain.LoggingConfig{Level: "debug", Format: "text"}, logrus.DebugLevel, &logrus.TextFormatter{}},
		{"unknown level", domain.LoggingConfig{Level: "chatty"}, logrus.InfoLevel, &logrus.JSONFormatter{}},
		{"upper case format", domain.LoggingConfig{Level: "warn", Format: "TEXT", Output: "stderr"}, logrus.WarnLevel, &logrus.TextFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel())
			assert.IsType(t, tt.formatter, logger.Formatter)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "menta.log")

	logger, err := New(domain.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	logger.WithField("instrument_id", "phq-9").Info("Instrument scored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "Instrument scored", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "phq-9", entry["instrument_id"])
}

func TestNew_BadFileOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := New(domain.LoggingConfig{Output: filepath.Join(blocker, "menta.log")})
	assert.Error(t, err)
}

func TestRedactHook(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(NewRedactHook())

	logger.WithFields(logrus.Fields{
		"instrument_id": "gad-7",
		"answers":       []int{3, 3, 3},
		"Raw_Answers":   []int{1},
		"api_token":     "abc",
		"answered":      3,
	}).Info("Answers submitted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, Redacted, entry["answers"])
	assert.Equal(t, Redacted, entry["Raw_Answers"])
	assert.Equal(t, Redacted, entry["api_token"])
	assert.EqualValues(t, 3, entry["answered"])
	assert.Equal(t, "gad-7", entry["instrument_id"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error("dropped") })
}
