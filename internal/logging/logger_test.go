package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
)

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	entry := newWithOutput(config.LogConfig{Level: "debug", Format: "json"}, "test", &buf)

	entry.WithField("user_id", "u-1").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "plant-disease-monitor", line["service"])
	assert.Equal(t, "test", line["environment"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, logrus.DebugLevel, entry.Logger.GetLevel())
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	entry := newWithOutput(config.LogConfig{Level: "loud", Format: "text"}, "dev", &buf)
	assert.Equal(t, logrus.InfoLevel, entry.Logger.GetLevel())
}
