package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	logger := New()

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNew_WithOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithLevel(logrus.WarnLevel))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "time=", "timestamps are disabled")
}

func TestNew_WithFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithFormatter(&logrus.JSONFormatter{}))

	logger.Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
}
