package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	log := newLogger(&buf, false)
	log.Debug("hidden")
	log.Info("shown", "store", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "store=1")

	buf.Reset()
	log = newLogger(&buf, true)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestDebugFromEnv(t *testing.T) {
	for _, v := range []string{"1", "true", "yes"} {
		t.Setenv(DebugEnv, v)
		assert.True(t, debugFromEnv(), v)
	}

	t.Setenv(DebugEnv, "")
	assert.False(t, debugFromEnv())
}
