package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()

	prevLevel := GetLevel()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(l)

	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prevLevel)
	})
	return buf
}

func TestWithFields_WritesStructuredLine(t *testing.T) {
	buf := captureLogs(t, LevelDebug)

	WithFields(Fields{"session_id": "s1", "message_count": 2}).
		WithError(errors.New("boom")).
		Debug("Messages retrieved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "s1", line["session_id"])
	assert.Equal(t, float64(2), line["message_count"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "Messages retrieved", line["message"])
}

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	buf := captureLogs(t, LevelWarn)

	Info("hidden")
	Debugf("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "shown 2")
}

func TestEntry_FieldsDoNotLeakBetweenCopies(t *testing.T) {
	parent := WithField("a", 1)
	child := parent.WithField("b", 2)

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"TRACE", LevelTrace},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelDisabled},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
