package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJSONDefault(t *testing.T) {
	var buf bytes.Buffer
	l := build(&buf, "", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.WithField("session_id", "s1").Info("interview started")
	l.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "interview started", line["msg"])
	assert.Equal(t, "s1", line["session_id"])
}

func TestBuildLevelsAndText(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, build(&bytes.Buffer{}, in, "").GetLevel(), in)
	}

	var buf bytes.Buffer
	build(&buf, "info", "text").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
