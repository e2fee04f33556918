package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		" warn ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"info":    logrus.InfoLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, GetLevel(in), "level %q", in)
	}
}

func TestSetup_File(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	base := filepath.Join(t.TempDir(), "repcoach")
	Setup(Params{Level: "debug", File: base, JSON: true})

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.WithField("kind", "curl").Debug("frame skipped")

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"frame skipped"`)
	assert.Contains(t, string(data), `"kind":"curl"`)
}

func TestSetup_Stdout(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	Setup(Params{Level: "error"})
	assert.Equal(t, logrus.ErrorLevel, logrus.GetLevel())
	assert.Equal(t, os.Stdout, logrus.StandardLogger().Out)
}
