package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden")
	Info("shown", "day", 2, "title", "stand up")
	Error("failed", errors.New("boom"), "id", "e1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown day=2 title=\"stand up\"")
	assert.Contains(t, out, "[ERROR] failed err=boom id=e1")

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("visible", "odd")
	assert.Contains(t, buf.String(), "[DEBUG] visible")
	assert.NotContains(t, buf.String(), "odd")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekgrid.log")
	closer := SetFile(path, 1, 1)
	t.Cleanup(func() {
		SetFile("", 0, 0)
	})

	Info("to file", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file k=v")
}
