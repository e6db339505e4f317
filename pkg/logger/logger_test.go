package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "chatty"})
	require.Error(t, err)
}

func TestJSONOutputCarriesModule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: &buf}))

	NewLogger("fetch").Component("downloader").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "fetch", line["module"])
	assert.Equal(t, "downloader", line["component"])
}

func TestFileOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "fillfetch.log")
	require.NoError(t, Init(Config{Level: "info", Format: "text", File: path, Output: &buf}))

	NewLogger("test").Infof("written to %s", "both")

	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), "written to both")
}
