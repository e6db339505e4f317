package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jar = []byte("velocity proxy jar")

func fakeIndex(t *testing.T) *httptest.Server {
	t.Helper()
	return slowFakeIndex(t, 0)
}

// slowFakeIndex answers index calls at once and stalls jar downloads by delay.
func slowFakeIndex(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	sum := sha256.Sum256(jar)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/projects/velocity", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "fillfetch/test")
		fmt.Fprint(w, `{"project":{"id":"velocity"},"versions":{"3.0.0":["3.4.0-SNAPSHOT","3.3.0-SNAPSHOT"]}}`)
	})
	mux.HandleFunc("/projects/velocity/versions/3.4.0-SNAPSHOT/builds", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"id":7,"channel":"STABLE","time":"2025-01-02T03:04:05Z","downloads":{"server:default":{"name":"velocity-3.4.0-SNAPSHOT-7.jar","url":"%s/jar","size":%d,"checksums":{"sha256":"%s"}}}}]`,
			srv.URL, len(jar), hex.EncodeToString(sum[:]))
	})
	mux.HandleFunc("/jar", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		_, _ = w.Write(jar)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with a config pointing at baseURL.
func execute(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	return executeWithConfig(t, fmt.Sprintf("api:\n  base_url: %s\n", baseURL), args...)
}

func executeWithConfig(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fillfetch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(config), 0o644))

	cfgFile, outputDir, artifact, noVerify, allowUnverified, logLevel, logFormat = "", "", "", false, false, "", ""
	resolveOutput = "yaml"
	Version = "test"

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	t.Cleanup(func() { RootCmd.SetArgs(nil) })

	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	srv := fakeIndex(t)
	dir := t.TempDir()

	out, err := execute(t, srv.URL, "velocity", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved latest velocity version: 3.4.0-SNAPSHOT")
	assert.Contains(t, out, "Resolved latest build: 7 (STABLE)")

	got, err := os.ReadFile(filepath.Join(dir, "velocity-3.4.0-SNAPSHOT-7.jar"))
	require.NoError(t, err)
	assert.Equal(t, jar, got)
}

func TestFetchDownloadOutlivesIndexTimeout(t *testing.T) {
	srv := slowFakeIndex(t, 500*time.Millisecond)
	dir := t.TempDir()

	config := fmt.Sprintf("api:\n  base_url: %s\n  timeout: 200ms\n", srv.URL)
	_, err := executeWithConfig(t, config, "velocity", "--dir", dir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "velocity-3.4.0-SNAPSHOT-7.jar"))
	require.NoError(t, err)
	assert.Equal(t, jar, got)
}

func TestFetchHonoursDownloadTimeout(t *testing.T) {
	srv := slowFakeIndex(t, 500*time.Millisecond)

	config := fmt.Sprintf("api:\n  base_url: %s\ndownload:\n  timeout: 100ms\n", srv.URL)
	_, err := executeWithConfig(t, config, "velocity", "--dir", t.TempDir())
	require.Error(t, err)
	assert.True(t, errdefs.IsNetwork(err))
}

func TestFetchRejectsUnknownProject(t *testing.T) {
	srv := fakeIndex(t)

	_, err := execute(t, srv.URL, "spigot")
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
	assert.Equal(t, 1, errdefs.ExitCode(err))
}

func TestFetchRejectsBadBuild(t *testing.T) {
	srv := fakeIndex(t)

	_, err := execute(t, srv.URL, "velocity", "3.4.0-SNAPSHOT", "seven")
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestResolveCommandPrintsYAML(t *testing.T) {
	srv := fakeIndex(t)

	out, err := execute(t, srv.URL, "resolve", "velocity", "3.4.0-SNAPSHOT")
	require.NoError(t, err)
	assert.Contains(t, out, "build: 7")
	assert.Contains(t, out, "name: velocity-3.4.0-SNAPSHOT-7.jar")
}

func TestListCommand(t *testing.T) {
	srv := fakeIndex(t)

	out, err := execute(t, srv.URL, "list", "velocity")
	require.NoError(t, err)
	assert.Contains(t, out, "GROUP")
	assert.Contains(t, out, "3.4.0-SNAPSHOT, 3.3.0-SNAPSHOT")

	out, err = execute(t, srv.URL, "list", "velocity", "3.4.0-SNAPSHOT")
	require.NoError(t, err)
	assert.Contains(t, out, "velocity-3.4.0-SNAPSHOT-7.jar")
	assert.Contains(t, out, "2025-01-02 03:04")
}
