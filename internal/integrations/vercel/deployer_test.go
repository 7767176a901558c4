package vercel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
)

func TestScrapeURL(t *testing.T) {
	out := "Vercel CLI 39.1.0\n🔍  Inspect: https://vercel.com/team/app/abc [2s]\n✅  Production: https://marks-api-x1y2.vercel.app [4s]\n"
	assert.Equal(t, "https://marks-api-x1y2.vercel.app", ScrapeURL(out))
	assert.Equal(t, "", ScrapeURL("Error: not authenticated"))
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBundle(dir, []byte(`[{"name":"a","marks":10}]`)))

	for _, name := range []string{"api/index.go", "api/data.json", "data.json", "vercel.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	data, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"a","marks":10}]`, string(data))

	index, err := os.ReadFile(filepath.Join(dir, "api", "index.go"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "func Handler(w http.ResponseWriter, r *http.Request)")
}

func TestWriteBundleDefaultsAndValidation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBundle(dir, nil))
	data, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	assert.Error(t, WriteBundle(t.TempDir(), []byte("{oops")))
}

func fakeCLI(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script CLI stub needs a unix shell")
	}
	path := filepath.Join(t.TempDir(), "vercel")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestDeploy(t *testing.T) {
	cli := fakeCLI(t, `test -f vercel.json || exit 3
echo "Deploying..."
echo "Production: https://marks-abc.vercel.app [3s]"`)
	d := NewDeployer(config.DeployConfig{Command: cli, Args: []string{"--prod", "--yes"}, WorkDir: t.TempDir(), Timeout: 10})

	url, err := d.Deploy(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, "https://marks-abc.vercel.app/api", url)
}

func TestDeployWithoutURL(t *testing.T) {
	cli := fakeCLI(t, `echo "nothing to see"`)
	d := NewDeployer(config.DeployConfig{Command: cli, WorkDir: t.TempDir()})

	_, err := d.Deploy(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoDeploymentURL))
}

func TestDeployCommandFailure(t *testing.T) {
	cli := fakeCLI(t, `echo "auth required" >&2; exit 1`)
	d := NewDeployer(config.DeployConfig{Command: cli, WorkDir: t.TempDir()})

	_, err := d.Deploy(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth required")
}

func TestDeployTimeout(t *testing.T) {
	cli := fakeCLI(t, `exec sleep 5`)
	d := NewDeployer(config.DeployConfig{Command: cli, WorkDir: t.TempDir()})
	d.timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := d.Deploy(context.Background(), nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewDeployerTimeout(t *testing.T) {
	assert.Equal(t, 7*time.Second, NewDeployer(config.DeployConfig{Command: "vercel", Timeout: 7}).timeout)
	assert.Equal(t, config.DefaultDeployTimeout, NewDeployer(config.DeployConfig{Command: "vercel"}).timeout)
}
