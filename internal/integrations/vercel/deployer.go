// Package vercel publishes a small marks lookup API through the vercel CLI.
package vercel

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"docqa/internal/config"
)

//go:embed bundle/index.go.tmpl bundle/vercel.json
var bundleFS embed.FS

var (
	ErrNoDeploymentURL = errors.New("no deployment url in vercel output")

	deploymentURLPattern = regexp.MustCompile(`https://[A-Za-z0-9][A-Za-z0-9.-]*\.vercel\.app`)
)

type Deployer struct {
	command string
	args    []string
	workDir string
	timeout time.Duration
}

func NewDeployer(cfg config.DeployConfig) *Deployer {
	return &Deployer{
		command: cfg.Command,
		args:    cfg.Args,
		workDir: cfg.WorkDir,
		timeout: cfg.DeployTimeout(),
	}
}

// Deploy publishes data (a JSON array of {"name","marks"} records, or empty)
// and returns the API URL of the deployment.
func (d *Deployer) Deploy(ctx context.Context, data []byte) (string, error) {
	dir, err := os.MkdirTemp(d.workDir, "vercel-bundle-")
	if err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := WriteBundle(dir, data); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, d.command, d.args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w: %s", d.command, err, bytes.TrimSpace(stderr.Bytes()))
	}

	url := ScrapeURL(stdout.String())
	if url == "" {
		url = ScrapeURL(stderr.String())
	}
	if url == "" {
		return "", ErrNoDeploymentURL
	}
	return url + "/api", nil
}

// WriteBundle lays out api/index.go, data.json and vercel.json under dir.
func WriteBundle(dir string, data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		data = []byte("[]")
	}
	if !json.Valid(data) {
		return errors.New("deployment data is not valid json")
	}

	index, err := bundleFS.ReadFile("bundle/index.go.tmpl")
	if err != nil {
		return err
	}
	routes, err := bundleFS.ReadFile("bundle/vercel.json")
	if err != nil {
		return err
	}
	files := map[string][]byte{
		filepath.Join("api", "index.go"):  index,
		filepath.Join("api", "data.json"): data,
		"data.json":                       data,
		"vercel.json":                     routes,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// ScrapeURL returns the first *.vercel.app URL in the CLI output.
func ScrapeURL(output string) string {
	return deploymentURLPattern.FindString(output)
}
