package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := "app:\n  name: orders-api\n  version: v2.0.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestValidateOpenAPIOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       OpenAPIOptions
		wantOutput string
		wantErr    bool
	}{
		{name: "yaml", opts: OpenAPIOptions{OutputFile: "out.yaml", Format: "yaml"}, wantOutput: "out.yaml"},
		{name: "yml alias", opts: OpenAPIOptions{OutputFile: "out", Format: "yml"}, wantOutput: "out.yaml"},
		{name: "json adds extension", opts: OpenAPIOptions{OutputFile: "out", Format: "json"}, wantOutput: "out.json"},
		{name: "unsupported", opts: OpenAPIOptions{OutputFile: "out", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := validateOpenAPIOptions(&opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, opts.OutputFile)
		})
	}
}

func TestOpenAPICommandWritesYAML(t *testing.T) {
	dir := writeConfig(t)
	out := filepath.Join(t.TempDir(), "docs", "openapi.yaml")

	cmd := NewRootCommand("test")
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"openapi", "-c", dir, "-o", out})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), out)

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		OpenAPI string         `yaml:"openapi"`
		Info    map[string]any `yaml:"info"`
		Paths   map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(content, &doc))
	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "orders-api", doc.Info["title"])
	assert.Equal(t, "v2.0.0", doc.Info["version"])
	assert.Contains(t, doc.Paths, "/orders/{id}")
	assert.Contains(t, doc.Paths, "/orders/{id}/attachments")
}

func TestOpenAPICommandWritesJSON(t *testing.T) {
	dir := writeConfig(t)
	out := filepath.Join(t.TempDir(), "openapi.json")

	cmd := NewRootCommand("test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"openapi", "-c", dir, "-o", out, "-f", "json"})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(content, &doc))
	assert.Contains(t, doc["paths"], "/orders")
}

func TestOpenAPICommandRejectsMissingConfigDir(t *testing.T) {
	cmd := NewRootCommand("test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"openapi", "-c", filepath.Join(t.TempDir(), "missing"), "-o", filepath.Join(t.TempDir(), "x.yaml")})
	assert.ErrorContains(t, cmd.Execute(), "config directory")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "go-params version 1.2.3")
	assert.Contains(t, stdout.String(), "OpenAPI specification version: 3.1.0")
}
