package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runConfig(t *testing.T, path string, args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	args = append(args, "--config", path)
	code := run(context.Background(), args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replisync", "config.yaml")

	code, out, errOut := runConfig(t, path, "config", "set", "replicas.max_virtual", "10")
	assert.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Configuration set: replicas.max_virtual = 10")

	code, out, _ = runConfig(t, path, "config", "get", "replicas.max_virtual")
	assert.Equal(t, 0, code)
	assert.Equal(t, "replicas.max_virtual = 10\n", out)

	code, out, _ = runConfig(t, path, "config", "set", "algolia.api_key", "topsecret")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "****cret")
	assert.NotContains(t, out, "topsecret")

	code, out, _ = runConfig(t, path, "config", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "  replicas.max_virtual = 10\n")
	assert.Contains(t, out, "  algolia.api_key = ****cret\n")

	code, _, _ = runConfig(t, path, "config", "delete", "replicas.max_virtual")
	assert.Equal(t, 0, code)

	code, out, _ = runConfig(t, path, "config", "get", "replicas.max_virtual")
	assert.Equal(t, 0, code)
	assert.Equal(t, "replicas.max_virtual = 20\n", out)

	code, _, errOut = runConfig(t, path, "config", "delete", "replicas.max_virtual")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "is not set")
}

func TestConfigSetRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, _, errOut := runConfig(t, path, "config", "set", "replicas.max_virtual", "500")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error setting configuration")

	code, _, errOut = runConfig(t, path, "config", "set", "algolia.unknown", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown config key")
}

func TestInitializationFailureIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algolia: [unclosed\n"), 0o600))

	code, out, errOut := runConfig(t, path, "stores", "list")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `msg="Failed to initialize application"`)
	assert.Contains(t, errOut, "Error:")
}

func TestFlattenConfigMap(t *testing.T) {
	nested := map[string]interface{}{
		"algolia": map[string]interface{}{
			"application_id": "APP",
			"max_retries":    3,
		},
		"replicas": map[string]interface{}{
			"max_virtual": 20,
		},
	}

	assert.Equal(t, map[string]interface{}{
		"algolia.application_id": "APP",
		"algolia.max_retries":    3,
		"replicas.max_virtual":   20,
	}, flattenConfigMap(nested))
}

func TestIsEmptySetting(t *testing.T) {
	assert.True(t, isEmptySetting(nil))
	assert.True(t, isEmptySetting(""))
	assert.True(t, isEmptySetting([]string{}))
	assert.True(t, isEmptySetting([]interface{}{}))
	assert.False(t, isEmptySetting(0))
	assert.False(t, isEmptySetting("x"))
}
