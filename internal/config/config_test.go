package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "lab-ta-runner", cfg.Sandbox.Image)
	assert.Equal(t, int64(256*1024*1024), cfg.Sandbox.MemoryBytes)
	assert.Equal(t, 0.5, cfg.Sandbox.CPUs)
	assert.Equal(t, "/app", cfg.Sandbox.MountPath)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.False(t, cfg.Analyzer.OverrideRuntime)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labta.yaml")
	content := "sandbox:\n  image: custom-runner\n  timeout: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-runner", cfg.Sandbox.Image)
	assert.Equal(t, 2*time.Second, cfg.GetSandboxTimeout())
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "/app", cfg.Sandbox.MountPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LABTA_ADDR", ":9999")
	t.Setenv("LABTA_SANDBOX_IMAGE", "other-image")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "other-image", cfg.Sandbox.Image)
}

func TestTimeoutAccessors_BadValuesFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox.Timeout = "not-a-duration"
	cfg.LLM.Timeout = ""

	assert.Equal(t, 5*time.Second, cfg.GetSandboxTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())
}

func TestDataFilePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/labta-data"

	assert.Equal(t, "/tmp/labta-data/problems.json", cfg.ProblemsFile())
	assert.Equal(t, "/tmp/labta-data/sessions.json", cfg.SessionsFile())

	files := cfg.KnowledgeFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "/tmp/labta-data/error_dictionary.json", files[0])
	assert.Equal(t, "/tmp/labta-data/lab_manual_index.json", files[1])
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "labta.yaml")

	cfg := DefaultConfig()
	cfg.Sandbox.Image = "roundtrip-image"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip-image", loaded.Sandbox.Image)
}
