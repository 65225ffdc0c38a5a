package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/growcam/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.InputDir = "/cfg/in"
	cfg.Timelapse.FPS = 24

	req := buildRequest(timelapseCmd, cfg)
	assert.Equal(t, "/cfg/in", req.InputDir)
	assert.Equal(t, 24, req.FPS)
	assert.False(t, req.AllFrames)

	f := timelapseCmd.Flags()
	require.NoError(t, f.Set("input", "/flag/in"))
	require.NoError(t, f.Set("fps", "10"))
	require.NoError(t, f.Set("all", "true"))
	require.NoError(t, f.Set("date", "20240101"))

	req = buildRequest(timelapseCmd, cfg)
	assert.Equal(t, "/flag/in", req.InputDir)
	assert.Equal(t, 10, req.FPS)
	assert.True(t, req.AllFrames)
	assert.Equal(t, "20240101", req.Filter.Date)
	assert.Equal(t, cfg.OutputDir, req.OutputDir)
}

func TestCommandErrorsAreNotPrintedByCobra(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "growcam.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("fps: 15\n"), 0644))

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"config", "init", existing})
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.True(t, rootCmd.SilenceErrors)
	assert.Empty(t, stderr.String())
}
