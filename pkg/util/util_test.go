package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00.000", FormatDuration(0))
	assert.Equal(t, "01:02:03.500", FormatDuration(time.Hour+2*time.Minute+3500*time.Millisecond))
}

func TestClipDuration(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, ClipDuration(3, 15))
	assert.Equal(t, 2*time.Second, ClipDuration(30, 15))
	assert.Equal(t, time.Duration(0), ClipDuration(3, 0))
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 15.0, ParseFrameRate("15/1"))
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.001)
	assert.Equal(t, 0.0, ParseFrameRate("0/0"))
	assert.Equal(t, 0.0, ParseFrameRate("abc"))
}

func TestFileHelpers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, FileExists(dir))

	f := filepath.Join(dir, "x.mp4")
	require.NoError(t, os.WriteFile(f, nil, 0644))
	CleanupFiles(f, filepath.Join(dir, "missing"))
	assert.False(t, FileExists(f))
}
