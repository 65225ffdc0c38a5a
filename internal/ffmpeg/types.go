package ffmpeg

import (
	"errors"
	"time"
)

// ErrUnsupportedFormat is returned for output extensions with no codec mapping.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Frames     int
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF         = 23
	DefaultPreset      = "medium"
	DefaultPixelFormat = "yuv420p"
)

// SequenceOptions configures encoding a list of still images into a clip.
type SequenceOptions struct {
	Frames       []string
	FPS          int
	Output       string
	Filters      []string
	Width        int
	Height       int
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)
