package pipeline

import (
	"context"
	"time"

	"github.com/keagan/growcam/internal/clips"
	"github.com/keagan/growcam/internal/config"
	"github.com/keagan/growcam/internal/ffmpeg"
	"github.com/keagan/growcam/internal/frames"
)

// Encoder is the part of *ffmpeg.Executor the assembler drives
type Encoder interface {
	EncodeSequence(ctx context.Context, opts ffmpeg.SequenceOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Request describes one timelapse run
type Request struct {
	InputDir  string
	OutputDir string
	Filter    frames.Filter
	FPS       int
	Threshold float64
	// AllFrames skips brightness filtering
	AllFrames bool
	// Format is the output container extension without the dot
	Format string
}

// RequestFromConfig fills a request with configured defaults
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		FPS:       cfg.Timelapse.FPS,
		Threshold: cfg.Brightness.Threshold,
		AllFrames: !cfg.Brightness.Enabled,
		Format:    cfg.Timelapse.Format,
	}
}

// Result reports what a run produced
type Result struct {
	Output     string
	Criteria   frames.Criteria
	Segments   []clips.Segment
	Frames     int
	Discovered int
	Rejected   int
	Unreadable int
	Duration   time.Duration
	Video      *ffmpeg.VideoInfo
}
