package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/growcam/internal/clips"
	"github.com/keagan/growcam/internal/config"
	"github.com/keagan/growcam/internal/ffmpeg"
	"github.com/keagan/growcam/internal/frames"
	"github.com/keagan/growcam/internal/overlays"
	"github.com/keagan/growcam/pkg/util"
	"github.com/rs/zerolog"
)

// Pipeline assembles timelapse videos from archived frames
type Pipeline struct {
	logger  zerolog.Logger
	config  *config.Config
	encoder Encoder
	meter   frames.Meter
	now     func() time.Time
}

// New creates a pipeline backed by the ffmpeg binaries named in cfg
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return NewWithEncoder(logger, cfg, ffmpegExec, nil), nil
}

// NewWithEncoder creates a pipeline with explicit collaborators. A nil meter
// decodes frames from disk.
func NewWithEncoder(logger zerolog.Logger, cfg *config.Config, enc Encoder, meter frames.Meter) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if meter == nil {
		meter = frames.BrightnessMeter{SampleWidth: cfg.Brightness.SampleWidth}
	}

	return &Pipeline{
		logger:  logger.With().Str("component", "pipeline").Logger(),
		config:  cfg,
		encoder: enc,
		meter:   meter,
		now:     time.Now,
	}
}

// Assemble runs discovery, filtering, segmentation and encoding. Every
// fatal error is returned before the first encode starts, and the output
// file only appears once the final concat succeeds.
func (p *Pipeline) Assemble(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	format := strings.TrimPrefix(strings.ToLower(req.Format), ".")
	if _, err := ffmpeg.CodecFor("out." + format); err != nil {
		return nil, err
	}

	log := p.logger.With().Str("run", uuid.NewString()).Logger()

	log.Info().
		Str("input", req.InputDir).
		Str("output_dir", req.OutputDir).
		Int("fps", req.FPS).
		Msg("starting timelapse pipeline")

	// Stage 1: discovery
	records, err := frames.Discover(req.InputDir, p.config.Timelapse.StrictNames, log)
	if err != nil {
		return nil, err
	}

	// Stage 2: date filter
	criteria, err := req.Filter.Resolve(p.now())
	if err != nil {
		return nil, err
	}
	dated := criteria.Apply(records)

	log.Debug().
		Str("mode", criteria.Mode.String()).
		Int("from", criteria.From).
		Int("to", criteria.To).
		Int("matched", len(dated)).
		Msg("date filter applied")

	result := &Result{
		Criteria:   criteria,
		Discovered: len(records),
	}

	// Stage 3: brightness filter
	kept := dated
	if !req.AllFrames && len(dated) > 0 {
		report := frames.FilterBrightness(dated, p.meter, req.Threshold, log)
		kept = report.Kept
		result.Rejected = report.Rejected
		result.Unreadable = report.Unreadable
	}

	// Stage 4: nothing left
	if len(kept) == 0 {
		log.Error().
			Int("discovered", len(records)).
			Int("dated", len(dated)).
			Msg("zero results found within filters")
		return nil, fmt.Errorf("%w: %d discovered, %d within dates, %d dark, %d unreadable",
			frames.ErrNoFramesMatched, len(records), len(dated), result.Rejected, result.Unreadable)
	}

	// Stage 5: hourly segments
	segments := clips.Split(kept)
	result.Segments = segments
	result.Frames = clips.FrameCount(segments)

	log.Info().
		Int("frames", len(kept)).
		Int("segments", len(segments)).
		Msg("frames segmented")

	// Stage 6: encode and concatenate
	name := OutputName(p.config.Timelapse.Prefix, criteria, kept, format)
	output := filepath.Join(req.OutputDir, name)

	if err := p.render(ctx, log, segments, req.FPS, format, output); err != nil {
		return nil, err
	}

	result.Output = output
	result.Duration = util.ClipDuration(result.Frames, req.FPS)

	if info, err := p.encoder.ProbeVideo(ctx, output); err != nil {
		log.Warn().Err(err).Str("output", output).Msg("could not probe finished video")
	} else {
		result.Video = info
		result.Duration = info.Duration
	}

	log.Info().
		Str("output", output).
		Str("duration", util.FormatDuration(result.Duration)).
		Int("segments", len(segments)).
		Msg("timelapse pipeline complete")

	return result, nil
}

// render encodes each segment into a scratch directory, then concatenates
// them into output.
func (p *Pipeline) render(ctx context.Context, log zerolog.Logger, segments []clips.Segment, fps int, format, output string) error {
	if err := util.EnsureDir(filepath.Dir(output)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(p.config.TempDir, "growcam-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	style := overlays.StyleFromConfig(p.config.Overlay)
	parts := make([]string, 0, len(segments))

	for _, seg := range segments {
		part := filepath.Join(workDir, fmt.Sprintf("segment_%03d.%s", seg.Index, format))

		var filters []string
		if p.config.Overlay.Enabled {
			filters = append(filters, overlays.Caption{Text: seg.Label, Style: style}.Filter())
		}

		log.Debug().
			Int("segment", seg.Index).
			Str("label", seg.Label).
			Int("frames", seg.Len()).
			Msg("encoding segment")

		err := p.encoder.EncodeSequence(ctx, ffmpeg.SequenceOptions{
			Frames:  seg.Paths(),
			FPS:     fps,
			Output:  part,
			Filters: filters,
			Width:   p.config.FFmpeg.Width,
			Height:  p.config.FFmpeg.Height,
			CRF:     p.config.FFmpeg.CRF,
			Preset:  p.config.FFmpeg.Preset,
			ProgressFunc: func(pr *ffmpeg.Progress) {
				log.Trace().Int("segment", seg.Index).Int("frame", pr.Frame).Msg("encoding")
			},
		})
		if err != nil {
			return fmt.Errorf("failed to encode segment %d (%s): %w", seg.Index, seg.Label, err)
		}

		parts = append(parts, part)
	}

	err = p.encoder.Concat(ctx, p.concatOptions(ctx, log, parts, output))
	if err != nil {
		util.CleanupFiles(output)
		return fmt.Errorf("failed to write timelapse: %w", err)
	}

	return nil
}

// concatOptions stream-copies the segments unless the camera resolution
// changed between them, in which case everything is re-encoded at the size
// of the first segment.
func (p *Pipeline) concatOptions(ctx context.Context, log zerolog.Logger, parts []string, output string) ffmpeg.ConcatOptions {
	opts := ffmpeg.ConcatOptions{
		Inputs: parts,
		Output: output,
	}

	if len(parts) < 2 || (p.config.FFmpeg.Width > 0 && p.config.FFmpeg.Height > 0) {
		return opts
	}

	var width, height int
	for i, part := range parts {
		info, err := p.encoder.ProbeVideo(ctx, part)
		if err != nil {
			log.Warn().Err(err).Str("segment", part).Msg("could not probe segment, assuming uniform size")
			return opts
		}
		if i == 0 {
			width, height = info.Width, info.Height
			continue
		}
		if info.Width != width || info.Height != height {
			log.Info().
				Str("segment", filepath.Base(part)).
				Str("size", fmt.Sprintf("%dx%d", info.Width, info.Height)).
				Str("target", fmt.Sprintf("%dx%d", width, height)).
				Msg("frame size changed between segments, re-encoding")
			opts.ReEncode = true
		}
	}

	if opts.ReEncode {
		opts.Width = width
		opts.Height = height
		opts.CRF = p.config.FFmpeg.CRF
		opts.Preset = p.config.FFmpeg.Preset
	}

	return opts
}

func validateRequest(req Request) error {
	if req.InputDir == "" {
		return fmt.Errorf("input directory cannot be empty")
	}
	if req.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if req.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", req.FPS)
	}
	if req.Threshold < 0 || req.Threshold > 255 {
		return fmt.Errorf("brightness threshold must be within 0-255, got %.1f", req.Threshold)
	}
	if req.Format == "" {
		return fmt.Errorf("output format cannot be empty")
	}
	return nil
}
