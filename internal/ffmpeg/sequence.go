package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// EncodeSequence renders still images as a clip at opts.FPS, one image per
// frame, in the order given. The codec follows the output extension.
func (e *Executor) EncodeSequence(ctx context.Context, opts SequenceOptions) error {
	if err := validateSequenceOptions(opts); err != nil {
		return fmt.Errorf("invalid sequence options: %w", err)
	}

	codec, err := CodecFor(opts.Output)
	if err != nil {
		return err
	}

	e.logger.Info().
		Int("frames", len(opts.Frames)).
		Int("fps", opts.FPS).
		Str("output", opts.Output).
		Msg("encoding image sequence")

	frames := opts.Frames
	if mixedFormats(frames) {
		// the concat demuxer decodes every entry with the first file's codec
		stageDir, err := os.MkdirTemp(filepath.Dir(opts.Output), "frames-*")
		if err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer os.RemoveAll(stageDir)

		frames, err = stageFrames(frames, stageDir)
		if err != nil {
			return fmt.Errorf("failed to stage mixed-format frames: %w", err)
		}
		e.logger.Debug().
			Int("frames", len(frames)).
			Str("dir", stageDir).
			Msg("mixed image formats converted to png")
	}

	listFile, err := writeListFile("growcam-frames-*.txt", func(w *bufio.Writer) error {
		return writeFrameList(w, frames, opts.FPS)
	})
	if err != nil {
		return fmt.Errorf("failed to create frame list: %w", err)
	}
	defer os.Remove(listFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vf", buildSequenceFilters(opts, codec),
	}
	args = append(args, codec.Args(opts.CRF, opts.Preset)...)
	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("sequence output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("sequence encode failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("sequence encoded")
	return nil
}

// writeFrameList writes one concat entry per frame, each lasting 1/fps.
// The last frame is repeated because the demuxer drops the final duration.
func writeFrameList(w *bufio.Writer, frames []string, fps int) error {
	duration := 1.0 / float64(fps)

	for _, frame := range frames {
		if err := writeFileEntry(w, frame); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "duration %.6f\n", duration); err != nil {
			return err
		}
	}

	return writeFileEntry(w, frames[len(frames)-1])
}

// frameCodec names the decoder ffmpeg picks for an image file
func frameCodec(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpg" || ext == "jpeg" {
		return "mjpeg"
	}
	return ext
}

// mixedFormats reports whether frames need more than one image decoder
func mixedFormats(frames []string) bool {
	for _, f := range frames[1:] {
		if frameCodec(f) != frameCodec(frames[0]) {
			return true
		}
	}
	return false
}

// stageFrames re-encodes every frame as frame_NNNNNN.png in dir and returns
// the new paths in the same order.
func stageFrames(frames []string, dir string) ([]string, error) {
	staged := make([]string, len(frames))
	for i, src := range frames {
		dst := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", i))
		if err := convertPNG(src, dst); err != nil {
			return nil, err
		}
		staged[i] = dst
	}
	return staged, nil
}

func convertPNG(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return out.Close()
}

// buildSequenceFilters constructs the -vf chain for an image sequence
func buildSequenceFilters(opts SequenceOptions, codec Codec) string {
	fb := NewFilterBuilder()

	if opts.Width > 0 && opts.Height > 0 {
		fb.Scale(opts.Width, opts.Height)
	} else {
		fb.EvenDimensions()
	}

	return fb.
		Custom(opts.Filters...).
		FPS(float64(opts.FPS)).
		Format(codec.PixelFormat).
		Build()
}

// validateSequenceOptions validates the sequence options
func validateSequenceOptions(opts SequenceOptions) error {
	if len(opts.Frames) == 0 {
		return fmt.Errorf("no frames provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	if opts.CRF < 0 || opts.CRF > 63 {
		return fmt.Errorf("CRF must be between 0 and 63")
	}
	return nil
}
