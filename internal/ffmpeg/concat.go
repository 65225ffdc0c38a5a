package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs   []string
	Output   string
	ReEncode bool
	CRF      int
	Preset   string
	// Width and Height scale re-encoded output to a single frame size
	Width        int
	Height       int
	ProgressFunc ProgressFunc
}

// Concat merges multiple video files into one. Inputs must share codec
// parameters unless ReEncode is set.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating videos")

	concatFile, err := writeListFile("growcam-concat-*.txt", func(w *bufio.Writer) error {
		for _, input := range opts.Inputs {
			if err := writeFileEntry(w, input); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	args, err := buildConcatArgs(opts, concatFile)
	if err != nil {
		return err
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("concatenating")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("concat complete")
	return nil
}

func buildConcatArgs(opts ConcatOptions, listFile string) ([]string, error) {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}

	if opts.ReEncode {
		codec, err := CodecFor(opts.Output)
		if err != nil {
			return nil, err
		}
		vf := NewFilterBuilder().
			Scale(opts.Width, opts.Height).
			Format(codec.PixelFormat).
			Build()
		args = append(args, "-vf", vf)
		args = append(args, codec.Args(opts.CRF, opts.Preset)...)
	} else {
		args = append(args, "-c", "copy", "-an")
	}

	return append(args, opts.Output), nil
}

// writeListFile creates a temporary ffconcat script filled in by fill.
func writeListFile(pattern string, fill func(w *bufio.Writer) error) (string, error) {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	w := bufio.NewWriter(tmpFile)
	if _, err := w.WriteString("ffconcat version 1.0\n"); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	if err := fill(w); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	if err := w.Flush(); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}

	return tmpFile.Name(), nil
}

func writeFileEntry(w *bufio.Writer, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "file %s\n", quoteConcatPath(absPath))
	return err
}

// quoteConcatPath quotes a path for the concat demuxer, which closes the
// quote, emits an escaped quote and reopens for each embedded apostrophe.
func quoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
