package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/keagan/growcam/internal/config"
	"github.com/keagan/growcam/internal/frames"
	"github.com/keagan/growcam/internal/logging"
	"github.com/keagan/growcam/internal/pipeline"
	"github.com/keagan/growcam/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile   string
	verbose   bool
	logCloser io.Closer
)

func main() {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("growcam failed")
	}
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "growcam",
	Short:         "growcam - grow room camera tooling",
	Long:          "Builds timelapse videos from the grow room camera archive.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Initialize logging
		closer, err := logging.Init(verbose, cfg.LogFile)
		if err != nil {
			log.Warn().Err(err).Msg("logging to console only")
		}
		logCloser = closer

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./growcam.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(timelapseCmd)
	rootCmd.AddCommand(configCmd)
}

var timelapseFlags struct {
	input     string
	output    string
	start     string
	end       string
	date      string
	days      int
	fps       int
	threshold float64
	all       bool
	format    string
}

var timelapseCmd = &cobra.Command{
	Use:   "timelapse",
	Short: "Create a timelapse video from archived frames (jpg or png)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		req := buildRequest(cmd, cfg)

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return fmt.Errorf("cannot start timelapse: %w", err)
		}

		result, err := pipe.Assemble(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("timelapse failed: %w", err)
		}

		logger := logging.WithComponent("cli")
		logger.Info().
			Str("output", result.Output).
			Int("frames", result.Frames).
			Int("segments", len(result.Segments)).
			Int("dark", result.Rejected).
			Int("unreadable", result.Unreadable).
			Msg("finished")

		return nil
	},
}

// buildRequest starts from config and lets explicitly set flags win
func buildRequest(cmd *cobra.Command, cfg *config.Config) pipeline.Request {
	req := pipeline.RequestFromConfig(cfg)
	flags := cmd.Flags()

	if flags.Changed("input") {
		req.InputDir = timelapseFlags.input
	} else {
		log.Debug().Str("input", req.InputDir).Msg("no input directory specified, using configured default")
	}
	if flags.Changed("output") {
		req.OutputDir = timelapseFlags.output
	} else {
		log.Debug().Str("output", req.OutputDir).Msg("no output directory specified, using configured default")
	}
	if flags.Changed("fps") {
		req.FPS = timelapseFlags.fps
	}
	if flags.Changed("threshold") {
		req.Threshold = timelapseFlags.threshold
	}
	if flags.Changed("all") {
		req.AllFrames = timelapseFlags.all
	}
	if flags.Changed("format") {
		req.Format = timelapseFlags.format
	}

	req.Filter = frames.Filter{
		Start: timelapseFlags.start,
		End:   timelapseFlags.end,
		Date:  timelapseFlags.date,
		Days:  timelapseFlags.days,
	}

	return req
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./growcam.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		logger := logging.WithComponent("cli")
		logger.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	f := timelapseCmd.Flags()
	f.StringVarP(&timelapseFlags.input, "input", "i", "", "input directory (images)")
	f.StringVarP(&timelapseFlags.output, "output", "o", "", "output directory (resulting videos)")
	f.StringVarP(&timelapseFlags.start, "start", "s", "", "start date (YYYYMMDD, inclusive)")
	f.StringVarP(&timelapseFlags.end, "end", "e", "", "end date (YYYYMMDD, inclusive)")
	f.StringVarP(&timelapseFlags.date, "date", "x", "", "timelapse for a single date (YYYYMMDD)")
	f.IntVarP(&timelapseFlags.days, "days", "d", 0, "timelapse for the given number of days before today")
	f.IntVarP(&timelapseFlags.fps, "fps", "f", 15, "framerate (frames/s)")
	f.Float64VarP(&timelapseFlags.threshold, "threshold", "t", 30, "brightness filter threshold (0-255)")
	f.BoolVarP(&timelapseFlags.all, "all", "a", false, "use all frames (including dark images)")
	f.StringVar(&timelapseFlags.format, "format", "mp4", "output container (mp4, mkv, mov, webm)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
