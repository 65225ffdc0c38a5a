package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keagan/growcam/internal/config"
	"github.com/keagan/growcam/internal/ffmpeg"
	"github.com/keagan/growcam/internal/frames"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder records calls and writes placeholder files
type fakeEncoder struct {
	sequences []ffmpeg.SequenceOptions
	concats   []ffmpeg.ConcatOptions
	failAt    int
	concatErr error
	// sizes maps a segment file name to the frame size its probe reports
	sizes map[string][2]int
}

func (f *fakeEncoder) EncodeSequence(_ context.Context, opts ffmpeg.SequenceOptions) error {
	f.sequences = append(f.sequences, opts)
	if f.failAt > 0 && len(f.sequences) == f.failAt {
		return errors.New("encoder exploded")
	}
	return os.WriteFile(opts.Output, []byte("segment"), 0644)
}

func (f *fakeEncoder) Concat(_ context.Context, opts ffmpeg.ConcatOptions) error {
	f.concats = append(f.concats, opts)
	for _, in := range opts.Inputs {
		if _, err := os.Stat(in); err != nil {
			return err
		}
	}
	if err := os.WriteFile(opts.Output, []byte("video"), 0644); err != nil {
		return err
	}
	return f.concatErr
}

func (f *fakeEncoder) ProbeVideo(_ context.Context, path string) (*ffmpeg.VideoInfo, error) {
	size := f.sizes[filepath.Base(path)]
	return &ffmpeg.VideoInfo{FilePath: path, Duration: 300 * time.Millisecond, Width: size[0], Height: size[1]}, nil
}

// fakeMeter returns brightness by file name
type fakeMeter map[string]float64

func (m fakeMeter) Mean(path string) (float64, error) {
	v, ok := m[filepath.Base(path)]
	if !ok {
		return 0, &frames.DecodeError{Path: path, Err: errors.New("corrupt")}
	}
	return v, nil
}

func touchFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}
}

func newTestPipeline(t *testing.T, enc Encoder, meter frames.Meter) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	p := NewWithEncoder(zerolog.Nop(), cfg, enc, meter)
	p.now = func() time.Time { return time.Date(2024, 1, 3, 8, 0, 0, 0, time.Local) }
	return p
}

func baseRequest(t *testing.T) Request {
	t.Helper()
	req := RequestFromConfig(config.Default())
	req.InputDir = t.TempDir()
	req.OutputDir = filepath.Join(t.TempDir(), "videos")
	return req
}

func TestAssembleSingleDayEndToEnd(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir,
		"growcam_20240101_0900.jpg",
		"growcam_20240101_0930.jpg",
		"growcam_20240101_1000.jpg",
		"growcam_20231231_1000.jpg",
	)
	req.Filter = frames.Filter{Date: "20240101"}
	req.FPS = 10
	req.AllFrames = true

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{})

	res, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(req.OutputDir, "timelapse_20240101.mp4"), res.Output)
	assert.FileExists(t, res.Output)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 4, res.Discovered)

	require.Len(t, res.Segments, 2)
	assert.Equal(t, 2, res.Segments[0].Len())
	assert.Equal(t, 1, res.Segments[1].Len())
	assert.Equal(t, "09", res.Segments[0].Hour())
	assert.Equal(t, "10", res.Segments[1].Hour())

	require.Len(t, enc.sequences, 2)
	assert.Equal(t, 10, enc.sequences[0].FPS)
	assert.Equal(t, []string{
		filepath.Join(req.InputDir, "growcam_20240101_0900.jpg"),
		filepath.Join(req.InputDir, "growcam_20240101_0930.jpg"),
	}, enc.sequences[0].Frames)
	require.Len(t, enc.sequences[0].Filters, 1)
	assert.Contains(t, enc.sequences[0].Filters[0], `2024/01/01 | 09\:00`)

	require.Len(t, enc.concats, 1)
	assert.Equal(t, res.Output, enc.concats[0].Output)
	assert.Equal(t, []string{enc.sequences[0].Output, enc.sequences[1].Output}, enc.concats[0].Inputs)
	assert.False(t, enc.concats[0].ReEncode)

	// scratch segments are gone once the run ends
	for _, s := range enc.sequences {
		assert.NoFileExists(t, s.Output)
	}
}

func TestAssembleBrightnessFilter(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir,
		"growcam_20240101_0100.jpg",
		"growcam_20240101_0900.jpg",
		"growcam_20240101_0901.jpg",
		"growcam_20240101_0902.jpg",
	)
	req.Threshold = 30

	meter := fakeMeter{
		"growcam_20240101_0100.jpg": 4,
		"growcam_20240101_0900.jpg": 30,
		"growcam_20240101_0901.jpg": 90,
	}
	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, meter)

	res, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Unreadable)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, filepath.Join(req.OutputDir, "timelapse_20240101-20240101.mp4"), res.Output)
}

func TestAssembleNoFramesMatched(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg", "growcam_20240102_0900.jpg")
	req.Filter = frames.Filter{Start: "20240201"}

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{})

	_, err := p.Assemble(context.Background(), req)
	assert.ErrorIs(t, err, frames.ErrNoFramesMatched)
	assert.Empty(t, enc.sequences)
	assert.NoDirExists(t, req.OutputDir)
}

func TestAssembleAllDark(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0200.jpg")

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{"growcam_20240101_0200.jpg": 1})

	_, err := p.Assemble(context.Background(), req)
	assert.ErrorIs(t, err, frames.ErrNoFramesMatched)
	assert.Empty(t, enc.sequences)
}

func TestAssembleEmptyInput(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "notes.txt")

	p := newTestPipeline(t, &fakeEncoder{}, fakeMeter{})

	_, err := p.Assemble(context.Background(), req)
	assert.ErrorIs(t, err, frames.ErrEmptyInput)
}

func TestAssembleInvalidFilterCombination(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg")
	req.Filter = frames.Filter{Date: "20240101", End: "20240102"}

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{})

	_, err := p.Assemble(context.Background(), req)
	assert.ErrorIs(t, err, frames.ErrInvalidFilterCombination)
	assert.Empty(t, enc.sequences)
	assert.NoDirExists(t, req.OutputDir)
}

func TestAssembleLookbackNaming(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir,
		"growcam_20231231_1200.jpg",
		"growcam_20240101_1200.jpg",
		"growcam_20240102_1200.jpg",
		"growcam_20240103_0700.jpg",
	)
	req.Filter = frames.Filter{Days: 2}
	req.AllFrames = true
	req.Format = "webm"

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{})

	res, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(req.OutputDir, "timelapse_2d.webm"), res.Output)
	assert.Equal(t, 2, res.Frames)
	assert.True(t, strings.HasSuffix(enc.sequences[0].Output, ".webm"))
}

func TestAssembleEncodeFailureLeavesNoOutput(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg", "growcam_20240101_1000.jpg")
	req.AllFrames = true

	enc := &fakeEncoder{failAt: 2}
	p := newTestPipeline(t, enc, fakeMeter{})

	_, err := p.Assemble(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 1")
	assert.Empty(t, enc.concats)

	entries, _ := os.ReadDir(req.OutputDir)
	assert.Empty(t, entries)
}

func TestAssembleConcatFailureRemovesOutput(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg")
	req.AllFrames = true

	enc := &fakeEncoder{concatErr: errors.New("disk full")}
	p := newTestPipeline(t, enc, fakeMeter{})

	_, err := p.Assemble(context.Background(), req)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(req.OutputDir, "timelapse_20240101-20240101.mp4"))
}

func TestAssembleReEncodesWhenFrameSizeChanges(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir,
		"growcam_20240101_0900.jpg",
		"growcam_20240101_1000.jpg",
		"growcam_20240101_1100.jpg",
	)
	req.AllFrames = true

	enc := &fakeEncoder{sizes: map[string][2]int{
		"segment_000.mp4": {640, 480},
		"segment_001.mp4": {640, 480},
		"segment_002.mp4": {1280, 720},
	}}
	p := newTestPipeline(t, enc, fakeMeter{})
	p.config.FFmpeg.CRF = 20
	p.config.FFmpeg.Preset = "fast"

	_, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, enc.concats, 1)
	c := enc.concats[0]
	assert.True(t, c.ReEncode)
	assert.Equal(t, 640, c.Width)
	assert.Equal(t, 480, c.Height)
	assert.Equal(t, 20, c.CRF)
	assert.Equal(t, "fast", c.Preset)
}

func TestAssembleFixedSizeSkipsSegmentProbes(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg", "growcam_20240101_1000.jpg")
	req.AllFrames = true

	enc := &fakeEncoder{sizes: map[string][2]int{
		"segment_000.mp4": {640, 480},
		"segment_001.mp4": {1280, 720},
	}}
	p := newTestPipeline(t, enc, fakeMeter{})
	p.config.FFmpeg.Width = 1280
	p.config.FFmpeg.Height = 720

	_, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, enc.concats, 1)
	assert.False(t, enc.concats[0].ReEncode)
}

func TestAssembleOverlayDisabled(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg")
	req.AllFrames = true

	enc := &fakeEncoder{}
	p := newTestPipeline(t, enc, fakeMeter{})
	p.config.Overlay.Enabled = false

	_, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, enc.sequences, 1)
	assert.Empty(t, enc.sequences[0].Filters)
}

func TestAssembleRejectsBadRequests(t *testing.T) {
	p := newTestPipeline(t, &fakeEncoder{}, fakeMeter{})
	ctx := context.Background()

	cases := map[string]func(*Request){
		"no input":      func(r *Request) { r.InputDir = "" },
		"no output":     func(r *Request) { r.OutputDir = "" },
		"zero fps":      func(r *Request) { r.FPS = 0 },
		"threshold":     func(r *Request) { r.Threshold = 300 },
		"format":        func(r *Request) { r.Format = "avi" },
		"format absent": func(r *Request) { r.Format = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := baseRequest(t)
			mutate(&req)
			_, err := p.Assemble(ctx, req)
			assert.Error(t, err)
		})
	}
}

func TestAssembleLogsUnreadableFrames(t *testing.T) {
	req := baseRequest(t)
	touchFrames(t, req.InputDir, "growcam_20240101_0900.jpg", "growcam_20240101_0901.jpg")

	var buf bytes.Buffer
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	p := NewWithEncoder(zerolog.New(&buf), cfg, &fakeEncoder{}, fakeMeter{"growcam_20240101_0900.jpg": 200})

	res, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unreadable)
	assert.Contains(t, buf.String(), "growcam_20240101_0901.jpg")
	assert.Contains(t, buf.String(), `"run":"`)
}

func TestOutputName(t *testing.T) {
	rs := make([]frames.Record, 0, 2)
	for _, n := range []string{"g_20240105_0900.jpg", "g_20240109_1800.jpg"} {
		r, err := frames.ParseName(n)
		require.NoError(t, err)
		rs = append(rs, r)
	}

	cases := []struct {
		criteria frames.Criteria
		want     string
	}{
		{frames.Criteria{Mode: frames.ModeNone}, "timelapse_20240105-20240109.mp4"},
		{frames.Criteria{Mode: frames.ModeDay, From: 20240105, To: 20240105}, "timelapse_20240105.mp4"},
		{frames.Criteria{Mode: frames.ModeLookback, Days: 7}, "timelapse_7d.mp4"},
		{frames.Criteria{Mode: frames.ModeRange, From: 20240101, To: 20240110}, "timelapse_20240101-20240110.mp4"},
		{frames.Criteria{Mode: frames.ModeStart, From: 20240102}, "timelapse_20240102-20240109.mp4"},
		{frames.Criteria{Mode: frames.ModeEnd, To: 20240131}, "timelapse_20240105-20240131.mp4"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OutputName("timelapse", tc.criteria, rs, "mp4"))
	}
	assert.Equal(t, "timelapse_7d.webm", OutputName("", frames.Criteria{Mode: frames.ModeLookback, Days: 7}, rs, "webm"))
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: apt install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: apt install ffmpeg")
	}
}

func TestIntegration_AssembleWithFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	req := baseRequest(t)
	for i, hhmm := range []string{"0900", "0930", "1000"} {
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		for y := 0; y < 48; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, color.RGBA{uint8(80 + 40*i), 120, 90, 255})
			}
		}
		f, err := os.Create(filepath.Join(req.InputDir, fmt.Sprintf("growcam_20240101_%s.png", hhmm)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		f.Close()
	}
	req.Filter = frames.Filter{Date: "20240101"}
	req.FPS = 10

	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	// drawtext needs a font; keep the integration run independent of fontconfig
	cfg.Overlay.Enabled = false

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	p, err := New(logger, cfg)
	require.NoError(t, err)

	res, err := p.Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.FileExists(t, res.Output)
	require.NotNil(t, res.Video)
	assert.Equal(t, 64, res.Video.Width)
	assert.False(t, res.Video.HasAudio)
	require.Len(t, res.Segments, 2)
}
