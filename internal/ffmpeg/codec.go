package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Codec describes how a container is encoded. Audio is never written.
type Codec struct {
	Name        string
	PixelFormat string
	faststart   bool
	constantQ   bool
}

// CodecFor picks the video codec from the output file extension.
func CodecFor(output string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".mp4", ".m4v", ".mov":
		return Codec{Name: "libx264", PixelFormat: DefaultPixelFormat, faststart: true}, nil
	case ".mkv":
		return Codec{Name: "libx264", PixelFormat: DefaultPixelFormat}, nil
	case ".webm":
		return Codec{Name: "libvpx-vp9", PixelFormat: DefaultPixelFormat, constantQ: true}, nil
	default:
		return Codec{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(output))
	}
}

// Args returns the encoder arguments for the given quality settings.
func (c Codec) Args(crf int, preset string) []string {
	if crf == 0 {
		crf = DefaultCRF
	}

	args := []string{"-c:v", c.Name, "-crf", fmt.Sprintf("%d", crf)}

	if c.constantQ {
		// libvpx only honours -crf as a quality target with a zero bitrate
		args = append(args, "-b:v", "0")
	} else {
		if preset == "" {
			preset = DefaultPreset
		}
		args = append(args, "-preset", preset)
	}

	if c.faststart {
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, "-an")
}
