package frames

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// BrightnessMeter measures the mean greyscale intensity of an image file.
type BrightnessMeter struct {
	// SampleWidth, when positive, downscales wider images to this width
	// before measuring.
	SampleWidth int
}

// Mean decodes path and returns its mean luma in 0-255. The file is closed
// before Mean returns. Failures come back as *DecodeError.
func (m BrightnessMeter) Mean(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}

	if m.SampleWidth > 0 && img.Bounds().Dx() > m.SampleWidth {
		img = resize.Resize(uint(m.SampleWidth), 0, img, resize.Bilinear)
	}

	return MeanLuma(img), nil
}

// MeanLuma returns the average ITU-R 601 luma of img.
func MeanLuma(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := float64(bounds.Dx() * bounds.Dy())
	if pixels == 0 {
		return 0
	}

	var sum float64
	switch src := img.(type) {
	case *image.YCbCr:
		// JPEG frames already carry luma in the Y plane
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += float64(src.Y[src.YOffset(x, y)])
			}
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += float64(src.GrayAt(x, y).Y)
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				sum += float64(g.Y)
			}
		}
	}

	return sum / pixels
}

// Meter is anything that can report a frame's mean brightness.
type Meter interface {
	Mean(path string) (float64, error)
}

// BrightnessReport summarises a brightness pass.
type BrightnessReport struct {
	Kept       []Record
	Rejected   int
	Unreadable int
}

// FilterBrightness keeps records whose mean brightness is at or above
// threshold. Unreadable frames are logged and dropped; they never abort the
// pass. Records are measured one at a time.
func FilterBrightness(records []Record, meter Meter, threshold float64, logger zerolog.Logger) BrightnessReport {
	report := BrightnessReport{Kept: make([]Record, 0, len(records))}

	for _, r := range records {
		mean, err := meter.Mean(r.Path)
		if err != nil {
			logger.Warn().Err(err).Str("frame", r.Name).Msg("bad image, skipping")
			report.Unreadable++
			continue
		}

		if mean < threshold {
			logger.Debug().
				Str("frame", r.Name).
				Float64("brightness", mean).
				Msg("frame below brightness threshold")
			report.Rejected++
			continue
		}

		report.Kept = append(report.Kept, r)
	}

	logger.Debug().
		Float64("threshold", threshold).
		Int("kept", len(report.Kept)).
		Int("rejected", report.Rejected).
		Int("unreadable", report.Unreadable).
		Msg("brightness filter applied")

	return report
}
