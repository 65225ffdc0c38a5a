package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Discover lists the image files in dir and parses their names. With strict
// set, a non-conforming image name aborts discovery; otherwise it is logged
// and skipped. The result is sorted chronologically.
func Discover(dir string, strict bool, logger zerolog.Logger) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var (
		records    []Record
		candidates int
	)

	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		candidates++

		rec, err := ParseName(entry.Name())
		if err != nil {
			var nameErr *NameError
			if strict || !errors.As(err, &nameErr) {
				return nil, err
			}
			logger.Warn().Err(err).Msg("skipping image with unparseable name")
			continue
		}

		rec.Path = filepath.Join(dir, entry.Name())
		records = append(records, rec)
	}

	if candidates == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, dir)
	}

	SortRecords(records)

	logger.Debug().
		Str("dir", dir).
		Int("images", len(records)).
		Msg("discovered images")

	return records, nil
}
