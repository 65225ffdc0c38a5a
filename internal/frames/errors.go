package frames

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput means the input directory held no jpg/jpeg/png files.
	ErrEmptyInput = errors.New("input directory contains no jpg or png files")

	// ErrInvalidFilterCombination means mutually exclusive date filters were
	// supplied together.
	ErrInvalidFilterCombination = errors.New("incompatible date filters")

	// ErrInvalidDate means a filter date is not a valid YYYYMMDD value.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidDateRange means the start date lies after the end date.
	ErrInvalidDateRange = errors.New("start date is after end date")

	// ErrNoFramesMatched means every candidate was removed by filtering.
	ErrNoFramesMatched = errors.New("no frames matched the filters")

	// ErrMalformedName means an image file name does not follow
	// <prefix>_<YYYYMMDD>_<HHMM>.<ext>.
	ErrMalformedName = errors.New("malformed image file name")

	// ErrImageDecode is wrapped by every DecodeError.
	ErrImageDecode = errors.New("image decode failed")
)

// NameError reports a file whose name could not be parsed.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrMalformedName, e.Name, e.Reason)
}

func (e *NameError) Unwrap() error { return ErrMalformedName }

// DecodeError reports a frame that could not be opened or decoded. It is
// recoverable: the frame is skipped.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrImageDecode, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrImageDecode, e.Err} }
