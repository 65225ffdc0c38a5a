package clips

import (
	"fmt"

	"github.com/keagan/growcam/internal/frames"
)

// Segment is a run of consecutive frames captured within the same hour of
// the same day. It is rendered as one sub-clip of the timelapse.
type Segment struct {
	Index  int
	Frames []frames.Record
	Label  string
}

// Len returns the number of frames in the segment
func (s Segment) Len() int {
	return len(s.Frames)
}

// First returns the earliest frame
func (s Segment) First() frames.Record {
	return s.Frames[0]
}

// Last returns the latest frame
func (s Segment) Last() frames.Record {
	return s.Frames[len(s.Frames)-1]
}

// Hour returns the shared two-digit hour of the segment
func (s Segment) Hour() string {
	return s.First().Hour
}

// Paths returns the frame file paths in order
func (s Segment) Paths() []string {
	paths := make([]string, len(s.Frames))
	for i, f := range s.Frames {
		paths[i] = f.Path
	}
	return paths
}

// Label formats the overlay caption for a frame, e.g. "2024/01/01 | 09:00".
func Label(r frames.Record) string {
	return fmt.Sprintf("%s | %s:00", r.Time.Format("2006/01/02"), r.Hour)
}

// Split walks chronologically sorted records and closes a segment every time
// the date or hour changes. The trailing segment is closed at end of input.
func Split(records []frames.Record) []Segment {
	var (
		segments []Segment
		current  []frames.Record
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, Segment{
			Index:  len(segments),
			Frames: current,
			Label:  Label(current[len(current)-1]),
		})
		current = nil
	}

	for _, r := range records {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if prev.Date != r.Date || prev.Hour != r.Hour {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()

	return segments
}

// FrameCount sums the frames across segments
func FrameCount(segments []Segment) int {
	n := 0
	for _, s := range segments {
		n += s.Len()
	}
	return n
}
