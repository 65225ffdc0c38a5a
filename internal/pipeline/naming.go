package pipeline

import (
	"fmt"
	"strconv"

	"github.com/keagan/growcam/internal/frames"
)

// OutputName derives the video file name from the active date filter.
// Explicit bounds win over the dates of the first and last surviving frames.
func OutputName(prefix string, c frames.Criteria, kept []frames.Record, format string) string {
	if prefix == "" {
		prefix = "timelapse"
	}

	switch c.Mode {
	case frames.ModeDay:
		return fmt.Sprintf("%s_%d.%s", prefix, c.From, format)
	case frames.ModeLookback:
		return fmt.Sprintf("%s_%dd.%s", prefix, c.Days, format)
	}

	var from, to string
	if len(kept) > 0 {
		from = kept[0].DateString()
		to = kept[len(kept)-1].DateString()
	}
	if c.From != 0 {
		from = strconv.Itoa(c.From)
	}
	if c.To != 0 {
		to = strconv.Itoa(c.To)
	}

	return fmt.Sprintf("%s_%s-%s.%s", prefix, from, to, format)
}
