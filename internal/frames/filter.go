package frames

import (
	"fmt"
	"strconv"
	"time"
)

// Mode identifies which date filter is active.
type Mode int

const (
	ModeNone Mode = iota
	ModeStart
	ModeEnd
	ModeRange
	ModeDay
	ModeLookback
)

func (m Mode) String() string {
	switch m {
	case ModeStart:
		return "start"
	case ModeEnd:
		return "end"
	case ModeRange:
		return "range"
	case ModeDay:
		return "day"
	case ModeLookback:
		return "lookback"
	default:
		return "none"
	}
}

// Filter is the user-facing date selection. Dates are YYYYMMDD strings;
// empty means unset. Days selects the N days before today.
type Filter struct {
	Start string
	End   string
	Date  string
	Days  int
}

// Criteria is a validated Filter. From and To are YYYYMMDD integers and
// both bounds are inclusive; zero means unbounded.
type Criteria struct {
	Mode Mode
	From int
	To   int
	Days int
}

// Resolve validates the filter combination and computes inclusive bounds.
// now anchors the lookback window.
func (f Filter) Resolve(now time.Time) (Criteria, error) {
	if f.Date != "" && (f.Start != "" || f.End != "" || f.Days != 0) {
		return Criteria{}, fmt.Errorf("%w: a single date cannot be combined with start/end dates or a day count", ErrInvalidFilterCombination)
	}
	if f.Days != 0 && (f.Start != "" || f.End != "") {
		return Criteria{}, fmt.Errorf("%w: a day count cannot be combined with start/end dates", ErrInvalidFilterCombination)
	}

	switch {
	case f.Date != "":
		d, err := parseDate(f.Date)
		if err != nil {
			return Criteria{}, err
		}
		return Criteria{Mode: ModeDay, From: d, To: d}, nil

	case f.Days != 0:
		if f.Days < 0 {
			return Criteria{}, fmt.Errorf("%w: day count must be positive, got %d", ErrInvalidDate, f.Days)
		}
		from := dateInt(now.AddDate(0, 0, -f.Days))
		to := dateInt(now.AddDate(0, 0, -1))
		return Criteria{Mode: ModeLookback, From: from, To: to, Days: f.Days}, nil
	}

	var c Criteria
	if f.Start != "" {
		d, err := parseDate(f.Start)
		if err != nil {
			return Criteria{}, err
		}
		c.From = d
		c.Mode = ModeStart
	}
	if f.End != "" {
		d, err := parseDate(f.End)
		if err != nil {
			return Criteria{}, err
		}
		c.To = d
		if c.Mode == ModeStart {
			c.Mode = ModeRange
		} else {
			c.Mode = ModeEnd
		}
	}

	if c.Mode == ModeRange && c.From > c.To {
		return Criteria{}, fmt.Errorf("%w: %d > %d", ErrInvalidDateRange, c.From, c.To)
	}

	return c, nil
}

// Match reports whether a YYYYMMDD date falls inside the criteria.
func (c Criteria) Match(date int) bool {
	if c.From != 0 && date < c.From {
		return false
	}
	if c.To != 0 && date > c.To {
		return false
	}
	return true
}

// Apply returns the records whose date matches, preserving order.
func (c Criteria) Apply(records []Record) []Record {
	if c.Mode == ModeNone {
		return records
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if c.Match(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

func parseDate(s string) (int, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q (want YYYYMMDD)", ErrInvalidDate, s)
	}
	return dateInt(t), nil
}

func dateInt(t time.Time) int {
	d, _ := strconv.Atoi(t.Format(dateLayout))
	return d
}
