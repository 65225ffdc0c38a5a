// Package frames turns a directory of captured stills into filtered,
// chronologically ordered records ready for timelapse assembly.
package frames

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout  = "20060102"
	stampLayout = "20060102_1504"
)

var namePattern = regexp.MustCompile(`^(.+)_(\d{8})_(\d{4})\.([A-Za-z]+)$`)

// Record is one captured image, identified by the timestamp in its name.
type Record struct {
	Name   string
	Path   string
	Prefix string
	Ext    string
	Time   time.Time
	Date   int    // YYYYMMDD
	Hour   string // "00".."23"
}

// DateString returns the record date as YYYYMMDD.
func (r Record) DateString() string {
	return r.Time.Format(dateLayout)
}

// IsImage reports whether name carries one of the accepted image extensions.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// ParseName parses a file name of the form <prefix>_<YYYYMMDD>_<HHMM>.<ext>.
func ParseName(name string) (Record, error) {
	if !IsImage(name) {
		return Record{}, &NameError{Name: name, Reason: "unsupported extension"}
	}

	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Record{}, &NameError{Name: name, Reason: "expected <prefix>_<YYYYMMDD>_<HHMM>.<ext>"}
	}

	ts, err := time.ParseInLocation(stampLayout, m[2]+"_"+m[3], time.UTC)
	if err != nil {
		return Record{}, &NameError{Name: name, Reason: fmt.Sprintf("bad timestamp: %v", err)}
	}

	date, _ := strconv.Atoi(m[2])

	return Record{
		Name:   name,
		Prefix: m[1],
		Ext:    strings.ToLower(m[4]),
		Time:   ts,
		Date:   date,
		Hour:   m[3][:2],
	}, nil
}

// SortRecords orders records by capture time, then by name.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Time.Equal(records[j].Time) {
			return records[i].Time.Before(records[j].Time)
		}
		return records[i].Name < records[j].Name
	})
}
