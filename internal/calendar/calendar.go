// Package calendar produces the trading days a backfill walks.
package calendar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"ashare/internal/provider"
)

// Weekdays returns every Monday to Friday between start and end inclusive.
func Weekdays(start, end time.Time) []time.Time {
	start, end = provider.Day(start), provider.Day(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// Parse reads one ISO date per line. Blank and malformed lines are skipped.
// The result is limited to [start, end], sorted and free of duplicates.
func Parse(r io.Reader, start, end time.Time) ([]time.Time, error) {
	start, end = provider.Day(start), provider.Day(end)
	seen := make(map[time.Time]struct{})
	var out []time.Time

	add := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			return
		}
		d, err := provider.ParseDay(line)
		if err != nil {
			return
		}
		if d.Before(start) || d.After(end) {
			return
		}
		if _, dup := seen[d]; dup {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}

	// ReadString has no line length cap, so an oversized line is just another
	// malformed line.
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		add(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read calendar: %w", err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// FromFile parses the calendar file at path.
func FromFile(path string, start, end time.Time) ([]time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, start, end)
}

// Load uses the calendar file when path names an existing file and falls
// back to Weekdays otherwise.
func Load(path string, start, end time.Time) ([]time.Time, error) {
	if path == "" {
		return Weekdays(start, end), nil
	}
	days, err := FromFile(path, start, end)
	if errors.Is(err, os.ErrNotExist) {
		return Weekdays(start, end), nil
	}
	return days, err
}

// shanghai is UTC+8 year-round; China observes no daylight saving.
var shanghai = time.FixedZone("CST", 8*60*60)

// Today returns the current trading-session date in Shanghai.
func Today() time.Time { return provider.Day(time.Now().In(shanghai)) }
