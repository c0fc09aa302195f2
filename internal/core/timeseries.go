package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidInput, s)
	}
	return g, nil
}

// BucketStart truncates t to the UTC start of its bucket. Weeks start on
// Monday, following ISO-8601.
func BucketStart(t time.Time, g Granularity) time.Time {
	u := t.UTC()
	y, m, d := u.Date()
	switch g {
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// BucketLabel formats a bucket start: 2024-01-15, 2024-W03 or 2024-01.
func BucketLabel(start time.Time, g Granularity) string {
	switch g {
	case Monthly:
		return start.Format("2006-01")
	case Weekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return start.Format("2006-01-02")
	}
}

// Bucketize sums emissions per time bucket. Buckets with no activities are
// omitted and the result is ascending by start.
func Bucketize(activities []Activity, g Granularity) ([]Bucket, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: unknown granularity %q", ErrInvalidInput, string(g))
	}

	out := []Bucket{}
	index := make(map[int64]int)
	for _, a := range activities {
		start := BucketStart(a.Date, g)
		key := start.Unix()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Bucket{Label: BucketLabel(start, g), Start: start})
		}
		out[i].Emissions += a.Emissions
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}
