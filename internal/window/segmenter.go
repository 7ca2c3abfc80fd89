// Package window partitions a reading series into fixed-duration,
// non-overlapping optimization windows.
package window

import (
	"errors"
	"fmt"
	"time"

	"battery-savings/internal/model"
)

// ErrEmptyRange is returned when clipping to [start, end] leaves no readings.
var ErrEmptyRange = errors.New("no readings in the requested time range")

// Window is one contiguous slice of the clipped series. Readings is a
// subslice of the segmenter's backing series; callers must not mutate it.
type Window struct {
	Index    int
	Readings []model.Reading
}

// Segmenter emits consecutive windows of at most Duration each, in timestamp
// order, the last one possibly shorter. It is restartable via Reset.
type Segmenter struct {
	readings []model.Reading
	duration time.Duration

	pos   int
	index int
}

// New clips the series to [start, end] (inclusive, zero times meaning
// unbounded) and prepares window iteration. The series must already be
// sorted by timestamp.
func New(readings []model.Reading, start, end time.Time, durationMinutes int) (*Segmenter, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("window duration must be > 0 minutes, got %d", durationMinutes)
	}
	clipped := clip(readings, start, end)
	if len(clipped) == 0 {
		return nil, ErrEmptyRange
	}
	return &Segmenter{
		readings: clipped,
		duration: time.Duration(durationMinutes) * time.Minute,
	}, nil
}

// Readings exposes the full clipped series, e.g. for duration inference.
func (s *Segmenter) Readings() []model.Reading { return s.readings }

// Next returns the next window, or ok=false when the series is exhausted.
func (s *Segmenter) Next() (Window, bool) {
	if s.pos >= len(s.readings) {
		return Window{}, false
	}
	boundary := s.readings[s.pos].Timestamp.Add(s.duration)
	end := s.pos + 1
	for end < len(s.readings) && s.readings[end].Timestamp.Before(boundary) {
		end++
	}
	w := Window{Index: s.index, Readings: s.readings[s.pos:end]}
	s.pos = end
	s.index++
	return w, true
}

// Reset rewinds the segmenter to the first window.
func (s *Segmenter) Reset() {
	s.pos = 0
	s.index = 0
}

func clip(readings []model.Reading, start, end time.Time) []model.Reading {
	lo := 0
	hi := len(readings)
	if !start.IsZero() {
		for lo < hi && readings[lo].Timestamp.Before(start) {
			lo++
		}
	}
	if !end.IsZero() {
		for hi > lo && readings[hi-1].Timestamp.After(end) {
			hi--
		}
	}
	return readings[lo:hi]
}
