package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepDurations(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	readings := []Reading{
		{Timestamp: base},
		{Timestamp: base.Add(time.Minute)},
		{Timestamp: base.Add(2 * time.Minute)},
		{Timestamp: base.Add(7 * time.Minute)}, // last step inherits the 5m gap before it
	}
	durs := StepDurations(readings)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute, 5 * time.Minute, 5 * time.Minute}, durs)
}

func TestStepDurationsSingle(t *testing.T) {
	durs := StepDurations([]Reading{{Timestamp: time.Now()}})
	assert.Equal(t, []time.Duration{time.Minute}, durs)
}

func TestReadingKeys(t *testing.T) {
	r := Reading{Timestamp: time.Date(2024, 5, 1, 13, 42, 7, 0, time.UTC)}
	assert.Equal(t, "2024-05", r.MonthKey())
	assert.Equal(t, "2024-05-01T13:00:00Z", r.HourKey())
}

func TestOccupancyFromLevel(t *testing.T) {
	p := BatteryParams{CapacityWh: 1000, MinLevelFraction: 0.1}
	assert.Equal(t, OccupancyFull, OccupancyFromLevel(1000, p))
	assert.Equal(t, OccupancyEmpty, OccupancyFromLevel(100, p))
	assert.Equal(t, OccupancyPartial, OccupancyFromLevel(500, p))
}
