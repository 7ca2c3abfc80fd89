package model

import "time"

// Reading is one time step of the input series.
//
// NetEnergyWh is signed: positive means local production exceeded consumption
// during the step ("surplus"), negative means consumption exceeded production
// ("deficit"). Prices are in currency per kWh and may be negative.
type Reading struct {
	Timestamp   time.Time
	NetEnergyWh float64
	ImportPrice float64
	ExportPrice float64
}

func (r Reading) IsSurplus() bool { return r.NetEnergyWh > 0 }
func (r Reading) IsDeficit() bool { return r.NetEnergyWh < 0 }

// MonthKey returns the calendar-month bucket key ("YYYY-MM") used for
// monthly sub-totals.
func (r Reading) MonthKey() string {
	return r.Timestamp.UTC().Format("2006-01")
}

// HourKey returns the hour bucket key used by the visualization trace,
// e.g. "2024-05-01T13:00:00Z".
func (r Reading) HourKey() string {
	return r.Timestamp.UTC().Truncate(time.Hour).Format("2006-01-02T15:04:05Z")
}

// StepDurations infers each step's duration from consecutive timestamps.
// The final step inherits the duration of the one before it; a single-element
// series defaults to one minute.
func StepDurations(readings []Reading) []time.Duration {
	durs := make([]time.Duration, len(readings))
	for i := 0; i < len(readings)-1; i++ {
		durs[i] = readings[i+1].Timestamp.Sub(readings[i].Timestamp)
	}
	if len(readings) == 1 {
		durs[0] = time.Minute
	} else if len(readings) > 1 {
		durs[len(readings)-1] = durs[len(readings)-2]
	}
	return durs
}
