package dispatch

// timeline tracks the planned usable battery content (Wh stored above the
// floor) at the end of every step in the window. Charging at step i raises
// the level from i onward; discharging at step d lowers it from d onward.
// This makes both causality (stored energy cannot be used before it exists)
// and capacity commitments explicit: a charge must fit under the usable
// capacity at every later step, a discharge must leave every later step
// non-negative.
type timeline struct {
	levels []float64
	usable float64
}

func newTimeline(steps int, usableWh, startWh float64) *timeline {
	if startWh < 0 {
		startWh = 0
	}
	if startWh > usableWh {
		startWh = usableWh
	}
	levels := make([]float64, steps)
	for i := range levels {
		levels[i] = startWh
	}
	return &timeline{levels: levels, usable: usableWh}
}

// headroomFrom is the largest stored amount that can be added at step i
// without exceeding usable capacity at any step from i to the window end.
func (t *timeline) headroomFrom(i int) float64 {
	min := t.usable - t.levels[i]
	for j := i + 1; j < len(t.levels); j++ {
		if h := t.usable - t.levels[j]; h < min {
			min = h
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// availableFrom is the largest stored amount that can be withdrawn at step i
// without going negative at any step from i to the window end.
func (t *timeline) availableFrom(i int) float64 {
	min := t.levels[i]
	for j := i + 1; j < len(t.levels); j++ {
		if t.levels[j] < min {
			min = t.levels[j]
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func (t *timeline) charge(i int, storedWh float64) {
	for j := i; j < len(t.levels); j++ {
		t.levels[j] += storedWh
	}
}

func (t *timeline) discharge(i int, storedWh float64) {
	for j := i; j < len(t.levels); j++ {
		t.levels[j] -= storedWh
	}
}
