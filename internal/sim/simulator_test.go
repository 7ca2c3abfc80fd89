package sim

import (
	"testing"
	"time"

	"battery-savings/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBattery(t *testing.T, params model.BatteryParams) *model.Battery {
	t.Helper()
	b, err := model.NewBattery(params)
	require.NoError(t, err)
	return b
}

func TestApplyStepChargeAndDischarge(t *testing.T) {
	params := model.BatteryParams{CapacityWh: 1000}
	s := NewSimulator(newTestBattery(t, params))

	res, err := s.ApplyStep(0, model.StepPlan{
		Reading: model.Reading{Timestamp: time.Now(), NetEnergyWh: 600},
		StoreWh: 600,
	})
	require.NoError(t, err)
	assert.InDelta(t, 600, res.StoredWh, 1e-9)
	assert.Zero(t, res.ForcedExportWh)
	assert.InDelta(t, 0, res.LevelStartWh, 1e-9)
	assert.InDelta(t, 600, res.LevelEndWh, 1e-9)
	assert.Equal(t, model.OccupancyPartial, res.Occupancy)

	res, err = s.ApplyStep(0, model.StepPlan{
		Reading:     model.Reading{Timestamp: time.Now(), NetEnergyWh: -400},
		DischargeWh: 400,
	})
	require.NoError(t, err)
	assert.InDelta(t, 400, res.DischargedWh, 1e-9)
	assert.Zero(t, res.ForcedImportWh)
	assert.InDelta(t, 200, res.LevelEndWh, 1e-9)
}

func TestApplyStepForcedExportWhenFull(t *testing.T) {
	params := model.BatteryParams{CapacityWh: 1000}
	batt := newTestBattery(t, params)
	batt.LevelWh = 900
	s := NewSimulator(batt)

	res, err := s.ApplyStep(3, model.StepPlan{
		Reading:  model.Reading{Timestamp: time.Now(), NetEnergyWh: 500},
		StoreWh:  300,
		ExportWh: 200,
	})
	require.NoError(t, err)
	// Only 100 Wh of headroom: the rest of the planned store spills to export.
	assert.InDelta(t, 100, res.StoredWh, 1e-9)
	assert.InDelta(t, 200, res.ForcedExportWh, 1e-9)
	assert.InDelta(t, 400, res.ExportWh, 1e-9)
	assert.Equal(t, model.OccupancyFull, res.Occupancy)
}

func TestApplyStepForcedImportWhenEmpty(t *testing.T) {
	params := model.BatteryParams{CapacityWh: 1000, MinLevelFraction: 0.1}
	batt := newTestBattery(t, params)
	batt.LevelWh = 300 // 200 Wh above the floor
	s := NewSimulator(batt)

	res, err := s.ApplyStep(0, model.StepPlan{
		Reading:     model.Reading{Timestamp: time.Now(), NetEnergyWh: -500},
		DischargeWh: 500,
	})
	require.NoError(t, err)
	assert.InDelta(t, 200, res.DischargedWh, 1e-9)
	assert.InDelta(t, 300, res.ForcedImportWh, 1e-9)
	assert.InDelta(t, 300, res.ImportWh, 1e-9)
	assert.InDelta(t, params.FloorWh(), res.LevelEndWh, 1e-9)
	assert.Equal(t, model.OccupancyEmpty, res.Occupancy)
}

func TestApplyStepForcedImportAddsToPlannedImport(t *testing.T) {
	params := model.BatteryParams{CapacityWh: 1000}
	s := NewSimulator(newTestBattery(t, params))

	res, err := s.ApplyStep(0, model.StepPlan{
		Reading:     model.Reading{Timestamp: time.Now(), NetEnergyWh: -700},
		DischargeWh: 200,
		ImportWh:    500,
	})
	require.NoError(t, err)
	assert.Zero(t, res.DischargedWh)
	assert.InDelta(t, 200, res.ForcedImportWh, 1e-9)
	assert.InDelta(t, 700, res.ImportWh, 1e-9)
}

func TestApplyStepLossAccounting(t *testing.T) {
	params := model.BatteryParams{
		CapacityWh:            10000,
		ChargeLossFraction:    0.075,
		DischargeLossFraction: 0.075,
	}
	s := NewSimulator(newTestBattery(t, params))

	res, err := s.ApplyStep(0, model.StepPlan{
		Reading: model.Reading{Timestamp: time.Now(), NetEnergyWh: 1000},
		StoreWh: 1000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000, res.StoredWh, 1e-9)
	assert.InDelta(t, 925, res.LevelEndWh, 1e-9)

	res, err = s.ApplyStep(0, model.StepPlan{
		Reading:     model.Reading{Timestamp: time.Now(), NetEnergyWh: -100},
		DischargeWh: 100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, res.DischargedWh, 1e-9)
	assert.InDelta(t, 925-100/0.925, res.LevelEndWh, 1e-9)
}

func TestApplyStepGridChargeAfterStore(t *testing.T) {
	params := model.BatteryParams{
		CapacityWh:          1000,
		MaxGridChargePowerW: 10000,
		GridChargeEnabled:   true,
	}
	s := NewSimulator(newTestBattery(t, params))

	res, err := s.ApplyStep(0, model.StepPlan{
		Reading:      model.Reading{Timestamp: time.Now(), NetEnergyWh: 300},
		StoreWh:      300,
		GridChargeWh: 400,
	})
	require.NoError(t, err)
	assert.InDelta(t, 300, res.StoredWh, 1e-9)
	assert.InDelta(t, 400, res.GridChargedWh, 1e-9)
	assert.InDelta(t, 700, res.LevelEndWh, 1e-9)
}

func TestInvariantErrorMessage(t *testing.T) {
	err := &InvariantError{
		WindowIndex: 7,
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Quantity:    "level delta Wh",
		Observed:    10,
		Expected:    12,
	}
	assert.Contains(t, err.Error(), "window 7")
	assert.Contains(t, err.Error(), "2024-05-01T12:00:00Z")
	assert.Contains(t, err.Error(), "level delta Wh")
}
