package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"battery-savings/internal/data"
	"battery-savings/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). Everything in it can
// also be set via CLI flags; flags override file values.
type Config struct {
	// Optional: load battery parameters from a separate YAML file.
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile   string            `yaml:"battery_file"`
	Battery       BatteryConfig     `yaml:"battery"`
	WindowMinutes int               `yaml:"window_minutes"`
	Influx        data.InfluxConfig `yaml:"influx"`
}

// BatteryConfig uses the units the CLI exposes: Wh, W and percentages.
type BatteryConfig struct {
	Name                string  `yaml:"name"`
	CapacityWh          float64 `yaml:"capacity_wh"`
	DepthOfDischargePct float64 `yaml:"depth_of_discharge_pct"`
	ChargingLossPct     float64 `yaml:"charging_loss_pct"`
	DischargingLossPct  float64 `yaml:"discharging_loss_pct"`
	MaxGridPowerW       float64 `yaml:"max_grid_power_w"`
	NoGridCharge        bool    `yaml:"no_grid_charge"`
}

// DefaultBattery matches a 5x4800 Wh home storage unit.
func DefaultBattery() BatteryConfig {
	return BatteryConfig{
		CapacityWh:          24000,
		DepthOfDischargePct: 5.0,
		ChargingLossPct:     7.5,
		DischargingLossPct:  7.5,
		MaxGridPowerW:       17250,
	}
}

const DefaultWindowMinutes = 1440

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityWh:            b.CapacityWh,
		MinLevelFraction:      b.DepthOfDischargePct / 100,
		ChargeLossFraction:    b.ChargingLossPct / 100,
		DischargeLossFraction: b.DischargingLossPct / 100,
		MaxGridChargePowerW:   b.MaxGridPowerW,
		GridChargeEnabled:     !b.NoGridCharge,
	}
}

// Load reads, merges and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer paths relative to the config file directory, falling
			// back to the path as given.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := loadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	// Unset fields fall back to the defaults.
	c.Battery = MergeBattery(DefaultBattery(), c.Battery)
	if c.WindowMinutes == 0 {
		c.WindowMinutes = DefaultWindowMinutes
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.WindowMinutes <= 0 {
		return errors.New("window_minutes must be > 0")
	}
	if err := c.Battery.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base. NoGridCharge
// merges with logical or: either source can disable grid charging.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityWh != 0 {
		out.CapacityWh = override.CapacityWh
	}
	if override.DepthOfDischargePct != 0 {
		out.DepthOfDischargePct = override.DepthOfDischargePct
	}
	if override.ChargingLossPct != 0 {
		out.ChargingLossPct = override.ChargingLossPct
	}
	if override.DischargingLossPct != 0 {
		out.DischargingLossPct = override.DischargingLossPct
	}
	if override.MaxGridPowerW != 0 {
		out.MaxGridPowerW = override.MaxGridPowerW
	}
	out.NoGridCharge = base.NoGridCharge || override.NoGridCharge
	return out
}
