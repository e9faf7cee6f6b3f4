package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/perform"
	"github.com/jsphweid/boomparts/tube"
)

// BuildInventory returns the custom tube list when one is given, otherwise
// the named set.
func (c *Config) BuildInventory() (*tube.Inventory, error) {
	if len(c.Inventory.Tubes) > 0 {
		return tube.FromNames(c.Inventory.Tubes, c.Inventory.BaseOctave, c.Inventory.CollapseOctaves)
	}
	return tube.Standard(c.Inventory.Set, c.Inventory.BaseOctave, c.Inventory.CollapseOctaves)
}

func (c *Config) CopyOverrideMap() (map[model.TubeIdentity]int, error) {
	res := make(map[model.TubeIdentity]int, len(c.Inventory.CopyOverrides))
	for name, n := range c.Inventory.CopyOverrides {
		t, err := model.ParseTubeIdentity(name)
		if err != nil {
			return nil, fmt.Errorf("inventory.copy_overrides: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("inventory.copy_overrides.%s must be at least 1", name)
		}
		res[t] = n
	}
	return res, nil
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions(logger *zap.Logger) (engine.Options, error) {
	inv, err := c.BuildInventory()
	if err != nil {
		return engine.Options{}, err
	}
	overrides, err := c.CopyOverrideMap()
	if err != nil {
		return engine.Options{}, err
	}
	policy, err := engine.ParsePolicy(c.Scheduling.ConflictPolicy)
	if err != nil {
		return engine.Options{}, err
	}
	packing, err := perform.ParsePacking(c.Scheduling.PerformerPacking)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Inventory:      inv,
		Copies:         c.Inventory.Copies,
		CopyOverrides:  overrides,
		Policy:         policy,
		Packing:        packing,
		SwitchGapBeats: c.Scheduling.SwitchGapBeats,
		MaxTubes:       c.Scheduling.MaxTubesPerPerformer,
		Workers:        c.Scheduling.Workers,
		PartLabel:      c.Output.PartLabel,
		Logger:         logger,
	}, nil
}

func (c *Config) RenderSettings() model.RenderSettings {
	return model.RenderSettings{
		PageSize:  c.Output.PageSize,
		Title:     c.Output.Title,
		PartLabel: c.Output.PartLabel,
	}
}
