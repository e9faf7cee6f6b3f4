package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/notation"
	"github.com/jsphweid/boomparts/perform"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInventory(); err != nil {
		return err
	}
	if err := c.validateScheduling(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Metadata.Enabled && c.Metadata.Table == "" {
		return errors.New("metadata.table must be set when metadata is enabled")
	}
	return nil
}

func (c *Config) validateInventory() error {
	if _, err := c.BuildInventory(); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if c.Inventory.BaseOctave < model.MinOctave || c.Inventory.BaseOctave > model.MaxOctave {
		return fmt.Errorf("inventory.base_octave must be between %d and %d", model.MinOctave, model.MaxOctave)
	}
	if c.Inventory.Copies < 1 {
		return errors.New("inventory.copies must be at least 1")
	}
	if _, err := c.CopyOverrideMap(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduling() error {
	if _, err := engine.ParsePolicy(c.Scheduling.ConflictPolicy); err != nil {
		return fmt.Errorf("scheduling.conflict_policy: %w", err)
	}
	if _, err := perform.ParsePacking(c.Scheduling.PerformerPacking); err != nil {
		return fmt.Errorf("scheduling.performer_packing: %w", err)
	}
	if c.Scheduling.SwitchGapBeats < 0 {
		return errors.New("scheduling.switch_gap_beats must be >= 0")
	}
	if c.Scheduling.MaxTubesPerPerformer < 0 {
		return errors.New("scheduling.max_tubes_per_performer must be >= 0")
	}
	if c.Scheduling.Workers < 0 {
		return errors.New("scheduling.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	if _, err := notation.ForFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	switch c.Output.ManifestFormat {
	case "", "toml", "json":
	default:
		return fmt.Errorf("output.manifest_format: unsupported value %q", c.Output.ManifestFormat)
	}
	if c.Output.PartLabel != "" {
		if err := checkLabelFormat(c.Output.PartLabel); err != nil {
			return fmt.Errorf("output.part_label: %w", err)
		}
	}
	return nil
}

// checkLabelFormat accepts a label with exactly one %d for the performer
// number. %% is a literal percent sign.
func checkLabelFormat(label string) error {
	rest := strings.ReplaceAll(label, "%%", "")
	if strings.Count(rest, "%d") != 1 || strings.Count(rest, "%") != 1 {
		return fmt.Errorf("%q must contain exactly one %%d and no other verbs", label)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
