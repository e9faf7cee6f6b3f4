package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeInventory()
	c.normalizeScheduling()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Metadata.Endpoint = strings.TrimSpace(c.Metadata.Endpoint)
	c.Metadata.Table = strings.TrimSpace(c.Metadata.Table)
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	return nil
}

func (c *Config) normalizeInventory() {
	c.Inventory.Set = strings.ToLower(strings.TrimSpace(c.Inventory.Set))
	tubes := c.Inventory.Tubes[:0]
	for _, t := range c.Inventory.Tubes {
		if t = strings.TrimSpace(t); t != "" {
			tubes = append(tubes, t)
		}
	}
	c.Inventory.Tubes = tubes
}

func (c *Config) normalizeScheduling() {
	c.Scheduling.ConflictPolicy = strings.ToLower(strings.TrimSpace(c.Scheduling.ConflictPolicy))
	c.Scheduling.PerformerPacking = strings.ToLower(strings.TrimSpace(c.Scheduling.PerformerPacking))
}

func (c *Config) normalizeOutput() error {
	if dir := os.Getenv("BOOMPARTS_OUT_DIR"); dir != "" {
		c.Output.Dir = dir
	}
	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.ManifestFormat = strings.ToLower(strings.TrimSpace(c.Output.ManifestFormat))
	c.Output.PageSize = strings.TrimSpace(c.Output.PageSize)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
