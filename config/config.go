package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jsphweid/boomparts/constants"
)

//go:embed sample_config.toml
var sampleConfig string

// Inventory describes the tubes the group owns.
type Inventory struct {
	Set             string   `toml:"set"`
	Tubes           []string `toml:"tubes"`
	BaseOctave      int      `toml:"base_octave"`
	CollapseOctaves bool     `toml:"collapse_octaves"`
	Copies          int      `toml:"copies"`
	// CopyOverrides is keyed by tube name, e.g. "C" or "C+1".
	CopyOverrides map[string]int `toml:"copy_overrides"`
}

// Scheduling contains conflict and performer assignment settings.
type Scheduling struct {
	ConflictPolicy       string  `toml:"conflict_policy"`
	PerformerPacking     string  `toml:"performer_packing"`
	SwitchGapBeats       float64 `toml:"switch_gap_beats"`
	MaxTubesPerPerformer int     `toml:"max_tubes_per_performer"`
	Workers              int     `toml:"workers"`
}

// Output contains part file and manifest settings.
type Output struct {
	Dir            string `toml:"dir"`
	Format         string `toml:"format"`
	ManifestFormat string `toml:"manifest_format"`
	PageSize       string `toml:"page_size"`
	Title          string `toml:"title"`
	PartLabel      string `toml:"part_label"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Metadata points at the DynamoDB table holding score titles and composers.
type Metadata struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Table    string `toml:"table"`
}

type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config is the fully parsed configuration.
type Config struct {
	Inventory  Inventory  `toml:"inventory"`
	Scheduling Scheduling `toml:"scheduling"`
	Output     Output     `toml:"output"`
	Logging    Logging    `toml:"logging"`
	Metadata   Metadata   `toml:"metadata"`
	Server     Server     `toml:"server"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/boomparts/config.toml")
}

// Load locates, parses, and validates a configuration file. An explicit path
// wins over BOOMPARTS_CONFIG, which wins over a project boomparts.toml and
// then the default location. A missing file leaves the defaults in place.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = constants.GetConfigPath()
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(constants.ProjectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
