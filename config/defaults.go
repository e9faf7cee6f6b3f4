package config

import (
	"github.com/jsphweid/boomparts/constants"
	"github.com/jsphweid/boomparts/tube"
)

const (
	defaultBind          = "127.0.0.1:8080"
	defaultMetadataTable = "boomparts-metadata"
	defaultDynamoRegion  = "localhost"
	defaultDynamoURL     = "http://localhost:8000"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Inventory: Inventory{
			Set:             tube.SetDiatonic,
			BaseOctave:      constants.DefaultBaseOctave,
			CollapseOctaves: true,
			Copies:          1,
		},
		Scheduling: Scheduling{
			ConflictPolicy:   "fail",
			PerformerPacking: "span",
		},
		Output: Output{
			Dir:            constants.GetOutDir(),
			Format:         "musicxml",
			ManifestFormat: "toml",
			PageSize:       constants.DefaultPageSize,
			PartLabel:      constants.DefaultPartLabel,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Metadata: Metadata{
			Endpoint: defaultDynamoURL,
			Region:   defaultDynamoRegion,
			Table:    defaultMetadataTable,
		},
		Server: Server{
			Bind:           defaultBind,
			AllowedOrigins: []string{"*"},
		},
	}
}
