package model

type RenderSettings struct {
	PageSize  string `toml:"page_size" json:"page_size"`
	Title     string `toml:"title" json:"title"`
	PartLabel string `toml:"part_label" json:"part_label"`
	Format    string `toml:"format" json:"format"`
}

type ManifestEntry struct {
	Performer int    `toml:"performer" json:"performer"`
	Label     string `toml:"label" json:"label"`
	Source    string `toml:"source" json:"source"`
	Output    string `toml:"output" json:"output"`
}

// Manifest lists the part files of one render batch in performer order.
type Manifest struct {
	BatchID string          `toml:"batch_id" json:"batch_id"`
	Render  RenderSettings  `toml:"render" json:"render"`
	Entries []ManifestEntry `toml:"parts" json:"parts"`
}

// ScoreMetadata is catalogue information kept outside the score file.
type ScoreMetadata struct {
	Title    string `json:"title,omitempty"`
	Composer string `json:"composer,omitempty"`
	Arranger string `json:"arranger,omitempty"`
	Year     uint   `json:"year,omitempty"`
}
