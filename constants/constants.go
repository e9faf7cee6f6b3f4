package constants

import "os"

func GetOutDir() string {
	path := os.Getenv("BOOMPARTS_OUT_DIR")
	if path != "" {
		return path
	}
	return "./out"
}

func GetConfigPath() string {
	return os.Getenv("BOOMPARTS_CONFIG")
}

const ProjectConfigName = "boomparts.toml"

const ManifestTOMLName = "manifest.toml"

// MuseScore batch job files are a JSON array of {"in", "out"} pairs.
const ManifestJSONName = "job.json"

// render settings written beside job.json, which has no room for them
const RenderSidecarName = "render.toml"

const LockName = ".boomparts.lock"

const DefaultBaseOctave = 4

const DefaultPageSize = "A4"

const DefaultPartLabel = "Performer %d"

// fallback when a score carries no tempo marking
const DefaultBPM = 120.0

// documents the renderer is asked to produce
const DefaultRenderFormat = "pdf"
