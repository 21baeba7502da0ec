// Package config handles spacesim configuration loading and management.
package config

// AppID names this program's per-OS config directory and is the only
// place that string is spelled out; ConfigDir and the save path both
// derive from it instead of repeating a literal per platform branch.
const AppID = "spacesim"

// configFileName is the file Load/Save use inside ConfigDir().
const configFileName = "config.yaml"

// Config holds all tunable settings for the scheduler, the planet
// subsystem, the demo display, and logging.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Planet    PlanetConfig    `yaml:"planet"`
	Display   DisplayConfig   `yaml:"display"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SchedulerConfig holds tag-scheduler construction settings.
type SchedulerConfig struct {
	TagDependsPerTag int `yaml:"tag_depends_per_tag"`
}

// PlanetConfig holds triangle-skeleton and chunked-mesh tuning.
type PlanetConfig struct {
	ChunkLevel    int     `yaml:"chunk_level"`    // L: edge-vertex subdivision level per chunk
	ChunkCapacity int     `yaml:"chunk_capacity"` // C: max simultaneously resident chunks
	VertexSize    int     `yaml:"vertex_size"`    // V: bytes per mesh vertex
	ScaleExponent int     `yaml:"scale_exponent"` // negative power-of-two applied to fixed-point positions
	RadiusMeters  float64 `yaml:"radius_meters"`
}

// DisplayConfig holds the external demo driver's window settings.
type DisplayConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// clampDomain enforces the invariants the scheduler and planet packages
// assume on construction (a non-positive vertex size or tag-depends
// count would panic deep inside NewTaskTags/NewChunkedMesh rather than
// fail cleanly at load time), so a hand-edited config.yaml with a bad
// value degrades to the matching default instead of crashing later.
func (c *Config) clampDomain() {
	d := Default()
	if c.Scheduler.TagDependsPerTag < 1 {
		c.Scheduler.TagDependsPerTag = d.Scheduler.TagDependsPerTag
	}
	if c.Planet.VertexSize < 1 {
		c.Planet.VertexSize = d.Planet.VertexSize
	}
	if c.Planet.ChunkCapacity < 1 {
		c.Planet.ChunkCapacity = d.Planet.ChunkCapacity
	}
	if c.Planet.ChunkLevel < 0 {
		c.Planet.ChunkLevel = d.Planet.ChunkLevel
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			TagDependsPerTag: 4,
		},
		Planet: PlanetConfig{
			ChunkLevel:    4,
			ChunkCapacity: 64,
			VertexSize:    24, // position + normal, 3x float32 each
			ScaleExponent: 10,
			RadiusMeters:  6371000,
		},
		Display: DisplayConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
