package project

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"facet/internal/trace"
)

// DefaultOptLevel is used when the manifest does not set [build].opt_level.
const DefaultOptLevel = 2

// BuildConfig is the [build] section of facet.toml.
type BuildConfig struct {
	OptLevel int `toml:"opt_level"`
	Jobs     int `toml:"jobs"`
}

// TraceConfig is the [trace] section of facet.toml.
type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Manifest is the parsed facet.toml.
type Manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Build BuildConfig `toml:"build"`
	Trace TraceConfig `toml:"trace"`
}

// TraceLevel parses the configured trace level. An empty setting means off.
func (m *Manifest) TraceLevel() (trace.Level, error) {
	if m.Trace.Level == "" {
		return trace.LevelOff, nil
	}
	return trace.ParseLevel(m.Trace.Level)
}

// LoadManifest parses facet.toml and applies defaults.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("build", "opt_level") {
		m.Build.OptLevel = DefaultOptLevel
	}
	if m.Build.OptLevel < 0 {
		return nil, fmt.Errorf("%s: [build].opt_level must be non-negative, got %d", path, m.Build.OptLevel)
	}
	if m.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: [build].jobs must be non-negative, got %d", path, m.Build.Jobs)
	}
	if _, err := m.TraceLevel(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}
