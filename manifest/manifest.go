// Package manifest handles parlor.toml host configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/parlorlang/parlor/vm"
)

// Manifest represents a parlor.toml host configuration.
type Manifest struct {
	Runtime    Runtime    `toml:"runtime"`
	Logging    Logging    `toml:"logging"`
	Modules    Modules    `toml:"modules"`
	Transcript Transcript `toml:"transcript"`

	// Dir is the directory containing the parlor.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime configures machine limits and diagnostics.
type Runtime struct {
	MaxCallDepth int  `toml:"max-call-depth"`
	TraceEval    bool `toml:"trace-eval"`
}

// Logging configures the commonlog backend.
type Logging struct {
	Verbosity int `toml:"verbosity"`
}

// Modules selects which loaded modules a host should activate and
// dispatch against.
type Modules struct {
	Activate []string `toml:"activate"`
}

// Transcript configures the dispatch transcript store.
type Transcript struct {
	Path string `toml:"path"`
}

// Load parses a parlor.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "parlor.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Runtime.MaxCallDepth <= 0 {
		m.Runtime.MaxCallDepth = vm.DefaultMaxCallDepth
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a parlor.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "parlor.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// TranscriptPath returns the absolute path of the transcript store,
// or "" when transcripts are disabled.
func (m *Manifest) TranscriptPath() string {
	if m.Transcript.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Transcript.Path) {
		return m.Transcript.Path
	}
	return filepath.Join(m.Dir, m.Transcript.Path)
}

// ConfigureLogging applies the logging section to the commonlog
// backend.
func (m *Manifest) ConfigureLogging() {
	commonlog.Configure(m.Logging.Verbosity, nil)
}
