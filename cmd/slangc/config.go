package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// config is slangc's optional project file (slangc.toml), following the
// teacher's tmpShaderConfig pattern of a plain toml-tagged struct loaded
// straight off disk, then used as-is with no further validation.
type config struct {
	// IncludeRoots are extra directories searched for #include/#reference
	// targets that aren't found relative to the including file.
	IncludeRoots []string `toml:"include_roots"`
	// SourceWidth/Height and ViewportWidth/Height seed scale_type=source and
	// scale_type=viewport computations; no command-line flag overrides them.
	SourceWidth    int `toml:"source_width"`
	SourceHeight   int `toml:"source_height"`
	ViewportWidth  int `toml:"viewport_width"`
	ViewportHeight int `toml:"viewport_height"`
}

func defaultConfig() config {
	return config{
		SourceWidth:    320,
		SourceHeight:   240,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// loadConfig reads path if it exists, overlaying onto the defaults. A
// missing file is not an error — slangc.toml is optional.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("slangc: reading %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("slangc: parsing %q: %w", path, err)
	}
	return cfg, nil
}
