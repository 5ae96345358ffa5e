package runtimeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pothosware/flowcore/flowerr"
)

// Load reads and validates a Config from path, dispatching on its
// extension: ".yaml"/".yml" decode via gopkg.in/yaml.v3, anything else via
// encoding/json, matching the rest of the pack's convention of YAML for
// operator-facing config and JSON for everything wire-adjacent.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, flowerr.WrapInvalid(err, "runtimeconfig", "Load", "read file")
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, flowerr.WrapInvalid(err, "runtimeconfig", "Load", "unmarshal yaml")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, flowerr.WrapInvalid(err, "runtimeconfig", "Load", "unmarshal json")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
