// Package config loads the node's YAML configuration file. Per spec.md
// §6, the config loader is an external collaborator outside the core:
// this package only turns a file on disk into a plain struct, it never
// constructs or touches a node.
//
// Grounded on Settings.go's LoadConfig: stat the file, fall back to an
// embedded default when it's absent or empty, unmarshal with
// gopkg.in/yaml.v3 — the same dependency and fallback shape, generalized
// from the teacher's single global `config` variable to a returned
// value so no package-level state is introduced (spec.md §9's
// re-architecture note against global/singleton state).
package config

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// Config holds every setting the ambient and domain stacks need: where
// to listen, where to keep data and logs, the file layer's fixed
// P/R constants, an initial peer seed list for joinNetwork, and the
// two supplemented features' toggles (AdminListen empty disables the
// admin HTTP surface, Discovery disables the LAN beacon).
type Config struct {
	Listen            string   `yaml:"Listen"`
	DataDir           string   `yaml:"DataDir"`
	LogFile           string   `yaml:"LogFile"`
	ReplicationFactor int      `yaml:"ReplicationFactor"`
	PartSize          int64    `yaml:"PartSize"`
	SeedPeers         []string `yaml:"SeedPeers"`
	AdminListen       string   `yaml:"AdminListen"`
	Discovery         bool     `yaml:"Discovery"`
}

// Load reads and parses filename. A missing or empty file falls back
// to the embedded default configuration rather than erroring, matching
// a freshly installed node with no config written yet.
func Load(filename string) (*Config, error) {
	data, err := readOrDefault(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readOrDefault(filename string) ([]byte, error) {
	stat, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return defaultConfig, nil
	}
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return defaultConfig, nil
	}
	return os.ReadFile(filename)
}
