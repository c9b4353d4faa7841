package copyresolver

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the teacher's pattern of decoding a small, strict
// YAML document into a private struct before translating it into the
// domain type (database.ParseGeneratorConfig in the teacher).
type fileConfig struct {
	SearchDirs []string `yaml:"search_dirs"`
	Extensions []string `yaml:"extensions"`
}

// NewFromConfigFile builds a Resolver from a YAML file listing
// search_dirs and extensions, so `gixpp --copy-config` doesn't require a
// long list of repeated -I flags. Returns an error if the file can't be
// read or doesn't parse as the expected shape.
func NewFromConfigFile(startDir, path string, verbose bool) (*Resolver, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading copy config %q: %w", path, err)
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing copy config %q: %w", path, err)
	}

	return New(startDir, cfg.SearchDirs, cfg.Extensions, verbose), nil
}
