package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk YAML shape of a catalog.
type file struct {
	BaseImages     map[string]string        `yaml:"base_images"`
	FallbackBuilds map[string]BuildTemplate `yaml:"fallback_builds"`
	Services       []Service                `yaml:"services"`
}

// Load decodes a YAML catalog from r.
//
//	base_images: {linux: ubuntu:latest}
//	services:
//	  - key: redis
//	    image: redis:7
//	    kind: database
//	    ports: ["6379:6379"]
func Load(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Services, f.BaseImages, f.FallbackBuilds)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	c, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
