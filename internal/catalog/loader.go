package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var seed embed.FS

// Default builds the catalog from the seed data compiled into the binary.
func Default(logger *zap.Logger) (*Catalog, error) {
	sub, err := fs.Sub(seed, "data")
	if err != nil {
		return nil, err
	}
	data, err := ReadData(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed catalog: %w", err)
	}
	return New(data, logger)
}

// Load builds a catalog from the YAML files in dir.
func Load(dir string, logger *zap.Logger) (*Catalog, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open catalog directory: %w", err)
	}
	data, err := ReadData(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	return New(data, logger)
}

// ReadData decodes every *.yaml and *.yml file at the root of fsys, in file name
// order, and concatenates their chapters, connections and interlinks.
// Unknown fields are rejected so that curation typos surface at load time.
func ReadData(fsys fs.FS) (Data, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return Data{}, fmt.Errorf("failed to list catalog files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := path.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all Data
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Data{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var part Data
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&part); err != nil && !errors.Is(err, io.EOF) {
			return Data{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		all.Chapters = append(all.Chapters, part.Chapters...)
		all.Connections = append(all.Connections, part.Connections...)
		all.Interlinks = append(all.Interlinks, part.Interlinks...)
	}
	return all, nil
}
