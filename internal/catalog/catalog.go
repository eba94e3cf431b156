// Package catalog loads instrument definitions. The default catalog is
// embedded in the binary; deployments can point at an on-disk directory of
// YAML or JSON files instead.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// DefaultPattern matches every instrument file below the catalog root.
const DefaultPattern = "**/*.{yaml,yml,json}"

//go:embed instruments/*.yaml
var embedded embed.FS

// Default returns the validated embedded catalog.
func Default() ([]*domain.Instrument, error) {
	sub, err := EmbeddedFS()
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, DefaultPattern)
}

// EmbeddedFS returns the embedded instrument files rooted at the catalog
// directory.
func EmbeddedFS() (fs.FS, error) {
	sub, err := fs.Sub(embedded, "instruments")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded catalog: %w", err)
	}
	return sub, nil
}

// Load returns the catalog selected by cfg: the embedded one when Dir is
// empty, otherwise the files below Dir matching Pattern.
func Load(cfg domain.CatalogConfig) ([]*domain.Instrument, error) {
	if cfg.Dir == "" {
		return Default()
	}
	return LoadDir(cfg.Dir, cfg.Pattern)
}

// LoadDir loads and validates every instrument file in dir matching pattern.
func LoadDir(dir, pattern string) ([]*domain.Instrument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), pattern)
}

// LoadFS loads and validates every instrument file in fsys matching the
// doublestar pattern. Instruments are returned sorted by id. Any decode or
// configuration error fails the whole load.
func LoadFS(fsys fs.FS, pattern string) ([]*domain.Instrument, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no instrument files match %q", pattern)
	}
	sort.Strings(matches)

	var (
		instruments []*domain.Instrument
		errs        []error
		seen        = make(map[string]string, len(matches))
	)
	for _, name := range matches {
		inst, err := ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[inst.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: instrument %q already defined in %s", name, inst.ID, prev))
			continue
		}
		seen[inst.ID] = name
		if err := inst.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		instruments = append(instruments, inst)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.Slice(instruments, func(i, j int) bool { return instruments[i].ID < instruments[j].ID })
	return instruments, nil
}

// ReadFile decodes one instrument file without validating it.
func ReadFile(fsys fs.FS, name string) (*domain.Instrument, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Decode(name, data)
}

// Decode parses an instrument from YAML or JSON, chosen by file extension.
func Decode(name string, data []byte) (*domain.Instrument, error) {
	var inst domain.Instrument
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file type: %s", name)
	}
	return &inst, nil
}
