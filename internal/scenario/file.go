package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/kode4food/bpmspec/internal/util"
)

// File is a scenario read from YAML. Models and Users are optional: when
// Models is present the scenario runs against its own in-memory engine
type File struct {
	Path      string      `yaml:"-"`
	Name      string      `yaml:"name"`
	Given     string      `yaml:"given"`
	Tenant    string      `yaml:"tenant"`
	Resources string      `yaml:"resources"`
	Models    []ModelSpec `yaml:"models"`
	Users     []UserSpec  `yaml:"users"`
	Steps     []Step      `yaml:"steps"`
}

const globMeta = "*?[{"

var (
	ErrNoName      = errors.New("scenario name is required")
	ErrNoSteps     = errors.New("scenario has no steps")
	ErrNoFiles     = errors.New("no scenario files matched")
	ErrBadPattern  = errors.New("invalid file pattern")
	ErrInvalidFile = errors.New("invalid scenario file")
)

// Load reads and validates a scenario file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes and validates a scenario. Unknown fields are rejected
func Parse(data []byte, path string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	f.Path = path
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	return &f, nil
}

// Validate checks the scenario, its steps and any embedded models
func (f *File) Validate() error {
	if f.Name == "" {
		return ErrNoName
	}
	if len(f.Steps) == 0 {
		return ErrNoSteps
	}
	for i := range f.Steps {
		if err := f.Steps[i].Validate(); err != nil {
			return err
		}
	}
	for i := range f.Models {
		if _, err := f.Models[i].Build(); err != nil {
			return err
		}
	}
	return nil
}

// ResourceDir returns the directory message payloads are resolved from,
// which defaults to the directory holding the file
func (f *File) ResourceDir() string {
	base := filepath.Dir(f.Path)
	switch {
	case f.Resources == "":
		return base
	case filepath.IsAbs(f.Resources):
		return f.Resources
	default:
		return filepath.Join(base, f.Resources)
	}
}

// Expand resolves doublestar patterns to a sorted, de-duplicated list of
// files. A pattern without wildcards must name an existing file
func Expand(patterns ...string) ([]string, error) {
	found := util.Set[string]{}
	for _, p := range patterns {
		if !doublestar.ValidatePathPattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadPattern, p, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(p, globMeta) {
			if _, err := os.Stat(p); err != nil {
				return nil, err
			}
		}
		for _, m := range matches {
			found.Add(m)
		}
	}
	if len(found) == 0 {
		return nil, ErrNoFiles
	}
	return util.SortedStrings(found), nil
}

// LoadAll expands the patterns and loads every matching file
func LoadAll(patterns ...string) ([]*File, error) {
	paths, err := Expand(patterns...)
	if err != nil {
		return nil, err
	}
	res := make([]*File, 0, len(paths))
	var errs []error
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = append(res, f)
	}
	return res, errors.Join(errs...)
}
