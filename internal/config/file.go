// Package config loads process settings and the pipeline configuration
// file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dusk-indust/voxflow/internal/assets"
	"github.com/dusk-indust/voxflow/internal/orchestrator"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaVersion is the configuration format this build reads and writes.
const SchemaVersion = 1

// File is the on-disk configuration.
type File struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Providers     []provider.Provider `json:"providers"`
	Modes         []orchestrator.Mode `json:"modes"`

	// IDsAssigned is set when Parse generated identifiers that the file
	// did not have. Saving the file keeps them stable.
	IDsAssigned bool `json:"-"`
}

// rawFile accepts the legacy "stacks" key.
type rawFile struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Providers     []provider.Provider `json:"providers"`
	Modes         []orchestrator.Mode `json:"modes"`
	Stacks        []orchestrator.Mode `json:"stacks"`
}

// ValidationError lists every schema or semantic problem found in a file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(assets.ConfigSchema()))
})

// Parse validates data against the configuration schema and decodes it.
func Parse(data []byte) (*File, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("load configuration schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Problems = append(verr.Problems, re.String())
		}
		return nil, verr
	}

	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if len(raw.Modes) > 0 && len(raw.Stacks) > 0 {
		return nil, &ValidationError{Problems: []string{`use either "modes" or "stacks", not both`}}
	}
	f := &File{SchemaVersion: raw.SchemaVersion, Providers: raw.Providers, Modes: raw.Modes}
	if len(f.Modes) == 0 {
		f.Modes = raw.Stacks
	}
	f.IDsAssigned = f.assignIDs()

	if err := f.Catalog().Validate(); err != nil {
		return nil, &ValidationError{Problems: strings.Split(err.Error(), "\n")}
	}
	return f, nil
}

func (f *File) assignIDs() bool {
	assigned := false
	newID := func(id *string) {
		if *id == "" {
			*id = uuid.NewString()
			assigned = true
		}
	}
	for i := range f.Providers {
		newID(&f.Providers[i].ID)
	}
	for i := range f.Modes {
		m := &f.Modes[i]
		newID(&m.ID)
		for j := range m.Pipeline.Transformations {
			newID(&m.Pipeline.Transformations[j].ID)
		}
	}
	return assigned
}

// Catalog returns the providers and modes as a catalog snapshot.
func (f *File) Catalog() *orchestrator.Catalog {
	return &orchestrator.Catalog{Providers: f.Providers, Modes: f.Modes}
}

// Marshal encodes the file with stable indentation. Empty lists are
// written as [] so the output validates against the schema.
func (f *File) Marshal() ([]byte, error) {
	out := File{
		SchemaVersion: f.SchemaVersion,
		Providers:     make([]provider.Provider, len(f.Providers)),
		Modes:         make([]orchestrator.Mode, len(f.Modes)),
	}
	if out.SchemaVersion == 0 {
		out.SchemaVersion = SchemaVersion
	}
	for i, p := range f.Providers {
		p.Tooling = normalizeTooling(p.Tooling)
		out.Providers[i] = p
	}
	for i, m := range f.Modes {
		m.VoicePrefixes = nonNil(m.VoicePrefixes)
		m.BundleIDs = nonNil(m.BundleIDs)
		steps := make([]orchestrator.Transformation, len(m.Pipeline.Transformations))
		for j, t := range m.Pipeline.Transformations {
			if t.LLM != nil {
				step := *t.LLM
				step.Tooling = normalizeTooling(step.Tooling)
				t.LLM = &step
			}
			steps[j] = t
		}
		m.Pipeline.Transformations = steps
		out.Modes[i] = m
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func normalizeTooling(c *provider.ToolingConfiguration) *provider.ToolingConfiguration {
	if c == nil {
		return nil
	}
	cp := *c
	cp.EnabledToolGroups = nonNil(cp.EnabledToolGroups)
	return &cp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Save writes f to path atomically, creating parent directories.
func Save(path string, f *File) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".voxflow-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Default returns the built-in configuration.
func Default() (*File, error) {
	return Parse(assets.DefaultConfig())
}

// IsNotExist reports whether err means the configuration file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
