// Package orchestrator selects the transformation mode for a piece of
// dictated text and runs the mode's pipeline over it.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/voxflow/internal/provider"
)

// TransformationKind selects what a transformation does.
type TransformationKind string

const (
	KindUppercase    TransformationKind = "uppercase"
	KindLowercase    TransformationKind = "lowercase"
	KindTrim         TransformationKind = "trim"
	KindRegexReplace TransformationKind = "regexReplace"
	KindAffix        TransformationKind = "affix"
	KindLLM          TransformationKind = "llm"
)

// Transformation is one pipeline step. Fields beyond ID, Enabled and Kind
// are read according to Kind.
type Transformation struct {
	ID      string             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Enabled bool               `json:"isEnabled"`
	Kind    TransformationKind `json:"kind"`

	Pattern     string `json:"pattern,omitempty"`
	Replacement string `json:"replacement,omitempty"`

	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`

	LLM *provider.Step `json:"llm,omitempty"`
}

// UnmarshalJSON defaults isEnabled to true when absent.
func (t *Transformation) UnmarshalJSON(data []byte) error {
	type plain Transformation
	aux := struct {
		*plain
		Enabled *bool `json:"isEnabled"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// Validate checks that the fields required by Kind are present.
func (t Transformation) Validate() error {
	switch t.Kind {
	case KindUppercase, KindLowercase, KindTrim, KindAffix:
		return nil
	case KindRegexReplace:
		if t.Pattern == "" {
			return errors.New("regexReplace requires a pattern")
		}
		if _, err := regexp.Compile(t.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		return nil
	case KindLLM:
		if t.LLM == nil {
			return errors.New("llm transformation requires an llm step")
		}
		if t.LLM.ProviderID == "" {
			return errors.New("llm step requires a providerID")
		}
		if n := strings.Count(t.LLM.PromptTemplate, provider.InputPlaceholder); n != 1 {
			return fmt.Errorf("prompt template must contain %s exactly once, found %d", provider.InputPlaceholder, n)
		}
		return validateTooling(t.LLM.Tooling)
	default:
		return fmt.Errorf("unknown transformation kind %q", t.Kind)
	}
}

// Pipeline is an ordered list of transformations.
type Pipeline struct {
	Enabled         bool             `json:"isEnabled"`
	Transformations []Transformation `json:"transformations"`
}

// UnmarshalJSON defaults isEnabled to true when absent.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	type plain Pipeline
	aux := struct {
		*plain
		Enabled *bool `json:"isEnabled"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// Mode binds a pipeline to the voice prefixes and applications that select
// it.
type Mode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	VoicePrefixes []string `json:"voicePrefixes"`
	// BundleIDs restricts the mode to these frontmost applications. Empty
	// means any application.
	BundleIDs []string `json:"appliesToBundleIdentifiers"`
	Pipeline  Pipeline `json:"pipeline"`
}

// Catalog is one immutable snapshot of the configured providers and modes.
type Catalog struct {
	Providers []provider.Provider `json:"providers"`
	Modes     []Mode              `json:"modes"`
}

// CatalogSource hands out the current catalog snapshot.
type CatalogSource interface {
	Catalog() *Catalog
}

// Catalog lets a fixed *Catalog serve as its own source.
func (c *Catalog) Catalog() *Catalog { return c }

// Provider looks up a provider by ID.
func (c *Catalog) Provider(id string) (provider.Provider, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return provider.Provider{}, false
}

// Mode looks up a mode by ID.
func (c *Catalog) Mode(id string) (*Mode, bool) {
	for i := range c.Modes {
		if c.Modes[i].ID == id {
			return &c.Modes[i], true
		}
	}
	return nil, false
}

// Validate checks identifiers, references and per-step requirements.
func (c *Catalog) Validate() error {
	var errs []error
	providers := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Errorf("providers[%d]: missing id", i))
		case providers[p.ID]:
			errs = append(errs, fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID))
		}
		providers[p.ID] = true
		if !p.Type.Valid() {
			errs = append(errs, fmt.Errorf("provider %q: unknown type %q", p.ID, p.Type))
		}
		if p.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Errorf("provider %q: timeoutSeconds must not be negative", p.ID))
		}
		if err := validateTooling(p.Tooling); err != nil {
			errs = append(errs, fmt.Errorf("provider %q: %w", p.ID, err))
		}
	}

	modes := make(map[string]bool, len(c.Modes))
	for i, m := range c.Modes {
		switch {
		case m.ID == "":
			errs = append(errs, fmt.Errorf("modes[%d]: missing id", i))
		case modes[m.ID]:
			errs = append(errs, fmt.Errorf("modes[%d]: duplicate id %q", i, m.ID))
		}
		modes[m.ID] = true
		for j, t := range m.Pipeline.Transformations {
			if err := t.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("mode %q step %d: %w", m.Name, j, err))
				continue
			}
			if t.Kind == KindLLM && !providers[t.LLM.ProviderID] {
				errs = append(errs, fmt.Errorf("mode %q step %d: unknown provider %q", m.Name, j, t.LLM.ProviderID))
			}
		}
	}
	return errors.Join(errs...)
}

func validateTooling(c *provider.ToolingConfiguration) error {
	if c == nil {
		return nil
	}
	for _, g := range c.EnabledToolGroups {
		if !g.Valid() {
			return fmt.Errorf("unknown tool group %q", g)
		}
	}
	return nil
}

// StepRunner runs the LLM half of a transformation.
type StepRunner interface {
	RunStep(ctx context.Context, p provider.Provider, step provider.Step, input string) (string, error)
}

// Request is one piece of dictated text to post-process.
type Request struct {
	Text     string `json:"text"`
	BundleID string `json:"bundleIdentifier,omitempty"`
}

// Response is the processed text and the mode that produced it.
type Response struct {
	Text     string `json:"text"`
	Matched  bool   `json:"matched"`
	ModeID   string `json:"modeID,omitempty"`
	ModeName string `json:"modeName,omitempty"`
	// Prefix is the voice prefix that was stripped, if any.
	Prefix string `json:"prefix,omitempty"`
}

// ProgressEvent reports the state of one pipeline step.
type ProgressEvent struct {
	Mode    string
	Step    int
	StepID  string
	Kind    TransformationKind
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a step within a run.
type ProgressStatus string

const (
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
	ProgressSkipped  ProgressStatus = "skipped"
)
