package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Reliability grades how well a provider handles tool calls.
type Reliability string

const (
	ReliabilityNone         Reliability = "none"
	ReliabilityExperimental Reliability = "experimental"
	ReliabilityStable       Reliability = "stable"
)

// Capabilities describes what a provider and model can do. It is derived per
// invocation and never persisted.
type Capabilities struct {
	SupportsToolCalling bool        `json:"supportsToolCalling"`
	SupportsStreaming   bool        `json:"supportsStreaming"`
	MaxContextTokens    int         `json:"maxContextTokens,omitempty"`
	ToolReliability     Reliability `json:"toolReliability"`
	RequiresNetwork     bool        `json:"requiresNetwork"`
}

// ToolsAllowed reports whether tool calling may be enabled.
func (c Capabilities) ToolsAllowed() bool {
	return c.SupportsToolCalling && c.ToolReliability != ReliabilityNone
}

// DefaultCapabilities returns the static defaults for a provider type.
func DefaultCapabilities(t Type) Capabilities {
	switch t {
	case TypeClaudeCode:
		return Capabilities{
			SupportsToolCalling: true,
			SupportsStreaming:   true,
			MaxContextTokens:    200000,
			ToolReliability:     ReliabilityStable,
			RequiresNetwork:     true,
		}
	case TypeOllama:
		return Capabilities{
			SupportsToolCalling: false,
			SupportsStreaming:   true,
			MaxContextTokens:    8192,
			ToolReliability:     ReliabilityNone,
			RequiresNetwork:     false,
		}
	default:
		return Capabilities{ToolReliability: ReliabilityNone}
	}
}

// modelEntry is one row of the bundled model registry. Nil fields leave the
// provider default in place.
type modelEntry struct {
	ID                  string       `json:"id"`
	Aliases             []string     `json:"aliases,omitempty"`
	Provider            Type         `json:"provider,omitempty"`
	SupportsToolCalling *bool        `json:"supportsToolCalling,omitempty"`
	SupportsStreaming   *bool        `json:"supportsStreaming,omitempty"`
	MaxContextTokens    *int         `json:"maxContextTokens,omitempty"`
	ToolReliability     *Reliability `json:"toolReliability,omitempty"`
}

type modelRegistry struct {
	SchemaVersion int          `json:"schemaVersion"`
	Models        []modelEntry `json:"models"`
}

// CapabilityResolver merges per-type defaults with the model registry.
type CapabilityResolver struct {
	models []modelEntry
}

// NewCapabilityResolver parses the model registry. Unreadable metadata is
// logged and the resolver falls back to type defaults.
func NewCapabilityResolver(metadata []byte, logger *zap.Logger) *CapabilityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CapabilityResolver{}
	if len(metadata) == 0 {
		logger.Warn("model metadata missing, using provider defaults")
		return r
	}
	models, err := parseModelRegistry(metadata)
	if err != nil {
		logger.Warn("model metadata unreadable, using provider defaults", zap.Error(err))
		return r
	}
	r.models = models
	return r
}

func parseModelRegistry(data []byte) ([]modelEntry, error) {
	var reg modelRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	for i, m := range reg.Models {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("model entry %d has no id", i)
		}
		if m.ToolReliability != nil {
			switch *m.ToolReliability {
			case ReliabilityNone, ReliabilityExperimental, ReliabilityStable:
			default:
				return nil, fmt.Errorf("model %q: unknown tool reliability %q", m.ID, *m.ToolReliability)
			}
		}
	}
	return reg.Models, nil
}

// Resolve returns the capabilities of the given provider type running model.
// An empty or unknown model yields the type defaults.
func (r *CapabilityResolver) Resolve(t Type, model string) Capabilities {
	caps := DefaultCapabilities(t)
	entry, ok := r.lookup(t, model)
	if !ok {
		return caps
	}
	if entry.SupportsToolCalling != nil {
		caps.SupportsToolCalling = *entry.SupportsToolCalling
	}
	if entry.SupportsStreaming != nil {
		caps.SupportsStreaming = *entry.SupportsStreaming
	}
	if entry.MaxContextTokens != nil {
		caps.MaxContextTokens = *entry.MaxContextTokens
	}
	if entry.ToolReliability != nil {
		caps.ToolReliability = *entry.ToolReliability
	}
	return caps
}

func (r *CapabilityResolver) lookup(t Type, model string) (modelEntry, bool) {
	if r == nil || model == "" {
		return modelEntry{}, false
	}
	// Exact names win over a tag-stripped match ("llama3.1:8b" -> "llama3.1").
	candidates := []string{model}
	if base, _, found := strings.Cut(model, ":"); found && base != "" {
		candidates = append(candidates, base)
	}
	for _, name := range candidates {
		for _, m := range r.models {
			if m.Provider != "" && m.Provider != t {
				continue
			}
			if strings.EqualFold(m.ID, name) {
				return m, true
			}
			for _, alias := range m.Aliases {
				if strings.EqualFold(alias, name) {
					return m, true
				}
			}
		}
	}
	return modelEntry{}, false
}
