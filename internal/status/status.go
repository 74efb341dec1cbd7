// Package status reports how each configured provider resolves on this
// machine: which executable would run, what the model can do and whether
// its tooling survives the policy.
package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/voxflow/internal/orchestrator"
	"github.com/dusk-indust/voxflow/internal/provider"
)

// ProviderStatus describes one provider.
type ProviderStatus struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Type         provider.Type         `json:"type"`
	Binary       string                `json:"binary,omitempty"`
	Found        bool                  `json:"found"`
	Hint         string                `json:"hint,omitempty"`
	DefaultModel string                `json:"defaultModel,omitempty"`
	Capabilities provider.Capabilities `json:"capabilities"`
	Requested    []provider.ToolGroup  `json:"requestedToolGroups,omitempty"`
	Effective    []provider.ToolGroup  `json:"effectiveToolGroups,omitempty"`
	Disabled     string                `json:"toolingDisabledReason,omitempty"`
}

// ModeStatus summarises one mode.
type ModeStatus struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Enabled   bool     `json:"enabled"`
	Prefixes  []string `json:"voicePrefixes,omitempty"`
	Steps     int      `json:"steps"`
	LLMSteps  int      `json:"llmSteps"`
	Providers []string `json:"providers,omitempty"`
}

// Report is the full status of a catalog.
type Report struct {
	ConfigPath string           `json:"configPath"`
	Defaults   bool             `json:"usingDefaults"`
	Providers  []ProviderStatus `json:"providers"`
	Modes      []ModeStatus     `json:"modes"`
}

// Ready reports whether every provider referenced by an enabled step has an
// executable.
func (r Report) Ready() bool {
	found := make(map[string]bool, len(r.Providers))
	for _, p := range r.Providers {
		found[p.ID] = p.Found
	}
	for _, m := range r.Modes {
		if !m.Enabled {
			continue
		}
		for _, id := range m.Providers {
			if !found[id] {
				return false
			}
		}
	}
	return true
}

// Collect builds a Report for cat.
func Collect(cat *orchestrator.Catalog, locator *provider.Locator, caps *provider.CapabilityResolver) Report {
	var r Report
	for _, p := range cat.Providers {
		ps := ProviderStatus{
			ID:           p.ID,
			Name:         p.DisplayName(),
			Type:         p.Type,
			DefaultModel: p.DefaultModel,
		}
		if path, ok := locator.Resolve(p); ok {
			ps.Binary = path
			ps.Found = true
		} else {
			ps.Hint = provider.NotFound(p).Hint
		}
		ps.Capabilities = caps.Resolve(p.Type, p.DefaultModel)
		if p.Tooling != nil {
			ps.Requested = p.Tooling.EnabledToolGroups
		}
		policy := provider.EvaluatePolicy(p.Tooling, nil, ps.Capabilities)
		if policy.Effective != nil {
			ps.Effective = policy.Effective.EnabledToolGroups
		}
		ps.Disabled = policy.DisabledReason
		r.Providers = append(r.Providers, ps)
	}

	for _, m := range cat.Modes {
		ms := ModeStatus{
			ID:       m.ID,
			Name:     m.Name,
			Enabled:  m.Pipeline.Enabled,
			Prefixes: m.VoicePrefixes,
		}
		seen := make(map[string]bool)
		for _, t := range m.Pipeline.Transformations {
			if !t.Enabled {
				continue
			}
			ms.Steps++
			if t.Kind != orchestrator.KindLLM || t.LLM == nil {
				continue
			}
			ms.LLMSteps++
			if !seen[t.LLM.ProviderID] {
				seen[t.LLM.ProviderID] = true
				ms.Providers = append(ms.Providers, t.LLM.ProviderID)
			}
		}
		r.Modes = append(r.Modes, ms)
	}
	return r
}

// Print writes a human readable rendering of r.
func Print(w io.Writer, r Report) {
	source := r.ConfigPath
	if r.Defaults {
		source += " (not found, using built-in defaults)"
	}
	fmt.Fprintf(w, "Configuration: %s\n\n", source)

	if len(r.Providers) == 0 {
		fmt.Fprintln(w, "No providers configured.")
	}
	for _, p := range r.Providers {
		marker := "ok"
		binary := p.Binary
		if !p.Found {
			marker = "!!"
			binary = "not found: " + p.Hint
		}
		fmt.Fprintf(w, "  %s %-20s %-10s %s\n", marker, p.Name, p.Type, binary)
		if p.DefaultModel != "" {
			fmt.Fprintf(w, "       model %s, tools %s\n", p.DefaultModel, toolSummary(p))
		} else {
			fmt.Fprintf(w, "       tools %s\n", toolSummary(p))
		}
	}

	fmt.Fprintln(w)
	if len(r.Modes) == 0 {
		fmt.Fprintln(w, "No modes configured.")
		return
	}
	for _, m := range r.Modes {
		state := "enabled"
		if !m.Enabled {
			state = "disabled"
		}
		prefixes := "(bundle match only)"
		if len(m.Prefixes) > 0 {
			prefixes = `"` + strings.Join(m.Prefixes, `", "`) + `"`
		}
		fmt.Fprintf(w, "  %-20s [%s] %d steps (%d llm) %s\n", m.Name, state, m.Steps, m.LLMSteps, prefixes)
	}
}

func toolSummary(p ProviderStatus) string {
	switch {
	case len(p.Effective) > 0:
		groups := make([]string, len(p.Effective))
		for i, g := range p.Effective {
			groups[i] = string(g)
		}
		return strings.Join(groups, ", ")
	case p.Disabled != "":
		return "off (" + p.Disabled + ")"
	default:
		return "none"
	}
}
