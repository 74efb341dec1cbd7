package provider

import "fmt"

// ToolingPolicy is the outcome of evaluating requested tooling against a
// provider's capabilities.
type ToolingPolicy struct {
	// Effective is the tooling that may be used. Nil when tools are off.
	Effective *ToolingConfiguration
	// DisabledReason explains why requested tooling was dropped.
	DisabledReason string
}

// Enabled reports whether at least one tool group survived the policy.
func (p ToolingPolicy) Enabled() bool {
	return p.Effective.HasGroups()
}

// EvaluatePolicy decides which tooling a step may use. A step override
// replaces the provider configuration entirely.
func EvaluatePolicy(providerTooling, stepTooling *ToolingConfiguration, caps Capabilities) ToolingPolicy {
	requested := providerTooling
	if stepTooling != nil {
		requested = stepTooling
	}

	if caps.ToolsAllowed() {
		return ToolingPolicy{Effective: requested}
	}
	if requested == nil {
		return ToolingPolicy{}
	}
	if !caps.SupportsToolCalling {
		return ToolingPolicy{DisabledReason: "provider does not support tool calling"}
	}
	return ToolingPolicy{DisabledReason: fmt.Sprintf("tool reliability set to %s", caps.ToolReliability)}
}
