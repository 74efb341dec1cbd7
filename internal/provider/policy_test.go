package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePolicy(t *testing.T) {
	providerTools := &ToolingConfiguration{EnabledToolGroups: []ToolGroup{ToolGroupAppControl}}
	stepTools := &ToolingConfiguration{EnabledToolGroups: []ToolGroup{ToolGroupContextCapture}, Instructions: "be brief"}

	stable := DefaultCapabilities(TypeClaudeCode)
	noTools := DefaultCapabilities(TypeOllama)
	experimental := Capabilities{SupportsToolCalling: true, ToolReliability: ReliabilityExperimental}
	unreliable := Capabilities{SupportsToolCalling: true, ToolReliability: ReliabilityNone}

	tests := []struct {
		name       string
		provider   *ToolingConfiguration
		step       *ToolingConfiguration
		caps       Capabilities
		wantTools  *ToolingConfiguration
		wantReason string
	}{
		{name: "provider tooling passes through", provider: providerTools, caps: stable, wantTools: providerTools},
		{name: "step override wins", provider: providerTools, step: stepTools, caps: stable, wantTools: stepTools},
		{name: "experimental still allowed", step: stepTools, caps: experimental, wantTools: stepTools},
		{name: "nothing requested", caps: stable},
		{name: "no tool calling", provider: providerTools, caps: noTools, wantReason: "provider does not support tool calling"},
		{name: "reliability none", provider: providerTools, caps: unreliable, wantReason: "tool reliability set to none"},
		{name: "nothing requested and unsupported", caps: noTools},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluatePolicy(tt.provider, tt.step, tt.caps)
			assert.Equal(t, tt.wantTools, got.Effective)
			assert.Equal(t, tt.wantReason, got.DisabledReason)
		})
	}
}

func TestEvaluatePolicyIsDeterministic(t *testing.T) {
	tools := &ToolingConfiguration{EnabledToolGroups: []ToolGroup{ToolGroupAppDiscovery}}
	caps := DefaultCapabilities(TypeClaudeCode)

	first := EvaluatePolicy(tools, nil, caps)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EvaluatePolicy(tools, nil, caps))
	}
}

func TestToolingPolicyEnabled(t *testing.T) {
	assert.False(t, ToolingPolicy{}.Enabled())
	assert.False(t, ToolingPolicy{Effective: &ToolingConfiguration{}}.Enabled())
	assert.True(t, ToolingPolicy{Effective: &ToolingConfiguration{
		EnabledToolGroups: []ToolGroup{ToolGroupAppControl},
	}}.Enabled())
}
