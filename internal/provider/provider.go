// Package provider resolves, configures and invokes the local LLM command-line
// tools that pipeline steps delegate to.
package provider

import (
	"context"
	"strings"
)

// Type identifies a provider implementation.
type Type string

const (
	// TypeClaudeCode is the Claude Code CLI. It supports tool calling through
	// an MCP configuration file.
	TypeClaudeCode Type = "claudeCode"
	// TypeOllama is the Ollama CLI running a local model.
	TypeOllama Type = "ollama"
)

// Valid reports whether t names a known provider type.
func (t Type) Valid() bool {
	switch t {
	case TypeClaudeCode, TypeOllama:
		return true
	}
	return false
}

// BinaryName returns the executable name searched for when no explicit path
// is configured.
func (t Type) BinaryName() string {
	switch t {
	case TypeClaudeCode:
		return "claude"
	case TypeOllama:
		return "ollama"
	default:
		return string(t)
	}
}

// ToolGroup names a set of tools that is enabled or disabled as a unit.
type ToolGroup string

const (
	ToolGroupAppControl     ToolGroup = "appControl"
	ToolGroupAppDiscovery   ToolGroup = "appDiscovery"
	ToolGroupContextCapture ToolGroup = "contextCapture"
)

// AllToolGroups lists every tool group in display order.
var AllToolGroups = []ToolGroup{ToolGroupAppControl, ToolGroupAppDiscovery, ToolGroupContextCapture}

// Valid reports whether g names a known tool group.
func (g ToolGroup) Valid() bool {
	for _, known := range AllToolGroups {
		if g == known {
			return true
		}
	}
	return false
}

// ToolingConfiguration is the set of tool groups a provider or step asks for.
type ToolingConfiguration struct {
	EnabledToolGroups []ToolGroup `json:"enabledToolGroups"`
	Instructions      string      `json:"instructions,omitempty"`
}

// HasGroups reports whether at least one tool group is requested.
func (c *ToolingConfiguration) HasGroups() bool {
	return c != nil && len(c.EnabledToolGroups) > 0
}

// Provider is a configured LLM command-line tool.
type Provider struct {
	ID               string                `json:"id"`
	Name             string                `json:"name,omitempty"`
	Type             Type                  `json:"type"`
	BinaryPath       string                `json:"binaryPath,omitempty"`
	DefaultModel     string                `json:"defaultModel,omitempty"`
	WorkingDirectory string                `json:"workingDirectory,omitempty"`
	TimeoutSeconds   float64               `json:"timeoutSeconds,omitempty"`
	Tooling          *ToolingConfiguration `json:"toolingConfig,omitempty"`
}

// DisplayName returns Name, falling back to ID.
func (p Provider) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Step is the LLM half of a pipeline transformation.
type Step struct {
	ProviderID     string                `json:"providerID"`
	PromptTemplate string                `json:"promptTemplate"`
	Model          string                `json:"model,omitempty"`
	Tooling        *ToolingConfiguration `json:"toolingOverride,omitempty"`
}

// InputPlaceholder is substituted with the step input when rendering a prompt.
const InputPlaceholder = "{{input}}"

// RenderPrompt substitutes input into the template.
func RenderPrompt(template, input string) string {
	return strings.Replace(template, InputPlaceholder, input, 1)
}

// ToolEndpoint describes a running tool server that a runtime can hand to
// its subprocess.
type ToolEndpoint struct {
	BaseURL      string
	ServerName   string
	Instructions string
	// ToolNames are the tools reachable under the current allow-list.
	ToolNames []string
}

// Invocation is everything a runtime needs to run one step.
type Invocation struct {
	Provider Provider
	Model    string
	Prompt   string
	// Tooling is the effective tooling after policy evaluation, nil when
	// tools are off.
	Tooling *ToolingConfiguration
	// Endpoint is set when a tool server was started for this call.
	Endpoint *ToolEndpoint
}

// Runtime runs a prompt through one kind of provider.
type Runtime interface {
	Type() Type
	// UsesToolServer reports whether the runtime can attach a tool endpoint.
	UsesToolServer() bool
	Run(ctx context.Context, inv Invocation) (string, error)
}
