package provider

import (
	"context"

	"go.uber.org/zap"
)

// ToolHost starts (or reuses) the local tool server and narrows it to the
// given groups.
type ToolHost interface {
	EnsureServer(ctx context.Context, groups []ToolGroup) (ToolEndpoint, error)
}

// Dispatcher runs a single LLM step: it resolves capabilities, applies the
// tooling policy, attaches the tool server when allowed and hands the
// invocation to the runtime for the provider's type.
type Dispatcher struct {
	registry *Registry
	caps     *CapabilityResolver
	tools    ToolHost
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher. tools may be nil, in which case steps
// always run without tools.
func NewDispatcher(registry *Registry, caps *CapabilityResolver, tools ToolHost, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, caps: caps, tools: tools, logger: logger}
}

// RunStep renders the step prompt with input and runs it through p.
func (d *Dispatcher) RunStep(ctx context.Context, p Provider, step Step, input string) (string, error) {
	rt, err := d.registry.Runtime(p.Type)
	if err != nil {
		return "", &Error{Kind: KindConfiguration, Provider: p.ID, Message: "unsupported provider type", Err: err}
	}

	model := step.Model
	if model == "" {
		model = p.DefaultModel
	}
	caps := d.caps.Resolve(p.Type, model)
	policy := EvaluatePolicy(p.Tooling, step.Tooling, caps)
	if policy.DisabledReason != "" {
		d.logger.Info("tooling disabled",
			zap.String("provider", p.ID),
			zap.String("model", model),
			zap.String("reason", policy.DisabledReason))
	}

	inv := Invocation{
		Provider: p,
		Model:    model,
		Prompt:   RenderPrompt(step.PromptTemplate, input),
		Tooling:  policy.Effective,
	}

	if policy.Enabled() {
		switch {
		case !rt.UsesToolServer():
			d.logger.Warn("runtime cannot attach tools, continuing without them",
				zap.String("provider", p.ID),
				zap.String("type", string(p.Type)))
		case d.tools == nil:
			d.logger.Warn("no tool server configured, continuing without tools",
				zap.String("provider", p.ID))
		default:
			ep, err := d.tools.EnsureServer(ctx, policy.Effective.EnabledToolGroups)
			if err != nil {
				return "", &Error{Kind: KindConfiguration, Provider: p.ID, Message: "start tool server", Err: err}
			}
			inv.Endpoint = &ep
		}
	}

	return rt.Run(ctx, inv)
}

// Policy evaluates the provider-level tooling policy for p.
func (d *Dispatcher) Policy(p Provider) (Capabilities, ToolingPolicy) {
	caps := d.caps.Resolve(p.Type, p.DefaultModel)
	return caps, EvaluatePolicy(p.Tooling, nil, caps)
}
