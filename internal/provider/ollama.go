package provider

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const ollamaDefaultTimeout = 30 * time.Second

// OllamaRuntime runs prompts through `ollama run <model>`. It cannot attach
// a tool server.
type OllamaRuntime struct {
	locator *Locator
	logger  *zap.Logger
}

var _ Runtime = (*OllamaRuntime)(nil)

// NewOllamaRuntime creates an OllamaRuntime.
func NewOllamaRuntime(locator *Locator, logger *zap.Logger) *OllamaRuntime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaRuntime{locator: locator, logger: logger}
}

func (r *OllamaRuntime) Type() Type { return TypeOllama }

func (r *OllamaRuntime) UsesToolServer() bool { return false }

func (r *OllamaRuntime) Run(ctx context.Context, inv Invocation) (string, error) {
	p := inv.Provider
	if inv.Model == "" {
		return "", configError(p.ID, "no model configured", "set defaultModel on the provider, e.g. \"llama3.1\"")
	}
	path, ok := r.locator.Resolve(p)
	if !ok {
		return "", NotFound(p)
	}

	res, err := runProcess(ctx, processSpec{
		providerID: p.ID,
		path:       path,
		args:       []string{"run", inv.Model},
		dir:        expandHome(p.WorkingDirectory, r.locator.home),
		env:        childEnv(r.locator.SearchPath()),
		stdin:      inv.Prompt,
		timeout:    timeoutFor(p.TimeoutSeconds, ollamaDefaultTimeout),
	})
	if err != nil {
		r.logger.Warn("ollama run failed", zap.String("provider", p.ID), zap.Error(err))
		return "", err
	}
	return ParseRawOutput(p.ID, res.stdout)
}
