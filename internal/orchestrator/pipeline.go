package orchestrator

import (
	"context"

	"github.com/dusk-indust/voxflow/internal/provider"
	"go.uber.org/zap"
)

// Executor matches requests to modes and runs their pipelines. Each run
// works on one catalog snapshot, so configuration reloads never affect a
// run in progress.
type Executor struct {
	source   CatalogSource
	runner   StepRunner
	progress *ProgressReporter
	logger   *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithProgress makes the executor emit step events to pr.
func WithProgress(pr *ProgressReporter) ExecutorOption {
	return func(e *Executor) { e.progress = pr }
}

// WithLogger sets the executor logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates an Executor. runner may be nil when no mode uses an
// LLM step.
func NewExecutor(source CatalogSource, runner StepRunner, opts ...ExecutorOption) *Executor {
	e := &Executor{source: source, runner: runner, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Process selects a mode for req and runs its pipeline. When no mode
// matches, the text is returned unchanged.
func (e *Executor) Process(ctx context.Context, req Request) (*Response, error) {
	cat := e.source.Catalog()
	if cat == nil {
		cat = &Catalog{}
	}

	match, ok := MatchMode(cat.Modes, req.Text, req.BundleID)
	if !ok {
		e.logger.Debug("no mode matched", zap.String("bundleID", req.BundleID))
		return &Response{Text: req.Text}, nil
	}

	e.logger.Debug("mode matched",
		zap.String("mode", match.Mode.Name),
		zap.String("prefix", match.Prefix),
		zap.String("bundleID", req.BundleID))

	text, err := e.Run(ctx, cat, match.Mode, match.Text)
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:     text,
		Matched:  true,
		ModeID:   match.Mode.ID,
		ModeName: match.Mode.Name,
		Prefix:   match.Prefix,
	}, nil
}

// Run executes the enabled transformations of mode over input, in order.
// The first failure aborts the run and is returned as is.
func (e *Executor) Run(ctx context.Context, cat *Catalog, mode *Mode, input string) (string, error) {
	if !mode.Pipeline.Enabled {
		return input, nil
	}

	text := input
	for i, t := range mode.Pipeline.Transformations {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ev := ProgressEvent{Mode: mode.Name, Step: i, StepID: t.ID, Kind: t.Kind}
		if !t.Enabled {
			ev.Status = ProgressSkipped
			e.progress.Emit(ev)
			continue
		}

		ev.Status = ProgressWorking
		e.progress.Emit(ev)

		out, err := e.apply(ctx, cat, t, text)
		if err != nil {
			ev.Status = ProgressFailed
			ev.Message = err.Error()
			e.progress.Emit(ev)
			e.logger.Warn("transformation failed",
				zap.String("mode", mode.Name),
				zap.Int("step", i),
				zap.String("kind", string(t.Kind)),
				zap.Error(err))
			return "", err
		}

		text = out
		ev.Status = ProgressComplete
		e.progress.Emit(ev)
	}
	return text, nil
}

func (e *Executor) apply(ctx context.Context, cat *Catalog, t Transformation, text string) (string, error) {
	if t.Kind != KindLLM {
		return applyLocal(t, text)
	}
	if t.LLM == nil {
		return "", &provider.Error{Kind: provider.KindConfiguration, Message: "llm transformation " + t.ID + " has no step"}
	}
	p, ok := cat.Provider(t.LLM.ProviderID)
	if !ok {
		return "", &provider.Error{
			Kind:     provider.KindConfiguration,
			Provider: t.LLM.ProviderID,
			Message:  "provider not found",
			Hint:     "add it under providers or fix providerID",
		}
	}
	if e.runner == nil {
		return "", &provider.Error{Kind: provider.KindConfiguration, Provider: p.ID, Message: "no step runner configured"}
	}
	return e.runner.RunStep(ctx, p, *t.LLM, text)
}
