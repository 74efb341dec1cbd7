package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records LLM steps and answers with a fixed transform.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fn    func(p provider.Provider, step provider.Step, input string) (string, error)
}

func (f *fakeRunner) RunStep(_ context.Context, p provider.Provider, step provider.Step, input string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p.ID+":"+input)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(p, step, input)
	}
	return "[" + provider.RenderPrompt(step.PromptTemplate, input) + "]", nil
}

func local(kind TransformationKind) Transformation {
	return Transformation{ID: string(kind), Enabled: true, Kind: kind}
}

func llmStep(providerID string) Transformation {
	return Transformation{ID: "llm", Enabled: true, Kind: KindLLM, LLM: &provider.Step{
		ProviderID:     providerID,
		PromptTemplate: "polish: {{input}}",
	}}
}

func singleMode(steps ...Transformation) *Catalog {
	return &Catalog{
		Providers: []provider.Provider{{ID: "claude", Type: provider.TypeClaudeCode}},
		Modes: []Mode{{
			ID:       "m",
			Name:     "Mode",
			Pipeline: Pipeline{Enabled: true, Transformations: steps},
		}},
	}
}

func TestExecutorTrimThenUppercase(t *testing.T) {
	e := NewExecutor(singleMode(local(KindTrim), local(KindUppercase)), nil)

	resp, err := e.Process(context.Background(), Request{Text: "  hi "})
	require.NoError(t, err)
	assert.Equal(t, "HI", resp.Text)
	assert.True(t, resp.Matched)
	assert.Equal(t, "m", resp.ModeID)
}

func TestExecutorDisabledStepsPassThrough(t *testing.T) {
	upper := local(KindUppercase)
	upper.Enabled = false
	cat := singleMode(local(KindTrim), upper)

	resp, err := NewExecutor(cat, nil).Process(context.Background(), Request{Text: "  hi "})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)

	cat.Modes[0].Pipeline.Enabled = false
	resp, err = NewExecutor(cat, nil).Process(context.Background(), Request{Text: "  hi "})
	require.NoError(t, err)
	assert.Equal(t, "  hi ", resp.Text)
}

func TestExecutorRunsLLMStep(t *testing.T) {
	runner := &fakeRunner{}
	e := NewExecutor(singleMode(local(KindTrim), llmStep("claude"), local(KindUppercase)), runner)

	resp, err := e.Process(context.Background(), Request{Text: " draft "})
	require.NoError(t, err)
	assert.Equal(t, "[POLISH: DRAFT]", resp.Text)
	assert.Equal(t, []string{"claude:draft"}, runner.calls)
}

func TestExecutorFirstFailureAborts(t *testing.T) {
	want := &provider.Error{Kind: provider.KindProcessFailure, Provider: "claude", Message: "process failed", ExitCode: 1, Stderr: "rate limited"}
	runner := &fakeRunner{fn: func(provider.Provider, provider.Step, string) (string, error) {
		return "", want
	}}
	pr := NewProgressReporter()
	e := NewExecutor(singleMode(llmStep("claude"), local(KindUppercase)), runner, WithProgress(pr))

	_, err := e.Process(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	assert.Same(t, want, err)
	assert.Contains(t, err.Error(), "rate limited")

	pr.Close()
	var statuses []ProgressStatus
	for ev := range pr.Subscribe() {
		statuses = append(statuses, ev.Status)
	}
	assert.Equal(t, []ProgressStatus{ProgressWorking, ProgressFailed}, statuses, "later steps never start")
}

func TestExecutorMissingProvider(t *testing.T) {
	e := NewExecutor(singleMode(llmStep("ghost")), &fakeRunner{})

	_, err := e.Process(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	assert.True(t, provider.IsKind(err, provider.KindConfiguration))
	assert.Contains(t, err.Error(), "provider not found")
}

func TestExecutorCancelledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{fn: func(_ provider.Provider, _ provider.Step, input string) (string, error) {
		cancel()
		return input, nil
	}}
	e := NewExecutor(singleMode(llmStep("claude"), local(KindUppercase)), runner)

	_, err := e.Process(ctx, Request{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutorNoMatch(t *testing.T) {
	cat := singleMode(local(KindUppercase))
	cat.Modes[0].VoicePrefixes = []string{"hex"}

	resp, err := NewExecutor(cat, nil).Process(context.Background(), Request{Text: "leave me alone"})
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, "leave me alone", resp.Text)
}

func TestExecutorVoicePrefixScenario(t *testing.T) {
	cat := &Catalog{Modes: []Mode{
		{ID: "plain", Name: "Plain"},
		{ID: "hex", Name: "Hex", VoicePrefixes: []string{"hex"}, Pipeline: Pipeline{
			Enabled:         true,
			Transformations: []Transformation{local(KindUppercase)},
		}},
	}}

	resp, err := NewExecutor(cat, nil).Process(context.Background(), Request{Text: "hex fix this", BundleID: "com.apple.Notes"})
	require.NoError(t, err)
	assert.Equal(t, "FIX THIS", resp.Text)
	assert.Equal(t, "hex", resp.ModeID)
	assert.Equal(t, "hex", resp.Prefix)
}

func TestExecutorProgressEvents(t *testing.T) {
	skipped := local(KindLowercase)
	skipped.Enabled = false
	pr := NewProgressReporter()
	e := NewExecutor(singleMode(local(KindTrim), skipped), nil, WithProgress(pr))

	_, err := e.Process(context.Background(), Request{Text: " a "})
	require.NoError(t, err)
	pr.Close()

	var got []string
	for ev := range pr.Subscribe() {
		got = append(got, string(ev.Kind)+"/"+string(ev.Status))
	}
	assert.Equal(t, []string{"trim/working", "trim/complete", "lowercase/skipped"}, got)
}

// switchingSource hands out a new catalog on every call.
type switchingSource struct {
	mu   sync.Mutex
	cats []*Catalog
	n    int
}

func (s *switchingSource) Catalog() *Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cats[s.n%len(s.cats)]
	s.n++
	return c
}

func TestExecutorUsesOneSnapshotPerRun(t *testing.T) {
	first := singleMode(llmStep("claude"))
	second := &Catalog{} // no providers: would fail the LLM step
	src := &switchingSource{cats: []*Catalog{first, second}}

	resp, err := NewExecutor(src, &fakeRunner{}).Process(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Text, "[polish"))
}

func TestExecutorLocalErrorsAreReturned(t *testing.T) {
	bad := Transformation{ID: "bad", Enabled: true, Kind: KindRegexReplace, Pattern: "(["}
	_, err := NewExecutor(singleMode(bad), nil).Process(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
