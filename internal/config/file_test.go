package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/voxflow/internal/orchestrator"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RoundTrips(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, f.Providers)
	require.NotEmpty(t, f.Modes)

	data, err := f.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(f.Catalog(), again.Catalog(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("catalog changed after round trip (-want +got):\n%s", diff)
	}
}

func TestFile_RoundTrips(t *testing.T) {
	claude := provider.Provider{
		ID:               "p-claude",
		Name:             "Claude",
		Type:             provider.TypeClaudeCode,
		BinaryPath:       "/opt/bin/claude",
		DefaultModel:     "sonnet",
		WorkingDirectory: "/tmp/voxflow",
		TimeoutSeconds:   12.5,
		Tooling: &provider.ToolingConfiguration{
			EnabledToolGroups: []provider.ToolGroup{provider.ToolGroupAppControl},
			Instructions:      "only open apps",
		},
	}
	ollama := provider.Provider{ID: "p-ollama", Type: provider.TypeOllama, DefaultModel: "llama3.2", TimeoutSeconds: 90}

	tests := []struct {
		name string
		file File
	}{
		{
			name: "local steps",
			file: File{SchemaVersion: SchemaVersion, Modes: []orchestrator.Mode{{
				ID:            "m-local",
				Name:          "Local",
				VoicePrefixes: []string{"local", "offline mode"},
				BundleIDs:     []string{"com.apple.mail"},
				Pipeline: orchestrator.Pipeline{Enabled: true, Transformations: []orchestrator.Transformation{
					{ID: "t-trim", Enabled: true, Kind: orchestrator.KindTrim},
					{ID: "t-regex", Name: "Collapse", Enabled: true, Kind: orchestrator.KindRegexReplace, Pattern: `\s+`, Replacement: " "},
					{ID: "t-off", Enabled: false, Kind: orchestrator.KindUppercase},
					{ID: "t-affix", Enabled: true, Kind: orchestrator.KindAffix, Prefix: "> ", Suffix: " -- sent by voice"},
				}},
			}}},
		},
		{
			name: "llm steps",
			file: File{SchemaVersion: SchemaVersion, Providers: []provider.Provider{claude, ollama}, Modes: []orchestrator.Mode{{
				ID:            "m-llm",
				Name:          "Ask",
				VoicePrefixes: []string{"ask"},
				Pipeline: orchestrator.Pipeline{Enabled: false, Transformations: []orchestrator.Transformation{
					{ID: "t-claude", Enabled: true, Kind: orchestrator.KindLLM, LLM: &provider.Step{
						ProviderID:     "p-claude",
						PromptTemplate: "Do this: {{input}}",
						Model:          "opus",
						Tooling:        &provider.ToolingConfiguration{EnabledToolGroups: []provider.ToolGroup{}},
					}},
					{ID: "t-ollama", Enabled: false, Kind: orchestrator.KindLLM, LLM: &provider.Step{
						ProviderID:     "p-ollama",
						PromptTemplate: "Fix: {{input}}",
					}},
				}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.file.Marshal()
			require.NoError(t, err)

			got, err := Parse(data)
			require.NoError(t, err)
			assert.False(t, got.IDsAssigned)
			if diff := cmp.Diff(tt.file.Catalog(), got.Catalog(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("catalog changed after round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_StacksAlias(t *testing.T) {
	f, err := Parse([]byte(`{
		"schemaVersion": 1,
		"stacks": [{"id": "m1", "name": "Shout", "pipeline": {"transformations": [{"id": "t1", "kind": "uppercase"}]}}]
	}`))
	require.NoError(t, err)
	require.Len(t, f.Modes, 1)
	assert.Equal(t, "Shout", f.Modes[0].Name)
	assert.True(t, f.Modes[0].Pipeline.Enabled)
	assert.True(t, f.Modes[0].Pipeline.Transformations[0].Enabled)

	data, err := f.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"modes"`)
	assert.NotContains(t, string(data), `"stacks"`)
}

func TestParse_RejectsModesAndStacks(t *testing.T) {
	_, err := Parse([]byte(`{"schemaVersion": 1, "modes": [{"id": "a", "name": "A"}], "stacks": [{"id": "b", "name": "B"}]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "not both")
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing version", `{"modes": []}`, "schemaVersion"},
		{"unknown field", `{"schemaVersion": 1, "extra": true}`, "extra"},
		{"unknown provider type", `{"schemaVersion": 1, "providers": [{"id": "p", "type": "gpt"}]}`, "type"},
		{"template without placeholder", `{"schemaVersion": 1,
			"providers": [{"id": "p", "type": "ollama"}],
			"modes": [{"id": "m", "name": "M", "pipeline": {"transformations": [
				{"id": "t", "kind": "llm", "llm": {"providerID": "p", "promptTemplate": "no input here"}}]}}]}`, "promptTemplate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.want)
		})
	}
}

func TestParse_SemanticErrors(t *testing.T) {
	_, err := Parse([]byte(`{"schemaVersion": 1,
		"providers": [{"id": "p", "type": "ollama"}],
		"modes": [{"id": "m", "name": "M", "pipeline": {"transformations": [
			{"id": "t", "kind": "llm", "llm": {"providerID": "missing", "promptTemplate": "{{input}}"}}]}}]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), `unknown provider "missing"`)
}

func TestParse_AssignsMissingIDs(t *testing.T) {
	f, err := Parse([]byte(`{"schemaVersion": 1,
		"providers": [{"type": "ollama", "defaultModel": "llama3.1"}],
		"modes": [{"name": "M", "pipeline": {"transformations": [{"kind": "trim"}]}}]}`))
	require.NoError(t, err)
	assert.True(t, f.IDsAssigned)

	for _, id := range []string{f.Providers[0].ID, f.Modes[0].ID, f.Modes[0].Pipeline.Transformations[0].ID} {
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "id %q", id)
	}
}

func TestSave_WritesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	f := &File{
		Providers: []provider.Provider{{ID: "p", Type: provider.TypeOllama,
			Tooling: &provider.ToolingConfiguration{}}},
		Modes: []orchestrator.Mode{{ID: "m", Name: "M"}},
	}
	require.NoError(t, Save(path, f))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, "m", loaded.Modes[0].ID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, IsNotExist(err))
}
