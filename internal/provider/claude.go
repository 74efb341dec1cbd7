package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const claudeDefaultTimeout = 60 * time.Second

// mcpConfigFile is the name of the generated MCP configuration inside the
// per-run working directory.
const mcpConfigFile = "mcp-config.json"

// ClaudeRuntime runs prompts through the Claude Code CLI in print mode.
type ClaudeRuntime struct {
	locator *Locator
	logger  *zap.Logger
	// tempRoot is the parent of per-run working directories. Empty means
	// os.TempDir.
	tempRoot string
}

var _ Runtime = (*ClaudeRuntime)(nil)

// NewClaudeRuntime creates a ClaudeRuntime.
func NewClaudeRuntime(locator *Locator, logger *zap.Logger) *ClaudeRuntime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaudeRuntime{locator: locator, logger: logger}
}

func (r *ClaudeRuntime) Type() Type { return TypeClaudeCode }

func (r *ClaudeRuntime) UsesToolServer() bool { return true }

// Run executes one prompt. The per-run directory holding the MCP
// configuration is removed on success and kept on failure.
func (r *ClaudeRuntime) Run(ctx context.Context, inv Invocation) (string, error) {
	p := inv.Provider
	path, ok := r.locator.Resolve(p)
	if !ok {
		return "", NotFound(p)
	}

	workDir, err := os.MkdirTemp(r.tempRoot, "voxflow-claude-*")
	if err != nil {
		return "", &Error{Kind: KindConfiguration, Provider: p.ID, Message: "create working directory", Err: err}
	}

	var configPath string
	if inv.Endpoint != nil {
		configPath = filepath.Join(workDir, mcpConfigFile)
		if err := writeMCPConfig(configPath, *inv.Endpoint); err != nil {
			os.RemoveAll(workDir)
			return "", &Error{Kind: KindConfiguration, Provider: p.ID, Message: "write MCP configuration", Err: err}
		}
	}

	dir := workDir
	if p.WorkingDirectory != "" {
		dir = expandHome(p.WorkingDirectory, r.locator.home)
	}

	proc := processSpec{
		providerID: p.ID,
		path:       path,
		args:       claudeArgs(inv, configPath),
		dir:        dir,
		env:        childEnv(r.locator.SearchPath()),
		stdin:      inv.Prompt,
		timeout:    timeoutFor(p.TimeoutSeconds, claudeDefaultTimeout),
	}

	start := time.Now()
	res, err := runProcess(ctx, proc)
	if err == nil {
		var text string
		text, err = ParseOutput(p.ID, res.stdout)
		if err == nil {
			os.RemoveAll(workDir)
			r.logger.Debug("claude run complete",
				zap.String("provider", p.ID),
				zap.Duration("elapsed", time.Since(start)))
			return text, nil
		}
	}

	r.logger.Warn("claude run failed, keeping working directory",
		zap.String("provider", p.ID),
		zap.String("dir", workDir),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return "", err
}

func claudeArgs(inv Invocation, configPath string) []string {
	args := []string{"-p", "--output-format", "json"}
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	if inv.Endpoint != nil && configPath != "" {
		args = append(args, "--mcp-config", configPath, "--strict-mcp-config")
		if names := allowedToolNames(*inv.Endpoint); len(names) > 0 {
			args = append(args, "--allowedTools", strings.Join(names, ","))
		}
	}
	if instr := systemInstructions(inv); instr != "" {
		args = append(args, "--append-system-prompt", instr)
	}
	return args
}

// allowedToolNames qualifies tool names the way the CLI expects:
// mcp__<server>__<tool>.
func allowedToolNames(ep ToolEndpoint) []string {
	names := make([]string, len(ep.ToolNames))
	for i, name := range ep.ToolNames {
		names[i] = fmt.Sprintf("mcp__%s__%s", ep.ServerName, name)
	}
	return names
}

func systemInstructions(inv Invocation) string {
	var parts []string
	if inv.Endpoint != nil && strings.TrimSpace(inv.Endpoint.Instructions) != "" {
		parts = append(parts, strings.TrimSpace(inv.Endpoint.Instructions))
	}
	if inv.Tooling != nil && strings.TrimSpace(inv.Tooling.Instructions) != "" {
		parts = append(parts, strings.TrimSpace(inv.Tooling.Instructions))
	}
	return strings.Join(parts, "\n\n")
}

type mcpServerEntry struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type mcpConfig struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

func writeMCPConfig(path string, ep ToolEndpoint) error {
	cfg := mcpConfig{MCPServers: map[string]mcpServerEntry{
		ep.ServerName: {Type: "http", URL: ep.BaseURL},
	}}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
