package mcptools

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/voxflow/internal/desktop"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	defaultSelectionTimeout = 800 * time.Millisecond
	minSelectionTimeout     = 50 * time.Millisecond
	maxSelectionTimeout     = 5 * time.Second

	selectionPollInterval = 25 * time.Millisecond
)

// toolGroups maps each tool group to the tools it exposes.
var toolGroups = map[provider.ToolGroup][]string{
	provider.ToolGroupAppControl:     {"openApplication", "openURL"},
	provider.ToolGroupAppDiscovery:   {"listApplications"},
	provider.ToolGroupContextCapture: {"getClipboardText", "getSelectedText"},
}

// ToolNamesFor returns the tools exposed by groups, in group order.
func ToolNamesFor(groups []provider.ToolGroup) []string {
	var names []string
	for _, g := range normalizeGroups(groups) {
		names = append(names, toolGroups[g]...)
	}
	return names
}

// groupSet is an immutable set of allowed tool groups.
type groupSet map[provider.ToolGroup]bool

var bundleIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// AutomationService implements the tool handlers over the desktop services.
type AutomationService struct {
	desktop desktop.Desktop
	logger  *zap.Logger

	allowed atomic.Pointer[groupSet]

	// clipMu serializes selection captures, which temporarily take over
	// the pasteboard.
	clipMu       sync.Mutex
	pollInterval time.Duration
}

// NewAutomationService creates an AutomationService with no tool groups
// allowed.
func NewAutomationService(d desktop.Desktop, logger *zap.Logger) *AutomationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AutomationService{desktop: d, logger: logger, pollInterval: selectionPollInterval}
	s.allowed.Store(&groupSet{})
	return s
}

// SetAllowed replaces the allow-list. A call in flight sees either the old
// or the new set in full.
func (s *AutomationService) SetAllowed(groups []provider.ToolGroup) {
	set := make(groupSet, len(groups))
	for _, g := range groups {
		set[g] = true
	}
	s.allowed.Store(&set)
}

// Allowed returns the currently allowed groups in display order.
func (s *AutomationService) Allowed() []provider.ToolGroup {
	set := *s.allowed.Load()
	var out []provider.ToolGroup
	for _, g := range provider.AllToolGroups {
		if set[g] {
			out = append(out, g)
		}
	}
	return out
}

func (s *AutomationService) require(g provider.ToolGroup) error {
	if (*s.allowed.Load())[g] {
		return nil
	}
	return toolErrorf(CodeToolGroupDisabled, "tool group %s is disabled", g)
}

// OpenApplication launches or focuses an application by bundle identifier.
func (s *AutomationService) OpenApplication(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenApplicationInput,
) (*mcp.CallToolResult, OpenApplicationOutput, error) {
	if err := s.require(provider.ToolGroupAppControl); err != nil {
		return nil, OpenApplicationOutput{}, err
	}

	id := strings.TrimSpace(input.BundleIdentifier)
	if id == "" || len(id) > 255 || !bundleIDPattern.MatchString(id) {
		return nil, OpenApplicationOutput{}, toolErrorf(CodeInvalidBundleIdentifier,
			"invalid bundle identifier %q", input.BundleIdentifier)
	}
	activate := boolOr(input.Activate, true)

	if err := s.desktop.Workspace.LaunchApplication(ctx, id, activate); err != nil {
		if errors.Is(err, desktop.ErrApplicationNotFound) {
			return nil, OpenApplicationOutput{}, toolErrorf(CodeApplicationNotFound, "no application with bundle identifier %s", id)
		}
		s.logger.Warn("launch failed", zap.String("bundleIdentifier", id), zap.Error(err))
		return nil, OpenApplicationOutput{}, toolErrorf(CodeLaunchFailed, "could not open %s: %v", id, err)
	}
	return nil, OpenApplicationOutput{BundleIdentifier: id, Activated: activate}, nil
}

// OpenURL opens an absolute URL with its default handler.
func (s *AutomationService) OpenURL(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenURLInput,
) (*mcp.CallToolResult, OpenURLOutput, error) {
	if err := s.require(provider.ToolGroupAppControl); err != nil {
		return nil, OpenURLOutput{}, err
	}

	raw := strings.TrimSpace(input.URL)
	u, err := url.Parse(raw)
	if raw == "" || err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "" && u.Path == "") {
		return nil, OpenURLOutput{}, toolErrorf(CodeInvalidURL, "invalid URL %q", input.URL)
	}
	activate := boolOr(input.Activate, true)

	if err := s.desktop.Workspace.OpenURL(ctx, u.String(), activate); err != nil {
		s.logger.Warn("open URL failed", zap.String("url", u.String()), zap.Error(err))
		return nil, OpenURLOutput{}, toolErrorf(CodeLaunchFailed, "could not open %s: %v", u.String(), err)
	}
	return nil, OpenURLOutput{URL: u.String(), Activated: activate}, nil
}

// ListApplications returns installed applications matching an optional
// query.
func (s *AutomationService) ListApplications(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListApplicationsInput,
) (*mcp.CallToolResult, ListApplicationsOutput, error) {
	if err := s.require(provider.ToolGroupAppDiscovery); err != nil {
		return nil, ListApplicationsOutput{}, err
	}

	apps, err := s.desktop.Workspace.Applications(ctx)
	if err != nil {
		return nil, ListApplicationsOutput{}, toolErrorf(CodeLaunchFailed, "could not enumerate applications: %v", err)
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	matched := make([]desktop.Application, 0, len(apps))
	for _, app := range apps {
		if query == "" ||
			strings.Contains(strings.ToLower(app.Name), query) ||
			strings.Contains(strings.ToLower(app.BundleIdentifier), query) {
			matched = append(matched, app)
		}
	}

	limit := clampLimit(input.Limit)
	out := ListApplicationsOutput{Total: len(matched), Applications: matched}
	if len(matched) > limit {
		out.Applications = matched[:limit]
		out.Truncated = true
	}
	return nil, out, nil
}

// GetClipboardText reads the pasteboard without modifying it.
func (s *AutomationService) GetClipboardText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClipboardTextInput,
) (*mcp.CallToolResult, GetClipboardTextOutput, error) {
	if err := s.require(provider.ToolGroupContextCapture); err != nil {
		return nil, GetClipboardTextOutput{}, err
	}

	pb := s.desktop.Pasteboard
	types, err := pb.Types(ctx)
	if err != nil {
		return nil, GetClipboardTextOutput{}, toolErrorf(CodeClipboardUnavailable, "could not read clipboard: %v", err)
	}
	text, ok, err := pb.Text(ctx)
	if err != nil {
		return nil, GetClipboardTextOutput{}, toolErrorf(CodeClipboardUnavailable, "could not read clipboard: %v", err)
	}
	sort.Strings(types)
	return nil, GetClipboardTextOutput{Text: text, HasText: ok, Types: types}, nil
}

// GetSelectedText copies the frontmost selection and returns it, leaving
// the pasteboard as it was.
func (s *AutomationService) GetSelectedText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetSelectedTextInput,
) (*mcp.CallToolResult, GetSelectedTextOutput, error) {
	if err := s.require(provider.ToolGroupContextCapture); err != nil {
		return nil, GetSelectedTextOutput{}, err
	}

	text, err := s.captureSelection(ctx, clampSelectionTimeout(input.TimeoutMilliseconds))
	if err != nil {
		return nil, GetSelectedTextOutput{}, err
	}
	return nil, GetSelectedTextOutput{Text: text}, nil
}

func clampLimit(n int) int {
	switch {
	case n == 0:
		return defaultListLimit
	case n < 1:
		return 1
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}

func clampSelectionTimeout(ms int) time.Duration {
	if ms == 0 {
		return defaultSelectionTimeout
	}
	d := time.Duration(ms) * time.Millisecond
	if d < minSelectionTimeout {
		return minSelectionTimeout
	}
	if d > maxSelectionTimeout {
		return maxSelectionTimeout
	}
	return d
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// normalizeGroups drops unknown and duplicate groups and orders the rest.
func normalizeGroups(groups []provider.ToolGroup) []provider.ToolGroup {
	seen := make(map[provider.ToolGroup]bool, len(groups))
	for _, g := range groups {
		seen[g] = true
	}
	var out []provider.ToolGroup
	for _, g := range provider.AllToolGroups {
		if seen[g] {
			out = append(out, g)
		}
	}
	return out
}
