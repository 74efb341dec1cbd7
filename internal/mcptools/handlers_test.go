package mcptools

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dusk-indust/voxflow/internal/desktop"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(d *testDesktop, groups ...provider.ToolGroup) *AutomationService {
	svc := NewAutomationService(d.services(), nil)
	svc.SetAllowed(groups)
	svc.pollInterval = 5 * time.Millisecond
	return svc
}

func TestOpenApplicationValidation(t *testing.T) {
	d := newTestDesktop("")
	svc := newTestService(d, provider.ToolGroupAppControl)
	ctx := context.Background()

	for _, id := range []string{"", "   ", "com apple", "../etc/passwd", "-flag"} {
		t.Run(fmt.Sprintf("%q", id), func(t *testing.T) {
			_, _, err := svc.OpenApplication(ctx, nil, OpenApplicationInput{BundleIdentifier: id})
			assert.Equal(t, CodeInvalidBundleIdentifier, CodeOf(err))
		})
	}
	assert.Empty(t, d.workspace.Launched())
}

func TestOpenApplicationLaunchFailure(t *testing.T) {
	d := newTestDesktop("")
	d.workspace.LaunchErr = fmt.Errorf("%w: permission denied", desktop.ErrLaunchFailed)
	svc := newTestService(d, provider.ToolGroupAppControl)

	_, _, err := svc.OpenApplication(context.Background(), nil, OpenApplicationInput{BundleIdentifier: "com.apple.Safari"})
	assert.Equal(t, CodeLaunchFailed, CodeOf(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestOpenURLValidation(t *testing.T) {
	d := newTestDesktop("")
	svc := newTestService(d, provider.ToolGroupAppControl)
	ctx := context.Background()

	for _, raw := range []string{"", "example.com", "https://", "not a url", "://missing"} {
		_, _, err := svc.OpenURL(ctx, nil, OpenURLInput{URL: raw})
		assert.Equal(t, CodeInvalidURL, CodeOf(err), "url %q", raw)
	}

	for _, raw := range []string{"https://example.com", "mailto:someone@example.com", "file:///tmp/notes.txt"} {
		_, out, err := svc.OpenURL(ctx, nil, OpenURLInput{URL: raw})
		require.NoError(t, err, "url %q", raw)
		assert.True(t, out.Activated)
	}
	assert.Len(t, d.workspace.Opened(), 3)
}

func TestListApplications(t *testing.T) {
	d := newTestDesktop("")
	svc := newTestService(d, provider.ToolGroupAppDiscovery)
	ctx := context.Background()

	_, out, err := svc.ListApplications(ctx, nil, ListApplicationsInput{Query: "APPLE"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.False(t, out.Truncated)

	_, out, err = svc.ListApplications(ctx, nil, ListApplicationsInput{Query: "slack"})
	require.NoError(t, err)
	require.Len(t, out.Applications, 1)
	assert.Equal(t, "com.tinyspeck.slackmacgap", out.Applications[0].BundleIdentifier)

	_, out, err = svc.ListApplications(ctx, nil, ListApplicationsInput{Limit: -5})
	require.NoError(t, err)
	assert.Len(t, out.Applications, 1)
	assert.Equal(t, 3, out.Total)
	assert.True(t, out.Truncated)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0))
	assert.Equal(t, 1, clampLimit(-1))
	assert.Equal(t, 200, clampLimit(1000))
	assert.Equal(t, 7, clampLimit(7))
}

func TestClampSelectionTimeout(t *testing.T) {
	assert.Equal(t, 800*time.Millisecond, clampSelectionTimeout(0))
	assert.Equal(t, 50*time.Millisecond, clampSelectionTimeout(1))
	assert.Equal(t, 5*time.Second, clampSelectionTimeout(60000))
	assert.Equal(t, 300*time.Millisecond, clampSelectionTimeout(300))
}

func TestGetClipboardTextHasNoSideEffects(t *testing.T) {
	d := newTestDesktop("")
	svc := newTestService(d, provider.ToolGroupContextCapture)
	ctx := context.Background()
	before, _ := d.board.ChangeCount(ctx)

	_, out, err := svc.GetClipboardText(ctx, nil, GetClipboardTextInput{})
	require.NoError(t, err)
	assert.Equal(t, "clipboard before", out.Text)
	assert.True(t, out.HasText)
	assert.Equal(t, []string{"public.rtf", desktop.TextType}, out.Types)

	after, _ := d.board.ChangeCount(ctx)
	assert.Equal(t, before, after)
	assert.Zero(t, d.keyboard.Copies())
}

func TestToolNamesFor(t *testing.T) {
	assert.Equal(t,
		[]string{"openApplication", "openURL", "getClipboardText", "getSelectedText"},
		ToolNamesFor([]provider.ToolGroup{provider.ToolGroupContextCapture, provider.ToolGroupAppControl, provider.ToolGroupAppControl}))
	assert.Empty(t, ToolNamesFor([]provider.ToolGroup{"bogus"}))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", toolErrorf(CodeSelectionEmpty, "nothing"))
	assert.Equal(t, CodeSelectionEmpty, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
