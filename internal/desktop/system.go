package desktop

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// NewSystem returns the desktop services of the running platform.
func NewSystem(logger *zap.Logger) Desktop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Desktop{
		Workspace:  newWorkspace(logger),
		Pasteboard: NewSystemPasteboard(),
		Keyboard:   newKeyboard(),
	}
}

// command runs name with args and returns trimmed stdout. A nonzero exit is
// reported with stderr.
func command(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
