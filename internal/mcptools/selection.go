package mcptools

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// captureSelection copies the current selection through the pasteboard and
// restores the previous pasteboard contents before returning, on every path.
func (s *AutomationService) captureSelection(ctx context.Context, timeout time.Duration) (string, error) {
	s.clipMu.Lock()
	defer s.clipMu.Unlock()

	pb := s.desktop.Pasteboard
	snap, err := pb.Snapshot(ctx)
	if err != nil {
		return "", toolErrorf(CodeClipboardUnavailable, "could not snapshot clipboard: %v", err)
	}
	if snap.Partial {
		s.logger.Warn("clipboard content is not readable and will be left as copied")
	}
	defer func() {
		if err := pb.Restore(context.WithoutCancel(ctx), snap); err != nil {
			s.logger.Warn("clipboard restore failed", zap.Error(err))
		}
	}()

	if err := s.desktop.Keyboard.SendCopy(ctx); err != nil {
		return "", toolErrorf(CodeCopyFailed, "could not send copy: %v", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", toolErrorf(CodeSelectionTimeout, "no selection copied within %s", timeout)
		case <-ticker.C:
			n, err := pb.ChangeCount(ctx)
			if err != nil {
				return "", toolErrorf(CodeClipboardUnavailable, "could not read clipboard: %v", err)
			}
			if n == snap.ChangeCount {
				continue
			}
			text, ok, err := pb.Text(ctx)
			if err != nil {
				return "", toolErrorf(CodeClipboardUnavailable, "could not read clipboard: %v", err)
			}
			if !ok || strings.TrimSpace(text) == "" {
				return "", toolErrorf(CodeSelectionEmpty, "selection contains no text")
			}
			return text, nil
		}
	}
}
