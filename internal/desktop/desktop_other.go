//go:build !darwin && !linux

package desktop

import (
	"context"

	"go.uber.org/zap"
)

type unsupportedWorkspace struct{}

func newWorkspace(*zap.Logger) Workspace { return unsupportedWorkspace{} }

func (unsupportedWorkspace) LaunchApplication(context.Context, string, bool) error {
	return ErrUnavailable
}

func (unsupportedWorkspace) OpenURL(context.Context, string, bool) error {
	return ErrUnavailable
}

func (unsupportedWorkspace) Applications(context.Context) ([]Application, error) {
	return nil, ErrUnavailable
}

type unsupportedKeyboard struct{}

func newKeyboard() Keyboard { return unsupportedKeyboard{} }

func (unsupportedKeyboard) SendCopy(context.Context) error { return ErrUnavailable }

var (
	nativeChangeCount func(ctx context.Context) (int, error)
	nativeSnapshot    func(ctx context.Context) ([]PasteboardItem, error)
	nativeRestore     func(ctx context.Context, items []PasteboardItem) error
)
