// Package desktop abstracts the operating-system services the automation
// tools touch: launching applications, opening URLs, the pasteboard and
// synthetic key presses.
package desktop

import (
	"context"
	"errors"
)

var (
	// ErrApplicationNotFound is returned when no application matches a
	// bundle identifier.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrLaunchFailed is returned when the OS refused to open an
	// application or URL.
	ErrLaunchFailed = errors.New("launch failed")
	// ErrUnavailable is returned when a service is not supported on this
	// platform or session.
	ErrUnavailable = errors.New("desktop service unavailable")
)

// Application describes an installed application.
type Application struct {
	Name             string `json:"name"`
	BundleIdentifier string `json:"bundleIdentifier"`
	Path             string `json:"path"`
	Running          bool   `json:"isRunning"`
}

// Workspace launches applications and URLs.
type Workspace interface {
	LaunchApplication(ctx context.Context, bundleID string, activate bool) error
	OpenURL(ctx context.Context, rawURL string, activate bool) error
	Applications(ctx context.Context) ([]Application, error)
}

// PasteboardItem is one representation held by the pasteboard.
type PasteboardItem struct {
	Type string
	Data []byte
}

// Snapshot is the full pasteboard contents at a point in time.
type Snapshot struct {
	ChangeCount int
	Items       []PasteboardItem
	// Partial is set when the pasteboard held content that could not be
	// read. Restoring a partial snapshot leaves the pasteboard untouched.
	Partial bool
}

// Pasteboard is the system clipboard.
type Pasteboard interface {
	// ChangeCount increases every time the pasteboard contents change.
	ChangeCount(ctx context.Context) (int, error)
	Types(ctx context.Context) ([]string, error)
	// Text returns the plain-text representation; ok is false when there
	// is none.
	Text(ctx context.Context) (text string, ok bool, err error)
	Snapshot(ctx context.Context) (Snapshot, error)
	Restore(ctx context.Context, s Snapshot) error
}

// Keyboard sends synthetic key presses to the frontmost application.
type Keyboard interface {
	SendCopy(ctx context.Context) error
}

// Desktop bundles the platform services.
type Desktop struct {
	Workspace  Workspace
	Pasteboard Pasteboard
	Keyboard   Keyboard
}
