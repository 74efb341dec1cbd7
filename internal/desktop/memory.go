package desktop

import (
	"bytes"
	"context"
	"strings"
	"sync"
)

// TextType is the pasteboard type used for plain text.
const TextType = "public.utf8-plain-text"

// MemoryPasteboard is an in-process Pasteboard with typed items and a
// change counter.
type MemoryPasteboard struct {
	mu          sync.Mutex
	changeCount int
	items       []PasteboardItem
}

var _ Pasteboard = (*MemoryPasteboard)(nil)

// NewMemoryPasteboard creates a MemoryPasteboard holding items.
func NewMemoryPasteboard(items ...PasteboardItem) *MemoryPasteboard {
	return &MemoryPasteboard{items: cloneItems(items)}
}

// SetItems replaces the contents and bumps the change count.
func (p *MemoryPasteboard) SetItems(items ...PasteboardItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = cloneItems(items)
	p.changeCount++
}

// SetText replaces the contents with a single text item.
func (p *MemoryPasteboard) SetText(text string) {
	p.SetItems(PasteboardItem{Type: TextType, Data: []byte(text)})
}

// Items returns a copy of the current contents.
func (p *MemoryPasteboard) Items() []PasteboardItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneItems(p.items)
}

func (p *MemoryPasteboard) ChangeCount(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changeCount, nil
}

func (p *MemoryPasteboard) Types(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.items))
	for i, it := range p.items {
		types[i] = it.Type
	}
	return types, nil
}

func (p *MemoryPasteboard) Text(context.Context) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		if it.Type == TextType {
			return string(it.Data), true, nil
		}
	}
	return "", false, nil
}

func (p *MemoryPasteboard) Snapshot(context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{ChangeCount: p.changeCount, Items: cloneItems(p.items)}, nil
}

func (p *MemoryPasteboard) Restore(_ context.Context, s Snapshot) error {
	p.SetItems(s.Items...)
	return nil
}

func cloneItems(items []PasteboardItem) []PasteboardItem {
	out := make([]PasteboardItem, len(items))
	for i, it := range items {
		out[i] = PasteboardItem{Type: it.Type, Data: bytes.Clone(it.Data)}
	}
	return out
}

// SelectionKeyboard simulates copying a text selection into a
// MemoryPasteboard. An empty selection copies nothing and leaves the change
// count untouched, like copying in an app with no selection.
type SelectionKeyboard struct {
	mu        sync.Mutex
	board     *MemoryPasteboard
	selection string
	copies    int
	// Err, when set, is returned by SendCopy.
	Err error
}

var _ Keyboard = (*SelectionKeyboard)(nil)

// NewSelectionKeyboard creates a SelectionKeyboard writing into board.
func NewSelectionKeyboard(board *MemoryPasteboard, selection string) *SelectionKeyboard {
	return &SelectionKeyboard{board: board, selection: selection}
}

// Copies returns how many times SendCopy was called.
func (k *SelectionKeyboard) Copies() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.copies
}

func (k *SelectionKeyboard) SendCopy(context.Context) error {
	k.mu.Lock()
	k.copies++
	sel, err := k.selection, k.Err
	k.mu.Unlock()
	if err != nil {
		return err
	}
	if sel != "" {
		k.board.SetText(sel)
	}
	return nil
}

// MemoryWorkspace is an in-process Workspace over a fixed application list.
type MemoryWorkspace struct {
	mu       sync.Mutex
	apps     []Application
	launched []string
	opened   []string
	// LaunchErr, when set, is returned for known applications and URLs.
	LaunchErr error
}

var _ Workspace = (*MemoryWorkspace)(nil)

// NewMemoryWorkspace creates a MemoryWorkspace with apps installed.
func NewMemoryWorkspace(apps ...Application) *MemoryWorkspace {
	return &MemoryWorkspace{apps: apps}
}

// Launched returns the bundle identifiers passed to LaunchApplication.
func (w *MemoryWorkspace) Launched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.launched...)
}

// Opened returns the URLs passed to OpenURL.
func (w *MemoryWorkspace) Opened() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.opened...)
}

func (w *MemoryWorkspace) LaunchApplication(_ context.Context, bundleID string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, app := range w.apps {
		if strings.EqualFold(app.BundleIdentifier, bundleID) {
			if w.LaunchErr != nil {
				return w.LaunchErr
			}
			w.apps[i].Running = true
			w.launched = append(w.launched, bundleID)
			return nil
		}
	}
	return ErrApplicationNotFound
}

func (w *MemoryWorkspace) OpenURL(_ context.Context, rawURL string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.LaunchErr != nil {
		return w.LaunchErr
	}
	w.opened = append(w.opened, rawURL)
	return nil
}

func (w *MemoryWorkspace) Applications(context.Context) ([]Application, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Application(nil), w.apps...), nil
}
