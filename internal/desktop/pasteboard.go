package desktop

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Overridable in tests.
var (
	clipboardReadAll  = clipboard.ReadAll
	clipboardWriteAll = clipboard.WriteAll
)

// systemPasteboard is the OS clipboard. Where the platform exposes every
// representation (macOS) snapshots are exact; elsewhere only plain text is
// carried and unreadable content is left alone on restore.
type systemPasteboard struct {
	mu sync.Mutex
	// Platform hooks; nil when the platform has no native access.
	nativeCount    func(ctx context.Context) (int, error)
	nativeSnapshot func(ctx context.Context) ([]PasteboardItem, error)
	nativeRestore  func(ctx context.Context, items []PasteboardItem) error

	// Emulated counter for platforms without one: bumped whenever the text
	// digest differs from the last observation.
	digest [sha256.Size]byte
	seen   bool
	count  int
}

// NewSystemPasteboard returns the OS clipboard.
func NewSystemPasteboard() Pasteboard {
	return &systemPasteboard{
		nativeCount:    nativeChangeCount,
		nativeSnapshot: nativeSnapshot,
		nativeRestore:  nativeRestore,
	}
}

func (p *systemPasteboard) ChangeCount(ctx context.Context) (int, error) {
	if p.nativeCount != nil {
		if n, err := p.nativeCount(ctx); err == nil {
			return n, nil
		}
	}
	text, _, err := p.Text(ctx)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	d := sha256.Sum256([]byte(text))
	if !p.seen || d != p.digest {
		p.digest = d
		p.seen = true
		p.count++
	}
	return p.count, nil
}

func (p *systemPasteboard) Types(ctx context.Context) ([]string, error) {
	if p.nativeSnapshot != nil {
		if items, err := p.nativeSnapshot(ctx); err == nil {
			types := make([]string, 0, len(items))
			for _, it := range items {
				types = append(types, it.Type)
			}
			return types, nil
		}
	}
	_, ok, err := p.Text(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return []string{TextType}, nil
}

func (p *systemPasteboard) Text(context.Context) (string, bool, error) {
	text, readable, err := p.readText()
	if err != nil || !readable {
		return "", false, err
	}
	return text, text != "", nil
}

// readText reports readable=false when the backend could not produce text.
// Most backends fail the same way for an empty clipboard and for one holding
// only non-text data, so the two cannot be told apart.
func (p *systemPasteboard) readText() (text string, readable bool, err error) {
	if clipboard.Unsupported {
		return "", false, ErrUnavailable
	}
	text, err = clipboardReadAll()
	if err != nil {
		return "", false, nil
	}
	return text, true, nil
}

func (p *systemPasteboard) Snapshot(ctx context.Context) (Snapshot, error) {
	count, err := p.ChangeCount(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{ChangeCount: count}
	if p.nativeSnapshot != nil {
		if items, err := p.nativeSnapshot(ctx); err == nil {
			s.Items = items
			return s, nil
		}
	}
	text, readable, err := p.readText()
	if err != nil {
		return Snapshot{}, err
	}
	switch {
	case !readable:
		s.Partial = true
	case text != "":
		s.Items = []PasteboardItem{{Type: TextType, Data: []byte(text)}}
	}
	return s, nil
}

func (p *systemPasteboard) Restore(ctx context.Context, s Snapshot) error {
	if s.Partial {
		return nil
	}
	if p.nativeRestore != nil {
		if err := p.nativeRestore(ctx, s.Items); err != nil {
			return fmt.Errorf("restore clipboard: %w", err)
		}
		return nil
	}
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	var text string
	for _, it := range s.Items {
		if it.Type == TextType {
			text = string(it.Data)
			break
		}
	}
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("restore clipboard: %w", err)
	}
	return nil
}
