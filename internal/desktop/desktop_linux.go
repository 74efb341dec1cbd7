//go:build linux

package desktop

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// linuxWorkspace treats desktop entry ids ("org.gnome.Nautilus") as bundle
// identifiers.
type linuxWorkspace struct {
	logger *zap.Logger
	dirs   []string
}

func newWorkspace(logger *zap.Logger) Workspace {
	dirs := []string{"/usr/share/applications", "/usr/local/share/applications", "/var/lib/flatpak/exports/share/applications"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append([]string{filepath.Join(home, ".local", "share", "applications")}, dirs...)
	}
	return &linuxWorkspace{logger: logger, dirs: dirs}
}

func (w *linuxWorkspace) LaunchApplication(ctx context.Context, bundleID string, _ bool) error {
	if w.entryPath(bundleID) == "" {
		return ErrApplicationNotFound
	}
	if _, err := command(ctx, "gtk-launch", bundleID); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	return nil
}

func (w *linuxWorkspace) OpenURL(ctx context.Context, rawURL string, _ bool) error {
	if _, err := command(ctx, "xdg-open", rawURL); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	return nil
}

func (w *linuxWorkspace) entryPath(id string) string {
	for _, dir := range w.dirs {
		path := filepath.Join(dir, id+".desktop")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (w *linuxWorkspace) Applications(context.Context) ([]Application, error) {
	running := runningCommands()
	seen := make(map[string]bool)
	var apps []Application
	for _, dir := range w.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			id, ok := strings.CutSuffix(e.Name(), ".desktop")
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			path := filepath.Join(dir, e.Name())
			name, exe, hidden := readDesktopEntry(path)
			if hidden || name == "" {
				continue
			}
			apps = append(apps, Application{
				Name:             name,
				BundleIdentifier: id,
				Path:             path,
				Running:          exe != "" && running[filepath.Base(exe)],
			})
		}
	}
	sort.Slice(apps, func(i, j int) bool { return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name) })
	return apps, nil
}

func readDesktopEntry(path string) (name, exe string, hidden bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", true
	}
	defer f.Close()

	inEntry := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "Name":
			name = value
		case "Exec":
			if fields := strings.Fields(value); len(fields) > 0 {
				exe = fields[0]
			}
		case "NoDisplay", "Hidden":
			if value == "true" {
				hidden = true
			}
		}
	}
	return name, exe, hidden
}

// runningCommands returns the command names of running processes.
func runningCommands() map[string]bool {
	out := make(map[string]bool)
	matches, _ := filepath.Glob("/proc/[0-9]*/comm")
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(string(data))] = true
	}
	return out
}

type xdotoolKeyboard struct{}

func newKeyboard() Keyboard { return xdotoolKeyboard{} }

func (xdotoolKeyboard) SendCopy(ctx context.Context) error {
	_, err := command(ctx, "xdotool", "key", "--clearmodifiers", "ctrl+c")
	return err
}

// Linux has no system-wide change counter.
var (
	nativeChangeCount func(ctx context.Context) (int, error)
	nativeSnapshot    func(ctx context.Context) ([]PasteboardItem, error)
	nativeRestore     func(ctx context.Context, items []PasteboardItem) error
)
