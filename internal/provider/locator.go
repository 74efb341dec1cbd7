package provider

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// desktopBundleMarker identifies the Claude desktop application bundle. Its
// embedded helper binaries are not the CLI and must never be launched.
const desktopBundleMarker = "Claude.app" + string(filepath.Separator)

// Locator finds provider executables.
type Locator struct {
	home       string
	pathEnv    string
	systemDirs []string
	logger     *zap.Logger
}

var defaultSystemDirs = []string{
	"/opt/homebrew/bin",
	"/usr/local/bin",
	"/usr/bin",
	"/bin",
	"/usr/sbin",
	"/sbin",
}

// NewLocator creates a Locator that searches the current user's home
// directory conventions and $PATH.
func NewLocator(logger *zap.Logger) *Locator {
	home, _ := os.UserHomeDir()
	return NewLocatorWithEnv(home, os.Getenv("PATH"), logger)
}

// NewLocatorWithEnv creates a Locator with an explicit home directory and
// PATH value.
func NewLocatorWithEnv(home, pathEnv string, logger *zap.Logger) *Locator {
	return NewLocatorWithDirs(home, pathEnv, defaultSystemDirs, logger)
}

// NewLocatorWithDirs is NewLocatorWithEnv with an explicit list of system
// directories, searched between the home conventions and PATH.
func NewLocatorWithDirs(home, pathEnv string, systemDirs []string, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{home: home, pathEnv: pathEnv, systemDirs: systemDirs, logger: logger}
}

// Resolve returns the absolute path of the executable for p. The explicit
// BinaryPath wins when it exists and is executable; otherwise the search
// falls through to the conventional install locations and then $PATH.
func (l *Locator) Resolve(p Provider) (string, bool) {
	if p.BinaryPath != "" {
		path := expandHome(p.BinaryPath, l.home)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if isExecutable(path) && l.acceptable(p.Type, path) {
			return path, true
		}
		l.logger.Warn("configured binary path is not usable, searching defaults",
			zap.String("provider", p.ID),
			zap.String("binaryPath", p.BinaryPath))
	}

	name := p.Type.BinaryName()
	for _, dir := range l.candidateDirs() {
		path := filepath.Join(dir, name)
		if !isExecutable(path) {
			continue
		}
		if !l.acceptable(p.Type, path) {
			l.logger.Debug("skipping desktop app binary", zap.String("path", path))
			continue
		}
		// Relative PATH entries would not survive the child's working dir.
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return path, true
	}
	return "", false
}

// SearchPath returns a PATH value with the conventional install locations
// first and the inherited PATH after, without duplicates.
func (l *Locator) SearchPath() string {
	return strings.Join(l.candidateDirs(), string(os.PathListSeparator))
}

// NotFound builds the configuration error returned when Resolve fails.
func NotFound(p Provider) *Error {
	hint := "install the " + p.Type.BinaryName() + " CLI or set binaryPath to its absolute path"
	if p.Type == TypeClaudeCode {
		hint = "install the Claude Code CLI (the desktop app binary is not supported) or set binaryPath to its absolute path"
	}
	return configError(p.ID, "no executable found for "+p.Type.BinaryName(), hint)
}

func (l *Locator) acceptable(t Type, path string) bool {
	if t != TypeClaudeCode {
		return true
	}
	if strings.Contains(filepath.Clean(path), desktopBundleMarker) {
		return false
	}
	if real, err := filepath.EvalSymlinks(path); err == nil && strings.Contains(real, desktopBundleMarker) {
		return false
	}
	return true
}

// candidateDirs lists search directories in priority order.
func (l *Locator) candidateDirs() []string {
	var dirs []string
	if l.home != "" {
		h := l.home
		dirs = append(dirs,
			filepath.Join(h, ".claude", "local"),
			filepath.Join(h, ".local", "bin"),
			filepath.Join(h, ".volta", "bin"),
			filepath.Join(h, ".asdf", "shims"),
			filepath.Join(h, ".local", "share", "mise", "shims"),
			filepath.Join(h, ".nodenv", "shims"),
		)
		dirs = append(dirs, nvmBinDirs(h)...)
		dirs = append(dirs,
			filepath.Join(h, ".bun", "bin"),
			filepath.Join(h, ".deno", "bin"),
			filepath.Join(h, ".npm-global", "bin"),
			filepath.Join(h, ".yarn", "bin"),
			filepath.Join(h, ".local", "share", "pnpm"),
			filepath.Join(h, "Library", "pnpm"),
		)
	}
	dirs = append(dirs, l.systemDirs...)
	dirs = append(dirs, filepath.SplitList(l.pathEnv)...)

	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// nvmBinDirs returns the bin directories of installed nvm node versions,
// newest first.
func nvmBinDirs(home string) []string {
	root := filepath.Join(home, ".nvm", "versions", "node")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})
	dirs := make([]string, len(versions))
	for i, v := range versions {
		dirs[i] = filepath.Join(root, v, "bin")
	}
	return dirs
}

// compareVersions compares dotted version strings such as "v20.11.1".
// Non-numeric components compare as zero.
func compareVersions(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x, _ = strconv.Atoi(pa[i])
		}
		if i < len(pb) {
			y, _ = strconv.Atoi(pb[i])
		}
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
