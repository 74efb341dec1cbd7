package provider

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLocatorExplicitPath(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	bin := writeExecutable(t, filepath.Join(home, "tools"), "my-claude", "exit 0\n")

	l := isolatedLocator(home, "")
	got, ok := l.Resolve(Provider{ID: "c", Type: TypeClaudeCode, BinaryPath: bin})
	require.True(t, ok)
	assert.Equal(t, bin, got)

	got, ok = l.Resolve(Provider{ID: "c", Type: TypeClaudeCode, BinaryPath: "~/tools/my-claude"})
	require.True(t, ok)
	assert.Equal(t, bin, got)
}

func TestLocatorMissingExplicitPathFallsThrough(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLocatorWithEnv(home, "", zap.New(core))
	l.systemDirs = nil

	p := Provider{ID: "c", Type: TypeClaudeCode, BinaryPath: "/nonexistent/claude"}
	got, ok := l.Resolve(p)
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Equal(t, 1, logs.FilterMessage("configured binary path is not usable, searching defaults").Len())

	err := NotFound(p)
	assert.Equal(t, KindConfiguration, err.Kind)
	assert.Contains(t, err.Error(), "set binaryPath")

	// Once a conventional install appears, the same provider resolves.
	want := writeExecutable(t, filepath.Join(home, ".local", "bin"), "claude", "exit 0\n")
	got, ok = l.Resolve(p)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLocatorSearchOrder(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	pathDir := t.TempDir()
	writeExecutable(t, pathDir, "claude", "exit 0\n")
	nvmOld := writeExecutable(t, filepath.Join(home, ".nvm", "versions", "node", "v9.11.2", "bin"), "claude", "exit 0\n")
	nvmNew := writeExecutable(t, filepath.Join(home, ".nvm", "versions", "node", "v20.11.1", "bin"), "claude", "exit 0\n")

	l := isolatedLocator(home, pathDir)
	p := Provider{ID: "c", Type: TypeClaudeCode}

	got, ok := l.Resolve(p)
	require.True(t, ok)
	assert.Equal(t, nvmNew, got, "newest nvm version wins over older versions and PATH")

	require.NoError(t, os.Remove(nvmNew))
	got, _ = l.Resolve(p)
	assert.Equal(t, nvmOld, got)

	local := writeExecutable(t, filepath.Join(home, ".claude", "local"), "claude", "exit 0\n")
	got, _ = l.Resolve(p)
	assert.Equal(t, local, got, "provider-local install comes first")
}

func TestLocatorRelativePathEntryIsAbsolute(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	work := t.TempDir()
	want := writeExecutable(t, filepath.Join(work, "bin"), "ollama", "exit 0\n")
	t.Chdir(work)

	got, ok := isolatedLocator(home, "bin").Resolve(Provider{ID: "o", Type: TypeOllama})
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(got))
	wantReal, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, wantReal, gotReal)
}

func TestLocatorIgnoresNonExecutable(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	dir := filepath.Join(home, ".local", "bin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ollama"), []byte("data"), 0o644))

	_, ok := isolatedLocator(home, "").Resolve(Provider{ID: "o", Type: TypeOllama})
	assert.False(t, ok)
}

func TestLocatorRejectsDesktopBundle(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	bundleBin := writeExecutable(t,
		filepath.Join(home, "Applications", "Claude.app", "Contents", "Resources"), "claude", "exit 0\n")

	// Explicit path inside the bundle is rejected.
	l := isolatedLocator(home, filepath.Dir(bundleBin))
	_, ok := l.Resolve(Provider{ID: "c", Type: TypeClaudeCode, BinaryPath: bundleBin})
	assert.False(t, ok)

	// A symlink pointing into the bundle is rejected too.
	linkDir := filepath.Join(home, ".local", "bin")
	require.NoError(t, os.MkdirAll(linkDir, 0o755))
	require.NoError(t, os.Symlink(bundleBin, filepath.Join(linkDir, "claude")))
	_, ok = isolatedLocator(home, "").Resolve(Provider{ID: "c", Type: TypeClaudeCode})
	assert.False(t, ok)

	// Other provider types are not subject to the rule.
	writeExecutable(t, filepath.Dir(bundleBin), "ollama", "exit 0\n")
	got, ok := l.Resolve(Provider{ID: "o", Type: TypeOllama})
	require.True(t, ok)
	assert.True(t, strings.Contains(got, "Claude.app"))
}

func TestLocatorSearchPath(t *testing.T) {
	home := t.TempDir()
	l := NewLocatorWithEnv(home, "/custom/bin"+string(os.PathListSeparator)+"/usr/bin", nil)

	dirs := filepath.SplitList(l.SearchPath())
	require.NotEmpty(t, dirs)
	assert.Equal(t, filepath.Join(home, ".claude", "local"), dirs[0])
	assert.Equal(t, "/custom/bin", dirs[len(dirs)-1], "inherited PATH comes last")

	count := 0
	for _, d := range dirs {
		if d == "/usr/bin" {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicates are removed")
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 1, compareVersions("v20.1.0", "v9.11.2"))
	assert.Equal(t, -1, compareVersions("v18.0.0", "v18.0.1"))
	assert.Equal(t, 0, compareVersions("v18.0", "v18.0.0"))
}
