//go:build darwin

package desktop

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type macWorkspace struct {
	logger *zap.Logger
	roots  []string
}

func newWorkspace(logger *zap.Logger) Workspace {
	roots := []string{"/Applications", "/System/Applications", "/System/Applications/Utilities"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return &macWorkspace{logger: logger, roots: roots}
}

func (w *macWorkspace) LaunchApplication(ctx context.Context, bundleID string, activate bool) error {
	args := []string{"-b", bundleID}
	if !activate {
		args = append([]string{"-g"}, args...)
	}
	if _, err := command(ctx, "open", args...); err != nil {
		if strings.Contains(err.Error(), "Unable to find application") {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	return nil
}

func (w *macWorkspace) OpenURL(ctx context.Context, rawURL string, activate bool) error {
	args := []string{rawURL}
	if !activate {
		args = append([]string{"-g"}, args...)
	}
	if _, err := command(ctx, "open", args...); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	return nil
}

func (w *macWorkspace) Applications(ctx context.Context) ([]Application, error) {
	running := runningExecutables(ctx)
	var apps []Application
	for _, root := range w.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), ".app") {
				continue
			}
			path := filepath.Join(root, e.Name())
			id, err := bundleIdentifier(path)
			if err != nil {
				w.logger.Debug("skipping application", zap.String("path", path), zap.Error(err))
				continue
			}
			apps = append(apps, Application{
				Name:             strings.TrimSuffix(e.Name(), ".app"),
				BundleIdentifier: id,
				Path:             path,
				Running:          running(path),
			})
		}
	}
	sort.Slice(apps, func(i, j int) bool { return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name) })
	return apps, nil
}

// bundleIdentifier reads CFBundleIdentifier from an XML Info.plist. Binary
// plists are converted with plutil.
func bundleIdentifier(appPath string) (string, error) {
	plist := filepath.Join(appPath, "Contents", "Info.plist")
	data, err := os.ReadFile(plist)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(string(data), "bplist") {
		return command(context.Background(), "plutil", "-extract", "CFBundleIdentifier", "raw", "-o", "-", plist)
	}
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var lastKey string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", errors.New("CFBundleIdentifier not found")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "plist" || start.Name.Local == "dict" {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			continue
		}
		switch start.Name.Local {
		case "key":
			lastKey = value
		case "string":
			if lastKey == "CFBundleIdentifier" {
				return strings.TrimSpace(value), nil
			}
			lastKey = ""
		default:
			lastKey = ""
		}
	}
}

// runningExecutables returns a predicate reporting whether any process runs
// from inside the given bundle.
func runningExecutables(ctx context.Context) func(appPath string) bool {
	out, err := command(ctx, "ps", "-axo", "comm=")
	if err != nil {
		return func(string) bool { return false }
	}
	procs := strings.Split(out, "\n")
	return func(appPath string) bool {
		prefix := appPath + "/"
		for _, p := range procs {
			if strings.HasPrefix(strings.TrimSpace(p), prefix) {
				return true
			}
		}
		return false
	}
}

type macKeyboard struct{}

func newKeyboard() Keyboard { return macKeyboard{} }

func (macKeyboard) SendCopy(ctx context.Context) error {
	_, err := command(ctx, "osascript", "-e",
		`tell application "System Events" to keystroke "c" using command down`)
	return err
}

func nativeChangeCount(ctx context.Context) (int, error) {
	out, err := command(ctx, "osascript", "-l", "JavaScript", "-e",
		`ObjC.import("AppKit"); $.NSPasteboard.generalPasteboard.changeCount`)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// pasteboardRep is one representation as exchanged with the JXA scripts.
type pasteboardRep struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

const snapshotScript = `ObjC.import("AppKit");
var items = $.NSPasteboard.generalPasteboard.pasteboardItems;
var out = [];
for (var i = 0; i < items.count; i++) {
	var item = items.objectAtIndex(i);
	var types = item.types;
	for (var j = 0; j < types.count; j++) {
		var t = types.objectAtIndex(j);
		var d = item.dataForType(t);
		if (d.isNil()) continue;
		out.push({type: ObjC.unwrap(t), data: ObjC.unwrap(d.base64EncodedStringWithOptions(0))});
	}
}
JSON.stringify(out);`

const restoreScript = `ObjC.import("AppKit");
function run(argv) {
	var raw = $.NSString.stringWithContentsOfFileEncodingError(argv[0], $.NSUTF8StringEncoding, null);
	var reps = JSON.parse(ObjC.unwrap(raw));
	var pb = $.NSPasteboard.generalPasteboard;
	pb.clearContents;
	if (reps.length === 0) return "0";
	var item = $.NSPasteboardItem.alloc.init;
	reps.forEach(function (r) {
		item.setDataForType($.NSData.alloc.initWithBase64EncodedStringOptions(r.data, 0), r.type);
	});
	pb.writeObjects($([item]));
	return String(reps.length);
}`

// nativeSnapshot reads every representation of every pasteboard item.
// Representations of multiple items are flattened in order.
func nativeSnapshot(ctx context.Context) ([]PasteboardItem, error) {
	out, err := command(ctx, "osascript", "-l", "JavaScript", "-e", snapshotScript)
	if err != nil {
		return nil, err
	}
	var reps []pasteboardRep
	if err := json.Unmarshal([]byte(out), &reps); err != nil {
		return nil, fmt.Errorf("decode pasteboard: %w", err)
	}
	items := make([]PasteboardItem, 0, len(reps))
	for _, r := range reps {
		data, err := base64.StdEncoding.DecodeString(r.Data)
		if err != nil {
			return nil, fmt.Errorf("decode pasteboard %s: %w", r.Type, err)
		}
		items = append(items, PasteboardItem{Type: r.Type, Data: data})
	}
	return items, nil
}

// nativeRestore replaces the pasteboard with items written as one item. The
// payload goes through a temp file since images easily exceed ARG_MAX.
func nativeRestore(ctx context.Context, items []PasteboardItem) error {
	reps := make([]pasteboardRep, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.Type] {
			continue
		}
		seen[it.Type] = true
		reps = append(reps, pasteboardRep{Type: it.Type, Data: base64.StdEncoding.EncodeToString(it.Data)})
	}
	payload, err := json.Marshal(reps)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp("", "voxflow-pasteboard-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = command(ctx, "osascript", "-l", "JavaScript", "-e", restoreScript, f.Name())
	return err
}
