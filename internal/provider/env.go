package provider

import (
	"os"
	"strings"
)

// childEnv returns the current environment with PATH replaced by pathValue.
// CLI providers are often node scripts that re-exec their interpreter, so
// the child needs the same widened search path the locator used. PWD is
// dropped since the child runs in a different directory.
func childEnv(pathValue string) []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") || strings.HasPrefix(kv, "PWD=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+pathValue)
}
