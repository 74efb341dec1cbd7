package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)

	// cases.Caser is stateful; serialize use across concurrent runs.
	caserMu sync.Mutex
)

// applyLocal runs a transformation that needs no provider.
func applyLocal(t Transformation, text string) (string, error) {
	switch t.Kind {
	case KindUppercase:
		caserMu.Lock()
		defer caserMu.Unlock()
		return upperCaser.String(text), nil
	case KindLowercase:
		caserMu.Lock()
		defer caserMu.Unlock()
		return lowerCaser.String(text), nil
	case KindTrim:
		return strings.TrimSpace(text), nil
	case KindAffix:
		return t.Prefix + text + t.Suffix, nil
	case KindRegexReplace:
		re, err := compilePattern(t.Pattern)
		if err != nil {
			return "", err
		}
		return re.ReplaceAllString(text, t.Replacement), nil
	default:
		return "", fmt.Errorf("transformation %q: kind %q is not a local operation", t.ID, t.Kind)
	}
}

var patternCache sync.Map // string -> *regexp.Regexp

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
