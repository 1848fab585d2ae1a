package appid

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const packagePrefix = "com.vibecoding."

var nonPackageChars = regexp.MustCompile(`[^a-z0-9]+`)

// asciiFolder strips combining marks left behind by NFKD decomposition, so
// accented Latin input ("café") folds to plain ASCII ("cafe") instead of
// being discarded outright by the [a-z0-9] filter.
var asciiFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Derive computes a Java package identifier from an arbitrary display name,
// per the derivation rules: fold to ASCII lowercase, collapse everything
// outside [a-z0-9] into '.', repair each segment so it forms a valid Java
// identifier, and prefix with com.vibecoding.
//
// The result always matches ^com\.vibecoding\.[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$.
func Derive(appName string) string {
	folded, _, _ := transform.String(asciiFolder, strings.ToLower(appName))

	collapsed := nonPackageChars.ReplaceAllString(folded, ".")
	collapsed = strings.Trim(collapsed, ".")
	if collapsed == "" {
		collapsed = "app"
	}

	segments := strings.Split(collapsed, ".")
	for i, seg := range segments {
		if seg == "" {
			seg = fmt.Sprintf("app%d", i)
		}
		if r := []rune(seg)[0]; r < 'a' || r > 'z' {
			seg = "a" + seg
		}
		segments[i] = seg
	}
	return packagePrefix + strings.Join(segments, ".")
}

// Validate reports whether id already looks like a derived (or hand-authored
// but well-formed) package identifier.
func Validate(id string) bool {
	if !strings.HasPrefix(id, packagePrefix) {
		return false
	}
	suffix := strings.TrimPrefix(id, packagePrefix)
	if suffix == "" {
		return false
	}
	for _, seg := range strings.Split(suffix, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			switch {
			case i == 0 && (r < 'a' || r > 'z'):
				return false
			case i > 0 && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9'):
				return false
			}
		}
	}
	return true
}
