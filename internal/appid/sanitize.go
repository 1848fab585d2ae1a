package appid

import "strings"

// SanitizeDirName produces a workspace-safe directory name: any character
// outside [A-Za-z0-9_.-] becomes '_', runs of '_' collapse, and leading or
// trailing '_' are trimmed. Empty input defaults to "project". This is
// distinct from Derive: directory names keep case and digits-first segments,
// they only need to be tolerable to external toolchains that choke on
// non-ASCII paths.
func SanitizeDirName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "project"
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteRune('_')
			}
			lastUnderscore = true
		default:
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "project"
	}
	return out
}
