// Package sanitize turns names coming from the ShotGrid site (task content,
// version codes, attachment file names) into safe single path segments.
package sanitize

import (
	"strings"
	"unicode"
)

// invisibleChars are stripped before anything else
var invisibleChars = []string{
	"\u200B", // Zero-width space
	"\u200C", // Zero-width non-joiner
	"\u200D", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"\u00AD", // Soft hyphen
	"\u2060", // Word joiner
	"\u180E", // Mongolian vowel separator
}

// windowsReserved are device names Windows refuses as file names, with or without extension
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Replacement stands in for characters that can't appear in a segment
const Replacement = "_"

// PathSegment returns name as a single file or directory name that is valid on
// every desktop OS. Separators, control characters and the characters Windows
// reserves become Replacement; trailing dots and spaces are dropped. The result
// is never empty, ".", or "..".
func PathSegment(name string) string {
	name = removeInvisibleChars(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteString(Replacement)
		case r == '<' || r == '>' || r == ':' || r == '"' || r == '|' || r == '?' || r == '*':
			b.WriteString(Replacement)
		case unicode.IsControl(r):
			b.WriteString(Replacement)
		default:
			b.WriteRune(r)
		}
	}

	// Windows silently strips these, which would merge distinct names
	seg := strings.TrimRight(strings.TrimSpace(b.String()), ". ")

	if seg == "" || seg == "." || seg == ".." {
		return Replacement
	}

	stem := seg
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if windowsReserved[strings.ToUpper(stem)] {
		seg = Replacement + seg
	}
	return seg
}

// removeInvisibleChars removes zero-width and other invisible Unicode characters
func removeInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
