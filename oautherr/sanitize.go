package oautherr

import "strings"

// Replacement is substituted for every character outside a field's grammar.
const Replacement = '?'

// isNQSChar matches NQSCHAR = %x20-21 / %x23-5B / %x5D-7E (RFC 6749 A).
func isNQSChar(r rune) bool {
	return r == 0x20 || r == 0x21 || (r >= 0x23 && r <= 0x5B) || (r >= 0x5D && r <= 0x7E)
}

// isNQChar matches NQCHAR = %x21 / %x23-5B / %x5D-7E.
func isNQChar(r rune) bool {
	return r != 0x20 && isNQSChar(r)
}

// isVSChar matches VSCHAR = %x20-7E.
func isVSChar(r rune) bool {
	return r >= 0x20 && r <= 0x7E
}

// isScopeChar matches scope-token characters and the space delimiter.
func isScopeChar(r rune) bool {
	return isNQSChar(r)
}

func sanitize(s string, allowed func(rune) bool) string {
	clean := true
	for _, r := range s {
		if !allowed(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowed(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(Replacement)
		}
	}
	return b.String()
}

// SanitizeName sanitizes an error name (NQSCHAR).
func SanitizeName(s string) string { return sanitize(s, isNQSChar) }

// SanitizeDescription sanitizes an error_description value (NQSCHAR).
func SanitizeDescription(s string) string { return sanitize(s, isNQSChar) }

// SanitizeURI sanitizes an error_uri value (NQCHAR, no spaces).
func SanitizeURI(s string) string { return sanitize(s, isNQChar) }

// SanitizeScope sanitizes a space delimited scope list.
func SanitizeScope(s string) string { return sanitize(s, isScopeChar) }

// SanitizeState sanitizes a state value (VSCHAR).
func SanitizeState(s string) string { return sanitize(s, isVSChar) }

// ValidScopeToken reports whether s is a non-empty scope-token (1*NQCHAR).
func ValidScopeToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNQChar(r) {
			return false
		}
	}
	return true
}
