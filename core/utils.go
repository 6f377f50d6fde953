package core

import (
	"regexp"
	"strings"
	"unicode"
)

var slugInvalidRegex = regexp.MustCompile(`[^a-z0-9]+`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every element of ss, dropping blanks and duplicates.
func CleanStrings(ss []string, lower ...bool) []string {
	if ss == nil {
		return nil
	}
	seen := make(map[string]bool, len(ss))
	res := make([]string, 0, len(ss))
	for _, s := range ss {
		s = CleanString(s, lower...)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		res = append(res, s)
	}
	return res
}

// Slugify turns `s` into a lowercase, hyphen separated URL fragment.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		case strings.ContainsRune("àáâãäå", r):
			b.WriteRune('a')
		case strings.ContainsRune("èéêë", r):
			b.WriteRune('e')
		case strings.ContainsRune("ìíîï", r):
			b.WriteRune('i')
		case strings.ContainsRune("òóôõö", r):
			b.WriteRune('o')
		case strings.ContainsRune("ùúûü", r):
			b.WriteRune('u')
		case r == 'ç':
			b.WriteRune('c')
		case r == 'ñ':
			b.WriteRune('n')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Trim(slugInvalidRegex.ReplaceAllString(b.String(), "-"), "-")
}

// ContainsString reports whether s is in list.
func ContainsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func BoolPtr(b bool) *bool { return &b }
