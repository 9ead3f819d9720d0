package resolver

import (
	"strings"
	"unicode"
)

// CleanDisplayName normalizes a vendor display name so the remote service
// accepts it: smart quotes become ASCII apostrophes, colons become hyphens,
// control and format characters are stripped, and whitespace is collapsed.
// The function is idempotent.
func CleanDisplayName(name string) string {
	if name == "" {
		return name
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '‘' || r == '’' || r == '′':
			sb.WriteRune('\'')
		case r == ':':
			sb.WriteRune('-')
		case unicode.In(r, unicode.Cc, unicode.Cf):
			// drop control and format characters
		default:
			sb.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
