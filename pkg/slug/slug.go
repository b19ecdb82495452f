package slug

import (
	"strings"
	"unicode"
)

var foldTable = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y',
}

// Make derives a deterministic URL-safe slug from a display name.
// Diacritics common in Portuguese names are folded to ASCII, runs of
// non-alphanumeric characters collapse to a single hyphen, and the
// result is lowercased with no leading or trailing hyphen.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if folded, ok := foldTable[r]; ok {
			r = folded
		}
		// Only ASCII digits survive; unicode.IsDigit would let
		// non-ASCII numerals leak into the slug.
		if (unicode.IsLetter(r) && r < 128) || ('0' <= r && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}
