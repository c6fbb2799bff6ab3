package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes accented letters and strips the combining marks, so
// "marić" becomes "maric" and "müller" becomes "muller".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a name field, removes embedded spaces and folds
// diacritics to base Latin letters. ß maps to a single "s" to keep derived
// usernames stable for rosters created with earlier versions of this tool.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "ß", "s")

	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		return name
	}

	return folded
}
