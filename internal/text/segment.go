package text

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Words splits a normalized line into word tokens: maximal runs of
// non-whitespace characters. Punctuation stays attached to its adjoining
// word unless it appears in separators, in which case maximal runs of
// separator runes become standalone words. Empty lines yield no words.
//
// Segmentation is derived on demand from the normalized line; it is never
// stored alongside it.
func Words(line string, separators string) []string {
	fields := strings.Fields(line)
	if separators == "" {
		return fields
	}

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, splitSeparatorRuns(f, separators)...)
	}

	return words
}

// splitSeparatorRuns cuts a whitespace-free field at separator boundaries.
// "hard!!!" with separators "!" yields ["hard", "!!!"]; a field consisting
// only of separators stays one word.
func splitSeparatorRuns(field string, separators string) []string {
	var words []string

	start := 0
	inSep := false
	for i, r := range field {
		sep := strings.ContainsRune(separators, r)
		if i == 0 {
			inSep = sep
			continue
		}
		if sep != inSep {
			words = append(words, field[start:i])
			start = i
			inSep = sep
		}
	}
	words = append(words, field[start:])

	return words
}

// Graphemes counts user-perceived characters (extended grapheme clusters)
// in s. Combining sequences and ZWJ emoji count once, matching the
// character density the CPT metric is after.
func Graphemes(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
