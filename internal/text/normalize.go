// Package text implements corpus text normalization and word segmentation.
// Normalization is a pure, order-sensitive rule pipeline: Unicode form,
// control-character removal, whitespace collapse, quote folding, case
// folding, digit folding. The Unicode form must run first so later rules
// never see unnormalized combining sequences.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Supported Unicode normalization forms. An empty form skips the step.
const (
	FormNFC  = "nfc"
	FormNFKC = "nfkc"
)

// DefaultPlaceholder is substituted for malformed byte sequences when
// Rules does not configure one.
const DefaultPlaceholder = '�'

// Rules selects which normalization steps run. Each step is independently
// skippable; the application order is fixed regardless of which are enabled.
type Rules struct {
	// Form is the Unicode normalization form: FormNFC, FormNFKC, or empty
	// to leave code points as-is.
	Form string
	// CollapseWhitespace folds any run of Unicode whitespace into a single
	// ASCII space and trims leading/trailing whitespace.
	CollapseWhitespace bool
	// SeparatorPunct lists punctuation runes treated as pure separators:
	// they are detached from adjoining words and emitted as standalone
	// space-delimited tokens, with directly repeated occurrences collapsed
	// to one. Empty leaves punctuation attached to its word.
	SeparatorPunct string
	// FoldQuotes maps typographic quotes and guillemets to straight ASCII
	// quotes.
	FoldQuotes bool
	// FoldCase lower-cases the text.
	FoldCase bool
	// FoldDigits maps script-specific digit glyphs to ASCII digits.
	FoldDigits bool
	// Placeholder replaces malformed byte sequences. Zero means
	// DefaultPlaceholder.
	Placeholder rune
}

// DefaultRules mirrors the trainer-side defaults: NFKC plus whitespace
// collapse, everything else off.
func DefaultRules() Rules {
	return Rules{
		Form:               FormNFKC,
		CollapseWhitespace: true,
	}
}

func (r Rules) placeholder() rune {
	if r.Placeholder == 0 {
		return DefaultPlaceholder
	}
	return r.Placeholder
}

// Normalize applies the rule pipeline to s. It is deterministic, performs
// no I/O, and is idempotent: Normalize(Normalize(s, r), r) == Normalize(s, r).
// Malformed byte sequences are replaced with the configured placeholder
// rather than aborting.
func Normalize(s string, r Rules) string {
	s, _ = Repair(s, r.placeholder())

	switch strings.ToLower(r.Form) {
	case FormNFC:
		s = norm.NFC.String(s)
	case FormNFKC:
		s = norm.NFKC.String(s)
	}

	s = stripControl(s)

	if r.SeparatorPunct != "" {
		s = detachSeparators(s, r.SeparatorPunct)
	}
	if r.CollapseWhitespace || r.SeparatorPunct != "" {
		s = collapseWhitespace(s)
	}
	if r.FoldQuotes {
		s = strings.Map(foldQuote, s)
	}
	if r.FoldCase {
		s = strings.ToLower(s)
	}
	if r.FoldDigits {
		s = strings.Map(foldDigit, s)
	}

	return s
}

// Repair replaces every malformed byte sequence in s with placeholder and
// reports how many replacements were made. Valid input is returned
// unchanged without copying.
func Repair(s string, placeholder rune) (string, int) {
	if utf8.ValidString(s) {
		return s, 0
	}

	var b strings.Builder
	b.Grow(len(s))

	repaired := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(placeholder)
			repaired++
		} else {
			b.WriteRune(r)
		}
		i += size
	}

	return b.String(), repaired
}

// stripControl removes C0 control characters and DEL. Newlines never reach
// the normalizer (input is processed line by line), so this does not eat
// record boundaries.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}

// collapseWhitespace folds runs of Unicode whitespace into one space and
// trims the ends.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return b.String()
}

// detachSeparators surrounds separator runes with spaces so they become
// standalone tokens, collapsing directly repeated occurrences of the same
// rune ("!!!" becomes "!"). The caller is expected to collapse whitespace
// afterwards.
func detachSeparators(s string, separators string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	var prev rune
	for _, r := range s {
		if strings.ContainsRune(separators, r) {
			if r == prev {
				continue
			}
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			prev = r
			continue
		}
		prev = 0
		b.WriteRune(r)
	}

	return b.String()
}

func foldQuote(r rune) rune {
	switch r {
	case '‘', '’', '‚', '‛', '‹', '›':
		return '\''
	case '“', '”', '„', '‟', '«', '»':
		return '"'
	}
	return r
}

// foldDigit maps digit glyphs from scripts whose digits carry no
// word-level semantic difference to their ASCII equivalents. Unknown code
// points pass through unchanged.
func foldDigit(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩': // Arabic-Indic
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹': // Extended Arabic-Indic
		return '0' + (r - '۰')
	case r >= '०' && r <= '९': // Devanagari
		return '0' + (r - '०')
	case r >= '০' && r <= '৯': // Bengali
		return '0' + (r - '০')
	}
	return r
}
