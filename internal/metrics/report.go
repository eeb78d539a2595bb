package metrics

import (
	"fmt"
	"io"
	"strconv"
)

// Ratio is a derived metric that may be undefined (empty denominator).
// Undefined is an explicit state, not NaN and not zero, so an empty
// corpus cannot masquerade as a perfectly compact tokenizer.
type Ratio struct {
	Value   float64
	Defined bool
}

func newRatio(num, den int64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: float64(num) / float64(den), Defined: true}
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(r.Value, 'f', 3, 64)
}

// MarshalJSON emits the numeric value, or the string "undefined".
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte(`"undefined"`), nil
	}
	return []byte(strconv.FormatFloat(r.Value, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == `"undefined"` || string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse ratio %q: %w", data, err)
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}

// Report is the finalized metrics output: the raw counters plus the three
// derived ratios. Approximate is set when token pieces could not be
// aligned losslessly back to their source words, meaning character-level
// figures are best-effort.
type Report struct {
	Counts
	Fertility   Ratio `json:"fertility"`
	CPT         Ratio `json:"cpt"`
	WFR         Ratio `json:"wfr"`
	Approximate bool  `json:"approximate,omitempty"`
}

// Finalize derives the ratios from accumulated counts. With zero words
// every ratio is undefined; this is a warning state, not an error.
func Finalize(c Counts, approximate bool) Report {
	return Report{
		Counts:      c,
		Fertility:   newRatio(c.Tokens, c.Words),
		CPT:         newRatio(c.Chars, c.Tokens),
		WFR:         newRatio(c.SplitWords, c.Words),
		Approximate: approximate,
	}
}

// Interpret writes a human-readable evaluation summary with the standard
// quality bands for each metric.
func (r Report) Interpret(w io.Writer) {
	fmt.Fprintf(w, "tokenizer evaluation report\n\n")
	fmt.Fprintf(w, "words: %d  tokens: %d  chars: %d  split words: %d\n\n",
		r.Words, r.Tokens, r.Chars, r.SplitWords)

	if r.Words == 0 {
		fmt.Fprintf(w, "empty corpus: all metrics undefined\n")
		return
	}

	fmt.Fprintf(w, "fertility (tokens per word): %s\n", r.Fertility)
	switch f := r.Fertility.Value; {
	case f < 1.2:
		fmt.Fprintf(w, "  tokens very large; risk of over-merging, consider a smaller vocab\n")
	case f <= 2.0:
		fmt.Fprintf(w, "  healthy token-to-word balance\n")
	case f <= 2.5:
		fmt.Fprintf(w, "  moderate fragmentation; consider a larger vocab\n")
	default:
		fmt.Fprintf(w, "  heavy fragmentation; increase vocab size or switch to unigram\n")
	}

	fmt.Fprintf(w, "cpt (characters per token): %s\n", r.CPT)
	switch c := r.CPT.Value; {
	case !r.CPT.Defined:
		fmt.Fprintf(w, "  undefined (no tokens)\n")
	case c < 2:
		fmt.Fprintf(w, "  character-like tokenization; increase vocab size\n")
	case c < 3.5:
		fmt.Fprintf(w, "  slightly fragmented tokens; acceptable\n")
	case c <= 6:
		fmt.Fprintf(w, "  information-dense tokens; ideal range\n")
	default:
		fmt.Fprintf(w, "  tokens may be too large; risk of memorization\n")
	}

	fmt.Fprintf(w, "wfr (word fragmentation rate): %s\n", r.WFR)
	switch v := r.WFR.Value; {
	case v < 0.2:
		fmt.Fprintf(w, "  very few words split; may be over-merged\n")
	case v <= 0.4:
		fmt.Fprintf(w, "  balanced subword splitting\n")
	case v <= 0.6:
		fmt.Fprintf(w, "  many words split; consider a larger vocab\n")
	default:
		fmt.Fprintf(w, "  over-fragmentation; use a larger vocab or unigram\n")
	}

	if r.Approximate {
		fmt.Fprintf(w, "\nnote: token pieces did not reconstruct every word losslessly; figures are approximate\n")
	}
}
