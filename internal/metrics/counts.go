// Package metrics computes tokenization-quality statistics (fertility,
// characters-per-token, word fragmentation rate) over a normalized corpus
// in a single streaming pass. Accumulation goes through an explicit value
// type with a pure, associative merge, so sharded scans combine into the
// same result regardless of merge order.
package metrics

// Counts holds the raw accumulators of a corpus scan. All counters are
// non-negative and grow monotonically.
type Counts struct {
	Words      int64 `json:"total_words"`
	Tokens     int64 `json:"total_tokens"`
	Chars      int64 `json:"total_chars"`
	SplitWords int64 `json:"split_word_count"`
}

// AddWord folds one word into the counts: tokens is the length of the
// word's token sequence, graphemes its user-perceived character count.
// A word is split when it produced more than one token.
func (c Counts) AddWord(tokens, graphemes int) Counts {
	c.Words++
	c.Tokens += int64(tokens)
	c.Chars += int64(graphemes)
	if tokens > 1 {
		c.SplitWords++
	}
	return c
}

// Merge sums two partial counts. Addition of non-negative integers is
// associative and commutative, so shard merge order never matters.
func (c Counts) Merge(o Counts) Counts {
	c.Words += o.Words
	c.Tokens += o.Tokens
	c.Chars += o.Chars
	c.SplitWords += o.SplitWords
	return c
}
