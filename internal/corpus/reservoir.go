package corpus

import (
	"math/rand"
)

// reservoir keeps a uniform random sample of at most k lines from a
// stream of unknown length (algorithm R). Memory stays bounded by k no
// matter how large the stream is.
type reservoir struct {
	k     int
	rng   *rand.Rand
	seen  int64
	lines []string
}

func newReservoir(k int, seed int64) *reservoir {
	return &reservoir{
		k:     k,
		rng:   rand.New(rand.NewSource(seed)),
		lines: make([]string, 0, k),
	}
}

// offer considers one line for inclusion. After n offers every line has
// been kept with probability min(1, k/n).
func (r *reservoir) offer(line string) {
	r.seen++
	if len(r.lines) < r.k {
		r.lines = append(r.lines, line)
		return
	}

	j := r.rng.Int63n(r.seen)
	if j < int64(r.k) {
		r.lines[j] = line
	}
}

// Lines returns the sampled lines in reservoir order.
func (r *reservoir) Lines() []string { return r.lines }

// mergeReservoirs combines per-shard reservoirs into one uniform k-sample
// of the union stream. Independent per-shard sampling alone would not be
// uniform: a shard that saw fewer lines would be overrepresented. Per-shard
// draw counts must follow the multivariate hypergeometric distribution over
// the shard stream sizes, realized sequentially: each draw picks a shard
// with probability proportional to its remaining stream size and removes
// exactly one stream element from it. The drawn lines are a uniform random
// subset of the shard's reservoir, which is itself a uniform sample, so the
// composition is uniform over the union stream.
func mergeReservoirs(shards []*reservoir, k int, seed int64) *reservoir {
	rng := rand.New(rand.NewSource(seed))

	merged := &reservoir{k: k, rng: rng}
	for _, s := range shards {
		merged.seen += s.seen
	}

	// Fewer candidates than k: keep everything.
	candidates := 0
	for _, s := range shards {
		candidates += len(s.lines)
	}
	if candidates <= k {
		for _, s := range shards {
			merged.lines = append(merged.lines, s.lines...)
		}
		return merged
	}

	type source struct {
		lines     []string // shuffled copy, consumed from the end
		remaining int64    // stream elements still drawable from this shard
	}

	sources := make([]*source, 0, len(shards))
	total := int64(0)
	for _, s := range shards {
		if len(s.lines) == 0 {
			continue
		}
		lines := append([]string(nil), s.lines...)
		rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
		sources = append(sources, &source{lines: lines, remaining: s.seen})
		total += s.seen
	}

	for len(merged.lines) < k && total > 0 {
		pick := rng.Int63n(total)
		var chosen *source
		for _, s := range sources {
			if pick < s.remaining {
				chosen = s
				break
			}
			pick -= s.remaining
		}

		last := len(chosen.lines) - 1
		merged.lines = append(merged.lines, chosen.lines[last])
		chosen.lines = chosen.lines[:last]
		chosen.remaining--
		total--

		// A shard whose reservoir ran dry cannot represent its leftover
		// stream mass; withdraw it so the remaining draws stay well-formed.
		if len(chosen.lines) == 0 {
			total -= chosen.remaining
			chosen.remaining = 0
		}
	}

	return merged
}
