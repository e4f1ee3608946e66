package conversation

import "sort"

// Merge folds new entries into an existing context. The operation is
// idempotent: entries whose MessageID is already present are dropped, and
// merging the same batch twice yields the same result as merging it once.
// The output is ordered by SentAt with insertion sequence as the tie-break,
// so ties never reshuffle between merges.
func Merge(existing, incoming []Entry) []Entry {
	seen := make(map[string]struct{}, len(existing))
	var maxSeq int64
	for _, e := range existing {
		if e.MessageID != "" {
			seen[e.MessageID] = struct{}{}
		}
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
	}

	out := make([]Entry, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	for _, e := range incoming {
		if e.MessageID != "" {
			if _, dup := seen[e.MessageID]; dup {
				continue
			}
			seen[e.MessageID] = struct{}{}
		}
		maxSeq++
		e.Seq = maxSeq
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
