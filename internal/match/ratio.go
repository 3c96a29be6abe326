package match

// Similarity scoring between two strings, measured as
//
//	ratio = 2*M / (len(a) + len(b))
//
// where M is the total size of the longest-matching-block decomposition of
// the two rune sequences (the classic diff measure: repeatedly take the
// longest common contiguous block, then recurse on the pieces to its left
// and right). The ratio is 1.0 for identical strings and 0.0 for strings
// with nothing in common.
//
// Two cheaper bounds never under-estimate the ratio, which is what makes
// pruning on them sound:
//
//	LengthBound: M <= min(len(a), len(b)), so ratio <= 2*min/(la+lb).
//	QuickRatio:  matched runes are at most the multiset intersection of
//	             the two strings' runes.

// Ratio computes the exact similarity ratio in [0, 1].
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	m := newBlockMatcher(ra, rb)
	return 2.0 * float64(m.matchTotal()) / float64(total)
}

// LengthBound returns an upper bound on Ratio(a, b) from lengths alone.
func LengthBound(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	total := la + lb
	if total == 0 {
		return 1.0
	}
	min := la
	if lb < la {
		min = lb
	}
	return 2.0 * float64(min) / float64(total)
}

// QuickRatio returns an upper bound on Ratio(a, b) from rune frequencies:
// the matched total cannot exceed the number of runes the two strings have
// in common counting multiplicity.
func QuickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	counts := make(map[rune]int, len(rb))
	for _, r := range rb {
		counts[r]++
	}
	matches := 0
	for _, r := range ra {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}
	return 2.0 * float64(matches) / float64(total)
}

// blockMatcher finds the longest-matching-block decomposition of a and b.
type blockMatcher struct {
	a, b []rune
	b2j  map[rune][]int // rune -> positions in b, ascending
}

func newBlockMatcher(a, b []rune) *blockMatcher {
	m := &blockMatcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	return m
}

// findLongestMatch returns the longest block of equal runes with
// a[i:i+size] == b[j:j+size], i in [alo,ahi), j in [blo,bhi). Among equal
// sizes the earliest in a, then earliest in b, wins, which keeps the
// decomposition deterministic.
func (m *blockMatcher) findLongestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj, bestsize = alo, blo, 0
	// j2len[j] = length of the longest match ending at a[i] and b[j]
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// matchTotal sums the sizes of all matching blocks.
func (m *blockMatcher) matchTotal() int {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	total := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, k := m.findLongestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}
