package canon

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Blocks larger than this share a sequential number too generic to compare pairwise
const maxFuzzyBlock = 256

// DefaultFuzzyThreshold is the normalized edit distance below which two
// digit strings are considered the same number
const DefaultFuzzyThreshold = 0.10

// NormalizedDistance is the Levenshtein distance divided by the longer length
func NormalizedDistance(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// Link groups raw numbers under the fuzzy strategy. Two numbers are linked
// when they share any component core, or when their digit strings share a
// sequential number and sit within threshold normalized edit distance.
// Links are transitive. labels[i] is the group label of raws[i], or "" with
// errs[i] set when the number is unresolvable.
func (c *Canonicalizer) Link(raws []string, threshold float64) (labels []string, errs []error) {
	labels = make([]string, len(raws))
	errs = make([]error, len(raws))
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	uf := newUnionFind(len(raws))
	primary := make([]string, len(raws))
	owners := make(map[string]int)
	blocks := make(map[string][]int)

	for i, raw := range raws {
		cores, err := c.Cores(raw, Fuzzy)
		if err != nil {
			errs[i] = err
			continue
		}
		primary[i] = strings.TrimPrefix(cores[0], "fw:")
		for _, core := range cores {
			if owner, ok := owners[core]; ok {
				uf.union(i, owner)
			} else {
				owners[core] = i
			}
		}
		digits := c.Digits(raw)
		block := digits[:seqEnd]
		blocks[block] = append(blocks[block], i)
	}

	for _, members := range blocks {
		if len(members) < 2 || len(members) > maxFuzzyBlock {
			continue
		}
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				i, j := members[a], members[b]
				if uf.find(i) == uf.find(j) {
					continue
				}
				if NormalizedDistance(c.Digits(raws[i]), c.Digits(raws[j])) < threshold {
					uf.union(i, j)
				}
			}
		}
	}

	// Label each component by its smallest primary core so the result does
	// not depend on input order.
	best := make(map[int]string)
	for i := range raws {
		if errs[i] != nil {
			continue
		}
		root := uf.find(i)
		if cur, ok := best[root]; !ok || primary[i] < cur {
			best[root] = primary[i]
		}
	}
	for i := range raws {
		if errs[i] != nil {
			continue
		}
		labels[i] = "fuzzy:" + best[uf.find(i)]
	}
	return labels, errs
}

// Groups is a convenience over Link that returns member indices per label,
// with labels sorted.
func Groups(labels []string) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for i, l := range labels {
		if l == "" {
			continue
		}
		groups[l] = append(groups[l], i)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
