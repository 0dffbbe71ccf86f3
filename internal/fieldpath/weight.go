// internal/fieldpath/weight.go
package fieldpath

import (
	"strconv"

	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Weighting of path expressions against concrete document paths.
 *
 * Rules and generators are keyed by path expressions; comparison walks
 * concrete paths like ["$", "items", "0", "id"]. MatchWeight scores how well
 * an expression addresses a concrete path:
 *
 *   weight = product over tokens of (WeightExact | WeightWildcard)
 *
 * An expression matches when its tokens match a prefix of the concrete path
 * (after the leading "$"), so a rule also governs everything below it.
 * Zero means no match.
 *
 * Selection (Best): longest expression first, then heaviest, then earliest
 * declared.
 */

const (
	// WeightExact scores a Field or Index token equal to the path segment.
	WeightExact = 2

	// WeightWildcard scores a Star or StarIndex token.
	WeightWildcard = 1
)

// MatchWeight returns the weight of tokens against path, or 0 if they do not match.
func MatchWeight(tokens []types.PathToken, path []string) int {
	if len(path) > 0 && path[0] == "$" {
		path = path[1:]
	}
	if len(tokens) > len(path) {
		return 0
	}

	weight := 1
	for i, tok := range tokens {
		seg := path[i]
		switch tok.Kind {
		case types.TokenField:
			if tok.Name != seg {
				return 0
			}
			weight *= WeightExact
		case types.TokenIndex:
			if strconv.Itoa(tok.Index) != seg {
				return 0
			}
			weight *= WeightExact
		case types.TokenStar:
			weight *= WeightWildcard
		case types.TokenStarIndex:
			if _, err := strconv.Atoi(seg); err != nil {
				return 0
			}
			weight *= WeightWildcard
		default:
			return 0
		}
	}
	return weight
}

// Best returns the index of the candidate that best addresses path.
// Returns false when no candidate matches.
func Best(candidates [][]types.PathToken, path []string) (int, bool) {
	best, bestLen, bestWeight := -1, -1, 0
	for i, tokens := range candidates {
		w := MatchWeight(tokens, path)
		if w == 0 {
			continue
		}
		if len(tokens) > bestLen || (len(tokens) == bestLen && w > bestWeight) {
			best, bestLen, bestWeight = i, len(tokens), w
		}
	}
	return best, best >= 0
}
