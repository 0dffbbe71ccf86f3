// internal/fieldpath/parse.go
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Path expression parsing.
 *
 * Grammar (leading "$" optional):
 *   .name | ['name'] | ["name"]   -> Field
 *   [N]                           -> Index
 *   .* | *                        -> Star
 *   [*]                           -> StarIndex
 *
 * The root "$" produces no token. Parsing happens once per expression; the
 * resulting slice is never mutated by traversal.
 */

// Parse converts a path expression into tokens.
// Returns ErrInvalidPath (wrapped with position) for malformed input and
// ErrPathTooDeep when the expression exceeds MaxPathDepth tokens.
func Parse(expr string) ([]types.PathToken, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "$")

	tokens := make([]types.PathToken, 0, 4)
	pos := 0
	for pos < len(s) {
		var tok types.PathToken
		var err error
		switch s[pos] {
		case '.':
			tok, pos, err = parseDotted(s, pos+1)
		case '[':
			tok, pos, err = parseBracket(s, pos+1)
		case '*':
			tok, pos = types.Star(), pos+1
		default:
			if pos != 0 {
				return nil, invalid(expr, pos, "expected '.' or '['")
			}
			tok, pos, err = parseDotted(s, pos)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", types.ErrInvalidPath, expr, err)
		}
		tokens = append(tokens, tok)
		if len(tokens) > types.MaxPathDepth {
			return nil, types.ErrPathTooDeep
		}
	}
	return tokens, nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(expr string) []types.PathToken {
	tokens, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return tokens
}

func parseDotted(s string, pos int) (types.PathToken, int, error) {
	if pos < len(s) && s[pos] == '*' {
		return types.Star(), pos + 1, nil
	}
	end := pos
	for end < len(s) && s[end] != '.' && s[end] != '[' {
		if s[end] == ']' || s[end] == '\'' || s[end] == '"' {
			return types.PathToken{}, end, fmt.Errorf("unexpected %q at %d", s[end], end)
		}
		end++
	}
	if end == pos {
		return types.PathToken{}, pos, fmt.Errorf("empty field name at %d", pos)
	}
	return types.Field(s[pos:end]), end, nil
}

func parseBracket(s string, pos int) (types.PathToken, int, error) {
	if pos >= len(s) {
		return types.PathToken{}, pos, fmt.Errorf("unterminated '[' at %d", pos)
	}
	switch c := s[pos]; {
	case c == '*':
		if pos+1 >= len(s) || s[pos+1] != ']' {
			return types.PathToken{}, pos, fmt.Errorf("expected ']' after '*' at %d", pos+1)
		}
		return types.StarIndex(), pos + 2, nil
	case c == '\'' || c == '"':
		end := strings.IndexByte(s[pos+1:], c)
		if end < 0 {
			return types.PathToken{}, pos, fmt.Errorf("unterminated quoted name at %d", pos)
		}
		name := s[pos+1 : pos+1+end]
		closing := pos + 1 + end + 1
		if closing >= len(s) || s[closing] != ']' {
			return types.PathToken{}, pos, fmt.Errorf("expected ']' at %d", closing)
		}
		return types.Field(name), closing + 1, nil
	default:
		end := strings.IndexByte(s[pos:], ']')
		if end < 0 {
			return types.PathToken{}, pos, fmt.Errorf("unterminated '[' at %d", pos)
		}
		idx, err := strconv.Atoi(s[pos : pos+end])
		if err != nil || idx < 0 {
			return types.PathToken{}, pos, fmt.Errorf("invalid index %q at %d", s[pos:pos+end], pos)
		}
		return types.Index(idx), pos + end + 1, nil
	}
}

func invalid(expr string, pos int, msg string) error {
	return fmt.Errorf("%w: %q: %s at %d", types.ErrInvalidPath, expr, msg, pos)
}
