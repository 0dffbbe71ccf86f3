// internal/types/path.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Path expression tokens.
 *
 * A parsed path expression is an immutable []PathToken. Tokens address a
 * map key (Field), a list position (Index), every map entry (Star) or every
 * list element (StarIndex). Parsing lives in internal/fieldpath.
 */

// TokenKind discriminates PathToken variants.
type TokenKind int

const (
	TokenField TokenKind = iota
	TokenIndex
	TokenStar
	TokenStarIndex
)

// PathToken is one step of a path expression.
type PathToken struct {
	Kind  TokenKind
	Name  string // TokenField only
	Index int    // TokenIndex only
}

// Field addresses a map key.
func Field(name string) PathToken { return PathToken{Kind: TokenField, Name: name} }

// Index addresses a list position.
func Index(i int) PathToken { return PathToken{Kind: TokenIndex, Index: i} }

// Star addresses every map entry.
func Star() PathToken { return PathToken{Kind: TokenStar} }

// StarIndex addresses every list element.
func StarIndex() PathToken { return PathToken{Kind: TokenStarIndex} }

// String renders the token in path expression syntax.
func (t PathToken) String() string {
	switch t.Kind {
	case TokenField:
		if isIdentifier(t.Name) {
			return "." + t.Name
		}
		return "['" + t.Name + "']"
	case TokenIndex:
		return "[" + strconv.Itoa(t.Index) + "]"
	case TokenStar:
		return ".*"
	case TokenStarIndex:
		return "[*]"
	default:
		return "?"
	}
}

// FormatPath renders tokens as a canonical path expression rooted at "$".
func FormatPath(tokens []PathToken) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, t := range tokens {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// JoinPath renders concrete path segments (as produced during comparison) as an expression.
func JoinPath(path []string) string {
	var sb strings.Builder
	for i, seg := range path {
		switch {
		case i == 0 && seg == "$":
			sb.WriteString("$")
		case isDigits(seg):
			sb.WriteString("[" + seg + "]")
		case isIdentifier(seg):
			if sb.Len() > 0 {
				sb.WriteString(".")
			}
			sb.WriteString(seg)
		default:
			sb.WriteString("['" + seg + "']")
		}
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '-' || r == '@' || r == ':':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
