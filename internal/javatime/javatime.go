// Package javatime converts Java date patterns (yyyy-MM-dd'T'HH:mm:ss) to Go layouts.
//
// Pact documents carry date, time and timestamp formats in the pattern
// language of java.text.SimpleDateFormat. Go's time package uses reference
// layouts instead, so patterns are translated letter run by letter run.
package javatime

import (
	"fmt"
	"strings"
	"time"
)

// Default patterns used when a rule or generator gives none.
const (
	DefaultDatePattern      = "yyyy-MM-dd"
	DefaultTimePattern      = "HH:mm:ss"
	DefaultTimestampPattern = "yyyy-MM-dd'T'HH:mm:ssXXX"
)

// Layout translates a Java pattern into a Go reference layout.
func Layout(pattern string) (string, error) {
	var sb strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '\'' {
			// '' is a literal quote; 'text' is literal text
			if i+1 < len(runes) && runes[i+1] == '\'' {
				sb.WriteRune('\'')
				i += 2
				continue
			}
			end := i + 1
			for {
				if end >= len(runes) {
					return "", fmt.Errorf("unterminated quote in pattern %q", pattern)
				}
				if runes[end] == '\'' {
					if end+1 < len(runes) && runes[end+1] == '\'' {
						sb.WriteRune('\'')
						end += 2
						continue
					}
					break
				}
				sb.WriteRune(runes[end])
				end++
			}
			i = end + 1
			continue
		}

		if !isLetter(r) {
			sb.WriteRune(r)
			i++
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == r {
			n++
		}
		layout, err := letterRun(r, n)
		if err != nil {
			return "", fmt.Errorf("pattern %q: %w", pattern, err)
		}
		sb.WriteString(layout)
		i += n
	}
	return sb.String(), nil
}

// Parse parses value using a Java pattern.
func Parse(pattern, value string) (time.Time, error) {
	layout, err := Layout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, value)
}

// Format renders t using a Java pattern.
func Format(pattern string, t time.Time) (string, error) {
	layout, err := Layout(pattern)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

func letterRun(r rune, n int) (string, error) {
	switch r {
	case 'y', 'u':
		if n == 2 {
			return "06", nil
		}
		return "2006", nil
	case 'M', 'L':
		switch {
		case n >= 4:
			return "January", nil
		case n == 3:
			return "Jan", nil
		case n == 2:
			return "01", nil
		default:
			return "1", nil
		}
	case 'd':
		if n >= 2 {
			return "02", nil
		}
		return "2", nil
	case 'D':
		return "002", nil
	case 'E':
		if n >= 4 {
			return "Monday", nil
		}
		return "Mon", nil
	case 'H', 'k':
		return "15", nil
	case 'h':
		if n >= 2 {
			return "03", nil
		}
		return "3", nil
	case 'm':
		if n >= 2 {
			return "04", nil
		}
		return "4", nil
	case 's':
		if n >= 2 {
			return "05", nil
		}
		return "5", nil
	case 'S':
		return strings.Repeat("0", n), nil
	case 'a':
		return "PM", nil
	case 'z':
		return "MST", nil
	case 'Z':
		return "-0700", nil
	case 'X':
		switch n {
		case 1:
			return "Z07", nil
		case 2:
			return "Z0700", nil
		default:
			return "Z07:00", nil
		}
	default:
		return "", fmt.Errorf("unsupported pattern letter %q", r)
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
