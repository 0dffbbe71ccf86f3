package javatime

import (
	"testing"
	"time"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "yyyy-MM-dd", want: "2006-01-02"},
		{pattern: "HH:mm:ss", want: "15:04:05"},
		{pattern: "yyyy-MM-dd'T'HH:mm:ssXXX", want: "2006-01-02T15:04:05Z07:00"},
		{pattern: "dd/MMM/yy hh:mm a", want: "02/Jan/06 03:04 PM"},
		{pattern: "HH:mm:ss.SSS", want: "15:04:05.000"},
		{pattern: "EEEE, d MMMM yyyy", want: "Monday, 2 January 2006"},
		{pattern: "yyyyMMdd'Z'", want: "20060102Z"},
		{pattern: "HH 'o''clock'", want: "15 o'clock"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Layout(tt.pattern)
			if err != nil {
				t.Fatalf("Layout(%q) error = %v, want nil", tt.pattern, err)
			}
			if got != tt.want {
				t.Errorf("Layout(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestLayout_Errors(t *testing.T) {
	for _, pattern := range []string{"yyyy-MM-dd'T", "qqqq"} {
		if _, err := Layout(pattern); err == nil {
			t.Errorf("Layout(%q) error = nil, want error", pattern)
		}
	}
}

func TestParseAndFormat(t *testing.T) {
	ts := time.Date(2024, time.March, 9, 14, 5, 7, 0, time.UTC)

	out, err := Format(DefaultTimestampPattern, ts)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "2024-03-09T14:05:07Z" {
		t.Errorf("Format() = %s, want 2024-03-09T14:05:07Z", out)
	}

	back, err := Parse(DefaultTimestampPattern, out)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !back.Equal(ts) {
		t.Errorf("Parse() = %v, want %v", back, ts)
	}

	if _, err := Parse(DefaultDatePattern, "2024-13-01"); err == nil {
		t.Errorf("Parse() of month 13 error = nil, want error")
	}
}
