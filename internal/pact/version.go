// internal/pact/version.go
package pact

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SpecVersion is a pact specification version.
type SpecVersion int

const (
	V1 SpecVersion = iota + 1
	V1_1
	V2
	V3
)

// String returns the semantic version written into pact metadata.
func (v SpecVersion) String() string {
	switch v {
	case V1:
		return "1.0.0"
	case V1_1:
		return "1.1.0"
	case V2:
		return "2.0.0"
	case V3:
		return "3.0.0"
	default:
		return "unknown"
	}
}

// Major returns the major version number.
func (v SpecVersion) Major() int {
	switch v {
	case V1, V1_1:
		return 1
	case V2:
		return 2
	default:
		return 3
	}
}

// ParseSpecVersion parses a version such as "3.0.0" or "2". Versions past 3 map to V3.
func ParseSpecVersion(s string) (SpecVersion, error) {
	ver, err := semver.NewVersion(s)
	if err != nil {
		return 0, fmt.Errorf("invalid pact specification version %q: %w", s, err)
	}
	switch {
	case ver.Major() == 0:
		return 0, fmt.Errorf("invalid pact specification version %q", s)
	case ver.Major() == 1 && ver.Minor() >= 1:
		return V1_1, nil
	case ver.Major() == 1:
		return V1, nil
	case ver.Major() == 2:
		return V2, nil
	default:
		return V3, nil
	}
}
