// internal/verification/result.go
package verification

import (
	"fmt"
	"strings"

	"github.com/solatis/pactkeeper/internal/pact"
)

/*
 * Verification results.
 *
 * A consumer test ends in exactly one Result. Descriptions render
 * recursively and deterministically, so equal results describe equally.
 */

// Result is the outcome of one consumer test run.
type Result interface {
	Description() string
	isResult()
}

// Ok means every interaction was received once and matched.
type Ok struct{}

// Error means the test body failed. MockServerState is the result the mock
// server had accumulated at that point.
type Error struct {
	Cause           error
	MockServerState Result
}

// PartialMismatch lists the differences of a request that correlated with an interaction.
type PartialMismatch struct {
	Mismatches []RequestPartMismatch
}

// Mismatches aggregates several failing outcomes.
type Mismatches struct {
	Results []Result
}

// UnexpectedRequest is a received request that matched no interaction.
type UnexpectedRequest struct {
	Request pact.Request
}

// ExpectedButNotReceived lists interactions whose request never arrived.
type ExpectedButNotReceived struct {
	Requests []pact.Request
}

func (Ok) isResult()                     {}
func (Error) isResult()                  {}
func (PartialMismatch) isResult()        {}
func (Mismatches) isResult()             {}
func (UnexpectedRequest) isResult()      {}
func (ExpectedButNotReceived) isResult() {}

func (Ok) Description() string { return "Ok" }

func (r Error) Description() string {
	state := "Ok"
	if r.MockServerState != nil {
		state = r.MockServerState.Description()
	}
	return fmt.Sprintf("Test failed with an error: %v\nMock server state: %s", r.Cause, state)
}

func (r PartialMismatch) Description() string {
	lines := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		lines[i] = m.Description()
	}
	return "Request mismatch:\n" + strings.Join(lines, "\n")
}

func (r Mismatches) Description() string {
	parts := make([]string, len(r.Results))
	for i, child := range r.Results {
		parts[i] = child.Description()
	}
	return "The following mismatched requests occurred:\n" + strings.Join(parts, "\n")
}

func (r UnexpectedRequest) Description() string {
	return "Unexpected Request:\n" + r.Request.String()
}

func (r ExpectedButNotReceived) Description() string {
	parts := make([]string, len(r.Requests))
	for i := range r.Requests {
		parts[i] = r.Requests[i].String()
	}
	return "The following requests were not received:\n" + strings.Join(parts, "\n")
}

// IsOk reports whether r is Ok.
func IsOk(r Result) bool {
	_, ok := r.(Ok)
	return ok
}

// Kind names the variant of r for storage and logs.
func Kind(r Result) string {
	switch r.(type) {
	case Ok:
		return "ok"
	case Error:
		return "error"
	case PartialMismatch:
		return "partial_mismatch"
	case Mismatches:
		return "mismatches"
	case UnexpectedRequest:
		return "unexpected_request"
	case ExpectedButNotReceived:
		return "expected_but_not_received"
	default:
		return "unknown"
	}
}

// CountMismatches counts the failures r reports: one per request part
// mismatch, unexpected request or missing request.
func CountMismatches(r Result) int {
	switch v := r.(type) {
	case Error:
		if v.MockServerState == nil {
			return 0
		}
		return CountMismatches(v.MockServerState)
	case PartialMismatch:
		return len(v.Mismatches)
	case Mismatches:
		n := 0
		for _, child := range v.Results {
			n += CountMismatches(child)
		}
		return n
	case UnexpectedRequest:
		return 1
	case ExpectedButNotReceived:
		return len(v.Requests)
	default:
		return 0
	}
}

// Outcome is one received request with its correlation.
type Outcome struct {
	Request pact.Request
	Match   RequestMatch
}

// Summarize folds the outcomes of a test window into one Result.
// Failing outcomes keep arrival order; missing interactions follow them.
// An interaction correlated by a full or partial match counts as received.
func Summarize(interactions []*pact.Interaction, outcomes []Outcome) Result {
	received := make(map[*pact.Interaction]bool)
	var failing []Result
	for _, o := range outcomes {
		switch m := o.Match.(type) {
		case FullRequestMatch:
			received[m.Interaction] = true
		case PartialRequestMatch:
			received[m.Interaction] = true
			failing = append(failing, PartialMismatch{Mismatches: m.Mismatches})
		default:
			failing = append(failing, UnexpectedRequest{Request: o.Request})
		}
	}

	var missing []pact.Request
	for _, i := range interactions {
		if !received[i] {
			missing = append(missing, i.Request)
		}
	}

	switch {
	case len(failing) == 0 && len(missing) == 0:
		return Ok{}
	case len(failing) == 0:
		return ExpectedButNotReceived{Requests: missing}
	case len(missing) > 0:
		failing = append(failing, ExpectedButNotReceived{Requests: missing})
	}
	return Mismatches{Results: failing}
}
