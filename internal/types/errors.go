package types

import "errors"

// Sentinel errors for pactkeeper operations.
var (
	// ErrInvalidPath indicates a malformed path expression.
	ErrInvalidPath = errors.New("invalid path expression")

	// ErrPathTooDeep indicates a path expression exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("path expression exceeds maximum depth")

	// ErrInvalidBody indicates a body could not be decoded for its content type.
	ErrInvalidBody = errors.New("invalid body")

	// ErrBodyTooLarge indicates a captured body exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("body exceeds maximum size")

	// ErrGeneratorsUnsupported indicates generators serialized for a pre-V3 pact.
	ErrGeneratorsUnsupported = errors.New("Generators are only supported with pact specification version 3+")

	// ErrInvalidPact indicates a malformed pact document.
	ErrInvalidPact = errors.New("invalid pact document")

	// ErrNoPactsFound indicates a broker returned no pacts for a provider.
	ErrNoPactsFound = errors.New("no consumer pacts were found")

	// ErrUnsupportedSource indicates a pact source with no loader.
	ErrUnsupportedSource = errors.New("unsupported pact source")

	// ErrServerNotStarted indicates an operation on a mock server that is not listening.
	ErrServerNotStarted = errors.New("mock server not started")

	// ErrServerStopped indicates a second start or stop of a mock server.
	ErrServerStopped = errors.New("mock server already stopped")

	// ErrRequestTimeout indicates the expected requests did not arrive in time.
	ErrRequestTimeout = errors.New("timed out waiting for requests")

	// ErrRunNotFound indicates an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
)
