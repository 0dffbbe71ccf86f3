// Package types provides domain models shared across pactkeeper components.
//
// Leaf package: values, path tokens, bodies and sentinel errors use only the
// standard library. ID utilities in ids.go import uuid.
package types

// Resource limits enforced while parsing and traversing documents.
const (
	// MaxPathDepth bounds the number of tokens in a path expression.
	MaxPathDepth = 32

	// MaxBodySize caps a captured request body.
	MaxBodySize = 4 * 1024 * 1024

	// MaxDocumentDepth bounds recursion while comparing nested bodies.
	MaxDocumentDepth = 64
)
