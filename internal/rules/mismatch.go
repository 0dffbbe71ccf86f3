package rules

import "github.com/solatis/pactkeeper/internal/types"

// MismatchFactory builds the caller's mismatch type M from a failed comparison.
// Body, header and XML comparisons each supply their own M.
type MismatchFactory[M any] interface {
	Create(expected, actual types.Value, description string, path []string) M
}

// FactoryFunc adapts a function to MismatchFactory.
type FactoryFunc[M any] func(expected, actual types.Value, description string, path []string) M

// Create calls f.
func (f FactoryFunc[M]) Create(expected, actual types.Value, description string, path []string) M {
	return f(expected, actual, description, path)
}
