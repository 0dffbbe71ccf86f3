// internal/generators/handlers.go
package generators

import (
	"log/slog"
	"sync"

	"github.com/solatis/pactkeeper/internal/fieldpath"
	"github.com/solatis/pactkeeper/internal/types"
)

// ContentTypeHandler applies body generators for one content type.
type ContentTypeHandler interface {
	// ProcessBody decodes data, calls apply on the decoded root and re-encodes it.
	// A root apply leaves unchanged keeps the original bytes.
	ProcessBody(data []byte, apply func(root *types.Value)) (types.OptionalBody, error)
	// ApplyKey applies gen to every node addressed by key.
	ApplyKey(root *types.Value, key string, gen Generator)
}

// JSONHandler handles application/json bodies.
type JSONHandler struct{}

func (JSONHandler) ProcessBody(data []byte, apply func(root *types.Value)) (types.OptionalBody, error) {
	root, err := types.DecodeJSON(data)
	if err != nil {
		return types.OptionalBody{}, err
	}
	before := types.Clone(root)
	apply(&root)
	if types.Equal(before, root) {
		return types.BodyOf(data), nil
	}
	out, err := types.EncodeJSON(root)
	if err != nil {
		return types.OptionalBody{}, err
	}
	return types.BodyOf(out), nil
}

func (JSONHandler) ApplyKey(root *types.Value, key string, gen Generator) {
	tokens, err := fieldpath.Parse(key)
	if err != nil {
		slog.Warn("generators: ignoring generator with invalid path", "path", key, "error", err)
		return
	}
	fieldpath.Traverse(tokens, root, func(c fieldpath.Cursor) {
		c.Set(gen.Generate(c.Value))
	})
}

// Registry maps media types to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ContentTypeHandler
}

// NewRegistry returns a registry with no handlers.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]ContentTypeHandler)}
}

// DefaultRegistry returns a registry holding the JSON handler only.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Reset()
	return r
}

// Register installs h for mediaType, replacing any previous handler.
func (r *Registry) Register(mediaType string, h ContentTypeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[mediaType] = h
}

// Lookup returns the handler for mediaType.
func (r *Registry) Lookup(mediaType string) (ContentTypeHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[mediaType]
	return h, ok
}

// Reset restores the default handlers.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.handlers)
	r.handlers[string(types.ContentTypeJSON)] = JSONHandler{}
}
