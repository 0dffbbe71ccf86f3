// internal/fieldpath/traverse.go
package fieldpath

import (
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Tree cursor traversal with write-back targets.
 *
 * Traverse walks a document following a token chain and calls visit once
 * for every position the chain reaches. Each cursor carries a Target that
 * writes a replacement value back into the parent container.
 *
 * Miss policy is permissive: a Field on a non-map or absent key, or an Index
 * on a non-list or out-of-range position, ends that branch silently.
 *
 * Wildcards fan out. Star (maps) and StarIndex (lists) snapshot the
 * container's entries first, then apply the remaining tokens to every entry
 * independently. Writes performed by visit on one branch are not observed by
 * the iteration over siblings.
 */

// Target writes a value back into the position a cursor was reached from.
type Target interface {
	Set(v types.Value)
	isTarget()
}

// MapKey targets an entry of a map.
type MapKey struct {
	Map *types.Map
	Key string
}

// ListIndex targets an element of a list.
type ListIndex struct {
	List  *types.List
	Index int
}

// Root targets the document root held by the caller.
type Root struct {
	Slot *types.Value
}

func (MapKey) isTarget()    {}
func (ListIndex) isTarget() {}
func (Root) isTarget()      {}

// Set replaces the map entry.
func (t MapKey) Set(v types.Value) { t.Map.Set(t.Key, v) }

// Set replaces the list element. Out-of-range writes are ignored.
func (t ListIndex) Set(v types.Value) {
	if t.Index >= 0 && t.Index < len(t.List.Items) {
		t.List.Items[t.Index] = v
	}
}

// Set replaces the whole document.
func (t Root) Set(v types.Value) { *t.Slot = v }

// Cursor is a position reached by traversal. It never owns the document.
type Cursor struct {
	Value  types.Value
	Target Target
}

// Set writes v at the cursor position.
func (c Cursor) Set(v types.Value) { c.Target.Set(v) }

// Traverse follows tokens from *root and calls visit for every reached position.
// With no tokens, visit is called once with the root.
func Traverse(tokens []types.PathToken, root *types.Value, visit func(Cursor)) {
	if root == nil {
		return
	}
	walk(tokens, Cursor{Value: *root, Target: Root{Slot: root}}, visit)
}

// Collect returns every cursor Traverse would visit, in visit order.
func Collect(tokens []types.PathToken, root *types.Value) []Cursor {
	var out []Cursor
	Traverse(tokens, root, func(c Cursor) { out = append(out, c) })
	return out
}

func walk(tokens []types.PathToken, cur Cursor, visit func(Cursor)) {
	for i, tok := range tokens {
		switch tok.Kind {
		case types.TokenField:
			m, ok := cur.Value.(*types.Map)
			if !ok {
				return
			}
			v, ok := m.Get(tok.Name)
			if !ok {
				return
			}
			cur = Cursor{Value: v, Target: MapKey{Map: m, Key: tok.Name}}

		case types.TokenIndex:
			l, ok := cur.Value.(*types.List)
			if !ok || tok.Index < 0 || tok.Index >= len(l.Items) {
				return
			}
			cur = Cursor{Value: l.Items[tok.Index], Target: ListIndex{List: l, Index: tok.Index}}

		case types.TokenStar:
			m, ok := cur.Value.(*types.Map)
			if !ok {
				return
			}
			keys := m.Keys()
			values := make([]types.Value, len(keys))
			for j, k := range keys {
				values[j], _ = m.Get(k)
			}
			rest := tokens[i+1:]
			for j, k := range keys {
				walk(rest, Cursor{Value: values[j], Target: MapKey{Map: m, Key: k}}, visit)
			}
			return

		case types.TokenStarIndex:
			l, ok := cur.Value.(*types.List)
			if !ok {
				return
			}
			items := append([]types.Value(nil), l.Items...)
			rest := tokens[i+1:]
			for j, item := range items {
				walk(rest, Cursor{Value: item, Target: ListIndex{List: l, Index: j}}, visit)
			}
			return

		default:
			return
		}
	}
	visit(cur)
}
