// internal/generators/category.go
package generators

import (
	"fmt"
	"strings"
)

// Category is the request/response part a generator applies to.
type Category string

const (
	CategoryMethod Category = "METHOD"
	CategoryPath   Category = "PATH"
	CategoryHeader Category = "HEADER"
	CategoryQuery  Category = "QUERY"
	CategoryBody   Category = "BODY"
	CategoryStatus Category = "STATUS"
)

// Categories lists every category in declaration order.
var Categories = []Category{CategoryMethod, CategoryPath, CategoryHeader, CategoryQuery, CategoryBody, CategoryStatus}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown generator category %q", s)
}

// singleValued reports whether the category holds one generator under the empty key.
func (c Category) singleValued() bool {
	return c == CategoryMethod || c == CategoryPath || c == CategoryStatus
}

// key returns the lower-case name used in pact documents.
func (c Category) key() string {
	return strings.ToLower(string(c))
}
