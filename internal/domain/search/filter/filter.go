package filter

import (
	"fmt"
	"sort"
	"strings"
)

// MaxCategories bounds a single filter to keep FT.SEARCH query strings sane.
const MaxCategories = 32

// Categories restricts a search to chunks whose paper carries at least one of
// the given arXiv categories (e.g. "cs.AI", "cs.CL"). A filter must be applied
// identically to both the vector and the keyword arm of a hybrid search;
// filtering only one would silently bias fusion toward the other method.
type Categories struct {
	values []string
}

// New validates and creates a category filter. Values are deduplicated and
// sorted so that logically identical filters serialize identically (the cache
// fingerprint depends on this).
func New(values []string) (Categories, error) {
	if len(values) > MaxCategories {
		return Categories{}, fmt.Errorf("too many categories (max %d)", MaxCategories)
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return Categories{}, fmt.Errorf("empty category value")
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return Categories{values: out}, nil
}

// Values returns the sorted category list.
func (c Categories) Values() []string { return c.values }

// IsEmpty reports whether the filter has no categories.
func (c Categories) IsEmpty() bool { return len(c.values) == 0 }
