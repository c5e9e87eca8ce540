package search

import (
	"fmt"
	"strings"
)

// FilterParams are the caller-controlled search options
type FilterParams struct {
	UserID string
	Query  string
	Kind   string
	Limit  int64
}

// Filter builds the Meilisearch filter expression. The account clause is always present.
func (p FilterParams) Filter() string {
	filters := []string{fmt.Sprintf("user_id = %s", quote(p.UserID))}
	if p.Kind != "" {
		filters = append(filters, fmt.Sprintf("kind = %s", quote(p.Kind)))
	}
	return strings.Join(filters, " AND ")
}

// quote renders a filter string literal
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
