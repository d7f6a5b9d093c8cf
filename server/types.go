package server

import (
	"sort"

	"github.com/truora/miniql/types"
)

// Request body of every operation
type Request struct {
	Query string `json:"query"`
	// Params values of the statement parameters, as plain JSON
	Params map[string]interface{} `json:"params,omitempty"`
}

// names returns the parameter names sorted so binding order is stable
func (r *Request) names() []string {
	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// param converts a decoded JSON parameter into a Value, numbers arrive as
// json.Number so decimals keep their precision
func param(raw interface{}) (types.Value, error) {
	return types.ValueOf(raw)
}
