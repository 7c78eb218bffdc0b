package core

import "encoding/json"

// OpKind classifies an operation as a query or a mutation. The kind is
// derived once when the operation is built and carried through the whole
// pipeline instead of being re-inspected from the document.
type OpKind int

const (
	OpUnknown OpKind = iota
	OpQuery
	OpMutation
)

func (k OpKind) String() string {
	switch k {
	case OpQuery:
		return "query"
	case OpMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Operation is a single query or mutation request, identified by its
// document and variables.
type Operation struct {
	Kind  OpKind
	Name  string
	Query []byte
	Vars  json.RawMessage

	// Fields lists the root-level field names selected by the document.
	// Used only for eviction; nested field arguments are not represented.
	Fields []string

	// Optimistic marks a mutation whose predicted result should be
	// applied to the cache before the real result is known.
	Optimistic bool

	// OptimisticResponse is the locally predicted mutation result.
	OptimisticResponse json.RawMessage
}

// ResultError mirrors the GraphQL response error shape
type ResultError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

func (e ResultError) Error() string { return e.Message }

// Result is one operation outcome produced by the transport
type Result struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []ResultError   `json:"errors,omitempty"`
}

// OK reports whether the operation succeeded
func (r *Result) OK() bool {
	return r != nil && len(r.Errors) == 0
}
