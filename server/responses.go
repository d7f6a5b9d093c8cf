package server

// Output shapes encoded back to the client.

// QueryOutput rows returned by a document or key-value statement. Delete,
// put and del statements return no items.
type QueryOutput struct {
	Items []interface{} `json:"Items"`
	Count int          `json:"Count"`
}

// ExplainOutput normalized statement and its parameters.
type ExplainOutput struct {
	Statement string   `json:"Statement"`
	Params    []string `json:"Params"`
}

type errorBody struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}
