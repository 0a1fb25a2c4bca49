package lib

// Payload is the JSON envelope every /api endpoint answers with.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// FieldError describes one schema violation in a request body.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Fail builds an unsuccessful payload carrying msg and optional error detail.
func Fail(msg string, errs any) Payload {
	return Payload{Success: false, Message: msg, Errors: errs}
}

// OK builds a successful payload.
func OK(msg string, data any) Payload {
	return Payload{Success: true, Message: msg, Data: data}
}

// List builds a successful payload for a sequence, including its length.
func List[T any](items []T) Payload {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return Payload{Success: true, Count: &n, Data: items}
}
