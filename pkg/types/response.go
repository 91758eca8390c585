package types

// SuccessEnvelope wraps every successful JSON response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a pkg/errors.Error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ListPayload carries a collection together with its size.
type ListPayload[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListPayload never returns a nil Items slice so empty lists encode as [].
func NewListPayload[T any](items []T) ListPayload[T] {
	if items == nil {
		items = []T{}
	}
	return ListPayload[T]{Items: items, Total: len(items)}
}
