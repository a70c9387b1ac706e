package model

// Result is the uniform outcome wrapper returned by every repository
// operation. Exactly one of Data or Error carries a value; a zero Data with
// an empty Error means the operation succeeded with no payload (e.g. delete).
// Repository methods never panic or return Go errors across the contract;
// all failure travels through Error.
type Result[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// Ok wraps a successful payload.
func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Fail wraps a failure description.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Error == ""
}
