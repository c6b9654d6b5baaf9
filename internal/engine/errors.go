package engine

// invalidInputError signals a malformed request shape for 400 mapping.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

// ErrInvalidInput constructs an invalidInputError.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err indicates a client-side input problem.
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// runtimeUnavailableError signals that the ONNX runtime binding is not
// compiled into this binary, so no real session can be opened.
type runtimeUnavailableError struct{ msg string }

func (e runtimeUnavailableError) Error() string { return e.msg }

// ErrRuntimeUnavailable constructs a runtimeUnavailableError.
func ErrRuntimeUnavailable(msg string) error { return runtimeUnavailableError{msg: msg} }

// IsRuntimeUnavailable reports whether err indicates a missing runtime build.
func IsRuntimeUnavailable(err error) bool {
	_, ok := err.(runtimeUnavailableError)
	return ok
}
