package membership

// ValidationError reports malformed candidate input. The HTTP layer maps
// it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ConflictError reports a request that is well-formed but cannot be
// applied without breaking a membership invariant.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// NotFoundError reports a missing target group or user.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}
