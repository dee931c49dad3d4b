package expand

// UnsetVariableError is returned by Set when a caller tries to assign to a
// read-only variable, or Set is given an empty name.
type UnsetVariableError struct {
	Name string
	Msg  string
}

func (e UnsetVariableError) Error() string { return e.Name + ": " + e.Msg }
