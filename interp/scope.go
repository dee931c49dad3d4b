package interp

import "github.com/gosh-lang/gosh/expand"

// frame is one level of the variable-binding stack. Only a function call
// pushes a new frame (for its own $1.. positional parameters); ordinary
// compound commands (if/while/for/subshell-minus-cloning) share the
// enclosing frame, matching the resolved "no implicit local scoping"
// design decision: there is no `local` keyword, so a plain assignment
// inside a function body is visible to its caller once the function
// returns, exactly like an un-scoped top-level assignment would be.
type frame struct {
	vars   map[string]expand.Variable
	params []string // never nil; frames[0]'s starts as an empty slice
}

func newFrame(params []string) *frame {
	if params == nil {
		params = []string{}
	}
	return &frame{vars: map[string]expand.Variable{}, params: params}
}

// scope is the Runner's variable environment: a stack of frames, the
// bottom one global. It implements expand.WriteEnviron directly so the
// word expander can read and assign variables without an adapter type.
type scope struct {
	frames []*frame
}

func newScope(params []string) *scope {
	return &scope{frames: []*frame{newFrame(params)}}
}

func (s *scope) top() *frame { return s.frames[len(s.frames)-1] }

// pushFunc enters a new function call, with its own positional parameters
// and local variable table.
func (s *scope) pushFunc(params []string) {
	s.frames = append(s.frames, newFrame(params))
}

// pop leaves the innermost function call.
func (s *scope) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// clone deep-copies the entire frame stack, for a subshell: the subshell
// runs against the clone, and whatever it mutates (variables, positional
// parameters) is simply discarded by dropping the clone when the subshell
// exits.
func (s *scope) clone() *scope {
	frames := make([]*frame, len(s.frames))
	for i, f := range s.frames {
		nf := &frame{
			vars:   make(map[string]expand.Variable, len(f.vars)),
			params: append([]string(nil), f.params...),
		}
		for name, vr := range f.vars {
			nf.vars[name] = vr
		}
		frames[i] = nf
	}
	return &scope{frames: frames}
}

func (s *scope) Get(name string) expand.Variable {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if vr, ok := s.frames[i].vars[name]; ok {
			return vr
		}
	}
	return expand.Variable{}
}

func (s *scope) Set(name string, vr expand.Variable) error {
	if name == "" {
		return expand.UnsetVariableError{Name: name, Msg: "empty name"}
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if old, ok := s.frames[i].vars[name]; ok {
			if old.ReadOnly {
				return expand.UnsetVariableError{Name: name, Msg: "read-only variable"}
			}
			s.frames[i].vars[name] = vr
			return nil
		}
	}
	s.frames[0].vars[name] = vr
	return nil
}

// Each reports every set variable visible from the innermost frame
// outward, so a function's own bindings shadow the caller's of the same
// name exactly once.
func (s *scope) Each(fn func(name string, vr expand.Variable) bool) {
	seen := map[string]expand.Variable{}
	for i := 0; i < len(s.frames); i++ {
		for name, vr := range s.frames[i].vars {
			seen[name] = vr
		}
	}
	for name, vr := range seen {
		if !vr.IsSet() {
			continue
		}
		if !fn(name, vr) {
			return
		}
	}
}

// Positional returns the innermost frame's positional parameters: a
// function call's own $1.. if inside one, otherwise the script's.
func (s *scope) Positional() []string { return s.top().params }

// SetPositional replaces the positional parameters at the innermost
// frame, used by the `set --` and `shift` builtins.
func (s *scope) SetPositional(params []string) {
	if params == nil {
		params = []string{}
	}
	s.top().params = params
}
