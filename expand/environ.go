// Package expand implements word expansion: turning a syntax.Word into its
// final, already-split and quote-removed string values, per the ordered
// pipeline in SPEC_FULL.md §4.3 (tilde, parameter, command substitution,
// arithmetic, brace, field splitting, quote removal).
package expand

import (
	"cmp"
	"slices"
	"strings"
)

// Environ is the read side of a shell's variable environment.
type Environ interface {
	// Get retrieves a variable by name. Use Variable.IsSet to check
	// whether it was actually found.
	Get(name string) Variable

	// Each iterates over every currently set variable. Iteration stops
	// early if fn returns false. Exported variables must be included,
	// since Each is also how the executor builds a child process's
	// environment block.
	Each(fn func(name string, vr Variable) bool)

	// Positional returns the current positional parameters $1, $2, ...
	// ($0 is an ordinary variable, fetched through Get). It backs the
	// $@, $*, and $# special parameters and the ${N} forms.
	Positional() []string
}

// WriteEnviron extends Environ with mutation, used by assignment and the
// export/unset builtins.
type WriteEnviron interface {
	Environ
	// Set assigns name to vr. Setting a Variable with IsSet()==false
	// unsets the name. Returns an error if name is empty or read-only.
	Set(name string, vr Variable) error
}

// Variable is a single scalar shell variable. Indexed and associative
// arrays are out of scope; every variable holds at most one string.
type Variable struct {
	Set      bool
	Exported bool
	ReadOnly bool
	Str      string
}

// IsSet reports whether the variable currently holds a value.
func (v Variable) IsSet() bool { return v.Set }

// String returns the variable's value, or "" if unset.
func (v Variable) String() string { return v.Str }

// FuncEnviron wraps a function mapping variable names to their string
// values, for embedding a host environment (e.g. os.Getenv) as a gosh
// Environ. Variables it reports are always considered exported, and an
// empty string means unset. Its Each visits no variables, since a bare
// function cannot be enumerated.
func FuncEnviron(fn func(string) string) Environ {
	return funcEnviron(fn)
}

type funcEnviron func(string) string

func (f funcEnviron) Get(name string) Variable {
	v := f(name)
	if v == "" {
		return Variable{}
	}
	return Variable{Set: true, Exported: true, Str: v}
}

func (f funcEnviron) Each(func(name string, vr Variable) bool) {}

func (f funcEnviron) Positional() []string { return nil }

// ListEnviron builds an Environ from "name=value" pairs, such as
// os.Environ()'s output. All variables are exported. When a name
// repeats, the last occurrence wins.
func ListEnviron(pairs ...string) Environ {
	list := slices.Clone(pairs)
	slices.SortStableFunc(list, func(a, b string) int {
		return cmp.Compare(nameOf(a), nameOf(b))
	})
	last := ""
	for i := 0; i < len(list); {
		name, _, ok := strings.Cut(list[i], "=")
		if name == "" || !ok {
			list = slices.Delete(list, i, i+1)
			continue
		}
		if name == last {
			list = slices.Delete(list, i-1, i)
			continue
		}
		last = name
		i++
	}
	return listEnviron(list)
}

func nameOf(pair string) string {
	if i := strings.IndexByte(pair, '='); i >= 0 {
		return pair[:i]
	}
	return pair
}

type listEnviron []string

func (l listEnviron) Get(name string) Variable {
	i, ok := slices.BinarySearchFunc(l, name, func(pair, name string) int {
		return cmp.Compare(nameOf(pair), name)
	})
	if !ok {
		return Variable{}
	}
	_, val, _ := strings.Cut(l[i], "=")
	return Variable{Set: true, Exported: true, Str: val}
}

func (l listEnviron) Positional() []string { return nil }

func (l listEnviron) Each(fn func(name string, vr Variable) bool) {
	for _, pair := range l {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if !fn(name, Variable{Set: true, Exported: true, Str: val}) {
			return
		}
	}
}
