package expand

import (
	"testing"

	"github.com/gosh-lang/gosh/syntax"
)

// cmdSubstEnviron adds a RunCmdSubst stub on top of mapEnviron, so tests
// can exercise $(...) expansion without a real interpreter.
type cmdSubstEnviron struct {
	*mapEnviron
	output string
}

func (c *cmdSubstEnviron) RunCmdSubst(stmts []*syntax.Stmt) (string, error) {
	return c.output, nil
}

func dq(parts ...syntax.WordPart) *syntax.DblQuoted { return &syntax.DblQuoted{Parts: parts} }
func sq(s string) *syntax.SglQuoted                 { return &syntax.SglQuoted{Value: s} }
func param(name string) *syntax.ParamExp            { return &syntax.ParamExp{Name: name, Short: true} }

func fieldsOf(t *testing.T, env WriteEnviron, w *syntax.Word) []string {
	t.Helper()
	got, err := Fields(env, w)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestFieldsPlainWord(t *testing.T) {
	env := newMapEnviron(nil)
	got := fieldsOf(t, env, litWord("hello"))
	want := []string{"hello"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Fields(hello) = %v, want %v", got, want)
	}
}

func TestFieldsUnquotedSplitsOnIFS(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "a  b\tc"}})
	got := fieldsOf(t, env, word(param("x")))
	want := []string{"a", "b", "c"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Fields($x) = %v, want %v", got, want)
	}
}

func TestFieldsQuotedPreservesWhitespace(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "a  b"}})
	got := fieldsOf(t, env, word(dq(param("x"))))
	want := []string{"a  b"}
	if !stringSlicesEqual(got, want) {
		t.Errorf(`Fields("$x") = %v, want %v`, got, want)
	}
}

func TestFieldsQuotedEmptyStringSurvives(t *testing.T) {
	env := newMapEnviron(nil)
	got := fieldsOf(t, env, word(sq("")))
	want := []string{""}
	if !stringSlicesEqual(got, want) {
		t.Errorf(`Fields('') = %v, want %v`, got, want)
	}
}

func TestFieldsQuotedPositionalPreservesEmpties(t *testing.T) {
	env := newMapEnviron(nil)
	env.positional = []string{"a", "", "b"}
	got := fieldsOf(t, env, word(dq(param("@"))))
	want := []string{"a", "", "b"}
	if !stringSlicesEqual(got, want) {
		t.Errorf(`Fields("$@") = %v, want %v`, got, want)
	}
}

func TestFieldsQuotedPositionalEmptyYieldsNoFields(t *testing.T) {
	env := newMapEnviron(nil)
	env.positional = nil
	got := fieldsOf(t, env, word(dq(param("@"))))
	if len(got) != 0 {
		t.Errorf(`Fields("$@") with no positional parameters = %v, want zero fields`, got)
	}
}

func TestLiteralAssignExpandsTildeAfterColon(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"HOME": {Set: true, Str: "/home/u"}})
	got, err := LiteralAssign(env, litWord("~/bin:~/sbin"))
	if err != nil {
		t.Fatal(err)
	}
	want := "/home/u/bin:/home/u/sbin"
	if got != want {
		t.Errorf("LiteralAssign(~/bin:~/sbin) = %q, want %q", got, want)
	}
}

func TestLiteralAssignDoesNotExpandMidSegmentTilde(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"HOME": {Set: true, Str: "/home/u"}})
	got, err := LiteralAssign(env, litWord("a~b"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "a~b" {
		t.Errorf("LiteralAssign(a~b) = %q, want unchanged a~b", got)
	}
}

func TestFieldsCommandSubstitution(t *testing.T) {
	env := &cmdSubstEnviron{mapEnviron: newMapEnviron(nil), output: "one two\n\n"}
	w := word(&syntax.CmdSubst{})
	got := fieldsOf(t, env, w)
	want := []string{"one", "two"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Fields($(...)) = %v, want %v", got, want)
	}
}

func TestLiteralDoesNotSplit(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "a b"}})
	got, err := Literal(env, word(param("x")))
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b" {
		t.Errorf("Literal($x) = %q, want %q", got, "a b")
	}
}

func TestExpandTildeHome(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"HOME": {Set: true, Str: "/home/gosh"}})
	got := expandTilde(env, "~/bin")
	if got != "/home/gosh/bin" {
		t.Errorf("expandTilde(~/bin) = %q, want %q", got, "/home/gosh/bin")
	}
}

func TestFieldsIFSUnset(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: " a \n b "}})
	got := fieldsOf(t, env, word(param("x")))
	want := []string{"a", "b"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Fields($x) with default IFS = %v, want %v", got, want)
	}
}

func TestFieldsBraceBeforeSplitting(t *testing.T) {
	env := newMapEnviron(nil)
	be := &syntax.BraceExp{Elems: []*syntax.Word{litWord("a"), litWord("b")}}
	got := fieldsOf(t, env, word(be))
	want := []string{"a", "b"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Fields({a,b}) = %v, want %v", got, want)
	}
}

func TestJoinPartsNoAllocForSingle(t *testing.T) {
	parts := []fieldPart{{val: "x"}}
	if got := joinParts(parts); got != "x" {
		t.Errorf("joinParts(single) = %q, want %q", got, "x")
	}
}
