package expand

import (
	"testing"

	"github.com/gosh-lang/gosh/syntax"
)

func paramOp(name string, op syntax.ParExpOperator, opWord *syntax.Word) *syntax.ParamExp {
	return &syntax.ParamExp{Name: name, Op: op, OpWord: opWord}
}

func TestParamExpandColonMinus(t *testing.T) {
	env := newMapEnviron(nil)
	pe := paramOp("x", syntax.ParExpColonMinus, litWord("fallback"))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fallback" {
		t.Errorf(`${x:-fallback} = %q, want "fallback"`, got)
	}
}

func TestParamExpandColonMinusSetNonEmpty(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "value"}})
	pe := paramOp("x", syntax.ParExpColonMinus, litWord("fallback"))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "value" {
		t.Errorf(`${x:-fallback} with x set = %q, want "value"`, got)
	}
}

func TestParamExpandColonAssign(t *testing.T) {
	env := newMapEnviron(nil)
	pe := paramOp("x", syntax.ParExpColonAssign, litWord("y"))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "y" {
		t.Errorf(`${x:=y} = %q, want "y"`, got)
	}
	if env.Get("x").Str != "y" {
		t.Errorf("x after ${x:=y} = %q, want y", env.Get("x").Str)
	}
}

func TestParamExpandColonPlus(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "v"}})
	pe := paramOp("x", syntax.ParExpColonPlus, litWord("alt"))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "alt" {
		t.Errorf(`${x:+alt} = %q, want "alt"`, got)
	}
}

func TestParamExpandLength(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "hello"}})
	pe := &syntax.ParamExp{Name: "x", Length: true}
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "5" {
		t.Errorf("${#x} = %q, want 5", got)
	}
}

func TestParamExpandRemSmallPrefix(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "foo.bar.baz"}})
	pe := paramOp("x", syntax.ParExpRemSmallPrefix, litWord("*."))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bar.baz" {
		t.Errorf("${x#*.} = %q, want bar.baz", got)
	}
}

func TestParamExpandRemLargePrefix(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "foo.bar.baz"}})
	pe := paramOp("x", syntax.ParExpRemLargePrefix, litWord("*."))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "baz" {
		t.Errorf("${x##*.} = %q, want baz", got)
	}
}

func TestParamExpandRemSuffix(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "foo.bar.baz"}})
	pe := paramOp("x", syntax.ParExpRemSmallSuffix, litWord(".*"))
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo.bar" {
		t.Errorf("${x%%.*} = %q, want foo.bar", got)
	}
}

func TestParamExpandReplaceAll(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "a.b.c"}})
	pe := paramOp("x", syntax.ParExpReplaceAll, litWord("."))
	pe.ReplWith = litWord("-")
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a-b-c" {
		t.Errorf("${x//./-} = %q, want a-b-c", got)
	}
}

func TestParamExpandSlice(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "hello world"}})
	pe := &syntax.ParamExp{Name: "x", Slice: &syntax.Slice{
		Offset: arithLit("6"),
	}}
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "world" {
		t.Errorf("${x:6} = %q, want world", got)
	}
}

func TestParamExpandPositionalCount(t *testing.T) {
	env := newMapEnviron(nil)
	env.positional = []string{"a", "b", "c"}
	pe := &syntax.ParamExp{Name: "#", Short: true}
	got, err := paramExpand(env, pe)
	if err != nil {
		t.Fatal(err)
	}
	if got != "3" {
		t.Errorf("$# = %q, want 3", got)
	}
}
