package expand

import (
	"testing"

	"github.com/gosh-lang/gosh/syntax"
)

func arithLit(s string) *syntax.ArithmWord { return &syntax.ArithmWord{Lit: s} }

func TestArithmBinary(t *testing.T) {
	env := newMapEnviron(nil)
	expr := &syntax.ArithmBinary{Op: "+", X: arithLit("2"), Y: arithLit("3")}
	got, err := Arithm(env, expr)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("2+3 = %d, want 5", got)
	}
}

func TestArithmVariable(t *testing.T) {
	env := newMapEnviron(map[string]Variable{"x": {Set: true, Str: "4"}})
	expr := &syntax.ArithmBinary{Op: "*", X: arithLit("x"), Y: arithLit("2")}
	got, err := Arithm(env, expr)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("x*2 = %d, want 8", got)
	}
}

func TestArithmAssign(t *testing.T) {
	env := newMapEnviron(nil)
	expr := &syntax.ArithmAssign{Op: "=", Name: "x", X: arithLit("7")}
	if _, err := Arithm(env, expr); err != nil {
		t.Fatal(err)
	}
	if got := env.Get("x").Str; got != "7" {
		t.Errorf("x after assignment = %q, want 7", got)
	}
}

func TestArithmTernary(t *testing.T) {
	env := newMapEnviron(nil)
	expr := &syntax.ArithmTernary{Cond: arithLit("0"), Then: arithLit("1"), Else: arithLit("2")}
	got, err := Arithm(env, expr)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("0?1:2 = %d, want 2", got)
	}
}

func TestArithmDivisionByZero(t *testing.T) {
	env := newMapEnviron(nil)
	expr := &syntax.ArithmBinary{Op: "/", X: arithLit("1"), Y: arithLit("0")}
	if _, err := Arithm(env, expr); err == nil {
		t.Errorf("1/0: expected an error, got nil")
	}
}

func TestArithmNegativeShiftCount(t *testing.T) {
	env := newMapEnviron(nil)
	for _, op := range []string{"<<", ">>"} {
		expr := &syntax.ArithmBinary{Op: op, X: arithLit("1"), Y: arithLit("-1")}
		if _, err := Arithm(env, expr); err == nil {
			t.Errorf("1 %s -1: expected an error, got nil", op)
		}
	}
}
