package expand

import (
	"testing"

	"github.com/gosh-lang/gosh/syntax"
)

func lit(s string) *syntax.Lit                { return &syntax.Lit{Value: s} }
func word(ps ...syntax.WordPart) *syntax.Word { return &syntax.Word{Parts: ps} }
func litWord(s string) *syntax.Word           { return word(lit(s)) }

func litsOf(words []*syntax.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = literalText(w)
	}
	return out
}

func TestBracesNoOp(t *testing.T) {
	got := Braces(litWord("a{b"))
	if want := []string{"a{b"}; !stringSlicesEqual(litsOf(got), want) {
		t.Errorf("Braces(a{b) = %v, want %v", litsOf(got), want)
	}
}

func TestBracesList(t *testing.T) {
	w := word(lit("a"), &syntax.BraceExp{Elems: []*syntax.Word{litWord("b"), litWord("c")}})
	got := litsOf(Braces(w))
	want := []string{"ab", "ac"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Braces(a{b,c}) = %v, want %v", got, want)
	}
}

func TestBracesNested(t *testing.T) {
	inner := &syntax.BraceExp{Elems: []*syntax.Word{litWord("c"), litWord("d")}}
	w := word(lit("a"), &syntax.BraceExp{Elems: []*syntax.Word{
		litWord("b"),
		word(inner),
	}})
	got := litsOf(Braces(w))
	want := []string{"ab", "ac", "ad"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Braces(a{b,{c,d}}) = %v, want %v", got, want)
	}
}

func TestBracesNumericSequence(t *testing.T) {
	seq := &syntax.BraceExp{Seq: &syntax.BraceSequence{From: "1", To: "3"}}
	got := litsOf(Braces(word(seq)))
	want := []string{"1", "2", "3"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Braces(1..3) = %v, want %v", got, want)
	}
}

func TestBracesNumericSequenceZeroPadded(t *testing.T) {
	seq := &syntax.BraceExp{Seq: &syntax.BraceSequence{From: "08", To: "10"}}
	got := litsOf(Braces(word(seq)))
	want := []string{"08", "09", "10"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Braces(08..10) = %v, want %v", got, want)
	}
}

func TestBracesAlphaSequence(t *testing.T) {
	seq := &syntax.BraceExp{Seq: &syntax.BraceSequence{From: "a", To: "c"}}
	got := litsOf(Braces(word(seq)))
	want := []string{"a", "b", "c"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Braces(a..c) = %v, want %v", got, want)
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
