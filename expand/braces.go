package expand

import (
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/syntax"
)

// Braces performs brace expansion on each word, in the order the words
// were given. A word with no *syntax.BraceExp parts expands to itself
// unchanged. Per the ordering resolved in SPEC_FULL.md, this always runs
// before parameter, command, and arithmetic expansion see the resulting
// words.
func Braces(words ...*syntax.Word) []*syntax.Word {
	var out []*syntax.Word
	for _, w := range words {
		out = append(out, expandWordBraces(w)...)
	}
	return out
}

func expandWordBraces(w *syntax.Word) []*syntax.Word {
	if w == nil {
		return []*syntax.Word{w}
	}
	return expandParts(w.Parts)
}

func expandParts(parts []syntax.WordPart) []*syntax.Word {
	results := []*syntax.Word{{}}
	for _, part := range parts {
		variants := expandPart(part)
		next := make([]*syntax.Word, 0, len(results)*len(variants))
		for _, acc := range results {
			for _, v := range variants {
				merged := make([]syntax.WordPart, 0, len(acc.Parts)+len(v))
				merged = append(merged, acc.Parts...)
				merged = append(merged, v...)
				next = append(next, &syntax.Word{Parts: merged})
			}
		}
		results = next
	}
	return results
}

// expandPart returns, for one word part, the list of alternative part
// sequences it contributes to the cross product. A part that isn't a
// brace expansion contributes exactly one alternative: itself.
func expandPart(p syntax.WordPart) [][]syntax.WordPart {
	be, ok := p.(*syntax.BraceExp)
	if !ok {
		return [][]syntax.WordPart{{p}}
	}
	if be.Seq != nil {
		var out [][]syntax.WordPart
		for _, s := range expandBraceSequence(be.Seq) {
			out = append(out, []syntax.WordPart{&syntax.Lit{ValuePos: be.LBrace, Value: s}})
		}
		return out
	}
	var out [][]syntax.WordPart
	for _, elem := range be.Elems {
		for _, sub := range expandParts(elem.Parts) {
			out = append(out, sub.Parts)
		}
	}
	return out
}

func expandBraceSequence(seq *syntax.BraceSequence) []string {
	if isNumericOperand(seq.From) {
		return expandNumericSequence(seq)
	}
	return expandAlphaSequence(seq)
}

func isNumericOperand(s string) bool {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	return t != "" && t[0] >= '0' && t[0] <= '9'
}

func expandNumericSequence(seq *syntax.BraceSequence) []string {
	from, _ := strconv.Atoi(seq.From)
	to, _ := strconv.Atoi(seq.To)
	step := seq.Step
	if step == 0 {
		step = 1
	}
	if step < 0 {
		step = -step
	}
	width := 0
	if hasLeadingZero(seq.From) || hasLeadingZero(seq.To) {
		width = unsignedLen(seq.From)
		if w := unsignedLen(seq.To); w > width {
			width = w
		}
	}
	var out []string
	if from <= to {
		for v := from; v <= to; v += step {
			out = append(out, padSigned(v, width))
		}
	} else {
		for v := from; v >= to; v -= step {
			out = append(out, padSigned(v, width))
		}
	}
	return out
}

func hasLeadingZero(s string) bool {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	return len(t) > 1 && t[0] == '0'
}

func unsignedLen(s string) int {
	return len(strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+"))
}

func padSigned(v, width int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	core := strings.TrimPrefix(s, "-")
	for len(core) < width {
		core = "0" + core
	}
	if neg {
		return "-" + core
	}
	return core
}

func expandAlphaSequence(seq *syntax.BraceSequence) []string {
	from, to := seq.From[0], seq.To[0]
	step := seq.Step
	if step == 0 {
		step = 1
	}
	if step < 0 {
		step = -step
	}
	var out []string
	if from <= to {
		for c := int(from); c <= int(to); c += step {
			out = append(out, string(byte(c)))
		}
	} else {
		for c := int(from); c >= int(to); c -= step {
			out = append(out, string(byte(c)))
		}
	}
	return out
}
