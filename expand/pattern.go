package expand

import (
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/syntax"
)

// Pattern expands word into glob-pattern syntax suitable for
// pattern.Regexp: literal text outside quotes keeps its `*`/`?`/`[...]`
// metacharacters active, while quoted text and the result of any
// parameter/command/arithmetic expansion is escaped so it can only ever
// match itself, matching case/[[ == ]]'s rule that only literal pattern
// syntax in the source text drives matching.
func Pattern(env WriteEnviron, word *syntax.Word) (string, error) {
	var b strings.Builder
	for i, wp := range word.Parts {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := x.Value
			if i == 0 {
				s = expandTilde(env, s)
			}
			b.WriteString(s)
		case *syntax.SglQuoted:
			b.WriteString(escapeGlobMeta(x.Value))
		case *syntax.DblQuoted:
			s, err := Literal(env, &syntax.Word{Parts: x.Parts})
			if err != nil {
				return "", err
			}
			b.WriteString(escapeGlobMeta(s))
		case *syntax.ParamExp:
			s, err := paramExpand(env, x)
			if err != nil {
				return "", err
			}
			b.WriteString(escapeGlobMeta(s))
		case *syntax.CmdSubst:
			s, err := cmdSubst(env, x)
			if err != nil {
				return "", err
			}
			b.WriteString(escapeGlobMeta(s))
		case *syntax.ArithExp:
			n, err := Arithm(env, x.X)
			if err != nil {
				return "", err
			}
			b.WriteString(strconv.FormatInt(n, 10))
		case *syntax.BraceExp:
			b.WriteString(escapeGlobMeta(braceSource(x)))
		}
	}
	return b.String(), nil
}

func escapeGlobMeta(s string) string {
	if !strings.ContainsAny(s, `*?[\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
