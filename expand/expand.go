package expand

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/syntax"
)

// CmdRunner executes a command substitution's statement list in a subshell
// and captures its standard output. Word expansion type-asserts env
// against this interface whenever a word contains $(...) or a legacy
// `...` substitution; an environment that does not implement it (such as
// the plain ListEnviron helper) cannot expand such a word.
type CmdRunner interface {
	RunCmdSubst(stmts []*syntax.Stmt) (string, error)
}

type quoteLevel uint

const (
	quoteNone quoteLevel = iota
	quoteDouble
	quoteSingle
)

type fieldPart struct {
	val   string
	quote quoteLevel
}

func joinParts(parts []fieldPart) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0].val
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.val)
	}
	return b.String()
}

func ifsOf(env Environ) string {
	vr := env.Get("IFS")
	if !vr.Set {
		return " \t\n"
	}
	return vr.Str
}

func ifsFirst(ifs string) string {
	if ifs == "" {
		return ""
	}
	return string([]rune(ifs)[0])
}

func ifsRuneFunc(ifs string) func(rune) bool {
	return func(r rune) bool { return strings.ContainsRune(ifs, r) }
}

// Literal expands word the way a double-quoted context does: tilde,
// parameter, command, and arithmetic expansion all run, but the result is
// never split into multiple fields. Used for parameter-expansion operand
// words and bare arithmetic operands, neither of which bash splits.
func Literal(env WriteEnviron, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	parts, err := wordField(env, word.Parts, quoteDouble)
	if err != nil {
		return "", err
	}
	return joinParts(parts), nil
}

// LiteralAssign expands an assignment's value the way Literal does
// (tilde, parameter, command, and arithmetic expansion, never split into
// multiple fields), except tilde expansion also fires immediately after
// every top-level ':' or '=' in the word's unquoted literal text, not
// just at word-start, matching bash's assignment-context tilde
// expansion: "PATH=~/bin:~/sbin" expands both tildes.
func LiteralAssign(env WriteEnviron, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	parts, err := assignField(env, word.Parts)
	if err != nil {
		return "", err
	}
	return joinParts(parts), nil
}

// assignField is wordField's assignment-context counterpart: it tracks
// whether the text consumed so far ends right after a ':' or '=' (or is
// at the very start) and expands a tilde there, across every unquoted
// Lit part, rather than only a word-leading one.
func assignField(env WriteEnviron, parts []syntax.WordPart) ([]fieldPart, error) {
	var field []fieldPart
	atDelim := true
	for _, wp := range parts {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := expandTildeAfterDelims(env, x.Value, atDelim)
			field = append(field, fieldPart{val: s})
			atDelim = s != "" && (s[len(s)-1] == ':' || s[len(s)-1] == '=')
		case *syntax.SglQuoted:
			field = append(field, fieldPart{quote: quoteSingle, val: x.Value})
			atDelim = false
		case *syntax.DblQuoted:
			sub, err := wordField(env, x.Parts, quoteDouble)
			if err != nil {
				return nil, err
			}
			for _, p := range sub {
				p.quote = quoteDouble
				field = append(field, p)
			}
			atDelim = false
		case *syntax.ParamExp:
			s, err := paramExpand(env, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: s})
			atDelim = s != "" && (s[len(s)-1] == ':' || s[len(s)-1] == '=')
		case *syntax.CmdSubst:
			s, err := cmdSubst(env, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: s})
			atDelim = false
		case *syntax.ArithExp:
			n, err := Arithm(env, x.X)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: strconv.FormatInt(n, 10)})
			atDelim = false
		case *syntax.BraceExp:
			field = append(field, fieldPart{val: braceSource(x)})
			atDelim = false
		default:
			return nil, fmt.Errorf("expand: unhandled word part %T", wp)
		}
	}
	return field, nil
}

// Fields runs the full word-expansion pipeline: brace expansion, then for
// each resulting word, tilde/parameter/command/arithmetic expansion, IFS
// field splitting, and quote removal. Filesystem globbing is not
// implemented, so any glob metacharacters that survive quote removal are
// returned verbatim instead of being matched against the filesystem.
func Fields(env WriteEnviron, words ...*syntax.Word) ([]string, error) {
	var out []string
	for _, w := range Braces(words...) {
		fs, err := wordFields(env, w.Parts)
		if err != nil {
			return nil, err
		}
		for _, f := range fs {
			out = append(out, joinParts(f))
		}
	}
	return out, nil
}

// wordField expands parts into a single field, never splitting on IFS.
// Used both for Literal and, recursively, for the contents of a
// double-quoted span inside a multi-field expansion.
func wordField(env WriteEnviron, parts []syntax.WordPart, ql quoteLevel) ([]fieldPart, error) {
	var field []fieldPart
	for i, wp := range parts {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := x.Value
			if i == 0 {
				s = expandTilde(env, s)
			}
			field = append(field, fieldPart{val: s})
		case *syntax.SglQuoted:
			field = append(field, fieldPart{quote: quoteSingle, val: x.Value})
		case *syntax.DblQuoted:
			sub, err := wordField(env, x.Parts, quoteDouble)
			if err != nil {
				return nil, err
			}
			for _, p := range sub {
				p.quote = quoteDouble
				field = append(field, p)
			}
		case *syntax.ParamExp:
			s, err := paramExpand(env, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: s})
		case *syntax.CmdSubst:
			s, err := cmdSubst(env, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: s})
		case *syntax.ArithExp:
			n, err := Arithm(env, x.X)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: strconv.FormatInt(n, 10)})
		case *syntax.BraceExp:
			// Braces() resolves every BraceExp before field expansion
			// runs; one surviving here (Literal called on a raw parser
			// word) is malformed input that never expanded, so its
			// literal source text is the best fallback.
			field = append(field, fieldPart{val: braceSource(x)})
		default:
			return nil, fmt.Errorf("expand: unhandled word part %T", wp)
		}
	}
	return field, nil
}

// wordFields is wordField's multi-field counterpart: it also performs IFS
// splitting on the unquoted parts of parts, and preserves the empty-field
// bash gets from a lone pair of quotes ("" or '').
func wordFields(env WriteEnviron, parts []syntax.WordPart) ([][]fieldPart, error) {
	ifs := ifsOf(env)
	var fields [][]fieldPart
	var cur []fieldPart
	allowEmpty := false
	flush := func() {
		if len(cur) == 0 {
			return
		}
		fields = append(fields, cur)
		cur = nil
	}
	splitAdd := func(val string) {
		segs := strings.FieldsFunc(val, ifsRuneFunc(ifs))
		for i, seg := range segs {
			if i > 0 {
				flush()
			}
			cur = append(cur, fieldPart{val: seg})
		}
	}
	for i, wp := range parts {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := x.Value
			if i == 0 {
				s = expandTilde(env, s)
			}
			if strings.IndexByte(s, '\\') >= 0 {
				// quote removal: an unquoted backslash escapes the next byte
				var b strings.Builder
				for j := 0; j < len(s); j++ {
					if s[j] == '\\' && j+1 < len(s) {
						j++
					}
					b.WriteByte(s[j])
				}
				s = b.String()
			}
			cur = append(cur, fieldPart{val: s})
		case *syntax.SglQuoted:
			allowEmpty = true
			cur = append(cur, fieldPart{quote: quoteSingle, val: x.Value})
		case *syntax.DblQuoted:
			if len(x.Parts) == 1 {
				if pe, ok := x.Parts[0].(*syntax.ParamExp); ok {
					if elems, ok := quotedPositional(pe, env); ok {
						// Bare "$@": with no positional parameters this
						// produces zero fields, not one empty field, so
						// allowEmpty must NOT be set here.
						for i, e := range elems {
							if i > 0 {
								flush()
							}
							cur = append(cur, fieldPart{quote: quoteDouble, val: e})
						}
						continue
					}
				}
			}
			allowEmpty = true
			sub, err := wordField(env, x.Parts, quoteDouble)
			if err != nil {
				return nil, err
			}
			for _, p := range sub {
				p.quote = quoteDouble
				cur = append(cur, p)
			}
		case *syntax.ParamExp:
			s, err := paramExpand(env, x)
			if err != nil {
				return nil, err
			}
			splitAdd(s)
		case *syntax.CmdSubst:
			s, err := cmdSubst(env, x)
			if err != nil {
				return nil, err
			}
			splitAdd(s)
		case *syntax.ArithExp:
			n, err := Arithm(env, x.X)
			if err != nil {
				return nil, err
			}
			cur = append(cur, fieldPart{val: strconv.FormatInt(n, 10)})
		case *syntax.BraceExp:
			cur = append(cur, fieldPart{val: braceSource(x)})
		default:
			return nil, fmt.Errorf("expand: unhandled word part %T", wp)
		}
	}
	flush()
	if allowEmpty && len(fields) == 0 {
		fields = append(fields, cur)
	}
	return fields, nil
}

// quotedPositional reports the positional parameters when pe is exactly
// "$@" with no modifier, the one case where a double-quoted parameter
// expansion still produces more than one field: `set -- a "" b; for x in
// "$@"` must see three fields, preserving the empty one.
func quotedPositional(pe *syntax.ParamExp, env Environ) ([]string, bool) {
	if pe.Name != "@" || pe.Length || pe.Slice != nil || pe.Op != syntax.ParExpNone {
		return nil, false
	}
	return env.Positional(), true
}

func cmdSubst(env WriteEnviron, cs *syntax.CmdSubst) (string, error) {
	runner, ok := env.(CmdRunner)
	if !ok {
		return "", fmt.Errorf("expand: command substitution is not available in this context")
	}
	out, err := runner.RunCmdSubst(cs.Stmts)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// tildeSegment resolves the ~ or ~user prefix at the start of s (s[0]
// must be '~'), stopping the user name at the next '/' or ':'. ok is
// false when the name doesn't resolve to HOME or a known account, in
// which case s is left untouched by the caller.
func tildeSegment(env Environ, s string) (expanded, rest string, ok bool) {
	name := s[1:]
	if i := strings.IndexAny(name, "/:"); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		if vr := env.Get("HOME"); vr.Set {
			return vr.Str, rest, true
		}
		return "", "", false
	}
	u, err := user.Lookup(name)
	if err != nil {
		return "", "", false
	}
	return u.HomeDir, rest, true
}

// expandTilde expands a leading ~ or ~user at the very start of a word
// into the relevant home directory. bash only does this at word-start, so
// callers only ever pass i==0 literals here.
func expandTilde(env Environ, s string) string {
	if s == "" || s[0] != '~' {
		return s
	}
	expanded, rest, ok := tildeSegment(env, s)
	if !ok {
		return s
	}
	return expanded + rest
}

// expandTildeAfterDelims expands every ~ or ~user segment in s that
// either opens the word (atStart) or immediately follows a ':' or '='
// character already consumed before s — the shape bash's
// assignment-context tilde expansion recognizes, so that
// "PATH=~/bin:~/sbin" expands both tildes instead of just the first.
func expandTildeAfterDelims(env Environ, s string, atStart bool) string {
	var b strings.Builder
	atDelim := atStart
	for len(s) > 0 {
		if atDelim && s[0] == '~' {
			if expanded, rest, ok := tildeSegment(env, s); ok {
				b.WriteString(expanded)
				s = rest
				atDelim = false
				continue
			}
		}
		c := s[0]
		b.WriteByte(c)
		atDelim = c == ':' || c == '='
		s = s[1:]
	}
	return b.String()
}

// literalText renders a word's literal and single-quoted text verbatim,
// skipping any expansions; used only to redisplay an unexpanded BraceExp.
func literalText(w *syntax.Word) string {
	if w == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range w.Parts {
		switch x := p.(type) {
		case *syntax.Lit:
			b.WriteString(x.Value)
		case *syntax.SglQuoted:
			b.WriteString(x.Value)
		}
	}
	return b.String()
}

// braceSource reconstructs the literal source text of a BraceExp that
// reached field expansion unexpanded.
func braceSource(be *syntax.BraceExp) string {
	var b strings.Builder
	b.WriteByte('{')
	if be.Seq != nil {
		b.WriteString(be.Seq.From)
		b.WriteString("..")
		b.WriteString(be.Seq.To)
		if be.Seq.HasStep {
			b.WriteString("..")
			b.WriteString(strconv.Itoa(be.Seq.Step))
		}
	} else {
		for i, elem := range be.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(literalText(elem))
		}
	}
	b.WriteByte('}')
	return b.String()
}
