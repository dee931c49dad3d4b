package expand

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gosh-lang/gosh/pattern"
	"github.com/gosh-lang/gosh/syntax"
)

// paramValue resolves pe.Name to its current string value and whether it
// is set, handling the special parameters ($@, $*, $#) that read from the
// positional-parameter list rather than a named variable.
func paramValue(env Environ, pe *syntax.ParamExp) (str string, set bool) {
	switch pe.Name {
	case "@":
		return strings.Join(env.Positional(), " "), true
	case "*":
		return strings.Join(env.Positional(), ifsFirst(ifsOf(env))), true
	case "#":
		return strconv.Itoa(len(env.Positional())), true
	}
	if n, err := strconv.Atoi(pe.Name); err == nil && n >= 1 {
		params := env.Positional()
		if n > len(params) {
			return "", false
		}
		return params[n-1], true
	}
	vr := env.Get(pe.Name)
	return vr.Str, vr.Set
}

// paramExpand evaluates a parameter expansion to its final string, applying
// whichever modifier (if any) pe.Op names.
func paramExpand(env WriteEnviron, pe *syntax.ParamExp) (string, error) {
	str, set := paramValue(env, pe)

	if pe.Length {
		if pe.Name == "@" || pe.Name == "*" {
			return strconv.Itoa(len(env.Positional())), nil
		}
		return strconv.Itoa(utf8.RuneCountInString(str)), nil
	}

	if pe.Slice != nil {
		off, err := Arithm(env, pe.Slice.Offset)
		if err != nil {
			return "", err
		}
		str = sliceOffset(str, off)
		if pe.Slice.Length != nil {
			length, err := Arithm(env, pe.Slice.Length)
			if err != nil {
				return "", err
			}
			str = sliceLength(str, length)
		}
		return str, nil
	}

	if pe.Op == syntax.ParExpNone {
		return str, nil
	}

	arg, err := Literal(env, pe.OpWord)
	if err != nil {
		return "", err
	}

	switch pe.Op {
	case syntax.ParExpColonPlus:
		if str == "" {
			return "", nil
		}
		return arg, nil
	case syntax.ParExpPlus:
		if !set {
			return "", nil
		}
		return arg, nil
	case syntax.ParExpColonMinus:
		if str == "" {
			return arg, nil
		}
		return str, nil
	case syntax.ParExpMinus:
		if !set {
			return arg, nil
		}
		return str, nil
	case syntax.ParExpColonAssign:
		if str == "" {
			if err := env.Set(pe.Name, Variable{Set: true, Str: arg}); err != nil {
				return "", err
			}
			return arg, nil
		}
		return str, nil
	case syntax.ParExpAssign:
		if !set {
			if err := env.Set(pe.Name, Variable{Set: true, Str: arg}); err != nil {
				return "", err
			}
			return arg, nil
		}
		return str, nil
	case syntax.ParExpRemSmallPrefix, syntax.ParExpRemLargePrefix,
		syntax.ParExpRemSmallSuffix, syntax.ParExpRemLargeSuffix:
		suffix := pe.Op == syntax.ParExpRemSmallSuffix || pe.Op == syntax.ParExpRemLargeSuffix
		large := pe.Op == syntax.ParExpRemLargePrefix || pe.Op == syntax.ParExpRemLargeSuffix
		return removePattern(str, arg, suffix, large), nil
	case syntax.ParExpReplaceOnce, syntax.ParExpReplaceAll:
		with := ""
		if pe.ReplWith != nil {
			with, err = Literal(env, pe.ReplWith)
			if err != nil {
				return "", err
			}
		}
		return replacePattern(str, arg, with, pe.Op == syntax.ParExpReplaceAll), nil
	default:
		return str, nil
	}
}

func sliceOffset(str string, off int64) string {
	if off < 0 {
		off = int64(len(str)) + off
		if off < 0 {
			off = 0
		}
	}
	if off > int64(len(str)) {
		off = int64(len(str))
	}
	return str[off:]
}

func sliceLength(str string, length int64) string {
	if length < 0 {
		length = int64(len(str)) + length
		if length < 0 {
			length = 0
		}
	}
	if length > int64(len(str)) {
		length = int64(len(str))
	}
	return str[:length]
}

// removePattern implements the #, ##, %, %% modifiers: strip the
// shortest (#, %) or longest (##, %%) match of pat from the front
// (prefix) or back (suffix) of str.
func removePattern(str, pat string, fromEnd, greedy bool) string {
	mode := pattern.Mode(0)
	if !greedy {
		mode |= pattern.Shortest
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch {
	case fromEnd && !greedy:
		expr = ".*(" + expr + ")$"
	case fromEnd:
		expr = "(" + expr + ")$"
	default:
		expr = "^(" + expr + ")"
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	if loc := rx.FindStringSubmatchIndex(str); loc != nil {
		str = str[:loc[2]] + str[loc[3]:]
	}
	return str
}

// replacePattern implements the /pat/repl and //pat/repl modifiers.
func replacePattern(str, pat, with string, all bool) string {
	expr, err := pattern.Regexp(pat, 0)
	if err != nil {
		return str
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	n := 1
	if all {
		n = -1
	}
	locs := rx.FindAllStringIndex(str, n)
	if locs == nil {
		return str
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(str[last:loc[0]])
		b.WriteString(with)
		last = loc[1]
	}
	b.WriteString(str[last:])
	return b.String()
}
