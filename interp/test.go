package interp

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/pattern"
	"github.com/gosh-lang/gosh/syntax"
)

// evalTest evaluates a `[[ ... ]]` expression tree to its boolean result.
func (r *Runner) evalTest(x syntax.TestExpr) (bool, error) {
	switch t := x.(type) {
	case *syntax.UnaryTest:
		return r.evalUnaryTest(t)
	case *syntax.BinaryTest:
		return r.evalBinaryTest(t)
	case *syntax.NotTest:
		v, err := r.evalTest(t.X)
		return !v, err
	case *syntax.AndTest:
		l, err := r.evalTest(t.X)
		if err != nil || !l {
			return false, err
		}
		return r.evalTest(t.Y)
	case *syntax.OrTest:
		l, err := r.evalTest(t.X)
		if err != nil || l {
			return l, err
		}
		return r.evalTest(t.Y)
	case *syntax.ParenTest:
		return r.evalTest(t.X)
	default:
		return false, fmt.Errorf("interp: unhandled test expression %T", x)
	}
}

func (r *Runner) evalUnaryTest(t *syntax.UnaryTest) (bool, error) {
	if t.Op == "-v" {
		name, err := expand.Literal(r, t.X)
		if err != nil {
			return false, err
		}
		return r.Get(name).IsSet(), nil
	}
	s, err := expand.Literal(r, t.X)
	if err != nil {
		return false, err
	}
	switch t.Op {
	case "-z":
		return s == "", nil
	case "-n":
		return s != "", nil
	}
	info, statErr := os.Stat(s)
	switch t.Op {
	case "-e":
		return statErr == nil, nil
	case "-f":
		return statErr == nil && info.Mode().IsRegular(), nil
	case "-d":
		return statErr == nil && info.IsDir(), nil
	case "-s":
		return statErr == nil && info.Size() > 0, nil
	case "-r", "-w", "-x":
		return statErr == nil, nil
	case "-L":
		li, err := os.Lstat(s)
		return err == nil && li.Mode()&os.ModeSymlink != 0, nil
	default:
		return false, fmt.Errorf("interp: unsupported unary test operator %q", t.Op)
	}
}

func (r *Runner) evalBinaryTest(t *syntax.BinaryTest) (bool, error) {
	x, err := expand.Literal(r, t.X)
	if err != nil {
		return false, err
	}
	switch t.Op {
	case "==", "=", "!=":
		var pat string
		if t.YIsPattern {
			pat, err = expand.Pattern(r, t.Y)
		} else {
			pat, err = expand.Literal(r, t.Y)
			pat = regexp.QuoteMeta(pat)
		}
		if err != nil {
			return false, err
		}
		reSrc, err := pattern.Regexp(pat, pattern.EntireString)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile(reSrc)
		if err != nil {
			return false, err
		}
		matched := re.MatchString(x)
		if t.Op == "!=" {
			return !matched, nil
		}
		return matched, nil
	case "=~":
		y, err := expand.Literal(r, t.Y)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile(y)
		if err != nil {
			return false, err
		}
		return re.MatchString(x), nil
	case "<":
		y, err := expand.Literal(r, t.Y)
		if err != nil {
			return false, err
		}
		return x < y, nil
	case ">":
		y, err := expand.Literal(r, t.Y)
		if err != nil {
			return false, err
		}
		return x > y, nil
	}
	y, err := expand.Literal(r, t.Y)
	if err != nil {
		return false, err
	}
	xn, yn, err := parseTestInts(x, y)
	if err != nil {
		return false, err
	}
	switch t.Op {
	case "-eq":
		return xn == yn, nil
	case "-ne":
		return xn != yn, nil
	case "-lt":
		return xn < yn, nil
	case "-le":
		return xn <= yn, nil
	case "-gt":
		return xn > yn, nil
	case "-ge":
		return xn >= yn, nil
	default:
		return false, fmt.Errorf("interp: unsupported binary test operator %q", t.Op)
	}
}

func parseTestInts(x, y string) (int64, int64, error) {
	xn, err := strconv.ParseInt(x, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("interp: %q is not a valid integer", x)
	}
	yn, err := strconv.ParseInt(y, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("interp: %q is not a valid integer", y)
	}
	return xn, yn, nil
}
