package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/syntax"
)

const maxNameRefDepth = 100

// Arithm evaluates an arithmetic expression tree against env, following
// the precedence and semantics of spec §4.3. Variable reads that resolve
// to another variable's name are followed recursively, the same way bash
// lets `x=y; y=2; echo $((x))` see 2, up to maxNameRefDepth hops.
func Arithm(env WriteEnviron, expr syntax.ArithmExpr) (int64, error) {
	switch x := expr.(type) {
	case *syntax.ArithmWord:
		if x.Word != nil {
			str, err := Literal(env, x.Word)
			if err != nil {
				return 0, err
			}
			return resolveArithOperand(env, str), nil
		}
		return resolveArithOperand(env, x.Lit), nil
	case *syntax.ArithmParen:
		return Arithm(env, x.X)
	case *syntax.ArithmUnary:
		if x.Op == "++" || x.Op == "--" {
			name := arithTargetName(x.X)
			if name == "" {
				return 0, fmt.Errorf("arithmetic: %s requires a variable name", x.Op)
			}
			old := resolveArithOperand(env, env.Get(name).String())
			val := old
			if x.Op == "++" {
				val++
			} else {
				val--
			}
			if err := env.Set(name, Variable{Set: true, Str: strconv.FormatInt(val, 10)}); err != nil {
				return 0, err
			}
			if x.Post {
				return old, nil
			}
			return val, nil
		}
		val, err := Arithm(env, x.X)
		if err != nil {
			return 0, err
		}
		switch x.Op {
		case "!":
			return oneIf(val == 0), nil
		case "~":
			return ^val, nil
		case "+":
			return val, nil
		default: // "-"
			return -val, nil
		}
	case *syntax.ArithmTernary:
		cond, err := Arithm(env, x.Cond)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Arithm(env, x.Then)
		}
		return Arithm(env, x.Else)
	case *syntax.ArithmAssign:
		rhs, err := Arithm(env, x.X)
		if err != nil {
			return 0, err
		}
		val := rhs
		if x.Op != "=" {
			old := resolveArithOperand(env, env.Get(x.Name).String())
			switch x.Op {
			case "+=":
				val = old + rhs
			case "-=":
				val = old - rhs
			case "*=":
				val = old * rhs
			case "/=":
				if rhs == 0 {
					return 0, fmt.Errorf("division by zero")
				}
				val = old / rhs
			case "%=":
				if rhs == 0 {
					return 0, fmt.Errorf("division by zero")
				}
				val = old % rhs
			case "&=":
				val = old & rhs
			case "|=":
				val = old | rhs
			case "^=":
				val = old ^ rhs
			case "<<=":
				val = old << uint(rhs)
			case ">>=":
				val = old >> uint(rhs)
			}
		}
		if err := env.Set(x.Name, Variable{Set: true, Str: strconv.FormatInt(val, 10)}); err != nil {
			return 0, err
		}
		return val, nil
	case *syntax.ArithmBinary:
		left, err := Arithm(env, x.X)
		if err != nil {
			return 0, err
		}
		right, err := Arithm(env, x.Y)
		if err != nil {
			return 0, err
		}
		return binArith(x.Op, left, right)
	default:
		return 0, fmt.Errorf("expand: unhandled arithmetic node %T", expr)
	}
}

func arithTargetName(e syntax.ArithmExpr) string {
	w, ok := e.(*syntax.ArithmWord)
	if !ok || w.Word != nil {
		return ""
	}
	return w.Lit
}

// resolveArithOperand resolves a bare arithmetic operand: if it names a
// set variable, that variable's value is used instead (recursively, as
// bash does), otherwise it is parsed as a number; an operand that is
// neither defaults to 0.
func resolveArithOperand(env Environ, s string) int64 {
	s = strings.TrimSpace(s)
	for depth := 0; isArithName(s) && depth < maxNameRefDepth; depth++ {
		v := env.Get(s)
		if !v.IsSet() {
			break
		}
		s = v.Str
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0
	}
	return n
}

func isArithName(s string) bool {
	if s == "" {
		return false
	}
	c0 := s[0]
	if !(c0 == '_' || (c0 >= 'a' && c0 <= 'z') || (c0 >= 'A' && c0 <= 'Z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func oneIf(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intPow(a, b int64) int64 {
	var p int64 = 1
	for b > 0 {
		if b&1 != 0 {
			p *= a
		}
		b >>= 1
		a *= a
	}
	return p
}

func binArith(op string, x, y int64) (int64, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return x % y, nil
	case "**":
		return intPow(x, y), nil
	case "==":
		return oneIf(x == y), nil
	case "!=":
		return oneIf(x != y), nil
	case "<":
		return oneIf(x < y), nil
	case "<=":
		return oneIf(x <= y), nil
	case ">":
		return oneIf(x > y), nil
	case ">=":
		return oneIf(x >= y), nil
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "^":
		return x ^ y, nil
	case "<<":
		if y < 0 {
			return 0, fmt.Errorf("negative shift count")
		}
		return x << uint(y), nil
	case ">>":
		if y < 0 {
			return 0, fmt.Errorf("negative shift count")
		}
		return x >> uint(y), nil
	case "&&":
		return oneIf(x != 0 && y != 0), nil
	case "||":
		return oneIf(x != 0 || y != 0), nil
	default:
		return 0, fmt.Errorf("expand: unsupported arithmetic operator %q", op)
	}
}
