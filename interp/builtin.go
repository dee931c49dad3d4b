package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/syntax"
)

func parseSource(src string) (*syntax.File, error) {
	return syntax.Parse([]byte(src), "eval")
}

// builtinFunc is a builtin command's implementation. Like any command it
// can carry a control-flow signal (exit/return/break/continue); most
// builtins just return ctlFlowNone alongside their exit status.
type builtinFunc func(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow)

// builtins is the name-to-handler registry (C4). Builtins are looked up
// before PATH, and always run in the calling Runner's own process: they
// never fork, so `cd` and `export` can actually affect the shell's state.
var builtins = map[string]builtinFunc{
	":":        builtinTrue,
	"true":     builtinTrue,
	"false":    builtinFalse,
	"echo":     builtinEcho,
	"printf":   builtinPrintf,
	"export":   builtinExport,
	"unset":    builtinUnset,
	"cd":       builtinCd,
	"pwd":      builtinPwd,
	"exit":     builtinExit,
	"return":   builtinReturn,
	"break":    builtinBreak,
	"continue": builtinContinue,
	"shift":    builtinShift,
	"set":      builtinSet,
	"type":     builtinType,
	"which":    builtinWhich,
	"eval":     builtinEval,
	"command":  builtinCommand,
	"test":     builtinTest,
	"[":        builtinTest,
}

// IsBuiltin reports whether name is a recognized builtin.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinTrue(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	return 0, ctlFlowNone
}

func builtinFalse(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	return 1, ctlFlowNone
}

func builtinEcho(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	newline := true
	interpret := false
	for len(args) > 0 {
		switch args[0] {
		case "-n":
			newline = false
		case "-e":
			interpret = true
		case "-E":
			interpret = false
		default:
			goto out
		}
		args = args[1:]
	}
out:
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(r.Stdout, " ")
		}
		if interpret {
			a = expandEchoEscapes(a)
		}
		fmt.Fprint(r.Stdout, a)
	}
	if newline {
		fmt.Fprintln(r.Stdout)
	}
	return 0, ctlFlowNone
}

func expandEchoEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// builtinPrintf implements the common %s/%d/%q/%% verbs plus \n-style
// escapes in the format string, recycling the format over extra
// arguments the way POSIX printf does when more operands than verbs are
// given.
func builtinPrintf(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	if len(args) == 0 {
		return 0, ctlFlowNone
	}
	format := expandEchoEscapes(args[0])
	operands := args[1:]
	for {
		consumed, err := runPrintf(r.Stdout, format, operands)
		if err != nil {
			fmt.Fprintf(r.Stderr, "gosh: printf: %s\n", err)
			return 1, ctlFlowNone
		}
		operands = operands[consumed:]
		if len(operands) == 0 || consumed == 0 {
			break
		}
	}
	return 0, ctlFlowNone
}

// runPrintf renders one pass of format against operands, consuming as
// many operands as there are non-%% verbs, and reports how many it used
// so builtinPrintf can recycle the format string over any leftovers.
func runPrintf(out io.Writer, format string, operands []string) (consumed int, err error) {
	i, opIdx := 0, 0
	nextOperand := func() string {
		if opIdx < len(operands) {
			s := operands[opIdx]
			opIdx++
			return s
		}
		return ""
	}
	for i < len(format) {
		c := format[i]
		if c != '%' {
			fmt.Fprintf(out, "%c", c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		if format[i] == '%' {
			fmt.Fprint(out, "%")
			i++
			continue
		}
		start := i
		for i < len(format) && strings.ContainsRune("-+ 0123456789.", rune(format[i])) {
			i++
		}
		if i >= len(format) {
			return opIdx, fmt.Errorf("invalid format %q", format)
		}
		verb := format[i]
		spec := "%" + format[start:i] + string(verb)
		i++
		switch verb {
		case 's':
			fmt.Fprintf(out, spec, nextOperand())
		case 'd', 'i':
			n, _ := strconv.ParseInt(nextOperand(), 10, 64)
			fmt.Fprintf(out, spec[:len(spec)-1]+"d", n)
		case 'o', 'x', 'X':
			n, _ := strconv.ParseInt(nextOperand(), 10, 64)
			fmt.Fprintf(out, spec, n)
		case 'u':
			n, _ := strconv.ParseInt(nextOperand(), 10, 64)
			fmt.Fprintf(out, spec[:len(spec)-1]+"d", n)
		case 'c':
			s := nextOperand()
			if len(s) > 0 {
				fmt.Fprint(out, string(s[0]))
			}
		case 'q':
			fmt.Fprintf(out, "%q", nextOperand())
		default:
			return opIdx, fmt.Errorf("unsupported format verb %%%c", verb)
		}
	}
	return opIdx, nil
}

func builtinExport(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	for _, a := range args {
		name, val, hasEq := strings.Cut(a, "=")
		vr := r.Get(name)
		vr.Exported = true
		if hasEq {
			vr.Set = true
			vr.Str = val
		}
		if err := r.Set(name, vr); err != nil {
			fmt.Fprintf(r.Stderr, "gosh: export: %s\n", err)
			return 1, ctlFlowNone
		}
	}
	return 0, ctlFlowNone
}

func builtinUnset(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	for _, name := range args {
		if err := r.Set(name, expand.Variable{}); err != nil {
			fmt.Fprintf(r.Stderr, "gosh: unset: %s\n", err)
			return 1, ctlFlowNone
		}
	}
	return 0, ctlFlowNone
}

func builtinCd(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	target := r.Get("HOME").Str
	if len(args) > 0 {
		target = args[0]
	}
	if target == "-" {
		target = r.prevDir
	}
	if target == "" {
		fmt.Fprintln(r.Stderr, "gosh: cd: no directory specified")
		return 1, ctlFlowNone
	}
	if !strings.HasPrefix(target, "/") {
		target = r.Dir + "/" + target
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(r.Stderr, "gosh: cd: %s: no such directory\n", target)
		return 1, ctlFlowNone
	}
	r.prevDir = r.Dir
	r.Dir = target
	r.Set("PWD", expand.Variable{Set: true, Exported: true, Str: target})
	return 0, ctlFlowNone
}

func builtinPwd(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	fmt.Fprintln(r.Stdout, r.Dir)
	return 0, ctlFlowNone
}

func builtinExit(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	status := r.lastExit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.Stderr, "gosh: exit: %s: numeric argument required\n", args[0])
			status = 2
		} else {
			status = uint8(n)
		}
	}
	return status, newCtlFlow(ctlExit, 1)
}

func builtinReturn(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	status := r.lastExit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err == nil {
			status = uint8(n)
		}
	}
	return status, newCtlFlow(ctlReturn, 1)
}

func builtinBreak(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	return 0, newCtlFlow(ctlBreak, levelArg(args))
}

func builtinContinue(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	return 0, newCtlFlow(ctlContinue, levelArg(args))
}

func levelArg(args []string) int {
	if len(args) == 0 {
		return 1
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func builtinShift(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	n := 1
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil {
			n = parsed
		}
	}
	cur := r.Positional()
	if n > len(cur) {
		return 1, ctlFlowNone
	}
	r.scope.SetPositional(cur[n:])
	return 0, ctlFlowNone
}

// builtinSet implements `set -- args...` to replace the positional
// parameters; other historical `set` option flags are accepted and
// ignored, since job-control/debug-mode options are out of scope.
func builtinSet(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && args[i] != "--" {
		i++
	}
	if i < len(args) && args[i] == "--" {
		i++
	} else if i == len(args) {
		return 0, ctlFlowNone
	}
	r.scope.SetPositional(args[i:])
	return 0, ctlFlowNone
}

func builtinType(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	status := uint8(0)
	for _, name := range args {
		switch {
		case func() bool { _, ok := r.funcs[name]; return ok }():
			fmt.Fprintf(r.Stdout, "%s is a function\n", name)
		case IsBuiltin(name):
			fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
		default:
			var env []string
			r.Each(func(n string, vr expand.Variable) bool {
				if vr.Exported {
					env = append(env, n+"="+vr.Str)
				}
				return true
			})
			if path, err := LookPathDir(r.Dir, env, name); err == nil {
				fmt.Fprintf(r.Stdout, "%s is %s\n", name, path)
			} else {
				fmt.Fprintf(r.Stderr, "gosh: type: %s: not found\n", name)
				status = 1
			}
		}
	}
	return status, ctlFlowNone
}

func builtinWhich(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	status := uint8(0)
	var env []string
	r.Each(func(n string, vr expand.Variable) bool {
		if vr.Exported {
			env = append(env, n+"="+vr.Str)
		}
		return true
	})
	for _, name := range args {
		path, err := LookPathDir(r.Dir, env, name)
		if err != nil {
			status = 1
			continue
		}
		fmt.Fprintln(r.Stdout, path)
	}
	return status, ctlFlowNone
}

func builtinEval(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	src := strings.Join(args, " ")
	file, err := parseSource(src)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: eval: %s\n", err)
		return 1, ctlFlowNone
	}
	return r.stmts(ctx, file.Stmts)
}

// builtinCommand skips function and builtin lookup for its first
// argument (a light version of bash's `command`; the `-p`/`-v` option
// forms are not implemented).
func builtinCommand(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	if len(args) == 0 {
		return 0, ctlFlowNone
	}
	var env []string
	r.Each(func(n string, vr expand.Variable) bool {
		if vr.Exported {
			env = append(env, n+"="+vr.Str)
		}
		return true
	})
	hc := HandlerContext{Dir: r.Dir, Env: env, Stdin: r.Stdin, Stdout: r.Stdout, Stderr: r.Stderr}
	err := r.Exec(withHandlerCtx(ctx, hc), args)
	return statusFromExecErr(r, args[0], err), ctlFlowNone
}

// builtinTest implements the `test`/`[` utility's argv grammar, a plain
// string-operand cousin of `[[ ]]`: no pattern matching on `==`, since
// POSIX test always compares strings literally.
func builtinTest(ctx context.Context, r *Runner, args []string) (uint8, ctlFlow) {
	if len(args) > 0 && args[len(args)-1] == "]" {
		args = args[:len(args)-1]
	}
	ok, err := evalTestArgs(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: test: %s\n", err)
		return 2, ctlFlowNone
	}
	if ok {
		return 0, ctlFlowNone
	}
	return 1, ctlFlowNone
}

func evalTestArgs(args []string) (bool, error) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		if args[0] == "!" {
			v, err := evalTestArgs(args[1:])
			return !v, err
		}
		return evalUnaryStr(args[0], args[1])
	case 3:
		if args[0] == "!" {
			v, err := evalTestArgs(args[1:])
			return !v, err
		}
		return evalBinaryStr(args[0], args[1], args[2])
	case 4:
		if args[0] == "!" {
			v, err := evalTestArgs(args[1:])
			return !v, err
		}
		return false, fmt.Errorf("too many arguments")
	default:
		return false, fmt.Errorf("too many arguments")
	}
}

func evalUnaryStr(op, operand string) (bool, error) {
	switch op {
	case "-z":
		return operand == "", nil
	case "-n":
		return operand != "", nil
	}
	info, statErr := os.Stat(operand)
	switch op {
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
		li, err := os.Lstat(operand)
		return err == nil && li.Mode()&os.ModeSymlink != 0, nil
	default:
		return false, fmt.Errorf("unknown unary operator %q", op)
	}
}

func evalBinaryStr(x, op, y string) (bool, error) {
	switch op {
	case "=", "==":
		return x == y, nil
	case "!=":
		return x != y, nil
	case "<":
		return x < y, nil
	case ">":
		return x > y, nil
	}
	xn, yn, err := parseTestInts(x, y)
	if err != nil {
		return false, err
	}
	switch op {
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
		return false, fmt.Errorf("unknown binary operator %q", op)
	}
}
