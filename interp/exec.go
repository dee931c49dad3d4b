package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/syntax"
)

// openRedirects applies every redirection on s to the Runner's stdio,
// returning a restore func that must run (typically
// via defer) once the command they were attached to finishes, putting
// the previous streams back.
func (r *Runner) openRedirects(s *syntax.Stmt) (restore func(), err error) {
	if len(s.Redirs) == 0 {
		return func() {}, nil
	}
	prevIn, prevOut, prevErr := r.Stdin, r.Stdout, r.Stderr
	var opened []io.Closer
	restore = func() {
		r.Stdin, r.Stdout, r.Stderr = prevIn, prevOut, prevErr
		for _, c := range opened {
			c.Close()
		}
	}
	for _, rd := range s.Redirs {
		if err := r.applyRedirect(rd, &opened); err != nil {
			restore()
			return func() {}, &RedirectError{Op: "redirect", Err: err}
		}
	}
	return restore, nil
}

func (r *Runner) applyRedirect(rd *syntax.Redirect, opened *[]io.Closer) error {
	if rd.Op == syntax.RedirHeredoc || rd.Op == syntax.RedirHeredocDash {
		body, err := r.heredocBody(rd)
		if err != nil {
			return err
		}
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		go func() {
			defer pw.Close()
			io.WriteString(pw, body)
		}()
		r.Stdin = pr
		*opened = append(*opened, pr)
		return nil
	}

	target, err := expand.Literal(r, rd.Word)
	if err != nil {
		return err
	}
	// setOut points the redirection's output fd (1 unless given) at w.
	setOut := func(w io.Writer) {
		if rd.Fd != nil && *rd.Fd == 2 {
			r.Stderr = w
		} else {
			r.Stdout = w
		}
	}

	switch rd.Op {
	case syntax.RedirRead:
		f, err := os.Open(target)
		if err != nil {
			return err
		}
		r.Stdin = f
		*opened = append(*opened, f)
	case syntax.RedirWrite, syntax.RedirClobber:
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		setOut(f)
		*opened = append(*opened, f)
	case syntax.RedirAppend:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		setOut(f)
		*opened = append(*opened, f)
	case syntax.RedirReadWrite:
		f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return err
		}
		r.Stdin = f
		*opened = append(*opened, f)
	case syntax.RedirAllOut:
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		r.Stdout = f
		r.Stderr = f
		*opened = append(*opened, f)
	case syntax.RedirAllAppend:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		r.Stdout = f
		r.Stderr = f
		*opened = append(*opened, f)
	case syntax.RedirDupOut:
		if target == "-" {
			r.Stdout = io.Discard
			return nil
		}
		if fd, err := strconv.Atoi(target); err == nil {
			switch fd {
			case 1:
				setOut(r.Stdout)
			case 2:
				setOut(r.Stderr)
			}
			return nil
		}
		return fmt.Errorf("invalid fd duplication target %q", target)
	case syntax.RedirDupIn:
		if target == "-" {
			r.Stdin = nil
			return nil
		}
		return fmt.Errorf("invalid fd duplication target %q", target)
	case syntax.RedirHerestr:
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		go func() {
			defer pw.Close()
			io.WriteString(pw, target+"\n")
		}()
		r.Stdin = pr
		*opened = append(*opened, pr)
	default:
		return fmt.Errorf("unsupported redirection operator")
	}
	return nil
}

// heredocBody resolves a here-document's body text, expanding it unless
// the delimiter was quoted.
func (r *Runner) heredocBody(rd *syntax.Redirect) (string, error) {
	if rd.Hdoc == nil {
		return "", nil
	}
	if rd.HdocQuoted {
		var s string
		for _, p := range rd.Hdoc.Parts {
			if lit, ok := p.(*syntax.Lit); ok {
				s += lit.Value
			}
		}
		return s, nil
	}
	return expand.Literal(r, rd.Hdoc)
}

// callExpr runs a simple command: expand its words, then dispatch to a
// shell function, a builtin, or an external program, in that priority
// order, matching spec §4.3's lookup rule. Prefix assignments
// (`NAME=val cmd`) are permanent when cmd resolves to a function or a
// builtin, or when there is no command word at all (a bare assignment),
// but only temporary — visible solely in the child's environment — when
// cmd resolves to an external program, per spec §4.3 step 3: an external
// command must never leak or permanently acquire a prefix-assigned
// variable. A builtin can itself carry a control-flow signal (`exit`,
// `return`, `break`, `continue`), which is passed back up unchanged.
func (r *Runner) callExpr(ctx context.Context, s *syntax.Stmt, c *syntax.CallExpr) (uint8, ctlFlow) {
	if len(c.Args) == 0 {
		status, _ := r.applyAssigns(s.Assigns)
		return status, ctlFlowNone
	}
	argv, err := expand.Fields(r, c.Args...)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
		return 1, ctlFlowNone
	}
	if len(argv) == 0 {
		status, _ := r.applyAssigns(s.Assigns)
		return status, ctlFlowNone
	}

	if body, ok := r.funcs[argv[0]]; ok {
		if status, ok := r.applyAssigns(s.Assigns); !ok {
			return status, ctlFlowNone
		}
		return r.callFunc(ctx, body, argv[1:])
	}
	if fn, ok := builtins[argv[0]]; ok {
		if status, ok := r.applyAssigns(s.Assigns); !ok {
			return status, ctlFlowNone
		}
		return fn(ctx, r, argv[1:])
	}

	overlay, err := r.evalAssignOverlay(s.Assigns)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
		return 1, ctlFlowNone
	}
	var env []string
	r.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported {
			if _, overridden := overlay[name]; !overridden {
				env = append(env, name+"="+vr.Str)
			}
		}
		return true
	})
	for name, val := range overlay {
		env = append(env, name+"="+val)
	}
	hc := HandlerContext{Dir: r.Dir, Env: env, Stdin: r.Stdin, Stdout: r.Stdout, Stderr: r.Stderr}
	err = r.Exec(withHandlerCtx(ctx, hc), argv)
	return statusFromExecErr(r, argv[0], err), ctlFlowNone
}

func statusFromExecErr(r *Runner, name string, err error) uint8 {
	if err == nil {
		return 0
	}
	if es, ok := err.(ExitStatus); ok {
		return uint8(es)
	}
	if _, ok := err.(errCommandNotFound); ok {
		fmt.Fprintf(r.Stderr, "gosh: %s: command not found\n", name)
		return 127
	}
	if _, ok := err.(errNotExecutable); ok {
		fmt.Fprintf(r.Stderr, "gosh: %s: permission denied\n", name)
		return 126
	}
	fmt.Fprintf(r.Stderr, "gosh: %s: %s\n", name, err)
	return 1
}

// callFunc runs a shell function's body with its own positional
// parameters, absorbing a `return` but letting break/continue/exit keep
// propagating (an unmatched `break` inside a function is a no-op bash
// tolerates, handled by the caller's loop never seeing past its own
// boundary).
func (r *Runner) callFunc(ctx context.Context, body *syntax.Stmt, args []string) (uint8, ctlFlow) {
	r.scope.pushFunc(args)
	defer r.scope.pop()
	status, cf := r.stmt(ctx, body)
	if cf.kind == ctlReturn {
		return status, ctlFlowNone
	}
	return status, cf
}

// applyAssigns runs every assignment in order, stopping at the first
// failure. ok is false if an assignment failed, in which case status is
// the command's resulting exit status (1) and the caller should not go on
// to dispatch a command.
func (r *Runner) applyAssigns(assigns []*syntax.Assign) (status uint8, ok bool) {
	for _, a := range assigns {
		if err := r.applyAssign(a); err != nil {
			fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
			return 1, false
		}
	}
	return 0, true
}

func (r *Runner) applyAssign(a *syntax.Assign) error {
	val, err := expand.LiteralAssign(r, a.Value)
	if err != nil {
		return err
	}
	if a.Append {
		val = r.Get(a.Name).Str + val
	}
	return r.Set(a.Name, expand.Variable{Set: true, Str: val})
}

// evalAssignOverlay evaluates a simple command's prefix assignments
// without writing them into the shell's scope, returning a name→value
// map suitable for layering on top of the exported environment passed
// to an external program. Unlike applyAssign, an append ("+=") here
// builds on a prior entry already in the overlay before falling back to
// the variable's current shell value, so "FOO=a FOO+=b prog" behaves as
// a single combined temporary value.
func (r *Runner) evalAssignOverlay(assigns []*syntax.Assign) (map[string]string, error) {
	if len(assigns) == 0 {
		return nil, nil
	}
	overlay := make(map[string]string, len(assigns))
	for _, a := range assigns {
		val, err := expand.LiteralAssign(r, a.Value)
		if err != nil {
			return nil, err
		}
		if a.Append {
			if prev, ok := overlay[a.Name]; ok {
				val = prev + val
			} else {
				val = r.Get(a.Name).Str + val
			}
		}
		overlay[a.Name] = val
	}
	return overlay, nil
}
