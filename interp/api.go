// Package interp implements the executor (C3) and the environment and
// built-ins registry (C4): it walks a syntax.File's statements and turns
// them into process behavior, exit statuses, and variable/function-table
// mutations.
package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/syntax"
)

// Runner executes parsed shell programs. The zero value is not usable;
// build one with New.
type Runner struct {
	scope *scope
	funcs map[string]*syntax.Stmt

	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Exec ExecHandlerFunc

	lastExit uint8

	// prevDir backs `cd -`. There are no `pushd`/`popd` builtins, so this
	// field only tracks the single previous directory `cd -` needs.
	prevDir string
}

// Option configures a Runner at construction time, following the
// functional-options shape: each option mutates the Runner being built
// and returns an error only if the given value is unusable.
type Option func(*Runner) error

// New builds a Runner ready to Run statements, applying opts in order.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		scope:  newScope(nil),
		funcs:  map[string]*syntax.Stmt{},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Exec:   DefaultExecHandler(),
	}
	if dir, err := os.Getwd(); err == nil {
		r.Dir = dir
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if !r.scope.Get("IFS").IsSet() {
		r.scope.Set("IFS", expand.Variable{Set: true, Str: " \t\n"})
	}
	if !r.scope.Get("?").IsSet() {
		r.scope.Set("?", expand.Variable{Set: true, Str: "0"})
	}
	if !r.scope.Get("$").IsSet() {
		r.scope.Set("$", expand.Variable{Set: true, Str: strconv.Itoa(os.Getpid())})
	}
	if !r.scope.Get("0").IsSet() {
		r.scope.Set("0", expand.Variable{Set: true, Str: "gosh"})
	}
	return r, nil
}

// Env seeds the Runner's variables from an expand.Environ, such as
// expand.ListEnviron(os.Environ()...). A variable from env replaces an
// existing variable of the same name; call this before any manual Set if
// both are used.
func Env(env expand.Environ) Option {
	return func(r *Runner) error {
		env.Each(func(name string, vr expand.Variable) bool {
			r.scope.Set(name, vr)
			return true
		})
		return nil
	}
}

// Dir sets the Runner's initial working directory.
func Dir(path string) Option {
	return func(r *Runner) error {
		if path == "" {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("interp: Dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("interp: Dir: %s is not a directory", path)
		}
		r.Dir = path
		return nil
	}
}

// Params sets the script's top-level positional parameters, $1 upward.
func Params(args ...string) Option {
	return func(r *Runner) error {
		r.scope.SetPositional(args)
		return nil
	}
}

// StdIO overrides the Runner's standard streams; a nil argument leaves
// the corresponding stream unchanged.
func StdIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) error {
		if stdin != nil {
			r.Stdin = stdin
		}
		if stdout != nil {
			r.Stdout = stdout
		}
		if stderr != nil {
			r.Stderr = stderr
		}
		return nil
	}
}

// ExecHandler overrides how external commands are looked up and run.
func ExecHandler(fn ExecHandlerFunc) Option {
	return func(r *Runner) error {
		r.Exec = fn
		return nil
	}
}

// Run executes every statement in f in order and returns the last exit
// status, following the same top-level semantics as a shell script: a
// failing command does not stop the script unless `exit` or a fatal
// signal-carrying error is hit.
func (r *Runner) Run(ctx context.Context, f *syntax.File) error {
	status, cf := r.stmts(ctx, f.Stmts)
	r.lastExit = status
	if cf.kind == ctlExit || cf.kind == ctlReturn {
		if status != 0 {
			return ExitStatus(status)
		}
		return nil
	}
	if status != 0 {
		return ExitStatus(status)
	}
	return nil
}

// Get reads a variable's current value and set state, implementing
// expand.Environ so the Runner itself can be handed to expand.Fields.
func (r *Runner) Get(name string) expand.Variable { return r.scope.Get(name) }

func (r *Runner) Each(fn func(name string, vr expand.Variable) bool) { r.scope.Each(fn) }

func (r *Runner) Positional() []string { return r.scope.Positional() }

func (r *Runner) Set(name string, vr expand.Variable) error { return r.scope.Set(name, vr) }

// RunCmdSubst implements expand.CmdRunner: it runs stmts to completion in
// a cloned scope and captures whatever they wrote to stdout.
func (r *Runner) RunCmdSubst(stmts []*syntax.Stmt) (string, error) {
	var buf bytes.Buffer
	sub := r.subRunner(&buf)
	ctx := context.Background()
	sub.stmts(ctx, stmts)
	return buf.String(), nil
}

// subRunner builds a Runner that shares the cloned scope and function
// table conventions a subshell or command substitution needs: its own
// variable scope (mutations discarded once it's done), the same exec
// handler and working directory, stdout redirected to out.
func (r *Runner) subRunner(out io.Writer) *Runner {
	funcs := make(map[string]*syntax.Stmt, len(r.funcs))
	for name, body := range r.funcs {
		funcs[name] = body
	}
	sub := &Runner{
		scope:  r.scope.clone(),
		funcs:  funcs,
		Dir:    r.Dir,
		Stdin:  r.Stdin,
		Stdout: out,
		Stderr: r.Stderr,
		Exec:   r.Exec,
	}
	return sub
}
