package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/pattern"
	"github.com/gosh-lang/gosh/syntax"
	"github.com/gosh-lang/gosh/token"
)

func regexpMatch(src, s string) (bool, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// stmts runs a statement list in order, stopping as soon as any statement
// returns a control-flow signal that isn't ctlNone; its own status and
// signal become the list's.
func (r *Runner) stmts(ctx context.Context, list []*syntax.Stmt) (uint8, ctlFlow) {
	var status uint8
	for _, s := range list {
		select {
		case <-ctx.Done():
			return 130, newCtlFlow(ctlExit, 1)
		default:
		}
		var cf ctlFlow
		status, cf = r.stmt(ctx, s)
		if cf.stopsSequence() {
			return status, cf
		}
	}
	return status, ctlFlowNone
}

// stmt applies s's redirections and negation around running its command,
// and records the result in $?.
func (r *Runner) stmt(ctx context.Context, s *syntax.Stmt) (uint8, ctlFlow) {
	if s.Background {
		r.runBackground(ctx, s)
		return 0, ctlFlowNone
	}
	restore, err := r.openRedirects(s)
	if err != nil {
		fmt.Fprintln(r.Stderr, err)
		r.Set("?", expand.Variable{Set: true, Str: "1"})
		return 1, ctlFlowNone
	}
	defer restore()

	status, cf := r.runCommand(ctx, s)
	if s.Negated {
		if status == 0 {
			status = 1
		} else {
			status = 0
		}
	}
	r.Set("?", expand.Variable{Set: true, Str: strconv.Itoa(int(status))})
	return status, cf
}

func (r *Runner) runBackground(ctx context.Context, s *syntax.Stmt) {
	sub := r.subRunner(r.Stdout)
	sub.Stderr = r.Stderr
	sub.Stdin = r.Stdin
	bg := *s
	bg.Background = false
	go sub.stmt(ctx, &bg)
}

// runCommand dispatches on the concrete Command type s.Cmd holds.
func (r *Runner) runCommand(ctx context.Context, s *syntax.Stmt) (uint8, ctlFlow) {
	switch c := s.Cmd.(type) {
	case nil:
		// A bare "NAME=value" statement: the parser leaves Cmd unset
		// once it has consumed nothing but leading assignments.
		status, _ := r.applyAssigns(s.Assigns)
		return status, ctlFlowNone
	case *syntax.CallExpr:
		return r.callExpr(ctx, s, c)
	case *syntax.Block:
		return r.stmts(ctx, c.Stmts)
	case *syntax.Subshell:
		sub := r.subRunner(r.Stdout)
		sub.Stderr = r.Stderr
		sub.Stdin = r.Stdin
		status, _ := sub.stmts(ctx, c.Stmts)
		return status, ctlFlowNone
	case *syntax.BinaryCmd:
		return r.binaryCmd(ctx, c)
	case *syntax.AndOr:
		return r.andOr(ctx, c)
	case *syntax.IfClause:
		return r.ifClause(ctx, c)
	case *syntax.WhileClause:
		return r.whileClause(ctx, c)
	case *syntax.ForClause:
		return r.forClause(ctx, c)
	case *syntax.CaseClause:
		return r.caseClause(ctx, c)
	case *syntax.FuncDecl:
		r.funcs[c.Name] = c.Body
		return 0, ctlFlowNone
	case *syntax.ArithCmd:
		n, err := expand.Arithm(r, c.X)
		if err != nil {
			fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
			return 1, ctlFlowNone
		}
		if n == 0 {
			return 1, ctlFlowNone
		}
		return 0, ctlFlowNone
	case *syntax.TestClause:
		ok, err := r.evalTest(c.X)
		if err != nil {
			fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
			return 2, ctlFlowNone
		}
		if ok {
			return 0, ctlFlowNone
		}
		return 1, ctlFlowNone
	default:
		fmt.Fprintf(r.Stderr, "gosh: unsupported command type %T\n", c)
		return 1, ctlFlowNone
	}
}

// binaryCmd runs a `|`/`|&` pipeline; `&&`/`||` lists are separate AndOr
// nodes and are not dispatched here.
func (r *Runner) binaryCmd(ctx context.Context, c *syntax.BinaryCmd) (uint8, ctlFlow) {
	return r.pipeline(ctx, c)
}

func (r *Runner) andOr(ctx context.Context, a *syntax.AndOr) (uint8, ctlFlow) {
	status, cf := r.stmt(ctx, a.X)
	if cf.stopsSequence() {
		return status, cf
	}
	if a.Op == token.LAND && status != 0 {
		return status, ctlFlowNone
	}
	if a.Op == token.LOR && status == 0 {
		return status, ctlFlowNone
	}
	return r.stmt(ctx, a.Y)
}

// pipelineStage is one command in a flattened `a | b | c` chain, plus
// whether the pipe joining it to the next stage also carries stderr
// (`|&`).
type pipelineStage struct {
	stmt       *syntax.Stmt
	pipeStderr bool
}

func flattenPipeline(s *syntax.Stmt) []pipelineStage {
	bc, ok := s.Cmd.(*syntax.BinaryCmd)
	if !ok || (bc.Op != token.OR && bc.Op != token.PIPEALL) {
		return []pipelineStage{{stmt: s}}
	}
	left := flattenPipeline(bc.X)
	left[len(left)-1].pipeStderr = bc.Op == token.PIPEALL
	return append(left, pipelineStage{stmt: bc.Y})
}

// pipeline runs every stage of a flattened pipeline concurrently, each
// against its own cloned scope (each stage behaves like a subshell, the
// way a pipeline's non-last stages always do and bash makes the last one
// do too unless `lastpipe` is enabled, which this shell doesn't model),
// joined by OS pipes, and reports the last stage's exit status.
func (r *Runner) pipeline(ctx context.Context, top *syntax.BinaryCmd) (uint8, ctlFlow) {
	stages := flattenPipeline(&syntax.Stmt{Cmd: top})
	n := len(stages)
	runners := make([]*Runner, n)
	for i := range runners {
		sub := r.subRunner(r.Stdout)
		sub.Stdin = r.Stdin
		sub.Stderr = r.Stderr
		runners[i] = sub
	}
	var closers []io.Closer
	for i := 0; i < n-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
			return 1, ctlFlowNone
		}
		runners[i].Stdout = pw
		if stages[i].pipeStderr {
			runners[i].Stderr = pw
		}
		runners[i+1].Stdin = pr
		closers = append(closers, pr, pw)
	}

	var eg errgroup.Group
	statuses := make([]uint8, n)
	for i, stage := range stages {
		i, stage := i, stage
		eg.Go(func() error {
			statuses[i], _ = runners[i].stmt(ctx, stage.stmt)
			if i < n-1 {
				if c, ok := runners[i].Stdout.(io.Closer); ok {
					c.Close()
				}
			}
			return nil
		})
	}
	eg.Wait()
	for _, c := range closers {
		c.Close()
	}
	return statuses[n-1], ctlFlowNone
}

func (r *Runner) ifClause(ctx context.Context, c *syntax.IfClause) (uint8, ctlFlow) {
	status, cf := r.stmts(ctx, c.CondStmts)
	if cf.stopsSequence() {
		return status, cf
	}
	if status == 0 {
		return r.stmts(ctx, c.ThenStmts)
	}
	for _, elif := range c.Elifs {
		status, cf = r.stmts(ctx, elif.CondStmts)
		if cf.stopsSequence() {
			return status, cf
		}
		if status == 0 {
			return r.stmts(ctx, elif.ThenStmts)
		}
	}
	if c.ElseStmts != nil {
		return r.stmts(ctx, c.ElseStmts)
	}
	return 0, ctlFlowNone
}

func (r *Runner) whileClause(ctx context.Context, c *syntax.WhileClause) (uint8, ctlFlow) {
	var status uint8
	for {
		condStatus, cf := r.stmts(ctx, c.CondStmts)
		if cf.stopsSequence() {
			return condStatus, cf
		}
		ok := condStatus == 0
		if c.Until {
			ok = !ok
		}
		if !ok {
			return 0, ctlFlowNone
		}
		status, cf = r.stmts(ctx, c.DoStmts)
		next, stop := cf.loopConsume()
		if stop {
			if next.kind != ctlNone {
				return status, next
			}
			return status, ctlFlowNone
		}
	}
}

func (r *Runner) forClause(ctx context.Context, c *syntax.ForClause) (uint8, ctlFlow) {
	if c.Arith != nil {
		return r.cStyleFor(ctx, c)
	}
	items, err := expand.Fields(r, c.Items...)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
		return 1, ctlFlowNone
	}
	if !c.HasIn {
		items = r.Positional()
	}
	var status uint8
	for _, item := range items {
		r.Set(c.Var, expand.Variable{Set: true, Str: item})
		var cf ctlFlow
		status, cf = r.stmts(ctx, c.DoStmts)
		next, stop := cf.loopConsume()
		if stop {
			if next.kind != ctlNone {
				return status, next
			}
			return status, ctlFlowNone
		}
	}
	return status, ctlFlowNone
}

func (r *Runner) cStyleFor(ctx context.Context, c *syntax.ForClause) (uint8, ctlFlow) {
	a := c.Arith
	if a.Init != nil {
		if _, err := expand.Arithm(r, a.Init); err != nil {
			fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
			return 1, ctlFlowNone
		}
	}
	var status uint8
	for {
		if a.Cond != nil {
			n, err := expand.Arithm(r, a.Cond)
			if err != nil {
				fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
				return 1, ctlFlowNone
			}
			if n == 0 {
				return status, ctlFlowNone
			}
		}
		var cf ctlFlow
		status, cf = r.stmts(ctx, c.DoStmts)
		next, stop := cf.loopConsume()
		if stop {
			if next.kind != ctlNone {
				return status, next
			}
			return status, ctlFlowNone
		}
		if a.Post != nil {
			if _, err := expand.Arithm(r, a.Post); err != nil {
				fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
				return 1, ctlFlowNone
			}
		}
	}
}

func (r *Runner) caseClause(ctx context.Context, c *syntax.CaseClause) (uint8, ctlFlow) {
	word, err := expand.Literal(r, c.Word)
	if err != nil {
		fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
		return 1, ctlFlowNone
	}
	for _, item := range c.Items {
		for _, pw := range item.Patterns {
			pat, err := expand.Pattern(r, pw)
			if err != nil {
				fmt.Fprintf(r.Stderr, "gosh: %s\n", err)
				return 1, ctlFlowNone
			}
			reSrc, err := pattern.Regexp(pat, pattern.EntireString)
			if err != nil {
				continue
			}
			matched, err := regexpMatch(reSrc, word)
			if err != nil || !matched {
				continue
			}
			return r.stmts(ctx, item.Stmts)
		}
	}
	return 0, ctlFlowNone
}
