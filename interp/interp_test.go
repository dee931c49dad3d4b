package interp

import (
	"bytes"
	"context"
	"testing"

	"github.com/gosh-lang/gosh/syntax"
)

func runScript(t *testing.T, src string, opts ...Option) (string, uint8) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(append([]Option{StdIO(nil, &out, &out)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	file, err := syntax.Parse([]byte(src), "")
	if err != nil {
		t.Fatal(err)
	}
	err = r.Run(context.Background(), file)
	var status uint8
	if es, ok := err.(ExitStatus); ok {
		status = uint8(es)
	}
	return out.String(), status
}

func TestRunEcho(t *testing.T) {
	out, status := runScript(t, "echo hello world")
	if out != "hello world\n" || status != 0 {
		t.Errorf("got %q status %d", out, status)
	}
}

func TestRunAssignmentAndExpansion(t *testing.T) {
	out, _ := runScript(t, "x=foo; echo $x$x")
	if out != "foofoo\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunIfElse(t *testing.T) {
	out, _ := runScript(t, `if true; then echo yes; else echo no; fi`)
	if out != "yes\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunAndOrShortCircuit(t *testing.T) {
	out, _ := runScript(t, `false && echo nope; true || echo nope2; echo done`)
	if out != "done\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunWhileLoopWithBreak(t *testing.T) {
	out, _ := runScript(t, `i=0; while true; do i=$((i+1)); echo $i; if [ "$i" = 3 ]; then break; fi; done`)
	if out != "1\n2\n3\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunForLoop(t *testing.T) {
	out, _ := runScript(t, `for x in a b c; do echo $x; done`)
	if out != "a\nb\nc\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunCaseClause(t *testing.T) {
	out, _ := runScript(t, `x=bar; case $x in foo) echo 1;; bar|baz) echo 2;; *) echo 3;; esac`)
	if out != "2\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunFunctionCallAndReturn(t *testing.T) {
	out, status := runScript(t, `f() { echo inside $1; return 3; }; f hi; echo after $?`)
	if out != "inside hi\nafter 3\n" || status != 0 {
		t.Errorf("got %q status %d", out, status)
	}
}

func TestRunPipeline(t *testing.T) {
	out, _ := runScript(t, `echo hi | cat`)
	if out != "hi\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunExitStatusPropagates(t *testing.T) {
	_, status := runScript(t, `exit 7`)
	if status != 7 {
		t.Errorf("status = %d, want 7", status)
	}
}

func TestRunArithCmd(t *testing.T) {
	out, status := runScript(t, `x=5; ((x > 1)) && echo big`)
	if out != "big\n" || status != 0 {
		t.Errorf("got %q status %d", out, status)
	}
}

func TestRunTestClause(t *testing.T) {
	out, _ := runScript(t, `[[ "abc" == a* ]] && echo matched`)
	if out != "matched\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunSetAndShift(t *testing.T) {
	out, _ := runScript(t, `set -- a b c; shift; echo $1 $#`)
	if out != "b 2\n" {
		t.Errorf("got %q", out)
	}
}

func TestRunAssignmentExpandsTildeAfterColon(t *testing.T) {
	out, _ := runScript(t, `HOME=/home/u; p=~/bin:~/sbin; echo $p`)
	if out != "/home/u/bin:/home/u/sbin\n" {
		t.Errorf("got %q, want both tildes in an assignment value expanded", out)
	}
}

func TestRunBareAssignment(t *testing.T) {
	out, _ := runScript(t, `x=foo`+"\n"+`echo $x`)
	if out != "foo\n" {
		t.Errorf("got %q, want a bare NAME=value statement to take effect", out)
	}
}

func TestScopeNoImplicitLocal(t *testing.T) {
	out, _ := runScript(t, `x=outer; f() { x=inner; }; f; echo $x`)
	if out != "inner\n" {
		t.Errorf("got %q, want inner (no implicit local scoping)", out)
	}
}

func TestPrefixAssignPermanentForBuiltin(t *testing.T) {
	out, _ := runScript(t, `x=outer; x=inner :; echo $x`)
	if out != "inner\n" {
		t.Errorf("got %q, want a prefix assignment on a builtin to persist", out)
	}
}

func TestPrefixAssignTemporaryForExternal(t *testing.T) {
	var gotEnv []string
	var out bytes.Buffer
	r, err := New(
		StdIO(nil, &out, &out),
		ExecHandler(func(ctx context.Context, args []string) error {
			gotEnv = HandlerCtx(ctx).Env
			return nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	file, err := syntax.Parse([]byte(`x=outer; export x; x=inner someprog; echo $x`), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background(), file); err != nil {
		if _, ok := err.(ExitStatus); !ok {
			t.Fatal(err)
		}
	}
	if out.String() != "outer\n" {
		t.Errorf("got %q, want a prefix assignment before an external command to stay temporary", out.String())
	}
	found := false
	for _, kv := range gotEnv {
		if kv == "x=inner" {
			found = true
		}
	}
	if !found {
		t.Errorf("gotEnv = %v, want x=inner present in the external command's environment", gotEnv)
	}
}
