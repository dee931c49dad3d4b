package syntax

import (
	"strings"
	"testing"

	"github.com/gosh-lang/gosh/token"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse([]byte(src), "")
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return f
}

func onlyStmt(t *testing.T, src string) *Stmt {
	t.Helper()
	f := parse(t, src)
	if len(f.Stmts) != 1 {
		t.Fatalf("Parse(%q) = %d stmts, want 1", src, len(f.Stmts))
	}
	return f.Stmts[0]
}

func litArgs(t *testing.T, ce *CallExpr) []string {
	t.Helper()
	out := make([]string, len(ce.Args))
	for i, w := range ce.Args {
		s, ok := w.Lit()
		if !ok {
			t.Fatalf("arg %d is not a plain literal", i)
		}
		out[i] = s
	}
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseSimpleCommand(t *testing.T) {
	s := onlyStmt(t, "echo hello world")
	ce, ok := s.Cmd.(*CallExpr)
	if !ok {
		t.Fatalf("Cmd = %T, want *CallExpr", s.Cmd)
	}
	got := litArgs(t, ce)
	want := []string{"echo", "hello", "world"}
	if !stringSlicesEqual(got, want) {
		t.Errorf("Args = %v, want %v", got, want)
	}
}

func TestParseBareAssignmentHasNilCmd(t *testing.T) {
	s := onlyStmt(t, "x=foo")
	if s.Cmd != nil {
		t.Fatalf("Cmd = %T, want nil for a bare assignment", s.Cmd)
	}
	if len(s.Assigns) != 1 || s.Assigns[0].Name != "x" {
		t.Fatalf("Assigns = %+v, want a single x= assignment", s.Assigns)
	}
	val, ok := s.Assigns[0].Value.Lit()
	if !ok || val != "foo" {
		t.Errorf("Assigns[0].Value = %q, want %q", val, "foo")
	}
}

func TestParseAssignmentPrefixOnCommand(t *testing.T) {
	s := onlyStmt(t, "FOO=bar echo hi")
	ce, ok := s.Cmd.(*CallExpr)
	if !ok {
		t.Fatalf("Cmd = %T, want *CallExpr", s.Cmd)
	}
	if len(s.Assigns) != 1 || s.Assigns[0].Name != "FOO" {
		t.Fatalf("Assigns = %+v, want a single FOO= assignment", s.Assigns)
	}
	if got := litArgs(t, ce); !stringSlicesEqual(got, []string{"echo", "hi"}) {
		t.Errorf("Args = %v", got)
	}
}

func TestParseAppendAssignment(t *testing.T) {
	s := onlyStmt(t, "x+=bar")
	if len(s.Assigns) != 1 || !s.Assigns[0].Append {
		t.Fatalf("Assigns = %+v, want a single append assignment", s.Assigns)
	}
}

func TestParseNegatedStatement(t *testing.T) {
	s := onlyStmt(t, "! true")
	if !s.Negated {
		t.Error("Negated = false, want true")
	}
}

func TestParseBackgroundStatement(t *testing.T) {
	s := onlyStmt(t, "sleep 1 &")
	if !s.Background {
		t.Error("Background = false, want true")
	}
}

// flattenBinaryCmds unpacks a left-associative chain of pipe-joined
// BinaryCmd nodes into an ordered list of stage statements, the same shape
// the executor's own pipeline flattening expects to find.
func flattenBinaryCmds(s *Stmt) []*Stmt {
	bc, ok := s.Cmd.(*BinaryCmd)
	if !ok {
		return []*Stmt{s}
	}
	return append(flattenBinaryCmds(bc.X), bc.Y)
}

func TestParsePipeline(t *testing.T) {
	s := onlyStmt(t, "echo hi | cat | wc -l")
	stages := flattenBinaryCmds(s)
	if len(stages) != 3 {
		t.Fatalf("got %d pipeline stages, want 3", len(stages))
	}
	for _, st := range stages {
		if _, ok := st.Cmd.(*CallExpr); !ok {
			t.Errorf("stage Cmd = %T, want *CallExpr", st.Cmd)
		}
	}
}

func TestParsePipeStderr(t *testing.T) {
	s := onlyStmt(t, "foo |& bar")
	bc, ok := s.Cmd.(*BinaryCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *BinaryCmd", s.Cmd)
	}
	if bc.Op != token.PIPEALL {
		t.Errorf("Op = %v, want PIPEALL", bc.Op)
	}
}

func TestParseAndOr(t *testing.T) {
	s := onlyStmt(t, "true && false || echo done")
	if _, ok := s.Cmd.(*AndOr); !ok {
		t.Fatalf("Cmd = %T, want *AndOr", s.Cmd)
	}
}

func TestParseIfElse(t *testing.T) {
	s := onlyStmt(t, "if true; then echo a; elif false; then echo b; else echo c; fi")
	ic, ok := s.Cmd.(*IfClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *IfClause", s.Cmd)
	}
	if len(ic.CondStmts) != 1 || len(ic.ThenStmts) != 1 {
		t.Fatalf("CondStmts/ThenStmts = %d/%d, want 1/1", len(ic.CondStmts), len(ic.ThenStmts))
	}
	if len(ic.Elifs) != 1 {
		t.Fatalf("Elifs = %d, want 1", len(ic.Elifs))
	}
	if len(ic.ElseStmts) != 1 {
		t.Fatalf("ElseStmts = %d, want 1", len(ic.ElseStmts))
	}
}

func TestParseWhileUntil(t *testing.T) {
	s := onlyStmt(t, "until false; do echo x; done")
	wc, ok := s.Cmd.(*WhileClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *WhileClause", s.Cmd)
	}
	if !wc.Until {
		t.Error("Until = false, want true")
	}
}

func TestParseForList(t *testing.T) {
	s := onlyStmt(t, "for x in a b c; do echo $x; done")
	fc, ok := s.Cmd.(*ForClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ForClause", s.Cmd)
	}
	if fc.Var != "x" || !fc.HasIn || len(fc.Items) != 3 {
		t.Fatalf("ForClause = %+v, want Var=x HasIn=true 3 items", fc)
	}
}

func TestParseForCStyle(t *testing.T) {
	s := onlyStmt(t, "for ((i=0; i<3; i=i+1)); do echo $i; done")
	fc, ok := s.Cmd.(*ForClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ForClause", s.Cmd)
	}
	if fc.Arith == nil {
		t.Fatal("Arith = nil, want the C-style header")
	}
	if fc.Arith.Init == nil || fc.Arith.Cond == nil || fc.Arith.Post == nil {
		t.Errorf("Arith = %+v, want all three clauses set", fc.Arith)
	}
}

func TestParseCaseClause(t *testing.T) {
	s := onlyStmt(t, "case $x in foo) echo 1;; bar|baz) echo 2;; *) echo 3;; esac")
	cc, ok := s.Cmd.(*CaseClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *CaseClause", s.Cmd)
	}
	if len(cc.Items) != 3 {
		t.Fatalf("Items = %d, want 3", len(cc.Items))
	}
	if len(cc.Items[1].Patterns) != 2 {
		t.Errorf("second item has %d patterns, want 2 (bar|baz)", len(cc.Items[1].Patterns))
	}
}

func TestParseFuncDecl(t *testing.T) {
	s := onlyStmt(t, "myfunc() { echo hi; }")
	fd, ok := s.Cmd.(*FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *FuncDecl", s.Cmd)
	}
	if fd.Name != "myfunc" {
		t.Errorf("Name = %q, want %q", fd.Name, "myfunc")
	}
	if _, ok := fd.Body.Cmd.(*Block); !ok {
		t.Errorf("Body.Cmd = %T, want *Block", fd.Body.Cmd)
	}
}

func TestParseFuncDeclWithKeyword(t *testing.T) {
	s := onlyStmt(t, "function myfunc { echo hi; }")
	fd, ok := s.Cmd.(*FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *FuncDecl", s.Cmd)
	}
	if fd.Name != "myfunc" {
		t.Errorf("Name = %q, want %q", fd.Name, "myfunc")
	}
}

func TestParseSubshell(t *testing.T) {
	s := onlyStmt(t, "(echo hi)")
	sub, ok := s.Cmd.(*Subshell)
	if !ok {
		t.Fatalf("Cmd = %T, want *Subshell", s.Cmd)
	}
	if len(sub.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(sub.Stmts))
	}
}

func TestParseBlock(t *testing.T) {
	s := onlyStmt(t, "{ echo hi; }")
	if _, ok := s.Cmd.(*Block); !ok {
		t.Fatalf("Cmd = %T, want *Block", s.Cmd)
	}
}

func TestParseArithCmd(t *testing.T) {
	s := onlyStmt(t, "((x + 1))")
	if _, ok := s.Cmd.(*ArithCmd); !ok {
		t.Fatalf("Cmd = %T, want *ArithCmd", s.Cmd)
	}
}

func TestParseTestClause(t *testing.T) {
	s := onlyStmt(t, `[[ "$x" == a* ]]`)
	tc, ok := s.Cmd.(*TestClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *TestClause", s.Cmd)
	}
	bt, ok := tc.X.(*BinaryTest)
	if !ok {
		t.Fatalf("X = %T, want *BinaryTest", tc.X)
	}
	if bt.Op != "==" || !bt.YIsPattern {
		t.Errorf("BinaryTest = %+v, want Op==\"==\" YIsPattern=true", bt)
	}
}

func TestParseRedirections(t *testing.T) {
	s := onlyStmt(t, "cmd < in.txt > out.txt 2>> err.log")
	if len(s.Redirs) != 3 {
		t.Fatalf("Redirs = %d, want 3", len(s.Redirs))
	}
	if s.Redirs[0].Op != RedirRead || s.Redirs[1].Op != RedirWrite {
		t.Errorf("Redirs[0:2] ops = %v, %v", s.Redirs[0].Op, s.Redirs[1].Op)
	}
	if s.Redirs[2].Op != RedirAppend || s.Redirs[2].Fd == nil || *s.Redirs[2].Fd != 2 {
		t.Errorf("Redirs[2] = %+v, want append to fd 2", s.Redirs[2])
	}
}

func TestParseHeredoc(t *testing.T) {
	f := parse(t, "cat <<EOF\nhello\nEOF\n")
	s := f.Stmts[0]
	if len(s.Redirs) != 1 || s.Redirs[0].Op != RedirHeredoc {
		t.Fatalf("Redirs = %+v, want a single heredoc", s.Redirs)
	}
	body, ok := s.Redirs[0].Hdoc.Lit()
	if !ok || strings.TrimRight(body, "\n") != "hello" {
		t.Errorf("Hdoc body = %q, want %q", body, "hello")
	}
}

func TestParseSingleQuoted(t *testing.T) {
	s := onlyStmt(t, `echo 'a $b c'`)
	ce := s.Cmd.(*CallExpr)
	sq, ok := ce.Args[1].Parts[0].(*SglQuoted)
	if !ok {
		t.Fatalf("Parts[0] = %T, want *SglQuoted", ce.Args[1].Parts[0])
	}
	if sq.Value != "a $b c" {
		t.Errorf("Value = %q, want %q", sq.Value, "a $b c")
	}
}

func TestParseDoubleQuotedWithParam(t *testing.T) {
	s := onlyStmt(t, `echo "hi $name"`)
	ce := s.Cmd.(*CallExpr)
	dq, ok := ce.Args[1].Parts[0].(*DblQuoted)
	if !ok {
		t.Fatalf("Parts[0] = %T, want *DblQuoted", ce.Args[1].Parts[0])
	}
	if len(dq.Parts) != 2 {
		t.Fatalf("DblQuoted.Parts = %d, want 2", len(dq.Parts))
	}
	pe, ok := dq.Parts[1].(*ParamExp)
	if !ok || pe.Name != "name" {
		t.Errorf("Parts[1] = %+v, want ParamExp{Name: name}", dq.Parts[1])
	}
}

func TestParseParamExpWithDefault(t *testing.T) {
	s := onlyStmt(t, `echo ${x:-fallback}`)
	ce := s.Cmd.(*CallExpr)
	pe, ok := ce.Args[1].Parts[0].(*ParamExp)
	if !ok {
		t.Fatalf("Parts[0] = %T, want *ParamExp", ce.Args[1].Parts[0])
	}
	if pe.Name != "x" || pe.Op != ParExpColonMinus {
		t.Errorf("ParamExp = %+v, want Name=x Op=ParExpColonMinus", pe)
	}
	word, ok := pe.OpWord.Lit()
	if !ok || word != "fallback" {
		t.Errorf("OpWord = %q, want %q", word, "fallback")
	}
}

func TestParseCommandSubstitution(t *testing.T) {
	s := onlyStmt(t, "echo $(date)")
	ce := s.Cmd.(*CallExpr)
	cs, ok := ce.Args[1].Parts[0].(*CmdSubst)
	if !ok {
		t.Fatalf("Parts[0] = %T, want *CmdSubst", ce.Args[1].Parts[0])
	}
	if len(cs.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(cs.Stmts))
	}
}

func TestParseBraceExpansion(t *testing.T) {
	s := onlyStmt(t, "echo {a,b,c}")
	ce := s.Cmd.(*CallExpr)
	be, ok := ce.Args[1].Parts[0].(*BraceExp)
	if !ok {
		t.Fatalf("Parts[0] = %T, want *BraceExp", ce.Args[1].Parts[0])
	}
	if len(be.Elems) != 3 {
		t.Errorf("Elems = %d, want 3", len(be.Elems))
	}
}

func TestParseMultipleStatements(t *testing.T) {
	f := parse(t, "echo a; echo b\necho c")
	if len(f.Stmts) != 3 {
		t.Fatalf("Stmts = %d, want 3", len(f.Stmts))
	}
}

func TestParseUnterminatedIfIsError(t *testing.T) {
	_, err := Parse([]byte("if true; then echo a"), "")
	if err == nil {
		t.Fatal("Parse of an unterminated if returned nil error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("error type = %T, want *ParseError", err)
	}
}

func TestParseEmptySourceProducesNoStmts(t *testing.T) {
	f := parse(t, "")
	if len(f.Stmts) != 0 {
		t.Errorf("Stmts = %d, want 0", len(f.Stmts))
	}
}

func TestFilePositionResolvesLineAndColumn(t *testing.T) {
	f := parse(t, "echo a\necho b")
	pos := f.Stmts[1].Pos()
	p := f.Position(pos)
	if p.Line != 2 {
		t.Errorf("Line = %d, want 2", p.Line)
	}
}
