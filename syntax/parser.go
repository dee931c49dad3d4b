package syntax

import (
	"github.com/gosh-lang/gosh/token"
)

// Parse turns a complete input unit into an AST, or returns a ParseError.
// Per spec §4.1, a parse error always aborts the whole unit: Parse never
// returns a non-nil *File alongside a non-nil error.
func Parse(src []byte, name string) (*File, error) {
	p := newParser(src)
	stmts, err := p.parseStmtList(stopSet{})
	if err != nil {
		return nil, err
	}
	p.skipSpacesTabsAndComments()
	if !p.atEnd() {
		return nil, p.errorHere("unexpected token")
	}
	return &File{Name: name, Stmts: stmts, Lines: p.lines}, nil
}

// stopSet tells parseStmtList and the word/command parsers when to treat
// the current position as the end of the enclosing construct, instead of
// the start of another statement.
type stopSet struct {
	rparen   bool     // ")" closes a subshell or $(...)
	reserved []string // any of these reserved words closes the construct
	caseItem bool     // ";;" or ";&" closes a case item body
}

func (p *Parser) atStop(s stopSet) bool {
	p.skipSpacesTabsAndComments()
	if p.atEnd() {
		return true
	}
	if s.rparen && p.peek() == ')' {
		return true
	}
	if s.caseItem {
		if p.hasPrefix(";;") || p.hasPrefix(";&") {
			return true
		}
		save := p.off
		if p.hasReservedWord("esac") {
			p.off = save
			return true
		}
	}
	if len(s.reserved) > 0 {
		save := p.off
		for _, kw := range s.reserved {
			if p.hasReservedWord(kw) {
				p.off = save
				return true
			}
		}
	}
	return false
}

// parseStmtList parses a sequence of statements separated by ';', '&',
// or newlines, until EOF or the stop condition is met.
func (p *Parser) parseStmtList(stop stopSet) ([]*Stmt, error) {
	var stmts []*Stmt
	for {
		p.skipSpacesTabsAndComments()
		if !p.atEnd() && p.peek() == '\n' {
			p.advance()
			continue
		}
		caseEnd := stop.caseItem && (p.hasPrefix(";;") || p.hasPrefix(";&"))
		if !p.atEnd() && p.peek() == ';' && !caseEnd {
			p.advance()
			continue
		}
		if p.atStop(stop) {
			break
		}
		stmt, err := p.parseAndOr(stop)
		if err != nil {
			return nil, err
		}
		p.skipSpacesTabsAndComments()
		switch {
		case !p.atEnd() && p.peek() == '&' && p.peekAt(1) != '&':
			stmt.Background = true
			p.advance()
		case stop.caseItem && (p.hasPrefix(";;") || p.hasPrefix(";&")):
			// the case item's terminator, left for parseCase to consume
		case !p.atEnd() && p.peek() == ';':
			p.advance()
		case !p.atEnd() && p.peek() == '\n':
			p.advance()
		case p.atStop(stop):
			// fine: last statement with no trailing separator
		default:
			return nil, p.errorHere("unexpected token after command")
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseAndOr(stop stopSet) (*Stmt, error) {
	left, err := p.parsePipeline(stop)
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpacesTabsAndComments()
		var op token.Token
		switch {
		case p.hasPrefix("&&"):
			op = token.LAND
		case p.hasPrefix("||"):
			op = token.LOR
		default:
			return left, nil
		}
		opPos := p.pos()
		p.off += 2
		// bash allows a newline after && / || before the next pipeline.
		for {
			p.skipSpacesTabsAndComments()
			if !p.atEnd() && p.peek() == '\n' {
				p.advance()
				continue
			}
			break
		}
		right, err := p.parsePipeline(stop)
		if err != nil {
			return nil, err
		}
		left = &Stmt{Position: left.Position, Cmd: &AndOr{OpPos: opPos, Op: op, X: left, Y: right}}
	}
}

func (p *Parser) parsePipeline(stop stopSet) (*Stmt, error) {
	p.skipSpacesTabsAndComments()
	negated := p.hasReservedWord("!")
	if negated {
		p.skipSpacesTabsAndComments()
	}
	left, err := p.parseCommand(stop)
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpacesTabsAndComments()
		var op token.Token
		switch {
		case p.hasPrefix("|&"):
			op = token.PIPEALL
		case p.hasPrefix("|") && !p.hasPrefix("||"):
			op = token.OR
		default:
			if negated {
				left.Negated = true
			}
			return left, nil
		}
		opPos := p.pos()
		if op == token.PIPEALL {
			p.off += 2
		} else {
			p.off++
		}
		p.skipSpacesTabsAndComments()
		if !p.atEnd() && p.peek() == '\n' {
			p.advance()
		}
		right, err := p.parseCommand(stop)
		if err != nil {
			return nil, err
		}
		left = &Stmt{Position: left.Position, Cmd: &BinaryCmd{OpPos: opPos, Op: op, X: left, Y: right}}
	}
}

func (p *Parser) parseCommand(stop stopSet) (*Stmt, error) {
	p.skipSpacesTabsAndComments()
	var stmt *Stmt
	var err error
	switch {
	case p.hasPrefix("(("):
		stmt, err = p.parseArithCmd()
	case p.hasPrefix("[["):
		stmt, err = p.parseTestClause()
	case p.peek() == '(':
		stmt, err = p.parseSubshell()
	case p.peekReserved("{"):
		stmt, err = p.parseBlock()
	case p.peekReserved("if"):
		stmt, err = p.parseIf()
	case p.peekReserved("while"):
		stmt, err = p.parseWhile(false)
	case p.peekReserved("until"):
		stmt, err = p.parseWhile(true)
	case p.peekReserved("for"):
		stmt, err = p.parseFor()
	case p.peekReserved("case"):
		stmt, err = p.parseCase()
	case p.peekReserved("function"):
		stmt, err = p.parseFuncDecl(true)
	default:
		if fd, ok, ferr := p.tryFuncDeclNoKeyword(); ferr != nil {
			return nil, ferr
		} else if ok {
			stmt, err = fd, nil
		} else {
			stmt, err = p.parseSimpleCommand(stop)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := p.parseTrailingRedirs(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// peekReserved reports, without consuming, whether the upcoming raw word
// is exactly kw.
func (p *Parser) peekReserved(kw string) bool {
	return p.peekRawWord() == kw
}

func (p *Parser) parseTrailingRedirs(stmt *Stmt) error {
	for {
		p.skipSpacesTabs()
		r, ok, err := p.tryRedirect()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		stmt.Redirs = append(stmt.Redirs, r)
	}
}

func (p *Parser) parseSimpleCommand(stop stopSet) (*Stmt, error) {
	stmt := &Stmt{Position: p.pos()}
	cmdSet := false
	for {
		p.skipSpacesTabsAndComments()
		if p.atEnd() || isWordStop(p.peek()) {
			break
		}
		if p.atStop(stop) {
			break
		}
		r, ok, err := p.tryRedirect()
		if err != nil {
			return nil, err
		}
		if ok {
			stmt.Redirs = append(stmt.Redirs, r)
			continue
		}
		w, err := p.parseWord(false)
		if err != nil {
			return nil, err
		}
		if w == nil {
			break
		}
		if !cmdSet {
			if name, val, appendAssign, ok := splitAssign(w); ok {
				stmt.Assigns = append(stmt.Assigns, &Assign{NamePos: w.Pos(), Name: name, Append: appendAssign, Value: val})
				continue
			}
			cmdSet = true
		}
		ce, _ := stmt.Cmd.(*CallExpr)
		if ce == nil {
			ce = &CallExpr{}
			stmt.Cmd = ce
		}
		ce.Args = append(ce.Args, w)
	}
	return stmt, nil
}

func (p *Parser) parseSubshell() (*Stmt, error) {
	pos := p.pos()
	p.advance() // (
	stmts, err := p.parseStmtList(stopSet{rparen: true})
	if err != nil {
		return nil, err
	}
	if p.peek() != ')' {
		return nil, p.errorHere("expected ')' to close subshell")
	}
	p.advance()
	return &Stmt{Position: pos, Cmd: &Subshell{Lparen: pos, Stmts: stmts}}, nil
}

func (p *Parser) parseBlock() (*Stmt, error) {
	pos := p.pos()
	p.hasReservedWord("{")
	stmts, err := p.parseStmtList(stopSet{reserved: []string{"}"}})
	if err != nil {
		return nil, err
	}
	if !p.hasReservedWord("}") {
		return nil, p.errorHere("expected '}' to close block")
	}
	return &Stmt{Position: pos, Cmd: &Block{Lbrace: pos, Stmts: stmts}}, nil
}

func (p *Parser) parseIf() (*Stmt, error) {
	pos := p.pos()
	p.hasReservedWord("if")
	cond, err := p.parseStmtList(stopSet{reserved: []string{"then"}})
	if err != nil {
		return nil, err
	}
	if !p.hasReservedWord("then") {
		return nil, p.errorHere("expected 'then'")
	}
	then, err := p.parseStmtList(stopSet{reserved: []string{"elif", "else", "fi"}})
	if err != nil {
		return nil, err
	}
	ic := &IfClause{If: pos, CondStmts: cond, ThenStmts: then}
	for p.peekReserved("elif") {
		p.hasReservedWord("elif")
		ec, err := p.parseStmtList(stopSet{reserved: []string{"then"}})
		if err != nil {
			return nil, err
		}
		if !p.hasReservedWord("then") {
			return nil, p.errorHere("expected 'then'")
		}
		et, err := p.parseStmtList(stopSet{reserved: []string{"elif", "else", "fi"}})
		if err != nil {
			return nil, err
		}
		ic.Elifs = append(ic.Elifs, &Elif{CondStmts: ec, ThenStmts: et})
		p.skipSpacesTabsAndComments()
	}
	if p.hasReservedWord("else") {
		es, err := p.parseStmtList(stopSet{reserved: []string{"fi"}})
		if err != nil {
			return nil, err
		}
		ic.ElseStmts = es
	}
	if !p.hasReservedWord("fi") {
		return nil, p.errorHere("expected 'fi'")
	}
	return &Stmt{Position: pos, Cmd: ic}, nil
}

func (p *Parser) parseWhile(until bool) (*Stmt, error) {
	pos := p.pos()
	if until {
		p.hasReservedWord("until")
	} else {
		p.hasReservedWord("while")
	}
	cond, err := p.parseStmtList(stopSet{reserved: []string{"do"}})
	if err != nil {
		return nil, err
	}
	if !p.hasReservedWord("do") {
		return nil, p.errorHere("expected 'do'")
	}
	body, err := p.parseStmtList(stopSet{reserved: []string{"done"}})
	if err != nil {
		return nil, err
	}
	if !p.hasReservedWord("done") {
		return nil, p.errorHere("expected 'done'")
	}
	return &Stmt{Position: pos, Cmd: &WhileClause{While: pos, Until: until, CondStmts: cond, DoStmts: body}}, nil
}

func (p *Parser) parseFor() (*Stmt, error) {
	pos := p.pos()
	p.hasReservedWord("for")
	p.skipSpacesTabsAndComments()
	fc := &ForClause{For: pos}
	if p.hasPrefix("((") {
		p.off += 2
		init, err := p.parseArithmExpr(func() bool { return p.peek() == ';' })
		if err != nil {
			return nil, err
		}
		if p.peek() != ';' {
			return nil, p.errorHere("expected ';' in C-style for")
		}
		p.advance()
		cond, err := p.parseArithmExpr(func() bool { return p.peek() == ';' })
		if err != nil {
			return nil, err
		}
		if p.peek() != ';' {
			return nil, p.errorHere("expected ';' in C-style for")
		}
		p.advance()
		post, err := p.parseArithmExpr(func() bool { return p.hasPrefix("))") })
		if err != nil {
			return nil, err
		}
		if !p.hasOpWord("))") {
			return nil, p.errorHere("expected '))' to close C-style for header")
		}
		fc.Arith = &CStyleFor{Init: init, Cond: cond, Post: post}
	} else {
		name := p.peekRawWord()
		if !isValidName(name) {
			return nil, p.errorHere("expected a name after 'for'")
		}
		p.off += len(name)
		fc.Var = name
		p.skipSpacesTabsAndComments()
		if p.hasReservedWord("in") {
			fc.HasIn = true
			for {
				p.skipSpacesTabs()
				if p.atEnd() || p.peek() == ';' || p.peek() == '\n' {
					break
				}
				w, err := p.parseWord(false)
				if err != nil {
					return nil, err
				}
				if w == nil {
					break
				}
				fc.Items = append(fc.Items, w)
			}
		}
	}
	p.skipSpacesTabsAndComments()
	if !p.atEnd() && (p.peek() == ';' || p.peek() == '\n') {
		p.advance()
	}
	p.skipSpacesTabsAndComments()
	if !p.hasReservedWord("do") {
		return nil, p.errorHere("expected 'do'")
	}
	body, err := p.parseStmtList(stopSet{reserved: []string{"done"}})
	if err != nil {
		return nil, err
	}
	if !p.hasReservedWord("done") {
		return nil, p.errorHere("expected 'done'")
	}
	fc.DoStmts = body
	return &Stmt{Position: pos, Cmd: fc}, nil
}

func (p *Parser) parseCase() (*Stmt, error) {
	pos := p.pos()
	p.hasReservedWord("case")
	p.skipSpacesTabsAndComments()
	subj, err := p.parseWord(false)
	if err != nil {
		return nil, err
	}
	if subj == nil {
		return nil, p.errorHere("expected a word after 'case'")
	}
	p.skipSpacesTabsAndComments()
	if !p.hasReservedWord("in") {
		return nil, p.errorHere("expected 'in'")
	}
	cc := &CaseClause{Case: pos, Word: subj}
	for {
		p.skipSpacesTabsAndComments()
		if !p.atEnd() && p.peek() == '\n' {
			p.advance()
			continue
		}
		if p.peekReserved("esac") {
			break
		}
		if p.peek() == '(' {
			p.advance()
		}
		p.skipSpacesTabsAndComments()
		var pats []*Word
		for {
			w, err := p.parseWord(false)
			if err != nil {
				return nil, err
			}
			if w != nil {
				pats = append(pats, w)
			}
			p.skipSpacesTabs()
			if !p.atEnd() && p.peek() == '|' {
				p.advance()
				p.skipSpacesTabsAndComments()
				continue
			}
			break
		}
		if p.peek() != ')' {
			return nil, p.errorHere("expected ')' after case pattern")
		}
		p.advance()
		stmts, err := p.parseStmtList(stopSet{caseItem: true})
		if err != nil {
			return nil, err
		}
		switch {
		case p.hasPrefix(";;"):
			p.off += 2
		case p.hasPrefix(";&"):
			p.off += 2
		}
		cc.Items = append(cc.Items, &CaseItem{Patterns: pats, Stmts: stmts})
	}
	if !p.hasReservedWord("esac") {
		return nil, p.errorHere("expected 'esac'")
	}
	return &Stmt{Position: pos, Cmd: cc}, nil
}

// parseFuncDecl parses "function name [()] compound-command", having
// already recognized the leading "function" keyword in parseCommand.
func (p *Parser) parseFuncDecl(keyword bool) (*Stmt, error) {
	pos := p.pos()
	if keyword {
		p.hasReservedWord("function")
		p.skipSpacesTabsAndComments()
	}
	name := p.peekRawWord()
	if !isValidName(name) {
		return nil, p.errorHere("expected a function name")
	}
	p.off += len(name)
	p.skipSpacesTabs()
	if p.peek() == '(' && p.peekAt(1) == ')' {
		p.off += 2
	}
	return p.finishFuncDecl(pos, name)
}

func (p *Parser) finishFuncDecl(pos token.Pos, name string) (*Stmt, error) {
	p.skipSpacesTabsAndComments()
	if !p.atEnd() && p.peek() == '\n' {
		p.advance()
		p.skipSpacesTabsAndComments()
	}
	body, err := p.parseCommand(stopSet{})
	if err != nil {
		return nil, err
	}
	return &Stmt{Position: pos, Cmd: &FuncDecl{Position: pos, Name: name, Body: body}}, nil
}

// tryFuncDeclNoKeyword recognizes "name() compound-command" function
// definitions (no leading "function" keyword).
func (p *Parser) tryFuncDeclNoKeyword() (*Stmt, bool, error) {
	save := p.off
	pos := p.pos()
	name := p.peekRawWord()
	if !isValidName(name) {
		return nil, false, nil
	}
	j := p.off + len(name)
	for j < len(p.src) && isBlank(p.src[j]) {
		j++
	}
	if j >= len(p.src) || p.src[j] != '(' {
		return nil, false, nil
	}
	j++
	for j < len(p.src) && isBlank(p.src[j]) {
		j++
	}
	if j >= len(p.src) || p.src[j] != ')' {
		return nil, false, nil
	}
	p.off = j + 1
	stmt, err := p.finishFuncDecl(pos, name)
	if err != nil {
		p.off = save
		return nil, false, err
	}
	return stmt, true, nil
}

func (p *Parser) parseArithCmd() (*Stmt, error) {
	pos := p.pos()
	p.off += 2
	x, err := p.parseArithmExpr(func() bool { return p.hasPrefix("))") })
	if err != nil {
		return nil, err
	}
	if !p.hasOpWord("))") {
		return nil, p.errorHere("expected '))' to close arithmetic command")
	}
	return &Stmt{Position: pos, Cmd: &ArithCmd{Left: pos, X: x}}, nil
}

func (p *Parser) parseTestClause() (*Stmt, error) {
	pos := p.pos()
	p.off += 2
	p.skipSpacesTabsAndComments()
	x, err := p.parseTestOr()
	if err != nil {
		return nil, err
	}
	p.skipSpacesTabsAndComments()
	if !p.hasPrefix("]]") {
		return nil, p.errorHere("expected ']]' to close test expression")
	}
	p.off += 2
	return &Stmt{Position: pos, Cmd: &TestClause{Left: pos, X: x}}, nil
}

