package syntax

// parseArithmExpr implements the precedence-climbing grammar from spec
// §4.3: assignment (lowest, right-assoc) > ternary > || > && > | > ^ > &
// > ==/!= > relational > shift > +- > */%  > ** (highest), plus prefix/
// postfix ++/-- and unary +-!~. stop reports whether the current position
// (after skipping arithmetic whitespace) is the expression's terminator,
// e.g. "))" for $((...)) or ";" for a C-style for-loop clause.
func (p *Parser) parseArithmExpr(stop func() bool) (ArithmExpr, error) {
	return p.arithAssign(stop)
}

func (p *Parser) arithSkipWS() {
	for !p.atEnd() {
		switch p.peek() {
		case ' ', '\t', '\n':
			p.advance()
		default:
			return
		}
	}
}

func (p *Parser) arithAtStop(stop func() bool) bool {
	p.arithSkipWS()
	if p.atEnd() {
		return true
	}
	return stop()
}

func (p *Parser) arithAssign(stop func() bool) (ArithmExpr, error) {
	x, err := p.arithTernary(stop)
	if err != nil {
		return nil, err
	}
	if p.arithAtStop(stop) {
		return x, nil
	}
	if op, ok := p.matchArithAssignOp(); ok {
		name, ok2 := x.(*ArithmWord)
		if !ok2 || name.Word != nil || !isValidName(name.Lit) {
			return nil, p.errorHere("invalid arithmetic assignment target")
		}
		y, err := p.arithAssign(stop)
		if err != nil {
			return nil, err
		}
		return &ArithmAssign{Name: name.Lit, Op: op, X: y}, nil
	}
	return x, nil
}

func (p *Parser) matchArithAssignOp() (string, bool) {
	for _, op := range []string{"<<=", ">>=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^="} {
		if p.hasPrefix(op) {
			p.off += len(op)
			return op, true
		}
	}
	if p.peek() == '=' && p.peekAt(1) != '=' {
		p.advance()
		return "=", true
	}
	return "", false
}

// atCompoundAssign reports whether a compound assignment operator such as
// "+=" or "<<=" starts at the current position, so that the binary
// operator levels leave it to arithAssign instead of taking its first byte.
func (p *Parser) atCompoundAssign() bool {
	for _, op := range []string{"<<=", ">>=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^="} {
		if p.hasPrefix(op) {
			return true
		}
	}
	return false
}

func (p *Parser) arithTernary(stop func() bool) (ArithmExpr, error) {
	x, err := p.arithLogOr(stop)
	if err != nil {
		return nil, err
	}
	p.arithSkipWS()
	if p.peek() != '?' {
		return x, nil
	}
	p.advance()
	then, err := p.arithAssign(func() bool { p.arithSkipWS(); return p.peek() == ':' })
	if err != nil {
		return nil, err
	}
	p.arithSkipWS()
	if p.peek() != ':' {
		return nil, p.errorHere("expected ':' in ternary expression")
	}
	p.advance()
	els, err := p.arithAssign(stop)
	if err != nil {
		return nil, err
	}
	return &ArithmTernary{Cond: x, Then: then, Else: els}, nil
}

func (p *Parser) arithBinaryLevel(stop func() bool, next func(func() bool) (ArithmExpr, error), ops ...string) (ArithmExpr, error) {
	x, err := next(stop)
	if err != nil {
		return nil, err
	}
	for {
		p.arithSkipWS()
		if p.atEnd() || stop() || p.atCompoundAssign() {
			return x, nil
		}
		matched := ""
		for _, op := range ops {
			if p.hasPrefix(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return x, nil
		}
		p.off += len(matched)
		y, err := next(stop)
		if err != nil {
			return nil, err
		}
		x = &ArithmBinary{Op: matched, X: x, Y: y}
	}
}

func (p *Parser) arithLogOr(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithLogAnd, "||")
}
func (p *Parser) arithLogAnd(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithBitOr, "&&")
}
func (p *Parser) arithBitOr(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevelExcl(stop, p.arithBitXor, "|", "||")
}
func (p *Parser) arithBitXor(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithBitAnd, "^")
}
func (p *Parser) arithBitAnd(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevelExcl(stop, p.arithEquality, "&", "&&")
}
func (p *Parser) arithEquality(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithRelational, "==", "!=")
}
func (p *Parser) arithRelational(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithShift, "<=", ">=", "<", ">")
}
func (p *Parser) arithShift(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevel(stop, p.arithAdd, "<<", ">>")
}
func (p *Parser) arithAdd(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevelExcl(stop, p.arithMul, "+", "++", "-", "--")
}
func (p *Parser) arithMul(stop func() bool) (ArithmExpr, error) {
	return p.arithBinaryLevelExcl(stop, p.arithPow, "*", "**", "/", "", "%", "")
}

// arithBinaryLevelExcl is arithBinaryLevel, but each operator in excl pairs
// ("op", "conflictingLongerOp") is only matched when the longer lookalike
// does not also match (e.g. '&' must not fire when the text is really
// "&&"). Pass ("op", "") for an operator with no such conflict.
func (p *Parser) arithBinaryLevelExcl(stop func() bool, next func(func() bool) (ArithmExpr, error), opPairs ...string) (ArithmExpr, error) {
	x, err := next(stop)
	if err != nil {
		return nil, err
	}
	for {
		p.arithSkipWS()
		if p.atEnd() || stop() || p.atCompoundAssign() {
			return x, nil
		}
		matched := ""
		for i := 0; i+1 < len(opPairs); i += 2 {
			op, conflict := opPairs[i], opPairs[i+1]
			if conflict != "" && p.hasPrefix(conflict) {
				continue
			}
			if p.hasPrefix(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return x, nil
		}
		p.off += len(matched)
		y, err := next(stop)
		if err != nil {
			return nil, err
		}
		x = &ArithmBinary{Op: matched, X: x, Y: y}
	}
}

func (p *Parser) arithPow(stop func() bool) (ArithmExpr, error) {
	x, err := p.arithUnary(stop)
	if err != nil {
		return nil, err
	}
	p.arithSkipWS()
	if p.hasPrefix("**") {
		p.off += 2
		y, err := p.arithPow(stop)
		if err != nil {
			return nil, err
		}
		return &ArithmBinary{Op: "**", X: x, Y: y}, nil
	}
	return x, nil
}

func (p *Parser) arithUnary(stop func() bool) (ArithmExpr, error) {
	p.arithSkipWS()
	switch {
	case p.hasPrefix("++"):
		p.off += 2
		x, err := p.arithUnary(stop)
		if err != nil {
			return nil, err
		}
		return &ArithmUnary{Op: "++", X: x}, nil
	case p.hasPrefix("--"):
		p.off += 2
		x, err := p.arithUnary(stop)
		if err != nil {
			return nil, err
		}
		return &ArithmUnary{Op: "--", X: x}, nil
	case p.peek() == '+' || p.peek() == '-' || p.peek() == '!' || p.peek() == '~':
		op := string(p.advance())
		x, err := p.arithUnary(stop)
		if err != nil {
			return nil, err
		}
		return &ArithmUnary{Op: op, X: x}, nil
	}
	return p.arithPostfix(stop)
}

func (p *Parser) arithPostfix(stop func() bool) (ArithmExpr, error) {
	x, err := p.arithPrimary(stop)
	if err != nil {
		return nil, err
	}
	p.arithSkipWS()
	switch {
	case p.hasPrefix("++"):
		p.off += 2
		return &ArithmUnary{Op: "++", Post: true, X: x}, nil
	case p.hasPrefix("--"):
		p.off += 2
		return &ArithmUnary{Op: "--", Post: true, X: x}, nil
	}
	return x, nil
}

func (p *Parser) arithPrimary(stop func() bool) (ArithmExpr, error) {
	p.arithSkipWS()
	if p.atEnd() {
		return nil, p.errorHere("unexpected end of arithmetic expression")
	}
	c := p.peek()
	if c == '(' {
		p.advance()
		x, err := p.arithAssign(func() bool { p.arithSkipWS(); return p.peek() == ')' })
		if err != nil {
			return nil, err
		}
		p.arithSkipWS()
		if p.peek() != ')' {
			return nil, p.errorHere("expected ')' in arithmetic expression")
		}
		p.advance()
		return &ArithmParen{X: x}, nil
	}
	if c == '$' {
		part, err := p.parseDollar()
		if err != nil {
			return nil, err
		}
		return &ArithmWord{ValuePos: part.Pos(), Word: &Word{Parts: []WordPart{part}}}, nil
	}
	start := p.off
	pos := p.pos()
	if isDigit(c) {
		for !p.atEnd() && (isDigit(p.peek()) || isAlpha(p.peek()) || p.peek() == '#' || p.peek() == 'x' || p.peek() == 'X') {
			p.advance()
		}
		return &ArithmWord{ValuePos: pos, Lit: string(p.src[start:p.off])}, nil
	}
	if isNameStart(c) {
		for !p.atEnd() && isNameCont(p.peek()) {
			p.advance()
		}
		return &ArithmWord{ValuePos: pos, Lit: string(p.src[start:p.off])}, nil
	}
	return nil, p.errorHere("unexpected character in arithmetic expression")
}
