package syntax

import (
	"strings"

	"github.com/gosh-lang/gosh/token"
)

var redirOps = []struct {
	s  string
	op RedirOperator
}{
	{"<<<", RedirHerestr},
	{"<<-", RedirHeredocDash},
	{"<<", RedirHeredoc},
	{"<>", RedirReadWrite},
	{"<&", RedirDupIn},
	{"<", RedirRead},
	{"&>>", RedirAllAppend},
	{"&>", RedirAllOut},
	{">>", RedirAppend},
	{">|", RedirClobber},
	{">&", RedirDupOut},
	{">", RedirWrite},
}

func (p *Parser) matchRedirOp() (RedirOperator, bool) {
	for _, e := range redirOps {
		if p.hasPrefix(e.s) {
			p.off += len(e.s)
			return e.op, true
		}
	}
	return 0, false
}

// tryRedirect parses one [n]OP word redirection at the current position,
// if one is present. An optional leading fd digit run is only treated as
// a fd prefix when immediately followed by '<' or '>'; otherwise it is
// left alone as ordinary word text.
func (p *Parser) tryRedirect() (*Redirect, bool, error) {
	save := p.off
	fdStart := p.off
	for !p.atEnd() && isDigit(p.peek()) {
		p.advance()
	}
	fdStr := string(p.src[fdStart:p.off])
	if p.atEnd() || (p.peek() != '<' && p.peek() != '>') {
		p.off = save
		return nil, false, nil
	}
	opPos := token.Pos(fdStart + 1)
	op, ok := p.matchRedirOp()
	if !ok {
		p.off = save
		return nil, false, nil
	}
	var fd *int
	if fdStr != "" {
		n, _ := parseIntLit(fdStr)
		fd = &n
	}
	r := &Redirect{OpPos: opPos, Op: op, Fd: fd}
	p.skipSpacesTabs()
	switch op {
	case RedirHeredoc, RedirHeredocDash:
		delim, quoted, err := p.parseHeredocDelim()
		if err != nil {
			return nil, false, err
		}
		r.HdocQuoted = quoted
		r.Word = &Word{Parts: []WordPart{&Lit{ValuePos: p.pos(), Value: delim}}}
		p.pendingHdocs = append(p.pendingHdocs, r)
	default:
		w, err := p.parseWord(false)
		if err != nil {
			return nil, false, err
		}
		if w == nil {
			return nil, false, p.errorHere("expected a word after redirection operator")
		}
		r.Word = w
	}
	return r, true, nil
}

// parseHeredocDelim reads the here-document delimiter token. Any quoting
// in it (as opposed to around it) marks the body as literal: \EOF, 'EOF',
// and "EOF" all disable expansion in the body, per spec §6.
func (p *Parser) parseHeredocDelim() (string, bool, error) {
	quoted := false
	var b strings.Builder
	for !p.atEnd() {
		c := p.peek()
		if isBlank(c) || c == '\n' {
			break
		}
		switch c {
		case '\'':
			quoted = true
			p.advance()
			for !p.atEnd() && p.peek() != '\'' {
				b.WriteByte(p.advance())
			}
			if p.atEnd() {
				return "", false, p.errorHere("unterminated quote in here-document delimiter")
			}
			p.advance()
		case '"':
			quoted = true
			p.advance()
			for !p.atEnd() && p.peek() != '"' {
				b.WriteByte(p.advance())
			}
			if p.atEnd() {
				return "", false, p.errorHere("unterminated quote in here-document delimiter")
			}
			p.advance()
		case '\\':
			quoted = true
			p.advance()
			if !p.atEnd() {
				b.WriteByte(p.advance())
			}
		default:
			b.WriteByte(p.advance())
		}
	}
	if b.Len() == 0 {
		return "", false, p.errorHere("expected here-document delimiter")
	}
	return b.String(), quoted, nil
}

// collectHeredocs drains every here-doc queued since the last newline,
// reading their bodies line by line up to each one's delimiter. It is
// called directly from advance()'s choke point rather than recursing
// through it, so it owns line tracking for the bytes it consumes.
func (p *Parser) collectHeredocs() {
	pending := p.pendingHdocs
	p.pendingHdocs = nil
	for _, r := range pending {
		delim, _ := r.Word.Lit()
		stripTabs := r.Op == RedirHeredocDash
		var body strings.Builder
		for {
			lineStart := p.off
			for p.off < len(p.src) && p.src[p.off] != '\n' {
				p.off++
			}
			line := string(p.src[lineStart:p.off])
			atEOF := p.off >= len(p.src)
			if !atEOF {
				p.off++
				p.lines = append(p.lines, p.off)
			}
			cmp := line
			if stripTabs {
				cmp = strings.TrimLeft(cmp, "\t")
			}
			if cmp == delim {
				break
			}
			bodyLine := line
			if stripTabs {
				bodyLine = strings.TrimLeft(bodyLine, "\t")
			}
			body.WriteString(bodyLine)
			body.WriteByte('\n')
			if atEOF {
				break
			}
		}
		if r.HdocQuoted {
			r.Hdoc = &Word{Parts: []WordPart{&Lit{ValuePos: r.Word.Pos(), Value: body.String()}}}
			continue
		}
		parts, err := parseInterpolatedBody(body.String())
		if err != nil {
			parts = []WordPart{&Lit{ValuePos: r.Word.Pos(), Value: body.String()}}
		}
		r.Hdoc = &Word{Parts: parts}
	}
}
