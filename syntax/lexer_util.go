package syntax

import (
	"strconv"
	"strings"

	"github.com/gosh-lang/gosh/token"
)

// Parser holds the lexer/parser state for one complete input unit. It
// reads directly from a byte slice rather than through a buffered token
// stream: shell grammar is context-sensitive enough (quoting, nested
// expansions, here-docs interleaved with the rest of the line) that a
// hand-rolled recursive-descent reader, advancing one byte at a time, is
// the natural fit — the same approach bash and dash use internally.
type Parser struct {
	src   []byte
	off   int
	lines []int // start offset of each line; lines[0] == 0

	pendingHdocs []*Redirect
}

func newParser(src []byte) *Parser {
	return &Parser{src: src, lines: []int{0}}
}

func (p *Parser) pos() token.Pos { return token.Pos(p.off + 1) }

func (p *Parser) atEnd() bool { return p.off >= len(p.src) }

func (p *Parser) peek() byte {
	if p.off >= len(p.src) {
		return 0
	}
	return p.src[p.off]
}

func (p *Parser) peekAt(n int) byte {
	if p.off+n >= len(p.src) {
		return 0
	}
	return p.src[p.off+n]
}

func (p *Parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.off:]), s)
}

// advance consumes and returns the current byte. It is the single choke
// point for tracking line starts, so that File.Position stays accurate and
// so that a pending here-doc body is drained the moment its introducing
// newline is consumed.
func (p *Parser) advance() byte {
	c := p.src[p.off]
	p.off++
	if c == '\n' {
		p.lines = append(p.lines, p.off)
		if len(p.pendingHdocs) > 0 {
			p.collectHeredocs()
		}
	}
	return c
}

func (p *Parser) errorHere(msg string) *ParseError {
	return &ParseError{Position: p.position(p.pos()), Msg: msg}
}

func (p *Parser) position(pos token.Pos) token.Position {
	off := int(pos) - 1
	i := searchInts(p.lines, off)
	if i < 0 {
		return token.Position{}
	}
	return token.Position{Offset: off, Line: i + 1, Column: off - p.lines[i] + 1}
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameCont(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isWordStop reports whether c, unquoted, ends the current word.
func isWordStop(c byte) bool {
	switch c {
	case 0, ' ', '\t', '\n', '|', '&', ';', '<', '>', '(', ')':
		return true
	}
	return false
}

func (p *Parser) skipSpacesTabs() {
	for !p.atEnd() && isBlank(p.peek()) {
		p.advance()
	}
}

// skipSpacesTabsAndComments skips horizontal whitespace and, when a '#'
// appears at what is then a word-start position, the remainder of the
// line (comments are discarded unless inside quotes, per spec §4.1). It
// never consumes the newline itself.
func (p *Parser) skipSpacesTabsAndComments() {
	for {
		p.skipSpacesTabs()
		if p.peek() == '#' {
			for !p.atEnd() && p.peek() != '\n' {
				p.advance()
			}
			continue
		}
		break
	}
}

// peekRawWord returns the literal byte span starting at the current
// position up to (but not including) the next unquoted word-stop byte,
// without consuming it. Used to sniff reserved words and assignment/
// function-name prefixes, which never contain quoting.
func (p *Parser) peekRawWord() string {
	j := p.off
	for j < len(p.src) && !isWordStop(p.src[j]) {
		j++
	}
	return string(p.src[p.off:j])
}

// hasReservedWord reports whether the upcoming raw word is exactly kw,
// consuming it if so. Reserved words are only meaningful in command
// position, which callers are responsible for only probing from.
func (p *Parser) hasReservedWord(kw string) bool {
	raw := p.peekRawWord()
	if raw != kw {
		return false
	}
	p.off += len(kw)
	return true
}

// hasOpWord is like hasReservedWord but for symbolic lookalikes such as
// "((" and "[[". Unlike hasReservedWord it checks only the prefix and does
// not require a word boundary after op, so e.g. "((foo" without a
// following space is recognized (arithmetic commands glue directly to
// their body).
func (p *Parser) hasOpWord(op string) bool {
	if !p.hasPrefix(op) {
		return false
	}
	p.off += len(op)
	return true
}

func wordLiteralText(w *Word) string {
	if w == nil {
		return ""
	}
	var b strings.Builder
	var walk func(parts []WordPart)
	walk = func(parts []WordPart) {
		for _, part := range parts {
			switch x := part.(type) {
			case *Lit:
				b.WriteString(stripBackslashes(x.Value))
			case *SglQuoted:
				b.WriteString(x.Value)
			case *DblQuoted:
				walk(x.Parts)
			}
		}
	}
	walk(w.Parts)
	return b.String()
}

func stripBackslashes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func wordHasQuotes(w *Word) bool {
	if w == nil {
		return false
	}
	for _, p := range w.Parts {
		switch p.(type) {
		case *SglQuoted, *DblQuoted:
			return true
		}
	}
	return false
}

func isValidName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameCont(s[i]) {
			return false
		}
	}
	return true
}

// splitAssign recognizes a NAME=WORD or NAME+=WORD prefix at the start of
// an already-lexed word, per the simple-command assignment grammar in
// spec §3. It only ever looks at the first part, since an assignment name
// can never be quoted.
func splitAssign(w *Word) (name string, val *Word, appendAssign bool, ok bool) {
	if len(w.Parts) == 0 {
		return "", nil, false, false
	}
	lit, isLit := w.Parts[0].(*Lit)
	if !isLit {
		return "", nil, false, false
	}
	s := lit.Value
	i := 0
	for i < len(s) && isNameCont(s[i]) {
		i++
	}
	if i == 0 || !isNameStart(s[0]) {
		return "", nil, false, false
	}
	rest := s[i:]
	appendAssign = strings.HasPrefix(rest, "+=")
	var valStart int
	switch {
	case appendAssign:
		valStart = i + 2
	case strings.HasPrefix(rest, "="):
		valStart = i + 1
	default:
		return "", nil, false, false
	}
	name = s[:i]
	var parts []WordPart
	if valStart < len(s) {
		parts = append(parts, &Lit{ValuePos: lit.ValuePos, Value: s[valStart:]})
	}
	parts = append(parts, w.Parts[1:]...)
	return name, &Word{Parts: parts}, appendAssign, true
}

func parseIntLit(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
