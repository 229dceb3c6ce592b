package expr

import (
	"strings"

	"github.com/pkg/errors"
)

// lexer tokenizes the arithmetic/logical expression language of spec §4.1.
// It is hand-written rather than built on a parser-combinator library: the
// retrieval pack carries no expression-grammar dependency to ground one on
// (see DESIGN.md's stdlib justification for this package).
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpace() {
	for {
		r, ok := l.peekRune()
		if !ok || !isSpace(r) {
			return
		}
		l.pos++
	}
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isIdentCont(r rune) bool { return isIdentStart(r) || isDigit(r) }

// next returns the next token, or an error on an unrecognized character.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch {
	case isDigit(r):
		return l.lexNumber(), nil
	case r == '"' || r == '\'':
		return l.lexString(r)
	case isIdentStart(r):
		return l.lexIdent(), nil
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = string(l.src[l.pos : l.pos+2])
	}

	switch two {
	case "//":
		l.pos += 2
		return token{kind: tokSlashSlash, text: "//"}, nil
	case "==":
		l.pos += 2
		return token{kind: tokEq, text: "=="}, nil
	case "!=":
		l.pos += 2
		return token{kind: tokNeq, text: "!="}, nil
	case "<=":
		l.pos += 2
		return token{kind: tokLe, text: "<="}, nil
	case ">=":
		l.pos += 2
		return token{kind: tokGe, text: ">="}, nil
	}

	l.pos++
	switch r {
	case '+':
		return token{kind: tokPlus, text: "+"}, nil
	case '-':
		return token{kind: tokMinus, text: "-"}, nil
	case '*':
		return token{kind: tokStar, text: "*"}, nil
	case '/':
		return token{kind: tokSlash, text: "/"}, nil
	case '%':
		return token{kind: tokPercent, text: "%"}, nil
	case '^':
		return token{kind: tokCaret, text: "^"}, nil
	case '(':
		return token{kind: tokLParen, text: "("}, nil
	case ')':
		return token{kind: tokRParen, text: ")"}, nil
	case ',':
		return token{kind: tokComma, text: ","}, nil
	case '.':
		return token{kind: tokDot, text: "."}, nil
	case '<':
		return token{kind: tokLt, text: "<"}, nil
	case '>':
		return token{kind: tokGt, text: ">"}, nil
	}

	return token{}, errors.Errorf("unexpected character %q in expression", r)
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for {
		r, ok := l.peekRune()
		if !ok || !(isDigit(r) || r == '.') {
			break
		}
		l.pos++
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos])}
}

func (l *lexer) lexString(quote rune) (token, error) {
	l.pos++ // consume opening quote
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return token{}, errors.New("unterminated string literal")
		}
		if r == quote {
			l.pos++
			return token{kind: tokString, text: b.String()}, nil
		}
		if r == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			r2 := l.src[l.pos]
			b.WriteRune(r2)
			l.pos++
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
}

// lexIdent consumes an identifier chain, including dotted reference
// segments and the wildcard "*" marker (e.g. foo.bar, scope.name.0.key,
// a.*.b) as a single token — reference parsing over it is deferred to
// vartable.ParseReference.
func (l *lexer) lexIdent() token {
	start := l.pos
	for {
		r, ok := l.peekRune()
		if !ok {
			break
		}
		if isIdentCont(r) {
			l.pos++
			continue
		}
		if r == '.' {
			// Only consume the dot as part of the identifier if what
			// follows looks like another reference segment (identifier,
			// digit, or the wildcard '*'); otherwise this dot belongs to
			// the surrounding syntax (e.g. a trailing statement dot).
			if l.pos+1 < len(l.src) {
				n := l.src[l.pos+1]
				if isIdentStart(n) || isDigit(n) || n == '*' {
					l.pos++
					if n == '*' {
						l.pos++
					}
					continue
				}
			}
		}
		break
	}
	text := string(l.src[start:l.pos])
	if kind, ok := keywords[text]; ok {
		return token{kind: kind, text: text}
	}
	return token{kind: tokIdent, text: text}
}
