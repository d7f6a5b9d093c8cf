package language

import (
	"strings"

	"github.com/truora/miniql/types"
)

// Lexer query language lexer
type Lexer struct {
	input    string
	position int
	// current position in input (points to current char)
	readPosition int
	// current reading position in input (after current char)
	ch byte // current char under examination
	// type of the last token returned, a ':' right after a string is a map delimiter
	prev TokenType
}

var singleChar = map[byte]TokenType{
	'=': EQ,
	'*': ASTERISK,
	',': COMMA,
	'.': DOT,
	';': SEMICOLON,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'{': LBRACE,
	'}': RBRACE,
}

var escapes = map[byte]byte{
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()

	return l
}

// Tokenize lexes the whole input, failing on the first illegal token.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	tokens := []Token{}

	for {
		tok := l.NextToken()

		switch tok.Type {
		case EOF:
			return tokens, nil
		case ILLEGAL:
			return nil, types.NewSyntaxError("%s at position %d", tok.Literal, tok.Pos)
		}

		tokens = append(tokens, tok)
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}

	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}

	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) manageLessThanToken() Token {
	pos := l.position

	if l.peekChar() == '=' {
		l.readChar()

		return Token{Type: LTE, Literal: "<=", Pos: pos}
	}

	return Token{Type: LT, Literal: "<", Pos: pos}
}

func (l *Lexer) manageGreaterThanToken() Token {
	pos := l.position

	if l.peekChar() == '=' {
		l.readChar()

		return Token{Type: GTE, Literal: ">=", Pos: pos}
	}

	return Token{Type: GT, Literal: ">", Pos: pos}
}

// NextToken look up for the next token
func (l *Lexer) NextToken() Token {
	tok := l.next()
	l.prev = tok.Type

	return tok
}

//gocyclo:ignore
func (l *Lexer) next() Token {
	l.skipWhitespace()

	pos := l.position

	if l.atEnd() {
		return Token{Type: EOF, Pos: pos}
	}

	switch {
	case l.ch == '<':
		tok := l.manageLessThanToken()
		l.readChar()

		return tok
	case l.ch == '>':
		tok := l.manageGreaterThanToken()
		l.readChar()

		return tok
	case l.ch == '"' || l.ch == '\'':
		return l.readString(l.ch)
	case l.ch == '@':
		return l.readParameter()
	case l.ch == ':' && l.prev != STRING && isIdentifierStart(l.peekChar()):
		return l.readParameter()
	case l.ch == ':':
		l.readChar()

		return Token{Type: COLON, Literal: ":", Pos: pos}
	case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())):
		return l.readNumber()
	case isIdentifierStart(l.ch):
		literal := l.readIdentifier()

		return Token{Type: LookupIdent(literal), Literal: literal, Pos: pos}
	}

	if single, ok := singleChar[l.ch]; ok {
		tok := Token{Type: single, Literal: string(l.ch), Pos: pos}
		l.readChar()

		return tok
	}

	tok := Token{Type: ILLEGAL, Literal: "unrecognized symbol " + quote(string(l.ch)), Pos: pos}
	l.readChar()

	return tok
}

func (l *Lexer) readIdentifier() string {
	position := l.position

	for isIdentifierLetter(l.ch) && !l.atEnd() {
		l.readChar()
	}

	return l.input[position:l.position]
}

func (l *Lexer) readParameter() Token {
	pos := l.position
	l.readChar() // skip the sigil

	if !isIdentifierStart(l.ch) || l.atEnd() {
		return Token{Type: ILLEGAL, Literal: "parameter marker without a name", Pos: pos}
	}

	return Token{Type: PARAM, Literal: l.readIdentifier(), Pos: pos}
}

func (l *Lexer) readNumber() Token {
	pos := l.position

	if l.ch == '-' {
		l.readChar()
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' {
		if !isDigit(l.peekChar()) {
			return l.malformedNumber(pos)
		}

		l.readChar() // skip '.'

		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == '.' || isIdentifierLetter(l.ch) {
		return l.malformedNumber(pos)
	}

	return Token{Type: NUMBER, Literal: l.input[pos:l.position], Pos: pos}
}

func (l *Lexer) malformedNumber(pos int) Token {
	for l.ch == '.' || isIdentifierLetter(l.ch) {
		l.readChar()
	}

	return Token{Type: ILLEGAL, Literal: "malformed number " + quote(l.input[pos:l.position]), Pos: pos}
}

func (l *Lexer) readString(delimiter byte) Token {
	pos := l.position

	var sb strings.Builder

	for {
		l.readChar()

		if l.atEnd() {
			return Token{Type: ILLEGAL, Literal: "unterminated string " + quote(l.input[pos:]), Pos: pos}
		}

		if l.ch == delimiter {
			l.readChar()

			return Token{Type: STRING, Literal: sb.String(), Pos: pos}
		}

		if l.ch == '\\' {
			if esc, ok := escapes[l.peekChar()]; ok {
				l.readChar()
				sb.WriteByte(esc)

				continue
			}
		}

		sb.WriteByte(l.ch)
	}
}

func isIdentifierStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch >= 0x80
}

func isIdentifierLetter(ch byte) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}
