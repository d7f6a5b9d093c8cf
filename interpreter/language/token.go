package language

import "strings"

// TokenType represents the type of the token
type TokenType string

// Token represents a token of the query language
type Token struct {
	Type    TokenType
	Literal string
	// Pos byte offset of the first character in the input
	Pos int
}

const (
	// ILLEGAL illegal token, its literal describes the problem
	ILLEGAL TokenType = "ILLEGAL"
	// EOF end of the file(input)
	EOF TokenType = "EOF"

	// IDENT entity, field, unit or function name
	IDENT TokenType = "IDENT"
	// STRING quoted text literal, the literal holds the unescaped content
	STRING TokenType = "STRING"
	// NUMBER integer or decimal literal
	NUMBER TokenType = "NUMBER"
	// BOOLEAN true or false
	BOOLEAN TokenType = "BOOLEAN"
	// PARAM @name or :name parameter marker, the literal holds the name
	PARAM TokenType = "PARAM"

	// ASTERISK select every field
	ASTERISK TokenType = "*"
	// COMMA list delimiter
	COMMA TokenType = ","
	// DOT qualified name delimiter
	DOT TokenType = "."
	// COLON map entry delimiter
	COLON TokenType = ":"
	// SEMICOLON optional statement terminator
	SEMICOLON TokenType = ";"
	// LPAREN left parentheses delimiter
	LPAREN TokenType = "("
	// RPAREN right parentheses delimiter
	RPAREN TokenType = ")"
	// LBRACKET left bracket delimiter
	LBRACKET TokenType = "["
	// RBRACKET right bracket delimiter
	RBRACKET TokenType = "]"
	// LBRACE left brace delimiter
	LBRACE TokenType = "{"
	// RBRACE right brace delimiter
	RBRACE TokenType = "}"

	// EQ logical comparator equal
	EQ TokenType = "="
	// LT logical comparator less than
	LT TokenType = "<"
	// LTE logical comparator less than or equal
	LTE TokenType = "<="
	// GT logical comparator greater than
	GT TokenType = ">"
	// GTE logical comparator greater than or equal
	GTE TokenType = ">="

	// Keywords, matched ignoring case
	SELECT  TokenType = "SELECT"
	FROM    TokenType = "FROM"
	WHERE   TokenType = "WHERE"
	INSERT  TokenType = "INSERT"
	UPDATE  TokenType = "UPDATE"
	DELETE  TokenType = "DELETE"
	AND     TokenType = "AND"
	OR      TokenType = "OR"
	NOT     TokenType = "NOT"
	BETWEEN TokenType = "BETWEEN"
	IN      TokenType = "IN"
	LIKE    TokenType = "LIKE"
	ORDER   TokenType = "ORDER"
	BY      TokenType = "BY"
	ASC     TokenType = "ASC"
	DESC    TokenType = "DESC"
	SKIP    TokenType = "SKIP"
	LIMIT   TokenType = "LIMIT"
	GET     TokenType = "GET"
	PUT     TokenType = "PUT"
	DEL     TokenType = "DEL"
)

var keywords = map[string]TokenType{
	"SELECT":  SELECT,
	"FROM":    FROM,
	"WHERE":   WHERE,
	"INSERT":  INSERT,
	"UPDATE":  UPDATE,
	"DELETE":  DELETE,
	"AND":     AND,
	"OR":      OR,
	"NOT":     NOT,
	"BETWEEN": BETWEEN,
	"IN":      IN,
	"LIKE":    LIKE,
	"ORDER":   ORDER,
	"BY":      BY,
	"ASC":     ASC,
	"DESC":    DESC,
	"SKIP":    SKIP,
	"LIMIT":   LIMIT,
	"GET":     GET,
	"PUT":     PUT,
	"DEL":     DEL,
	"TRUE":    BOOLEAN,
	"FALSE":   BOOLEAN,
}

// LookupIdent checks if the ident is a keyword, ignoring case
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}

	return IDENT
}

// IsKeyword reports whether the token type is a reserved word
func (t TokenType) IsKeyword() bool {
	_, ok := keywords[string(t)]

	return ok
}
