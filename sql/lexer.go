package sql

// Token is one lexical unit of a SQL script. The lexer knows only enough SQL
// to find statement boundaries: literals, quoted identifiers and comments
// are kept whole so that a ';' or '?' inside them is not mistaken for
// syntax.
type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Word TokenType = iota
	String
	QuotedIdentifier
	Comment
	Semicolon
	Marker
	Space
	Symbol
	EOF
)

func (token Token) String() string {
	switch token.Type {
	case Word:
		return "Word(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case QuotedIdentifier:
		return "QuotedIdentifier(" + token.Value + ")"
	case Comment:
		return "Comment"
	case Semicolon:
		return "Semicolon"
	case Marker:
		return "Marker"
	case Space:
		return "Space"
	case Symbol:
		return "Symbol(" + token.Value + ")"
	case EOF:
		return "EOF"
	default:
		return "Unknown(" + token.Value + ")"
	}
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

// NextToken returns the next token. Token values are the exact source text,
// so concatenating every value reproduces the input.
func (lexer *Lexer) NextToken() Token {
	start := lexer.position
	if start >= len(lexer.sql) {
		return Token{Type: EOF}
	}

	var tokenType TokenType
	switch ch := lexer.ch; {
	case ch == '\'':
		lexer.readQuoted('\'')
		tokenType = String
	case ch == '"' || ch == '`':
		lexer.readQuoted(ch)
		tokenType = QuotedIdentifier
	case ch == '[':
		lexer.readUntil(']')
		tokenType = QuotedIdentifier
	case ch == '-' && lexer.peekChar() == '-':
		for lexer.ch != '\n' && lexer.ch != 0 {
			lexer.readChar()
		}
		tokenType = Comment
	case ch == '/' && lexer.peekChar() == '*':
		lexer.readChar()
		lexer.readChar()
		for lexer.ch != 0 && !(lexer.ch == '*' && lexer.peekChar() == '/') {
			lexer.readChar()
		}
		if lexer.ch != 0 {
			lexer.readChar()
			lexer.readChar()
		}
		tokenType = Comment
	case ch == ';':
		lexer.readChar()
		tokenType = Semicolon
	case ch == byte(Placeholder):
		lexer.readChar()
		tokenType = Marker
	case isSpace(ch):
		for isSpace(lexer.ch) {
			lexer.readChar()
		}
		tokenType = Space
	case isWordChar(ch):
		for isWordChar(lexer.ch) {
			lexer.readChar()
		}
		tokenType = Word
	default:
		lexer.readChar()
		tokenType = Symbol
	}

	return Token{Type: tokenType, Value: lexer.sql[start:lexer.position]}
}

// readQuoted consumes a quoted run; a doubled quote character is an
// escaped quote, not the end. An unterminated run extends to the end.
func (lexer *Lexer) readQuoted(quote byte) {
	lexer.readChar()
	for lexer.ch != 0 {
		if lexer.ch == quote {
			if lexer.peekChar() != quote {
				lexer.readChar()
				return
			}
			lexer.readChar()
		}
		lexer.readChar()
	}
}

func (lexer *Lexer) readUntil(end byte) {
	for lexer.ch != end && lexer.ch != 0 {
		lexer.readChar()
	}
	if lexer.ch != 0 {
		lexer.readChar()
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isWordChar(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch == '$' ||
		('0' <= ch && ch <= '9') || ch >= 0x80
}

// toUpper converts a string to uppercase without allocating for ASCII strings
func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token
	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
