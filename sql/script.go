package sql

import "strings"

// Split breaks a script into statements at top-level semicolons. Comments
// are dropped; semicolons inside literals, quoted identifiers, comments and
// the BEGIN ... END body of a CREATE TRIGGER do not split. Returned
// statements are trimmed and carry no trailing ';'.
func Split(script string) []string {
	var statements []string
	var current strings.Builder
	var scope statementScope

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
		scope = statementScope{}
	}

	for _, token := range tokenize(script) {
		switch token.Type {
		case EOF:
			flush()
		case Semicolon:
			if scope.inBody() {
				current.WriteString(token.Value)
				continue
			}
			flush()
		case Comment:
			current.WriteByte(' ')
		default:
			scope.observe(token)
			current.WriteString(token.Value)
		}
	}
	return statements
}

// Complete reports whether text ends with a statement terminator outside
// of any literal, comment or trigger body.
func Complete(text string) bool {
	ended := false
	var scope statementScope
	for _, token := range tokenize(text) {
		switch token.Type {
		case Space, Comment, EOF:
		case Semicolon:
			ended = !scope.inBody()
			if ended {
				scope = statementScope{}
			}
		default:
			scope.observe(token)
			ended = false
		}
	}
	return ended
}

// statementScope follows the words of one statement far enough to know
// whether a semicolon ends it. Only a CREATE [TEMP] TRIGGER statement has
// a body; CASE ... END pairs inside the body nest.
type statementScope struct {
	head    []string
	trigger bool
	depth   int
}

func (sc *statementScope) inBody() bool {
	return sc.depth > 0
}

func (sc *statementScope) observe(token Token) {
	if token.Type != Word {
		if token.Type != Space && len(sc.head) < 3 {
			sc.head = append(sc.head, "")
		}
		return
	}
	word := toUpper(token.Value)

	if len(sc.head) < 3 {
		sc.head = append(sc.head, word)
		sc.trigger = sc.trigger || isCreateTrigger(sc.head)
	}

	switch {
	case sc.depth > 0 && word == "CASE":
		sc.depth++
	case sc.depth > 0 && word == "END":
		sc.depth--
		if sc.depth == 0 {
			sc.trigger = false
		}
	case sc.depth == 0 && sc.trigger && word == "BEGIN":
		sc.depth = 1
	}
}

func isCreateTrigger(head []string) bool {
	if len(head) < 2 || head[0] != "CREATE" {
		return false
	}
	if head[1] == "TRIGGER" {
		return true
	}
	return len(head) == 3 && (head[1] == "TEMP" || head[1] == "TEMPORARY") && head[2] == "TRIGGER"
}

// Verb classifies transaction-control statements.
type Verb int

const (
	VerbNone Verb = iota
	VerbBegin
	VerbCommit
	VerbRollback
)

func (v Verb) String() string {
	switch v {
	case VerbBegin:
		return "BEGIN"
	case VerbCommit:
		return "COMMIT"
	case VerbRollback:
		return "ROLLBACK"
	default:
		return ""
	}
}

// TransactionVerb reports whether stmt is a plain BEGIN, COMMIT/END or
// ROLLBACK statement. ROLLBACK TO a savepoint is not a transaction verb.
func TransactionVerb(stmt string) Verb {
	var words []string
	for _, token := range tokenize(stmt) {
		switch token.Type {
		case Word:
			words = append(words, toUpper(token.Value))
		case Space, Comment, Semicolon, EOF:
		default:
			return VerbNone
		}
	}
	if len(words) == 0 || len(words) > 2 {
		return VerbNone
	}

	switch words[0] {
	case "BEGIN":
		if len(words) == 1 || words[1] == "TRANSACTION" || words[1] == "DEFERRED" ||
			words[1] == "IMMEDIATE" || words[1] == "EXCLUSIVE" {
			return VerbBegin
		}
	case "COMMIT", "END":
		if len(words) == 1 || words[1] == "TRANSACTION" {
			return VerbCommit
		}
	case "ROLLBACK":
		if len(words) == 1 || words[1] == "TRANSACTION" {
			return VerbRollback
		}
	}
	return VerbNone
}
