// Package sql provides query templates with positional placeholders.
//
// A Template holds query text containing ? markers and an ordered list of
// string bindings. Substitute replaces each marker, left to right, with
// the next binding wrapped in single quotes.
//
// # Usage
//
//	q := sql.NewTemplate("SELECT * FROM users WHERE id > ?")
//	q.AddBinding("42")
//	text, err := q.Substitute()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// text == "SELECT * FROM users WHERE id > '42'"
//
// # Binding Rules
//
//   - More markers than bindings fails with ErrBindingUnderflow.
//   - Surplus bindings are ignored, unless Strict is set.
//   - Markers are not recognised as special inside string literals; every
//     ? in the text is replaced.
//
// # Quoting
//
// By default (QuoteRaw) values are written verbatim between the quotes and
// embedded single quotes are NOT escaped, so a template must never be fed
// untrusted input in that mode. Set Quoting to QuoteEscaped to double
// embedded quotes.
//
// # Scripts
//
// Split breaks a script into statements and TransactionVerb recognises
// BEGIN, COMMIT and ROLLBACK, using a lexer that keeps literals, quoted
// identifiers and comments intact.
package sql
