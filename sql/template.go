package sql

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder is the positional marker replaced during substitution.
const Placeholder = '?'

var (
	ErrBindingUnderflow = errors.New("template has more placeholders than bindings")
	ErrBindingOverflow  = errors.New("template has fewer placeholders than bindings")
)

// QuoteMode controls how a binding is written between its single quotes.
type QuoteMode int

const (
	// QuoteRaw writes the value verbatim. A value containing a single quote
	// ends the literal early, so untrusted input can inject SQL.
	QuoteRaw QuoteMode = iota
	// QuoteEscaped doubles every embedded single quote.
	QuoteEscaped
)

// BindingError reports a mismatch between placeholders and bindings.
type BindingError struct {
	Placeholders int
	Bindings     int
	err          error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%v (%d placeholders, %d bindings)", e.err, e.Placeholders, e.Bindings)
}

func (e *BindingError) Unwrap() error {
	return e.err
}

// Template is a query with positional ? markers and an ordered binding list.
//
// The zero value is an empty template with no bindings. Text and Bindings
// may be reassigned freely; use Clone to obtain an independent copy.
type Template struct {
	Text     string
	Bindings []string

	// Quoting selects how values are written. The default is QuoteRaw.
	Quoting QuoteMode

	// Strict turns surplus bindings into ErrBindingOverflow instead of
	// silently ignoring them.
	Strict bool
}

// NewTemplate creates a template with optional initial bindings.
func NewTemplate(text string, bindings ...string) *Template {
	q := &Template{Text: text}
	return q.AddBinding(bindings...)
}

// SetTemplate replaces the query text. Bindings are kept.
func (q *Template) SetTemplate(text string) *Template {
	q.Text = text
	return q
}

// AddBinding appends values to the binding list.
func (q *Template) AddBinding(values ...string) *Template {
	q.Bindings = append(q.Bindings, values...)
	return q
}

// AddStringers appends the String() form of each value.
func (q *Template) AddStringers(values ...fmt.Stringer) *Template {
	for _, v := range values {
		q.Bindings = append(q.Bindings, v.String())
	}
	return q
}

// AddBindings appends values of any string kind to q.
func AddBindings[S ~string](q *Template, values ...S) *Template {
	for _, v := range values {
		q.Bindings = append(q.Bindings, string(v))
	}
	return q
}

// ResetBindings clears the binding list.
func (q *Template) ResetBindings() *Template {
	q.Bindings = q.Bindings[:0:0]
	return q
}

// Placeholders returns the number of markers in the template text.
func (q *Template) Placeholders() int {
	return strings.Count(q.Text, string(Placeholder))
}

// Clone returns a deep copy of q.
func (q *Template) Clone() *Template {
	c := *q
	if q.Bindings != nil {
		c.Bindings = make([]string, len(q.Bindings))
		copy(c.Bindings, q.Bindings)
	}
	return &c
}

// Substitute replaces every marker, left to right, with the next binding
// wrapped in single quotes.
func (q *Template) Substitute() (string, error) {
	var b strings.Builder
	b.Grow(len(q.Text) + 8*len(q.Bindings))

	index := 0
	for i := 0; i < len(q.Text); i++ {
		c := q.Text[i]
		if c != Placeholder {
			b.WriteByte(c)
			continue
		}
		if index == len(q.Bindings) {
			return "", &BindingError{Placeholders: q.Placeholders(), Bindings: len(q.Bindings), err: ErrBindingUnderflow}
		}
		b.WriteByte('\'')
		b.WriteString(q.quote(q.Bindings[index]))
		b.WriteByte('\'')
		index++
	}

	if q.Strict && index < len(q.Bindings) {
		return "", &BindingError{Placeholders: index, Bindings: len(q.Bindings), err: ErrBindingOverflow}
	}

	return b.String(), nil
}

func (q *Template) quote(value string) string {
	if q.Quoting == QuoteEscaped {
		return strings.ReplaceAll(value, "'", "''")
	}
	return value
}

func (q *Template) String() string {
	return q.Text
}
