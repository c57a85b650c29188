package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

type stringer struct{ v string }

func (s stringer) String() string { return s.v }

func TestTemplateSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		bindings []string
		expected string
	}{
		{"three markers", "? ? ?", []string{"abc", "def", "ghi"}, "'abc' 'def' 'ghi'"},
		{"no markers", "SELECT 1", nil, "SELECT 1"},
		{"surplus bindings ignored", "SELECT * FROM node WHERE id > ?;", []string{"3267939850", "3267940116"}, "SELECT * FROM node WHERE id > '3267939850';"},
		{"empty value", "INSERT INTO t VALUES (?)", []string{""}, "INSERT INTO t VALUES ('')"},
		{"embedded quote kept verbatim", "SELECT ?", []string{"O'Brien"}, "SELECT 'O'Brien'"},
		{"marker inside literal is still a marker", "SELECT '?'", []string{"x"}, "SELECT ''x''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewTemplate(tt.text, tt.bindings...)
			got, err := q.Substitute()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTemplateUnderflow(t *testing.T) {
	q := NewTemplate("? ? ?", "abc", "def")

	_, err := q.Substitute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBindingUnderflow))

	var bindingErr *BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, 3, bindingErr.Placeholders)
	assert.Equal(t, 2, bindingErr.Bindings)
}

func TestTemplateStrictOverflow(t *testing.T) {
	q := NewTemplate("SELECT ?", "a", "b")
	_, err := q.Substitute()
	require.NoError(t, err)

	q.Strict = true
	_, err = q.Substitute()
	assert.True(t, errors.Is(err, ErrBindingOverflow))
}

func TestTemplateEscapedQuoting(t *testing.T) {
	q := NewTemplate("SELECT ?", "O'Brien")
	q.Quoting = QuoteEscaped

	got, err := q.Substitute()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 'O''Brien'", got)
}

func TestTemplateCopySemantics(t *testing.T) {
	query := &Template{}
	assert.Empty(t, query.Text)

	query.SetTemplate("? ? ?")
	query.AddBinding("abc")
	query.AddBinding("def")
	query.AddBinding(string([]byte("ghi")))

	want, err := query.Substitute()
	require.NoError(t, err)
	assert.Equal(t, "'abc' 'def' 'ghi'", want)

	// copy construction
	query2 := query.Clone()
	got, err := query2.Substitute()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// copy assignment
	query3 := *query
	got, err = query3.Substitute()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// reset then variadic re-add
	query2.ResetBindings()
	assert.Empty(t, query2.Bindings)
	query2.AddBinding("abc", "def", "ghi")
	got, err = query2.Substitute()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// clones do not share storage
	query2.Bindings[0] = "zzz"
	assert.Equal(t, "abc", query.Bindings[0])
}

func TestTemplateTypedBindings(t *testing.T) {
	q := NewTemplate("? ? ?")
	AddBindings(q, label("abc"), label("def"))
	q.AddStringers(stringer{"ghi"})

	got, err := q.Substitute()
	require.NoError(t, err)
	assert.Equal(t, "'abc' 'def' 'ghi'", got)
	assert.Equal(t, 3, q.Placeholders())
}

func TestSetTemplateKeepsBindings(t *testing.T) {
	q := NewTemplate("SELECT ?", "1")
	q.SetTemplate("SELECT ?, ?")

	_, err := q.Substitute()
	assert.True(t, errors.Is(err, ErrBindingUnderflow))

	q.AddBinding("2")
	got, err := q.Substitute()
	require.NoError(t, err)
	assert.Equal(t, "SELECT '1', '2'", got)
}
