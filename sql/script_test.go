package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexerRoundTrip(t *testing.T) {
	script := "SELECT 'a;b', \"x\"\"y\" FROM [t] -- c;\n/* d; */ WHERE id = ?;"

	var b strings.Builder
	for _, token := range tokenize(script) {
		b.WriteString(token.Value)
	}
	assert.Equal(t, script, b.String())
}

func TestLexerTokens(t *testing.T) {
	var types []TokenType
	for _, token := range tokenize("x='it''s';?") {
		types = append(types, token.Type)
	}
	assert.Equal(t, []TokenType{Word, Symbol, String, Semicolon, Marker, EOF}, types)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"single", "SELECT 1;", []string{"SELECT 1"}},
		{"no terminator", "SELECT 1", []string{"SELECT 1"}},
		{"several", "CREATE TABLE t (x);\nINSERT INTO t VALUES (1);", []string{"CREATE TABLE t (x)", "INSERT INTO t VALUES (1)"}},
		{"semicolon in string", "INSERT INTO t VALUES ('a;b');", []string{"INSERT INTO t VALUES ('a;b')"}},
		{"escaped quote", "SELECT 'it''s; fine';", []string{"SELECT 'it''s; fine'"}},
		{"line comment", "-- setup;\nSELECT 1;", []string{"SELECT 1"}},
		{"block comment", "SELECT /* ; */ 1;", []string{"SELECT   1"}},
		{"empty statements", ";;  ;", nil},
		{"transaction verbs", "BEGIN; COMMIT;", []string{"BEGIN", "COMMIT"}},
		{
			"trigger body",
			"CREATE TRIGGER log_t AFTER INSERT ON t BEGIN INSERT INTO log VALUES (new.x); UPDATE c SET n = n + 1; END; SELECT 1;",
			[]string{
				"CREATE TRIGGER log_t AFTER INSERT ON t BEGIN INSERT INTO log VALUES (new.x); UPDATE c SET n = n + 1; END",
				"SELECT 1",
			},
		},
		{
			"temp trigger with case",
			"create temp trigger chk before update on t begin select case when new.x < 0 then raise(abort, 'neg') end; end;\nselect 2",
			[]string{
				"create temp trigger chk before update on t begin select case when new.x < 0 then raise(abort, 'neg') end; end",
				"select 2",
			},
		},
		{"trigger named in a string", "SELECT 'CREATE TRIGGER x BEGIN'; SELECT 3;", []string{"SELECT 'CREATE TRIGGER x BEGIN'", "SELECT 3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.script))
		})
	}
}

func TestComplete(t *testing.T) {
	assert.True(t, Complete("SELECT 1;"))
	assert.True(t, Complete("SELECT 1; -- done"))
	assert.False(t, Complete("SELECT 1"))
	assert.False(t, Complete("SELECT 'a;"))
	assert.False(t, Complete("SELECT 1 /* ; */"))

	body := "CREATE TRIGGER tr AFTER INSERT ON t BEGIN\n  INSERT INTO log VALUES (new.x);"
	assert.False(t, Complete(body))
	assert.False(t, Complete(body+"\nEND"))
	assert.True(t, Complete(body+"\nEND;"))
	assert.True(t, Complete(body+"\nEND; SELECT 1;"))
}

func TestTransactionVerb(t *testing.T) {
	tests := []struct {
		stmt string
		want Verb
	}{
		{"COMMIT", VerbCommit},
		{"commit;", VerbCommit},
		{"END TRANSACTION", VerbCommit},
		{"rollback", VerbRollback},
		{"ROLLBACK TRANSACTION;", VerbRollback},
		{"ROLLBACK TO sp1", VerbNone},
		{"BEGIN", VerbBegin},
		{"begin immediate", VerbBegin},
		{"SELECT 1", VerbNone},
		{"SELECT 'COMMIT'", VerbNone},
		{"", VerbNone},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.want, TransactionVerb(tt.stmt))
		})
	}
}
