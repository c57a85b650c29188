package db

import (
	"strings"
	"time"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/sql"
	"github.com/sirupsen/logrus"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// CommitHook runs after a successful COMMIT, before the next implicit
// transaction begins, with the path of the committed database file.
type CommitHook func(path string) error

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the entry lifecycle events are logged to.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithCommitHook adds a hook run after every successful commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Session) {
		s.hooks = append(s.hooks, hook)
	}
}

// WithReadOnly opens the database file read-only.
func WithReadOnly() Option {
	return func(s *Session) {
		s.flags = sqlite.OpenReadOnly | sqlite.OpenURI
	}
}

// Session owns one connection to a database file and keeps an implicit
// transaction open on it at all times. Every Commit ends the transaction
// and immediately begins a new one; Close releases the connection without
// committing.
//
// A Session must not be used from more than one goroutine at a time.
type Session struct {
	conn    *sqlite.Conn
	path    string
	flags   sqlite.OpenFlags
	closed  bool
	result  Result
	lastErr *Error
	hooks   []CommitHook
	log     *logrus.Entry
}

// NewSession creates an unopened session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		flags: sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenURI,
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a session bound to the database file at path.
func Open(path string, opts ...Option) (*Session, error) {
	s := NewSession(opts...)
	if err := s.Open(path); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Open binds the session to the database file at path and begins the
// implicit transaction. A session can be bound only once.
func (s *Session) Open(path string) error {
	if s.closed {
		return s.fail(newError(KindClosed, nil))
	}
	if s.conn != nil {
		return s.fail(newError(KindAlreadyBound, nil))
	}

	conn, err := sqlite.OpenConn(path, s.flags)
	if err != nil {
		return s.fail(newError(KindOpen, err))
	}
	if err := sqlitex.ExecuteTransient(conn, "BEGIN;", nil); err != nil {
		conn.Close()
		return s.fail(newError(KindOpen, err))
	}

	s.conn = conn
	s.path = path
	s.log.WithField("path", path).Debug("database opened")
	return nil
}

// Path returns the file the session is bound to.
func (s *Session) Path() string {
	return s.path
}

// IsOpen reports whether the session holds a connection.
func (s *Session) IsOpen() bool {
	return s.conn != nil
}

// Conn returns the underlying engine connection, or nil when the session is
// not open. Statements run on it directly bypass the row buffer.
func (s *Session) Conn() *sqlite.Conn {
	return s.conn
}

// Execute substitutes the template's bindings and executes the result.
// A binding failure leaves the row buffer untouched.
func (s *Session) Execute(query *sql.Template) error {
	if err := s.ready(); err != nil {
		return err
	}

	text, err := query.Substitute()
	if err != nil {
		return s.fail(newError(KindBinding, err))
	}

	return s.run(text)
}

// ExecuteString executes query text as-is. The text may hold several
// statements; rows returned by all of them are buffered in order.
func (s *Session) ExecuteString(query string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.run(query)
}

// Commit persists every change made since the last open or commit, runs the
// commit hooks and begins a new transaction.
func (s *Session) Commit() error {
	if err := s.ready(); err != nil {
		return err
	}

	// A COMMIT or ROLLBACK run through Execute leaves nothing open to commit.
	if !s.conn.AutocommitEnabled() {
		if err := sqlitex.ExecuteTransient(s.conn, "COMMIT;", nil); err != nil {
			return s.fail(newError(KindCommit, err))
		}
	}

	var hookErr error
	for _, hook := range s.hooks {
		if err := hook(s.path); err != nil {
			hookErr = err
			break
		}
	}

	if err := s.begin(); err != nil {
		return s.fail(newError(KindCommit, err))
	}
	if hookErr != nil {
		return s.fail(newError(KindHook, hookErr))
	}

	s.log.WithField("path", s.path).Debug("transaction committed")
	return nil
}

// Rollback discards every change made since the last open or commit and
// begins a new transaction.
func (s *Session) Rollback() error {
	if err := s.ready(); err != nil {
		return err
	}

	if !s.conn.AutocommitEnabled() {
		if err := sqlitex.ExecuteTransient(s.conn, "ROLLBACK;", nil); err != nil {
			return s.fail(newError(KindRollback, err))
		}
	}
	if err := s.begin(); err != nil {
		return s.fail(newError(KindRollback, err))
	}

	s.log.WithField("path", s.path).Debug("transaction rolled back")
	return nil
}

// Close releases the connection. Uncommitted changes are discarded.
// Closing twice is a no-op, and a closed session cannot be reopened.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.log.WithField("path", s.path).Debug("database closed")
	return err
}

// LastError returns the most recent failure recorded by the session.
// It is not cleared by later successful operations.
func (s *Session) LastError() *Error {
	return s.lastErr
}

// RowCount returns the number of buffered rows.
func (s *Session) RowCount() int {
	return len(s.result.Rows)
}

// ColumnCount returns the number of columns of the buffered result.
func (s *Session) ColumnCount() int {
	return len(s.result.Columns)
}

// Results returns a copy of the buffered rows.
func (s *Session) Results() []core.Row {
	return core.CloneRows(s.result.Rows)
}

// ColumnNames returns a copy of the buffered column names, in declaration
// order.
func (s *Session) ColumnNames() []string {
	return append([]string(nil), s.result.Columns...)
}

// Result returns a copy of the most recent successful execution.
func (s *Session) Result() Result {
	r := s.result
	r.Columns = s.ColumnNames()
	r.Rows = s.Results()
	return r
}

func (s *Session) ready() error {
	if s.closed {
		return s.fail(newError(KindClosed, nil))
	}
	if s.conn == nil {
		return s.fail(newError(KindNoConnection, nil))
	}
	return nil
}

func (s *Session) fail(err *Error) error {
	s.lastErr = err
	s.log.WithFields(logrus.Fields{
		"path": s.path,
		"kind": err.Kind.String(),
	}).Debug(err.Message)
	return err
}

func (s *Session) begin() error {
	return sqlitex.ExecuteTransient(s.conn, "BEGIN;", nil)
}

// reopen begins a new transaction when the engine has none open, which
// happens after query text ends it with COMMIT, END or ROLLBACK, or when a
// failing statement makes the engine roll back on its own.
func (s *Session) reopen() error {
	if !s.conn.AutocommitEnabled() {
		return nil
	}
	s.log.WithField("path", s.path).Debug("transaction ended by statement, beginning a new one")
	return s.begin()
}

// run executes every statement in query and replaces the row buffer only
// when all of them succeed. The session is left inside a transaction
// either way.
func (s *Session) run(query string) error {
	err := s.runStatements(query)
	if berr := s.reopen(); berr != nil && err == nil {
		return s.fail(newError(KindExecution, berr))
	}
	return err
}

func (s *Session) runStatements(query string) error {
	startTime := time.Now()
	result := Result{}
	changesBefore := s.totalChanges()

	for {
		query = strings.TrimSpace(query)
		if query == "" {
			break
		}

		stmt, trailingBytes, err := s.conn.PrepareTransient(query)
		if err != nil {
			return s.fail(newError(KindExecution, err))
		}
		used := len(query) - trailingBytes
		query = query[used:]

		if stmt != nil {
			err = collect(stmt, &result)
			if ferr := stmt.Finalize(); err == nil {
				err = ferr
			}
			if err != nil {
				return s.fail(newError(KindExecution, err))
			}
			result.Statements++
			if err := s.reopen(); err != nil {
				return s.fail(newError(KindExecution, err))
			}
		}

		if used == 0 {
			break
		}
	}

	result.RowsAffected = s.totalChanges() - changesBefore
	result.ExecutionTimeSec = time.Since(startTime).Seconds()
	s.result = result
	return nil
}

// collect steps stmt to completion, appending every row to result.
func collect(stmt *sqlite.Stmt, result *Result) error {
	n := stmt.ColumnCount()
	if n > 0 {
		columns := make([]string, n)
		for i := range columns {
			columns[i] = stmt.ColumnName(i)
		}
		result.Columns = columns
	}

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return err
		}
		if !hasRow {
			break
		}

		row := make(core.Row, n)
		for i := 0; i < n; i++ {
			if stmt.ColumnType(i) == sqlite.TypeNull {
				row[i] = core.NullText
			} else {
				row[i] = stmt.ColumnText(i)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return nil
}

// totalChanges counts rows modified on the connection since it was opened.
// A failed count is logged and reads as zero.
func (s *Session) totalChanges() int64 {
	var n int64
	err := sqlitex.ExecuteTransient(s.conn, "SELECT total_changes();", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("path", s.path).Debug("total_changes failed")
		return 0
	}
	return n
}
