package db

import (
	"fmt"
	"io"

	"zombiezen.com/go/sqlite"
)

// ErrorKind classifies session failures.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindOpen
	KindAlreadyBound
	KindBinding
	KindNoConnection
	KindClosed
	KindCommit
	KindRollback
	KindHook
	KindFunction
	KindBackup
	KindExecution
)

var kindText = map[ErrorKind]string{
	KindNone:         "",
	KindOpen:         "sqlite database open failure",
	KindAlreadyBound: "sqlite database already opened, create a new session for a new database",
	KindBinding:      "query binding failed",
	KindNoConnection: "no database connected",
	KindClosed:       "session is closed",
	KindCommit:       "commit failed",
	KindRollback:     "rollback failed",
	KindHook:         "post-commit hook failed",
	KindFunction:     "function registration failed",
	KindBackup:       "backup failed",
	KindExecution:    "execution failed",
}

func (kind ErrorKind) String() string {
	if text, ok := kindText[kind]; ok {
		return text
	}
	return fmt.Sprintf("unknown error kind %d", int(kind))
}

var kindName = map[ErrorKind]string{
	KindOpen:         "open",
	KindAlreadyBound: "already_bound",
	KindBinding:      "binding",
	KindNoConnection: "no_connection",
	KindClosed:       "closed",
	KindCommit:       "commit",
	KindRollback:     "rollback",
	KindHook:         "hook",
	KindFunction:     "function",
	KindBackup:       "backup",
	KindExecution:    "execution",
}

// Name is the short identifier of the kind used on the wire.
func (kind ErrorKind) Name() string {
	return kindName[kind]
}

// Error is returned by every Session operation that fails.
//
// Message carries the engine's diagnostic text when there is one, and Code
// the engine result code (sqlite.ResultOK when the failure did not come
// from the engine).
type Error struct {
	Kind    ErrorKind
	Message string
	Code    sqlite.ResultCode
	Err     error
}

// Sentinels for errors.Is; they match on Kind only.
var (
	ErrOpen         = &Error{Kind: KindOpen}
	ErrAlreadyBound = &Error{Kind: KindAlreadyBound}
	ErrBinding      = &Error{Kind: KindBinding}
	ErrNoConnection = &Error{Kind: KindNoConnection}
	ErrClosed       = &Error{Kind: KindClosed}
	ErrCommit       = &Error{Kind: KindCommit}
	ErrRollback     = &Error{Kind: KindRollback}
	ErrHook         = &Error{Kind: KindHook}
	ErrFunction     = &Error{Kind: KindFunction}
	ErrBackup       = &Error{Kind: KindBackup}
	ErrExecution    = &Error{Kind: KindExecution}
)

func newError(kind ErrorKind, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	if err == nil {
		return e
	}
	e.Message = err.Error()
	switch kind {
	case KindOpen, KindExecution, KindCommit, KindRollback, KindFunction:
		e.Code = sqlite.ErrCode(err)
	}
	return e
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsConstraint reports whether the engine rejected a statement because of a
// constraint violation (duplicate primary key, NOT NULL, CHECK ...).
func (e *Error) IsConstraint() bool {
	return e != nil && e.Code.ToPrimary() == sqlite.ResultConstraint
}

// Describe renders an error the way the session's fixed error table does.
// Engine errors are described by the engine's own text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	if e.Kind == KindExecution || e.Kind == KindCommit || e.Kind == KindFunction {
		if e.Message != "" {
			return e.Message
		}
	}
	return e.Error()
}

// Perror writes the description of the session's last error to w.
// Nothing is written when the last operation succeeded.
func (s *Session) Perror(w io.Writer) {
	if s.lastErr == nil {
		return
	}
	fmt.Fprintln(w, Describe(s.lastErr))
}
