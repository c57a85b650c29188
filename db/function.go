package db

import (
	"fmt"

	"zombiezen.com/go/sqlite"
)

// ScalarFunc implements a SQL scalar function. It receives the engine's
// native call context and argument values and returns the result value.
type ScalarFunc func(ctx sqlite.Context, args []sqlite.Value) (sqlite.Value, error)

// RegisterFunction makes impl callable from SQL as name. nArgs is the number
// of arguments the function takes, or -1 for any number.
func (s *Session) RegisterFunction(name string, nArgs int, impl ScalarFunc) error {
	if err := s.ready(); err != nil {
		return err
	}
	if impl == nil {
		return s.fail(newError(KindFunction, fmt.Errorf("no implementation for %q", name)))
	}

	err := s.conn.CreateFunction(name, &sqlite.FunctionImpl{
		NArgs:         nArgs,
		Scalar:        impl,
		AllowIndirect: true,
	})
	if err != nil {
		return s.fail(newError(KindFunction, err))
	}

	s.log.WithField("function", name).Debug("function registered")
	return nil
}
