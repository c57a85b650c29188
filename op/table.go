package op

import (
	"errors"
	"iter"
	"strconv"
	"strings"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/sql"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrNoPrimaryKey  = errors.New("no primary key found")
)

type TableOp struct {
	Table   core.Table
	Session *db.Session
}

// GetTable describes the named table through the engine's table_info
// pragma.
func GetTable(name string, session *db.Session) (*TableOp, error) {
	query := sql.NewTemplate(`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, name)
	query.Quoting = sql.QuoteEscaped
	if err := session.Execute(query); err != nil {
		return nil, err
	}

	rows := session.Results()
	if len(rows) == 0 {
		return nil, ErrTableNotFound
	}

	table := core.Table{Name: name, Columns: make([]core.Column, len(rows))}
	for i, row := range rows {
		column := core.Column{
			Name:       row[0],
			Type:       row[1],
			NotNull:    row[2] == "1",
			PrimaryKey: row[4] != "0",
		}
		if row[3] != core.NullText {
			column.Default = row[3]
		}
		table.Columns[i] = column
	}

	return &TableOp{Table: table, Session: session}, nil
}

// Describe returns the column layout of the named table.
func Describe(session *db.Session, name string) (core.Table, error) {
	op, err := GetTable(name, session)
	if err != nil {
		return core.Table{}, err
	}
	return op.Table, nil
}

// Tables lists the user tables of the session's database.
func Tables(session *db.Session) ([]string, error) {
	return GetDatabase(session).TableNames()
}

func (op *TableOp) PrimaryKey() (pk *string, err error) {
	for _, col := range op.Table.Columns {
		if col.PrimaryKey {
			return &col.Name, nil
		}
	}
	return nil, ErrNoPrimaryKey
}

func (op *TableOp) ColumnNames() []string {
	names := make([]string, len(op.Table.Columns))
	for i, col := range op.Table.Columns {
		names[i] = col.Name
	}
	return names
}

func (op *TableOp) Count() (int, error) {
	if err := op.Session.ExecuteString("SELECT count(*) FROM " + QuoteIdent(op.Table.Name)); err != nil {
		return 0, err
	}
	return strconv.Atoi(op.Session.Results()[0][0])
}

// Scan yields every row of the table. The rows are read up front into the
// session's row buffer.
func (op *TableOp) Scan() (iter.Seq[core.Row], error) {
	return op.ScanWithFilter(nil)
}

func (op *TableOp) ScanWithFilter(filter func(row core.Row) bool) (iter.Seq[core.Row], error) {
	if err := op.Session.ExecuteString("SELECT * FROM " + QuoteIdent(op.Table.Name)); err != nil {
		return nil, err
	}

	rows := op.Session.Results()
	return func(yield func(core.Row) bool) {
		for _, row := range rows {
			if filter != nil && !filter(row) {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}, nil
}

// CopyFrom inserts every row of source into this table inside the
// session's current transaction.
func (op *TableOp) CopyFrom(source *TableOp) error {
	return op.Session.ExecuteString("INSERT INTO " + QuoteIdent(op.Table.Name) +
		" SELECT * FROM " + QuoteIdent(source.Table.Name))
}

// QuoteIdent quotes name as a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
