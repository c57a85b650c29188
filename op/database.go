package op

import (
	"strings"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
)

const schemaQuery = "SELECT type, name, sql FROM sqlite_master " +
	"WHERE name NOT LIKE 'sqlite_%' AND sql IS NOT NULL ORDER BY type = 'table' DESC, name"

type DatabaseOp struct {
	Session *db.Session
}

func GetDatabase(session *db.Session) *DatabaseOp {
	return &DatabaseOp{Session: session}
}

// TableNames lists user tables in name order.
func (op *DatabaseOp) TableNames() ([]string, error) {
	err := op.Session.ExecuteString("SELECT name FROM sqlite_master " +
		"WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	return firstColumn(op.Session.Results()), nil
}

func (op *DatabaseOp) Views() ([]core.View, error) {
	err := op.Session.ExecuteString("SELECT name, sql FROM sqlite_master WHERE type = 'view' ORDER BY name")
	if err != nil {
		return nil, err
	}

	rows := op.Session.Results()
	views := make([]core.View, len(rows))
	for i, row := range rows {
		views[i] = core.View{Name: row[0], Query: row[1]}
	}
	return views, nil
}

// Schema returns the CREATE statements of every user object, tables first.
func (op *DatabaseOp) Schema() ([]string, error) {
	if err := op.Session.ExecuteString(schemaQuery); err != nil {
		return nil, err
	}

	rows := op.Session.Results()
	statements := make([]string, len(rows))
	for i, row := range rows {
		statements[i] = strings.TrimSpace(row[2]) + ";"
	}
	return statements, nil
}

func (op *DatabaseOp) GetTable(name string) (*TableOp, error) {
	return GetTable(name, op.Session)
}

func firstColumn(rows []core.Row) []string {
	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = row[0]
	}
	return values
}
