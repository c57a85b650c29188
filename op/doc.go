// Package op provides schema operations over a database session.
//
// Every operation runs SQL through the session it is given, so it replaces
// that session's row buffer and sees uncommitted changes made in its
// current transaction.
//
// # DatabaseOp
//
//	dbOp := op.GetDatabase(session)
//	tables, _ := dbOp.TableNames()
//	views, _ := dbOp.Views()
//	schema, _ := dbOp.Schema()
//
// # TableOp
//
//	tableOp, err := op.GetTable("users", session)
//	pk, _ := tableOp.PrimaryKey()
//	count, _ := tableOp.Count()
//
//	rows, _ := tableOp.ScanWithFilter(func(row core.Row) bool {
//	    return row[1] != core.NullText
//	})
//	for row := range rows {
//	    // process row
//	}
package op
