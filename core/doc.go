// Package core provides core types used throughout SQLitePlus.
//
// The package defines small shared types like Identity, Row, Table and
// Column, plus the textual NULL token used when stringifying results.
//
// # Identity
//
// Identity identifies the author of archived snapshots (Git commit author):
//
//	identity := core.Identity{
//	    Name:  "John Doe",
//	    Email: "john@example.com",
//	}
//
// # Rows
//
// Every value read back from the engine is text. NULL column values are
// rendered as the literal NullText token:
//
//	row := core.Row{"1", "Alice", core.NullText}
package core
