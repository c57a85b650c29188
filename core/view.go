package core

// View is a SQL view stored in the schema table.
type View struct {
	Name  string `json:"name"`
	Query string `json:"query"` // The CREATE VIEW statement as stored by the engine
}
