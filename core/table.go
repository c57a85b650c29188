package core

// Column describes one column as reported by the engine's table_info pragma.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notNull"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primaryKey"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}
