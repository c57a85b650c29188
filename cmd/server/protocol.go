// Package main provides a TCP SQL server for SQLitePlus.
package main

import (
	"encoding/json"
	"strings"
)

// Request is one line sent by the client. A line that is not a JSON object
// is taken as the query text.
type Request struct {
	Query    string   `json:"query"`
	Bindings []string `json:"bindings,omitempty"`
	Action   string   `json:"action,omitempty"` // "query" (default), "commit", "rollback", "tables", "schema"
}

// Response represents the server's response to a request.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Kind    string          `json:"kind,omitempty"` // session error kind, see db.ErrorKind.Name
	Type    string          `json:"type,omitempty"` // "query", "commit", "rollback", "begin", "tables", "schema" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains the row buffer of an execution.
type QueryResponse struct {
	Columns      []string   `json:"columns"`
	Data         [][]string `json:"data"`
	Statements   int        `json:"statements"`
	RowsAffected int64      `json:"rows_affected"`
	TimeMs       float64    `json:"time_ms"`
}

// CommitResponse reports a commit and, with an archive, the snapshot taken.
type CommitResponse struct {
	Snapshot string `json:"snapshot,omitempty"`
	Author   string `json:"author,omitempty"`
}

// TablesResponse lists names from the schema.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// SchemaResponse lists the CREATE statements of the schema.
type SchemaResponse struct {
	Statements []string `json:"statements"`
}

// AuthResponse is the result of a successful AUTH command.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	ExpiresIn     int    `json:"expires_in,omitempty"` // seconds
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a request line.
func DecodeRequest(data []byte) (Request, error) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "{") {
		return Request{Query: line}, nil
	}
	var req Request
	err := json.Unmarshal([]byte(line), &req)
	return req, err
}

func resultOf(typ string, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{Success: false, Type: typ, Error: err.Error()}
	}
	return Response{Success: true, Type: typ, Result: data}
}
