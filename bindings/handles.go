package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nickyhof/SQLitePlus"
	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/ps"
	"github.com/nickyhof/SQLitePlus/sql"
)

var bindingIdentity = core.Identity{
	Name:  "SQLitePlus Bindings",
	Email: "bindings@sqliteplus.local",
}

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type QueryResponse struct {
	Columns         []string   `json:"columns"`
	Data            [][]string `json:"data"`
	Statements      int        `json:"statements"`
	RowsAffected    int64      `json:"rows_affected"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
}

var errInvalidHandle = errors.New("invalid handle")

// registry maps the integer handles given to C callers to sessions. Each
// session is guarded by its own mutex since callers may share a handle
// between threads.
type registry struct {
	mu      sync.Mutex
	entries map[int]*entry
	next    int
}

type entry struct {
	mu      sync.Mutex
	session *db.Session
}

var handles = &registry{entries: make(map[int]*entry), next: 1}

func (r *registry) open(path, archiveDir string) (int, error) {
	var archive *ps.Archive
	if archiveDir != "" {
		var err error
		if archive, err = ps.NewFileArchive(archiveDir, nil); err != nil {
			return -1, err
		}
	}

	session, err := SQLitePlus.Open(archive).Session(path, bindingIdentity)
	if err != nil {
		return -1, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	handle := r.next
	r.next++
	r.entries[handle] = &entry{session: session}
	return handle, nil
}

func (r *registry) get(handle int) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[handle]
	if !ok {
		return nil, errInvalidHandle
	}
	return e, nil
}

func (r *registry) close(handle int) error {
	r.mu.Lock()
	e, ok := r.entries[handle]
	delete(r.entries, handle)
	r.mu.Unlock()
	if !ok {
		return errInvalidHandle
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Close()
}

// execute runs query on the session behind handle. bindingsJSON, when not
// empty, is a JSON array of strings substituted for the placeholders.
func (r *registry) execute(handle int, query, bindingsJSON string) Response {
	e, err := r.get(handle)
	if err != nil {
		return errorResponse("query", err)
	}

	var bindings []string
	if bindingsJSON != "" {
		if err := json.Unmarshal([]byte(bindingsJSON), &bindings); err != nil {
			return errorResponse("query", fmt.Errorf("invalid bindings: %w", err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(bindings) == 0 {
		err = e.session.ExecuteString(query)
	} else {
		err = e.session.Execute(sql.NewTemplate(query, bindings...))
	}
	if err != nil {
		return errorResponse("query", err)
	}

	result := e.session.Result()
	data := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = row
	}
	return marshalResponse("query", QueryResponse{
		Columns:         result.Columns,
		Data:            data,
		Statements:      result.Statements,
		RowsAffected:    result.RowsAffected,
		ExecutionTimeMs: result.ExecutionTimeSec * 1000,
	})
}

func (r *registry) commit(handle int) Response {
	return r.transact(handle, "commit", (*db.Session).Commit)
}

func (r *registry) rollback(handle int) Response {
	return r.transact(handle, "rollback", (*db.Session).Rollback)
}

func (r *registry) transact(handle int, typ string, fn func(*db.Session) error) Response {
	e, err := r.get(handle)
	if err != nil {
		return errorResponse(typ, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.session); err != nil {
		return errorResponse(typ, err)
	}
	return Response{Success: true, Type: typ}
}

func marshalResponse(typ string, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(typ, err)
	}
	return Response{Success: true, Type: typ, Result: data}
}

func errorResponse(typ string, err error) Response {
	resp := Response{Success: false, Type: typ, Error: db.Describe(err)}
	var e *db.Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.Name()
	}
	return resp
}

func encode(resp Response) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return `{"success":false,"error":"failed to encode response"}`
	}
	return string(data)
}
