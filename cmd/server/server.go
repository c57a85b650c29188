package main

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/nickyhof/SQLitePlus"
	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/op"
	"github.com/nickyhof/SQLitePlus/sql"
	"github.com/sirupsen/logrus"
)

// Server is a TCP SQL server sharing one database session between all
// connections. Requests are serialized; a commit from any connection
// commits the changes of every connection.
type Server struct {
	listener   net.Listener
	instance   *SQLitePlus.Instance
	identity   core.Identity
	authConfig *AuthConfig
	log        *logrus.Entry
	tlsEnabled bool

	mu        sync.Mutex
	session   *db.Session
	committer core.Identity // author of the commit in progress, guarded by mu

	connMu sync.Mutex
	conns  map[net.Conn]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer opens the database at path with authentication disabled;
// every request runs as identity.
func NewServer(instance *SQLitePlus.Instance, path string, identity core.Identity) (*Server, error) {
	return newServer(instance, path, identity, nil)
}

// NewServerWithAuth opens the database at path and requires every
// connection to authenticate; commits are authored by the token identity.
func NewServerWithAuth(instance *SQLitePlus.Instance, path string, authConfig *AuthConfig) (*Server, error) {
	identity := core.Identity{Name: "SQLitePlus Server", Email: "server@sqliteplus.local"}
	return newServer(instance, path, identity, authConfig)
}

func newServer(instance *SQLitePlus.Instance, path string, identity core.Identity, authConfig *AuthConfig) (*Server, error) {
	s := &Server{
		instance:   instance,
		identity:   identity,
		authConfig: authConfig,
		log:        logrus.WithField("component", "server"),
		conns:      make(map[net.Conn]struct{}),
		done:       make(chan struct{}),
	}

	opts := []db.Option{db.WithLogger(s.log.WithField("path", path))}
	if instance.Archive != nil {
		opts = append(opts, db.WithCommitHook(func(path string) error {
			return instance.SnapshotHook(s.committer)(path)
		}))
	}

	session, err := db.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	s.session = session
	return s, nil
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.serve(listener)
	return nil
}

// StartTLS begins listening for TLS connections on the specified address.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.tlsEnabled = true
	s.serve(listener)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	s.listener = listener
	s.log.WithField("addr", listener.Addr().String()).Info("listening")
	s.wg.Add(1)
	go s.acceptLoop()
}

// Stop closes the listener and every client connection, waits for the
// handlers to finish and closes the session. Uncommitted changes are lost.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Close()
}

// TLSEnabled reports whether the server was started with StartTLS.
func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.WithError(err).Warn("accept failed")
				continue
			}
		}

		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
		conn.Close()
	}()

	state := newConnectionState()
	log := s.log.WithFields(logrus.Fields{
		"conn":   state.id.String(),
		"remote": conn.RemoteAddr().String(),
	})
	log.Info("client connected")
	defer log.Info("client disconnected")

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			select {
			case <-s.done:
			default:
				if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
					log.WithError(err).Warn("read failed")
				}
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return
		}

		var response Response
		switch {
		case isAuthCommand(line):
			response = s.handleAuth(line, state)
			if response.Success {
				log.WithField("identity", state.Identity().String()).Info("authenticated")
			} else {
				log.WithField("error", response.Error).Warn("authentication failed")
			}
		case s.authRequired() && !state.IsAuthenticated():
			response = Response{Success: false, Error: "authentication required: send AUTH JWT <token>"}
		default:
			req, err := DecodeRequest([]byte(line))
			if err != nil {
				response = Response{Success: false, Error: fmt.Sprintf("invalid request: %v", err)}
				break
			}
			response = s.handleRequest(req, s.identityOf(state))
		}

		data, err := EncodeResponse(response)
		if err != nil {
			log.WithError(err).Error("failed to encode response")
			continue
		}
		if _, err := conn.Write(data); err != nil {
			log.WithError(err).Warn("write failed")
			return
		}
	}
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

func (s *Server) identityOf(state *ConnectionState) core.Identity {
	if identity := state.Identity(); identity != nil {
		return *identity
	}
	return s.identity
}

// requestAction resolves the action of a request; transaction-control
// statements sent as plain queries become commit or rollback actions.
func requestAction(req Request) string {
	if req.Action != "" {
		return strings.ToLower(req.Action)
	}
	statements := sql.Split(req.Query)
	if len(statements) == 1 {
		switch sql.TransactionVerb(statements[0]) {
		case sql.VerbCommit:
			return "commit"
		case sql.VerbRollback:
			return "rollback"
		case sql.VerbBegin:
			return "begin"
		}
	}
	return "query"
}

func (s *Server) handleRequest(req Request, identity core.Identity) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action := requestAction(req); action {
	case "query":
		return s.executeQuery(req)
	case "commit":
		return s.commit(identity)
	case "rollback":
		if err := s.session.Rollback(); err != nil {
			return errorResponse("rollback", err)
		}
		return Response{Success: true, Type: "rollback"}
	case "begin":
		return Response{Success: true, Type: "begin"}
	case "tables":
		tables, err := op.Tables(s.session)
		if err != nil {
			return errorResponse("tables", err)
		}
		return resultOf("tables", TablesResponse{Tables: tables})
	case "schema":
		statements, err := op.GetDatabase(s.session).Schema()
		if err != nil {
			return errorResponse("schema", err)
		}
		return resultOf("schema", SchemaResponse{Statements: statements})
	default:
		return Response{Success: false, Error: fmt.Sprintf("unknown action: %s", action)}
	}
}

func (s *Server) executeQuery(req Request) Response {
	// Without bindings the text runs as sent, so a literal '?' stays intact.
	var err error
	if len(req.Bindings) == 0 {
		err = s.session.ExecuteString(req.Query)
	} else {
		err = s.session.Execute(sql.NewTemplate(req.Query, req.Bindings...))
	}
	if err != nil {
		return errorResponse("query", err)
	}

	result := s.session.Result()
	data := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = row
	}
	return resultOf("query", QueryResponse{
		Columns:      result.Columns,
		Data:         data,
		Statements:   result.Statements,
		RowsAffected: result.RowsAffected,
		TimeMs:       result.ExecutionTimeSec * 1000,
	})
}

func (s *Server) commit(identity core.Identity) Response {
	s.committer = identity
	if err := s.session.Commit(); err != nil {
		return errorResponse("commit", err)
	}

	cr := CommitResponse{}
	if s.instance.Archive != nil {
		txn := s.instance.Archive.LatestTransaction()
		cr.Snapshot = txn.Id
		cr.Author = txn.Author
	}
	return resultOf("commit", cr)
}

func errorResponse(typ string, err error) Response {
	resp := Response{Success: false, Type: typ, Error: db.Describe(err)}
	var e *db.Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.Name()
	}
	return resp
}
