package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"sync"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
	"github.com/Paranoid-AF/jsonadapter/suggest"
)

// Predictor answers shell client requests. *suggest.Engine implements it.
type Predictor interface {
	Predict(ctx context.Context, input string, cursor, maxCandidates int) []jsonadapter.Candidate
	Feedback(ctx context.Context, input string) *jsonadapter.Feedback
	HandleEvent(ev *jsonadapter.EventRequest) error
	LoadDefinitions(src string) (int, error)
	Stats() jsonadapter.Stats
	WarmHistory()
	Close()
}

// sessionEntry tracks a cancellable in-flight request for a session.
type sessionEntry struct {
	requestID int
	cancel    context.CancelFunc
}

// envelope holds the fields used to route a request line.
type envelope struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// Server listens on a Unix domain socket for shell client requests.
type Server struct {
	listener net.Listener
	sockPath string

	// build creates the engine used after a config reload.
	build func(cfg *jsonadapter.Config) Predictor

	mu       sync.Mutex
	engine   Predictor
	sessions map[string]sessionEntry
	watcher  *fileWatcher
}

func newEngine(cfg *jsonadapter.Config) Predictor {
	return suggest.NewEngine(cfg)
}

// NewServer creates a new IPC server bound to the given socket path, with an
// engine built from cfg.
func NewServer(sockPath string, cfg *jsonadapter.Config) (*Server, error) {
	srv, err := NewServerWithPredictor(sockPath, newEngine(cfg))
	if err != nil {
		return nil, err
	}
	srv.build = newEngine
	return srv, nil
}

// NewServerWithPredictor creates a new IPC server with a custom Predictor.
// Config reloads keep the same predictor.
func NewServerWithPredictor(sockPath string, p Predictor) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		engine:   p,
		sessions: make(map[string]sessionEntry),
	}, nil
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, the engine, and removes the socket file.
func (s *Server) Close() {
	s.listener.Close()
	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	s.mu.Unlock()
	s.currentEngine().Close()
	os.Remove(s.sockPath)
}

func (s *Server) currentEngine() Predictor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !scanner.Scan() {
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "data", string(raw))

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		rejectRequest(conn, err)
		return
	}

	// Config requests carry an "action" field
	if env.Action != "" {
		var req jsonadapter.ConfigRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			slog.Warn("invalid config request", "error", err)
			writeJSON(conn, jsonadapter.ConfigResponse{Error: invalidRequest(err)})
			return
		}
		s.handleConfigRequest(conn, &req)
		return
	}

	switch env.Type {
	case jsonadapter.TypeEvent:
		var req jsonadapter.EventRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			rejectAck(conn, err)
			return
		}
		s.handleEventRequest(conn, &req)
	case jsonadapter.TypeDefinitions:
		var req jsonadapter.DefinitionsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			rejectAck(conn, err)
			return
		}
		s.handleDefinitionsRequest(conn, &req)
	case jsonadapter.TypeStats:
		writeJSON(conn, jsonadapter.StatsResponse{Stats: s.currentEngine().Stats()})
	case "", jsonadapter.TypePredict, jsonadapter.TypeFeedback:
		var req jsonadapter.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			rejectRequest(conn, err)
			return
		}
		s.handleRequest(conn, &req)
	default:
		writeJSON(conn, jsonadapter.Response{
			Candidates: []jsonadapter.Candidate{},
			Error:      &jsonadapter.Error{Code: "unsupported", Message: "unsupported request type: " + env.Type},
		})
	}
}

func invalidRequest(err error) *jsonadapter.Error {
	return &jsonadapter.Error{Code: "invalid_request", Message: err.Error()}
}

func rejectRequest(conn net.Conn, err error) {
	slog.Warn("invalid request", "error", err)
	writeJSON(conn, jsonadapter.Response{Candidates: []jsonadapter.Candidate{}, Error: invalidRequest(err)})
}

func rejectAck(conn net.Conn, err error) {
	slog.Warn("invalid request", "error", err)
	writeJSON(conn, jsonadapter.AckResponse{Error: invalidRequest(err)})
}

func (s *Server) handleRequest(conn net.Conn, req *jsonadapter.Request) {
	// Cancel any in-flight request for this session and create a new context.
	ctx, cancel := context.WithCancel(context.Background())
	sid := req.SessionID
	reqID := req.RequestID
	if sid != "" {
		s.mu.Lock()
		if prev, ok := s.sessions[sid]; ok {
			prev.cancel()
		}
		s.sessions[sid] = sessionEntry{requestID: reqID, cancel: cancel}
		s.mu.Unlock()
	}
	defer func() {
		cancel()
		if sid != "" {
			s.mu.Lock()
			if cur, ok := s.sessions[sid]; ok && cur.requestID == reqID {
				delete(s.sessions, sid)
			}
			s.mu.Unlock()
		}
	}()

	engine := s.currentEngine()
	resp := jsonadapter.Response{RequestID: req.RequestID, Candidates: []jsonadapter.Candidate{}}
	if req.Type == jsonadapter.TypeFeedback {
		resp.Feedback = engine.Feedback(ctx, req.Input)
	} else {
		resp.Candidates = engine.Predict(ctx, req.Input, req.CursorPos, req.MaxCandidates)
	}

	// If cancelled, skip writing; the client has already moved on.
	if ctx.Err() != nil {
		return
	}
	if resp.Candidates == nil {
		resp.Candidates = []jsonadapter.Candidate{}
	}
	writeJSON(conn, resp)
}

func (s *Server) handleEventRequest(conn net.Conn, req *jsonadapter.EventRequest) {
	resp := jsonadapter.AckResponse{OK: true}
	if err := s.currentEngine().HandleEvent(req); err != nil {
		resp.OK = false
		resp.Error = &jsonadapter.Error{Code: "invalid_request", Message: err.Error()}
	}
	writeJSON(conn, resp)
}

func (s *Server) handleDefinitionsRequest(conn net.Conn, req *jsonadapter.DefinitionsRequest) {
	resp := jsonadapter.AckResponse{OK: true}
	n, err := s.currentEngine().LoadDefinitions(req.Source)
	if err != nil {
		slog.Warn("failed to load pushed definitions", "error", err)
		resp.OK = false
		resp.Error = &jsonadapter.Error{Code: "parse_error", Message: err.Error()}
	}
	resp.Defined = n
	writeJSON(conn, resp)
}

func (s *Server) handleConfigRequest(conn net.Conn, req *jsonadapter.ConfigRequest) {
	var resp jsonadapter.ConfigResponse

	switch req.Action {
	case "get":
		cfg, err := jsonadapter.LoadConfig()
		if err != nil {
			resp.Error = &jsonadapter.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Config = cfg
		}

	case "reload":
		cfg, err := jsonadapter.LoadConfig()
		if err != nil {
			resp.Error = &jsonadapter.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
			break
		}
		s.reloadEngine(cfg)
		resp.Config = cfg

	case "defaults":
		resp.Config = jsonadapter.DefaultConfig()

	case "validate":
		cfg, err := jsonadapter.LoadConfig()
		if err != nil {
			resp.Error = &jsonadapter.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Warnings = jsonadapter.ValidateConfig(cfg)
		}

	default:
		resp.Error = &jsonadapter.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + req.Action,
		}
	}

	writeJSON(conn, resp)
}

// reloadEngine swaps in an engine built from cfg. The old engine finishes
// its background discovery before it is dropped.
func (s *Server) reloadEngine(cfg *jsonadapter.Config) {
	if s.build == nil {
		return
	}
	next := s.build(cfg)
	next.WarmHistory()

	s.mu.Lock()
	prev := s.engine
	s.engine = next
	s.mu.Unlock()

	go prev.Close()
	slog.Info("engine reloaded")
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "data", string(data))

	conn.Write(append(data, '\n'))
}
