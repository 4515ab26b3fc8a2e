// Package server accepts client connections and dispatches their
// requests to a shared storage engine through a worker pool.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/heysubinoy/adrakdb/internal/pool"
	"github.com/heysubinoy/adrakdb/internal/protocol"
	"github.com/heysubinoy/adrakdb/pkg/kv"
)

// Server owns the accept loop. Every accepted connection becomes
// exactly one pool job, so a slow client only ever occupies its own
// connection's share of a worker. The engine is shared across all
// handlers and is responsible for its own synchronization.
type Server struct {
	engine kv.Engine
	pool   pool.Pool
	logger hclog.Logger

	mu  sync.Mutex
	lis net.Listener
}

// New creates a server dispatching to engine through p.
func New(engine kv.Engine, p pool.Pool, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{engine: engine, pool: p, logger: logger}
}

// ListenAndServe binds addr and serves until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis until Close is called, returning nil
// on a clean shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	s.logger.Info("listening", "addr", lis.Addr().String())

	for {
		conn, err := lis.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			// A bad connection attempt must not bring the server down.
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.pool.Spawn(func() { s.handleConn(conn) })
	}
}

// Addr returns the bound address, for callers that listened on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Close stops the accept loop. In-flight connections finish on their
// own workers.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Close()
}

// handleConn serves one connection: requests are processed strictly in
// the order received, each response written and flushed before the next
// read. A malformed request or an I/O failure ends this connection
// only.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	dec := json.NewDecoder(bufio.NewReader(conn))
	bw := bufio.NewWriter(conn)
	enc := json.NewEncoder(bw)

	for {
		var req protocol.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			s.logger.Warn("dropping connection on malformed request", "remote", remote, "error", err)
			_ = enc.Encode(protocol.Fail(protocol.KindBadRequest, "malformed request"))
			_ = bw.Flush()
			return
		}

		resp := s.handle(req)
		if err := enc.Encode(resp); err != nil {
			s.logger.Warn("failed to write response", "remote", remote, "error", err)
			return
		}
		if err := bw.Flush(); err != nil {
			s.logger.Warn("failed to flush response", "remote", remote, "error", err)
			return
		}
	}
}

// handle maps one request to an engine call and the engine's outcome to
// a response. Engine errors become failure responses; they never
// propagate past the connection handler.
func (s *Server) handle(req protocol.Request) protocol.Response {
	switch req.Op {
	case protocol.OpGet:
		value, found, err := s.engine.Get(req.Key)
		if err != nil {
			s.logger.Error("get failed", "key", req.Key, "error", err)
			return protocol.Fail(protocol.KindInternal, err.Error())
		}
		if !found {
			return protocol.Ok()
		}
		return protocol.FoundValue(value)

	case protocol.OpSet:
		if err := s.engine.Set(req.Key, req.Value); err != nil {
			s.logger.Error("set failed", "key", req.Key, "error", err)
			return protocol.Fail(protocol.KindInternal, err.Error())
		}
		return protocol.Ok()

	case protocol.OpRemove:
		err := s.engine.Remove(req.Key)
		switch {
		case errors.Is(err, kv.ErrKeyNotFound):
			return protocol.Fail(protocol.KindNotFound, err.Error())
		case err != nil:
			s.logger.Error("remove failed", "key", req.Key, "error", err)
			return protocol.Fail(protocol.KindInternal, err.Error())
		}
		return protocol.Ok()

	default:
		return protocol.Fail(protocol.KindBadRequest, fmt.Sprintf("unknown op %q", req.Op))
	}
}
