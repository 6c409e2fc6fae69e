package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// WebServer serves the JSON-RPC endpoint over HTTP and WebSocket.
type WebServer struct {
	addr   string
	l      logger.Logger
	rpc    *RPCServer
	server *http.Server
	ln     net.Listener
	mu     sync.Mutex

	// base parents every request context; Shutdown cancels it so that
	// hijacked WebSocket connections end too.
	base   context.Context
	cancel context.CancelFunc
}

func NewWebServer(l logger.Logger, addr string, rpc *RPCServer) *WebServer {
	base, cancel := context.WithCancel(context.Background())
	return &WebServer{addr: addr, l: logger.OrNop(l), rpc: rpc, base: base, cancel: cancel}
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(common.RPCPath, requireToken(s.rpc.secret, s.rpc.noSecret, s.rpc.bridge))
	mux.Handle(common.RPCWSPath, requireToken(s.rpc.secret, s.rpc.noSecret, http.HandlerFunc(s.rpc.serveWS)))
	return mux
}

// Listen binds the listen address. Serve must follow.
func (s *WebServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ToStdLogger(s.l),
		BaseContext:       func(net.Listener) context.Context { return s.base },
	}
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *WebServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds (if needed) and serves until Shutdown.
func (s *WebServer) Start() error {
	s.mu.Lock()
	bound := s.ln != nil
	s.mu.Unlock()
	if !bound {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	srv, ln := s.server, s.ln
	s.mu.Unlock()
	s.l.Info("listening on %s", ln.Addr())

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil // Expected during shutdown
	}
	return err
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.cancel()
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	// Serve may never have run; the listener is ours to close then.
	_ = s.ln.Close()
	return err
}
