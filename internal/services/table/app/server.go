// Package server hosts the table's HTTP/WebSocket surface.
//
// Each WebSocket connection is a goroutine that decodes JSON frames, runs one
// table.Coordinator operation per frame and relies on the coordinator's
// notices for every reply except the room list.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/duskroll/internal/platform/timeouts"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"github.com/louisbranch/duskroll/internal/table"
	"github.com/louisbranch/duskroll/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3

	// maxWireFrameBytes bounds a raw WebSocket frame before JSON decoding.
	maxWireFrameBytes = 4 * maxFramePayloadBytes

	tracerName = "github.com/louisbranch/duskroll/internal/services/table/app"
)

// Config defines the inputs for the table transport boundary.
type Config struct {
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// AuditStore receives one record per handled frame. Nil disables auditing.
	AuditStore storage.AuditEventStore
	// TableOptions configure the coordinator. The notifier is always the
	// server's peer hub.
	TableOptions []table.Option
}

// Server hosts the table HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	service         *tableService
}

// tableService binds one coordinator to the connections that observe it.
type tableService struct {
	hub         *peerHub
	coordinator *table.Coordinator
	audit       *telemetry.Emitter
	tracer      trace.Tracer
	routes      map[string]eventHandler
}

func newTableService(auditStore storage.AuditEventStore, opts ...table.Option) *tableService {
	hub := newPeerHub()
	opts = append(append([]table.Option(nil), opts...), table.WithNotifier(hub))
	service := &tableService{
		hub:         hub,
		coordinator: table.NewCoordinator(opts...),
		audit:       telemetry.NewEmitter(auditStore),
		tracer:      otel.Tracer(tracerName),
	}
	service.routes = service.eventRoutes()
	return service
}

// NewHandler creates table routes over a fresh coordinator for tests and
// offline paths. Auditing is disabled.
func NewHandler(opts ...table.Option) http.Handler {
	return newTableService(nil, opts...).handler()
}

func (s *tableService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		s.handleWSConn(conn)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// NewServer builds a configured table server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	service := newTableService(config.AuditStore, config.TableOptions...)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           service.handler(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		service:         service,
	}, nil
}

// Coordinator exposes the live table for read-only surfaces such as admin.
func (s *Server) Coordinator() *table.Coordinator {
	if s == nil || s.service == nil {
		return nil
	}
	return s.service.coordinator
}

// Run creates and serves a table server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init table server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve table: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("table server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("table server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close drops every open WebSocket connection. Hijacked connections are not
// tracked by http.Server, so Shutdown alone leaves them running.
func (s *Server) Close() {
	if s == nil || s.service == nil {
		return
	}
	s.service.hub.closeAll()
}
