package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/duskroll/internal/services/table/storage/sqlite"
)

func TestNewServerRequiresHTTPAddr(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Fatal("expected error for empty HTTP address")
	}
}

func TestListenAndServeNilServer(t *testing.T) {
	var s *Server
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
}

func TestNewHandlerUpEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/up", nil)

	NewHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if strings.TrimSpace(rr.Body.String()) != "OK" {
		t.Fatalf("body = %q, want OK", rr.Body.String())
	}
}

func TestNewHandlerWSEndpointRejectsPost(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ws", nil)

	NewHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestServerExposesCoordinator(t *testing.T) {
	server, err := NewServer(Config{HTTPAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if server.Coordinator() == nil {
		t.Fatal("expected coordinator")
	}
	var nilServer *Server
	if nilServer.Coordinator() != nil {
		t.Fatal("nil server should have no coordinator")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := NewServer(Config{HTTPAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(ctx)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}

func TestHandledFramesAreAudited(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open audit store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	service := newTableService(store)
	srv := httptest.NewServer(service.handler())
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	login(t, conn, "Alice")
	writeFrame(t, conn, map[string]any{"type": "join_room", "payload": map[string]any{"roomId": "room_missing", "heroName": "Ash"}})
	readUntil(t, conn, "error")
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		events, err := store.ListAuditEvents(context.Background(), 0, 10)
		if err != nil {
			t.Fatalf("list audit events: %v", err)
		}
		if len(events) == 3 {
			if events[0].EventName != "login" || events[0].Outcome != "ok" || events[0].DisplayName != "Alice" {
				t.Fatalf("login audit = %+v", events[0])
			}
			if events[1].EventName != "join_room" || events[1].Outcome != "ROOM_NOT_FOUND" {
				t.Fatalf("join audit = %+v", events[1])
			}
			if events[2].EventName != "disconnect" || events[2].ConnectionID != events[0].ConnectionID {
				t.Fatalf("disconnect audit = %+v", events[2])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit events = %+v, want 3", events)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
