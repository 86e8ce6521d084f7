package admin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/duskroll/internal/hero"
	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"github.com/louisbranch/duskroll/internal/services/table/storage/sqlite"
	"github.com/louisbranch/duskroll/internal/table"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func seededCoordinator(t *testing.T) *table.Coordinator {
	t.Helper()
	var n int
	c := table.NewCoordinator(table.WithIDGenerator(func() (string, error) {
		n++
		return fmt.Sprintf("room_%d", n), nil
	}))
	if _, err := c.Login("conn_gm", "Mira"); err != nil {
		t.Fatalf("login Mira: %v", err)
	}
	if _, err := c.Login("conn_p1", "Ash"); err != nil {
		t.Fatalf("login Ash: %v", err)
	}
	if _, err := c.CreateRoom("conn_gm", "Sunfall"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := c.JoinRoom("conn_p1", "room_1", hero.Params{Name: "Kestrel", ArchetypeID: 2}); err != nil {
		t.Fatalf("join room: %v", err)
	}
	return c
}

func startServer(t *testing.T, directory Directory) *Client {
	t.Helper()
	return startServerWithConfig(t, Config{Addr: "127.0.0.1:0"}, directory)
}

func startServerWithConfig(t *testing.T, cfg Config, directory Directory) *Client {
	t.Helper()
	srv, err := NewServer(cfg, directory)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Errorf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Error("timeout waiting for server shutdown")
		}
	})

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial admin server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Errorf("close gRPC connection: %v", closeErr)
		}
	})

	healthClient := grpc_health_v1.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthClient.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", resp.GetStatus())
	}
	return NewClient(conn)
}

func TestNewServerRequiresDirectory(t *testing.T) {
	if _, err := NewServer(Config{Addr: "127.0.0.1:0"}, nil); err == nil {
		t.Fatal("expected error for nil directory")
	}
}

func TestNewServerRejectsBadAddr(t *testing.T) {
	if _, err := NewServer(Config{Addr: "bad::addr::"}, table.NewCoordinator()); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestNilServer(t *testing.T) {
	var srv *Server
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
	if got := srv.Addr(); got != "" {
		t.Fatalf("addr = %q, want empty", got)
	}
	srv.Close()
}

func TestListRoomsOverGRPC(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	resp, err := client.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	rooms := resp.GetFields()["rooms"].GetListValue().GetValues()
	if len(rooms) != 1 {
		t.Fatalf("rooms = %d, want 1", len(rooms))
	}
	room := rooms[0].GetStructValue().GetFields()
	if got := room["roomId"].GetStringValue(); got != "room_1" {
		t.Fatalf("roomId = %q, want room_1", got)
	}
	if got := room["creator"].GetStringValue(); got != "Mira" {
		t.Fatalf("creator = %q, want Mira", got)
	}
	if got := room["memberCount"].GetNumberValue(); got != 2 {
		t.Fatalf("memberCount = %v, want 2", got)
	}
	members := room["members"].GetListValue().GetValues()
	if len(members) != 2 || members[0].GetStringValue() != "Mira" || members[1].GetStringValue() != "Ash" {
		t.Fatalf("members = %v, want [Mira Ash]", members)
	}
}

func TestGetRoomOverGRPC(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	resp, err := client.GetRoom(context.Background(), "room_1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got := resp.GetFields()["name"].GetStringValue(); got != "Sunfall" {
		t.Fatalf("name = %q, want Sunfall", got)
	}
}

func TestGetRoomNotFoundCarriesDetails(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "accept-language", "pt-BR")
	_, err := client.GetRoom(ctx, "room_missing")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status, got %v", err)
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", st.Code())
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.GetReason() != string(apperrors.CodeRoomNotFound) {
		t.Fatalf("error info = %v, want reason %s", info, apperrors.CodeRoomNotFound)
	}
	if got := info.GetMetadata()["RoomID"]; got != "room_missing" {
		t.Fatalf("metadata RoomID = %q, want room_missing", got)
	}
	if localized == nil {
		t.Fatal("expected localized message detail")
	}
	if localized.GetLocale() != "pt-BR" || localized.GetMessage() != "Sala não encontrada" {
		t.Fatalf("localized = %q/%q, want pt-BR/Sala não encontrada", localized.GetLocale(), localized.GetMessage())
	}
}

func TestGetRoomRequiresID(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	_, err := client.GetRoom(context.Background(), "  ")
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument", got)
	}
}

func TestListParticipantsOverGRPC(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	resp, err := client.ListParticipants(context.Background())
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	values := resp.GetFields()["participants"].GetListValue().GetValues()
	if len(values) != 2 {
		t.Fatalf("participants = %d, want 2", len(values))
	}
	first := values[0].GetStructValue().GetFields()
	if got := first["displayName"].GetStringValue(); got != "Ash" {
		t.Fatalf("first displayName = %q, want Ash", got)
	}
	heroFields := first["hero"].GetStructValue().GetFields()
	if got := heroFields["name"].GetStringValue(); got != "Kestrel" {
		t.Fatalf("hero name = %q, want Kestrel", got)
	}
	second := values[1].GetStructValue().GetFields()
	if _, ok := second["hero"]; ok {
		t.Fatal("room creator should carry no hero")
	}
}

type failingDirectory struct{}

func (failingDirectory) ListRooms() []table.RoomSummary { return nil }

func (failingDirectory) Room(string) (table.RoomSummary, error) {
	return table.RoomSummary{}, errors.New("boom")
}

func (failingDirectory) Participants() []table.Participant { return nil }

func TestServiceMapsUnknownErrorsToInternal(t *testing.T) {
	svc := NewService(failingDirectory{}, nil)
	_, err := svc.GetRoom(context.Background(), wrapperspb.String("room_1"))
	if got := status.Code(err); got != codes.Internal {
		t.Fatalf("code = %v, want Internal", got)
	}
}

func TestServiceWithoutDirectory(t *testing.T) {
	var svc *Service
	if _, err := svc.ListRooms(context.Background(), &emptypb.Empty{}); status.Code(err) != codes.Unavailable {
		t.Fatalf("list rooms code = %v, want Unavailable", status.Code(err))
	}
	if _, err := NewService(nil, nil).ListParticipants(context.Background(), &emptypb.Empty{}); status.Code(err) != codes.Unavailable {
		t.Fatalf("list participants code = %v, want Unavailable", status.Code(err))
	}
}

func TestEmptyRoomList(t *testing.T) {
	resp, err := NewService(table.NewCoordinator(), nil).ListRooms(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if got := len(resp.GetFields()["rooms"].GetListValue().GetValues()); got != 0 {
		t.Fatalf("rooms = %d, want 0", got)
	}
}

func seededAuditStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open audit store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close audit store: %v", err)
		}
	})
	now := time.Date(2026, time.March, 1, 21, 15, 0, 0, time.UTC)
	events := []storage.AuditEvent{
		{Timestamp: now, EventName: "login", ConnectionID: "conn_gm", DisplayName: "Mira", Outcome: "ok"},
		{
			Timestamp:    now.Add(time.Second),
			EventName:    "action_roll",
			ConnectionID: "conn_p1",
			DisplayName:  "Ash",
			RoomID:       "room_1",
			Outcome:      "ok",
			PayloadJSON:  []byte(`{"suns":2}`),
		},
		{Timestamp: now.Add(2 * time.Second), EventName: "join_room", ConnectionID: "conn_p2", Outcome: "ROOM_NOT_FOUND"},
	}
	for _, evt := range events {
		if err := store.AppendAuditEvent(context.Background(), evt); err != nil {
			t.Fatalf("append %s: %v", evt.EventName, err)
		}
	}
	return store
}

func TestListAuditEventsOverGRPC(t *testing.T) {
	store := seededAuditStore(t)
	client := startServerWithConfig(t, Config{Addr: "127.0.0.1:0", Audit: store}, seededCoordinator(t))

	resp, err := client.ListAuditEvents(context.Background(), 0, 2)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	events := resp.GetFields()["events"].GetListValue().GetValues()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	roll := events[1].GetStructValue().GetFields()
	if got := roll["eventName"].GetStringValue(); got != "action_roll" {
		t.Fatalf("eventName = %q, want action_roll", got)
	}
	if got := roll["roomId"].GetStringValue(); got != "room_1" {
		t.Fatalf("roomId = %q, want room_1", got)
	}
	if got := roll["payload"].GetStructValue().GetFields()["suns"].GetNumberValue(); got != 2 {
		t.Fatalf("payload suns = %v, want 2", got)
	}
	next := int64(resp.GetFields()["nextAfterId"].GetNumberValue())
	if want := int64(roll["id"].GetNumberValue()); next != want {
		t.Fatalf("nextAfterId = %d, want %d", next, want)
	}

	resp, err = client.ListAuditEvents(context.Background(), next, 10)
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	events = resp.GetFields()["events"].GetListValue().GetValues()
	if len(events) != 1 {
		t.Fatalf("next page = %d events, want 1", len(events))
	}
	if got := events[0].GetStructValue().GetFields()["outcome"].GetStringValue(); got != "ROOM_NOT_FOUND" {
		t.Fatalf("outcome = %q, want ROOM_NOT_FOUND", got)
	}
	if _, ok := events[0].GetStructValue().GetFields()["payload"]; ok {
		t.Fatal("event without payload should omit it")
	}
}

func TestListAuditEventsWithoutStore(t *testing.T) {
	client := startServer(t, seededCoordinator(t))

	_, err := client.ListAuditEvents(context.Background(), 0, 10)
	if got := status.Code(err); got != codes.Unavailable {
		t.Fatalf("code = %v, want Unavailable", got)
	}
}

type fakeAuditReader struct {
	afterID int64
	limit   int
	err     error
}

func (f *fakeAuditReader) ListAuditEvents(_ context.Context, afterID int64, limit int) ([]storage.AuditEvent, error) {
	f.afterID = afterID
	f.limit = limit
	return nil, f.err
}

func TestListAuditEventsDefaultsAndEmptyPage(t *testing.T) {
	reader := &fakeAuditReader{}
	svc := NewService(table.NewCoordinator(), reader)

	resp, err := svc.ListAuditEvents(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if reader.afterID != 0 || reader.limit != defaultAuditPageSize {
		t.Fatalf("reader called with %d/%d, want 0/%d", reader.afterID, reader.limit, defaultAuditPageSize)
	}
	if got := len(resp.GetFields()["events"].GetListValue().GetValues()); got != 0 {
		t.Fatalf("events = %d, want 0", got)
	}
	if got := resp.GetFields()["nextAfterId"].GetNumberValue(); got != 0 {
		t.Fatalf("nextAfterId = %v, want 0", got)
	}

	in, err := structpb.NewStruct(map[string]any{"afterId": 7})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err = svc.ListAuditEvents(context.Background(), in)
	if err != nil {
		t.Fatalf("list after id: %v", err)
	}
	if got := resp.GetFields()["nextAfterId"].GetNumberValue(); got != 7 {
		t.Fatalf("empty page nextAfterId = %v, want 7", got)
	}
}

func TestListAuditEventsRejectsBadArguments(t *testing.T) {
	svc := NewService(table.NewCoordinator(), &fakeAuditReader{})

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"negative after id", map[string]any{"afterId": -1}},
		{"zero limit", map[string]any{"limit": 0}},
		{"limit too large", map[string]any{"limit": maxAuditPageSize + 1}},
		{"fractional limit", map[string]any{"limit": 2.5}},
		{"string after id", map[string]any{"afterId": "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := structpb.NewStruct(tt.fields)
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			_, err = svc.ListAuditEvents(context.Background(), in)
			if got := status.Code(err); got != codes.InvalidArgument {
				t.Fatalf("code = %v, want InvalidArgument", got)
			}
		})
	}
}

func TestListAuditEventsMapsReaderErrors(t *testing.T) {
	svc := NewService(table.NewCoordinator(), &fakeAuditReader{err: errors.New("disk gone")})

	_, err := svc.ListAuditEvents(context.Background(), &structpb.Struct{})
	if got := status.Code(err); got != codes.Internal {
		t.Fatalf("code = %v, want Internal", got)
	}
}
