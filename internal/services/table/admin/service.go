package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
	"github.com/louisbranch/duskroll/internal/platform/errors/i18n"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"github.com/louisbranch/duskroll/internal/table"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "duskroll.admin.v1.TableAdmin"

const (
	listRoomsMethod        = "/" + ServiceName + "/ListRooms"
	getRoomMethod          = "/" + ServiceName + "/GetRoom"
	listParticipantsMethod = "/" + ServiceName + "/ListParticipants"
	listAuditEventsMethod  = "/" + ServiceName + "/ListAuditEvents"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// Directory is the read-only view of the table the admin service projects.
type Directory interface {
	ListRooms() []table.RoomSummary
	Room(roomID string) (table.RoomSummary, error)
	Participants() []table.Participant
}

// TableAdminServer is the server API for the TableAdmin service.
type TableAdminServer interface {
	ListRooms(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetRoom(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListParticipants(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListAuditEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service implements TableAdminServer over a Directory and an optional audit
// log reader.
type Service struct {
	directory Directory
	audit     storage.AuditEventReader
}

// NewService creates the admin service for directory. A nil audit reader
// makes ListAuditEvents report Unavailable.
func NewService(directory Directory, audit storage.AuditEventReader) *Service {
	return &Service{directory: directory, audit: audit}
}

// ListRooms returns {"rooms": [...]} in creation order.
func (s *Service) ListRooms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Unavailable, "table directory is not configured")
	}
	return toStruct(map[string]any{"rooms": s.directory.ListRooms()})
}

// GetRoom returns one room summary. Unknown ids yield NotFound with a
// localized message taken from the caller's accept-language metadata.
func (s *Service) GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Unavailable, "table directory is not configured")
	}
	roomID := strings.TrimSpace(in.GetValue())
	if roomID == "" {
		return nil, status.Error(codes.InvalidArgument, "room id is required")
	}
	summary, err := s.directory.Room(roomID)
	if err != nil {
		return nil, grpcError(ctx, err)
	}
	return toStruct(summary)
}

// ListParticipants returns {"participants": [...]} sorted by display name.
func (s *Service) ListParticipants(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Unavailable, "table directory is not configured")
	}
	return toStruct(map[string]any{"participants": s.directory.Participants()})
}

// ListAuditEvents pages through the audit log. The request carries optional
// "afterId" and "limit" numbers; the reply is {"events": [...], "nextAfterId": n}
// where nextAfterId feeds the following call.
func (s *Service) ListAuditEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.audit == nil {
		return nil, status.Error(codes.Unavailable, "audit log is not configured")
	}
	afterID, err := intField(in, "afterId", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intField(in, "limit", defaultAuditPageSize)
	if err != nil {
		return nil, err
	}
	if afterID < 0 {
		return nil, status.Error(codes.InvalidArgument, "afterId must not be negative")
	}
	if limit <= 0 || limit > maxAuditPageSize {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be between 1 and %d", maxAuditPageSize)
	}

	events, err := s.audit.ListAuditEvents(ctx, afterID, int(limit))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list audit events: %v", err)
	}
	views := make([]auditEventView, 0, len(events))
	next := afterID
	for _, evt := range events {
		views = append(views, newAuditEventView(evt))
		next = evt.ID
	}
	return toStruct(map[string]any{"events": views, "nextAfterId": next})
}

type auditEventView struct {
	ID           int64           `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	EventName    string          `json:"eventName"`
	ConnectionID string          `json:"connectionId"`
	DisplayName  string          `json:"displayName,omitempty"`
	RoomID       string          `json:"roomId,omitempty"`
	Outcome      string          `json:"outcome"`
	TraceID      string          `json:"traceId,omitempty"`
	SpanID       string          `json:"spanId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

func newAuditEventView(evt storage.AuditEvent) auditEventView {
	view := auditEventView{
		ID:           evt.ID,
		Timestamp:    evt.Timestamp,
		EventName:    evt.EventName,
		ConnectionID: evt.ConnectionID,
		DisplayName:  evt.DisplayName,
		RoomID:       evt.RoomID,
		Outcome:      evt.Outcome,
		TraceID:      evt.TraceID,
		SpanID:       evt.SpanID,
	}
	if len(evt.PayloadJSON) > 0 && json.Valid(evt.PayloadJSON) {
		view.Payload = json.RawMessage(evt.PayloadJSON)
	}
	return view
}

func intField(in *structpb.Struct, name string, fallback int64) (int64, error) {
	value, ok := in.GetFields()[name]
	if !ok {
		return fallback, nil
	}
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok || number.NumberValue != math.Trunc(number.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int64(number.NumberValue), nil
}

// RegisterTableAdminServer registers srv on registrar.
func RegisterTableAdminServer(registrar grpc.ServiceRegistrar, srv TableAdminServer) {
	registrar.RegisterService(&tableAdminServiceDesc, srv)
}

var tableAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TableAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetRoom", Handler: getRoomHandler},
		{MethodName: "ListParticipants", Handler: listParticipantsHandler},
		{MethodName: "ListAuditEvents", Handler: listAuditEventsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "duskroll/admin/v1/table_admin.proto",
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableAdminServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listRoomsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TableAdminServer).ListRooms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableAdminServer).GetRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRoomMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TableAdminServer).GetRoom(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listParticipantsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableAdminServer).ListParticipants(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listParticipantsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TableAdminServer).ListParticipants(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listAuditEventsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableAdminServer).ListAuditEvents(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listAuditEventsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TableAdminServer).ListAuditEvents(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the TableAdmin service over an established connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// ListRooms calls TableAdmin.ListRooms.
func (c *Client) ListRooms(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listRoomsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRoom calls TableAdmin.GetRoom.
func (c *Client) GetRoom(ctx context.Context, roomID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getRoomMethod, wrapperspb.String(roomID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListParticipants calls TableAdmin.ListParticipants.
func (c *Client) ListParticipants(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listParticipantsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAuditEvents calls TableAdmin.ListAuditEvents.
func (c *Client) ListAuditEvents(ctx context.Context, afterID int64, limit int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"afterId": afterID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listAuditEventsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// toStruct projects a JSON-tagged value into a protobuf Struct so the admin
// surface shares field names with the WebSocket wire.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal projection: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "decode projection: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build struct: %v", err)
	}
	return out, nil
}

func grpcError(ctx context.Context, err error) error {
	domainErr, ok := apperrors.As(err)
	if !ok {
		return status.Error(codes.Internal, fmt.Sprintf("admin: %v", err))
	}
	locale := requestLocale(ctx)
	message := i18n.GetCatalog(locale).Format(string(domainErr.Code), domainErr.Metadata)
	return domainErr.ToGRPCStatus(locale, message)
}

func requestLocale(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return i18n.BaseLocale
	}
	values := md.Get("accept-language")
	if len(values) == 0 {
		return i18n.BaseLocale
	}
	return i18n.MatchLocale(values[0])
}
