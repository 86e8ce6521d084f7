package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
	"github.com/louisbranch/duskroll/internal/platform/errors/i18n"
	"github.com/louisbranch/duskroll/internal/platform/id"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"github.com/louisbranch/duskroll/internal/table"
	"github.com/louisbranch/duskroll/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/websocket"
)

const (
	frameTypeError      = "error"
	frameTypeLoginError = "login_error"
	eventDisconnect     = "disconnect"
)

// wsSession is the per-connection state owned by one read loop.
type wsSession struct {
	connID table.ConnectionID
	locale string
	peer   *wsPeer
}

type eventResult struct {
	// audit is recorded as the audit event payload when set.
	audit any
}

type eventHandler func(ctx context.Context, session *wsSession, frame wsFrame) (eventResult, error)

func (s *tableService) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	conn.MaxPayloadBytes = maxWireFrameBytes

	rawID, err := id.NewPrefixed("conn")
	if err != nil {
		log.Printf("table: allocate connection id: %v", err)
		return
	}
	session := &wsSession{
		connID: table.ConnectionID(rawID),
		locale: i18n.BaseLocale,
		peer:   newWSPeer(conn),
	}
	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
		session.locale = i18n.MatchLocale(request.Header.Get("Accept-Language"))
	}

	s.hub.add(session.connID, session.peer)
	defer s.disconnect(ctx, session)

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				s.writeError(session, frameTypeError, "", apperrors.New(apperrors.CodePayloadTooLarge, "frame too large"))
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.Printf("table: read conn=%s: %v", session.connID, err)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			decodeErrors++
			s.writeError(session, frameTypeError, "", apperrors.New(apperrors.CodePayloadInvalid, "invalid frame"))
			if decodeErrors >= maxDecodeErrorsPerConn {
				log.Printf("table: closing conn=%s after %d decode errors: %v", session.connID, decodeErrors, err)
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			s.writeError(session, frameTypeError, frame.RequestID, apperrors.New(apperrors.CodePayloadTooLarge, "payload too large"))
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			s.writeError(session, frameTypeError, frame.RequestID, apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded"))
			log.Printf("table: closing conn=%s: rate limit exceeded", session.connID)
			return
		}

		handle, ok := s.routes[frame.Type]
		if !ok {
			s.writeError(session, frameTypeError, frame.RequestID, apperrors.WithMetadata(apperrors.CodeUnsupportedType, "unsupported frame type", map[string]string{"Type": frame.Type}))
			continue
		}
		s.dispatch(ctx, session, frame, handle)
	}
}

func (s *tableService) eventRoutes() map[string]eventHandler {
	return map[string]eventHandler{
		"login":            s.handleLogin,
		"create_room":      s.handleCreateRoom,
		"join_room":        s.handleJoinRoom,
		"get_rooms":        s.handleGetRooms,
		"leave_room":       s.handleLeaveRoom,
		"action_roll":      s.handleActionRoll,
		"forced_roll":      s.handleForcedRoll,
		"reset_dice_pool":  s.handleResetDicePool,
		"adjust_dice_pool": s.handleAdjustDicePool,
		"send_message":     s.handleSendMessage,
	}
}

// dispatch runs one handler inside a span and records the audit event.
func (s *tableService) dispatch(ctx context.Context, session *wsSession, frame wsFrame, handle eventHandler) {
	ctx, span := s.tracer.Start(ctx, "table."+frame.Type,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("table.connection_id", string(session.connID))),
	)
	defer span.End()

	result, err := handle(ctx, session, frame)
	outcome := telemetry.OutcomeOK
	if err != nil {
		outcome = string(apperrors.CodeOf(err))
		span.SetStatus(codes.Error, outcome)
		errorType := frameTypeError
		if frame.Type == "login" {
			errorType = frameTypeLoginError
		}
		s.writeError(session, errorType, frame.RequestID, err)
	}
	span.SetAttributes(attribute.String("table.outcome", outcome))

	s.recordAudit(ctx, session, frame.Type, outcome, result.audit)
}

func (s *tableService) disconnect(ctx context.Context, session *wsSession) {
	s.hub.remove(session.connID)
	participant, err := s.coordinator.Lookup(session.connID)
	s.coordinator.Disconnect(session.connID)
	if err != nil {
		return
	}
	s.emit(ctx, storage.AuditEvent{
		EventName:    eventDisconnect,
		ConnectionID: string(session.connID),
		DisplayName:  participant.DisplayName,
		RoomID:       participant.RoomID,
	})
}

func (s *tableService) recordAudit(ctx context.Context, session *wsSession, eventName, outcome string, payload any) {
	evt := storage.AuditEvent{
		EventName:    eventName,
		ConnectionID: string(session.connID),
		Outcome:      outcome,
	}
	if participant, err := s.coordinator.Lookup(session.connID); err == nil {
		evt.DisplayName = participant.DisplayName
		evt.RoomID = participant.RoomID
	}
	if payload != nil {
		evt.PayloadJSON = mustJSON(payload)
	}
	s.emit(ctx, evt)
}

func (s *tableService) emit(ctx context.Context, evt storage.AuditEvent) {
	if err := s.audit.Emit(ctx, evt); err != nil {
		log.Printf("table: append audit event=%q conn=%s: %v", evt.EventName, evt.ConnectionID, err)
	}
}

// writeError sends a localized error frame to the requester only.
func (s *tableService) writeError(session *wsSession, frameType, requestID string, err error) {
	domainErr, ok := apperrors.As(err)
	if !ok {
		log.Printf("table: unexpected error conn=%s: %v", session.connID, err)
		domainErr = apperrors.Wrap(apperrors.CodeUnknown, "internal error", err)
	}
	catalog := i18n.GetCatalog(session.locale)
	_ = session.peer.writeFrame(wsFrame{
		Type:      frameType,
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:      domainErr.Code.StatusName(),
				Reason:    string(domainErr.Code),
				Message:   catalog.Format(string(domainErr.Code), domainErr.Metadata),
				Retryable: domainErr.Code == apperrors.CodeRateLimited,
			},
		}),
	})
}
