package server

import (
	"context"
	"encoding/json"

	"github.com/louisbranch/duskroll/internal/hero"
	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
)

type createRoomPayload struct {
	RoomName string `json:"roomName"`
}

type joinRoomPayload struct {
	RoomID          string `json:"roomId"`
	HeroName        string `json:"heroName"`
	HeroArchetypeID int    `json:"heroArchetypeId"`
	HeroPathID      int    `json:"heroPathId"`
}

type adjustDicePoolPayload struct {
	Red   int `json:"red"`
	Black int `json:"black"`
}

func decodePayload(frame wsFrame, field string, target any) error {
	if len(frame.Payload) == 0 {
		return invalidPayload(field, nil)
	}
	if err := json.Unmarshal(frame.Payload, target); err != nil {
		return invalidPayload(field, err)
	}
	return nil
}

func invalidPayload(field string, cause error) error {
	err := apperrors.Wrap(apperrors.CodePayloadInvalid, "invalid payload", cause)
	if field != "" {
		err.Metadata = map[string]string{"Field": field}
	}
	return err
}

func (s *tableService) handleLogin(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	var name string
	if err := decodePayload(frame, "username", &name); err != nil {
		return eventResult{}, err
	}
	_, err := s.coordinator.Login(session.connID, name)
	return eventResult{}, err
}

func (s *tableService) handleCreateRoom(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	var payload createRoomPayload
	if err := decodePayload(frame, "roomName", &payload); err != nil {
		return eventResult{}, err
	}
	summary, err := s.coordinator.CreateRoom(session.connID, payload.RoomName)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: summary}, nil
}

func (s *tableService) handleJoinRoom(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	var payload joinRoomPayload
	if err := decodePayload(frame, "", &payload); err != nil {
		return eventResult{}, err
	}
	result, err := s.coordinator.JoinRoom(session.connID, payload.RoomID, hero.Params{
		Name:        payload.HeroName,
		ArchetypeID: payload.HeroArchetypeID,
		HeroPathID:  payload.HeroPathID,
	})
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: result.Hero}, nil
}

func (s *tableService) handleGetRooms(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	rooms := s.coordinator.ListRooms()
	_ = session.peer.writeFrame(wsFrame{
		Type:      "rooms_list",
		RequestID: frame.RequestID,
		Payload:   mustJSON(rooms),
	})
	return eventResult{}, nil
}

func (s *tableService) handleLeaveRoom(_ context.Context, session *wsSession, _ wsFrame) (eventResult, error) {
	s.coordinator.LeaveRoom(session.connID)
	return eventResult{}, nil
}

func (s *tableService) handleActionRoll(_ context.Context, session *wsSession, _ wsFrame) (eventResult, error) {
	result, err := s.coordinator.ActionRoll(session.connID)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: result}, nil
}

func (s *tableService) handleForcedRoll(_ context.Context, session *wsSession, _ wsFrame) (eventResult, error) {
	result, err := s.coordinator.ForcedRoll(session.connID)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: result}, nil
}

func (s *tableService) handleResetDicePool(_ context.Context, session *wsSession, _ wsFrame) (eventResult, error) {
	changed, err := s.coordinator.ResetDicePool(session.connID)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: changed}, nil
}

func (s *tableService) handleAdjustDicePool(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	var payload adjustDicePoolPayload
	if err := decodePayload(frame, "", &payload); err != nil {
		return eventResult{}, err
	}
	changed, err := s.coordinator.AdjustDicePool(session.connID, payload.Red, payload.Black)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{audit: changed}, nil
}

func (s *tableService) handleSendMessage(_ context.Context, session *wsSession, frame wsFrame) (eventResult, error) {
	var body string
	if err := decodePayload(frame, "message", &body); err != nil {
		return eventResult{}, err
	}
	_, err := s.coordinator.SendMessage(session.connID, body)
	return eventResult{}, err
}
