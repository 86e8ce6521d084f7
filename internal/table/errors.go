package table

import (
	"strconv"

	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
)

// MaxMessageRunes bounds a chat message after trimming.
const MaxMessageRunes = 2000

// Sentinel errors returned by Coordinator operations. Errors carrying metadata
// still match these with errors.Is because domain errors compare by code.
var (
	ErrNameEmpty        = apperrors.New(apperrors.CodeNameEmpty, "display name is empty")
	ErrNameTaken        = apperrors.New(apperrors.CodeNameTaken, "display name is held by an active participant")
	ErrAlreadyLoggedIn  = apperrors.New(apperrors.CodeAlreadyLoggedIn, "connection already logged in")
	ErrNotLoggedIn      = apperrors.New(apperrors.CodeNotLoggedIn, "connection is not logged in")
	ErrRoomNameEmpty    = apperrors.New(apperrors.CodeRoomNameEmpty, "room name is empty")
	ErrRoomNotFound     = apperrors.New(apperrors.CodeRoomNotFound, "room not found")
	ErrHeroNameEmpty    = apperrors.New(apperrors.CodeHeroNameEmpty, "hero name is empty")
	ErrNotInRoom        = apperrors.New(apperrors.CodeNotInRoom, "participant is not in a room")
	ErrNotAPlayer       = apperrors.New(apperrors.CodeNotAPlayer, "non-player requested a player action")
	ErrMessageEmpty     = apperrors.New(apperrors.CodeMessageEmpty, "message is empty")
	ErrMessageTooLong   = apperrors.New(apperrors.CodeMessageTooLong, "message exceeds length limit")
	ErrDicePoolNegative = apperrors.New(apperrors.CodeDicePoolNegative, "dice pool counter would go negative")
)

func alreadyLoggedIn(name string) error {
	return apperrors.WithMetadata(apperrors.CodeAlreadyLoggedIn, ErrAlreadyLoggedIn.Message, map[string]string{"Name": name})
}

func notAPlayer(action string) error {
	return apperrors.WithMetadata(apperrors.CodeNotAPlayer, ErrNotAPlayer.Message, map[string]string{"Action": action})
}

func roomNotFound(roomID string) error {
	return apperrors.WithMetadata(apperrors.CodeRoomNotFound, ErrRoomNotFound.Message, map[string]string{"RoomID": roomID})
}

func messageTooLong() error {
	return apperrors.WithMetadata(apperrors.CodeMessageTooLong, ErrMessageTooLong.Message, map[string]string{"Max": strconv.Itoa(MaxMessageRunes)})
}
