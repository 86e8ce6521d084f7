// Package errors provides structured domain errors with machine-readable codes.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeNameEmpty        Code = "NAME_EMPTY"
	CodeRoomNameEmpty    Code = "ROOM_NAME_EMPTY"
	CodeHeroNameEmpty    Code = "HERO_NAME_EMPTY"
	CodeMessageEmpty     Code = "MESSAGE_EMPTY"
	CodeMessageTooLong   Code = "MESSAGE_TOO_LONG"
	CodePayloadInvalid   Code = "PAYLOAD_INVALID"
	CodeDicePoolNegative Code = "DICE_POOL_NEGATIVE"

	// Conflict errors
	CodeNameTaken Code = "NAME_TAKEN"

	// Lookup errors
	CodeRoomNotFound Code = "ROOM_NOT_FOUND"

	// Precondition errors
	CodeNotLoggedIn     Code = "NOT_LOGGED_IN"
	CodeAlreadyLoggedIn Code = "ALREADY_LOGGED_IN"
	CodeNotInRoom       Code = "NOT_IN_ROOM"
	CodeNotAPlayer      Code = "NOT_A_PLAYER"

	// Transport errors
	CodeRateLimited     Code = "RATE_LIMITED"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"
)

// GRPCCode maps domain codes to gRPC status codes.
//
// The mapping doubles as the error taxonomy: InvalidArgument for validation,
// AlreadyExists for conflicts, NotFound for lookups and FailedPrecondition for
// acting in the wrong connection state.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNameEmpty,
		CodeRoomNameEmpty,
		CodeHeroNameEmpty,
		CodeMessageEmpty,
		CodeMessageTooLong,
		CodePayloadInvalid,
		CodeDicePoolNegative,
		CodePayloadTooLarge,
		CodeUnsupportedType:
		return codes.InvalidArgument

	case CodeNameTaken:
		return codes.AlreadyExists

	case CodeRoomNotFound:
		return codes.NotFound

	case CodeNotLoggedIn,
		CodeAlreadyLoggedIn,
		CodeNotInRoom,
		CodeNotAPlayer:
		return codes.FailedPrecondition

	case CodeRateLimited:
		return codes.ResourceExhausted

	default:
		return codes.Internal
	}
}

// StatusName renders the gRPC code in the upper-snake form used on the
// WebSocket wire, e.g. FAILED_PRECONDITION.
func (c Code) StatusName() string {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return "INVALID_ARGUMENT"
	case codes.AlreadyExists:
		return "ALREADY_EXISTS"
	case codes.NotFound:
		return "NOT_FOUND"
	case codes.FailedPrecondition:
		return "FAILED_PRECONDITION"
	case codes.ResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	default:
		return "INTERNAL"
	}
}
