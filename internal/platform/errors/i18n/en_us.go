package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeNameEmpty        = "NAME_EMPTY"
	CodeRoomNameEmpty    = "ROOM_NAME_EMPTY"
	CodeHeroNameEmpty    = "HERO_NAME_EMPTY"
	CodeMessageEmpty     = "MESSAGE_EMPTY"
	CodeMessageTooLong   = "MESSAGE_TOO_LONG"
	CodePayloadInvalid   = "PAYLOAD_INVALID"
	CodeDicePoolNegative = "DICE_POOL_NEGATIVE"
	CodeNameTaken        = "NAME_TAKEN"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeNotLoggedIn      = "NOT_LOGGED_IN"
	CodeAlreadyLoggedIn  = "ALREADY_LOGGED_IN"
	CodeNotInRoom        = "NOT_IN_ROOM"
	CodeNotAPlayer       = "NOT_A_PLAYER"
	CodeRateLimited      = "RATE_LIMITED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedType  = "UNSUPPORTED_TYPE"
	CodeUnknown          = "UNKNOWN"
)

var enUSMessages = map[Code]string{
	CodeNameEmpty:        "Username cannot be empty",
	CodeRoomNameEmpty:    "Room name cannot be empty",
	CodeHeroNameEmpty:    "Hero name cannot be empty",
	CodeMessageEmpty:     "Message cannot be empty",
	CodeMessageTooLong:   "Message must be at most {{.Max}} characters",
	CodePayloadInvalid:   "{{if .Field}}{{.Field}} is invalid{{else}}Invalid payload{{end}}",
	CodeDicePoolNegative: "Dice pool cannot go below zero",
	CodeNameTaken:        "Username already taken",
	CodeRoomNotFound:     "Room not found",
	CodeNotLoggedIn:      "Not logged in",
	CodeAlreadyLoggedIn:  "Already logged in as {{.Name}}",
	CodeNotInRoom:        "Not in a room",
	CodeNotAPlayer:       "Only heroes can make {{.Action}}!",
	CodeRateLimited:      "Too many requests",
	CodePayloadTooLarge:  "Payload too large",
	CodeUnsupportedType:  "Unsupported event type",
	CodeUnknown:          "Something went wrong",
}
