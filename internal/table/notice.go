package table

import (
	"time"

	"github.com/louisbranch/duskroll/internal/core/dice"
	"github.com/louisbranch/duskroll/internal/hero"
)

// Event names a notice type. The values double as outbound frame types.
type Event string

const (
	EventLoginSuccess       Event = "login_success"
	EventRoomCreated        Event = "room_created"
	EventRoomJoined         Event = "room_joined"
	EventRoomMembersUpdated Event = "room_members_updated"
	EventRoomListUpdated    Event = "room_list_updated"
	EventNewMessage         Event = "new_message"
	EventActionRollResult   Event = "action_roll_result"
	EventDicePoolReset      Event = "dice_pool_reset"
	EventDicePoolUpdated    Event = "dice_pool_updated"
)

// Notice is a message produced by a state change. When Broadcast is set the
// notice goes to every open connection, logged in or not; otherwise it goes
// to Targets.
type Notice struct {
	Event     Event
	Broadcast bool
	Targets   []ConnectionID
	Payload   any
}

// Notifier delivers notices. Notify runs on one goroutine at a time, in
// production order, with no Coordinator lock held, so a slow Notify delays
// later notices but never blocks Coordinator operations. A notice may arrive
// after the operation that produced it has returned.
type Notifier interface {
	Notify(notices []Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(notices []Notice)

// Notify implements Notifier.
func (fn NotifierFunc) Notify(notices []Notice) {
	fn(notices)
}

// LoginSuccess confirms a login to the requester.
type LoginSuccess struct {
	UserID   ConnectionID `json:"userId"`
	Username string       `json:"username"`
}

// RoomCreated confirms a room creation to its creator.
type RoomCreated struct {
	RoomID   string   `json:"roomId"`
	RoomName string   `json:"roomName"`
	Members  []string `json:"members"`
}

// JoinResult confirms a join to the joiner.
type JoinResult struct {
	RoomID   string        `json:"roomId"`
	RoomName string        `json:"roomName"`
	Hero     hero.Snapshot `json:"hero"`
	Members  []string      `json:"members"`
}

// RoomMembers is the member-name list of one room.
type RoomMembers struct {
	RoomID  string   `json:"roomId"`
	Members []string `json:"members"`
}

// Message is a chat line posted to a room.
type Message struct {
	Username  string    `json:"username"`
	HeroName  string    `json:"heroName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RollKind distinguishes the two roll modes.
type RollKind string

const (
	RollAction RollKind = "action"
	RollForced RollKind = "forced"
)

// RollResult is broadcast to a room after a hero rolls. Success and Margin
// are set for forced rolls only.
type RollResult struct {
	HeroName string   `json:"heroName"`
	Kind     RollKind `json:"kind"`
	dice.Outcome
	Success  *bool     `json:"success,omitempty"`
	Margin   *int      `json:"margin,omitempty"`
	Text     string    `json:"text"`
	DicePool dice.Pool `json:"dicePool"`
}

// DicePoolChanged reports a hero's pool after a reset or adjustment.
type DicePoolChanged struct {
	HeroName string    `json:"heroName"`
	DicePool dice.Pool `json:"dicePool"`
}

type outbox []Notice

func (o *outbox) unicast(conn ConnectionID, event Event, payload any) {
	*o = append(*o, Notice{Event: event, Targets: []ConnectionID{conn}, Payload: payload})
}

func (o *outbox) multicast(targets []ConnectionID, event Event, payload any) {
	if len(targets) == 0 {
		return
	}
	*o = append(*o, Notice{Event: event, Targets: targets, Payload: payload})
}

func (o *outbox) broadcast(event Event, payload any) {
	*o = append(*o, Notice{Event: event, Broadcast: true, Payload: payload})
}
