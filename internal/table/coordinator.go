package table

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/duskroll/internal/core/dice"
	"github.com/louisbranch/duskroll/internal/hero"
	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
	"github.com/louisbranch/duskroll/internal/platform/id"
)

// ConnectionID identifies one transport connection.
type ConnectionID string

// unknownMember stands in for a member without a directory entry.
const unknownMember = "unknown"

const maxRoomIDAttempts = 8

// Participant is a read-only view of a logged-in connection.
type Participant struct {
	ConnectionID ConnectionID   `json:"connectionId"`
	DisplayName  string         `json:"displayName"`
	RoomID       string         `json:"roomId,omitempty"`
	Hero         *hero.Snapshot `json:"hero,omitempty"`
	LoggedInAt   time.Time      `json:"loggedInAt"`
}

// RoomSummary is the projection of a room shown in room lists.
type RoomSummary struct {
	RoomID      string    `json:"roomId"`
	Name        string    `json:"name"`
	CreatorName string    `json:"creator"`
	MemberCount int       `json:"memberCount"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

type participant struct {
	conn       ConnectionID
	name       string
	roomID     string
	hero       *hero.Hero
	loggedInAt time.Time
}

type room struct {
	id        string
	name      string
	creator   string
	createdAt time.Time
	seq       uint64
	members   map[ConnectionID]uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFaceSource sets the dice face source. Access is serialized by the
// Coordinator lock.
func WithFaceSource(src dice.FaceSource) Option {
	return func(c *Coordinator) { c.faces = src }
}

// WithClock sets the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithIDGenerator sets the room id generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(c *Coordinator) { c.newRoomID = gen }
}

// WithNotifier sets the notice sink.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// Coordinator is the session directory and room registry for one process.
type Coordinator struct {
	mu sync.Mutex

	// queueMu guards pending and draining. It is never held across Notify.
	queueMu  sync.Mutex
	pending  []Notice
	draining bool

	faces     dice.FaceSource
	clock     func() time.Time
	newRoomID func() (string, error)
	notifier  Notifier

	participants map[ConnectionID]*participant
	names        map[string]ConnectionID
	rooms        map[string]*room
	roomSeq      uint64
	joinSeq      uint64
}

// NewCoordinator returns an empty Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		participants: make(map[ConnectionID]*participant),
		names:        make(map[string]ConnectionID),
		rooms:        make(map[string]*room),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.faces == nil {
		c.faces = dice.NewRandSource(time.Now().UnixNano())
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.newRoomID == nil {
		c.newRoomID = func() (string, error) { return id.NewPrefixed("room") }
	}
	return c
}

// commit queues out and releases the state lock. Notices are queued while
// c.mu is held, so the queue follows production order; one caller at a time
// drains it with no lock held. A caller that finds a drain in progress returns
// at once and its notices are delivered by the draining caller.
func (c *Coordinator) commit(out outbox) {
	if len(out) == 0 || c.notifier == nil {
		c.mu.Unlock()
		return
	}
	c.queueMu.Lock()
	c.pending = append(c.pending, out...)
	drain := !c.draining
	c.draining = true
	c.queueMu.Unlock()
	c.mu.Unlock()

	if drain {
		c.drain()
	}
}

func (c *Coordinator) drain() {
	for {
		c.queueMu.Lock()
		batch := c.pending
		c.pending = nil
		if len(batch) == 0 {
			c.draining = false
			c.queueMu.Unlock()
			return
		}
		c.queueMu.Unlock()
		c.notifier.Notify(batch)
	}
}

// Login registers a display name for conn.
func (c *Coordinator) Login(conn ConnectionID, name string) (Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Participant{}, ErrNameEmpty
	}

	c.mu.Lock()
	var out outbox
	if existing, ok := c.participants[conn]; ok {
		c.mu.Unlock()
		return Participant{}, alreadyLoggedIn(existing.name)
	}
	if _, taken := c.names[name]; taken {
		c.mu.Unlock()
		return Participant{}, ErrNameTaken
	}

	p := &participant{conn: conn, name: name, loggedInAt: c.clock().UTC()}
	c.participants[conn] = p
	c.names[name] = conn
	out.unicast(conn, EventLoginSuccess, LoginSuccess{UserID: conn, Username: name})
	view := p.view()
	c.commit(out)
	return view, nil
}

// Lookup returns the participant for conn.
func (c *Coordinator) Lookup(conn ConnectionID) (Participant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.participants[conn]
	if !ok {
		return Participant{}, ErrNotLoggedIn
	}
	return p.view(), nil
}

// Disconnect removes conn from its room and from the directory. Unknown
// connections are ignored.
func (c *Coordinator) Disconnect(conn ConnectionID) {
	c.mu.Lock()
	var out outbox
	p, ok := c.participants[conn]
	if !ok {
		c.mu.Unlock()
		return
	}
	if p.roomID != "" {
		c.leave(p, &out)
		out.broadcast(EventRoomListUpdated, c.listRooms())
	}
	delete(c.participants, conn)
	if c.names[p.name] == conn {
		delete(c.names, p.name)
	}
	c.commit(out)
}

// CreateRoom opens a room with conn as its only member. A creator already
// seated elsewhere leaves that room first. The creator has no hero.
func (c *Coordinator) CreateRoom(conn ConnectionID, name string) (RoomSummary, error) {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	var out outbox
	p, ok := c.participants[conn]
	if !ok {
		c.mu.Unlock()
		return RoomSummary{}, ErrNotLoggedIn
	}
	if name == "" {
		c.mu.Unlock()
		return RoomSummary{}, ErrRoomNameEmpty
	}
	roomID, err := c.freshRoomID()
	if err != nil {
		c.mu.Unlock()
		return RoomSummary{}, err
	}

	if p.roomID != "" {
		c.leave(p, &out)
	}

	c.roomSeq++
	r := &room{
		id:        roomID,
		name:      name,
		creator:   p.name,
		createdAt: c.clock().UTC(),
		seq:       c.roomSeq,
		members:   make(map[ConnectionID]uint64),
	}
	c.rooms[roomID] = r
	c.seat(p, r)

	summary := c.summary(r)
	out.unicast(conn, EventRoomCreated, RoomCreated{RoomID: r.id, RoomName: r.name, Members: summary.Members})
	out.broadcast(EventRoomListUpdated, c.listRooms())
	c.commit(out)
	return summary, nil
}

// JoinRoom seats conn in roomID with a fresh hero built from params. Joining
// from another room leaves it first. Joining the current room again only
// replaces the hero.
func (c *Coordinator) JoinRoom(conn ConnectionID, roomID string, params hero.Params) (JoinResult, error) {
	c.mu.Lock()
	var out outbox
	p, ok := c.participants[conn]
	if !ok {
		c.mu.Unlock()
		return JoinResult{}, ErrNotLoggedIn
	}
	target, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return JoinResult{}, roomNotFound(roomID)
	}
	h, err := hero.New(params)
	if err != nil {
		c.mu.Unlock()
		return JoinResult{}, apperrors.Wrap(apperrors.CodeHeroNameEmpty, ErrHeroNameEmpty.Message, err)
	}

	rejoin := p.roomID == target.id
	if !rejoin {
		if p.roomID != "" {
			c.leave(p, &out)
		}
		c.seat(p, target)
	}
	p.hero = h

	members := c.memberNames(target)
	result := JoinResult{RoomID: target.id, RoomName: target.name, Hero: h.Snapshot(), Members: members}
	out.unicast(conn, EventRoomJoined, result)
	out.multicast(c.memberConns(target), EventRoomMembersUpdated, RoomMembers{RoomID: target.id, Members: members})
	if !rejoin {
		out.broadcast(EventRoomListUpdated, c.listRooms())
	}
	c.commit(out)
	return result, nil
}

// LeaveRoom removes conn from its room. It is a no-op when conn is not logged
// in or not seated.
func (c *Coordinator) LeaveRoom(conn ConnectionID) {
	c.mu.Lock()
	var out outbox
	p, ok := c.participants[conn]
	if !ok || p.roomID == "" {
		c.mu.Unlock()
		return
	}
	c.leave(p, &out)
	out.broadcast(EventRoomListUpdated, c.listRooms())
	c.commit(out)
}

// ListRooms returns every room in creation order.
func (c *Coordinator) ListRooms() []RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listRooms()
}

// Room returns the summary of one room.
func (c *Coordinator) Room(roomID string) (RoomSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	if !ok {
		return RoomSummary{}, roomNotFound(roomID)
	}
	return c.summary(r), nil
}

// Participants returns every logged-in participant ordered by display name.
func (c *Coordinator) Participants() []Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	views := make([]Participant, 0, len(c.participants))
	for _, p := range c.participants {
		views = append(views, p.view())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].DisplayName < views[j].DisplayName })
	return views
}

func (c *Coordinator) freshRoomID() (string, error) {
	for attempt := 0; attempt < maxRoomIDAttempts; attempt++ {
		roomID, err := c.newRoomID()
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeUnknown, "generate room id", err)
		}
		if _, exists := c.rooms[roomID]; !exists && roomID != "" {
			return roomID, nil
		}
	}
	return "", apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("room id collided %d times", maxRoomIDAttempts))
}

func (c *Coordinator) seat(p *participant, r *room) {
	c.joinSeq++
	r.members[p.conn] = c.joinSeq
	p.roomID = r.id
	p.hero = nil
}

// leave unseats p, deleting the room when it empties and otherwise telling the
// remaining members. Callers add the room list broadcast.
func (c *Coordinator) leave(p *participant, out *outbox) {
	r, ok := c.rooms[p.roomID]
	p.roomID = ""
	p.hero = nil
	if !ok {
		return
	}
	delete(r.members, p.conn)
	if len(r.members) == 0 {
		delete(c.rooms, r.id)
		return
	}
	out.multicast(c.memberConns(r), EventRoomMembersUpdated, RoomMembers{RoomID: r.id, Members: c.memberNames(r)})
}

func (c *Coordinator) listRooms() []RoomSummary {
	ordered := make([]*room, 0, len(c.rooms))
	for _, r := range c.rooms {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	summaries := make([]RoomSummary, 0, len(ordered))
	for _, r := range ordered {
		summaries = append(summaries, c.summary(r))
	}
	return summaries
}

func (c *Coordinator) summary(r *room) RoomSummary {
	members := c.memberNames(r)
	return RoomSummary{
		RoomID:      r.id,
		Name:        r.name,
		CreatorName: r.creator,
		MemberCount: len(members),
		Members:     members,
		CreatedAt:   r.createdAt,
	}
}

// memberConns returns the room's members in join order.
func (c *Coordinator) memberConns(r *room) []ConnectionID {
	conns := make([]ConnectionID, 0, len(r.members))
	for conn := range r.members {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return r.members[conns[i]] < r.members[conns[j]] })
	return conns
}

func (c *Coordinator) memberNames(r *room) []string {
	conns := c.memberConns(r)
	names := make([]string, 0, len(conns))
	for _, conn := range conns {
		if p, ok := c.participants[conn]; ok {
			names = append(names, p.name)
			continue
		}
		names = append(names, unknownMember)
	}
	return names
}

func (p *participant) view() Participant {
	view := Participant{
		ConnectionID: p.conn,
		DisplayName:  p.name,
		RoomID:       p.roomID,
		LoggedInAt:   p.loggedInAt,
	}
	if p.hero != nil {
		snap := p.hero.Snapshot()
		view.Hero = &snap
	}
	return view
}
