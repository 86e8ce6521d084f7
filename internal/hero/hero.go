// Package hero models the actor a participant controls while seated in a room.
//
// A hero owns a dice pool. Action rolls grow the pool by one hero die before
// rolling; forced rolls roll the pool as it stands and report whether the suns
// held off the skulls.
package hero

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/duskroll/internal/core/check"
	"github.com/louisbranch/duskroll/internal/core/dice"
)

// UnassignedHitPoints marks a hero whose hit points were never set.
const UnassignedHitPoints = -1

// ErrNameRequired indicates hero creation without a name.
var ErrNameRequired = errors.New("hero name is required")

// Params describes the character chosen when joining a room.
type Params struct {
	Name        string
	ArchetypeID int
	HeroPathID  int
}

// Hero is a mutable actor. It is not safe for concurrent use; the table
// coordinator serializes access.
type Hero struct {
	Name        string
	ArchetypeID int
	HeroPathID  int
	HitPoints   int
	Hope        int
	Qualities   []string
	Pool        dice.Pool
}

// Snapshot is a read-only copy of a hero for notices and admin views.
type Snapshot struct {
	Name        string    `json:"name"`
	ArchetypeID int       `json:"archetypeId"`
	HeroPathID  int       `json:"heroPathId"`
	HitPoints   int       `json:"hp"`
	Hope        int       `json:"hope"`
	Qualities   []string  `json:"qualities"`
	Pool        dice.Pool `json:"dicePool"`
}

// ForcedResult is the outcome of a forced roll with its verdict.
type ForcedResult struct {
	Outcome dice.Outcome
	check.Result
}

// New creates a hero with an empty pool and no assigned hit points.
func New(params Params) (*Hero, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &Hero{
		Name:        name,
		ArchetypeID: params.ArchetypeID,
		HeroPathID:  params.HeroPathID,
		HitPoints:   UnassignedHitPoints,
		Qualities:   []string{},
	}, nil
}

// ActionRoll adds one hero die to the pool permanently, then rolls the pool.
// A failed roll leaves the pool as it was.
func (h *Hero) ActionRoll(src dice.FaceSource) (dice.Outcome, error) {
	next := h.Pool
	next.Hero++
	outcome, err := dice.Roll(src, next)
	if err != nil {
		return dice.Outcome{}, err
	}
	h.Pool = next
	return outcome, nil
}

// ForcedRoll rolls the pool unchanged. Ties between suns and skulls succeed.
func (h *Hero) ForcedRoll(src dice.FaceSource) (ForcedResult, error) {
	outcome, err := dice.Roll(src, h.Pool)
	if err != nil {
		return ForcedResult{}, err
	}
	return ForcedResult{
		Outcome: outcome,
		Result:  check.Resolve(outcome.Suns, outcome.Skulls),
	}, nil
}

// ResetDicePool empties the pool.
func (h *Hero) ResetDicePool() {
	h.Pool = dice.Pool{}
}

// AdjustDicePool adds deltas to the red and black counters. The pool is left
// untouched when either counter would drop below zero.
func (h *Hero) AdjustDicePool(red, black int) error {
	next := h.Pool
	next.Red += red
	next.Black += black
	if err := next.Validate(); err != nil {
		return fmt.Errorf("adjust dice pool: %w", err)
	}
	h.Pool = next
	return nil
}

// Snapshot copies the hero's current state.
func (h *Hero) Snapshot() Snapshot {
	qualities := make([]string, len(h.Qualities))
	copy(qualities, h.Qualities)
	return Snapshot{
		Name:        h.Name,
		ArchetypeID: h.ArchetypeID,
		HeroPathID:  h.HeroPathID,
		HitPoints:   h.HitPoints,
		Hope:        h.Hope,
		Qualities:   qualities,
		Pool:        h.Pool,
	}
}
