package table

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/louisbranch/duskroll/internal/core/dice"
	"github.com/louisbranch/duskroll/internal/hero"
	apperrors "github.com/louisbranch/duskroll/internal/platform/errors"
)

// Action labels used in NOT_A_PLAYER messages.
const (
	actionRolls     = "action rolls"
	forcedRolls     = "forced rolls"
	dicePoolChanges = "dice pool changes"
)

// ActionRoll grows the caller's hero pool by one hero die and rolls it for the
// whole room.
func (c *Coordinator) ActionRoll(conn ConnectionID) (RollResult, error) {
	c.mu.Lock()
	var out outbox
	p, h, err := c.player(conn, actionRolls)
	if err != nil {
		c.mu.Unlock()
		return RollResult{}, err
	}
	outcome, err := h.ActionRoll(c.faces)
	if err != nil {
		c.mu.Unlock()
		return RollResult{}, apperrors.Wrap(apperrors.CodeUnknown, "action roll", err)
	}

	result := RollResult{
		HeroName: h.Name,
		Kind:     RollAction,
		Outcome:  outcome,
		Text:     outcome.Text(),
		DicePool: h.Pool,
	}
	out.multicast(c.memberConns(c.rooms[p.roomID]), EventActionRollResult, result)
	c.commit(out)
	return result, nil
}

// ForcedRoll rolls the caller's hero pool unchanged and reports success when
// skulls do not outnumber suns.
func (c *Coordinator) ForcedRoll(conn ConnectionID) (RollResult, error) {
	c.mu.Lock()
	var out outbox
	p, h, err := c.player(conn, forcedRolls)
	if err != nil {
		c.mu.Unlock()
		return RollResult{}, err
	}
	forced, err := h.ForcedRoll(c.faces)
	if err != nil {
		c.mu.Unlock()
		return RollResult{}, apperrors.Wrap(apperrors.CodeUnknown, "forced roll", err)
	}

	success, margin := forced.Success, forced.Margin
	result := RollResult{
		HeroName: h.Name,
		Kind:     RollForced,
		Outcome:  forced.Outcome,
		Success:  &success,
		Margin:   &margin,
		Text:     forcedText(forced),
		DicePool: h.Pool,
	}
	out.multicast(c.memberConns(c.rooms[p.roomID]), EventActionRollResult, result)
	c.commit(out)
	return result, nil
}

// ResetDicePool empties the caller's hero pool.
func (c *Coordinator) ResetDicePool(conn ConnectionID) (DicePoolChanged, error) {
	c.mu.Lock()
	var out outbox
	_, h, err := c.player(conn, dicePoolChanges)
	if err != nil {
		c.mu.Unlock()
		return DicePoolChanged{}, err
	}
	h.ResetDicePool()

	changed := DicePoolChanged{HeroName: h.Name, DicePool: h.Pool}
	out.unicast(conn, EventDicePoolReset, changed)
	c.commit(out)
	return changed, nil
}

// AdjustDicePool adds red and black dice to the caller's hero pool. Negative
// deltas remove dice; no counter may drop below zero.
func (c *Coordinator) AdjustDicePool(conn ConnectionID, red, black int) (DicePoolChanged, error) {
	c.mu.Lock()
	var out outbox
	_, h, err := c.player(conn, dicePoolChanges)
	if err != nil {
		c.mu.Unlock()
		return DicePoolChanged{}, err
	}
	if err := h.AdjustDicePool(red, black); err != nil {
		c.mu.Unlock()
		if errors.Is(err, dice.ErrNegativePool) {
			return DicePoolChanged{}, apperrors.Wrap(apperrors.CodeDicePoolNegative, ErrDicePoolNegative.Message, err)
		}
		return DicePoolChanged{}, apperrors.Wrap(apperrors.CodeUnknown, "adjust dice pool", err)
	}

	changed := DicePoolChanged{HeroName: h.Name, DicePool: h.Pool}
	out.unicast(conn, EventDicePoolUpdated, changed)
	c.commit(out)
	return changed, nil
}

// SendMessage posts body to the caller's room as typed. Whitespace-only
// bodies are rejected. The hero name falls back to the display name for a
// member without a hero.
func (c *Coordinator) SendMessage(conn ConnectionID, body string) (Message, error) {
	c.mu.Lock()
	var out outbox
	p, ok := c.participants[conn]
	if !ok {
		c.mu.Unlock()
		return Message{}, ErrNotLoggedIn
	}
	r, ok := c.rooms[p.roomID]
	if !ok {
		c.mu.Unlock()
		return Message{}, ErrNotInRoom
	}
	if strings.TrimSpace(body) == "" {
		c.mu.Unlock()
		return Message{}, ErrMessageEmpty
	}
	if utf8.RuneCountInString(body) > MaxMessageRunes {
		c.mu.Unlock()
		return Message{}, messageTooLong()
	}

	heroName := p.name
	if p.hero != nil {
		heroName = p.hero.Name
	}
	msg := Message{
		Username:  p.name,
		HeroName:  heroName,
		Message:   body,
		Timestamp: c.clock().UTC(),
	}
	out.multicast(c.memberConns(r), EventNewMessage, msg)
	c.commit(out)
	return msg, nil
}

// player resolves the seated hero for conn. Callers hold c.mu.
func (c *Coordinator) player(conn ConnectionID, action string) (*participant, *hero.Hero, error) {
	p, ok := c.participants[conn]
	if !ok {
		return nil, nil, ErrNotLoggedIn
	}
	if _, seated := c.rooms[p.roomID]; !seated {
		return nil, nil, ErrNotInRoom
	}
	if p.hero == nil {
		return nil, nil, notAPlayer(action)
	}
	return p, p.hero, nil
}

func forcedText(forced hero.ForcedResult) string {
	verdict := "FAILURE"
	if forced.Success {
		verdict = "SUCCESS"
	}
	return forced.Outcome.Text() + "\n" + verdict
}
