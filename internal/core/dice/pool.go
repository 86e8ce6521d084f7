package dice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNegativePool indicates a pool counter below zero.
var ErrNegativePool = errors.New("dice pool counters must be non-negative")

// ErrMissingFaceSource indicates Roll was called without a face source.
var ErrMissingFaceSource = errors.New("face source is required")

// ErrInvalidFace indicates a face source produced a value outside 1-6.
var ErrInvalidFace = errors.New("die face must be between 1 and 6")

// ErrUnknownKind indicates an unsupported die kind.
var ErrUnknownKind = errors.New("unknown die kind")

// Pool is the multiset of dice a hero rolls.
type Pool struct {
	Hero  int `json:"hero"`
	Red   int `json:"red"`
	Black int `json:"black"`
}

// Validate reports ErrNegativePool when any counter is negative.
func (p Pool) Validate() error {
	if p.Hero < 0 || p.Red < 0 || p.Black < 0 {
		return fmt.Errorf("%w: hero=%d red=%d black=%d", ErrNegativePool, p.Hero, p.Red, p.Black)
	}
	return nil
}

// Size returns the total number of dice in the pool.
func (p Pool) Size() int {
	return p.Hero + p.Red + p.Black
}

// Outcome aggregates a pool roll. Symbol slices keep roll order per kind.
type Outcome struct {
	Hero   []Symbol `json:"heroDice"`
	Red    []Symbol `json:"redDice"`
	Black  []Symbol `json:"blackDice"`
	Suns   int      `json:"suns"`
	Skulls int      `json:"skulls"`
}

// Roll draws one face per die in pool, hero dice first, then red, then black.
//
// Roll is deterministic with respect to src: the same face sequence and pool
// always produce the same Outcome. An empty pool draws nothing and returns
// empty symbol slices with zero suns and skulls.
func Roll(src FaceSource, pool Pool) (Outcome, error) {
	if src == nil {
		return Outcome{}, ErrMissingFaceSource
	}
	if err := pool.Validate(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Hero:  make([]Symbol, 0, pool.Hero),
		Red:   make([]Symbol, 0, pool.Red),
		Black: make([]Symbol, 0, pool.Black),
	}
	groups := []struct {
		kind  Kind
		count int
		into  *[]Symbol
	}{
		{KindHero, pool.Hero, &outcome.Hero},
		{KindRed, pool.Red, &outcome.Red},
		{KindBlack, pool.Black, &outcome.Black},
	}
	for _, group := range groups {
		for i := 0; i < group.count; i++ {
			symbol, suns, skulls, err := Resolve(group.kind, src.Face())
			if err != nil {
				return Outcome{}, err
			}
			*group.into = append(*group.into, symbol)
			outcome.Suns += suns
			outcome.Skulls += skulls
		}
	}
	return outcome, nil
}

// Text renders the outcome as the plain-text line shown in the room log.
func (o Outcome) Text() string {
	var b strings.Builder
	for _, symbols := range [][]Symbol{o.Hero, o.Red, o.Black} {
		b.WriteString(" ")
		b.WriteString(joinSymbols(symbols))
	}
	fmt.Fprintf(&b, "\nSuns: %d\nSkulls: %d", o.Suns, o.Skulls)
	return b.String()
}

func joinSymbols(symbols []Symbol) string {
	parts := make([]string, len(symbols))
	for i, symbol := range symbols {
		parts[i] = string(symbol)
	}
	return strings.Join(parts, " ")
}
