package dice

import "fmt"

// Kind identifies a die type in a pool.
type Kind string

const (
	KindHero  Kind = "hero"
	KindRed   Kind = "red"
	KindBlack Kind = "black"
)

// Symbol is the face marker shown to players.
type Symbol string

const (
	SymbolSun         Symbol = "☀"
	SymbolBlank       Symbol = "⬜"
	SymbolSkull       Symbol = "💀"
	SymbolDoubleSkull Symbol = "💀💀"
)

// Face bounds for a six-sided die.
const (
	MinFace = 1
	MaxFace = 6
)

// Resolve maps one face of a die kind to its symbol and the suns and skulls it
// contributes.
func Resolve(kind Kind, face int) (symbol Symbol, suns int, skulls int, err error) {
	if face < MinFace || face > MaxFace {
		return "", 0, 0, fmt.Errorf("%w: %d", ErrInvalidFace, face)
	}
	switch kind {
	case KindHero:
		switch {
		case face >= 5:
			return SymbolSun, 1, 0, nil
		case face >= 3:
			return SymbolBlank, 0, 0, nil
		default:
			return SymbolSkull, 0, 1, nil
		}
	case KindRed:
		if face == 3 || face == 4 {
			return SymbolBlank, 0, 0, nil
		}
		return SymbolSkull, 0, 1, nil
	case KindBlack:
		switch {
		case face >= 5:
			return SymbolDoubleSkull, 0, 2, nil
		case face >= 3:
			return SymbolBlank, 0, 0, nil
		default:
			return SymbolSkull, 0, 1, nil
		}
	default:
		return "", 0, 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
