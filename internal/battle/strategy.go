package battle

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects which enemy squad a squad attacks.
type Strategy int

const (
	StrategyStrongest Strategy = iota + 1
	StrategyWeakest
	StrategyRandom
)

// Valid reports whether s is one of the three known strategies.
func (s Strategy) Valid() bool {
	return s >= StrategyStrongest && s <= StrategyRandom
}

func (s Strategy) String() string {
	switch s {
	case StrategyStrongest:
		return "strongest"
	case StrategyWeakest:
		return "weakest"
	case StrategyRandom:
		return "random"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts a strategy number (1, 2, 3) or its name.
func ParseStrategy(v string) (Strategy, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := Strategy(n)
		if !s.Valid() {
			return 0, fmt.Errorf("wrong number (%d): %w", n, ErrInvalidStrategy)
		}
		return s, nil
	}

	switch v {
	case "strongest":
		return StrategyStrongest, nil
	case "weakest":
		return StrategyWeakest, nil
	case "random":
		return StrategyRandom, nil
	}
	return 0, fmt.Errorf("unknown strategy %q: %w", v, ErrInvalidStrategy)
}
