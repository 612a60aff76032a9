package bot

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// Level selects a bot strategy tier.
type Level int

const (
	LevelEasy Level = iota + 1
	LevelMedium
	LevelHard
	LevelExpert
)

var levelNames = map[Level]string{
	LevelEasy:   "easy",
	LevelMedium: "medium",
	LevelHard:   "hard",
	LevelExpert: "expert",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level_%d", int(l))
}

// ParseLevel maps a configuration string to a Level.
func ParseLevel(name string) (Level, error) {
	for level, n := range levelNames {
		if n == strings.ToLower(name) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown bot level %q", name)
}

// Move is the decision made by a brain: either end the turn or submit one
// play request.
type Move struct {
	EndTurn bool
	Play    game.PlayRequest
}

// Brain is the interface all bot strategies implement. DecideMove is a pure
// function of the observable state and the supplied RNG; OnEvent feeds match
// events to tiers that keep heuristics (only the expert tier does).
type Brain interface {
	DecideMove(view *game.GameView, rng *rand.Rand) Move
	OnEvent(event rules.Event)
}
