package bot

import (
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// maxMovesPerTurn bounds a single bot turn so a misbehaving strategy can
// never spin: three plays plus a draw and an end-turn is the legal maximum,
// the rest is slack for rejected plays.
const maxMovesPerTurn = 10

// Runner drives bot seats through the engine's public operations. It owns one
// brain per registered bot and a seeded RNG shared across decisions.
type Runner struct {
	engine *game.DealEngine
	logger *zap.Logger

	mu     sync.Mutex
	brains map[string]Brain
	rng    *rand.Rand
}

// NewRunner creates a runner over an engine. The seed fixes the easy tier's
// randomness for reproducible games.
func NewRunner(engine *game.DealEngine, logger *zap.Logger, seed int64) *Runner {
	return &Runner{
		engine: engine,
		logger: logger,
		brains: make(map[string]Brain),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Register creates a brain for a bot seat and wires it to the game's event
// stream.
func (r *Runner) Register(gameID, playerID string, level Level) error {
	brain, err := NewBrain(level)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.brains[playerID] = brain
	r.mu.Unlock()

	return r.engine.Subscribe(gameID, func(event rules.Event) {
		brain.OnEvent(event)
	})
}

func (r *Runner) brainFor(playerID string) (Brain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	brain, ok := r.brains[playerID]
	return brain, ok
}

// RunTurn plays out a bot's turn: draw, then decide and submit moves until
// the brain ends the turn, the engine rotates the seat, or a human sub-phase
// blocks progress. Safe to call again after the sub-phase resolves; it picks
// up where the turn left off.
func (r *Runner) RunTurn(gameID, playerID string) error {
	brain, ok := r.brainFor(playerID)
	if !ok {
		return fmt.Errorf("no brain registered for player %s", playerID)
	}

	view, err := r.engine.GetGameView(gameID, playerID)
	if err != nil {
		return err
	}
	if view.ActivePlayer != playerID {
		return nil
	}

	if view.Phase == rules.PhaseDraw.String() {
		if err := r.engine.DrawCards(gameID, playerID); err != nil {
			return err
		}
	}

	for i := 0; i < maxMovesPerTurn; i++ {
		view, err = r.engine.GetGameView(gameID, playerID)
		if err != nil {
			return err
		}
		if view.ActivePlayer != playerID || view.Phase != rules.PhasePlaying.String() {
			// Turn rotated, game ended, or a human victim owes a response.
			return nil
		}

		r.mu.Lock()
		move := brain.DecideMove(view, r.rng)
		r.mu.Unlock()

		if move.EndTurn {
			return r.engine.EndTurn(gameID, playerID)
		}

		if err := r.engine.PlayCard(gameID, playerID, move.Play); err != nil {
			// A rejected play means the brain misjudged legality; end the
			// turn rather than retry the same decision forever.
			if r.logger != nil {
				r.logger.Warn("bot play rejected, ending turn",
					zap.String("game_id", gameID),
					zap.String("player_id", playerID),
					zap.String("card_id", move.Play.CardID),
					zap.Error(err),
				)
			}
			return r.engine.EndTurn(gameID, playerID)
		}
	}

	return r.engine.EndTurn(gameID, playerID)
}
