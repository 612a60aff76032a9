package bot

import (
	"math/rand"
	"sync"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// ExpertBot extends the hard tier with one override: the moment any opponent
// holds two complete sets, a held Deal Breaker fires immediately. It also
// remembers who has cancelled actions before and steers steals away from
// those players when it has a choice. The suspicion map is a heuristic, not
// authoritative; a player may hold Just Say No without ever having shown one.
type ExpertBot struct {
	HardBot

	mu       sync.Mutex
	suspects map[string]int
}

func NewExpertBot() *ExpertBot {
	return &ExpertBot{suspects: make(map[string]int)}
}

func (b *ExpertBot) DecideMove(view *game.GameView, rng *rand.Rand) Move {
	obs := observe(view)
	if obs.me == nil || len(obs.me.Hand) == 0 {
		return Move{EndTurn: true}
	}

	avoid := b.suspectSet()

	// An opponent sitting on two complete sets is one set from winning;
	// nothing outranks taking one away right now.
	if move, ok := b.dealBreakerMove(obs, 2, avoid); ok {
		return move
	}

	if move, ok := b.pickMove(obs, avoid); ok {
		return move
	}
	return Move{EndTurn: true}
}

func (b *ExpertBot) suspectSet() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]bool, len(b.suspects))
	for id, seen := range b.suspects {
		if seen > 0 {
			out[id] = true
		}
	}
	return out
}

// OnEvent watches for cancelled actions: a player who produced one Just Say
// No is assumed capable of producing another.
func (b *ExpertBot) OnEvent(event rules.Event) {
	if event.Type != rules.EventActionCancelled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspects[event.PlayerID]++
}
