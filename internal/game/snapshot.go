package game

import (
	"time"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// gameStateSnapshot is a complete deep copy of a game state, used for
// rollback on failed plays and for replay recording. Fields are exported for
// gob encoding.
type gameStateSnapshot struct {
	GameID      string
	Phase       rules.Phase
	TurnNumber  int
	TurnIndex   int
	MovesLeft   int
	WinnerID    string
	PlayerOrder []string
	Players     map[string]*playerSnapshot
	Deck        []*cards.Card
	Discard     []*cards.Card
	Pending     *pendingAction
	LastRent    *rentContext
	LogLen      int
	Timestamp   time.Time
}

type playerSnapshot struct {
	PlayerID         string
	Name             string
	IsBot            bool
	Hand             []*cards.Card
	Bank             []*cards.Card
	Properties       []*cards.Card
	JustSayNosPlayed int
}

func copyCard(c *cards.Card) *cards.Card {
	cp := *c
	if c.Colors != nil {
		cp.Colors = append([]cards.Color(nil), c.Colors...)
	}
	return &cp
}

func copyCards(list []*cards.Card) []*cards.Card {
	out := make([]*cards.Card, len(list))
	for i, c := range list {
		out[i] = copyCard(c)
	}
	return out
}

func copyPending(p *pendingAction) *pendingAction {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Queue = append([]string(nil), p.Queue...)
	cp.AllVictims = append([]string(nil), p.AllVictims...)
	return &cp
}

func copyRentContext(r *rentContext) *rentContext {
	if r == nil {
		return nil
	}
	cp := *r
	cp.VictimIDs = append([]string(nil), r.VictimIDs...)
	return &cp
}

// snapshot deep-copies the full game state. Caller holds the game lock.
func (gs *engineGameState) snapshot() *gameStateSnapshot {
	snap := &gameStateSnapshot{
		GameID:      gs.gameID,
		Phase:       gs.turn.Phase(),
		TurnNumber:  gs.turn.TurnNumber(),
		TurnIndex:   gs.turn.TurnIndex(),
		MovesLeft:   gs.turn.MovesLeft(),
		WinnerID:    gs.winnerID,
		PlayerOrder: append([]string(nil), gs.playerOrder...),
		Players:     make(map[string]*playerSnapshot, len(gs.players)),
		Deck:        copyCards(gs.deck),
		Discard:     copyCards(gs.discard),
		Pending:     copyPending(gs.pending),
		LastRent:    copyRentContext(gs.lastRent),
		LogLen:      len(gs.log),
		Timestamp:   time.Now(),
	}
	for id, p := range gs.players {
		snap.Players[id] = &playerSnapshot{
			PlayerID:         p.PlayerID,
			Name:             p.Name,
			IsBot:            p.IsBot,
			Hand:             copyCards(p.Hand),
			Bank:             copyCards(p.Bank),
			Properties:       copyCards(p.Properties),
			JustSayNosPlayed: p.JustSayNosPlayed,
		}
	}
	return snap
}

// restore rewrites the game state from a snapshot. The snapshot stays valid
// for further restores. Caller holds the game lock.
func (gs *engineGameState) restore(snap *gameStateSnapshot) {
	gs.winnerID = snap.WinnerID
	gs.playerOrder = append([]string(nil), snap.PlayerOrder...)
	gs.deck = copyCards(snap.Deck)
	gs.discard = copyCards(snap.Discard)
	gs.pending = copyPending(snap.Pending)
	gs.lastRent = copyRentContext(snap.LastRent)
	gs.turn = rules.RestoreTurnManager(snap.PlayerOrder, snap.TurnIndex, snap.TurnNumber, snap.Phase, snap.MovesLeft)
	if snap.LogLen < len(gs.log) {
		gs.log = gs.log[:snap.LogLen]
	}

	gs.players = make(map[string]*internalPlayer, len(snap.Players))
	for id, p := range snap.Players {
		gs.players[id] = &internalPlayer{
			PlayerID:         p.PlayerID,
			Name:             p.Name,
			IsBot:            p.IsBot,
			Hand:             copyCards(p.Hand),
			Bank:             copyCards(p.Bank),
			Properties:       copyCards(p.Properties),
			JustSayNosPlayed: p.JustSayNosPlayed,
		}
	}
}
