package bot

import (
	"math/rand"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// HardBot extends the medium priorities with a win-now check, targeted
// stealing, building placement, and a weighted valuation of what to bank.
type HardBot struct{}

func (b *HardBot) DecideMove(view *game.GameView, rng *rand.Rand) Move {
	obs := observe(view)
	if obs.me == nil || len(obs.me.Hand) == 0 {
		return Move{EndTurn: true}
	}

	if move, ok := b.pickMove(obs, nil); ok {
		return move
	}
	return Move{EndTurn: true}
}

// pickMove is the shared hard-tier priority chain. avoid lists players the
// caller would rather not target when alternatives exist; the hard tier
// passes nil.
func (b *HardBot) pickMove(obs *observation, avoid map[string]bool) (Move, bool) {
	// Win immediately when a single property play makes the third set.
	if obs.me.CompleteSets >= 2 {
		if card, color, ok := obs.playThatCompletesSet(); ok {
			return playProperty(card, color), true
		}
	}

	if move, ok := b.dealBreakerMove(obs, 2, avoid); ok {
		return move, true
	}

	if card, color, ok := obs.playThatCompletesSet(); ok {
		return playProperty(card, color), true
	}

	if sly, held := obs.handAction(cards.ActionSlyDeal); held {
		if victimID, cardID, ok := obs.slyDealTarget(); ok && !avoid[victimID] {
			return Move{Play: game.PlayRequest{
				CardID:         sly.ID,
				Destination:    rules.DestAction,
				TargetPlayerID: victimID,
				TargetCardID:   cardID,
			}}, true
		}
	}

	if move, ok := b.buildingMove(obs); ok {
		return move, true
	}

	if card, color, ok := obs.firstPropertyPlay(); ok {
		return playProperty(card, color), true
	}

	if card, color, _, ok := obs.rentPlay(false); ok {
		return Move{Play: game.PlayRequest{
			CardID:      card.ID,
			Destination: rules.DestAction,
			TargetColor: color,
		}}, true
	}

	if passGo, held := obs.handAction(cards.ActionPassGo); held {
		return Move{Play: game.PlayRequest{CardID: passGo.ID, Destination: rules.DestAction}}, true
	}

	if card, ok := obs.leastStrategicBankable(DefaultTuning); ok {
		return playBank(card), true
	}

	return Move{}, false
}

func (b *HardBot) dealBreakerMove(obs *observation, minSets int, avoid map[string]bool) (Move, bool) {
	breaker, held := obs.handAction(cards.ActionDealBreaker)
	if !held {
		return Move{}, false
	}
	if obs.opponentWithCompleteSets(minSets) == nil {
		return Move{}, false
	}

	// Prefer the richest complete set held by a non-avoided opponent; fall
	// back to any complete set when every candidate is suspect.
	bestRent := -1
	var victimID string
	var color cards.Color
	for pass := 0; pass < 2 && victimID == ""; pass++ {
		for _, opp := range obs.opponents {
			if opp.CompleteSets < minSets {
				continue
			}
			if pass == 0 && avoid[opp.PlayerID] {
				continue
			}
			for _, s := range opp.Sets {
				if s.IsComplete && s.Rent > bestRent {
					bestRent = s.Rent
					victimID = opp.PlayerID
					color = cards.ParseColor(s.Color)
				}
			}
		}
	}
	if victimID == "" {
		return Move{}, false
	}
	return Move{Play: game.PlayRequest{
		CardID:         breaker.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: victimID,
		TargetColor:    color,
	}}, true
}

// buildingMove places a held House or Hotel onto a complete set.
func (b *HardBot) buildingMove(obs *observation) (Move, bool) {
	if house, held := obs.handAction(cards.ActionHouse); held {
		for i := range obs.me.Sets {
			s := &obs.me.Sets[i]
			if s.IsComplete && s.Houses == 0 {
				return Move{Play: game.PlayRequest{
					CardID:      house.ID,
					Destination: rules.DestProperties,
					TargetColor: cards.ParseColor(s.Color),
				}}, true
			}
		}
	}
	if hotel, held := obs.handAction(cards.ActionHotel); held {
		for i := range obs.me.Sets {
			s := &obs.me.Sets[i]
			if s.IsComplete && s.Houses > 0 && s.Hotels == 0 {
				return Move{Play: game.PlayRequest{
					CardID:      hotel.ID,
					Destination: rules.DestProperties,
					TargetColor: cards.ParseColor(s.Color),
				}}, true
			}
		}
	}
	return Move{}, false
}

func (b *HardBot) OnEvent(rules.Event) {}
