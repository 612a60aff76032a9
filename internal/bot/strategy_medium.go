package bot

import (
	"math/rand"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// MediumBot plays a fixed priority list: finish an own set, punish an
// opponent closing in on the win, extend properties, charge rent, then bank
// the cheapest card.
type MediumBot struct{}

func (b *MediumBot) DecideMove(view *game.GameView, rng *rand.Rand) Move {
	obs := observe(view)
	if obs.me == nil || len(obs.me.Hand) == 0 {
		return Move{EndTurn: true}
	}

	if card, color, ok := obs.playThatCompletesSet(); ok {
		return playProperty(card, color)
	}

	if opp := obs.opponentWithCompleteSets(2); opp != nil {
		if breaker, held := obs.handAction(cards.ActionDealBreaker); held {
			if victimID, color, ok := obs.dealBreakerTarget(); ok && victimID == opp.PlayerID {
				return Move{Play: game.PlayRequest{
					CardID:         breaker.ID,
					Destination:    rules.DestAction,
					TargetPlayerID: victimID,
					TargetColor:    color,
				}}
			}
		}
	}

	if card, color, ok := obs.firstPropertyPlay(); ok {
		return playProperty(card, color)
	}

	if obs.hasCompleteSet() {
		if card, color, _, ok := obs.rentPlay(true); ok {
			return Move{Play: game.PlayRequest{
				CardID:      card.ID,
				Destination: rules.DestAction,
				TargetColor: color,
			}}
		}
	}

	if card, ok := obs.lowestValueBankable(); ok {
		return playBank(card)
	}

	return Move{EndTurn: true}
}

func (b *MediumBot) OnEvent(rules.Event) {}
