package bot

import (
	"math/rand"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// EasyBot plays mostly at random: sometimes it banks an arbitrary card,
// otherwise it lays the first property it holds, banks money, or plays a
// simple action on a coin flip.
type EasyBot struct{}

func (b *EasyBot) DecideMove(view *game.GameView, rng *rand.Rand) Move {
	obs := observe(view)
	if obs.me == nil || len(obs.me.Hand) == 0 {
		return Move{EndTurn: true}
	}

	if bankable := obs.handBankable(); len(bankable) > 0 && rng.Float64() < 0.30 {
		return playBank(bankable[rng.Intn(len(bankable))])
	}

	if card, color, ok := obs.firstPropertyPlay(); ok {
		return playProperty(card, color)
	}

	if money := obs.handMoney(); len(money) > 0 {
		return playBank(money[0])
	}

	if action, ok := b.simpleAction(obs); ok && rng.Float64() < 0.50 {
		return action
	}

	return Move{EndTurn: true}
}

// simpleAction picks an action the easy tier can play without any targeting
// judgement.
func (b *EasyBot) simpleAction(obs *observation) (Move, bool) {
	if card, ok := obs.handAction(cards.ActionPassGo); ok {
		return Move{Play: game.PlayRequest{CardID: card.ID, Destination: rules.DestAction}}, true
	}
	if card, ok := obs.handAction(cards.ActionBirthday); ok {
		return Move{Play: game.PlayRequest{CardID: card.ID, Destination: rules.DestAction}}, true
	}
	if card, ok := obs.handAction(cards.ActionDebtCollector); ok {
		for _, opp := range obs.opponents {
			if opp.BankTotal > 0 || len(opp.Properties) > 0 {
				return Move{Play: game.PlayRequest{
					CardID:         card.ID,
					Destination:    rules.DestAction,
					TargetPlayerID: opp.PlayerID,
				}}, true
			}
		}
	}
	return Move{}, false
}

func (b *EasyBot) OnEvent(rules.Event) {}
