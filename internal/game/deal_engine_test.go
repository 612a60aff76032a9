package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

var testCardSeq int

func nextCardID() string {
	testCardSeq++
	return fmt.Sprintf("test-card-%d", testCardSeq)
}

func moneyCard(value int) *cards.Card {
	return &cards.Card{ID: nextCardID(), Kind: cards.KindMoney, Name: fmt.Sprintf("%dM", value), Value: value}
}

func propertyCard(color cards.Color, name string, value int) *cards.Card {
	return &cards.Card{ID: nextCardID(), Kind: cards.KindProperty, Name: name, Value: value, Color: color}
}

func actionCard(action cards.ActionKind, name string, value int) *cards.Card {
	return &cards.Card{ID: nextCardID(), Kind: cards.KindAction, Name: name, Value: value, Action: action}
}

func dualWildCard(a, b cards.Color, value int) *cards.Card {
	return &cards.Card{ID: nextCardID(), Kind: cards.KindPropertyWild, Name: "Wild Property", Value: value, Colors: []cards.Color{a, b}, CurrentColor: a}
}

func rentCardFor(a, b cards.Color) *cards.Card {
	return &cards.Card{ID: nextCardID(), Kind: cards.KindRent, Name: "Rent", Value: 1, Colors: []cards.Color{a, b}}
}

func newTestEngine() *DealEngine {
	return NewDealEngine(zap.NewNop(), WithSeedSource(func() int64 { return 42 }))
}

// startTestGame creates a two-seat game and returns the engine, the state,
// and both players. p2Bot controls whether the second seat auto-resolves
// reactions and payments.
func startTestGame(t *testing.T, p2Bot bool) (*DealEngine, *engineGameState, *internalPlayer, *internalPlayer) {
	t.Helper()
	e := newTestEngine()
	require.NoError(t, e.StartGame("game-1", []PlayerSpec{
		{PlayerID: "p1", Name: "Alice"},
		{PlayerID: "p2", Name: "Bob", IsBot: p2Bot},
	}))
	gs, err := e.findGame("game-1")
	require.NoError(t, err)
	return e, gs, gs.players["p1"], gs.players["p2"]
}

// beginTurn performs the active player's draw so plays become legal.
func beginTurn(t *testing.T, e *DealEngine, playerID string) {
	t.Helper()
	require.NoError(t, e.DrawCards("game-1", playerID))
}

func TestStartGameDealsAndConserves(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)

	assert.Equal(t, rules.PhaseDraw, gs.turn.Phase())
	assert.Equal(t, "p1", gs.turn.ActivePlayer())
	assert.Len(t, p1.Hand, 5)
	assert.Len(t, p2.Hand, 5)

	total, err := e.CountCards("game-1")
	require.NoError(t, err)
	assert.Equal(t, cards.DeckSize, total)
}

func TestStartGameRejectsDuplicateAndShortSeats(t *testing.T) {
	e := newTestEngine()
	err := e.StartGame("g", []PlayerSpec{{PlayerID: "solo"}})
	assert.Error(t, err)

	err = e.StartGame("g", []PlayerSpec{{PlayerID: "a"}, {PlayerID: "a"}})
	assert.Error(t, err)
}

func TestDrawOpensPlayingPhase(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)

	beginTurn(t, e, "p1")
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
	assert.Equal(t, rules.MovesPerTurn, gs.turn.MovesLeft())
	assert.Len(t, p1.Hand, 7)

	total, err := e.CountCards("game-1")
	require.NoError(t, err)
	assert.Equal(t, cards.DeckSize, total)
}

func TestDrawFiveOnEmptyHand(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)

	// Empty hand goes back to the deck to keep the count honest.
	gs.deck = append(gs.deck, p1.Hand...)
	p1.Hand = nil

	beginTurn(t, e, "p1")
	assert.Len(t, p1.Hand, rules.DrawOnEmptyHand)
}

func TestDrawOutOfTurnRejected(t *testing.T) {
	e, gs, _, _ := startTestGame(t, false)

	err := e.DrawCards("game-1", "p2")
	assert.Error(t, err)
	assert.Equal(t, rules.PhaseDraw, gs.turn.Phase())
}

func TestBankCardConsumesMove(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	money := moneyCard(5)
	p1.Hand = append(p1.Hand, money)

	err := e.PlayCard("game-1", "p1", PlayRequest{CardID: money.ID, Destination: rules.DestBank})
	require.NoError(t, err)

	assert.NotNil(t, findCard(p1.Bank, money.ID))
	assert.Nil(t, findCard(p1.Hand, money.ID))
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestBankedPropertyRejectedWithoutCost(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	prop := propertyCard(cards.ColorRed, "Kentucky Avenue", 3)
	p1.Hand = append(p1.Hand, prop)

	err := e.PlayCard("game-1", "p1", PlayRequest{CardID: prop.ID, Destination: rules.DestBank})
	assert.Error(t, err)
	assert.NotNil(t, findCard(p1.Hand, prop.ID))
	assert.Empty(t, p1.Bank)
	assert.Equal(t, rules.MovesPerTurn, gs.turn.MovesLeft())
}

func TestThirdMoveEndsTurnAutomatically(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	// Trim the drawn hand so the auto end-of-turn has nothing to discard.
	gs.deck = append(gs.deck, p1.Hand...)
	p1.Hand = nil

	for i := 0; i < rules.MovesPerTurn; i++ {
		money := moneyCard(1)
		p1.Hand = append(p1.Hand, money)
		require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{CardID: money.ID, Destination: rules.DestBank}))
	}

	assert.Equal(t, "p2", gs.turn.ActivePlayer())
	assert.Equal(t, rules.PhaseDraw, gs.turn.Phase())
}

func TestEndTurnTrimsHandToLimit(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	for len(p1.Hand) < rules.HandLimit+2 {
		p1.Hand = append(p1.Hand, moneyCard(1))
	}
	discardBefore := len(gs.discard)

	require.NoError(t, e.EndTurn("game-1", "p1"))
	assert.Len(t, p1.Hand, rules.HandLimit)
	assert.Equal(t, discardBefore+2, len(gs.discard))
	assert.Equal(t, "p2", gs.turn.ActivePlayer())
}

func TestPassGoDrawsTwo(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	passGo := actionCard(cards.ActionPassGo, "Pass Go", 1)
	p1.Hand = append(p1.Hand, passGo)
	handBefore := len(p1.Hand)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{CardID: passGo.ID, Destination: rules.DestAction}))

	// Pass Go leaves the hand, two cards arrive.
	assert.Len(t, p1.Hand, handBefore-1+PassGoDrawCount)
	assert.NotNil(t, findCard(gs.discard, passGo.ID))
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestDebtCollectorBotPaysFromBank(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	collector := actionCard(cards.ActionDebtCollector, "Debt Collector", 3)
	p1.Hand = append(p1.Hand, collector)
	p2.Hand = nil
	p2.Bank = append(p2.Bank, moneyCard(5))

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         collector.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
	}))

	assert.Nil(t, gs.pending)
	assert.Empty(t, p2.Bank)
	assert.Equal(t, 5, bankTotal(p1))
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestDebtForgivenForBrokePlayer(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)
	beginTurn(t, e, "p1")

	collector := actionCard(cards.ActionDebtCollector, "Debt Collector", 3)
	p1.Hand = append(p1.Hand, collector)
	p2.Hand = nil // no Just Say No, no assets

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         collector.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
	}))

	// Human victim with nothing to pay never enters the payment sub-phase.
	assert.Nil(t, gs.pending)
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
	assert.Empty(t, p1.Bank)
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestBotCancelsWithJustSayNo(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	target := propertyCard(cards.ColorGreen, "Pacific Avenue", 4)
	p2.Properties = append(p2.Properties, target)
	jsn := actionCard(cards.ActionJustSayNo, "Just Say No", 4)
	p2.Hand = []*cards.Card{jsn}

	sly := actionCard(cards.ActionSlyDeal, "Sly Deal", 3)
	p1.Hand = append(p1.Hand, sly)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         sly.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetCardID:   target.ID,
	}))

	// Cancelled, but the Sly Deal stays discarded and its move stays spent.
	assert.NotNil(t, findCard(p2.Properties, target.ID))
	assert.Empty(t, p1.Properties)
	assert.NotNil(t, findCard(gs.discard, jsn.ID))
	assert.Equal(t, 1, p2.JustSayNosPlayed)
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestHumanReactionWindowAccept(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)
	beginTurn(t, e, "p1")

	target := propertyCard(cards.ColorGreen, "Pacific Avenue", 4)
	p2.Properties = append(p2.Properties, target)
	p2.Hand = append(p2.Hand, actionCard(cards.ActionJustSayNo, "Just Say No", 4))

	sly := actionCard(cards.ActionSlyDeal, "Sly Deal", 3)
	p1.Hand = append(p1.Hand, sly)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         sly.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetCardID:   target.ID,
	}))
	assert.Equal(t, rules.PhaseTargetSelect, gs.turn.Phase())

	require.NoError(t, e.AcceptAction("game-1", "p2"))
	assert.NotNil(t, findCard(p1.Properties, target.ID))
	assert.Nil(t, findCard(p2.Properties, target.ID))
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestHumanReactionWindowJustSayNo(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)
	beginTurn(t, e, "p1")

	target := propertyCard(cards.ColorGreen, "Pacific Avenue", 4)
	p2.Properties = append(p2.Properties, target)
	jsn := actionCard(cards.ActionJustSayNo, "Just Say No", 4)
	p2.Hand = []*cards.Card{jsn}

	sly := actionCard(cards.ActionSlyDeal, "Sly Deal", 3)
	p1.Hand = append(p1.Hand, sly)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         sly.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetCardID:   target.ID,
	}))
	require.NoError(t, e.ReactWithJustSayNo("game-1", "p2"))

	assert.NotNil(t, findCard(p2.Properties, target.ID))
	assert.Nil(t, findCard(p2.Hand, jsn.ID))
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestHumanPaymentSelection(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)
	beginTurn(t, e, "p1")

	collector := actionCard(cards.ActionDebtCollector, "Debt Collector", 3)
	p1.Hand = append(p1.Hand, collector)
	p2.Hand = nil // no Just Say No
	three := moneyCard(3)
	ten := moneyCard(10)
	p2.Bank = append(p2.Bank, three, ten)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         collector.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
	}))
	assert.Equal(t, rules.PhaseRequestPayment, gs.turn.Phase())

	// An undersized selection is rejected while more assets remain.
	err := e.ConfirmPayment("game-1", "p2", nil)
	assert.Error(t, err)
	err = e.ConfirmPayment("game-1", "p2", []string{three.ID})
	assert.Error(t, err)
	assert.Equal(t, rules.PhaseRequestPayment, gs.turn.Phase())

	// Overpaying with the $10 settles the debt; no change is given.
	require.NoError(t, e.ConfirmPayment("game-1", "p2", []string{ten.ID}))
	assert.Equal(t, 10, bankTotal(p1))
	assert.NotNil(t, findCard(p2.Bank, three.ID))
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
	assert.Equal(t, 2, gs.turn.MovesLeft())
}

func TestPaymentRejectsDuplicateCardSelection(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, false)
	beginTurn(t, e, "p1")

	collector := actionCard(cards.ActionDebtCollector, "Debt Collector", 3)
	p1.Hand = append(p1.Hand, collector)
	p2.Hand = nil
	three := moneyCard(3)
	two := moneyCard(2)
	p2.Bank = append(p2.Bank, three, two)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         collector.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
	}))
	assert.Equal(t, rules.PhaseRequestPayment, gs.turn.Phase())

	// Listing the same card twice must not inflate the covered amount.
	err := e.ConfirmPayment("game-1", "p2", []string{three.ID, three.ID})
	assert.Error(t, err)
	assert.Equal(t, rules.PhaseRequestPayment, gs.turn.Phase())
	assert.Equal(t, 0, bankTotal(p1))
	assert.Equal(t, 5, bankTotal(p2))

	require.NoError(t, e.ConfirmPayment("game-1", "p2", []string{three.ID, two.ID}))
	assert.Equal(t, 5, bankTotal(p1))
	assert.Empty(t, p2.Bank)
	assert.Equal(t, rules.PhasePlaying, gs.turn.Phase())
}

func TestPaymentWithPropertyJoinsCreditorProperties(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	collector := actionCard(cards.ActionDebtCollector, "Debt Collector", 3)
	p1.Hand = append(p1.Hand, collector)
	p2.Hand = nil
	prop := propertyCard(cards.ColorBrown, "Baltic Avenue", 1)
	p2.Properties = append(p2.Properties, prop)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         collector.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
	}))

	// Bank was empty, so the property settles the debt and stays a property.
	assert.NotNil(t, findCard(p1.Properties, prop.ID))
	assert.Empty(t, p1.Bank)
	assert.Nil(t, gs.pending)
}

func TestRentThenDoubleRent(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	p1.Properties = append(p1.Properties, propertyCard(cards.ColorDarkBlue, "Park Place", 4))
	rent := rentCardFor(cards.ColorDarkBlue, cards.ColorGreen)
	double := actionCard(cards.ActionDoubleRent, "Double The Rent", 1)
	p1.Hand = append(p1.Hand, rent, double)
	p2.Hand = nil
	p2.Bank = append(p2.Bank, moneyCard(3), moneyCard(3))

	// One dark blue property charges 3.
	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:      rent.ID,
		Destination: rules.DestAction,
		TargetColor: cards.ColorDarkBlue,
	}))
	assert.Equal(t, 3, bankTotal(p1))
	require.NotNil(t, gs.lastRent)
	assert.Equal(t, 3, gs.lastRent.Amount)

	// Double The Rent repeats the identical charge.
	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:      double.ID,
		Destination: rules.DestAction,
	}))
	assert.Equal(t, 6, bankTotal(p1))
	assert.Nil(t, gs.lastRent)
	assert.Equal(t, 1, gs.turn.MovesLeft())
}

func TestDoubleRentWithoutPrecedingRentRejected(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, true)
	beginTurn(t, e, "p1")

	double := actionCard(cards.ActionDoubleRent, "Double The Rent", 1)
	p1.Hand = append(p1.Hand, double)

	err := e.PlayCard("game-1", "p1", PlayRequest{CardID: double.ID, Destination: rules.DestAction})
	assert.Error(t, err)
	assert.NotNil(t, findCard(p1.Hand, double.ID))
	assert.Equal(t, rules.MovesPerTurn, gs.turn.MovesLeft())
}

func TestBankPlayClearsRentContext(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	p1.Properties = append(p1.Properties, propertyCard(cards.ColorDarkBlue, "Park Place", 4))
	rent := rentCardFor(cards.ColorDarkBlue, cards.ColorGreen)
	money := moneyCard(2)
	p1.Hand = append(p1.Hand, rent, money)
	p2.Hand = nil
	p2.Bank = append(p2.Bank, moneyCard(3))

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:      rent.ID,
		Destination: rules.DestAction,
		TargetColor: cards.ColorDarkBlue,
	}))
	require.NotNil(t, gs.lastRent)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{CardID: money.ID, Destination: rules.DestBank}))
	assert.Nil(t, gs.lastRent)
}

func TestForcedDealSwapsProperties(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	mine := propertyCard(cards.ColorBrown, "Baltic Avenue", 1)
	theirs := propertyCard(cards.ColorGreen, "Pacific Avenue", 4)
	p1.Properties = append(p1.Properties, mine)
	p2.Properties = append(p2.Properties, theirs)
	p2.Hand = nil

	forced := actionCard(cards.ActionForcedDeal, "Forced Deal", 3)
	p1.Hand = append(p1.Hand, forced)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         forced.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetCardID:   theirs.ID,
		AuxCardID:      mine.ID,
	}))

	assert.NotNil(t, findCard(p1.Properties, theirs.ID))
	assert.NotNil(t, findCard(p2.Properties, mine.ID))
	assert.Nil(t, gs.pending)
}

func TestDealBreakerTakesWholeSet(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	a := propertyCard(cards.ColorDarkBlue, "Park Place", 4)
	b := propertyCard(cards.ColorDarkBlue, "Boardwalk", 4)
	house := actionCard(cards.ActionHouse, "House", 3)
	house.CurrentColor = cards.ColorDarkBlue
	other := propertyCard(cards.ColorRed, "Kentucky Avenue", 3)
	p2.Properties = append(p2.Properties, a, b, house, other)
	p2.Hand = nil

	breaker := actionCard(cards.ActionDealBreaker, "Deal Breaker", 5)
	p1.Hand = append(p1.Hand, breaker)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         breaker.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetColor:    cards.ColorDarkBlue,
	}))

	// Both properties and the attached house move; unrelated cards stay.
	assert.NotNil(t, findCard(p1.Properties, a.ID))
	assert.NotNil(t, findCard(p1.Properties, b.ID))
	assert.NotNil(t, findCard(p1.Properties, house.ID))
	assert.NotNil(t, findCard(p2.Properties, other.ID))
	assert.Nil(t, gs.pending)
}

func TestSlyDealCannotTouchCompleteSet(t *testing.T) {
	e, gs, p1, p2 := startTestGame(t, true)
	beginTurn(t, e, "p1")

	a := propertyCard(cards.ColorDarkBlue, "Park Place", 4)
	b := propertyCard(cards.ColorDarkBlue, "Boardwalk", 4)
	p2.Properties = append(p2.Properties, a, b)

	sly := actionCard(cards.ActionSlyDeal, "Sly Deal", 3)
	p1.Hand = append(p1.Hand, sly)

	err := e.PlayCard("game-1", "p1", PlayRequest{
		CardID:         sly.ID,
		Destination:    rules.DestAction,
		TargetPlayerID: "p2",
		TargetCardID:   a.ID,
	})
	assert.Error(t, err)
	assert.NotNil(t, findCard(p2.Properties, a.ID))
	assert.Equal(t, rules.MovesPerTurn, gs.turn.MovesLeft())
}

func TestFlipWildDisplacesBuilding(t *testing.T) {
	e, _, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	fixed := propertyCard(cards.ColorDarkBlue, "Park Place", 4)
	wild := dualWildCard(cards.ColorDarkBlue, cards.ColorGreen, 4)
	house := actionCard(cards.ActionHouse, "House", 3)
	house.CurrentColor = cards.ColorDarkBlue
	p1.Properties = append(p1.Properties, fixed, wild, house)

	require.NoError(t, e.FlipWildCard("game-1", "p1", wild.ID, cards.ColorGreen))

	// Breaking the dark blue set pushes the house into the bank.
	assert.Nil(t, findCard(p1.Properties, house.ID))
	assert.NotNil(t, findCard(p1.Bank, house.ID))
	assert.Equal(t, cards.ColorNone, house.CurrentColor)
}

func TestWinOnThirdCompleteSet(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	p1.Properties = append(p1.Properties,
		propertyCard(cards.ColorBrown, "Baltic Avenue", 1),
		propertyCard(cards.ColorBrown, "Mediterranean Avenue", 1),
		propertyCard(cards.ColorDarkBlue, "Park Place", 4),
		propertyCard(cards.ColorDarkBlue, "Boardwalk", 4),
		propertyCard(cards.ColorUtility, "Electric Company", 2),
	)
	final := propertyCard(cards.ColorUtility, "Water Works", 2)
	p1.Hand = append(p1.Hand, final)

	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{
		CardID:      final.ID,
		Destination: rules.DestProperties,
	}))

	assert.Equal(t, "p1", gs.winnerID)
	assert.Equal(t, rules.PhaseGameOver, gs.turn.Phase())

	// Terminal state accepts no further plays.
	extra := moneyCard(1)
	p1.Hand = append(p1.Hand, extra)
	err := e.PlayCard("game-1", "p1", PlayRequest{CardID: extra.ID, Destination: rules.DestBank})
	assert.Error(t, err)
}

func TestGameViewRedactsOpponentHand(t *testing.T) {
	e, _, _, _ := startTestGame(t, false)

	view, err := e.GetGameView("game-1", "p1")
	require.NoError(t, err)

	var mine, theirs *PlayerView
	for i := range view.Players {
		switch view.Players[i].PlayerID {
		case "p1":
			mine = &view.Players[i]
		case "p2":
			theirs = &view.Players[i]
		}
	}
	require.NotNil(t, mine)
	require.NotNil(t, theirs)
	assert.Len(t, mine.Hand, 5)
	assert.Empty(t, theirs.Hand)
	assert.Equal(t, 5, theirs.HandCount)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	before := gs.snapshot()
	beforeSum, err := before.ComputeChecksum()
	require.NoError(t, err)

	// Mutate heavily, then roll back.
	p1.Bank = append(p1.Bank, moneyCard(10))
	gs.discard = append(gs.discard, p1.Hand...)
	p1.Hand = nil
	gs.winnerID = "p1"

	gs.restore(before)
	after := gs.snapshot()
	afterSum, err := after.ComputeChecksum()
	require.NoError(t, err)

	assert.Equal(t, beforeSum.Hash, afterSum.Hash)
	assert.Empty(t, gs.winnerID)
	assert.Len(t, gs.players["p1"].Hand, 7)
}

func TestRestoreDropsLogEntriesAfterBookmark(t *testing.T) {
	e, gs, p1, _ := startTestGame(t, true)
	beginTurn(t, e, "p1")

	bookmark := gs.snapshot()
	logBefore := len(gs.log)

	money := moneyCard(2)
	p1.Hand = append(p1.Hand, money)
	require.NoError(t, e.PlayCard("game-1", "p1", PlayRequest{CardID: money.ID, Destination: rules.DestBank}))
	require.Greater(t, len(gs.log), logBefore)

	// Rolling back to the bookmark must also drop the audit lines the play
	// wrote, or the log would describe a play that never happened.
	gs.restore(bookmark)
	assert.Len(t, gs.log, logBefore)
}

func TestChecksumDetectsDivergence(t *testing.T) {
	_, gs, _, _ := startTestGame(t, false)

	snapA := gs.snapshot()
	gs.players["p1"].Bank = append(gs.players["p1"].Bank, moneyCard(1))
	snapB := gs.snapshot()

	sumA, err := snapA.ComputeChecksum()
	require.NoError(t, err)
	sumB, err := snapB.ComputeChecksum()
	require.NoError(t, err)
	assert.NotEqual(t, sumA.Hash, sumB.Hash)

	ok, err := snapB.VerifyChecksum(sumB)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSerializationRoundTrip(t *testing.T) {
	_, gs, _, _ := startTestGame(t, false)

	require.NoError(t, ValidateSerializationRoundtrip(gs.snapshot()))
}

func TestMatchLogAccumulates(t *testing.T) {
	e, _, _, _ := startTestGame(t, false)
	beginTurn(t, e, "p1")

	log, err := e.MatchLog("game-1")
	require.NoError(t, err)
	assert.NotEmpty(t, log)
}

func bankTotal(p *internalPlayer) int {
	total := 0
	for _, c := range p.Bank {
		total += c.Value
	}
	return total
}
