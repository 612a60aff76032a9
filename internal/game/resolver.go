package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/payment"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
	"github.com/dealhaus/deal-server-go/internal/game/sets"
)

// PassGoDrawCount is the draw granted by Pass Go, independent of the
// hand-empty rule.
const PassGoDrawCount = 2

// PlayRequest describes a single card play.
type PlayRequest struct {
	CardID         string
	Destination    rules.Destination
	TargetPlayerID string
	TargetCardID   string
	TargetColor    cards.Color
	AuxCardID      string
}

// GameStateAccessor implementation used by the legality checker. Callers hold
// the game lock.

func (gs *engineGameState) FindCard(cardID string) (rules.CardInfo, bool) {
	if c := findCard(gs.deck, cardID); c != nil {
		return rules.CardInfo{Card: c, Zone: rules.ZoneDeck}, true
	}
	if c := findCard(gs.discard, cardID); c != nil {
		return rules.CardInfo{Card: c, Zone: rules.ZoneDiscard}, true
	}
	for _, id := range gs.playerOrder {
		p := gs.players[id]
		if c := findCard(p.Hand, cardID); c != nil {
			return rules.CardInfo{Card: c, OwnerID: id, Zone: rules.ZoneHand}, true
		}
		if c := findCard(p.Bank, cardID); c != nil {
			return rules.CardInfo{Card: c, OwnerID: id, Zone: rules.ZoneBank}, true
		}
		if c := findCard(p.Properties, cardID); c != nil {
			return rules.CardInfo{Card: c, OwnerID: id, Zone: rules.ZoneProperties}, true
		}
	}
	return rules.CardInfo{}, false
}

func (gs *engineGameState) FindPlayer(playerID string) (rules.PlayerInfo, bool) {
	p, ok := gs.players[playerID]
	if !ok {
		return rules.PlayerInfo{}, false
	}
	return rules.PlayerInfo{PlayerID: p.PlayerID, Name: p.Name, IsBot: p.IsBot}, true
}

func (gs *engineGameState) PlayerProperties(playerID string) []*cards.Card {
	p, ok := gs.players[playerID]
	if !ok {
		return nil
	}
	return p.Properties
}

// PlayCard validates and resolves one card play by the active player.
// Rejected plays mutate nothing and consume no move.
func (e *DealEngine) PlayCard(gameID, playerID string, req PlayRequest) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() == rules.PhaseGameOver {
		return fmt.Errorf("game %s has ended", gameID)
	}
	if gs.turn.Phase() != rules.PhasePlaying {
		return e.rejectViolation(gs, playerID, req.CardID, fmt.Sprintf("cannot play in phase %s", gs.turn.Phase()))
	}
	if gs.turn.ActivePlayer() != playerID {
		return e.rejectViolation(gs, playerID, req.CardID, "only the active player may play cards")
	}

	player := gs.players[playerID]
	card := findCard(player.Hand, req.CardID)
	if card == nil {
		return e.rejectMissing(gs, playerID, req.CardID, "card not found in hand")
	}

	result := gs.legality.CheckPlay(rules.PlayContext{
		PlayerID:       playerID,
		Card:           card,
		Destination:    req.Destination,
		TargetPlayerID: req.TargetPlayerID,
		TargetCardID:   req.TargetCardID,
		AuxCardID:      req.AuxCardID,
		TargetColor:    req.TargetColor,
		RentFollowing:  gs.lastRent != nil,
	})
	if !result.Legal {
		if result.Kind == rules.ViolationMissingTarget {
			return e.rejectMissing(gs, playerID, req.CardID, result.Reason)
		}
		return e.rejectViolation(gs, playerID, req.CardID, result.Reason)
	}

	// Recovery bookmark: an internal resolution error restores the pre-play
	// state so no effect is ever half-applied.
	bookmark := gs.snapshot()
	if err := e.resolvePlay(gs, player, card, req); err != nil {
		gs.restore(bookmark)
		if e.logger != nil {
			e.logger.Error("play resolution failed, state restored",
				zap.String("game_id", gameID),
				zap.String("card_id", card.ID),
				zap.Error(err),
			)
		}
		return err
	}

	e.recordReplay(gs)
	e.notifyStateChange(gameID, map[string]interface{}{
		"phase":      gs.turn.Phase().String(),
		"moves_left": gs.turn.MovesLeft(),
	})
	return nil
}

func (e *DealEngine) resolvePlay(gs *engineGameState, player *internalPlayer, card *cards.Card, req PlayRequest) error {
	switch req.Destination {
	case rules.DestBank:
		gs.playToBank(player, card)
	case rules.DestProperties:
		gs.playToProperties(player, card, req.TargetColor)
	case rules.DestAction:
		return gs.playAction(player, card, req)
	}
	return nil
}

func (gs *engineGameState) playToBank(player *internalPlayer, card *cards.Card) {
	player.Hand = removeCard(player.Hand, card.ID)
	player.Bank = append(player.Bank, card)

	evt := rules.NewEvent(rules.EventCardBanked, gs.gameID, player.PlayerID)
	evt.CardID = card.ID
	evt.Amount = card.Value
	evt.Description = fmt.Sprintf("%s banked %s", player.Name, card.Name)
	gs.eventBus.Publish(evt)

	gs.finishPlay(nil)
}

func (gs *engineGameState) playToProperties(player *internalPlayer, card *cards.Card, color cards.Color) {
	player.Hand = removeCard(player.Hand, card.ID)

	switch {
	case card.Kind == cards.KindPropertyWild:
		if color != cards.ColorNone {
			card.CurrentColor = color
		} else if !card.IsRainbowWild() {
			// Dual wilds default to their first printed color.
			card.CurrentColor = card.Colors[0]
		}
	case card.Kind == cards.KindAction:
		// House/Hotel attaching to a complete set.
		card.CurrentColor = color
	}
	player.Properties = append(player.Properties, card)

	evt := rules.NewEvent(rules.EventPropertyPlayed, gs.gameID, player.PlayerID)
	evt.CardID = card.ID
	evt.Description = fmt.Sprintf("%s played %s to properties", player.Name, card.Name)
	gs.eventBus.Publish(evt)

	if gs.checkWin() {
		return
	}
	gs.finishPlay(nil)
}

func (gs *engineGameState) playAction(player *internalPlayer, card *cards.Card, req PlayRequest) error {
	// The triggering card is discarded up front; it stays discarded even when
	// the effect is later cancelled by Just Say No.
	player.Hand = removeCard(player.Hand, card.ID)
	gs.discard = append(gs.discard, card)

	evt := rules.NewEvent(rules.EventActionPlayed, gs.gameID, player.PlayerID)
	evt.CardID = card.ID
	evt.TargetID = req.TargetPlayerID
	evt.Description = fmt.Sprintf("%s played %s", player.Name, card.Name)
	gs.eventBus.Publish(evt)

	switch card.Kind {
	case cards.KindRent, cards.KindRentWild:
		return gs.startRent(player, card, req)
	}

	switch card.Action {
	case cards.ActionPassGo:
		drawn := gs.drawFromDeck(PassGoDrawCount)
		player.Hand = append(player.Hand, drawn...)
		drawEvt := rules.NewEvent(rules.EventCardsDrawn, gs.gameID, player.PlayerID)
		drawEvt.Amount = len(drawn)
		drawEvt.Description = fmt.Sprintf("%s drew %d cards from Pass Go", player.Name, len(drawn))
		gs.eventBus.Publish(drawEvt)
		gs.finishPlay(nil)
		return nil

	case cards.ActionDebtCollector:
		gs.startPending(&pendingAction{
			Kind:         pendingDebt,
			InitiatorID:  player.PlayerID,
			SourceCardID: card.ID,
			Amount:       cards.DebtCollectorAmount,
			Queue:        []string{req.TargetPlayerID},
		})
		return nil

	case cards.ActionBirthday:
		gs.startPending(&pendingAction{
			Kind:         pendingBirthday,
			InitiatorID:  player.PlayerID,
			SourceCardID: card.ID,
			Amount:       cards.BirthdayAmount,
			Queue:        gs.opponentsOf(player.PlayerID),
		})
		return nil

	case cards.ActionSlyDeal:
		gs.startPending(&pendingAction{
			Kind:         pendingSlyDeal,
			InitiatorID:  player.PlayerID,
			SourceCardID: card.ID,
			TargetCardID: req.TargetCardID,
			Queue:        []string{req.TargetPlayerID},
		})
		return nil

	case cards.ActionForcedDeal:
		gs.startPending(&pendingAction{
			Kind:         pendingForcedDeal,
			InitiatorID:  player.PlayerID,
			SourceCardID: card.ID,
			TargetCardID: req.TargetCardID,
			AuxCardID:    req.AuxCardID,
			Queue:        []string{req.TargetPlayerID},
		})
		return nil

	case cards.ActionDealBreaker:
		gs.startPending(&pendingAction{
			Kind:         pendingDealBreaker,
			InitiatorID:  player.PlayerID,
			SourceCardID: card.ID,
			Color:        req.TargetColor,
			Queue:        []string{req.TargetPlayerID},
		})
		return nil

	case cards.ActionDoubleRent:
		last := gs.lastRent
		gs.startPending(&pendingAction{
			Kind:           pendingRent,
			InitiatorID:    player.PlayerID,
			SourceCardID:   card.ID,
			Amount:         last.Amount,
			Color:          last.Color,
			Queue:          append([]string(nil), last.VictimIDs...),
			FromDoubleRent: true,
		})
		return nil

	default:
		return fmt.Errorf("unhandled action kind %s", card.Action)
	}
}

func (gs *engineGameState) startRent(player *internalPlayer, card *cards.Card, req PlayRequest) error {
	groups := sets.Compute(player.Properties)
	target := sets.Find(groups, req.TargetColor)
	if target == nil {
		return fmt.Errorf("rent color %s not held", req.TargetColor)
	}
	amount := target.Rent()

	var victims []string
	if card.Kind == cards.KindRentWild && req.TargetPlayerID != "" {
		victims = []string{req.TargetPlayerID}
	} else {
		victims = gs.opponentsOf(player.PlayerID)
	}

	gs.startPending(&pendingAction{
		Kind:         pendingRent,
		InitiatorID:  player.PlayerID,
		SourceCardID: card.ID,
		Amount:       amount,
		Color:        req.TargetColor,
		Queue:        victims,
	})
	return nil
}

// opponentsOf lists every other player in seat order starting after the
// given player.
func (gs *engineGameState) opponentsOf(playerID string) []string {
	start := 0
	for i, id := range gs.playerOrder {
		if id == playerID {
			start = i
			break
		}
	}
	out := make([]string, 0, len(gs.playerOrder)-1)
	for i := 1; i < len(gs.playerOrder); i++ {
		out = append(out, gs.playerOrder[(start+i)%len(gs.playerOrder)])
	}
	return out
}

func (gs *engineGameState) startPending(p *pendingAction) {
	p.AllVictims = append([]string(nil), p.Queue...)
	gs.pending = p
	gs.advancePending()
}

// advancePending drives the pending effect forward until it either completes
// or blocks on a human decision (reaction window or payment selection).
// Caller holds the game lock.
func (gs *engineGameState) advancePending() {
	for gs.pending != nil {
		p := gs.pending

		if p.CurrentVictim == "" {
			if len(p.Queue) == 0 {
				gs.completePending()
				return
			}
			p.CurrentVictim = p.Queue[0]
			p.Queue = p.Queue[1:]
			p.Stage = stageReaction
		}

		victim := gs.players[p.CurrentVictim]
		if victim == nil {
			p.CurrentVictim = ""
			continue
		}

		switch p.Stage {
		case stageReaction:
			jsn := findJustSayNo(victim.Hand)
			if jsn == nil {
				p.Stage = stageApply
				continue
			}
			if victim.IsBot {
				// Bots always cancel when they can.
				gs.consumeJustSayNo(victim, jsn)
				p.CurrentVictim = ""
				continue
			}
			p.Stage = stageAwaitReaction
			if err := gs.turn.EnterSubPhase(rules.PhaseTargetSelect); err != nil {
				p.Stage = stageApply
				continue
			}
			return

		case stageApply:
			if blocked := gs.applyToVictim(p, victim); blocked {
				return
			}
			p.CurrentVictim = ""

		case stageAwaitReaction, stageAwaitPayment:
			// Blocked on external input.
			return
		}

		if gs.winnerID != "" {
			return
		}
	}
}

// applyToVictim applies the effect to the current victim. Returns true when
// resolution is blocked waiting for the victim's payment selection.
func (gs *engineGameState) applyToVictim(p *pendingAction, victim *internalPlayer) bool {
	switch p.Kind {
	case pendingDebt, pendingBirthday, pendingRent:
		return gs.applyCharge(p, victim)
	case pendingSlyDeal:
		gs.applySlyDeal(p, victim)
	case pendingForcedDeal:
		gs.applyForcedDeal(p, victim)
	case pendingDealBreaker:
		gs.applyDealBreaker(p, victim)
	}
	return false
}

// applyCharge routes a debt through the payment selector for bots, or blocks
// in REQUEST_PAYMENT for a human victim. A victim with no face-up assets
// pays nothing and never enters the sub-phase.
func (gs *engineGameState) applyCharge(p *pendingAction, victim *internalPlayer) bool {
	if p.Kind == pendingRent {
		evt := rules.NewEvent(rules.EventRentCharged, gs.gameID, p.InitiatorID)
		evt.TargetID = victim.PlayerID
		evt.Amount = p.Amount
		evt.Description = fmt.Sprintf("%s charged %d rent (%s) to %s",
			gs.players[p.InitiatorID].Name, p.Amount, p.Color, victim.Name)
		gs.eventBus.Publish(evt)
	}

	if len(victim.Bank) == 0 && len(victim.Properties) == 0 {
		evt := rules.NewEvent(rules.EventPaymentForgiven, gs.gameID, victim.PlayerID)
		evt.TargetID = p.InitiatorID
		evt.Amount = p.Amount
		evt.Description = fmt.Sprintf("%s has nothing to pay with; debt forgiven", victim.Name)
		gs.eventBus.Publish(evt)
		return false
	}

	if victim.IsBot {
		selection := payment.Select(victim.Bank, victim.Properties, p.Amount)
		gs.transferPayment(victim, gs.players[p.InitiatorID], selection, p.Amount)
		return false
	}

	p.Stage = stageAwaitPayment
	if err := gs.turn.EnterSubPhase(rules.PhaseRequestPayment); err == nil {
		evt := rules.NewEvent(rules.EventPaymentRequested, gs.gameID, p.InitiatorID)
		evt.TargetID = victim.PlayerID
		evt.Amount = p.Amount
		evt.Description = fmt.Sprintf("%s must pay %d to %s", victim.Name, p.Amount, gs.players[p.InitiatorID].Name)
		gs.eventBus.Publish(evt)
		return true
	}
	// Sub-phase unavailable (engine-driven resolution); fall back to the
	// selector so the effect still completes atomically.
	selection := payment.Select(victim.Bank, victim.Properties, p.Amount)
	gs.transferPayment(victim, gs.players[p.InitiatorID], selection, p.Amount)
	return false
}

// transferPayment moves the selected assets to the creditor: properties join
// the creditor's property zone, everything else banks.
func (gs *engineGameState) transferPayment(victim, creditor *internalPlayer, selection []*cards.Card, amount int) {
	paid := 0
	for _, c := range selection {
		if findCard(victim.Bank, c.ID) != nil {
			victim.Bank = removeCard(victim.Bank, c.ID)
		} else if findCard(victim.Properties, c.ID) != nil {
			victim.Properties = removeCard(victim.Properties, c.ID)
		} else {
			continue
		}
		paid += c.Value
		if c.IsProperty() {
			creditor.Properties = append(creditor.Properties, c)
		} else {
			c.CurrentColor = cards.ColorNone
			creditor.Bank = append(creditor.Bank, c)
		}
	}

	gs.cleanupBuildings(victim)

	evt := rules.NewEvent(rules.EventPaymentResolved, gs.gameID, victim.PlayerID)
	evt.TargetID = creditor.PlayerID
	evt.Amount = paid
	evt.Description = fmt.Sprintf("%s paid %d of %d to %s", victim.Name, paid, amount, creditor.Name)
	gs.eventBus.Publish(evt)

	gs.checkWin()
}

func (gs *engineGameState) applySlyDeal(p *pendingAction, victim *internalPlayer) {
	card := findCard(victim.Properties, p.TargetCardID)
	if card == nil {
		return
	}
	initiator := gs.players[p.InitiatorID]
	victim.Properties = removeCard(victim.Properties, card.ID)
	initiator.Properties = append(initiator.Properties, card)
	gs.cleanupBuildings(victim)

	evt := rules.NewEvent(rules.EventPropertyStolen, gs.gameID, p.InitiatorID)
	evt.TargetID = victim.PlayerID
	evt.CardID = card.ID
	evt.Description = fmt.Sprintf("%s took %s from %s", initiator.Name, card.Name, victim.Name)
	gs.eventBus.Publish(evt)

	gs.checkWin()
}

func (gs *engineGameState) applyForcedDeal(p *pendingAction, victim *internalPlayer) {
	initiator := gs.players[p.InitiatorID]
	take := findCard(victim.Properties, p.TargetCardID)
	give := findCard(initiator.Properties, p.AuxCardID)
	if take == nil || give == nil {
		return
	}

	victim.Properties = removeCard(victim.Properties, take.ID)
	initiator.Properties = removeCard(initiator.Properties, give.ID)
	initiator.Properties = append(initiator.Properties, take)
	victim.Properties = append(victim.Properties, give)
	gs.cleanupBuildings(victim)
	gs.cleanupBuildings(initiator)

	evt := rules.NewEvent(rules.EventPropertiesSwapped, gs.gameID, p.InitiatorID)
	evt.TargetID = victim.PlayerID
	evt.Description = fmt.Sprintf("%s swapped %s for %s's %s", initiator.Name, give.Name, victim.Name, take.Name)
	gs.eventBus.Publish(evt)

	gs.checkWin()
}

func (gs *engineGameState) applyDealBreaker(p *pendingAction, victim *internalPlayer) {
	initiator := gs.players[p.InitiatorID]

	var taken []*cards.Card
	kept := victim.Properties[:0]
	for _, c := range victim.Properties {
		if c.EffectiveColor() == p.Color || (c.Kind == cards.KindAction && c.CurrentColor == p.Color) {
			taken = append(taken, c)
			continue
		}
		kept = append(kept, c)
	}
	if len(taken) == 0 {
		victim.Properties = append(kept, taken...)
		return
	}
	victim.Properties = kept
	initiator.Properties = append(initiator.Properties, taken...)

	evt := rules.NewEvent(rules.EventSetStolen, gs.gameID, p.InitiatorID)
	evt.TargetID = victim.PlayerID
	evt.Amount = len(taken)
	evt.Description = fmt.Sprintf("%s took %s's complete %s set (%d cards)", initiator.Name, victim.Name, p.Color, len(taken))
	gs.eventBus.Publish(evt)

	gs.checkWin()
}

// consumeJustSayNo discards the victim's Just Say No and cancels the effect
// against them. The triggering card stays discarded and its move is still
// consumed at completion.
func (gs *engineGameState) consumeJustSayNo(victim *internalPlayer, jsn *cards.Card) {
	victim.Hand = removeCard(victim.Hand, jsn.ID)
	gs.discard = append(gs.discard, jsn)
	victim.JustSayNosPlayed++

	evt := rules.NewEvent(rules.EventActionCancelled, gs.gameID, victim.PlayerID)
	evt.CardID = jsn.ID
	evt.Description = fmt.Sprintf("%s cancelled the action with Just Say No", victim.Name)
	gs.eventBus.Publish(evt)
}

// completePending finishes the outstanding effect: the triggering card's move
// is consumed exactly once, and a rent charge arms the Double The Rent
// context.
func (gs *engineGameState) completePending() {
	p := gs.pending
	gs.pending = nil
	if gs.winnerID != "" {
		return
	}

	var newRent *rentContext
	if p.Kind == pendingRent && !p.FromDoubleRent {
		newRent = &rentContext{
			VictimIDs: append([]string(nil), p.AllVictims...),
			Amount:    p.Amount,
			Color:     p.Color,
		}
	}
	gs.finishPlay(newRent)
}

// finishPlay consumes the move for a completed play, updates the rent
// context, and ends the turn automatically when the budget is spent.
func (gs *engineGameState) finishPlay(newRent *rentContext) {
	if gs.winnerID != "" {
		return
	}
	left, err := gs.turn.ConsumeMove()
	if err != nil {
		return
	}
	gs.lastRent = newRent
	if left == 0 {
		gs.finishTurn()
	}
}

// ReactWithJustSayNo resolves a human victim's reaction window by cancelling
// the pending effect against them.
func (e *DealEngine) ReactWithJustSayNo(gameID, playerID string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhaseTargetSelect || gs.pending == nil || gs.pending.CurrentVictim != playerID {
		return e.rejectViolation(gs, playerID, "", "no reaction window open for this player")
	}
	victim := gs.players[playerID]
	jsn := findJustSayNo(victim.Hand)
	if jsn == nil {
		return e.rejectViolation(gs, playerID, "", "no Just Say No card in hand")
	}

	gs.consumeJustSayNo(victim, jsn)
	gs.pending.CurrentVictim = ""
	if err := gs.turn.ResumePlaying(); err != nil {
		return err
	}
	gs.advancePending()

	e.recordReplay(gs)
	e.notifyStateChange(gameID, nil)
	return nil
}

// AcceptAction resolves a human victim's reaction window by letting the
// pending effect proceed.
func (e *DealEngine) AcceptAction(gameID, playerID string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhaseTargetSelect || gs.pending == nil || gs.pending.CurrentVictim != playerID {
		return e.rejectViolation(gs, playerID, "", "no reaction window open for this player")
	}

	gs.pending.Stage = stageApply
	if err := gs.turn.ResumePlaying(); err != nil {
		return err
	}
	gs.advancePending()

	e.recordReplay(gs)
	e.notifyStateChange(gameID, nil)
	return nil
}

// ConfirmPayment resolves a human victim's payment selection. The selection
// must come from the payer's bank and properties (never the hand) and must
// cover the debt unless it surrenders every eligible asset.
func (e *DealEngine) ConfirmPayment(gameID, payerID string, cardIDs []string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p := gs.pending
	if gs.turn.Phase() != rules.PhaseRequestPayment || p == nil || p.CurrentVictim != payerID || p.Stage != stageAwaitPayment {
		return e.rejectViolation(gs, payerID, "", "no payment request open for this player")
	}
	victim := gs.players[payerID]

	selection := make([]*cards.Card, 0, len(cardIDs))
	seen := make(map[string]bool, len(cardIDs))
	total := 0
	for _, id := range cardIDs {
		if seen[id] {
			return e.rejectViolation(gs, payerID, id, "payment card listed more than once")
		}
		seen[id] = true
		c := findCard(victim.Bank, id)
		if c == nil {
			c = findCard(victim.Properties, id)
		}
		if c == nil {
			return e.rejectMissing(gs, payerID, id, "payment card not among face-up assets")
		}
		selection = append(selection, c)
		total += c.Value
	}

	eligible := len(victim.Bank) + len(victim.Properties)
	if total < p.Amount && len(selection) < eligible {
		return e.rejectViolation(gs, payerID, "",
			fmt.Sprintf("selection worth %d does not cover debt of %d", total, p.Amount))
	}

	gs.transferPayment(victim, gs.players[p.InitiatorID], selection, p.Amount)
	if gs.pending != nil {
		gs.pending.CurrentVictim = ""
	}
	if gs.winnerID == "" {
		if err := gs.turn.ResumePlaying(); err != nil {
			return err
		}
		gs.advancePending()
	}

	e.recordReplay(gs)
	e.notifyStateChange(gameID, nil)
	return nil
}

func findJustSayNo(hand []*cards.Card) *cards.Card {
	for _, c := range hand {
		if c.Kind == cards.KindAction && c.Action == cards.ActionJustSayNo {
			return c
		}
	}
	return nil
}
