package rules

import (
	"fmt"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/sets"
)

// Zone identifies where a card instance currently lives. Every card is in
// exactly one zone at any time; the engine's conservation audit depends on it.
type Zone int

const (
	ZoneDeck Zone = iota
	ZoneHand
	ZoneBank
	ZoneProperties
	ZoneDiscard
)

var zoneNames = map[Zone]string{
	ZoneDeck:       "DECK",
	ZoneHand:       "HAND",
	ZoneBank:       "BANK",
	ZoneProperties: "PROPERTIES",
	ZoneDiscard:    "DISCARD",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// Destination indicates where a played card is headed.
type Destination int

const (
	DestBank Destination = iota
	DestProperties
	DestAction
)

var destinationNames = map[Destination]string{
	DestBank:       "BANK",
	DestProperties: "PROPERTIES",
	DestAction:     "ACTION",
}

func (d Destination) String() string {
	if name, ok := destinationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DEST_%d", int(d))
}

// ViolationKind distinguishes a rule violation from a malformed request with a
// missing target. Both reject without mutating state; they log differently.
type ViolationKind int

const (
	ViolationNone ViolationKind = iota
	ViolationRule
	ViolationMissingTarget
)

// CardInfo provides information about a card for legality checks.
type CardInfo struct {
	Card    *cards.Card
	OwnerID string
	Zone    Zone
}

// PlayerInfo provides information about a player for legality checks.
type PlayerInfo struct {
	PlayerID string
	Name     string
	IsBot    bool
}

// GameStateAccessor provides access to game state needed for legality checks.
type GameStateAccessor interface {
	// FindCard finds a card by ID in any zone.
	FindCard(cardID string) (CardInfo, bool)
	// FindPlayer finds player info by ID.
	FindPlayer(playerID string) (PlayerInfo, bool)
	// PlayerProperties returns a player's face-up property zone.
	PlayerProperties(playerID string) []*cards.Card
}

// LegalityResult represents the result of a legality check.
type LegalityResult struct {
	Legal   bool
	Kind    ViolationKind
	Reason  string
	Details map[string]string
}

// PlayContext carries everything needed to validate a single card play.
type PlayContext struct {
	PlayerID       string
	Card           *cards.Card
	Destination    Destination
	TargetPlayerID string
	TargetCardID   string
	AuxCardID      string
	TargetColor    cards.Color
	// RentFollowing is true while a rent charge from earlier in the same turn
	// can still be doubled.
	RentFollowing bool
}

// LegalityChecker validates card plays before the resolver mutates anything.
type LegalityChecker struct {
	gameState GameStateAccessor
}

// NewLegalityChecker creates a new legality checker.
func NewLegalityChecker(gameState GameStateAccessor) *LegalityChecker {
	return &LegalityChecker{gameState: gameState}
}

func legal() LegalityResult {
	return LegalityResult{Legal: true, Reason: "All legality checks passed"}
}

func violation(reason string, details map[string]string) LegalityResult {
	return LegalityResult{Legal: false, Kind: ViolationRule, Reason: reason, Details: details}
}

func missingTarget(reason string, details map[string]string) LegalityResult {
	return LegalityResult{Legal: false, Kind: ViolationMissingTarget, Reason: reason, Details: details}
}

// CheckPlay validates a play request against the full rule set. It never
// mutates state; the resolver only runs after this returns Legal.
func (lc *LegalityChecker) CheckPlay(ctx PlayContext) LegalityResult {
	if lc == nil || lc.gameState == nil {
		return legal()
	}
	if ctx.Card == nil {
		return missingTarget("Card not found", nil)
	}

	info, found := lc.gameState.FindCard(ctx.Card.ID)
	if !found {
		return missingTarget("Card not found", map[string]string{"card_id": ctx.Card.ID})
	}
	if info.Zone != ZoneHand || info.OwnerID != ctx.PlayerID {
		return violation("Card is not in the player's hand", map[string]string{
			"card_id": ctx.Card.ID,
			"zone":    info.Zone.String(),
		})
	}

	switch ctx.Destination {
	case DestBank:
		return lc.checkBank(ctx)
	case DestProperties:
		return lc.checkProperties(ctx)
	case DestAction:
		return lc.checkAction(ctx)
	default:
		return violation("Unknown destination", map[string]string{"destination": ctx.Destination.String()})
	}
}

func (lc *LegalityChecker) checkBank(ctx PlayContext) LegalityResult {
	if !ctx.Card.Bankable() {
		return violation("Property cards may never be banked", map[string]string{
			"card_id": ctx.Card.ID,
			"kind":    ctx.Card.Kind.String(),
		})
	}
	return legal()
}

func (lc *LegalityChecker) checkProperties(ctx PlayContext) LegalityResult {
	card := ctx.Card
	switch {
	case card.Kind == cards.KindProperty:
		return legal()

	case card.Kind == cards.KindPropertyWild:
		if ctx.TargetColor != cards.ColorNone && !card.CanAssume(ctx.TargetColor) {
			return violation("Wild property cannot assume that color", map[string]string{
				"card_id": card.ID,
				"color":   ctx.TargetColor.String(),
			})
		}
		return legal()

	case card.Kind == cards.KindAction && (card.Action == cards.ActionHouse || card.Action == cards.ActionHotel):
		return lc.checkBuilding(ctx)

	default:
		return violation("Only property cards and buildings play onto properties", map[string]string{
			"card_id": card.ID,
			"kind":    card.Kind.String(),
		})
	}
}

// checkBuilding validates House/Hotel placement: the target set must already
// be complete, and a Hotel additionally requires the set to hold a House.
func (lc *LegalityChecker) checkBuilding(ctx PlayContext) LegalityResult {
	if ctx.TargetColor == cards.ColorNone {
		return missingTarget("Building requires a target color", map[string]string{"card_id": ctx.Card.ID})
	}

	groups := sets.Compute(lc.gameState.PlayerProperties(ctx.PlayerID))
	target := sets.Find(groups, ctx.TargetColor)
	if target == nil || !target.IsComplete {
		return violation("Buildings require a complete set", map[string]string{
			"color": ctx.TargetColor.String(),
		})
	}
	if ctx.Card.Action == cards.ActionHotel && target.Houses == 0 {
		return violation("Hotel requires the set to already hold a House", map[string]string{
			"color": ctx.TargetColor.String(),
		})
	}
	return legal()
}

func (lc *LegalityChecker) checkAction(ctx PlayContext) LegalityResult {
	card := ctx.Card
	switch card.Kind {
	case cards.KindRent, cards.KindRentWild:
		return lc.checkRent(ctx)
	case cards.KindAction:
	default:
		return violation("Card has no action effect", map[string]string{
			"card_id": card.ID,
			"kind":    card.Kind.String(),
		})
	}

	switch card.Action {
	case cards.ActionPassGo, cards.ActionBirthday:
		return legal()

	case cards.ActionJustSayNo:
		return violation("Just Say No is only played during a reaction window", map[string]string{
			"card_id": card.ID,
		})

	case cards.ActionDoubleRent:
		if !ctx.RentFollowing {
			return violation("Double The Rent must immediately follow a rent charge", map[string]string{
				"card_id": card.ID,
			})
		}
		return legal()

	case cards.ActionDebtCollector:
		return lc.checkOpponent(ctx)

	case cards.ActionSlyDeal:
		return lc.checkSlyDeal(ctx)

	case cards.ActionForcedDeal:
		return lc.checkForcedDeal(ctx)

	case cards.ActionDealBreaker:
		return lc.checkDealBreaker(ctx)

	case cards.ActionHouse, cards.ActionHotel:
		return violation("Buildings play onto properties or into the bank", map[string]string{
			"card_id": card.ID,
		})

	default:
		return violation("Unknown action kind", map[string]string{
			"card_id": card.ID,
			"action":  card.Action.String(),
		})
	}
}

func (lc *LegalityChecker) checkOpponent(ctx PlayContext) LegalityResult {
	if ctx.TargetPlayerID == "" {
		return missingTarget("Action requires a target player", map[string]string{"card_id": ctx.Card.ID})
	}
	if ctx.TargetPlayerID == ctx.PlayerID {
		return violation("Cannot target yourself", map[string]string{"card_id": ctx.Card.ID})
	}
	if _, found := lc.gameState.FindPlayer(ctx.TargetPlayerID); !found {
		return missingTarget("Target player not found", map[string]string{"player_id": ctx.TargetPlayerID})
	}
	return legal()
}

func (lc *LegalityChecker) checkSlyDeal(ctx PlayContext) LegalityResult {
	if result := lc.checkOpponent(ctx); !result.Legal {
		return result
	}
	target, result := lc.victimProperty(ctx.TargetPlayerID, ctx.TargetCardID)
	if !result.Legal {
		return result
	}
	victimProps := lc.gameState.PlayerProperties(ctx.TargetPlayerID)
	if sets.InCompleteSet(victimProps, target) {
		return violation("Sly Deal cannot take from a complete set", map[string]string{
			"card_id": ctx.TargetCardID,
		})
	}
	return legal()
}

func (lc *LegalityChecker) checkForcedDeal(ctx PlayContext) LegalityResult {
	if result := lc.checkSlyDeal(ctx); !result.Legal {
		return result
	}

	if ctx.AuxCardID == "" {
		return missingTarget("Forced Deal requires one of your own properties", map[string]string{
			"card_id": ctx.Card.ID,
		})
	}
	own, found := lc.gameState.FindCard(ctx.AuxCardID)
	if !found || own.OwnerID != ctx.PlayerID || own.Zone != ZoneProperties {
		return missingTarget("Offered property not found among your properties", map[string]string{
			"card_id": ctx.AuxCardID,
		})
	}
	ownProps := lc.gameState.PlayerProperties(ctx.PlayerID)
	if sets.InCompleteSet(ownProps, own.Card) {
		return violation("Forced Deal cannot give from a complete set", map[string]string{
			"card_id": ctx.AuxCardID,
		})
	}
	return legal()
}

func (lc *LegalityChecker) checkDealBreaker(ctx PlayContext) LegalityResult {
	if result := lc.checkOpponent(ctx); !result.Legal {
		return result
	}
	if ctx.TargetColor == cards.ColorNone {
		return missingTarget("Deal Breaker requires a target color", map[string]string{
			"card_id": ctx.Card.ID,
		})
	}
	groups := sets.Compute(lc.gameState.PlayerProperties(ctx.TargetPlayerID))
	target := sets.Find(groups, ctx.TargetColor)
	if target == nil || !target.IsComplete {
		return violation("Deal Breaker requires a complete set", map[string]string{
			"color": ctx.TargetColor.String(),
		})
	}
	return legal()
}

func (lc *LegalityChecker) checkRent(ctx PlayContext) LegalityResult {
	if ctx.TargetColor == cards.ColorNone {
		return missingTarget("Rent requires a color selection", map[string]string{"card_id": ctx.Card.ID})
	}
	if !ctx.Card.RentMatches(ctx.TargetColor) {
		return violation("Rent card does not cover that color", map[string]string{
			"card_id": ctx.Card.ID,
			"color":   ctx.TargetColor.String(),
		})
	}
	groups := sets.Compute(lc.gameState.PlayerProperties(ctx.PlayerID))
	held := sets.Find(groups, ctx.TargetColor)
	if held == nil || len(held.Members) == 0 {
		return violation("Cannot charge rent for a color you do not hold", map[string]string{
			"color": ctx.TargetColor.String(),
		})
	}
	// RENT_WILD may name one opponent; plain RENT always charges everyone.
	if ctx.Card.Kind == cards.KindRentWild && ctx.TargetPlayerID != "" {
		if ctx.TargetPlayerID == ctx.PlayerID {
			return violation("Cannot target yourself", map[string]string{"card_id": ctx.Card.ID})
		}
		if _, found := lc.gameState.FindPlayer(ctx.TargetPlayerID); !found {
			return missingTarget("Target player not found", map[string]string{"player_id": ctx.TargetPlayerID})
		}
	}
	return legal()
}

// victimProperty resolves a target card that must sit in the victim's
// property zone.
func (lc *LegalityChecker) victimProperty(victimID, cardID string) (*cards.Card, LegalityResult) {
	if cardID == "" {
		return nil, missingTarget("Action requires a target property", nil)
	}
	info, found := lc.gameState.FindCard(cardID)
	if !found {
		return nil, missingTarget("Target card not found", map[string]string{"card_id": cardID})
	}
	if info.OwnerID != victimID || info.Zone != ZoneProperties {
		return nil, violation("Target card is not among the victim's properties", map[string]string{
			"card_id": cardID,
			"zone":    info.Zone.String(),
		})
	}
	if !info.Card.IsProperty() {
		return nil, violation("Target card is not a property", map[string]string{
			"card_id": cardID,
			"kind":    info.Card.Kind.String(),
		})
	}
	return info.Card, legal()
}
