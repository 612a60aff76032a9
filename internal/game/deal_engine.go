package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
	"github.com/dealhaus/deal-server-go/internal/game/sets"
)

// SetsToWin is the number of complete sets that ends the game.
const SetsToWin = 3

// internalPlayer represents a player in the game state. The three card zones
// are ordered; Hand is private, Bank and Properties are face-up.
type internalPlayer struct {
	PlayerID         string
	Name             string
	IsBot            bool
	Hand             []*cards.Card
	Bank             []*cards.Card
	Properties       []*cards.Card
	JustSayNosPlayed int
}

// pendingKind identifies which multi-party effect is mid-resolution.
type pendingKind int

const (
	pendingDebt pendingKind = iota
	pendingBirthday
	pendingRent
	pendingSlyDeal
	pendingForcedDeal
	pendingDealBreaker
)

var pendingKindNames = map[pendingKind]string{
	pendingDebt:        "DEBT_COLLECTOR",
	pendingBirthday:    "BIRTHDAY",
	pendingRent:        "RENT",
	pendingSlyDeal:     "SLY_DEAL",
	pendingForcedDeal:  "FORCED_DEAL",
	pendingDealBreaker: "DEAL_BREAKER",
}

func (k pendingKind) String() string {
	if name, ok := pendingKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PENDING_%d", int(k))
}

// pendingStage tracks where the current victim is in the resolution pipeline.
type pendingStage int

const (
	stageReaction pendingStage = iota
	stageApply
	stageAwaitReaction
	stageAwaitPayment
)

// pendingAction is the single outstanding multi-party effect. Victims resolve
// strictly in seat order; the move for the triggering card is consumed only
// when the whole effect completes.
type pendingAction struct {
	Kind           pendingKind
	InitiatorID    string
	SourceCardID   string
	Amount         int
	Color          cards.Color
	TargetCardID   string
	AuxCardID      string
	Queue          []string
	AllVictims     []string
	CurrentVictim  string
	Stage          pendingStage
	FromDoubleRent bool
}

// rentContext remembers the last resolved rent charge so Double The Rent can
// re-execute it. Cleared by any other resolved play and at end of turn.
type rentContext struct {
	VictimIDs []string
	Amount    int
	Color     cards.Color
}

// engineGameState represents the internal state of a single game.
type engineGameState struct {
	gameID      string
	deck        []*cards.Card
	discard     []*cards.Card
	players     map[string]*internalPlayer
	playerOrder []string
	turn        *rules.TurnManager
	pending     *pendingAction
	lastRent    *rentContext
	eventBus    *rules.EventBus
	legality    *rules.LegalityChecker
	winnerID    string
	log         []LogEntry
	rng         *rand.Rand
	startedAt   time.Time
	mu          sync.Mutex
}

// GameNotification is sent to UI/websocket clients on state changes.
type GameNotification struct {
	Type      string
	GameID    string
	PlayerID  string // Empty for broadcast
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler is a function that handles game notifications.
type NotificationHandler func(notification GameNotification)

// DealEngine is the rules engine. It owns every game's state exclusively; all
// reads by transports and bots go through snapshot views.
type DealEngine struct {
	logger              *zap.Logger
	mu                  sync.RWMutex
	games               map[string]*engineGameState
	replays             map[string]*Replay
	notificationHandler NotificationHandler
	seedSource          func() int64
}

// Option configures a DealEngine.
type Option func(*DealEngine)

// WithSeedSource fixes how per-game RNG seeds are produced. Tests use this to
// make shuffles and bot randomness reproducible.
func WithSeedSource(source func() int64) Option {
	return func(e *DealEngine) {
		e.seedSource = source
	}
}

// NewDealEngine creates a new engine instance.
func NewDealEngine(logger *zap.Logger, opts ...Option) *DealEngine {
	e := &DealEngine{
		logger:     logger,
		games:      make(map[string]*engineGameState),
		replays:    make(map[string]*Replay),
		seedSource: func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetNotificationHandler sets the handler for game notifications.
func (e *DealEngine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

func (e *DealEngine) emitNotification(notification GameNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()
	if handler != nil {
		// Handler runs in its own goroutine so it can call back into the
		// engine (e.g. GetGameView) without deadlocking.
		go handler(notification)
	}
}

func (e *DealEngine) notifyStateChange(gameID string, data map[string]interface{}) {
	e.emitNotification(GameNotification{
		Type:      "GAME_STATE_CHANGE",
		GameID:    gameID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// PlayerSpec describes one seat at game start.
type PlayerSpec struct {
	PlayerID string
	Name     string
	IsBot    bool
}

// StartGame initializes a new game: builds and shuffles the deck, deals five
// cards to every player, and opens the first player's DRAW phase.
func (e *DealEngine) StartGame(gameID string, specs []PlayerSpec) error {
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if len(specs) < 2 {
		return fmt.Errorf("at least 2 players required, got %d", len(specs))
	}

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("game %s already exists", gameID)
	}

	rng := rand.New(rand.NewSource(e.seedSource()))
	gs := &engineGameState{
		gameID:      gameID,
		deck:        cards.BuildDeck(rng),
		discard:     make([]*cards.Card, 0),
		players:     make(map[string]*internalPlayer),
		playerOrder: make([]string, 0, len(specs)),
		eventBus:    rules.NewEventBus(),
		rng:         rng,
		startedAt:   time.Now(),
	}

	for _, spec := range specs {
		id := spec.PlayerID
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := gs.players[id]; dup {
			e.mu.Unlock()
			return fmt.Errorf("duplicate player id %s", id)
		}
		name := spec.Name
		if name == "" {
			name = id
		}
		gs.players[id] = &internalPlayer{
			PlayerID:   id,
			Name:       name,
			IsBot:      spec.IsBot,
			Hand:       make([]*cards.Card, 0),
			Bank:       make([]*cards.Card, 0),
			Properties: make([]*cards.Card, 0),
		}
		gs.playerOrder = append(gs.playerOrder, id)
	}

	turn, err := rules.NewTurnManager(gs.playerOrder)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	gs.turn = turn
	gs.legality = rules.NewLegalityChecker(gs)

	// Match log rides on the event bus; every described event becomes a line.
	gs.eventBus.Subscribe(func(event rules.Event) {
		if event.Description != "" {
			gs.log = append(gs.log, LogEntry{Timestamp: event.Timestamp, Text: event.Description})
		}
	})

	// Initial deal: 5 cards each.
	for _, id := range gs.playerOrder {
		gs.players[id].Hand = gs.drawFromDeck(rules.DrawOnEmptyHand)
	}

	e.games[gameID] = gs
	e.replays[gameID] = NewReplay(gameID)
	e.mu.Unlock()

	evt := rules.NewEvent(rules.EventGameStarted, gameID, "")
	evt.Description = fmt.Sprintf("Game started with %d players", len(specs))
	gs.eventBus.Publish(evt)

	e.recordReplay(gs)
	e.notifyStateChange(gameID, map[string]interface{}{"state": "started"})

	if e.logger != nil {
		e.logger.Info("deal engine started game",
			zap.String("game_id", gameID),
			zap.Int("players", len(specs)),
		)
	}
	return nil
}

// findGame fetches a game's state; callers lock gs.mu themselves.
func (e *DealEngine) findGame(gameID string) (*engineGameState, error) {
	e.mu.RLock()
	gs, exists := e.games[gameID]
	e.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	return gs, nil
}

// drawFromDeck pops up to n cards, reshuffling the discard pile into the deck
// when it runs dry. Exhaustion of both piles delivers fewer cards, never an
// error. Caller holds the game lock.
func (gs *engineGameState) drawFromDeck(n int) []*cards.Card {
	drawn := make([]*cards.Card, 0, n)
	for len(drawn) < n {
		if len(gs.deck) == 0 {
			if len(gs.discard) == 0 {
				break
			}
			gs.deck = gs.discard
			gs.discard = make([]*cards.Card, 0)
			cards.Shuffle(gs.rng, gs.deck)
			evt := rules.NewEvent(rules.EventDeckReshuffled, gs.gameID, "")
			evt.Amount = len(gs.deck)
			evt.Description = fmt.Sprintf("Discard pile reshuffled into a new %d-card deck", len(gs.deck))
			gs.eventBus.Publish(evt)
		}
		top := gs.deck[len(gs.deck)-1]
		gs.deck = gs.deck[:len(gs.deck)-1]
		drawn = append(drawn, top)
	}
	return drawn
}

// DrawCards performs the active player's draw for the turn: 5 when the hand
// is empty, otherwise 2, then opens the PLAYING phase with a fresh move
// budget.
func (e *DealEngine) DrawCards(gameID, playerID string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhaseDraw {
		return e.rejectViolation(gs, playerID, "", fmt.Sprintf("cannot draw in phase %s", gs.turn.Phase()))
	}
	if gs.turn.ActivePlayer() != playerID {
		return e.rejectViolation(gs, playerID, "", "only the active player may draw")
	}

	player := gs.players[playerID]
	count := rules.DrawPerTurn
	if len(player.Hand) == 0 {
		count = rules.DrawOnEmptyHand
	}
	drawn := gs.drawFromDeck(count)
	player.Hand = append(player.Hand, drawn...)

	if err := gs.turn.CompleteDraw(); err != nil {
		return err
	}

	evt := rules.NewEvent(rules.EventCardsDrawn, gameID, playerID)
	evt.Amount = len(drawn)
	evt.Description = fmt.Sprintf("%s drew %d cards", player.Name, len(drawn))
	gs.eventBus.Publish(evt)

	e.recordReplay(gs)
	e.notifyStateChange(gameID, map[string]interface{}{"phase": gs.turn.Phase().String()})
	return nil
}

// FlipWildCard reassigns a wild property's color. Cosmetic flips never
// consume a move, but they can complete or break sets, so the building
// cleanup and win check both run.
func (e *DealEngine) FlipWildCard(gameID, playerID, cardID string, color cards.Color) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhasePlaying {
		return e.rejectViolation(gs, playerID, cardID, fmt.Sprintf("cannot flip in phase %s", gs.turn.Phase()))
	}
	if gs.turn.ActivePlayer() != playerID {
		return e.rejectViolation(gs, playerID, cardID, "only the active player may flip wild cards")
	}

	player := gs.players[playerID]
	card := findCard(player.Properties, cardID)
	if card == nil {
		return e.rejectMissing(gs, playerID, cardID, "wild card not found among your properties")
	}
	if !card.CanAssume(color) {
		return e.rejectViolation(gs, playerID, cardID, fmt.Sprintf("wild card cannot assume %s", color))
	}

	card.CurrentColor = color
	gs.cleanupBuildings(player)

	evt := rules.NewEvent(rules.EventWildFlipped, gameID, playerID)
	evt.CardID = cardID
	evt.Description = fmt.Sprintf("%s flipped %s to %s", player.Name, card.Name, color)
	gs.eventBus.Publish(evt)

	gs.checkWin()
	e.recordReplay(gs)
	e.notifyStateChange(gameID, nil)
	return nil
}

// DiscardCards moves chosen hand cards to the discard pile. Used by the
// active player to get under the hand limit before ending the turn; it never
// consumes a move.
func (e *DealEngine) DiscardCards(gameID, playerID string, cardIDs []string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhasePlaying {
		return e.rejectViolation(gs, playerID, "", fmt.Sprintf("cannot discard in phase %s", gs.turn.Phase()))
	}
	if gs.turn.ActivePlayer() != playerID {
		return e.rejectViolation(gs, playerID, "", "only the active player may discard")
	}

	player := gs.players[playerID]
	for _, id := range cardIDs {
		if findCard(player.Hand, id) == nil {
			return e.rejectMissing(gs, playerID, id, "card to discard not found in hand")
		}
	}

	for _, id := range cardIDs {
		card := findCard(player.Hand, id)
		player.Hand = removeCard(player.Hand, id)
		gs.discard = append(gs.discard, card)
		evt := rules.NewEvent(rules.EventCardDiscarded, gameID, playerID)
		evt.CardID = id
		evt.Description = fmt.Sprintf("%s discarded %s", player.Name, card.Name)
		gs.eventBus.Publish(evt)
	}

	e.recordReplay(gs)
	e.notifyStateChange(gameID, nil)
	return nil
}

// EndTurn finishes the active player's turn voluntarily.
func (e *DealEngine) EndTurn(gameID, playerID string) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.turn.Phase() != rules.PhasePlaying {
		return e.rejectViolation(gs, playerID, "", fmt.Sprintf("cannot end turn in phase %s", gs.turn.Phase()))
	}
	if gs.turn.ActivePlayer() != playerID {
		return e.rejectViolation(gs, playerID, "", "only the active player may end the turn")
	}

	gs.finishTurn()
	e.recordReplay(gs)
	e.notifyStateChange(gameID, map[string]interface{}{"active": gs.turn.ActivePlayer()})
	return nil
}

// finishTurn trims the hand to the limit, clears the rent context, and
// rotates to the next seat. Caller holds the game lock and has verified the
// PLAYING phase.
func (gs *engineGameState) finishTurn() {
	player := gs.players[gs.turn.ActivePlayer()]

	if excess := len(player.Hand) - rules.HandLimit; excess > 0 {
		trimmed := player.Hand[len(player.Hand)-excess:]
		player.Hand = player.Hand[:len(player.Hand)-excess]
		gs.discard = append(gs.discard, trimmed...)
		evt := rules.NewEvent(rules.EventHandTrimmed, gs.gameID, player.PlayerID)
		evt.Amount = excess
		evt.Description = fmt.Sprintf("%s discarded %d cards over the hand limit", player.Name, excess)
		gs.eventBus.Publish(evt)
	}

	gs.lastRent = nil

	evt := rules.NewEvent(rules.EventTurnEnded, gs.gameID, player.PlayerID)
	evt.Description = fmt.Sprintf("%s ended their turn", player.Name)
	gs.eventBus.Publish(evt)

	if err := gs.turn.AdvanceTurn(); err != nil {
		return
	}

	next := gs.players[gs.turn.ActivePlayer()]
	evt = rules.NewEvent(rules.EventTurnStarted, gs.gameID, next.PlayerID)
	evt.Description = fmt.Sprintf("%s's turn", next.Name)
	gs.eventBus.Publish(evt)
}

// GetGameView returns a redacted snapshot for the given viewer.
func (e *DealEngine) GetGameView(gameID, viewerID string) (*GameView, error) {
	gs, err := e.findGame(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.buildView(viewerID), nil
}

// MatchLog returns the chronological human-readable match log.
func (e *DealEngine) MatchLog(gameID string) ([]LogEntry, error) {
	gs, err := e.findGame(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	out := make([]LogEntry, len(gs.log))
	copy(out, gs.log)
	return out, nil
}

// Subscribe registers an event listener on a game's bus. The repository layer
// uses this to persist finished matches.
func (e *DealEngine) Subscribe(gameID string, listener rules.Listener) error {
	gs, err := e.findGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.eventBus.Subscribe(listener)
	return nil
}

// CountCards tallies every zone; the invariant is that this always equals the
// full deck composition.
func (e *DealEngine) CountCards(gameID string) (int, error) {
	gs, err := e.findGame(gameID)
	if err != nil {
		return 0, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	total := len(gs.deck) + len(gs.discard)
	for _, p := range gs.players {
		total += len(p.Hand) + len(p.Bank) + len(p.Properties)
	}
	return total, nil
}

// rejectViolation logs a rule violation and returns it as an error. State is
// never mutated and no move is consumed for a rejected request.
func (e *DealEngine) rejectViolation(gs *engineGameState, playerID, cardID, reason string) error {
	if e.logger != nil {
		e.logger.Warn("rule violation",
			zap.String("game_id", gs.gameID),
			zap.String("player_id", playerID),
			zap.String("card_id", cardID),
			zap.String("reason", reason),
		)
	}
	evt := rules.NewEvent(rules.EventRuleViolation, gs.gameID, playerID)
	evt.CardID = cardID
	evt.Metadata["reason"] = reason
	gs.eventBus.Publish(evt)
	return fmt.Errorf("rule violation: %s", reason)
}

// rejectMissing logs a malformed request (target not found).
func (e *DealEngine) rejectMissing(gs *engineGameState, playerID, cardID, reason string) error {
	if e.logger != nil {
		e.logger.Error("malformed request",
			zap.String("game_id", gs.gameID),
			zap.String("player_id", playerID),
			zap.String("card_id", cardID),
			zap.String("reason", reason),
		)
	}
	return fmt.Errorf("%s", reason)
}

// checkWin scans for a player holding three complete sets and, when found,
// enters the terminal phase. Runs after every property-ownership change.
func (gs *engineGameState) checkWin() bool {
	if gs.winnerID != "" {
		return true
	}
	for _, id := range gs.playerOrder {
		p := gs.players[id]
		if sets.CompleteCount(sets.Compute(p.Properties)) >= SetsToWin {
			gs.winnerID = id
			gs.pending = nil
			gs.turn.Finish()
			evt := rules.NewEvent(rules.EventGameOver, gs.gameID, id)
			evt.Description = fmt.Sprintf("%s wins with %d complete sets", p.Name, SetsToWin)
			gs.eventBus.Publish(evt)
			return true
		}
	}
	return false
}

// cleanupBuildings displaces House/Hotel cards attached to a set that is no
// longer complete into the owner's bank. The invariant is that buildings are
// never left attached to an incomplete set.
func (gs *engineGameState) cleanupBuildings(player *internalPlayer) {
	groups := sets.Compute(player.Properties)
	var displaced []*cards.Card
	kept := player.Properties[:0]
	for _, c := range player.Properties {
		if c.Kind == cards.KindAction && (c.Action == cards.ActionHouse || c.Action == cards.ActionHotel) {
			s := sets.Find(groups, c.CurrentColor)
			if s == nil || !s.IsComplete {
				displaced = append(displaced, c)
				continue
			}
		}
		kept = append(kept, c)
	}
	player.Properties = kept

	for _, c := range displaced {
		c.CurrentColor = cards.ColorNone
		player.Bank = append(player.Bank, c)
		evt := rules.NewEvent(rules.EventBuildingDisplaced, gs.gameID, player.PlayerID)
		evt.CardID = c.ID
		evt.Description = fmt.Sprintf("%s's %s moved to the bank (set broken)", player.Name, c.Name)
		gs.eventBus.Publish(evt)
	}
}

// findCard returns the card with the given ID from a zone, or nil.
func findCard(zone []*cards.Card, cardID string) *cards.Card {
	for _, c := range zone {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// removeCard returns the zone without the given card, preserving order.
func removeCard(zone []*cards.Card, cardID string) []*cards.Card {
	for i, c := range zone {
		if c.ID == cardID {
			return append(zone[:i], zone[i+1:]...)
		}
	}
	return zone
}
