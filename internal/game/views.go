package game

import (
	"time"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
	"github.com/dealhaus/deal-server-go/internal/game/sets"
)

// GameView is the snapshot handed to UI clients and bots. Hands other than the
// viewer's are redacted to counts.
type GameView struct {
	GameID       string
	ViewerID     string
	Phase        string
	TurnNumber   int
	TurnIndex    int
	ActivePlayer string
	MovesLeft    int
	DeckSize     int
	DiscardSize  int
	Players      []PlayerView
	Pending      *PendingView
	WinnerID     string
	Log          []LogEntry
	StartedAt    time.Time
}

// PlayerView represents one player's public state plus, for the viewer, their
// own hand.
type PlayerView struct {
	PlayerID         string
	Name             string
	IsBot            bool
	HandCount        int
	Hand             []CardView // Only populated for the viewer
	Bank             []CardView
	Properties       []CardView
	Sets             []SetView
	CompleteSets     int
	BankTotal        int
	JustSayNosPlayed int
}

// CardView represents a card in any visible zone.
type CardView struct {
	ID           string
	Kind         string
	Name         string
	Value        int
	Action       string
	Color        string
	Colors       []string
	CurrentColor string
}

// SetView represents a derived color grouping.
type SetView struct {
	Color      string
	CardIDs    []string
	Houses     int
	Hotels     int
	IsComplete bool
	Rent       int
}

// PendingView describes the outstanding sub-phase input the engine is waiting
// for, if any.
type PendingView struct {
	Kind         string // Action kind or RENT
	InitiatorID  string
	VictimID     string
	Amount       int
	AwaitingWhat string // "REACTION" or "PAYMENT"
}

// LogEntry is one chronological match log line. Entries are audit data only;
// no rule logic reads them.
type LogEntry struct {
	Timestamp time.Time
	Text      string
}

func cardView(c *cards.Card) CardView {
	view := CardView{
		ID:           c.ID,
		Kind:         c.Kind.String(),
		Name:         c.Name,
		Value:        c.Value,
		CurrentColor: c.CurrentColor.String(),
	}
	if c.Kind == cards.KindAction {
		view.Action = c.Action.String()
	}
	if c.Color != cards.ColorNone {
		view.Color = c.Color.String()
	}
	for _, color := range c.Colors {
		view.Colors = append(view.Colors, color.String())
	}
	return view
}

func cardViews(zone []*cards.Card) []CardView {
	out := make([]CardView, 0, len(zone))
	for _, c := range zone {
		out = append(out, cardView(c))
	}
	return out
}

func setViews(properties []*cards.Card) ([]SetView, int) {
	groups := sets.Compute(properties)
	out := make([]SetView, 0, len(groups))
	complete := 0
	for _, s := range groups {
		view := SetView{
			Color:      s.Color.String(),
			Houses:     s.Houses,
			Hotels:     s.Hotels,
			IsComplete: s.IsComplete,
			Rent:       s.Rent(),
		}
		for _, member := range s.Members {
			view.CardIDs = append(view.CardIDs, member.ID)
		}
		if s.IsComplete {
			complete++
		}
		out = append(out, view)
	}
	return out, complete
}

// buildView assembles a redacted snapshot. Caller holds the game lock.
func (gs *engineGameState) buildView(viewerID string) *GameView {
	view := &GameView{
		GameID:       gs.gameID,
		ViewerID:     viewerID,
		Phase:        gs.turn.Phase().String(),
		TurnNumber:   gs.turn.TurnNumber(),
		TurnIndex:    gs.turn.TurnIndex(),
		ActivePlayer: gs.turn.ActivePlayer(),
		MovesLeft:    gs.turn.MovesLeft(),
		DeckSize:     len(gs.deck),
		DiscardSize:  len(gs.discard),
		WinnerID:     gs.winnerID,
		StartedAt:    gs.startedAt,
	}

	for _, playerID := range gs.playerOrder {
		p := gs.players[playerID]
		setList, complete := setViews(p.Properties)
		pv := PlayerView{
			PlayerID:         p.PlayerID,
			Name:             p.Name,
			IsBot:            p.IsBot,
			HandCount:        len(p.Hand),
			Bank:             cardViews(p.Bank),
			Properties:       cardViews(p.Properties),
			Sets:             setList,
			CompleteSets:     complete,
			JustSayNosPlayed: p.JustSayNosPlayed,
		}
		for _, c := range p.Bank {
			pv.BankTotal += c.Value
		}
		if playerID == viewerID {
			pv.Hand = cardViews(p.Hand)
		}
		view.Players = append(view.Players, pv)
	}

	if gs.pending != nil {
		awaiting := "REACTION"
		if gs.turn.Phase() == rules.PhaseRequestPayment {
			awaiting = "PAYMENT"
		}
		view.Pending = &PendingView{
			Kind:         gs.pending.Kind.String(),
			InitiatorID:  gs.pending.InitiatorID,
			VictimID:     gs.pending.CurrentVictim,
			Amount:       gs.pending.Amount,
			AwaitingWhat: awaiting,
		}
	}

	view.Log = append(view.Log, gs.log...)
	return view
}
