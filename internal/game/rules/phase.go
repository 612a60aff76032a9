package rules

import (
	"fmt"
)

// Phase represents the engine's turn state machine.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDraw
	PhasePlaying
	PhaseRequestPayment
	PhaseTargetSelect
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:          "SETUP",
	PhaseDraw:           "DRAW",
	PhasePlaying:        "PLAYING",
	PhaseRequestPayment: "REQUEST_PAYMENT",
	PhaseTargetSelect:   "TARGET_SELECT",
	PhaseGameOver:       "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Per-turn constants.
const (
	MovesPerTurn    = 3
	HandLimit       = 7
	DrawPerTurn     = 2
	DrawOnEmptyHand = 5
)

// TurnManager tracks the active player, phase, and move budget. All transition
// methods validate the current phase and return an error without mutating on a
// bad transition.
type TurnManager struct {
	order      []string
	turnIndex  int
	turnNumber int
	phase      Phase
	movesLeft  int
}

// NewTurnManager creates a turn manager for the given seat order, starting at
// the first player's DRAW phase.
func NewTurnManager(order []string) (*TurnManager, error) {
	if len(order) < 2 {
		return nil, fmt.Errorf("at least 2 players required, got %d", len(order))
	}
	return &TurnManager{
		order:      append([]string(nil), order...),
		turnIndex:  0,
		turnNumber: 1,
		phase:      PhaseDraw,
	}, nil
}

// RestoreTurnManager rebuilds a turn manager from recorded state, used when
// rolling back to a snapshot.
func RestoreTurnManager(order []string, turnIndex, turnNumber int, phase Phase, movesLeft int) *TurnManager {
	return &TurnManager{
		order:      append([]string(nil), order...),
		turnIndex:  turnIndex,
		turnNumber: turnNumber,
		phase:      phase,
		movesLeft:  movesLeft,
	}
}

// ActivePlayer returns the player whose turn is in progress.
func (tm *TurnManager) ActivePlayer() string {
	return tm.order[tm.turnIndex]
}

// Phase returns the current phase.
func (tm *TurnManager) Phase() Phase {
	return tm.phase
}

// MovesLeft returns the remaining move budget for the active player.
func (tm *TurnManager) MovesLeft() int {
	return tm.movesLeft
}

// TurnNumber returns the 1-based turn counter.
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// TurnIndex returns the active player's seat index.
func (tm *TurnManager) TurnIndex() int {
	return tm.turnIndex
}

// Order returns the seat order.
func (tm *TurnManager) Order() []string {
	return append([]string(nil), tm.order...)
}

// CompleteDraw moves DRAW to PLAYING and resets the move budget.
func (tm *TurnManager) CompleteDraw() error {
	if tm.phase != PhaseDraw {
		return fmt.Errorf("cannot complete draw in phase %s", tm.phase)
	}
	tm.phase = PhasePlaying
	tm.movesLeft = MovesPerTurn
	return nil
}

// ConsumeMove decrements the move budget by one and reports the remainder.
func (tm *TurnManager) ConsumeMove() (int, error) {
	if tm.phase != PhasePlaying {
		return tm.movesLeft, fmt.Errorf("cannot consume a move in phase %s", tm.phase)
	}
	if tm.movesLeft <= 0 {
		return 0, fmt.Errorf("no moves left this turn")
	}
	tm.movesLeft--
	return tm.movesLeft, nil
}

// EnterSubPhase suspends PLAYING into REQUEST_PAYMENT or TARGET_SELECT while
// an external choice is pending. The move for the card that opened the
// sub-phase is not consumed until the sub-phase resolves.
func (tm *TurnManager) EnterSubPhase(sub Phase) error {
	if tm.phase != PhasePlaying {
		return fmt.Errorf("cannot enter %s from phase %s", sub, tm.phase)
	}
	if sub != PhaseRequestPayment && sub != PhaseTargetSelect {
		return fmt.Errorf("%s is not a sub-phase", sub)
	}
	tm.phase = sub
	return nil
}

// ResumePlaying returns from a sub-phase to PLAYING.
func (tm *TurnManager) ResumePlaying() error {
	if tm.phase != PhaseRequestPayment && tm.phase != PhaseTargetSelect {
		return fmt.Errorf("cannot resume playing from phase %s", tm.phase)
	}
	tm.phase = PhasePlaying
	return nil
}

// AdvanceTurn rotates to the next seat and resets to DRAW.
func (tm *TurnManager) AdvanceTurn() error {
	if tm.phase != PhasePlaying {
		return fmt.Errorf("cannot advance turn from phase %s", tm.phase)
	}
	tm.turnIndex = (tm.turnIndex + 1) % len(tm.order)
	tm.turnNumber++
	tm.phase = PhaseDraw
	tm.movesLeft = 0
	return nil
}

// Finish enters the terminal GAME_OVER phase. Valid from any phase since a
// property-ownership change can end the game mid-resolution.
func (tm *TurnManager) Finish() {
	tm.phase = PhaseGameOver
}
