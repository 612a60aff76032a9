// Package sets derives color groupings, completion status, and rent values
// from a player's face-up properties. Nothing here is persisted; groupings are
// recomputed from the property zone on demand.
package sets

import (
	"sort"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
)

// Set is a derived grouping of properties sharing an effective color.
// An unassigned rainbow wild forms its own pseudo-group under ColorNone,
// which never counts toward completion.
type Set struct {
	Color      Color
	Members    []*cards.Card
	Houses     int
	Hotels     int
	IsComplete bool
}

// Color aliases the card package's color type for callers that only import sets.
type Color = cards.Color

// Compute groups the given properties by effective color. House and Hotel
// cards attached to the property zone count toward their set's bonus tallies
// but not toward membership. Results are ordered by color for determinism.
func Compute(properties []*cards.Card) []*Set {
	byColor := make(map[Color]*Set)

	group := func(color Color) *Set {
		s, ok := byColor[color]
		if !ok {
			s = &Set{Color: color}
			byColor[color] = s
		}
		return s
	}

	for _, c := range properties {
		switch {
		case c.IsProperty():
			s := group(c.EffectiveColor())
			s.Members = append(s.Members, c)
		case c.Kind == cards.KindAction && c.Action == cards.ActionHouse:
			group(c.CurrentColor).Houses++
		case c.Kind == cards.KindAction && c.Action == cards.ActionHotel:
			group(c.CurrentColor).Hotels++
		}
	}

	out := make([]*Set, 0, len(byColor))
	for color, s := range byColor {
		if color != cards.ColorNone {
			info := cards.InfoFor(color)
			s.IsComplete = info.Required > 0 && len(s.Members) >= info.Required
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Color < out[j].Color })
	return out
}

// Rent returns the amount a set charges. Building bonuses apply only while the
// set is complete: +3 for a house, +4 more for a hotel.
func (s *Set) Rent() int {
	if len(s.Members) == 0 || s.Color == cards.ColorNone {
		return 0
	}
	info := cards.InfoFor(s.Color)
	if len(info.Rent) == 0 {
		return 0
	}
	idx := len(s.Members)
	if idx > len(info.Rent) {
		idx = len(info.Rent)
	}
	rent := info.Rent[idx-1]
	if s.IsComplete {
		if s.Houses > 0 {
			rent += 3
		}
		if s.Hotels > 0 {
			rent += 4
		}
	}
	return rent
}

// Find returns the set for a color, or nil when the player holds nothing in it.
func Find(groups []*Set, color Color) *Set {
	for _, s := range groups {
		if s.Color == color {
			return s
		}
	}
	return nil
}

// CompleteCount counts the player's complete sets.
func CompleteCount(groups []*Set) int {
	n := 0
	for _, s := range groups {
		if s.IsComplete {
			n++
		}
	}
	return n
}

// InCompleteSet reports whether the card belongs to a currently-complete set.
func InCompleteSet(properties []*cards.Card, card *cards.Card) bool {
	if card == nil || !card.IsProperty() {
		return false
	}
	s := Find(Compute(properties), card.EffectiveColor())
	return s != nil && s.IsComplete
}
