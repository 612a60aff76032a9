package bot

import (
	"sort"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

// observation wraps a game view with the lookups every strategy tier needs.
type observation struct {
	view      *game.GameView
	me        *game.PlayerView
	opponents []*game.PlayerView
}

func observe(view *game.GameView) *observation {
	obs := &observation{view: view}
	for i := range view.Players {
		p := &view.Players[i]
		if p.PlayerID == view.ViewerID {
			obs.me = p
		} else {
			obs.opponents = append(obs.opponents, p)
		}
	}
	return obs
}

func isPropertyKind(kind string) bool {
	return kind == cards.KindProperty.String() || kind == cards.KindPropertyWild.String()
}

func isWildKind(kind string) bool {
	return kind == cards.KindPropertyWild.String()
}

func isRentKind(kind string) bool {
	return kind == cards.KindRent.String() || kind == cards.KindRentWild.String()
}

func (o *observation) handProperties() []game.CardView {
	var out []game.CardView
	for _, c := range o.me.Hand {
		if isPropertyKind(c.Kind) {
			out = append(out, c)
		}
	}
	return out
}

func (o *observation) handMoney() []game.CardView {
	var out []game.CardView
	for _, c := range o.me.Hand {
		if c.Kind == cards.KindMoney.String() {
			out = append(out, c)
		}
	}
	return out
}

func (o *observation) handBankable() []game.CardView {
	var out []game.CardView
	for _, c := range o.me.Hand {
		if !isPropertyKind(c.Kind) {
			out = append(out, c)
		}
	}
	return out
}

func (o *observation) handAction(action cards.ActionKind) (game.CardView, bool) {
	for _, c := range o.me.Hand {
		if c.Kind == cards.KindAction.String() && c.Action == action.String() {
			return c, true
		}
	}
	return game.CardView{}, false
}

// cardColorOptions lists every color group a hand property card could join.
func cardColorOptions(c game.CardView) []cards.Color {
	switch {
	case c.Kind == cards.KindProperty.String():
		return []cards.Color{cards.ParseColor(c.Color)}
	case isWildKind(c.Kind) && len(c.Colors) == 0:
		return cards.AllColors
	case isWildKind(c.Kind):
		out := make([]cards.Color, 0, len(c.Colors))
		for _, name := range c.Colors {
			out = append(out, cards.ParseColor(name))
		}
		return out
	}
	return nil
}

// setByColor returns the viewer's derived set for a color, if any.
func (o *observation) setByColor(color cards.Color) *game.SetView {
	name := color.String()
	for i := range o.me.Sets {
		if o.me.Sets[i].Color == name {
			return &o.me.Sets[i]
		}
	}
	return nil
}

// remainingFor reports how many more members the viewer needs to complete the
// given color, or -1 if the color has no schedule.
func (o *observation) remainingFor(color cards.Color) int {
	info := cards.InfoFor(color)
	if info.Required == 0 {
		return -1
	}
	have := 0
	if s := o.setByColor(color); s != nil {
		if s.IsComplete {
			return 0
		}
		have = len(s.CardIDs)
	}
	return info.Required - have
}

// playThatCompletesSet finds a hand property whose play finishes one of the
// viewer's sets, preferring colors by descending full-set rent.
func (o *observation) playThatCompletesSet() (game.CardView, cards.Color, bool) {
	type candidate struct {
		card  game.CardView
		color cards.Color
		rent  int
	}
	var best *candidate
	for _, c := range o.handProperties() {
		for _, color := range cardColorOptions(c) {
			if o.remainingFor(color) != 1 {
				continue
			}
			info := cards.InfoFor(color)
			rent := info.Rent[len(info.Rent)-1]
			if best == nil || rent > best.rent {
				best = &candidate{card: c, color: color, rent: rent}
			}
		}
	}
	if best == nil {
		return game.CardView{}, cards.ColorNone, false
	}
	return best.card, best.color, true
}

// firstPropertyPlay picks any hand property, preferring colors the viewer is
// already collecting. Wilds land on their most advanced eligible color.
func (o *observation) firstPropertyPlay() (game.CardView, cards.Color, bool) {
	props := o.handProperties()
	if len(props) == 0 {
		return game.CardView{}, cards.ColorNone, false
	}
	card := props[0]
	bestColor := cards.ColorNone
	bestRemaining := 1 << 30
	for _, color := range cardColorOptions(card) {
		remaining := o.remainingFor(color)
		if remaining < 0 {
			continue
		}
		if remaining < bestRemaining {
			bestRemaining = remaining
			bestColor = color
		}
	}
	if bestColor == cards.ColorNone {
		options := cardColorOptions(card)
		if len(options) > 0 {
			bestColor = options[0]
		}
	}
	return card, bestColor, true
}

// opponentWithCompleteSets returns the first opponent holding at least n
// complete sets.
func (o *observation) opponentWithCompleteSets(n int) *game.PlayerView {
	for _, opp := range o.opponents {
		if opp.CompleteSets >= n {
			return opp
		}
	}
	return nil
}

// dealBreakerTarget picks the opponent complete set with the highest rent.
func (o *observation) dealBreakerTarget() (victimID string, color cards.Color, ok bool) {
	bestRent := -1
	for _, opp := range o.opponents {
		for _, s := range opp.Sets {
			if !s.IsComplete {
				continue
			}
			if s.Rent > bestRent {
				bestRent = s.Rent
				victimID = opp.PlayerID
				color = cards.ParseColor(s.Color)
				ok = true
			}
		}
	}
	return victimID, color, ok
}

// slyDealTarget evaluates opponent properties outside complete sets by how
// much stealing them advances the viewer's own sets. Returns the best target,
// if any helps at all.
func (o *observation) slyDealTarget() (victimID, cardID string, ok bool) {
	bestGain := 0
	for _, opp := range o.opponents {
		complete := make(map[string]bool)
		for _, s := range opp.Sets {
			if s.IsComplete {
				for _, id := range s.CardIDs {
					complete[id] = true
				}
			}
		}
		for _, c := range opp.Properties {
			if !isPropertyKind(c.Kind) || complete[c.ID] {
				continue
			}
			gain := 0
			for _, color := range cardColorOptions(c) {
				remaining := o.remainingFor(color)
				if remaining <= 0 {
					continue
				}
				// A card that finishes a set outranks one that merely helps.
				g := 1
				if remaining == 1 {
					g = 3
				}
				if g > gain {
					gain = g
				}
			}
			if gain > bestGain {
				bestGain = gain
				victimID = opp.PlayerID
				cardID = c.ID
				ok = true
			}
		}
	}
	return victimID, cardID, ok
}

// rentPlay finds the rent card and color pairing with the highest charge the
// viewer can make right now. completeOnly restricts to complete sets.
func (o *observation) rentPlay(completeOnly bool) (game.CardView, cards.Color, int, bool) {
	var bestCard game.CardView
	bestColor := cards.ColorNone
	bestRent := 0
	for _, c := range o.me.Hand {
		if !isRentKind(c.Kind) {
			continue
		}
		for i := range o.me.Sets {
			s := &o.me.Sets[i]
			color := cards.ParseColor(s.Color)
			if color == cards.ColorNone || s.Rent <= 0 {
				continue
			}
			if completeOnly && !s.IsComplete {
				continue
			}
			if c.Kind == cards.KindRent.String() && !containsColorName(c.Colors, s.Color) {
				continue
			}
			if s.Rent > bestRent {
				bestRent = s.Rent
				bestCard = c
				bestColor = color
			}
		}
	}
	return bestCard, bestColor, bestRent, bestRent > 0
}

func containsColorName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// lowestValueBankable returns the cheapest bankable hand card.
func (o *observation) lowestValueBankable() (game.CardView, bool) {
	bankable := o.handBankable()
	if len(bankable) == 0 {
		return game.CardView{}, false
	}
	sort.SliceStable(bankable, func(i, j int) bool { return bankable[i].Value < bankable[j].Value })
	return bankable[0], true
}

// strategicValue scores a hand card for the hard tier. Higher means more
// worth keeping.
func (o *observation) strategicValue(c game.CardView, w Weights) float64 {
	score := float64(c.Value) * w.BaseValueWeight

	if isRentKind(c.Kind) {
		for i := range o.me.Sets {
			s := &o.me.Sets[i]
			if c.Kind == cards.KindRentWild.String() || containsColorName(c.Colors, s.Color) {
				score += float64(s.Rent) * w.RentPotentialWeight
			}
		}
	}

	if c.Kind == cards.KindAction.String() {
		switch c.Action {
		case cards.ActionJustSayNo.String():
			score += w.DefensiveActionBonus
		case cards.ActionDealBreaker.String(), cards.ActionSlyDeal.String(), cards.ActionForcedDeal.String():
			if o.opponentWithCompleteSets(1) != nil {
				score += w.OffensiveActionBonus
			}
		case cards.ActionHouse.String(), cards.ActionHotel.String():
			if o.hasCompleteSet() {
				score += w.SetCompletionBonus
			}
		}
	}

	return score
}

func (o *observation) hasCompleteSet() bool {
	return o.me.CompleteSets > 0
}

// leastStrategicBankable ranks bankable cards by strategic value and returns
// the one the viewer can most afford to lose.
func (o *observation) leastStrategicBankable(w Weights) (game.CardView, bool) {
	bankable := o.handBankable()
	if len(bankable) == 0 {
		return game.CardView{}, false
	}
	sort.SliceStable(bankable, func(i, j int) bool {
		return o.strategicValue(bankable[i], w) < o.strategicValue(bankable[j], w)
	})
	return bankable[0], true
}

func playProperty(card game.CardView, color cards.Color) Move {
	return Move{Play: game.PlayRequest{
		CardID:      card.ID,
		Destination: rules.DestProperties,
		TargetColor: color,
	}}
}

func playBank(card game.CardView) Move {
	return Move{Play: game.PlayRequest{
		CardID:      card.ID,
		Destination: rules.DestBank,
	}}
}
