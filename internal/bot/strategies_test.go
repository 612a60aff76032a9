package bot

import (
	"math/rand"
	"testing"

	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

func moneyView(id string, value int) game.CardView {
	return game.CardView{ID: id, Kind: "MONEY", Name: "Money", Value: value}
}

func propertyView(id string, color cards.Color, value int) game.CardView {
	return game.CardView{ID: id, Kind: "PROPERTY", Name: "Property", Value: value, Color: color.String(), CurrentColor: color.String()}
}

func actionView(id string, action cards.ActionKind, value int) game.CardView {
	return game.CardView{ID: id, Kind: "ACTION", Name: action.String(), Value: value, Action: action.String(), CurrentColor: "NONE"}
}

func rentView(id string, colors ...cards.Color) game.CardView {
	cv := game.CardView{ID: id, Kind: "RENT", Name: "Rent", Value: 1, CurrentColor: "NONE"}
	for _, c := range colors {
		cv.Colors = append(cv.Colors, c.String())
	}
	return cv
}

func completeSetView(color cards.Color, ids ...string) game.SetView {
	info := cards.InfoFor(color)
	return game.SetView{
		Color:      color.String(),
		CardIDs:    ids,
		IsComplete: true,
		Rent:       info.Rent[len(info.Rent)-1],
	}
}

func partialSetView(color cards.Color, ids ...string) game.SetView {
	info := cards.InfoFor(color)
	return game.SetView{
		Color:   color.String(),
		CardIDs: ids,
		Rent:    info.Rent[len(ids)-1],
	}
}

func viewWith(me game.PlayerView, opponents ...game.PlayerView) *game.GameView {
	me.PlayerID = "bot"
	view := &game.GameView{
		ViewerID:     "bot",
		ActivePlayer: "bot",
		Phase:        "PLAYING",
		MovesLeft:    3,
		Players:      append([]game.PlayerView{me}, opponents...),
	}
	return view
}

func TestEasyBotEndsTurnOnEmptyHand(t *testing.T) {
	bot := &EasyBot{}
	view := viewWith(game.PlayerView{})
	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if !move.EndTurn {
		t.Fatal("easy bot should end turn with an empty hand")
	}
}

func TestEasyBotPlaysLoneProperty(t *testing.T) {
	bot := &EasyBot{}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{propertyView("prop-1", cards.ColorRed, 3)},
	})

	// No bankable cards in hand, so the random bank branch cannot trigger.
	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.EndTurn {
		t.Fatal("easy bot ended turn while holding a playable property")
	}
	if move.Play.CardID != "prop-1" || move.Play.Destination != rules.DestProperties {
		t.Errorf("expected property play of prop-1, got %+v", move.Play)
	}
	if move.Play.TargetColor != cards.ColorRed {
		t.Errorf("expected red target color, got %s", move.Play.TargetColor)
	}
}

func TestEasyBotDecisionIsDeterministicPerSeed(t *testing.T) {
	bot := &EasyBot{}
	hand := []game.CardView{
		moneyView("m1", 1),
		moneyView("m2", 2),
		actionView("pg", cards.ActionPassGo, 1),
	}
	a := bot.DecideMove(viewWith(game.PlayerView{Hand: hand}), rand.New(rand.NewSource(9)))
	b := bot.DecideMove(viewWith(game.PlayerView{Hand: hand}), rand.New(rand.NewSource(9)))
	if a != b {
		t.Errorf("same seed produced different moves: %+v vs %+v", a, b)
	}
}

func TestMediumBotCompletesNearSet(t *testing.T) {
	bot := &MediumBot{}
	view := viewWith(game.PlayerView{
		Hand:       []game.CardView{moneyView("m1", 5), propertyView("pp", cards.ColorDarkBlue, 4)},
		Properties: []game.CardView{propertyView("bw", cards.ColorDarkBlue, 4)},
		Sets:       []game.SetView{partialSetView(cards.ColorDarkBlue, "bw")},
	})

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "pp" {
		t.Errorf("expected set-completing play of pp, got %+v", move.Play)
	}
	if move.Play.TargetColor != cards.ColorDarkBlue {
		t.Errorf("expected dark blue target, got %s", move.Play.TargetColor)
	}
}

func TestMediumBotDealBreaksLeadingOpponent(t *testing.T) {
	bot := &MediumBot{}
	opp := game.PlayerView{
		PlayerID:     "rival",
		CompleteSets: 2,
		Sets: []game.SetView{
			completeSetView(cards.ColorBrown, "b1", "b2"),
			completeSetView(cards.ColorGreen, "g1", "g2", "g3"),
		},
	}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{actionView("db", cards.ActionDealBreaker, 5)},
	}, opp)

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "db" {
		t.Fatalf("expected deal breaker play, got %+v", move.Play)
	}
	if move.Play.TargetPlayerID != "rival" {
		t.Errorf("expected target rival, got %s", move.Play.TargetPlayerID)
	}
	if move.Play.TargetColor != cards.ColorGreen {
		t.Errorf("expected the richer green set, got %s", move.Play.TargetColor)
	}
}

func TestMediumBotBanksLowestValue(t *testing.T) {
	bot := &MediumBot{}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{moneyView("big", 10), moneyView("small", 1)},
	})

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "small" || move.Play.Destination != rules.DestBank {
		t.Errorf("expected banking the 1M card, got %+v", move.Play)
	}
}

func TestHardBotWinsNow(t *testing.T) {
	bot := &HardBot{}
	view := viewWith(game.PlayerView{
		CompleteSets: 2,
		Hand: []game.CardView{
			actionView("db", cards.ActionDealBreaker, 5),
			propertyView("ww", cards.ColorUtility, 2),
		},
		Properties: []game.CardView{propertyView("ec", cards.ColorUtility, 2)},
		Sets: []game.SetView{
			completeSetView(cards.ColorBrown, "b1", "b2"),
			completeSetView(cards.ColorDarkBlue, "d1", "d2"),
			partialSetView(cards.ColorUtility, "ec"),
		},
	}, game.PlayerView{
		PlayerID:     "rival",
		CompleteSets: 2,
		Sets:         []game.SetView{completeSetView(cards.ColorBrown, "x1", "x2"), completeSetView(cards.ColorPink, "p1", "p2", "p3")},
	})

	// Completing the third set wins immediately and must beat the steal.
	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "ww" || move.Play.Destination != rules.DestProperties {
		t.Errorf("expected win-now utility play, got %+v", move.Play)
	}
}

func TestHardBotBankingKeepsJustSayNo(t *testing.T) {
	bot := &HardBot{}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{
			actionView("jsn", cards.ActionJustSayNo, 4),
			moneyView("m", 4),
		},
	})

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.Destination != rules.DestBank {
		t.Fatalf("expected a bank play, got %+v", move.Play)
	}
	if move.Play.CardID != "m" {
		t.Errorf("bot banked its Just Say No instead of equal-value money")
	}
}

func TestHardBotSlyDealPrefersSetFinisher(t *testing.T) {
	bot := &HardBot{}
	opp := game.PlayerView{
		PlayerID: "rival",
		Properties: []game.CardView{
			propertyView("useless", cards.ColorOrange, 1),
			propertyView("finisher", cards.ColorDarkBlue, 4),
		},
		Sets: []game.SetView{
			partialSetView(cards.ColorOrange, "useless"),
			partialSetView(cards.ColorDarkBlue, "finisher"),
		},
	}
	view := viewWith(game.PlayerView{
		Hand:       []game.CardView{actionView("sly", cards.ActionSlyDeal, 3)},
		Properties: []game.CardView{propertyView("pp", cards.ColorDarkBlue, 4)},
		Sets:       []game.SetView{partialSetView(cards.ColorDarkBlue, "pp")},
	}, opp)

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "sly" {
		t.Fatalf("expected sly deal, got %+v", move.Play)
	}
	if move.Play.TargetCardID != "finisher" {
		t.Errorf("expected the dark blue finisher, got %s", move.Play.TargetCardID)
	}
}

func TestExpertBotBreaksImmediately(t *testing.T) {
	bot := NewExpertBot()
	opp := game.PlayerView{
		PlayerID:     "rival",
		CompleteSets: 2,
		Sets:         []game.SetView{completeSetView(cards.ColorGreen, "g1", "g2", "g3"), completeSetView(cards.ColorBrown, "b1", "b2")},
	}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{
			propertyView("near", cards.ColorDarkBlue, 4),
			actionView("db", cards.ActionDealBreaker, 5),
		},
		Properties: []game.CardView{propertyView("pp", cards.ColorDarkBlue, 4)},
		Sets:       []game.SetView{partialSetView(cards.ColorDarkBlue, "pp")},
	}, opp)

	// The breaker fires before any own-set building.
	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.CardID != "db" {
		t.Errorf("expected immediate deal breaker, got %+v", move.Play)
	}
}

func TestExpertBotAvoidsSuspectedJustSayNoHolder(t *testing.T) {
	bot := NewExpertBot()
	bot.OnEvent(rules.Event{Type: rules.EventActionCancelled, PlayerID: "suspect"})

	suspect := game.PlayerView{
		PlayerID:     "suspect",
		CompleteSets: 2,
		Sets:         []game.SetView{completeSetView(cards.ColorGreen, "g1", "g2", "g3"), completeSetView(cards.ColorBrown, "b1", "b2")},
	}
	clean := game.PlayerView{
		PlayerID:     "clean",
		CompleteSets: 2,
		Sets:         []game.SetView{completeSetView(cards.ColorBrown, "c1", "c2"), completeSetView(cards.ColorUtility, "u1", "u2")},
	}
	view := viewWith(game.PlayerView{
		Hand: []game.CardView{actionView("db", cards.ActionDealBreaker, 5)},
	}, suspect, clean)

	move := bot.DecideMove(view, rand.New(rand.NewSource(1)))
	if move.Play.TargetPlayerID != "clean" {
		t.Errorf("expected the non-suspect target, got %s", move.Play.TargetPlayerID)
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]Level{
		"easy": LevelEasy, "medium": LevelMedium, "hard": LevelHard, "expert": LevelExpert,
	} {
		got, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseLevel("nightmare"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewBrainCoversAllLevels(t *testing.T) {
	for _, level := range []Level{LevelEasy, LevelMedium, LevelHard, LevelExpert} {
		if _, err := NewBrain(level); err != nil {
			t.Errorf("NewBrain(%s): %v", level, err)
		}
	}
	if _, err := NewBrain(Level(99)); err == nil {
		t.Error("expected error for unknown brain level")
	}
}
