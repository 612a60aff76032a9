package cards

import (
	"math/rand"

	"github.com/google/uuid"
)

// DeckSize is the fixed number of cards in a fresh deck.
const DeckSize = 106

// Debt amounts charged by the two direct-payment actions.
const (
	DebtCollectorAmount = 5
	BirthdayAmount      = 2
)

// moneyEntry describes one denomination run in the catalog.
type moneyEntry struct {
	value int
	count int
}

// 20 money cards.
var moneyCatalog = []moneyEntry{
	{value: 10, count: 1},
	{value: 5, count: 2},
	{value: 4, count: 3},
	{value: 3, count: 3},
	{value: 2, count: 5},
	{value: 1, count: 6},
}

type propertyEntry struct {
	color Color
	name  string
	value int
	count int
}

// 28 single-color properties.
var propertyCatalog = []propertyEntry{
	{ColorBrown, "Brown Property", 1, 2},
	{ColorLightBlue, "Light Blue Property", 1, 3},
	{ColorPink, "Pink Property", 2, 3},
	{ColorOrange, "Orange Property", 2, 3},
	{ColorRed, "Red Property", 3, 3},
	{ColorYellow, "Yellow Property", 3, 3},
	{ColorGreen, "Green Property", 4, 3},
	{ColorDarkBlue, "Dark Blue Property", 4, 2},
	{ColorRailroad, "Railroad", 2, 4},
	{ColorUtility, "Utility", 2, 2},
}

type wildEntry struct {
	colors []Color
	name   string
	value  int
	count  int
}

// 9 dual-color wilds plus 2 rainbow wilds (empty color list = any color).
var wildCatalog = []wildEntry{
	{[]Color{ColorDarkBlue, ColorGreen}, "Wild Dark Blue/Green", 4, 1},
	{[]Color{ColorGreen, ColorRailroad}, "Wild Green/Railroad", 4, 1},
	{[]Color{ColorUtility, ColorRailroad}, "Wild Utility/Railroad", 2, 1},
	{[]Color{ColorLightBlue, ColorRailroad}, "Wild Light Blue/Railroad", 4, 1},
	{[]Color{ColorLightBlue, ColorBrown}, "Wild Light Blue/Brown", 1, 1},
	{[]Color{ColorPink, ColorOrange}, "Wild Pink/Orange", 2, 2},
	{[]Color{ColorRed, ColorYellow}, "Wild Red/Yellow", 3, 2},
	{nil, "Rainbow Wild", 0, 2},
}

type actionEntry struct {
	action ActionKind
	name   string
	value  int
	count  int
}

// 34 action cards with fixed per-type counts.
var actionCatalog = []actionEntry{
	{ActionPassGo, "Pass Go", 1, 10},
	{ActionJustSayNo, "Just Say No", 4, 3},
	{ActionDealBreaker, "Deal Breaker", 5, 2},
	{ActionDebtCollector, "Debt Collector", 3, 3},
	{ActionBirthday, "It's My Birthday", 2, 3},
	{ActionSlyDeal, "Sly Deal", 3, 3},
	{ActionForcedDeal, "Forced Deal", 3, 3},
	{ActionHouse, "House", 3, 3},
	{ActionHotel, "Hotel", 4, 2},
	{ActionDoubleRent, "Double The Rent", 1, 2},
}

type rentEntry struct {
	colors []Color
	name   string
	value  int
	count  int
	wild   bool
}

// 10 fixed-pair rent cards plus 3 wild rents.
var rentCatalog = []rentEntry{
	{[]Color{ColorBrown, ColorLightBlue}, "Rent Brown/Light Blue", 1, 2, false},
	{[]Color{ColorPink, ColorOrange}, "Rent Pink/Orange", 1, 2, false},
	{[]Color{ColorRed, ColorYellow}, "Rent Red/Yellow", 1, 2, false},
	{[]Color{ColorGreen, ColorDarkBlue}, "Rent Green/Dark Blue", 1, 2, false},
	{[]Color{ColorRailroad, ColorUtility}, "Rent Railroad/Utility", 1, 2, false},
	{nil, "Wild Rent", 3, 3, true},
}

// BuildDeck produces the full fixed-composition deck in a uniformly random
// order. Card instance IDs are freshly generated UUIDs.
func BuildDeck(rng *rand.Rand) []*Card {
	deck := make([]*Card, 0, DeckSize)

	for _, entry := range moneyCatalog {
		for i := 0; i < entry.count; i++ {
			deck = append(deck, &Card{
				ID:    uuid.NewString(),
				Kind:  KindMoney,
				Name:  moneyName(entry.value),
				Value: entry.value,
			})
		}
	}

	for _, entry := range propertyCatalog {
		for i := 0; i < entry.count; i++ {
			deck = append(deck, &Card{
				ID:    uuid.NewString(),
				Kind:  KindProperty,
				Name:  entry.name,
				Value: entry.value,
				Color: entry.color,
			})
		}
	}

	for _, entry := range wildCatalog {
		for i := 0; i < entry.count; i++ {
			deck = append(deck, &Card{
				ID:     uuid.NewString(),
				Kind:   KindPropertyWild,
				Name:   entry.name,
				Value:  entry.value,
				Colors: cloneColors(entry.colors),
			})
		}
	}

	for _, entry := range actionCatalog {
		for i := 0; i < entry.count; i++ {
			deck = append(deck, &Card{
				ID:     uuid.NewString(),
				Kind:   KindAction,
				Name:   entry.name,
				Value:  entry.value,
				Action: entry.action,
			})
		}
	}

	for _, entry := range rentCatalog {
		kind := KindRent
		if entry.wild {
			kind = KindRentWild
		}
		for i := 0; i < entry.count; i++ {
			deck = append(deck, &Card{
				ID:     uuid.NewString(),
				Kind:   kind,
				Name:   entry.name,
				Value:  entry.value,
				Colors: cloneColors(entry.colors),
			})
		}
	}

	Shuffle(rng, deck)
	return deck
}

// Shuffle performs a uniform Fisher-Yates permutation in place.
func Shuffle(rng *rand.Rand, deck []*Card) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

func cloneColors(colors []Color) []Color {
	if len(colors) == 0 {
		return nil
	}
	out := make([]Color, len(colors))
	copy(out, colors)
	return out
}

func moneyName(value int) string {
	switch value {
	case 1:
		return "$1M"
	case 2:
		return "$2M"
	case 3:
		return "$3M"
	case 4:
		return "$4M"
	case 5:
		return "$5M"
	default:
		return "$10M"
	}
}
