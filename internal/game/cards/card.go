package cards

import (
	"fmt"
)

// Kind discriminates the card variants. All rule dispatch switches on Kind
// (and ActionKind for ACTION cards) rather than probing optional fields.
type Kind int

const (
	KindMoney Kind = iota
	KindProperty
	KindPropertyWild
	KindAction
	KindRent
	KindRentWild
)

var kindNames = map[Kind]string{
	KindMoney:        "MONEY",
	KindProperty:     "PROPERTY",
	KindPropertyWild: "PROPERTY_WILD",
	KindAction:       "ACTION",
	KindRent:         "RENT",
	KindRentWild:     "RENT_WILD",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// ActionKind identifies the concrete effect of an ACTION card.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPassGo
	ActionDebtCollector
	ActionBirthday
	ActionSlyDeal
	ActionForcedDeal
	ActionDealBreaker
	ActionJustSayNo
	ActionHouse
	ActionHotel
	ActionDoubleRent
)

var actionNames = map[ActionKind]string{
	ActionNone:          "NONE",
	ActionPassGo:        "PASS_GO",
	ActionDebtCollector: "DEBT_COLLECTOR",
	ActionBirthday:      "BIRTHDAY",
	ActionSlyDeal:       "SLY_DEAL",
	ActionForcedDeal:    "FORCED_DEAL",
	ActionDealBreaker:   "DEAL_BREAKER",
	ActionJustSayNo:     "JUST_SAY_NO",
	ActionHouse:         "HOUSE",
	ActionHotel:         "HOTEL",
	ActionDoubleRent:    "DOUBLE_RENT",
}

func (a ActionKind) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(a))
}

// Color identifies a property color group. ColorNone marks an unassigned
// rainbow wild, which groups separately and never completes a set.
type Color int

const (
	ColorNone Color = iota
	ColorBrown
	ColorLightBlue
	ColorPink
	ColorOrange
	ColorRed
	ColorYellow
	ColorGreen
	ColorDarkBlue
	ColorRailroad
	ColorUtility
)

var colorNames = map[Color]string{
	ColorNone:      "NONE",
	ColorBrown:     "BROWN",
	ColorLightBlue: "LIGHT_BLUE",
	ColorPink:      "PINK",
	ColorOrange:    "ORANGE",
	ColorRed:       "RED",
	ColorYellow:    "YELLOW",
	ColorGreen:     "GREEN",
	ColorDarkBlue:  "DARK_BLUE",
	ColorRailroad:  "RAILROAD",
	ColorUtility:   "UTILITY",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COLOR_%d", int(c))
}

// ParseColor maps a color name back to its Color. Unknown names map to
// ColorNone.
func ParseColor(name string) Color {
	for color, n := range colorNames {
		if n == name {
			return color
		}
	}
	return ColorNone
}

// AllColors lists every real color group in a stable order.
var AllColors = []Color{
	ColorBrown, ColorLightBlue, ColorPink, ColorOrange, ColorRed,
	ColorYellow, ColorGreen, ColorDarkBlue, ColorRailroad, ColorUtility,
}

// ColorInfo carries the static per-color schedule: how many members complete
// the set and the rent charged per member count. Schedules are monotonically
// increasing and indexed by member count minus one.
type ColorInfo struct {
	Required int
	Rent     []int
}

var colorTable = map[Color]ColorInfo{
	ColorBrown:     {Required: 2, Rent: []int{1, 2}},
	ColorLightBlue: {Required: 3, Rent: []int{1, 2, 3}},
	ColorPink:      {Required: 3, Rent: []int{1, 2, 4}},
	ColorOrange:    {Required: 3, Rent: []int{1, 3, 5}},
	ColorRed:       {Required: 3, Rent: []int{2, 3, 6}},
	ColorYellow:    {Required: 3, Rent: []int{2, 4, 6}},
	ColorGreen:     {Required: 3, Rent: []int{2, 4, 7}},
	ColorDarkBlue:  {Required: 2, Rent: []int{3, 8}},
	ColorRailroad:  {Required: 4, Rent: []int{1, 2, 3, 4}},
	ColorUtility:   {Required: 2, Rent: []int{1, 2}},
}

// InfoFor returns the schedule for a color. The zero ColorInfo is returned for
// ColorNone so an unassigned rainbow group can never complete.
func InfoFor(color Color) ColorInfo {
	return colorTable[color]
}

// Card is an immutable template plus a unique instance ID. CurrentColor is the
// single mutable field: for PROPERTY_WILD it selects the color group the card
// currently counts toward, and for a House or Hotel placed onto properties it
// records the set the building is attached to.
type Card struct {
	ID     string
	Kind   Kind
	Name   string
	Value  int
	Action ActionKind

	// Color is set for single-color properties; Colors for wild properties and
	// rent cards. A rainbow wild has an empty Colors slice and matches any color.
	Color        Color
	Colors       []Color
	CurrentColor Color
}

// IsProperty reports whether the card occupies a property zone slot.
func (c *Card) IsProperty() bool {
	return c.Kind == KindProperty || c.Kind == KindPropertyWild
}

// IsRainbowWild reports whether the card is the any-color wild property.
func (c *Card) IsRainbowWild() bool {
	return c.Kind == KindPropertyWild && len(c.Colors) == 0
}

// Bankable reports whether the card may be placed in a bank. Property and wild
// property cards never bank; every other kind does.
func (c *Card) Bankable() bool {
	return !c.IsProperty()
}

// EffectiveColor resolves the color group the card currently belongs to.
// Single-color properties use their printed color; wilds use CurrentColor,
// which is ColorNone for an unassigned rainbow wild.
func (c *Card) EffectiveColor() Color {
	switch c.Kind {
	case KindProperty:
		return c.Color
	case KindPropertyWild:
		return c.CurrentColor
	default:
		return ColorNone
	}
}

// CanAssume reports whether a wild property may be flipped to the given color.
func (c *Card) CanAssume(color Color) bool {
	if c.Kind != KindPropertyWild || color == ColorNone {
		return false
	}
	if c.IsRainbowWild() {
		return true
	}
	for _, valid := range c.Colors {
		if valid == color {
			return true
		}
	}
	return false
}

// RentMatches reports whether a rent card may charge the given color.
func (c *Card) RentMatches(color Color) bool {
	switch c.Kind {
	case KindRentWild:
		return color != ColorNone
	case KindRent:
		for _, valid := range c.Colors {
			if valid == color {
				return true
			}
		}
	}
	return false
}

func (c *Card) String() string {
	return fmt.Sprintf("%s(%s id=%s)", c.Name, c.Kind, c.ID)
}
