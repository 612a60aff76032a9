package bot

// Weights tunes the hard tier's strategic-value ranking of bankable cards. A
// higher value means the card is worth keeping, so the bot banks the card
// with the lowest score.
type Weights struct {
	// BaseValueWeight scales the card's printed monetary value.
	BaseValueWeight float64
	// SetCompletionBonus is added when banking the card would give up
	// progress toward an incomplete set the bot is building.
	SetCompletionBonus float64
	// DefensiveActionBonus protects Just Say No cards from being banked.
	DefensiveActionBonus float64
	// OffensiveActionBonus protects steal actions (Deal Breaker, Sly Deal,
	// Forced Deal) once opponents have sets worth taking.
	OffensiveActionBonus float64
	// RentPotentialWeight scales a rent card's value by the rent the bot
	// could charge with it right now.
	RentPotentialWeight float64
}

// DefaultTuning keeps high-value colors and reactive cards in hand while
// letting low money and dead actions go to the bank first.
var DefaultTuning = Weights{
	BaseValueWeight:      1.0,
	SetCompletionBonus:   4.0,
	DefensiveActionBonus: 5.0,
	OffensiveActionBonus: 3.0,
	RentPotentialWeight:  0.8,
}
