// Package payment chooses which of a debtor's face-up assets satisfy a debt.
// Hand cards are never eligible. Selection minimizes surrendered properties
// and avoids breaking complete sets when any cheaper stage can cover the debt.
package payment

import (
	"sort"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/sets"
)

// Select picks assets covering amountDue, staged strictly in order:
//
//  1. exact-sum subset of bank cards (money plus banked action/rent cards)
//  2. exact-sum subset of properties outside any complete set
//  3. exact-sum subset of set-breaking properties
//
// A stage whose pool cannot reach the target contributes everything it has and
// passes the shortfall on. A stage whose pool is sufficient but has no exact
// subset falls back to a greedy minimal-overpayment pick within that pool.
// A debtor with no eligible assets yields an empty selection (debt forgiven).
func Select(bank []*cards.Card, properties []*cards.Card, amountDue int) []*cards.Card {
	if amountDue <= 0 {
		return nil
	}

	nonBreaking := make([]*cards.Card, 0, len(properties))
	breaking := make([]*cards.Card, 0, len(properties))
	for _, c := range properties {
		if sets.InCompleteSet(properties, c) {
			breaking = append(breaking, c)
		} else {
			nonBreaking = append(nonBreaking, c)
		}
	}

	var selected []*cards.Card
	remaining := amountDue
	for _, pool := range [][]*cards.Card{bank, nonBreaking, breaking} {
		var picked []*cards.Card
		picked, remaining = takeFromPool(pool, remaining)
		selected = append(selected, picked...)
		if remaining <= 0 {
			break
		}
	}
	return selected
}

// Total sums the payment worth of a selection.
func Total(selection []*cards.Card) int {
	total := 0
	for _, c := range selection {
		total += c.Value
	}
	return total
}

// takeFromPool covers as much of due as the pool allows. It prefers an exact
// subset, overpays greedily when the pool is rich enough but no exact subset
// exists, and surrenders the whole pool otherwise.
func takeFromPool(pool []*cards.Card, due int) (picked []*cards.Card, remaining int) {
	if due <= 0 || len(pool) == 0 {
		return nil, due
	}

	total := Total(pool)
	if total == 0 {
		return nil, due
	}
	if total <= due {
		picked = append(picked, pool...)
		return picked, due - total
	}

	if subset := exactSubset(pool, due); subset != nil {
		return subset, 0
	}
	return greedy(pool, due), 0
}

// exactSubset finds a subset summing to exactly the target, preferring fewer
// cards. Returns nil when no exact subset exists.
func exactSubset(pool []*cards.Card, target int) []*cards.Card {
	best := make(map[int][]*cards.Card, target+1)
	best[0] = []*cards.Card{}

	for _, c := range pool {
		if c.Value <= 0 {
			continue
		}
		// Snapshot sums before extending so a card is used at most once.
		sums := make([]int, 0, len(best))
		for sum := range best {
			sums = append(sums, sum)
		}
		for _, sum := range sums {
			next := sum + c.Value
			if next > target {
				continue
			}
			candidate := make([]*cards.Card, len(best[sum]), len(best[sum])+1)
			copy(candidate, best[sum])
			candidate = append(candidate, c)
			if existing, ok := best[next]; !ok || len(candidate) < len(existing) {
				best[next] = candidate
			}
		}
	}

	return best[target]
}

// greedy accumulates highest-value cards until the target is met or exceeded.
func greedy(pool []*cards.Card, target int) []*cards.Card {
	ordered := make([]*cards.Card, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Value > ordered[j].Value })

	var picked []*cards.Card
	sum := 0
	for _, c := range ordered {
		if sum >= target {
			break
		}
		picked = append(picked, c)
		sum += c.Value
	}
	return picked
}
