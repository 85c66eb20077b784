package models

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NewBreakdown splits total holdings by category. Percentages are whole
// numbers assigned by largest remainder so they always sum to exactly 100.
// Items are ordered by amount, largest first. Zero or negative amounts are
// dropped; if nothing positive remains the share is split evenly.
func NewBreakdown(amounts map[Category]decimal.Decimal) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(amounts))
	total := decimal.Zero
	for _, c := range Categories() {
		amount, ok := amounts[c]
		if !ok {
			continue
		}
		items = append(items, BreakdownItem{Category: c, Amount: amount.Round(2)})
		if amount.IsPositive() {
			total = total.Add(amount)
		}
	}
	if len(items) == 0 {
		return nil
	}

	if total.IsZero() {
		shares := make([]decimal.Decimal, len(items))
		for i := range items {
			shares[i] = decimal.NewFromInt(1)
		}
		assignPercentages(items, shares, decimal.NewFromInt(int64(len(items))))
		return items
	}

	positive := items[:0]
	for _, item := range items {
		if item.Amount.IsPositive() {
			positive = append(positive, item)
		}
	}
	items = positive
	shares := make([]decimal.Decimal, len(items))
	for i, item := range items {
		shares[i] = item.Amount
	}
	assignPercentages(items, shares, total)

	slices.SortStableFunc(items, func(a, b BreakdownItem) int {
		return b.Amount.Cmp(a.Amount)
	})
	return items
}

// assignPercentages floors every share and hands the leftover points to the
// largest fractional remainders, earlier items winning ties.
func assignPercentages(items []BreakdownItem, shares []decimal.Decimal, total decimal.Decimal) {
	type remainder struct {
		idx  int
		frac decimal.Decimal
	}
	rems := make([]remainder, len(items))
	assigned := int64(0)
	for i, share := range shares {
		exact := share.Mul(hundred).DivRound(total, 8)
		floor := exact.Floor()
		items[i].Percentage = int(floor.IntPart())
		assigned += floor.IntPart()
		rems[i] = remainder{idx: i, frac: exact.Sub(floor)}
	}

	slices.SortStableFunc(rems, func(a, b remainder) int {
		if c := b.frac.Cmp(a.frac); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})
	for i := 0; assigned < 100; i++ {
		items[rems[i%len(rems)].idx].Percentage++
		assigned++
	}
}
