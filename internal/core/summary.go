package core

import "github.com/shopspring/decimal"

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Total sums the amounts of expenses.
func Total(expenses []Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// Breakdown groups expenses by category. Every category of the closed set is
// present, in display order, even when zero; labels outside the set follow in
// first-seen order.
func Breakdown(expenses []Expense) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(Categories))
	index := make(map[string]int, len(Categories))
	for _, c := range Categories {
		index[c] = len(out)
		out = append(out, CategoryTotal{Category: c, Total: decimal.Zero})
	}

	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}
