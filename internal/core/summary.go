package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// Summary compares the total of a list of expenses with a budget.
type Summary struct {
	Count      int
	Total      Money
	Budget     Money
	Balance    Money // Budget - Total, negative when over budget
	OverBudget bool
	ByCategory []CategoryAmount // first-seen order
}

// Total sums the amounts of items.
func Total(items []Expense) Money {
	var total Money
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return total
}

// Summarize computes the totals of items against budget.
func Summarize(items []Expense, budget Money) Summary {
	s := Summary{
		Count:  len(items),
		Total:  Total(items),
		Budget: budget,
	}
	s.Balance = budget.Sub(s.Total)
	s.OverBudget = s.Balance.Units < 0

	idx := make(map[Category]int)
	for _, e := range items {
		i, ok := idx[e.Category]
		if !ok {
			i = len(s.ByCategory)
			idx[e.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Category: e.Category})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(e.Amount)
	}
	return s
}

// DemoExpenses returns the two sample expenses the tracker ships with.
func DemoExpenses() []Expense {
	return []Expense{
		{Description: "Book", Amount: Money{Units: 35000}, Category: Education, Date: NewDate(2023, 5, 20)},
		{Description: "Taxi", Amount: Money{Units: 10000}, Category: Transportation, Date: NewDate(2023, 5, 19)},
	}
}
