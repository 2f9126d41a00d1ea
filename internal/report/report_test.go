package report

import (
	"testing"

	"financas/internal/core"
)

func tx(kind core.Kind, category string, cents int64, year, month, day int) core.Transaction {
	return core.Transaction{
		Description: "test",
		Amount:      core.Money{Cents: cents},
		Kind:        kind,
		Category:    category,
		Date:        core.NewDate(year, month, day),
	}
}

func TestBalanceEmptyList(t *testing.T) {
	if b := Balance(nil); b.Cents != 0 {
		t.Fatalf("empty balance = %d, want 0", b.Cents)
	}
	totals := TotalsByKind(nil)
	if totals.Income.Cents != 0 || totals.Expense.Cents != 0 {
		t.Fatalf("empty totals = %+v, want zeros", totals)
	}
}

func TestBalanceScenario(t *testing.T) {
	list := []core.Transaction{
		tx(core.Income, "Salary", 100000, 2025, 6, 1),
		tx(core.Expense, "Food", 30000, 2025, 6, 2),
	}
	if b := Balance(list); b.Cents != 70000 {
		t.Fatalf("balance = %d cents, want 70000", b.Cents)
	}
	byCat := TotalsByCategory(list)
	if got := byCat[core.Expense]["Food"].Cents; got != 30000 {
		t.Fatalf("expense Food = %d cents, want 30000", got)
	}
	if len(byCat[core.Expense]) != 1 {
		t.Fatalf("report variant should drop empty categories, got %v", byCat[core.Expense])
	}
}

func TestBalanceEqualsTotalsDifference(t *testing.T) {
	lists := [][]core.Transaction{
		nil,
		{tx(core.Income, "Salary", 500, 2025, 1, 1)},
		{tx(core.Expense, "Food", 500, 2025, 1, 1)},
		{
			tx(core.Income, "Salary", 123456, 2025, 1, 1),
			tx(core.Expense, "Food", 78900, 2025, 2, 1),
			tx(core.Income, "Gift", 50, 2025, 3, 1),
			tx(core.Expense, "Transport", 1, 2025, 3, 2),
		},
	}
	for i, list := range lists {
		totals := TotalsByKind(list)
		if Balance(list) != totals.Income.Sub(totals.Expense) {
			t.Fatalf("list %d: balance != income - expense", i)
		}
	}
}

func TestCategoryOptionsKeepsZeros(t *testing.T) {
	list := []core.Transaction{
		tx(core.Expense, "Food", 30000, 2025, 6, 2),
	}
	opts := CategoryOptions(list, core.Expense)
	if len(opts) != len(core.Categories(core.Expense)) {
		t.Fatalf("options variant should list every known category, got %d", len(opts))
	}
	found := map[string]int64{}
	for _, o := range opts {
		found[o.Name] = o.Amount.Cents
	}
	if found["Food"] != 30000 {
		t.Fatalf("Food = %d, want 30000", found["Food"])
	}
	if v, ok := found["Transport"]; !ok || v != 0 {
		t.Fatalf("Transport should be present at 0, got %d (present=%v)", v, ok)
	}
}

func TestCategoryOptionsIncludesStoredUnknowns(t *testing.T) {
	// Older files may carry categories outside the current catalog.
	list := []core.Transaction{
		tx(core.Expense, "Pets", 500, 2025, 6, 2),
	}
	opts := CategoryOptions(list, core.Expense)
	last := opts[len(opts)-1]
	if last.Name != "Pets" || last.Amount.Cents != 500 {
		t.Fatalf("stored unknown category missing, tail = %+v", last)
	}
}

func TestMonthlyEmptyMonth(t *testing.T) {
	list := []core.Transaction{
		tx(core.Income, "Salary", 100000, 2025, 5, 1),
	}
	rep := Monthly(list, 6, 2025, nil)
	if rep.Count != 0 || len(rep.Transactions) != 0 {
		t.Fatalf("count = %d, transactions = %d; want 0", rep.Count, len(rep.Transactions))
	}
	if rep.TotalIncome.Cents != 0 || rep.TotalExpense.Cents != 0 || rep.Balance.Cents != 0 {
		t.Fatalf("empty month should be all zeros: %+v", rep)
	}
}

func TestMonthlyFiltersByMonthAndYear(t *testing.T) {
	list := []core.Transaction{
		tx(core.Income, "Salary", 100000, 2025, 6, 1),
		tx(core.Expense, "Food", 30000, 2025, 6, 15),
		tx(core.Expense, "Food", 99999, 2025, 5, 15),   // wrong month
		tx(core.Expense, "Food", 99999, 2024, 6, 15),   // wrong year
		{}, // zero date is excluded, not fatal
	}
	rep := Monthly(list, 6, 2025, nil)
	if rep.Count != 2 {
		t.Fatalf("count = %d, want 2", rep.Count)
	}
	if rep.TotalIncome.Cents != 100000 || rep.TotalExpense.Cents != 30000 {
		t.Fatalf("totals = %+v", rep)
	}
	if rep.Balance.Cents != 70000 {
		t.Fatalf("balance = %d, want 70000", rep.Balance.Cents)
	}
}

func TestSeriesSortedAscendingWithWindow(t *testing.T) {
	list := []core.Transaction{
		tx(core.Expense, "Food", 100, 2025, 3, 1),
		tx(core.Expense, "Food", 200, 2025, 1, 1),
		tx(core.Income, "Salary", 900, 2025, 1, 5),
		tx(core.Expense, "Food", 300, 2024, 12, 1),
		tx(core.Expense, "Food", 400, 2025, 2, 1),
	}

	all := Series(list, 0)
	if len(all) != 4 {
		t.Fatalf("%d bins, want 4", len(all))
	}
	labels := []string{"12/2024", "01/2025", "02/2025", "03/2025"}
	for i, want := range labels {
		if all[i].Label != want {
			t.Fatalf("bin %d label = %q, want %q", i, all[i].Label, want)
		}
	}
	if all[1].Income.Cents != 900 || all[1].Expense.Cents != 200 || all[1].Balance.Cents != 700 {
		t.Fatalf("01/2025 bin = %+v", all[1])
	}

	last2 := Series(list, 2)
	if len(last2) != 2 || last2[0].Label != "02/2025" || last2[1].Label != "03/2025" {
		t.Fatalf("windowed series = %+v", last2)
	}
}
