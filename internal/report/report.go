// Package report computes aggregations over a materialized transaction
// list: balance, totals by kind and category, monthly reports and
// time-series bins for charts. All functions are pure; persistence and
// presentation live elsewhere.
package report

import (
	"fmt"
	"sort"

	"financas/internal/core"
	applog "financas/internal/log"
)

// KindTotals holds the income and expense sums of a list.
type KindTotals struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// CategoryAmount is one category's accumulated total.
type CategoryAmount struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

// MonthlyReport summarizes a single calendar month.
type MonthlyReport struct {
	Transactions []core.Transaction `json:"transactions"`
	TotalIncome  core.Money         `json:"totalIncome"`
	TotalExpense core.Money         `json:"totalExpense"`
	Balance      core.Money         `json:"balance"`
	Count        int                `json:"count"`
}

// MonthBin is one mm/yyyy time-series bucket.
type MonthBin struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Label   string     `json:"label"` // mm/yyyy
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
}

// Balance returns income minus expense over the whole list. Empty lists
// yield zero.
func Balance(list []core.Transaction) core.Money {
	t := TotalsByKind(list)
	return t.Income.Sub(t.Expense)
}

// TotalsByKind accumulates income and expense sums by linear scan.
func TotalsByKind(list []core.Transaction) KindTotals {
	var t KindTotals
	for _, tx := range list {
		switch tx.Kind {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}

// TotalsByCategory groups amounts by category within each kind. This is the
// report variant: categories with no accumulated value do not appear.
func TotalsByCategory(list []core.Transaction) map[core.Kind]map[string]core.Money {
	out := map[core.Kind]map[string]core.Money{
		core.Income:  {},
		core.Expense: {},
	}
	for _, tx := range list {
		byCat, ok := out[tx.Kind]
		if !ok {
			continue
		}
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)
	}
	return out
}

// CategoryOptions is the form-options variant of the category grouping:
// every known category of the kind appears, zeros retained, in catalog
// order, followed by any stored categories outside the catalog.
func CategoryOptions(list []core.Transaction, kind core.Kind) []CategoryAmount {
	totals := TotalsByCategory(list)[kind]

	known := core.Categories(kind)
	seen := make(map[string]bool, len(known))
	out := make([]CategoryAmount, 0, len(known))
	for _, name := range known {
		seen[name] = true
		out = append(out, CategoryAmount{Name: name, Amount: totals[name]})
	}

	var extra []string
	for name := range totals {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, CategoryAmount{Name: name, Amount: totals[name]})
	}
	return out
}

// Monthly filters the list down to one calendar month and summarizes it.
// Records whose stored date is unusable are excluded and logged rather than
// aborting the whole report.
func Monthly(list []core.Transaction, month, year int, logger *applog.Logger) MonthlyReport {
	rep := MonthlyReport{Transactions: []core.Transaction{}}
	for _, tx := range list {
		if tx.Date.IsZero() {
			if logger != nil {
				logger.Warn("Transaction excluded from monthly report: unusable date",
					applog.FieldTxID, tx.ID,
					applog.FieldMonth, month,
					applog.FieldYear, year)
			}
			continue
		}
		if tx.Date.Month() != month || tx.Date.Year() != year {
			continue
		}
		rep.Transactions = append(rep.Transactions, tx)
		switch tx.Kind {
		case core.Income:
			rep.TotalIncome = rep.TotalIncome.Add(tx.Amount)
		case core.Expense:
			rep.TotalExpense = rep.TotalExpense.Add(tx.Amount)
		}
	}
	rep.Balance = rep.TotalIncome.Sub(rep.TotalExpense)
	rep.Count = len(rep.Transactions)
	return rep
}

// Series groups the list into mm/yyyy bins sorted chronologically ascending
// and returns the last window bins. A window <= 0 returns all bins.
// Records with unusable dates are skipped.
func Series(list []core.Transaction, window int) []MonthBin {
	type key struct{ year, month int }
	bins := map[key]*MonthBin{}
	for _, tx := range list {
		if tx.Date.IsZero() {
			continue
		}
		k := key{tx.Date.Year(), tx.Date.Month()}
		bin, ok := bins[k]
		if !ok {
			bin = &MonthBin{
				Year:  k.year,
				Month: k.month,
				Label: fmt.Sprintf("%02d/%04d", k.month, k.year),
			}
			bins[k] = bin
		}
		switch tx.Kind {
		case core.Income:
			bin.Income = bin.Income.Add(tx.Amount)
		case core.Expense:
			bin.Expense = bin.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthBin, 0, len(bins))
	for _, bin := range bins {
		bin.Balance = bin.Income.Sub(bin.Expense)
		out = append(out, *bin)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}
