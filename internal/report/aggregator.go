// Package report computes dashboard aggregates from collection
// snapshots. Everything here is a pure function of its inputs and the
// supplied evaluation time, so results can be recomputed on every
// request.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famledger/internal/models"
)

// Range selects the dashboard's reporting window, evaluated against
// the local calendar at the supplied time.
type Range string

const (
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

// Valid reports whether r is a known range selector.
func (r Range) Valid() bool {
	return r == RangeMonth || r == RangeYear || r == RangeAll
}

// Summary holds the headline totals for the selected window.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

// CategoryTotal is one slice of the expense breakdown.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
	Total      decimal.Decimal `json:"total"`
}

// MemberNet is a member's net contribution: income counts positive,
// expense negative.
type MemberNet struct {
	MemberID string          `json:"memberId"`
	Name     string          `json:"name"`
	Net      decimal.Decimal `json:"net"`
}

// TrendPoint is one chronological bucket of the trend series. Period
// is "2006-01" for monthly buckets and "2006-01-02" for daily ones.
type TrendPoint struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Dashboard is the full aggregate view for one owner and range.
type Dashboard struct {
	Range      Range           `json:"range"`
	Summary    Summary         `json:"summary"`
	ByCategory []CategoryTotal `json:"byCategory"`
	ByMember   []MemberNet     `json:"byMember"`
	Trend      []TrendPoint    `json:"trend"`
}

// Build assembles the dashboard for the given snapshots. now anchors
// the month/year windows.
func Build(transactions []models.Transaction, categories []models.Category, members []models.FamilyMember, rng Range, now time.Time) Dashboard {
	filtered := filterByRange(transactions, rng, now)

	return Dashboard{
		Range:      rng,
		Summary:    Summarize(filtered),
		ByCategory: ExpenseByCategory(filtered, categories),
		ByMember:   NetByMember(filtered, members),
		Trend:      Trend(transactions, rng, now),
	}
}

func filterByRange(transactions []models.Transaction, rng Range, now time.Time) []models.Transaction {
	if rng == RangeAll {
		return transactions
	}
	out := make([]models.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txn.Date.Year() != now.Year() {
			continue
		}
		if rng == RangeMonth && txn.Date.Month() != now.Month() {
			continue
		}
		out = append(out, txn)
	}
	return out
}

// Summarize totals the window. Balance is income minus expense.
func Summarize(transactions []models.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, txn := range transactions {
		switch txn.Type {
		case models.FlowIncome:
			income = income.Add(txn.Amount)
		case models.FlowExpense:
			expense = expense.Add(txn.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// ExpenseByCategory groups expense transactions by category, largest
// total first. Transactions referencing an unknown category stay in
// the overall totals but are left out of the breakdown.
func ExpenseByCategory(transactions []models.Transaction, categories []models.Category) []CategoryTotal {
	byID := make(map[string]models.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}

	totals := make(map[string]decimal.Decimal)
	for _, txn := range transactions {
		if txn.Type != models.FlowExpense {
			continue
		}
		if _, known := byID[txn.CategoryID]; !known {
			continue
		}
		totals[txn.CategoryID] = totals[txn.CategoryID].Add(txn.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for id, total := range totals {
		cat := byID[id]
		out = append(out, CategoryTotal{
			CategoryID: id,
			Name:       cat.Name,
			Color:      cat.Color,
			Icon:       cat.Icon,
			Total:      total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// NetByMember reports every known member's net contribution over the
// window, including zeros for members with no matching transactions.
func NetByMember(transactions []models.Transaction, members []models.FamilyMember) []MemberNet {
	net := make(map[string]decimal.Decimal, len(members))
	for _, member := range members {
		net[member.ID] = decimal.Zero
	}
	for _, txn := range transactions {
		if _, known := net[txn.MemberID]; !known {
			continue
		}
		switch txn.Type {
		case models.FlowIncome:
			net[txn.MemberID] = net[txn.MemberID].Add(txn.Amount)
		case models.FlowExpense:
			net[txn.MemberID] = net[txn.MemberID].Sub(txn.Amount)
		}
	}

	out := make([]MemberNet, 0, len(members))
	for _, member := range members {
		out = append(out, MemberNet{
			MemberID: member.ID,
			Name:     member.Name,
			Net:      net[member.ID],
		})
	}
	return out
}

// Trend buckets income and expense sums chronologically. A year range
// produces monthly buckets over the current year's transactions; any
// other range produces daily buckets over its own window. Only
// periods containing at least one transaction appear.
func Trend(transactions []models.Transaction, rng Range, now time.Time) []TrendPoint {
	var scoped []models.Transaction
	var key func(models.Date) string

	if rng == RangeYear {
		scoped = filterByRange(transactions, RangeYear, now)
		key = func(d models.Date) string { return d.Time().Format("2006-01") }
	} else {
		scoped = filterByRange(transactions, rng, now)
		key = func(d models.Date) string { return d.String() }
	}

	buckets := make(map[string]*TrendPoint)
	for _, txn := range scoped {
		period := key(txn.Date)
		point, ok := buckets[period]
		if !ok {
			point = &TrendPoint{Period: period, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[period] = point
		}
		switch txn.Type {
		case models.FlowIncome:
			point.Income = point.Income.Add(txn.Amount)
		case models.FlowExpense:
			point.Expense = point.Expense.Add(txn.Amount)
		}
	}

	out := make([]TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		out = append(out, *point)
	}
	// Both period layouts sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
