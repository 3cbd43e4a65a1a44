// Package report aggregates orders, payments and expenses into sales,
// expense, ranking and cashflow reports over a date window.
package report

import (
	"sort"
	"time"

	"github.com/iurnickita/printshop/internal/billing"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/pricing"
)

const (
	// cashflowBuckets limits the series when no window is given.
	cashflowBuckets = 30
	unknownCustomer = "N/A"
)

type Aggregator struct {
	engine *billing.Engine
	now    func() time.Time
}

type Option func(*Aggregator)

// WithNow overrides the clock used by Today.
func WithNow(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

func New(engine *billing.Engine, opts ...Option) *Aggregator {
	a := &Aggregator{engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) customerName(id int64) string {
	customer, ok := a.engine.Catalog().Customer(id)
	if !ok {
		return unknownCustomer
	}
	return customer.Name
}

func filterOrders(orders []model.Order, r DateRange) []model.Order {
	filtered := make([]model.Order, 0, len(orders))
	for _, order := range orders {
		if r.Contains(order.Date) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

// Продажи

type SalesRow struct {
	NoteNumber string              `json:"note_number"`
	Date       time.Time           `json:"date"`
	Customer   string              `json:"customer"`
	Total      model.Money         `json:"total"`
	Status     model.PaymentStatus `json:"status"`
}

type SalesSummary struct {
	Count      int         `json:"count"`
	TotalSales model.Money `json:"total_sales"`
}

type SalesReport struct {
	Data    []SalesRow   `json:"data"`
	Summary SalesSummary `json:"summary"`
}

func (a *Aggregator) Sales(orders []model.Order, r DateRange) SalesReport {
	filtered := filterOrders(orders, r)
	report := SalesReport{Data: make([]SalesRow, 0, len(filtered))}
	for _, order := range filtered {
		total := a.engine.OrderTotal(order)
		report.Data = append(report.Data, SalesRow{
			NoteNumber: order.NoteNumber,
			Date:       order.Date,
			Customer:   a.customerName(order.CustomerID),
			Total:      total,
			Status:     a.engine.Status(order),
		})
		report.Summary.TotalSales += total
	}
	report.Summary.Count = len(filtered)
	return report
}

// Расходы

type ExpenseRow struct {
	Date     time.Time   `json:"date"`
	Category string      `json:"category"`
	Quantity int64       `json:"quantity"`
	UnitCost model.Money `json:"unit_cost"`
	Total    model.Money `json:"total"`
}

type ExpenseReport struct {
	Data    []ExpenseRow `json:"data"`
	Summary struct {
		TotalExpenses model.Money `json:"total_expenses"`
	} `json:"summary"`
}

func (a *Aggregator) Expenses(expenses []model.Expense, r DateRange) ExpenseReport {
	var report ExpenseReport
	report.Data = make([]ExpenseRow, 0, len(expenses))
	for _, expense := range expenses {
		if !r.Contains(expense.Date) {
			continue
		}
		report.Data = append(report.Data, ExpenseRow{
			Date:     expense.Date,
			Category: expense.Category,
			Quantity: expense.Quantity,
			UnitCost: expense.UnitCost,
			Total:    expense.Total(),
		})
		report.Summary.TotalExpenses += expense.Total()
	}
	return report
}

// Рейтинги

type CustomerRank struct {
	CustomerID int64       `json:"customer_id"`
	Customer   string      `json:"customer"`
	TotalSpent model.Money `json:"total_spent"`
	// OrderCount counts every order of the customer, not only those in the window.
	OrderCount int `json:"order_count"`
}

func (a *Aggregator) TopCustomers(orders []model.Order, r DateRange) []CustomerRank {
	spent := make(map[int64]model.Money)
	for _, order := range filterOrders(orders, r) {
		if order.CustomerID == 0 {
			continue
		}
		spent[order.CustomerID] += a.engine.OrderTotal(order)
	}
	counts := make(map[int64]int)
	for _, order := range orders {
		counts[order.CustomerID]++
	}

	ranks := make([]CustomerRank, 0, len(spent))
	for id, total := range spent {
		ranks = append(ranks, CustomerRank{
			CustomerID: id,
			Customer:   a.customerName(id),
			TotalSpent: total,
			OrderCount: counts[id],
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].TotalSpent != ranks[j].TotalSpent {
			return ranks[i].TotalSpent > ranks[j].TotalSpent
		}
		return ranks[i].CustomerID < ranks[j].CustomerID
	})
	return ranks
}

type MaterialRank struct {
	MaterialID int64       `json:"material_id"`
	Material   string      `json:"material"`
	Units      float64     `json:"units"`
	Revenue    model.Money `json:"revenue"`
}

// BestMaterials drops items whose material or order customer is unknown,
// unlike OrderTotal which counts them as zero.
func (a *Aggregator) BestMaterials(orders []model.Order, r DateRange) []MaterialRank {
	catalog := a.engine.Catalog()
	byMaterial := make(map[int64]*MaterialRank)
	for _, order := range filterOrders(orders, r) {
		for _, line := range a.engine.LineAmounts(order) {
			if !line.Resolved {
				continue
			}
			material, _ := catalog.Material(line.Item.MaterialID)
			rank, ok := byMaterial[material.ID]
			if !ok {
				rank = &MaterialRank{MaterialID: material.ID, Material: material.Name}
				byMaterial[material.ID] = rank
			}
			rank.Units += pricing.Units(line.Item)
			rank.Revenue += line.Amount
		}
	}

	ranks := make([]MaterialRank, 0, len(byMaterial))
	for _, rank := range byMaterial {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Revenue != ranks[j].Revenue {
			return ranks[i].Revenue > ranks[j].Revenue
		}
		return ranks[i].MaterialID < ranks[j].MaterialID
	})
	return ranks
}

// Денежный поток

type CashflowPoint struct {
	Date    time.Time   `json:"date"`
	Revenue model.Money `json:"revenue"`
	Expense model.Money `json:"expense"`
}

// Cashflow buckets payments by payment date and expenses by expense date.
func (a *Aggregator) Cashflow(orders []model.Order, expenses []model.Expense, r DateRange) []CashflowPoint {
	buckets := make(map[time.Time]*CashflowPoint)
	bucket := func(t time.Time) *CashflowPoint {
		d := dayOf(t)
		p, ok := buckets[d]
		if !ok {
			p = &CashflowPoint{Date: d}
			buckets[d] = p
		}
		return p
	}
	for _, order := range orders {
		for _, payment := range order.Payments {
			if r.Contains(payment.Date) {
				bucket(payment.Date).Revenue += payment.Amount
			}
		}
	}
	for _, expense := range expenses {
		if r.Contains(expense.Date) {
			bucket(expense.Date).Expense += expense.Total()
		}
	}

	points := make([]CashflowPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	if r.Open() && len(points) > cashflowBuckets {
		points = points[len(points)-cashflowBuckets:]
	}
	return points
}
