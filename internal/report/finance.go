package report

import (
	"sort"
	"time"

	"github.com/iurnickita/printshop/internal/billing"
	"github.com/iurnickita/printshop/internal/model"
)

type FinanceSummary struct {
	TotalRevenue     model.Money `json:"total_revenue"`
	TotalExpenses    model.Money `json:"total_expenses"`
	NetProfit        model.Money `json:"net_profit"`
	TotalReceivables model.Money `json:"total_receivables"`
}

// Summary covers all time: revenue is money collected, not money billed.
func (a *Aggregator) Summary(orders []model.Order, expenses []model.Expense) FinanceSummary {
	var s FinanceSummary
	for _, order := range orders {
		s.TotalRevenue += billing.TotalPaid(order)
	}
	for _, expense := range expenses {
		s.TotalExpenses += expense.Total()
	}
	s.NetProfit = s.TotalRevenue - s.TotalExpenses
	s.TotalReceivables = a.engine.Receivables(orders)
	return s
}

type DailyStats struct {
	Date         time.Time   `json:"date"`
	RevenueToday model.Money `json:"revenue_today"`
	UnpaidToday  model.Money `json:"unpaid_today"`
	OrdersToday  int         `json:"orders_today"`
}

// Today reports the payments collected today and the balance left on orders dated today.
func (a *Aggregator) Today(orders []model.Order) DailyStats {
	// даты заказов и платежей хранятся в UTC
	today := dayOf(a.now().UTC())
	stats := DailyStats{Date: today}
	for _, order := range orders {
		for _, payment := range order.Payments {
			if dayOf(payment.Date).Equal(today) {
				stats.RevenueToday += payment.Amount
			}
		}
		if !dayOf(order.Date).Equal(today) {
			continue
		}
		stats.OrdersToday++
		if a.engine.Status(order) != model.PaymentSettled {
			stats.UnpaidToday += a.engine.Outstanding(order)
		}
	}
	return stats
}

type ProductionStats struct {
	Items        map[model.ProductionState]int `json:"items"`
	ItemsPending int                           `json:"items_pending"`
	ActiveOrders int                           `json:"active_orders"`
	TotalOrders  int                           `json:"total_orders"`
}

// Production counts line items per production state. Billing state is only
// used for ActiveOrders, the number of orders not yet settled.
func (a *Aggregator) Production(orders []model.Order) ProductionStats {
	stats := ProductionStats{Items: make(map[model.ProductionState]int), TotalOrders: len(orders)}
	for _, order := range orders {
		for _, item := range order.Items {
			stats.Items[item.State]++
			if item.State != model.ProductionDone {
				stats.ItemsPending++
			}
		}
		if a.engine.Status(order) != model.PaymentSettled {
			stats.ActiveOrders++
		}
	}
	return stats
}

type DailyCount struct {
	Date   time.Time `json:"date"`
	Orders int       `json:"orders"`
}

// weekDays is the length of the WeeklyOrders series.
const weekDays = 7

// WeeklyOrders counts orders per day over the last seven days up to today, oldest first.
// Days without orders are present with a zero count.
func (a *Aggregator) WeeklyOrders(orders []model.Order) []DailyCount {
	today := dayOf(a.now().UTC())
	series := make([]DailyCount, weekDays)
	for i := range series {
		series[i].Date = today.AddDate(0, 0, i-(weekDays-1))
	}
	for _, order := range orders {
		d := dayOf(order.Date)
		offset := int(d.Sub(series[0].Date).Hours() / 24)
		if offset >= 0 && offset < weekDays {
			series[offset].Orders++
		}
	}
	return series
}

type PaymentEntry struct {
	OrderID    int64       `json:"order_id"`
	NoteNumber string      `json:"note_number"`
	Customer   string      `json:"customer"`
	Amount     model.Money `json:"amount"`
	Date       time.Time   `json:"date"`
	OperatorID string      `json:"operator_id"`
}

// RecentPayments flattens the payment ledgers of all orders, newest first.
func (a *Aggregator) RecentPayments(orders []model.Order, r DateRange) []PaymentEntry {
	entries := make([]PaymentEntry, 0)
	for _, order := range orders {
		for _, payment := range order.Payments {
			if !r.Contains(payment.Date) {
				continue
			}
			entries = append(entries, PaymentEntry{
				OrderID:    order.ID,
				NoteNumber: order.NoteNumber,
				Customer:   a.customerName(order.CustomerID),
				Amount:     payment.Amount,
				Date:       payment.Date,
				OperatorID: payment.OperatorID,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}
