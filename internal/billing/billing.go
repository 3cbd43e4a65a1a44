// Package billing computes order totals, applies payments and derives payment status.
package billing

import (
	"errors"
	"time"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/pricing"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// Catalog resolves the reference data orders point to.
type Catalog interface {
	Customer(id int64) (model.Customer, bool)
	Material(id int64) (model.Material, bool)
}

type catalog struct {
	customers map[int64]model.Customer
	materials map[int64]model.Material
}

// NewCatalog indexes customers and materials by id.
func NewCatalog(customers []model.Customer, materials []model.Material) Catalog {
	c := catalog{
		customers: make(map[int64]model.Customer, len(customers)),
		materials: make(map[int64]model.Material, len(materials)),
	}
	for _, customer := range customers {
		c.customers[customer.ID] = customer
	}
	for _, material := range materials {
		c.materials[material.ID] = material
	}
	return &c
}

func (c *catalog) Customer(id int64) (model.Customer, bool) {
	customer, ok := c.customers[id]
	return customer, ok
}

func (c *catalog) Material(id int64) (model.Material, bool) {
	material, ok := c.materials[id]
	return material, ok
}

// Engine is the single source of the figures shown on screen and printed on documents.
type Engine struct {
	catalog Catalog
	prices  pricing.PriceSource
}

type Option func(*Engine)

// WithPriceSource replaces the live price table lookup.
func WithPriceSource(src pricing.PriceSource) Option {
	return func(e *Engine) {
		e.prices = src
	}
}

func NewEngine(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, prices: pricing.CurrentPrices{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Line is a priced line item.
type Line struct {
	Item      model.OrderLineItem
	Material  string
	UnitPrice model.Money
	Area      float64
	Amount    model.Money
	// Resolved is false when the material or the order customer is unknown.
	Resolved bool
}

// LineAmounts prices every item of the order at the customer's tier.
// Unresolved items are kept with a zero amount.
func (e *Engine) LineAmounts(order model.Order) []Line {
	lines := make([]Line, 0, len(order.Items))
	customer, customerOK := e.catalog.Customer(order.CustomerID)
	for _, item := range order.Items {
		line := Line{Item: item, Area: pricing.Area(item)}
		material, ok := e.catalog.Material(item.MaterialID)
		if ok {
			line.Material = material.Name
		}
		if ok && customerOK {
			line.UnitPrice = e.prices.UnitPrice(material, customer.Tier)
			line.Amount = pricing.LineAmount(item, line.UnitPrice)
			line.Resolved = true
		}
		lines = append(lines, line)
	}
	return lines
}

// OrderTotal sums the order's line amounts. An unknown customer yields 0 and
// an unknown material contributes 0.
func (e *Engine) OrderTotal(order model.Order) model.Money {
	customer, ok := e.catalog.Customer(order.CustomerID)
	if !ok {
		return 0
	}
	var total model.Money
	for _, item := range order.Items {
		material, ok := e.catalog.Material(item.MaterialID)
		if !ok {
			continue
		}
		total += pricing.LineAmount(item, e.prices.UnitPrice(material, customer.Tier))
	}
	return total
}

func TotalPaid(order model.Order) model.Money {
	var paid model.Money
	for _, payment := range order.Payments {
		paid += payment.Amount
	}
	return paid
}

// Outstanding may be negative when the order is overpaid.
func (e *Engine) Outstanding(order model.Order) model.Money {
	return e.OrderTotal(order) - TotalPaid(order)
}

// Status derives the payment status from the ledger and the current total.
func (e *Engine) Status(order model.Order) model.PaymentStatus {
	return status(e.OrderTotal(order), TotalPaid(order))
}

func status(total, paid model.Money) model.PaymentStatus {
	switch {
	case paid <= 0:
		return model.PaymentUnpaid
	case paid >= total:
		return model.PaymentSettled
	default:
		return model.PaymentPartiallyPaid
	}
}

// Refresh returns the order with its cached status recomputed.
func (e *Engine) Refresh(order model.Order) model.Order {
	order.Status = e.Status(order)
	return order
}

// ApplyPayment appends a payment and re-derives the status from scratch.
// The passed order and its payments are left untouched.
func (e *Engine) ApplyPayment(order model.Order, amount model.Money, date time.Time, operatorID string) (model.Order, error) {
	if amount <= 0 {
		return order, ErrInvalidAmount
	}
	payments := make([]model.Payment, len(order.Payments), len(order.Payments)+1)
	copy(payments, order.Payments)
	order.Payments = append(payments, model.Payment{Amount: amount, Date: date, OperatorID: operatorID})
	return e.Refresh(order), nil
}

// Receivables sums what is still owed on orders that are not settled.
func (e *Engine) Receivables(orders []model.Order) model.Money {
	var sum model.Money
	for _, order := range orders {
		total := e.OrderTotal(order)
		paid := TotalPaid(order)
		if status(total, paid) == model.PaymentSettled {
			continue
		}
		sum += total - paid
	}
	return sum
}
