// Package pricing resolves tier unit prices and computes line item amounts.
package pricing

import (
	"math"

	"github.com/iurnickita/printshop/internal/model"
)

// ResolvePrice returns the unit price the material registers for the tier.
// A tier missing from the table resolves to 0.
func ResolvePrice(material model.Material, tier model.CustomerTier) model.Money {
	price, ok := material.Prices[tier]
	if !ok {
		return 0
	}
	return price
}

// PriceSource is the lookup every total goes through.
type PriceSource interface {
	UnitPrice(material model.Material, tier model.CustomerTier) model.Money
}

// CurrentPrices prices against the material's current table.
type CurrentPrices struct{}

func (CurrentPrices) UnitPrice(material model.Material, tier model.CustomerTier) model.Money {
	return ResolvePrice(material, tier)
}

// Area is length*width when both are positive, otherwise 1.
func Area(item model.OrderLineItem) float64 {
	if item.Length > 0 && item.Width > 0 {
		return item.Length * item.Width
	}
	return 1
}

// Units is the quantity-equivalent of the item: square metres or pieces.
func Units(item model.OrderLineItem) float64 {
	return Area(item) * float64(item.Quantity)
}

// LineAmount computes unitPrice * area * quantity.
func LineAmount(item model.OrderLineItem, unitPrice model.Money) model.Money {
	if item.Length > 0 && item.Width > 0 {
		return model.Money(math.Round(float64(unitPrice) * item.Length * item.Width * float64(item.Quantity)))
	}
	return unitPrice * model.Money(item.Quantity)
}
