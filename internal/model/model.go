package model

import "time"

// Money is an amount in IDR. Rupiah has no subunits in practice, so every amount is integral.
type Money = int64

// Уровни клиентов

// CustomerTier selects the price column of a material. The set is closed and unordered.
type CustomerTier string

const (
	TierEndCustomer CustomerTier = "EndCustomer"
	TierRetail      CustomerTier = "Retail"
	TierWholesale   CustomerTier = "Wholesale"
	TierReseller    CustomerTier = "Reseller"
	TierCorporate   CustomerTier = "Corporate"
)

// Tiers lists every CustomerTier.
var Tiers = []CustomerTier{TierEndCustomer, TierRetail, TierWholesale, TierReseller, TierCorporate}

func (t CustomerTier) Valid() bool {
	for _, tier := range Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Справочники

type Customer struct {
	ID      int64
	Name    string       `validate:"required,max=100"`
	Email   string       `validate:"omitempty,email"`
	Phone   string       `validate:"max=30"`
	Address string       `validate:"max=200"`
	Tier    CustomerTier `validate:"required,tier"`
}

type Material struct {
	ID     int64
	Name   string                 `validate:"required,max=100"`
	Prices map[CustomerTier]Money `validate:"dive,keys,tier,endkeys,gte=0"`
}

type Employee struct {
	ID       int64
	Name     string `validate:"required,max=100"`
	Position string `validate:"max=50"`
	Email    string `validate:"omitempty,email"`
	Phone    string `validate:"max=30"`
}

// Заказы

type ProductionState string

const (
	ProductionNotStarted ProductionState = "NotStarted"
	ProductionInProgress ProductionState = "InProgress"
	ProductionDone       ProductionState = "Done"
)

func (s ProductionState) Valid() bool {
	switch s {
	case ProductionNotStarted, ProductionInProgress, ProductionDone:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "Unpaid"
	PaymentPartiallyPaid PaymentStatus = "PartiallyPaid"
	PaymentSettled       PaymentStatus = "Settled"
)

// OrderLineItem is one priced entry of an order. Length and width are metres;
// an item with either dimension at zero is sold by piece.
type OrderLineItem struct {
	ID          int64
	MaterialID  int64           `validate:"gte=0"`
	Description string          `validate:"max=200"`
	Length      float64         `validate:"gte=0"`
	Width       float64         `validate:"gte=0"`
	Quantity    int             `validate:"min=1"`
	State       ProductionState `validate:"omitempty,oneof=NotStarted InProgress Done"`
}

// Payment is an entry of the append-only payment ledger of an order.
type Payment struct {
	Amount     Money
	Date       time.Time
	OperatorID string
}

type Order struct {
	ID         int64
	NoteNumber string
	Date       time.Time
	CustomerID int64           `validate:"required"`
	ExecutorID int64           `validate:"gte=0"`
	Items      []OrderLineItem `validate:"required,min=1,dive"`
	// Status caches billing.Status and is rewritten on every payment event.
	Status   PaymentStatus
	Payments []Payment
}

// Расходы

type Expense struct {
	ID       int64
	Date     time.Time `validate:"required"`
	Category string    `validate:"required,max=200"`
	Quantity int64     `validate:"min=1"`
	UnitCost Money     `validate:"gte=0"`
}

func (e Expense) Total() Money {
	return e.Quantity * e.UnitCost
}
