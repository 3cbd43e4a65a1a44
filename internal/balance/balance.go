// Package balance keeps the payment journal of orders.
package balance

import (
	"context"
	"sync"
	"time"

	"github.com/iurnickita/printshop/internal/billing"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/store"
)

// EngineFunc builds the billing engine from the current catalog.
type EngineFunc func(ctx context.Context) (*billing.Engine, error)

type Balance interface {
	// Pay appends a payment to the order and stores the recomputed status.
	// The engine is built under the order lock, so the status follows the latest prices.
	Pay(ctx context.Context, engine EngineFunc, orderID int64, amount model.Money, date time.Time, operatorID string) (model.Order, error)
	// Lock takes the writer lock of the order and returns its release.
	Lock(orderID int64) func()
}

type orderMutex struct {
	sync.Mutex
	waiters int
}

type balance struct {
	store store.Store

	mu     sync.Mutex
	orders map[int64]*orderMutex
}

func NewBalance(store store.Store) Balance {
	balance := balance{
		store:  store,
		orders: make(map[int64]*orderMutex),
	}
	return &balance
}

func (balance *balance) Lock(orderID int64) func() {
	balance.mu.Lock()
	m, ok := balance.orders[orderID]
	if !ok {
		m = &orderMutex{}
		balance.orders[orderID] = m
	}
	m.waiters++
	balance.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		balance.mu.Lock()
		m.waiters--
		if m.waiters == 0 {
			delete(balance.orders, orderID)
		}
		balance.mu.Unlock()
	}
}

func (balance *balance) Pay(ctx context.Context, newEngine EngineFunc, orderID int64, amount model.Money, date time.Time, operatorID string) (model.Order, error) {
	if amount <= 0 {
		return model.Order{}, billing.ErrInvalidAmount
	}

	unlock := balance.Lock(orderID)
	defer unlock()

	// Журнал и справочники читаются заново под блокировкой
	order, err := balance.store.OrderGet(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	engine, err := newEngine(ctx)
	if err != nil {
		return order, err
	}
	paid, err := engine.ApplyPayment(order, amount, date, operatorID)
	if err != nil {
		return order, err
	}
	payment := paid.Payments[len(paid.Payments)-1]
	if err = balance.store.PaymentAppend(ctx, orderID, payment, paid.Status); err != nil {
		return order, err
	}
	return paid, nil
}
