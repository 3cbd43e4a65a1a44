package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/store/config"
)

// newTestStore подключается к базе из DATABASE_URI, без неё тесты пропускаются
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		t.Skip("DATABASE_URI is not set")
	}
	store, err := NewStore(config.Config{DBDsn: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestStoreAuth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	login := uuid.NewString()[:20]

	registered, err := store.AuthRegister(ctx, login, "secret")
	require.NoError(t, err)

	_, err = store.AuthRegister(ctx, login, "secret")
	require.ErrorIs(t, err, ErrAlreadyExists)

	logged, err := store.AuthLogin(ctx, login, "secret")
	require.NoError(t, err)
	require.Equal(t, registered, logged)

	_, err = store.AuthLogin(ctx, login, "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	_, err = store.AuthLogin(ctx, uuid.NewString()[:20], "secret")
	require.ErrorIs(t, err, ErrNoRows)
}

func TestStoreMaterialPrices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	material := model.Material{
		Name: "Vinyl " + uuid.NewString(),
		Prices: map[model.CustomerTier]model.Money{
			model.TierEndCustomer: 25000,
			model.TierRetail:      22000,
		},
	}
	id, err := store.MaterialPost(ctx, material)
	require.NoError(t, err)
	material.ID = id

	material.Prices = map[model.CustomerTier]model.Money{model.TierWholesale: 18000}
	require.NoError(t, store.MaterialPut(ctx, material))

	materials, err := store.MaterialList(ctx)
	require.NoError(t, err)
	var found bool
	for _, m := range materials {
		if m.ID == id {
			require.Equal(t, material, m)
			found = true
		}
	}
	require.True(t, found)

	require.ErrorIs(t, store.MaterialPut(ctx, model.Material{ID: -1}), ErrNoRows)
}

func TestStoreOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Создание заказа
	order := model.Order{
		NoteNumber: "T-" + uuid.NewString()[:12],
		Date:       day("2024-03-01"),
		CustomerID: 1,
		Status:     model.PaymentUnpaid,
		Items: []model.OrderLineItem{
			{MaterialID: 1, Description: "banner", Length: 2, Width: 1, Quantity: 1, State: model.ProductionNotStarted},
			{MaterialID: 2, Description: "stickers", Quantity: 10, State: model.ProductionNotStarted},
		},
	}
	id, err := store.OrderPost(ctx, order)
	require.NoError(t, err)

	_, err = store.OrderPost(ctx, order)
	require.ErrorIs(t, err, ErrAlreadyExists)

	// Чтение заказа
	dbOrder, err := store.OrderGet(ctx, id)
	require.NoError(t, err)
	require.Len(t, dbOrder.Items, 2)
	require.Equal(t, "banner", dbOrder.Items[0].Description)
	require.Empty(t, dbOrder.Payments)

	// Обновление: первая позиция остаётся, вторая заменяется новой
	first := dbOrder.Items[0]
	dbOrder.Items = []model.OrderLineItem{
		first,
		{MaterialID: 3, Description: "poster", Length: 1, Width: 1, Quantity: 2, State: model.ProductionNotStarted},
	}
	require.NoError(t, store.OrderPut(ctx, dbOrder))
	require.NoError(t, store.OrderItemStatePut(ctx, id, first.ID, model.ProductionDone))

	// Платежи
	payment := model.Payment{Amount: 50000, Date: day("2024-03-02"), OperatorID: "cashier"}
	require.NoError(t, store.PaymentAppend(ctx, id, payment, model.PaymentPartiallyPaid))

	dbOrder, err = store.OrderGet(ctx, id)
	require.NoError(t, err)
	require.Len(t, dbOrder.Items, 2)
	require.Equal(t, first.ID, dbOrder.Items[0].ID)
	require.Equal(t, model.ProductionDone, dbOrder.Items[0].State)
	require.Equal(t, "poster", dbOrder.Items[1].Description)
	require.Equal(t, model.PaymentPartiallyPaid, dbOrder.Status)
	require.Len(t, dbOrder.Payments, 1)
	require.Equal(t, payment.Amount, dbOrder.Payments[0].Amount)

	orders, err := store.OrderList(ctx)
	require.NoError(t, err)
	var listed bool
	for _, o := range orders {
		if o.ID == id {
			require.Equal(t, dbOrder, o)
			listed = true
		}
	}
	require.True(t, listed)

	// Удаление
	require.NoError(t, store.OrderDelete(ctx, id))
	_, err = store.OrderGet(ctx, id)
	require.ErrorIs(t, err, ErrNoRows)
	require.ErrorIs(t, store.PaymentAppend(ctx, id, payment, model.PaymentSettled), ErrNoRows)
}

func TestStoreExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.ExpensePost(ctx, model.Expense{Date: day("2024-03-01"), Category: "ink", Quantity: 2, UnitCost: 150000})
	require.NoError(t, err)

	expenses, err := store.ExpenseList(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, expenses)

	require.NoError(t, store.ExpenseDelete(ctx, id))
	require.ErrorIs(t, store.ExpenseDelete(ctx, id), ErrNoRows)
}
