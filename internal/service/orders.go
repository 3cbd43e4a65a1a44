package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/billing"
	"github.com/iurnickita/printshop/internal/metrics"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/service/messenger"
	"github.com/iurnickita/printshop/internal/store"
)

// noteAttempts bounds retries of generated note numbers that collide.
const noteAttempts = 5

func view(engine *billing.Engine, order model.Order) OrderView {
	total := engine.OrderTotal(order)
	paid := billing.TotalPaid(order)
	return OrderView{
		Order:       order,
		Total:       total,
		Paid:        paid,
		Outstanding: total - paid,
		Lines:       engine.LineAmounts(order),
	}
}

// prepare validates the order and fills defaults of a new or edited order.
func (service *service) prepare(order *model.Order) error {
	if err := service.check(*order); err != nil {
		return err
	}
	order.NoteNumber = strings.TrimSpace(order.NoteNumber)
	if order.NoteNumber != "" && !validNoteNumber(order.NoteNumber) {
		return ErrUnprocessableEntity
	}
	if order.Date.IsZero() {
		order.Date = service.today()
	}
	for i := range order.Items {
		if order.Items[i].State == "" {
			order.Items[i].State = model.ProductionNotStarted
		}
	}
	return nil
}

func (service *service) CreateOrder(ctx context.Context, order model.Order) (OrderView, error) {
	if err := service.prepare(&order); err != nil {
		return OrderView{}, err
	}
	order.ID = 0
	order.Payments = nil

	engine, err := service.engine(ctx)
	if err != nil {
		return OrderView{}, err
	}
	order = engine.Refresh(order)

	generated := order.NoteNumber == ""
	var id int64
	for attempt := 0; attempt < noteAttempts; attempt++ {
		if generated {
			order.NoteNumber = newNoteNumber(service.now(), attempt)
		}
		id, err = service.store.OrderPost(ctx, order)
		if !generated || !errors.Is(err, store.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return OrderView{}, storeErr(err)
	}
	service.invalidate(ctx)

	created, err := service.store.OrderGet(ctx, id)
	if err != nil {
		return OrderView{}, storeErr(err)
	}
	service.zaplog.Info("order created",
		zap.Int64("order", id),
		zap.String("note", created.NoteNumber),
		zap.Int64("total", engine.OrderTotal(created)))
	return view(engine, created), nil
}

// UpdateOrder replaces header and items. The payment journal stays as stored.
func (service *service) UpdateOrder(ctx context.Context, order model.Order) (OrderView, error) {
	if order.ID == 0 {
		return OrderView{}, ErrInsufficientData
	}
	if err := service.prepare(&order); err != nil {
		return OrderView{}, err
	}

	engine, err := service.engine(ctx)
	if err != nil {
		return OrderView{}, err
	}

	unlock := service.balance.Lock(order.ID)
	defer unlock()

	stored, err := service.store.OrderGet(ctx, order.ID)
	if err != nil {
		return OrderView{}, storeErr(err)
	}
	if order.NoteNumber == "" {
		order.NoteNumber = stored.NoteNumber
	}
	order.Payments = stored.Payments
	order = engine.Refresh(order)

	if err = service.store.OrderPut(ctx, order); err != nil {
		return OrderView{}, storeErr(err)
	}
	service.invalidate(ctx)

	updated, err := service.store.OrderGet(ctx, order.ID)
	if err != nil {
		return OrderView{}, storeErr(err)
	}
	return view(engine, updated), nil
}

func (service *service) DeleteOrder(ctx context.Context, id int64) error {
	unlock := service.balance.Lock(id)
	defer unlock()

	if err := service.store.OrderDelete(ctx, id); err != nil {
		return storeErr(err)
	}
	service.invalidate(ctx)
	return nil
}

func (service *service) GetOrder(ctx context.Context, id int64) (OrderView, error) {
	order, err := service.store.OrderGet(ctx, id)
	if err != nil {
		return OrderView{}, storeErr(err)
	}
	engine, err := service.engine(ctx)
	if err != nil {
		return OrderView{}, err
	}
	return view(engine, order), nil
}

func (service *service) ListOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := service.store.OrderList(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := service.engine(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, view(engine, order))
	}
	return views, nil
}

// SetItemState moves an item through production. Billing is not affected.
func (service *service) SetItemState(ctx context.Context, orderID int64, itemID int64, state model.ProductionState) error {
	if state == "" {
		return ErrInsufficientData
	}
	if !state.Valid() {
		return ErrUnprocessableEntity
	}
	if err := service.store.OrderItemStatePut(ctx, orderID, itemID, state); err != nil {
		return storeErr(err)
	}
	service.invalidate(ctx)
	return nil
}

// Платежи

func (service *service) PostPayment(ctx context.Context, orderID int64, amount model.Money, date time.Time, operatorID string) (OrderView, error) {
	if operatorID == "" {
		return OrderView{}, ErrInsufficientData
	}
	if date.IsZero() {
		date = service.today()
	}

	// engine собирается под блокировкой заказа и нужен для ответа
	var engine *billing.Engine
	newEngine := func(ctx context.Context) (*billing.Engine, error) {
		var err error
		engine, err = service.engine(ctx)
		return engine, err
	}
	order, err := service.balance.Pay(ctx, newEngine, orderID, amount, date, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidAmount):
			metrics.Inc(metrics.PaymentsTotal, "invalid")
			return OrderView{}, ErrInvalidAmount
		case errors.Is(err, store.ErrNoRows):
			metrics.Inc(metrics.PaymentsTotal, "not_found")
			return OrderView{}, ErrNotFound
		default:
			metrics.Inc(metrics.PaymentsTotal, "error")
			service.zaplog.Error("payment failed", zap.Int64("order", orderID), zap.Error(err))
			return OrderView{}, err
		}
	}
	metrics.Inc(metrics.PaymentsTotal, "accepted")
	if metrics.PaymentAmount != nil {
		metrics.PaymentAmount.Add(float64(amount))
	}
	service.invalidate(ctx)

	result := view(engine, order)
	service.zaplog.Info("payment posted",
		zap.Int64("order", orderID),
		zap.Int64("amount", amount),
		zap.String("operator", operatorID),
		zap.String("status", string(order.Status)),
		zap.Int64("outstanding", result.Outstanding))
	return result, nil
}

// SendReceipt pushes the receipt of the order to the customer's phone.
func (service *service) SendReceipt(ctx context.Context, orderID int64, operatorID string) error {
	order, err := service.store.OrderGet(ctx, orderID)
	if err != nil {
		return storeErr(err)
	}
	engine, err := service.engine(ctx)
	if err != nil {
		return err
	}

	receipt := messenger.Receipt{
		Shop:       service.cfg.Shop,
		NoteNumber: order.NoteNumber,
		Date:       order.Date,
		Operator:   operatorID,
		Total:      engine.OrderTotal(order),
		Paid:       billing.TotalPaid(order),
	}
	if customer, ok := engine.Catalog().Customer(order.CustomerID); ok {
		receipt.Customer = customer.Name
		receipt.Phone = customer.Phone
	}
	for _, line := range engine.LineAmounts(order) {
		if !line.Resolved {
			continue
		}
		receipt.Lines = append(receipt.Lines, messenger.ReceiptLine{
			Name:       line.Material,
			Quantity:   line.Item.Quantity,
			UnitAmount: model.Money(math.Round(float64(line.UnitPrice) * line.Area)),
			Amount:     line.Amount,
		})
	}

	err = service.messenger.SendReceipt(ctx, receipt)
	if err != nil {
		metrics.Inc(metrics.ReceiptsTotal, "failed")
		if errors.Is(err, messenger.ErrNoPhone) {
			return ErrUnprocessableEntity
		}
		service.zaplog.Error("receipt delivery failed", zap.Int64("order", orderID), zap.Error(err))
		return err
	}
	metrics.Inc(metrics.ReceiptsTotal, "sent")
	return nil
}
