package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/balance"
	"github.com/iurnickita/printshop/internal/billing"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/report"
	"github.com/iurnickita/printshop/internal/service/config"
	"github.com/iurnickita/printshop/internal/service/messenger"
	"github.com/iurnickita/printshop/internal/store"
)

type Service interface {
	// Справочники
	CreateCustomer(ctx context.Context, customer model.Customer) (int64, error)
	UpdateCustomer(ctx context.Context, customer model.Customer) error
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	CreateMaterial(ctx context.Context, material model.Material) (int64, error)
	UpdateMaterial(ctx context.Context, material model.Material) error
	ListMaterials(ctx context.Context) ([]model.Material, error)
	CreateEmployee(ctx context.Context, employee model.Employee) (int64, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)

	// Заказы и платежи
	CreateOrder(ctx context.Context, order model.Order) (OrderView, error)
	UpdateOrder(ctx context.Context, order model.Order) (OrderView, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetOrder(ctx context.Context, id int64) (OrderView, error)
	ListOrders(ctx context.Context) ([]OrderView, error)
	SetItemState(ctx context.Context, orderID int64, itemID int64, state model.ProductionState) error
	PostPayment(ctx context.Context, orderID int64, amount model.Money, date time.Time, operatorID string) (OrderView, error)
	SendReceipt(ctx context.Context, orderID int64, operatorID string) error

	// Расходы
	CreateExpense(ctx context.Context, expense model.Expense) (int64, error)
	ListExpenses(ctx context.Context) ([]model.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error

	// Отчёты
	SalesReport(ctx context.Context, r report.DateRange) (report.SalesReport, error)
	ExpenseReport(ctx context.Context, r report.DateRange) (report.ExpenseReport, error)
	TopCustomers(ctx context.Context, r report.DateRange) ([]report.CustomerRank, error)
	BestMaterials(ctx context.Context, r report.DateRange) ([]report.MaterialRank, error)
	Cashflow(ctx context.Context, r report.DateRange) ([]report.CashflowPoint, error)
	Summary(ctx context.Context) (report.FinanceSummary, error)
	Today(ctx context.Context) (report.DailyStats, error)
	Production(ctx context.Context) (report.ProductionStats, error)
	WeeklyOrders(ctx context.Context) ([]report.DailyCount, error)
	RecentPayments(ctx context.Context, r report.DateRange) ([]report.PaymentEntry, error)
}

var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrUnprocessableEntity = errors.New("unprocessable entity")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = billing.ErrInvalidAmount
)

// OrderView is an order with the figures derived by the billing engine.
type OrderView struct {
	Order       model.Order
	Total       model.Money
	Paid        model.Money
	Outstanding model.Money
	Lines       []billing.Line
}

type service struct {
	cfg       config.Config
	store     store.Store
	balance   balance.Balance
	messenger messenger.Messenger
	cache     *report.Cache
	validate  *validator.Validate
	zaplog    *zap.Logger
	now       func() time.Time
}

func NewService(cfg config.Config, store store.Store, messenger messenger.Messenger, cache *report.Cache, zaplog *zap.Logger) (Service, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		return model.CustomerTier(fl.Field().String()).Valid()
	})
	if err != nil {
		return nil, err
	}

	service := service{
		cfg:       cfg,
		store:     store,
		balance:   balance.NewBalance(store),
		messenger: messenger,
		cache:     cache,
		validate:  validate,
		zaplog:    zaplog,
		now:       time.Now,
	}

	return &service, nil
}

// check validates struct tags. Missing values give ErrInsufficientData, wrong ones ErrUnprocessableEntity.
func (service *service) check(v any) error {
	err := service.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s", ErrInsufficientData, fe.Namespace())
		}
	}
	return fmt.Errorf("%w: %s", ErrUnprocessableEntity, verrs[0].Namespace())
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrAlreadyExists
	default:
		return err
	}
}

// engine builds a billing engine over the current customers and materials.
func (service *service) engine(ctx context.Context) (*billing.Engine, error) {
	customers, err := service.store.CustomerList(ctx)
	if err != nil {
		return nil, err
	}
	materials, err := service.store.MaterialList(ctx)
	if err != nil {
		return nil, err
	}
	return billing.NewEngine(billing.NewCatalog(customers, materials)), nil
}

func (service *service) invalidate(ctx context.Context) {
	if err := service.cache.Invalidate(ctx); err != nil {
		service.zaplog.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func (service *service) today() time.Time {
	now := service.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Справочники

func (service *service) CreateCustomer(ctx context.Context, customer model.Customer) (int64, error) {
	if err := service.check(customer); err != nil {
		return 0, err
	}
	id, err := service.store.CustomerPost(ctx, customer)
	if err != nil {
		return 0, storeErr(err)
	}
	service.invalidate(ctx)
	return id, nil
}

func (service *service) UpdateCustomer(ctx context.Context, customer model.Customer) error {
	if customer.ID == 0 {
		return ErrInsufficientData
	}
	if err := service.check(customer); err != nil {
		return err
	}
	if err := service.store.CustomerPut(ctx, customer); err != nil {
		return storeErr(err)
	}
	// Уровень клиента влияет на суммы заказов
	return service.refreshStatuses(ctx)
}

func (service *service) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return service.store.CustomerList(ctx)
}

func (service *service) CreateMaterial(ctx context.Context, material model.Material) (int64, error) {
	if err := service.check(material); err != nil {
		return 0, err
	}
	id, err := service.store.MaterialPost(ctx, material)
	if err != nil {
		return 0, storeErr(err)
	}
	service.invalidate(ctx)
	return id, nil
}

func (service *service) UpdateMaterial(ctx context.Context, material model.Material) error {
	if material.ID == 0 {
		return ErrInsufficientData
	}
	if err := service.check(material); err != nil {
		return err
	}
	if err := service.store.MaterialPut(ctx, material); err != nil {
		return storeErr(err)
	}
	return service.refreshStatuses(ctx)
}

func (service *service) ListMaterials(ctx context.Context) ([]model.Material, error) {
	return service.store.MaterialList(ctx)
}

func (service *service) CreateEmployee(ctx context.Context, employee model.Employee) (int64, error) {
	if err := service.check(employee); err != nil {
		return 0, err
	}
	id, err := service.store.EmployeePost(ctx, employee)
	if err != nil {
		return 0, storeErr(err)
	}
	return id, nil
}

func (service *service) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return service.store.EmployeeList(ctx)
}

// refreshStatuses rewrites cached statuses that no longer match current prices.
func (service *service) refreshStatuses(ctx context.Context) error {
	defer service.invalidate(ctx)

	engine, err := service.engine(ctx)
	if err != nil {
		return err
	}
	orders, err := service.store.OrderList(ctx)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if engine.Status(order) == order.Status {
			continue
		}
		if err = service.refreshStatus(ctx, engine, order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (service *service) refreshStatus(ctx context.Context, engine *billing.Engine, orderID int64) error {
	unlock := service.balance.Lock(orderID)
	defer unlock()

	order, err := service.store.OrderGet(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return nil
		}
		return err
	}
	status := engine.Status(order)
	if status == order.Status {
		return nil
	}
	service.zaplog.Info("order status refreshed",
		zap.Int64("order", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)))
	return service.store.OrderStatusPut(ctx, orderID, status)
}

// Расходы

func (service *service) CreateExpense(ctx context.Context, expense model.Expense) (int64, error) {
	if err := service.check(expense); err != nil {
		return 0, err
	}
	id, err := service.store.ExpensePost(ctx, expense)
	if err != nil {
		return 0, storeErr(err)
	}
	service.invalidate(ctx)
	return id, nil
}

func (service *service) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	return service.store.ExpenseList(ctx)
}

func (service *service) DeleteExpense(ctx context.Context, id int64) error {
	if err := service.store.ExpenseDelete(ctx, id); err != nil {
		return storeErr(err)
	}
	service.invalidate(ctx)
	return nil
}
