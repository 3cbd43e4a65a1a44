package service

import (
	"context"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/report"
)

// Отчёты читаются через кэш, построение идёт по полным коллекциям из хранилища

type snapshot struct {
	aggregator *report.Aggregator
	orders     []model.Order
	expenses   []model.Expense
}

func (service *service) snapshot(ctx context.Context, withExpenses bool) (snapshot, error) {
	engine, err := service.engine(ctx)
	if err != nil {
		return snapshot{}, err
	}
	orders, err := service.store.OrderList(ctx)
	if err != nil {
		return snapshot{}, err
	}
	snap := snapshot{
		aggregator: report.New(engine, report.WithNow(service.now)),
		orders:     orders,
	}
	if withExpenses {
		if snap.expenses, err = service.store.ExpenseList(ctx); err != nil {
			return snapshot{}, err
		}
	}
	return snap, nil
}

func (service *service) SalesReport(ctx context.Context, r report.DateRange) (report.SalesReport, error) {
	return report.Cached(ctx, service.cache, "sales", r, func() (report.SalesReport, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return report.SalesReport{}, err
		}
		return snap.aggregator.Sales(snap.orders, r), nil
	})
}

func (service *service) ExpenseReport(ctx context.Context, r report.DateRange) (report.ExpenseReport, error) {
	return report.Cached(ctx, service.cache, "expenses", r, func() (report.ExpenseReport, error) {
		expenses, err := service.store.ExpenseList(ctx)
		if err != nil {
			return report.ExpenseReport{}, err
		}
		return report.New(nil).Expenses(expenses, r), nil
	})
}

func (service *service) TopCustomers(ctx context.Context, r report.DateRange) ([]report.CustomerRank, error) {
	return report.Cached(ctx, service.cache, "top-customers", r, func() ([]report.CustomerRank, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return snap.aggregator.TopCustomers(snap.orders, r), nil
	})
}

func (service *service) BestMaterials(ctx context.Context, r report.DateRange) ([]report.MaterialRank, error) {
	return report.Cached(ctx, service.cache, "best-materials", r, func() ([]report.MaterialRank, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return snap.aggregator.BestMaterials(snap.orders, r), nil
	})
}

func (service *service) Cashflow(ctx context.Context, r report.DateRange) ([]report.CashflowPoint, error) {
	return report.Cached(ctx, service.cache, "cashflow", r, func() ([]report.CashflowPoint, error) {
		snap, err := service.snapshot(ctx, true)
		if err != nil {
			return nil, err
		}
		return snap.aggregator.Cashflow(snap.orders, snap.expenses, r), nil
	})
}

func (service *service) Summary(ctx context.Context) (report.FinanceSummary, error) {
	return report.Cached(ctx, service.cache, "summary", report.DateRange{}, func() (report.FinanceSummary, error) {
		snap, err := service.snapshot(ctx, true)
		if err != nil {
			return report.FinanceSummary{}, err
		}
		return snap.aggregator.Summary(snap.orders, snap.expenses), nil
	})
}

func (service *service) Today(ctx context.Context) (report.DailyStats, error) {
	today := service.today()
	return report.Cached(ctx, service.cache, "today", report.DateRange{Start: today, End: today}, func() (report.DailyStats, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return report.DailyStats{}, err
		}
		return snap.aggregator.Today(snap.orders), nil
	})
}

func (service *service) Production(ctx context.Context) (report.ProductionStats, error) {
	return report.Cached(ctx, service.cache, "production", report.DateRange{}, func() (report.ProductionStats, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return report.ProductionStats{}, err
		}
		return snap.aggregator.Production(snap.orders), nil
	})
}

func (service *service) WeeklyOrders(ctx context.Context) ([]report.DailyCount, error) {
	today := service.today()
	r := report.DateRange{Start: today.AddDate(0, 0, -6), End: today}
	return report.Cached(ctx, service.cache, "weekly-orders", r, func() ([]report.DailyCount, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return snap.aggregator.WeeklyOrders(snap.orders), nil
	})
}

func (service *service) RecentPayments(ctx context.Context, r report.DateRange) ([]report.PaymentEntry, error) {
	return report.Cached(ctx, service.cache, "payments", r, func() ([]report.PaymentEntry, error) {
		snap, err := service.snapshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return snap.aggregator.RecentPayments(snap.orders, r), nil
	})
}
