package handler

import (
	"net/http"

	"github.com/iurnickita/printshop/internal/report"
)

// GetReport serves /api/reports/{name}?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *handler) GetReport(w http.ResponseWriter, r *http.Request) {
	window, err := report.ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var result any
	switch r.PathValue("name") {
	case "sales":
		result, err = h.service.SalesReport(ctx, window)
	case "expenses":
		result, err = h.service.ExpenseReport(ctx, window)
	case "top-customers":
		result, err = h.service.TopCustomers(ctx, window)
	case "best-materials":
		result, err = h.service.BestMaterials(ctx, window)
	case "cashflow":
		result, err = h.service.Cashflow(ctx, window)
	case "summary":
		result, err = h.service.Summary(ctx)
	case "today":
		result, err = h.service.Today(ctx)
	case "production":
		result, err = h.service.Production(ctx)
	case "weekly-orders":
		result, err = h.service.WeeklyOrders(ctx)
	case "payments":
		result, err = h.service.RecentPayments(ctx, window)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
