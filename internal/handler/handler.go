package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/auth"
	"github.com/iurnickita/printshop/internal/gzip"
	"github.com/iurnickita/printshop/internal/handler/config"
	"github.com/iurnickita/printshop/internal/logger"
	"github.com/iurnickita/printshop/internal/metrics"
	"github.com/iurnickita/printshop/internal/service"
)

// Serve runs the API until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

// wrap chains gzip, request log and metrics around the handler; protected routes also pass auth.
func (h *handler) wrap(pattern string, fn http.HandlerFunc, protected bool) http.HandlerFunc {
	if protected {
		fn = h.auth.Middleware(fn)
	}
	return gzip.GzipMiddleware(logger.RequestLogMdlw(metrics.Mdlw(pattern, fn), h.zaplog))
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	public := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, h.wrap(pattern, fn, false))
	}
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, h.wrap(pattern, fn, true))
	}

	public("POST /api/operator/register", h.auth.Register)
	public("POST /api/operator/login", h.auth.Login)

	protected("GET /api/customers", h.ListCustomers)
	protected("POST /api/customers", h.PostCustomer)
	protected("PUT /api/customers/{id}", h.PutCustomer)
	protected("GET /api/materials", h.ListMaterials)
	protected("POST /api/materials", h.PostMaterial)
	protected("PUT /api/materials/{id}", h.PutMaterial)
	protected("GET /api/employees", h.ListEmployees)
	protected("POST /api/employees", h.PostEmployee)

	protected("GET /api/orders", h.ListOrders)
	protected("POST /api/orders", h.PostOrder)
	protected("GET /api/orders/{id}", h.GetOrder)
	protected("PUT /api/orders/{id}", h.PutOrder)
	protected("DELETE /api/orders/{id}", h.DeleteOrder)
	protected("PUT /api/orders/{id}/items/{item}/state", h.PutItemState)
	protected("POST /api/orders/{id}/payments", h.PostPayment)
	protected("POST /api/orders/{id}/receipt", h.PostReceipt)

	protected("GET /api/expenses", h.ListExpenses)
	protected("POST /api/expenses", h.PostExpense)
	protected("DELETE /api/expenses/{id}", h.DeleteExpense)

	protected("GET /api/reports/{name}", h.GetReport)

	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

// writeError maps service errors to status codes.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrUnprocessableEntity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.zaplog.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(responseJSON)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type idJSONResponse struct {
	ID int64 `json:"id"`
}

const dateLayout = "2006-01-02"

// parseDate accepts an empty string as the zero date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
