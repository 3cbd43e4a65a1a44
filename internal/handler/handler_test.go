package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/auth"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/report"
	"github.com/iurnickita/printshop/internal/service"
)

// stubAuth пускает запросы с заголовком Authorization: test
type stubAuth struct{}

func (stubAuth) Register(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
func (stubAuth) Login(w http.ResponseWriter, r *http.Request)    { w.WriteHeader(http.StatusOK) }
func (stubAuth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		r.Header.Set(auth.HeaderOperatorKey, "kasir")
		h(w, r)
	}
}

type stubService struct {
	service.Service
	created  model.Order
	operator string
	window   report.DateRange
}

func testView() service.OrderView {
	order := model.Order{
		ID:         1,
		NoteNumber: "INV-79927398713",
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CustomerID: 1,
		Status:     model.PaymentPartiallyPaid,
		Items:      []model.OrderLineItem{{ID: 10, MaterialID: 1, Length: 2, Width: 1, Quantity: 1, State: model.ProductionNotStarted}},
		Payments:   []model.Payment{{Amount: 20000, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), OperatorID: "kasir"}},
	}
	return service.OrderView{Order: order, Total: 50000, Paid: 20000, Outstanding: 30000}
}

func (s *stubService) CreateOrder(ctx context.Context, order model.Order) (service.OrderView, error) {
	s.created = order
	if len(order.Items) == 0 {
		return service.OrderView{}, fmt.Errorf("%w: Order.Items", service.ErrInsufficientData)
	}
	return testView(), nil
}

func (s *stubService) GetOrder(ctx context.Context, id int64) (service.OrderView, error) {
	if id != 1 {
		return service.OrderView{}, service.ErrNotFound
	}
	return testView(), nil
}

func (s *stubService) PostPayment(ctx context.Context, orderID int64, amount model.Money, date time.Time, operatorID string) (service.OrderView, error) {
	s.operator = operatorID
	if amount <= 0 {
		return service.OrderView{}, service.ErrInvalidAmount
	}
	return testView(), nil
}

func (s *stubService) SalesReport(ctx context.Context, r report.DateRange) (report.SalesReport, error) {
	s.window = r
	return report.SalesReport{}, nil
}

func (s *stubService) WeeklyOrders(ctx context.Context) ([]report.DailyCount, error) {
	return make([]report.DailyCount, 7), nil
}

func (s *stubService) CreateCustomer(ctx context.Context, customer model.Customer) (int64, error) {
	if customer.Tier == "Gold" {
		return 0, service.ErrUnprocessableEntity
	}
	return 5, nil
}

func newTestServer(svc *stubService) *httptest.Server {
	h := newHandler(stubAuth{}, svc, zap.NewNop())
	return httptest.NewServer(h.newRouter())
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, authorized bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if authorized {
		req.Header.Set("Authorization", "test")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutesStatus(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)
	defer srv.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		authorized bool
		status     int
	}{
		{"login is public", http.MethodPost, "/api/operator/login", `{}`, false, http.StatusOK},
		{"orders need token", http.MethodGet, "/api/orders/1", "", false, http.StatusUnauthorized},
		{"get order", http.MethodGet, "/api/orders/1", "", true, http.StatusOK},
		{"missing order", http.MethodGet, "/api/orders/2", "", true, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/orders/abc", "", true, http.StatusBadRequest},
		{"create order", http.MethodPost, "/api/orders", `{"customer_id":1,"date":"2024-03-01","items":[{"material_id":1,"length":2,"width":1,"quantity":1}]}`, true, http.StatusCreated},
		{"order without items", http.MethodPost, "/api/orders", `{"customer_id":1}`, true, http.StatusBadRequest},
		{"order bad date", http.MethodPost, "/api/orders", `{"customer_id":1,"date":"01.03.2024"}`, true, http.StatusBadRequest},
		{"order bad json", http.MethodPost, "/api/orders", `{`, true, http.StatusBadRequest},
		{"payment", http.MethodPost, "/api/orders/1/payments", `{"amount":20000}`, true, http.StatusOK},
		{"zero payment", http.MethodPost, "/api/orders/1/payments", `{"amount":0}`, true, http.StatusUnprocessableEntity},
		{"customer", http.MethodPost, "/api/customers", `{"name":"Budi","tier":"Retail"}`, true, http.StatusCreated},
		{"customer bad tier", http.MethodPost, "/api/customers", `{"name":"Budi","tier":"Gold"}`, true, http.StatusUnprocessableEntity},
		{"sales report", http.MethodGet, "/api/reports/sales?start=2024-03-01&end=2024-03-31", "", true, http.StatusOK},
		{"report bad window", http.MethodGet, "/api/reports/sales?start=yesterday", "", true, http.StatusBadRequest},
		{"weekly orders", http.MethodGet, "/api/reports/weekly-orders", "", true, http.StatusOK},
		{"unknown report", http.MethodGet, "/api/reports/forecast", "", true, http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/orders/1", "", true, http.StatusMethodNotAllowed},
		{"metrics are public", http.MethodGet, "/metrics", "", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.body, tt.authorized)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPostOrderMapsBody(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := do(t, srv, http.MethodPost, "/api/orders",
		`{"note_number":"INV-79927398713","customer_id":1,"date":"2024-03-01","items":[{"material_id":1,"description":"banner","length":2,"width":1,"quantity":1}]}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "INV-79927398713", svc.created.NoteNumber)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), svc.created.Date)
	require.Len(t, svc.created.Items, 1)
	assert.Equal(t, 2.0, svc.created.Items[0].Length)
	assert.Equal(t, "banner", svc.created.Items[0].Description)

	var body orderJSONResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, model.Money(50000), body.Total)
	assert.Equal(t, model.Money(30000), body.Outstanding)
	assert.Equal(t, "PartiallyPaid", body.Status)
	assert.Equal(t, "2024-03-01", body.Date)
	require.Len(t, body.Payments, 1)
}

func TestPaymentOperatorFromToken(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := do(t, srv, http.MethodPost, "/api/orders/1/payments", `{"amount":20000,"operator":"someone"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "kasir", svc.operator)
}

func TestReportWindow(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/reports/sales?start=2024-03-01&end=2024-03-31", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-03-01..2024-03-31", svc.window.String())
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
