package handler

import (
	"net/http"

	"github.com/iurnickita/printshop/internal/auth"
	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/service"
)

type itemJSON struct {
	ID          int64       `json:"id"`
	MaterialID  int64       `json:"material_id"`
	Material    string      `json:"material,omitempty"`
	Description string      `json:"description"`
	Length      float64     `json:"length"`
	Width       float64     `json:"width"`
	Quantity    int         `json:"quantity"`
	State       string      `json:"state"`
	UnitPrice   model.Money `json:"unit_price"`
	Amount      model.Money `json:"amount"`
}

type paymentJSON struct {
	Amount     model.Money `json:"amount"`
	Date       string      `json:"date"`
	OperatorID string      `json:"operator,omitempty"`
}

type orderJSONRequest struct {
	NoteNumber string     `json:"note_number"`
	Date       string     `json:"date"`
	CustomerID int64      `json:"customer_id"`
	ExecutorID int64      `json:"executor_id"`
	Items      []itemJSON `json:"items"`
}

type orderJSONResponse struct {
	ID          int64         `json:"id"`
	NoteNumber  string        `json:"note_number"`
	Date        string        `json:"date"`
	CustomerID  int64         `json:"customer_id"`
	ExecutorID  int64         `json:"executor_id,omitempty"`
	Status      string        `json:"status"`
	Total       model.Money   `json:"total"`
	Paid        model.Money   `json:"paid"`
	Outstanding model.Money   `json:"outstanding"`
	Items       []itemJSON    `json:"items"`
	Payments    []paymentJSON `json:"payments"`
}

func orderResponse(v service.OrderView) orderJSONResponse {
	resp := orderJSONResponse{
		ID:          v.Order.ID,
		NoteNumber:  v.Order.NoteNumber,
		Date:        v.Order.Date.Format(dateLayout),
		CustomerID:  v.Order.CustomerID,
		ExecutorID:  v.Order.ExecutorID,
		Status:      string(v.Order.Status),
		Total:       v.Total,
		Paid:        v.Paid,
		Outstanding: v.Outstanding,
		Items:       make([]itemJSON, 0, len(v.Lines)),
		Payments:    make([]paymentJSON, 0, len(v.Order.Payments)),
	}
	for _, line := range v.Lines {
		resp.Items = append(resp.Items, itemJSON{
			ID:          line.Item.ID,
			MaterialID:  line.Item.MaterialID,
			Material:    line.Material,
			Description: line.Item.Description,
			Length:      line.Item.Length,
			Width:       line.Item.Width,
			Quantity:    line.Item.Quantity,
			State:       string(line.Item.State),
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		})
	}
	for _, p := range v.Order.Payments {
		resp.Payments = append(resp.Payments, paymentJSON{
			Amount:     p.Amount,
			Date:       p.Date.Format(dateLayout),
			OperatorID: p.OperatorID,
		})
	}
	return resp
}

func readOrder(w http.ResponseWriter, r *http.Request) (model.Order, bool) {
	var req orderJSONRequest
	if !readJSON(w, r, &req) {
		return model.Order{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return model.Order{}, false
	}
	order := model.Order{
		NoteNumber: req.NoteNumber,
		Date:       date,
		CustomerID: req.CustomerID,
		ExecutorID: req.ExecutorID,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, model.OrderLineItem{
			ID:          item.ID,
			MaterialID:  item.MaterialID,
			Description: item.Description,
			Length:      item.Length,
			Width:       item.Width,
			Quantity:    item.Quantity,
			State:       model.ProductionState(item.State),
		})
	}
	return order, true
}

func (h *handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	ordersJSON := make([]orderJSONResponse, 0, len(views))
	for _, v := range views {
		ordersJSON = append(ordersJSON, orderResponse(v))
	}
	writeJSON(w, http.StatusOK, ordersJSON)
}

func (h *handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := readOrder(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreateOrder(r.Context(), order)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(v))
}

func (h *handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(v))
}

func (h *handler) PutOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, ok := readOrder(w, r)
	if !ok {
		return
	}
	order.ID = id
	v, err := h.service.UpdateOrder(r.Context(), order)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(v))
}

func (h *handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stateJSONRequest struct {
	State string `json:"state"`
}

func (h *handler) PutItemState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item")
	if !ok {
		return
	}
	var req stateJSONRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := h.service.SetItemState(r.Context(), id, itemID, model.ProductionState(req.State)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) PostPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req paymentJSON
	if !readJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// оператор берётся из токена, не из тела запроса
	operator := r.Header.Get(auth.HeaderOperatorKey)
	v, err := h.service.PostPayment(r.Context(), id, req.Amount, date, operator)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(v))
}

func (h *handler) PostReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.SendReceipt(r.Context(), id, r.Header.Get(auth.HeaderOperatorKey)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
