package handler

import (
	"net/http"

	"github.com/iurnickita/printshop/internal/model"
)

// Клиенты

type customerJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Tier    string `json:"tier"`
}

func (c customerJSON) model() model.Customer {
	return model.Customer{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		Tier:    model.CustomerTier(c.Tier),
	}
}

func (h *handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	customersJSON := make([]customerJSON, 0, len(customers))
	for _, c := range customers {
		customersJSON = append(customersJSON, customerJSON{
			ID:      c.ID,
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Address: c.Address,
			Tier:    string(c.Tier),
		})
	}
	writeJSON(w, http.StatusOK, customersJSON)
}

func (h *handler) PostCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerJSON
	if !readJSON(w, r, &req) {
		return
	}
	id, err := h.service.CreateCustomer(r.Context(), req.model())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idJSONResponse{ID: id})
}

func (h *handler) PutCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req customerJSON
	if !readJSON(w, r, &req) {
		return
	}
	req.ID = id
	if err := h.service.UpdateCustomer(r.Context(), req.model()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Материалы

type materialJSON struct {
	ID     int64                  `json:"id"`
	Name   string                 `json:"name"`
	Prices map[string]model.Money `json:"prices"`
}

func (m materialJSON) model() model.Material {
	prices := make(map[model.CustomerTier]model.Money, len(m.Prices))
	for tier, price := range m.Prices {
		prices[model.CustomerTier(tier)] = price
	}
	return model.Material{ID: m.ID, Name: m.Name, Prices: prices}
}

func (h *handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListMaterials(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	materialsJSON := make([]materialJSON, 0, len(materials))
	for _, m := range materials {
		prices := make(map[string]model.Money, len(m.Prices))
		for tier, price := range m.Prices {
			prices[string(tier)] = price
		}
		materialsJSON = append(materialsJSON, materialJSON{ID: m.ID, Name: m.Name, Prices: prices})
	}
	writeJSON(w, http.StatusOK, materialsJSON)
}

func (h *handler) PostMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialJSON
	if !readJSON(w, r, &req) {
		return
	}
	id, err := h.service.CreateMaterial(r.Context(), req.model())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idJSONResponse{ID: id})
}

func (h *handler) PutMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req materialJSON
	if !readJSON(w, r, &req) {
		return
	}
	req.ID = id
	if err := h.service.UpdateMaterial(r.Context(), req.model()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Сотрудники

type employeeJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (h *handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	employeesJSON := make([]employeeJSON, 0, len(employees))
	for _, e := range employees {
		employeesJSON = append(employeesJSON, employeeJSON(e))
	}
	writeJSON(w, http.StatusOK, employeesJSON)
}

func (h *handler) PostEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeJSON
	if !readJSON(w, r, &req) {
		return
	}
	id, err := h.service.CreateEmployee(r.Context(), model.Employee(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idJSONResponse{ID: id})
}

// Расходы

type expenseJSON struct {
	ID       int64       `json:"id"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Quantity int64       `json:"quantity"`
	UnitCost model.Money `json:"unit_cost"`
	Total    model.Money `json:"total"`
}

func (h *handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpenses(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	expensesJSON := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		expensesJSON = append(expensesJSON, expenseJSON{
			ID:       e.ID,
			Date:     e.Date.Format(dateLayout),
			Category: e.Category,
			Quantity: e.Quantity,
			UnitCost: e.UnitCost,
			Total:    e.Total(),
		})
	}
	writeJSON(w, http.StatusOK, expensesJSON)
}

func (h *handler) PostExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseJSON
	if !readJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := h.service.CreateExpense(r.Context(), model.Expense{
		Date:     date,
		Category: req.Category,
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idJSONResponse{ID: id})
}

func (h *handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
