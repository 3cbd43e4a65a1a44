package service

import (
	"context"
	"sort"
	"sync"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/store"
)

// memStore is an in-memory store.Store for service tests
type memStore struct {
	mu        sync.Mutex
	seq       int64
	customers map[int64]model.Customer
	materials map[int64]model.Material
	employees map[int64]model.Employee
	orders    map[int64]model.Order
	expenses  map[int64]model.Expense
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[int64]model.Customer{},
		materials: map[int64]model.Material{},
		employees: map[int64]model.Employee{},
		orders:    map[int64]model.Order{},
		expenses:  map[int64]model.Expense{},
	}
}

func (s *memStore) next() int64 {
	s.seq++
	return s.seq
}

func cloneOrder(order model.Order) model.Order {
	order.Items = append([]model.OrderLineItem(nil), order.Items...)
	order.Payments = append([]model.Payment(nil), order.Payments...)
	return order
}

func (s *memStore) AuthRegister(ctx context.Context, login string, password string) (string, error) {
	return login, nil
}

func (s *memStore) AuthLogin(ctx context.Context, login string, password string) (string, error) {
	return login, nil
}

func (s *memStore) CustomerPost(ctx context.Context, customer model.Customer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = s.next()
	s.customers[customer.ID] = customer
	return customer.ID, nil
}

func (s *memStore) CustomerPut(ctx context.Context, customer model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; !ok {
		return store.ErrNoRows
	}
	s.customers[customer.ID] = customer
	return nil
}

func (s *memStore) CustomerList(ctx context.Context) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Customer
	for _, c := range s.customers {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) MaterialPost(ctx context.Context, material model.Material) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	material.ID = s.next()
	s.materials[material.ID] = material
	return material.ID, nil
}

func (s *memStore) MaterialPut(ctx context.Context, material model.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[material.ID]; !ok {
		return store.ErrNoRows
	}
	s.materials[material.ID] = material
	return nil
}

func (s *memStore) MaterialList(ctx context.Context) ([]model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Material
	for _, m := range s.materials {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) EmployeePost(ctx context.Context, employee model.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	employee.ID = s.next()
	s.employees[employee.ID] = employee
	return employee.ID, nil
}

func (s *memStore) EmployeeList(ctx context.Context) ([]model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Employee
	for _, e := range s.employees {
		list = append(list, e)
	}
	return list, nil
}

func (s *memStore) OrderPost(ctx context.Context, order model.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.NoteNumber == order.NoteNumber {
			return 0, store.ErrAlreadyExists
		}
	}
	order = cloneOrder(order)
	order.ID = s.next()
	for i := range order.Items {
		order.Items[i].ID = s.next()
	}
	s.orders[order.ID] = order
	return order.ID, nil
}

func (s *memStore) OrderPut(ctx context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return store.ErrNoRows
	}
	order = cloneOrder(order)
	for i := range order.Items {
		if order.Items[i].ID == 0 {
			order.Items[i].ID = s.next()
		}
	}
	order.Payments = stored.Payments
	s.orders[order.ID] = order
	return nil
}

func (s *memStore) OrderGet(ctx context.Context, id int64) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return model.Order{}, store.ErrNoRows
	}
	return cloneOrder(order), nil
}

func (s *memStore) OrderList(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Order
	for _, o := range s.orders {
		list = append(list, cloneOrder(o))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) OrderDelete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return store.ErrNoRows
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) OrderItemStatePut(ctx context.Context, orderID int64, itemID int64, state model.ProductionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return store.ErrNoRows
	}
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].State = state
			s.orders[orderID] = order
			return nil
		}
	}
	return store.ErrNoRows
}

func (s *memStore) OrderStatusPut(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return store.ErrNoRows
	}
	order.Status = status
	s.orders[orderID] = order
	return nil
}

func (s *memStore) PaymentAppend(ctx context.Context, orderID int64, payment model.Payment, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return store.ErrNoRows
	}
	order.Payments = append(append([]model.Payment(nil), order.Payments...), payment)
	order.Status = status
	s.orders[orderID] = order
	return nil
}

func (s *memStore) ExpensePost(ctx context.Context, expense model.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expense.ID = s.next()
	s.expenses[expense.ID] = expense
	return expense.ID, nil
}

func (s *memStore) ExpenseList(ctx context.Context) ([]model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Expense
	for _, e := range s.expenses {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) ExpenseDelete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return store.ErrNoRows
	}
	delete(s.expenses, id)
	return nil
}

func (s *memStore) Close() error {
	return nil
}
