package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iurnickita/printshop/internal/model"
)

// Заказы

func (store *store) OrderPost(ctx context.Context, order model.Order) (int64, error) {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"INSERT INTO print_order (note_number, order_date, customer_id, executor_id, status)"+
			" VALUES ($1, $2, $3, $4, $5)"+
			" RETURNING id",
		order.NoteNumber,
		order.Date,
		order.CustomerID,
		order.ExecutorID,
		string(order.Status))
	var id int64
	if err = row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	for position, item := range order.Items {
		if _, err = insertItem(ctx, tx, id, position, item); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

func insertItem(ctx context.Context, tx *sql.Tx, orderID int64, position int, item model.OrderLineItem) (int64, error) {
	row := tx.QueryRowContext(ctx,
		"INSERT INTO order_item (order_id, position, material_id, description, length, width, quantity, state)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"+
			" RETURNING id",
		orderID,
		position,
		item.MaterialID,
		item.Description,
		item.Length,
		item.Width,
		item.Quantity,
		string(item.State))
	var id int64
	err := row.Scan(&id)
	return id, err
}

// OrderPut rewrites the order header and its items. Items keep their ids when
// present in the new list, items missing from it are removed. Payments are untouched.
func (store *store) OrderPut(ctx context.Context, order model.Order) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE print_order"+
			" SET note_number = $1, order_date = $2, customer_id = $3, executor_id = $4, status = $5"+
			" WHERE id = $6",
		order.NoteNumber,
		order.Date,
		order.CustomerID,
		order.ExecutorID,
		string(order.Status),
		order.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	if err = checkAffected(res); err != nil {
		return err
	}

	keep := make([]int64, 0, len(order.Items))
	for position, item := range order.Items {
		if item.ID != 0 {
			res, err = tx.ExecContext(ctx,
				"UPDATE order_item"+
					" SET position = $1, material_id = $2, description = $3, length = $4, width = $5, quantity = $6, state = $7"+
					" WHERE id = $8 AND order_id = $9",
				position,
				item.MaterialID,
				item.Description,
				item.Length,
				item.Width,
				item.Quantity,
				string(item.State),
				item.ID,
				order.ID)
			if err != nil {
				return err
			}
			if err = checkAffected(res); err != nil {
				return err
			}
			keep = append(keep, item.ID)
			continue
		}
		id, err := insertItem(ctx, tx, order.ID, position, item)
		if err != nil {
			return err
		}
		keep = append(keep, id)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM order_item WHERE order_id = $1 AND NOT (id = ANY($2))",
		order.ID,
		keep)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (store *store) OrderGet(ctx context.Context, id int64) (model.Order, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT id, note_number, order_date, customer_id, executor_id, status"+
			" FROM print_order WHERE id = $1",
		id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, ErrNoRows
		}
		return model.Order{}, err
	}

	orders := []model.Order{order}
	if err = store.fillOrders(ctx, orders, " WHERE order_id = $1", id); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

func (store *store) OrderList(ctx context.Context) ([]model.Order, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, note_number, order_date, customer_id, executor_id, status"+
			" FROM print_order ORDER BY order_date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if err = store.fillOrders(ctx, orders, ""); err != nil {
		return nil, err
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (model.Order, error) {
	var order model.Order
	var status string
	err := row.Scan(&order.ID,
		&order.NoteNumber,
		&order.Date,
		&order.CustomerID,
		&order.ExecutorID,
		&status)
	order.Status = model.PaymentStatus(status)
	return order, err
}

// fillOrders attaches items and payments to the loaded orders.
func (store *store) fillOrders(ctx context.Context, orders []model.Order, where string, args ...any) error {
	index := make(map[int64]int, len(orders))
	for i, order := range orders {
		index[order.ID] = i
	}

	rows, err := store.database.QueryContext(ctx,
		"SELECT id, order_id, material_id, description, length, width, quantity, state"+
			" FROM order_item"+where+
			" ORDER BY order_id, position",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item model.OrderLineItem
		var orderID int64
		var state string
		err := rows.Scan(&item.ID,
			&orderID,
			&item.MaterialID,
			&item.Description,
			&item.Length,
			&item.Width,
			&item.Quantity,
			&state)
		if err != nil {
			return err
		}
		item.State = model.ProductionState(state)
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err = rows.Err(); err != nil {
		return err
	}

	payRows, err := store.database.QueryContext(ctx,
		"SELECT order_id, amount, paid_at, operator"+
			" FROM payment"+where+
			" ORDER BY order_id, operation",
		args...)
	if err != nil {
		return err
	}
	defer payRows.Close()
	for payRows.Next() {
		var payment model.Payment
		var orderID int64
		err := payRows.Scan(&orderID,
			&payment.Amount,
			&payment.Date,
			&payment.OperatorID)
		if err != nil {
			return err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Payments = append(orders[i].Payments, payment)
		}
	}
	return payRows.Err()
}

// OrderDelete removes the order together with its items and payments.
func (store *store) OrderDelete(ctx context.Context, id int64) error {
	res, err := store.database.ExecContext(ctx, "DELETE FROM print_order WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (store *store) OrderItemStatePut(ctx context.Context, orderID int64, itemID int64, state model.ProductionState) error {
	res, err := store.database.ExecContext(ctx,
		"UPDATE order_item SET state = $1"+
			" WHERE id = $2 AND order_id = $3",
		string(state),
		itemID,
		orderID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (store *store) OrderStatusPut(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	res, err := store.database.ExecContext(ctx,
		"UPDATE print_order SET status = $1 WHERE id = $2",
		string(status),
		orderID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Платежи

// PaymentAppend adds a journal entry and stores the recomputed status in one transaction.
func (store *store) PaymentAppend(ctx context.Context, orderID int64, payment model.Payment, status model.PaymentStatus) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE print_order SET status = $1 WHERE id = $2",
		string(status),
		orderID)
	if err != nil {
		return err
	}
	if err = checkAffected(res); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO payment (order_id, amount, paid_at, operator)"+
			" VALUES ($1, $2, $3, $4)",
		orderID,
		payment.Amount,
		payment.Date,
		payment.OperatorID)
	if err != nil {
		return err
	}
	return tx.Commit()
}
