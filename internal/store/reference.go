package store

import (
	"context"
	"database/sql"

	"github.com/iurnickita/printshop/internal/model"
)

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}

// Клиенты

func (store *store) CustomerPost(ctx context.Context, customer model.Customer) (int64, error) {
	row := store.database.QueryRowContext(ctx,
		"INSERT INTO customer (name, email, phone, address, tier)"+
			" VALUES ($1, $2, $3, $4, $5)"+
			" RETURNING id",
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		string(customer.Tier))
	var id int64
	err := row.Scan(&id)
	return id, err
}

func (store *store) CustomerPut(ctx context.Context, customer model.Customer) error {
	res, err := store.database.ExecContext(ctx,
		"UPDATE customer"+
			" SET name = $1, email = $2, phone = $3, address = $4, tier = $5"+
			" WHERE id = $6",
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		string(customer.Tier),
		customer.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (store *store) CustomerList(ctx context.Context) ([]model.Customer, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, name, email, phone, address, tier"+
			" FROM customer ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var customers []model.Customer
	for rows.Next() {
		var customer model.Customer
		var tier string
		err := rows.Scan(&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.Address,
			&tier)
		if err != nil {
			return nil, err
		}
		customer.Tier = model.CustomerTier(tier)
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

// Материалы

func (store *store) MaterialPost(ctx context.Context, material model.Material) (int64, error) {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"INSERT INTO material (name) VALUES ($1) RETURNING id",
		material.Name)
	var id int64
	if err = row.Scan(&id); err != nil {
		return 0, err
	}
	if err = insertPrices(ctx, tx, id, material.Prices); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// MaterialPut replaces the name and the whole price table.
func (store *store) MaterialPut(ctx context.Context, material model.Material) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE material SET name = $1 WHERE id = $2",
		material.Name,
		material.ID)
	if err != nil {
		return err
	}
	if err = checkAffected(res); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM material_price WHERE material_id = $1", material.ID); err != nil {
		return err
	}
	if err = insertPrices(ctx, tx, material.ID, material.Prices); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPrices(ctx context.Context, tx *sql.Tx, materialID int64, prices map[model.CustomerTier]model.Money) error {
	for tier, price := range prices {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO material_price (material_id, tier, price)"+
				" VALUES ($1, $2, $3)",
			materialID,
			string(tier),
			price)
		if err != nil {
			return err
		}
	}
	return nil
}

func (store *store) MaterialList(ctx context.Context) ([]model.Material, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT m.id, m.name, p.tier, p.price"+
			" FROM material AS m"+
			" LEFT JOIN material_price AS p ON p.material_id = m.id"+
			" ORDER BY m.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []model.Material
	for rows.Next() {
		var (
			id    int64
			name  string
			tier  sql.NullString
			price sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &tier, &price); err != nil {
			return nil, err
		}
		if len(materials) == 0 || materials[len(materials)-1].ID != id {
			materials = append(materials, model.Material{ID: id, Name: name, Prices: map[model.CustomerTier]model.Money{}})
		}
		if tier.Valid && price.Valid {
			materials[len(materials)-1].Prices[model.CustomerTier(tier.String)] = price.Int64
		}
	}
	return materials, rows.Err()
}

// Сотрудники

func (store *store) EmployeePost(ctx context.Context, employee model.Employee) (int64, error) {
	row := store.database.QueryRowContext(ctx,
		"INSERT INTO employee (name, position, email, phone)"+
			" VALUES ($1, $2, $3, $4)"+
			" RETURNING id",
		employee.Name,
		employee.Position,
		employee.Email,
		employee.Phone)
	var id int64
	err := row.Scan(&id)
	return id, err
}

func (store *store) EmployeeList(ctx context.Context) ([]model.Employee, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, name, position, email, phone FROM employee ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var employees []model.Employee
	for rows.Next() {
		var employee model.Employee
		err := rows.Scan(&employee.ID,
			&employee.Name,
			&employee.Position,
			&employee.Email,
			&employee.Phone)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// Расходы

func (store *store) ExpensePost(ctx context.Context, expense model.Expense) (int64, error) {
	row := store.database.QueryRowContext(ctx,
		"INSERT INTO expense (expense_date, category, quantity, unit_cost)"+
			" VALUES ($1, $2, $3, $4)"+
			" RETURNING id",
		expense.Date,
		expense.Category,
		expense.Quantity,
		expense.UnitCost)
	var id int64
	err := row.Scan(&id)
	return id, err
}

func (store *store) ExpenseList(ctx context.Context) ([]model.Expense, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, expense_date, category, quantity, unit_cost"+
			" FROM expense ORDER BY expense_date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var expenses []model.Expense
	for rows.Next() {
		var expense model.Expense
		err := rows.Scan(&expense.ID,
			&expense.Date,
			&expense.Category,
			&expense.Quantity,
			&expense.UnitCost)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (store *store) ExpenseDelete(ctx context.Context, id int64) error {
	res, err := store.database.ExecContext(ctx, "DELETE FROM expense WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
