package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/store/config"
)

type Store interface {
	AuthRegister(ctx context.Context, login string, password string) (string, error)
	AuthLogin(ctx context.Context, login string, password string) (string, error)
	CustomerPost(ctx context.Context, customer model.Customer) (int64, error)
	CustomerPut(ctx context.Context, customer model.Customer) error
	CustomerList(ctx context.Context) ([]model.Customer, error)
	MaterialPost(ctx context.Context, material model.Material) (int64, error)
	MaterialPut(ctx context.Context, material model.Material) error
	MaterialList(ctx context.Context) ([]model.Material, error)
	EmployeePost(ctx context.Context, employee model.Employee) (int64, error)
	EmployeeList(ctx context.Context) ([]model.Employee, error)
	OrderPost(ctx context.Context, order model.Order) (int64, error)
	OrderPut(ctx context.Context, order model.Order) error
	OrderGet(ctx context.Context, id int64) (model.Order, error)
	OrderList(ctx context.Context) ([]model.Order, error)
	OrderDelete(ctx context.Context, id int64) error
	OrderItemStatePut(ctx context.Context, orderID int64, itemID int64, state model.ProductionState) error
	OrderStatusPut(ctx context.Context, orderID int64, status model.PaymentStatus) error
	PaymentAppend(ctx context.Context, orderID int64, payment model.Payment, status model.PaymentStatus) error
	ExpensePost(ctx context.Context, expense model.Expense) (int64, error)
	ExpenseList(ctx context.Context) ([]model.Expense, error)
	ExpenseDelete(ctx context.Context, id int64) error
	Close() error
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
	ErrWrongPassword = errors.New("wrong password")
)

const codeUniqueViolation = "23505"

type store struct {
	database *sql.DB
}

var schema = []string{
	// Операторы (кассиры, администраторы)
	"CREATE TABLE IF NOT EXISTS operator (" +
		" login VARCHAR (20) PRIMARY KEY," +
		" password_hash VARCHAR (100) NOT NULL" +
		" );",
	"CREATE TABLE IF NOT EXISTS customer (" +
		" id BIGSERIAL PRIMARY KEY," +
		" name VARCHAR (100) NOT NULL," +
		" email VARCHAR (100) NOT NULL DEFAULT ''," +
		" phone VARCHAR (30) NOT NULL DEFAULT ''," +
		" address VARCHAR (200) NOT NULL DEFAULT ''," +
		" tier VARCHAR (20) NOT NULL" +
		" );",
	"CREATE TABLE IF NOT EXISTS material (" +
		" id BIGSERIAL PRIMARY KEY," +
		" name VARCHAR (100) NOT NULL" +
		" );",
	// Цена материала по уровню клиента, одна строка на уровень
	"CREATE TABLE IF NOT EXISTS material_price (" +
		" material_id BIGINT REFERENCES material (id) ON DELETE CASCADE," +
		" tier VARCHAR (20)," +
		" price BIGINT NOT NULL," +
		" PRIMARY KEY (material_id, tier)" +
		" );",
	"CREATE TABLE IF NOT EXISTS employee (" +
		" id BIGSERIAL PRIMARY KEY," +
		" name VARCHAR (100) NOT NULL," +
		" position VARCHAR (50) NOT NULL DEFAULT ''," +
		" email VARCHAR (100) NOT NULL DEFAULT ''," +
		" phone VARCHAR (30) NOT NULL DEFAULT ''" +
		" );",
	// Заказы. Ссылки на клиента и материалы не являются внешними ключами:
	// заказ с удалённым клиентом должен оставаться в отчётах
	"CREATE TABLE IF NOT EXISTS print_order (" +
		" id BIGSERIAL PRIMARY KEY," +
		" note_number VARCHAR (20) NOT NULL UNIQUE," +
		" order_date DATE NOT NULL," +
		" customer_id BIGINT NOT NULL," +
		" executor_id BIGINT NOT NULL DEFAULT 0," +
		" status VARCHAR (20) NOT NULL" +
		" );",
	"CREATE TABLE IF NOT EXISTS order_item (" +
		" id BIGSERIAL PRIMARY KEY," +
		" order_id BIGINT NOT NULL REFERENCES print_order (id) ON DELETE CASCADE," +
		" position INTEGER NOT NULL," +
		" material_id BIGINT NOT NULL," +
		" description VARCHAR (200) NOT NULL DEFAULT ''," +
		" length DOUBLE PRECISION NOT NULL," +
		" width DOUBLE PRECISION NOT NULL," +
		" quantity INTEGER NOT NULL," +
		" state VARCHAR (20) NOT NULL" +
		" );",
	// Платежи. Журнал: строки только добавляются
	"CREATE TABLE IF NOT EXISTS payment (" +
		" order_id BIGINT NOT NULL REFERENCES print_order (id) ON DELETE CASCADE," +
		" operation BIGSERIAL," +
		" amount BIGINT NOT NULL CHECK (amount > 0)," +
		" paid_at DATE NOT NULL," +
		" operator VARCHAR (20) NOT NULL," +
		" PRIMARY KEY (order_id, operation)" +
		" );",
	"CREATE TABLE IF NOT EXISTS expense (" +
		" id BIGSERIAL PRIMARY KEY," +
		" expense_date DATE NOT NULL," +
		" category VARCHAR (200) NOT NULL," +
		" quantity BIGINT NOT NULL," +
		" unit_cost BIGINT NOT NULL" +
		" );",
}

func NewStore(cfg config.Config) (Store, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &store{
		database: db,
	}, nil
}

func (store *store) Close() error {
	return store.database.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func (store *store) AuthRegister(ctx context.Context, login string, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	// Запись нового оператора
	_, err = store.database.ExecContext(ctx,
		"INSERT INTO operator (login, password_hash)"+
			" VALUES ($1, $2)",
		login,
		string(hash))
	if err != nil {
		// Проверка: уже существует
		if isUniqueViolation(err) {
			return "", ErrAlreadyExists
		}
		return "", err
	}
	return login, nil
}

func (store *store) AuthLogin(ctx context.Context, login string, password string) (string, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT password_hash FROM operator"+
			" WHERE login = $1",
		login)
	var hash string
	err := row.Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoRows
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrWrongPassword
	}
	return login, nil
}
