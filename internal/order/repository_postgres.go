package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Draft rows are only live for 24 hours; anything older belongs to an
// abandoned session and is ignored.
const activeDraftClause = `disabled = 0 AND transaction_id = 0 AND created_at > now() - interval '1 day'`

func wrapWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrWrite)
}

// --------------------------------------------------
// Users
// --------------------------------------------------

type PostgresUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Exists(ctx context.Context, lineUserID string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM lineuser WHERE userid = $1 LIMIT 1`, lineUserID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresUserRepository) FindByLineID(ctx context.Context, lineUserID string) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, userid, customerno, managekey, COALESCE(transactionkey, ''), disabled <> 0, created_at
		FROM lineuser
		WHERE userid = $1
		ORDER BY id
		LIMIT 1
	`, lineUserID).Scan(
		&u.ID, &u.LineUserID, &u.CustomerNo, &u.ManageKey,
		&u.TransactionKey, &u.Disabled, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO lineuser (userid, customerno, managekey)
		VALUES ($1, $2, $3)
		RETURNING id
	`, user.LineUserID, user.CustomerNo, user.ManageKey).Scan(&user.ID)
	return wrapWrite("insert lineuser", err)
}

func (r *PostgresUserRepository) SetTransactionKey(ctx context.Context, lineUserID, key string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE lineuser SET transactionkey = $1 WHERE userid = $2
	`, key, lineUserID)
	return wrapWrite("update lineuser transactionkey", err)
}

// --------------------------------------------------
// Products
// --------------------------------------------------

type PostgresProductRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func (r *PostgresProductRepository) TiersByCategory(ctx context.Context, categoryID int) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, productid, categoryid, categoryname, price, amount, disabled <> 0
		FROM product
		WHERE categoryid = $1 AND disabled = 0
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.ProductID, &p.CategoryID, &p.CategoryName,
			&p.Price, &p.Amount, &p.Disabled,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products, rows.Err()
}

func (r *PostgresProductRepository) ByProductID(ctx context.Context, productID int) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRow(ctx, `
		SELECT id, productid, categoryid, categoryname, price, amount, disabled <> 0
		FROM product
		WHERE productid = $1
		ORDER BY id
		LIMIT 1
	`, productID).Scan(
		&p.ID, &p.ProductID, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Amount, &p.Disabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresProductRepository) ByCategoryAndAmount(ctx context.Context, categoryID, amount int) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRow(ctx, `
		SELECT id, productid, categoryid, categoryname, price, amount, disabled <> 0
		FROM product
		WHERE categoryid = $1 AND amount = $2
		ORDER BY id
		LIMIT 1
	`, categoryID, amount).Scan(
		&p.ID, &p.ProductID, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Amount, &p.Disabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// --------------------------------------------------
// Order history
// --------------------------------------------------

type PostgresHistoryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresHistoryRepository(db *pgxpool.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

func (r *PostgresHistoryRepository) CategoriesByCustomer(ctx context.Context, customerNo int) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT categoryid FROM orderhistory WHERE customerno = $1 ORDER BY id
	`, customerNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		categories = append(categories, id)
	}
	return categories, rows.Err()
}

// --------------------------------------------------
// Soleil allow-list
// --------------------------------------------------

type PostgresSoleilRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSoleilRepository(db *pgxpool.Pool) *PostgresSoleilRepository {
	return &PostgresSoleilRepository{db: db}
}

func (r *PostgresSoleilRepository) IsMember(ctx context.Context, customerNo int) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM soleil WHERE customerno = $1 LIMIT 1`, customerNo,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// --------------------------------------------------
// Draft orders
// --------------------------------------------------

type PostgresDraftRepository struct {
	db *pgxpool.Pool
}

func NewPostgresDraftRepository(db *pgxpool.Pool) *PostgresDraftRepository {
	return &PostgresDraftRepository{db: db}
}

func (r *PostgresDraftRepository) ActiveBySession(ctx context.Context, userKey string) ([]*DraftLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, userid, customerno, userkey, tmpcategoryid, quantity, product_id, total, disabled <> 0, transaction_id, created_at
		FROM draftorder
		WHERE userkey = $1 AND `+activeDraftClause+`
		ORDER BY id
	`, userKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDraftLines(rows)
}

func (r *PostgresDraftRepository) ActiveBySessionCategory(ctx context.Context, userKey string, categoryID int) ([]*DraftLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, userid, customerno, userkey, tmpcategoryid, quantity, product_id, total, disabled <> 0, transaction_id, created_at
		FROM draftorder
		WHERE userkey = $1 AND tmpcategoryid = $2 AND `+activeDraftClause+`
		ORDER BY id
	`, userKey, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDraftLines(rows)
}

func scanDraftLines(rows pgx.Rows) ([]*DraftLine, error) {
	var lines []*DraftLine
	for rows.Next() {
		var d DraftLine
		if err := rows.Scan(
			&d.ID, &d.LineUserID, &d.CustomerNo, &d.UserKey,
			&d.TmpCategoryID, &d.Quantity, &d.ProductID, &d.Total,
			&d.Disabled, &d.TransactionID, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, &d)
	}
	return lines, rows.Err()
}

func (r *PostgresDraftRepository) Insert(ctx context.Context, line *DraftLine) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO draftorder (userid, customerno, userkey, tmpcategoryid)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, line.LineUserID, line.CustomerNo, line.UserKey, line.TmpCategoryID).Scan(&line.ID)
	return wrapWrite("insert draftorder", err)
}

func (r *PostgresDraftRepository) Disable(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `UPDATE draftorder SET disabled = 1 WHERE id = $1`, id)
	return wrapWrite("disable draftorder", err)
}

func (r *PostgresDraftRepository) DisableBySession(ctx context.Context, userKey string) error {
	_, err := r.db.Exec(ctx, `UPDATE draftorder SET disabled = 1 WHERE userkey = $1`, userKey)
	return wrapWrite("disable draftorder session", err)
}

func (r *PostgresDraftRepository) SetQuantity(ctx context.Context, userKey string, categoryID, quantity int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE draftorder SET quantity = $1 WHERE tmpcategoryid = $2 AND userkey = $3
	`, quantity, categoryID, userKey)
	return wrapWrite("update draftorder quantity", err)
}

func (r *PostgresDraftRepository) SetPricing(ctx context.Context, id, productID, total int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE draftorder SET product_id = $1, total = $2 WHERE id = $3
	`, productID, total, id)
	return wrapWrite("update draftorder pricing", err)
}

func (r *PostgresDraftRepository) LinkTransaction(ctx context.Context, id, transactionID int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE draftorder SET transaction_id = $1 WHERE id = $2
	`, transactionID, id)
	return wrapWrite("link draftorder transaction", err)
}

// --------------------------------------------------
// Transactions
// --------------------------------------------------

type PostgresTransactionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTransactionRepository(db *pgxpool.Pool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) Insert(ctx context.Context, tx *Transaction) (int, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (userid, customerno, userkey, transactionkey, totalprice, totalquantity, completed)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id
	`, tx.LineUserID, tx.CustomerNo, tx.UserKey, tx.TransactionKey,
		tx.TotalPrice, tx.TotalQuantity,
	).Scan(&tx.ID)
	if err != nil {
		return 0, wrapWrite("insert transactions", err)
	}
	return tx.ID, nil
}

func (r *PostgresTransactionRepository) KeyBySession(ctx context.Context, userKey string) (string, error) {
	var key string
	err := r.db.QueryRow(ctx, `
		SELECT transactionkey FROM transactions WHERE userkey = $1 ORDER BY id LIMIT 1
	`, userKey).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

func (r *PostgresTransactionRepository) Complete(ctx context.Context, userKey string, paymentID int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions SET payment_id = $1, completed = 1 WHERE userkey = $2
	`, paymentID, userKey)
	return wrapWrite("complete transaction", err)
}
