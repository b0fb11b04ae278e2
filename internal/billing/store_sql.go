package billing

import (
	"context"
	"database/sql"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetUser(ctx context.Context, phone string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT phone,full_name,email,institution,role,txn_id,expires_at,is_active,created_at
		FROM users WHERE phone=$1`, phone)
	var u User
	var active int
	if err := row.Scan(&u.Phone, &u.FullName, &u.Email, &u.Institution, &u.Role, &u.TxnID, &u.ExpiresAt, &active, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.Active = active != 0
	return u, nil
}

func (s *SQLStore) UpsertUser(ctx context.Context, u User) error {
	active := 0
	if u.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (phone,full_name,email,institution,role,txn_id,expires_at,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (phone) DO UPDATE SET full_name=EXCLUDED.full_name, email=EXCLUDED.email,
			institution=EXCLUDED.institution, role=EXCLUDED.role, txn_id=EXCLUDED.txn_id,
			expires_at=EXCLUDED.expires_at, is_active=EXCLUDED.is_active`,
		u.Phone, u.FullName, u.Email, u.Institution, u.Role, u.TxnID, u.ExpiresAt, active, u.CreatedAt)
	return err
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phone,full_name,email,institution,role,txn_id,expires_at,is_active,created_at
		FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var active int
		if err := rows.Scan(&u.Phone, &u.FullName, &u.Email, &u.Institution, &u.Role, &u.TxnID, &u.ExpiresAt, &active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Active = active != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddTransaction(ctx context.Context, t Transaction) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions (id,amount,currency,is_used,used_by_phone,used_at,created_at)
		VALUES ($1,$2,$3,0,'',NULL,$4)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Amount, t.Currency, t.CreatedAt)
	return err
}

func (s *SQLStore) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,amount,currency,is_used,used_by_phone,COALESCE(used_at,0),created_at
		FROM transactions WHERE id=$1`, id)
	var t Transaction
	var used int
	if err := row.Scan(&t.ID, &t.Amount, &t.Currency, &used, &t.UsedByPhone, &t.UsedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, ErrTxnNotFound
		}
		return Transaction{}, err
	}
	t.Used = used != 0
	return t, nil
}

func (s *SQLStore) MarkTransactionUsed(ctx context.Context, id, phone string, at int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET is_used=1, used_by_phone=$1, used_at=$2 WHERE id=$3`,
		phone, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTxnNotFound
	}
	return nil
}

func (s *SQLStore) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,amount,currency,is_used,used_by_phone,COALESCE(used_at,0),created_at
		FROM transactions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		var used int
		if err := rows.Scan(&t.ID, &t.Amount, &t.Currency, &used, &t.UsedByPhone, &t.UsedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Used = used != 0
		out = append(out, t)
	}
	return out, rows.Err()
}
