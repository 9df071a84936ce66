package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/db"
)

type Account struct {
	ID           string
	BusinessName string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	RegisteredAt time.Time
}

type AccountRepository struct {
	pool *db.Pool
}

func NewAccountRepository(pool *db.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) CreateTx(ctx context.Context, tx pgx.Tx, account Account) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO accounts (id, business_name, email, phone, password_hash, role, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, account.ID, account.BusinessName, account.Email, account.Phone, account.PasswordHash, account.Role, account.RegisteredAt)
	return err
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_name, email, phone, password_hash, role, registered_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&account.ID, &account.BusinessName, &account.Email, &account.Phone, &account.PasswordHash, &account.Role, &account.RegisteredAt)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (Account, error) {
	var account Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_name, email, phone, password_hash, role, registered_at
		FROM accounts
		WHERE id = $1
	`, id).Scan(&account.ID, &account.BusinessName, &account.Email, &account.Phone, &account.PasswordHash, &account.Role, &account.RegisteredAt)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
