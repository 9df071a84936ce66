package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type Profile struct {
	AccountID    string `json:"account_id"`
	BusinessName string `json:"business_name"`
	Currency     string `json:"currency"`
	Timezone     string `json:"timezone"`
}

func (r *Repository) GetOrCreateProfile(ctx context.Context, accountID string) (Profile, error) {
	// Create a default profile if missing (keeps dev UX smooth while other services mature).
	_, err := r.pool.Exec(ctx, `
		INSERT INTO business_profiles (account_id)
		VALUES ($1)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	err = r.pool.QueryRow(ctx, `
		SELECT account_id::text, business_name, currency, timezone
		FROM business_profiles
		WHERE account_id = $1
	`, accountID).Scan(&p.AccountID, &p.BusinessName, &p.Currency, &p.Timezone)
	return p, err
}

func (r *Repository) UpdateProfile(ctx context.Context, accountID, businessName, currency, timezone string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO business_profiles (account_id, business_name, currency, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET business_name = EXCLUDED.business_name,
			currency = EXCLUDED.currency,
			timezone = EXCLUDED.timezone,
			updated_at = now()
	`, accountID, businessName, currency, timezone)
	return err
}

type Note struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Repository) CreateNote(ctx context.Context, accountID, title, body string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, account_id, title, body)
		VALUES ($1, $2, $3, $4)
	`, id, accountID, title, body)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListNotes(ctx context.Context, accountID string, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id::text, title, body, created_at, updated_at
		FROM notes
		WHERE account_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) UpdateNote(ctx context.Context, accountID, noteID, title, body string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notes
		SET title = $3, body = $4, updated_at = now()
		WHERE account_id = $1 AND id = $2
	`, accountID, noteID, title, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteNote(ctx context.Context, accountID, noteID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notes
		WHERE account_id = $1 AND id = $2
	`, accountID, noteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type InventoryItem struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"account_id"`
	Name              string    `json:"name"`
	Quantity          int       `json:"quantity"`
	UnitCostKobo      int64     `json:"unit_cost_kobo"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	CreatedAt         time.Time `json:"created_at"`
}

func (r *Repository) CreateInventoryItem(ctx context.Context, accountID, name string, quantity int, unitCostKobo int64, lowStockThreshold int) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_items (id, account_id, name, quantity, unit_cost_kobo, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, accountID, name, quantity, unitCostKobo, lowStockThreshold)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListInventoryItems(ctx context.Context, accountID string, limit int) ([]InventoryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id::text, name, quantity, unit_cost_kobo,
			low_stock_threshold, quantity <= low_stock_threshold AS low_stock, created_at
		FROM inventory_items
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.AccountID, &it.Name, &it.Quantity, &it.UnitCostKobo, &it.LowStockThreshold, &it.LowStock, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// AdjustInventoryQuantity applies a delta and clamps at zero, returning the
// new quantity.
func (r *Repository) AdjustInventoryQuantity(ctx context.Context, accountID, itemID string, delta int) (int, error) {
	var quantity int
	err := r.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = GREATEST(quantity + $3, 0), updated_at = now()
		WHERE account_id = $1 AND id = $2
		RETURNING quantity
	`, accountID, itemID, delta).Scan(&quantity)
	return quantity, err
}

func (r *Repository) DeleteInventoryItem(ctx context.Context, accountID, itemID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM inventory_items
		WHERE account_id = $1 AND id = $2
	`, accountID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type SaleEntry struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Kind       string    `json:"kind"`
	AmountKobo int64     `json:"amount_kobo"`
	Category   string    `json:"category"`
	EntryDate  time.Time `json:"entry_date"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Repository) CreateSaleEntry(ctx context.Context, accountID, kind string, amountKobo int64, category string, entryDate time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sale_entries (id, account_id, kind, amount_kobo, category, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, accountID, kind, amountKobo, category, entryDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListSaleEntries(ctx context.Context, accountID, month string, limit int) ([]SaleEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id::text, kind, amount_kobo, category, entry_date, created_at
		FROM sale_entries
		WHERE account_id = $1
			AND ($2 = '' OR to_char(entry_date, 'YYYY-MM') = $2)
		ORDER BY entry_date DESC, created_at DESC
		LIMIT $3
	`, accountID, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleEntry
	for rows.Next() {
		var e SaleEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.AmountKobo, &e.Category, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type BudgetSummary struct {
	Month          string `json:"month"`
	IncomeKobo     int64  `json:"income_kobo"`
	ExpenseKobo    int64  `json:"expense_kobo"`
	NetKobo        int64  `json:"net_kobo"`
	EntryCount     int    `json:"entry_count"`
	TopIncomeKobo  int64  `json:"top_income_kobo"`
	TopExpenseKobo int64  `json:"top_expense_kobo"`
}

func (r *Repository) BudgetSummaryForMonth(ctx context.Context, accountID, month string) (BudgetSummary, error) {
	s := BudgetSummary{Month: month}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_kobo) FILTER (WHERE kind = 'income'), 0),
			COALESCE(SUM(amount_kobo) FILTER (WHERE kind = 'expense'), 0),
			COUNT(*),
			COALESCE(MAX(amount_kobo) FILTER (WHERE kind = 'income'), 0),
			COALESCE(MAX(amount_kobo) FILTER (WHERE kind = 'expense'), 0)
		FROM sale_entries
		WHERE account_id = $1 AND to_char(entry_date, 'YYYY-MM') = $2
	`, accountID, month).Scan(&s.IncomeKobo, &s.ExpenseKobo, &s.EntryCount, &s.TopIncomeKobo, &s.TopExpenseKobo)
	if err != nil {
		return BudgetSummary{}, err
	}
	s.NetKobo = s.IncomeKobo - s.ExpenseKobo
	return s, nil
}

func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
