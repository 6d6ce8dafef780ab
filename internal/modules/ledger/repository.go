package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when a bill does not exist
var ErrNotFound = errors.New("bill not found")

// billColumns is the column list for the bills table.
// Order must match scanBill.
const billColumns = `id, user_id, type, category, amount, description, bill_date, created_at, updated_at`

// Repository handles bill persistence in ledger.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new bill repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(s rowScanner) (Bill, error) {
	var b Bill
	var billType, createdAt, updatedAt string
	err := s.Scan(&b.ID, &b.UserID, &billType, &b.Category, &b.Amount, &b.Description, &b.Date, &createdAt, &updatedAt)
	if err != nil {
		return Bill{}, err
	}
	b.Type = domain.BillType(billType)
	b.CreatedAt = utils.ParseSQLiteTime(createdAt)
	b.UpdatedAt = utils.ParseSQLiteTime(updatedAt)
	return b, nil
}

// Insert adds a bill and assigns its id
func (r *Repository) Insert(b *Bill) error {
	if b.UserID == "" {
		b.UserID = domain.DefaultUserID
	}

	res, err := r.db.Exec(`INSERT INTO bills (user_id, type, category, amount, description, bill_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, string(b.Type), b.Category, b.Amount, b.Description, b.Date)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted bill id: %w", err)
	}
	b.ID = id

	return nil
}

// InsertTx adds a bill within an existing transaction (statement imports)
func (r *Repository) InsertTx(tx *sql.Tx, b *Bill) error {
	if b.UserID == "" {
		b.UserID = domain.DefaultUserID
	}

	res, err := tx.Exec(`INSERT INTO bills (user_id, type, category, amount, description, bill_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, string(b.Type), b.Category, b.Amount, b.Description, b.Date)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted bill id: %w", err)
	}
	b.ID = id

	return nil
}

// Get returns a bill by id
func (r *Repository) Get(id int64) (*Bill, error) {
	row := r.db.QueryRow("SELECT "+billColumns+" FROM bills WHERE id = ?", id)

	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query bill: %w", err)
	}

	return &b, nil
}

// Update rewrites a bill's mutable fields
func (r *Repository) Update(b *Bill) error {
	res, err := r.db.Exec(`UPDATE bills
		SET type = ?, category = ?, amount = ?, description = ?, bill_date = ?, updated_at = datetime('now')
		WHERE id = ?`,
		string(b.Type), b.Category, b.Amount, b.Description, b.Date, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a bill by id
func (r *Repository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns bills for a user, newest first, honoring the filter
func (r *Repository) List(userID string, filter ListFilter) ([]Bill, error) {
	query := "SELECT " + billColumns + " FROM bills WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.From != "" {
		query += " AND bill_date >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += " AND bill_date <= ?"
		args = append(args, filter.To)
	}

	query += " ORDER BY bill_date DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}

	return bills, nil
}

// MonthTotals sums income and expense for one calendar month
func (r *Repository) MonthTotals(userID string, year, month int) (*MonthTotals, error) {
	var income, expense float64
	err := r.db.QueryRow(`SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		FROM bills
		WHERE user_id = ? AND strftime('%Y', bill_date) = ? AND strftime('%m', bill_date) = ?`,
		userID, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month)).Scan(&income, &expense)
	if err != nil {
		return nil, fmt.Errorf("failed to query month totals: %w", err)
	}

	return &MonthTotals{
		Year:    year,
		Month:   month,
		Income:  income,
		Expense: expense,
		Balance: income - expense,
	}, nil
}

// CategoryTotals groups amounts by category for one bill type and date range
func (r *Repository) CategoryTotals(userID string, billType domain.BillType, from, to string) ([]CategoryTotal, error) {
	rows, err := r.db.Query(`SELECT category, COALESCE(SUM(amount), 0) AS total, COUNT(*)
		FROM bills
		WHERE user_id = ? AND type = ? AND bill_date >= ? AND bill_date <= ?
		GROUP BY category
		ORDER BY total DESC`,
		userID, string(billType), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	return totals, nil
}

// DailyTotals returns per-day income/expense sums for days that have bills
func (r *Repository) DailyTotals(userID, from, to string) (map[string]SeriesPoint, error) {
	rows, err := r.db.Query(`SELECT bill_date,
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		FROM bills
		WHERE user_id = ? AND bill_date >= ? AND bill_date <= ?
		GROUP BY bill_date`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	points := make(map[string]SeriesPoint)
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Period, &p.Income, &p.Expense); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		p.Net = p.Income - p.Expense
		points[p.Period] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}

	return points, nil
}

// MonthlyTotals returns per-month income/expense sums for one year
func (r *Repository) MonthlyTotals(userID string, year int) (map[string]SeriesPoint, error) {
	rows, err := r.db.Query(`SELECT strftime('%Y-%m', bill_date) AS period,
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		FROM bills
		WHERE user_id = ? AND strftime('%Y', bill_date) = ?
		GROUP BY period`,
		userID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	points := make(map[string]SeriesPoint)
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Period, &p.Income, &p.Expense); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		p.Net = p.Income - p.Expense
		points[p.Period] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}

	return points, nil
}
