// Package products manages the investable product catalog.
package products

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when a product does not exist
var ErrNotFound = errors.New("product not found")

const productColumns = `id, name, description, product_type, risk_level, risk_score, expected_return, min_investment, period, features, tags, active, created_at, updated_at`

// Repository handles product persistence in the catalog database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new product repository
func NewRepository(catalogDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  catalogDB,
		log: log.With().Str("repo", "products").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var productType, riskLevel string
	var features, tags string
	var active int
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&productType,
		&riskLevel,
		&p.RiskScore,
		&p.ExpectedReturn,
		&p.MinInvestment,
		&p.Period,
		&features,
		&tags,
		&active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = domain.ProductType(productType)
	p.RiskLevel = domain.RiskLevel(riskLevel)
	p.Features = decodeStringList(features)
	p.Tags = decodeStringList(tags)
	p.Active = active != 0
	p.CreatedAt = utils.ParseSQLiteTime(createdAt)
	p.UpdatedAt = utils.ParseSQLiteTime(updatedAt)

	return &p, nil
}

// decodeStringList parses a JSON array stored in a TEXT column. Bad or empty
// payloads decode to nil.
func decodeStringList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

func encodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// UpsertByName inserts a product or refreshes an existing row with the same
// name, keeping its id stable
func (r *Repository) UpsertByName(p *domain.Product) error {
	_, err := r.db.Exec(`
		INSERT INTO products (name, description, product_type, risk_level, risk_score, expected_return, min_investment, period, features, tags, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			product_type = excluded.product_type,
			risk_level = excluded.risk_level,
			risk_score = excluded.risk_score,
			expected_return = excluded.expected_return,
			min_investment = excluded.min_investment,
			period = excluded.period,
			features = excluded.features,
			tags = excluded.tags,
			active = excluded.active,
			updated_at = datetime('now')
	`,
		p.Name,
		p.Description,
		string(p.Type),
		string(p.RiskLevel),
		p.RiskScore,
		p.ExpectedReturn,
		p.MinInvestment,
		p.Period,
		encodeStringList(p.Features),
		encodeStringList(p.Tags),
		boolToInt(p.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %q: %w", p.Name, err)
	}

	return nil
}

// Get returns one product by id
func (r *Repository) Get(id int64) (*domain.Product, error) {
	row := r.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// List returns the catalog ordered by risk score, optionally active rows only
func (r *Repository) List(activeOnly bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY risk_score ASC, id ASC`

	return r.queryProducts(query)
}

// ListActive returns all active products ordered by risk score
func (r *Repository) ListActive() ([]domain.Product, error) {
	return r.List(true)
}

// ByRiskLevels returns active products within the given risk levels, highest
// expected return first
func (r *Repository) ByRiskLevels(levels ...domain.RiskLevel) ([]domain.Product, error) {
	if len(levels) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(levels))
	args := make([]interface{}, len(levels))
	for i, level := range levels {
		placeholders[i] = "?"
		args[i] = string(level)
	}

	query := `SELECT ` + productColumns + ` FROM products
		WHERE active = 1 AND risk_level IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY expected_return DESC, id ASC`

	return r.queryProducts(query, args...)
}

// Deactivate marks a product inactive without removing it
func (r *Repository) Deactivate(id int64) error {
	result, err := r.db.Exec(`UPDATE products SET active = 0, updated_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivate result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) queryProducts(query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var list []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return list, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
