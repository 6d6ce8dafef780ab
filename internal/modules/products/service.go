package products

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// SearchFilter narrows a catalog search. Zero values mean no constraint.
type SearchFilter struct {
	Query     string
	Type      domain.ProductType
	RiskLevel domain.RiskLevel
	Tags      string // comma-separated, any match
}

// Service provides catalog operations
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new products service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "products").Logger(),
	}
}

// Seed loads the catalog definition and upserts every product by name. An
// empty path means the embedded defaults. Safe to run on every startup.
func (s *Service) Seed(path string) error {
	data := defaultProductsYAML
	source := "embedded"
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read products file %s: %w", path, err)
		}
		data = fileData
		source = path
	}

	list, err := ParseProductsYAML(data)
	if err != nil {
		return err
	}

	for i := range list {
		if err := s.repo.UpsertByName(&list[i]); err != nil {
			return err
		}
	}

	s.log.Info().Int("count", len(list)).Str("source", source).Msg("Product catalog seeded")
	return nil
}

// List returns the catalog, optionally active products only
func (s *Service) List(activeOnly bool) ([]domain.Product, error) {
	return s.repo.List(activeOnly)
}

// Get returns one product by id
func (s *Service) Get(id int64) (*domain.Product, error) {
	return s.repo.Get(id)
}

// ListActive returns all active products ordered by risk score
func (s *Service) ListActive() ([]domain.Product, error) {
	return s.repo.ListActive()
}

// Search filters the active catalog by free-text query, type, risk level and
// tags. Matching happens in memory, the catalog is small.
func (s *Service) Search(filter SearchFilter) ([]domain.Product, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("unknown product type %q", filter.Type)
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.Valid() {
		return nil, fmt.Errorf("unknown risk level %q", filter.RiskLevel)
	}

	list, err := s.repo.ListActive()
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	wantTags := utils.ParseCSV(filter.Tags)

	var result []domain.Product
	for _, p := range list {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.RiskLevel != "" && p.RiskLevel != filter.RiskLevel {
			continue
		}
		if query != "" && !matchesQuery(&p, query) {
			continue
		}
		if len(wantTags) > 0 && !hasAnyTag(&p, wantTags) {
			continue
		}
		result = append(result, p)
	}

	return result, nil
}

// RecommendedForLevel returns products a user of the given risk level may
// hold. Conservative users see only low-risk products, balanced users low and
// medium, aggressive users the whole catalog. Highest expected return first.
func (s *Service) RecommendedForLevel(level domain.RiskLevel) ([]domain.Product, error) {
	switch level {
	case domain.RiskLevelLow:
		return s.repo.ByRiskLevels(domain.RiskLevelLow)
	case domain.RiskLevelMedium:
		return s.repo.ByRiskLevels(domain.RiskLevelLow, domain.RiskLevelMedium)
	case domain.RiskLevelHigh:
		return s.repo.ByRiskLevels(domain.RiskLevelLow, domain.RiskLevelMedium, domain.RiskLevelHigh)
	default:
		return nil, fmt.Errorf("unknown risk level %q", level)
	}
}

// Deactivate removes a product from the active catalog
func (s *Service) Deactivate(id int64) error {
	return s.repo.Deactivate(id)
}

func matchesQuery(p *domain.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) {
		return true
	}
	return strings.Contains(strings.ToLower(p.Description), query)
}

func hasAnyTag(p *domain.Product, want []string) bool {
	for _, tag := range p.Tags {
		for _, w := range want {
			if strings.EqualFold(tag, w) {
				return true
			}
		}
	}
	return false
}
