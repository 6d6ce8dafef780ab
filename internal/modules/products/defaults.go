package products

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/finsight/finsight/internal/domain"
)

//go:embed products.yaml
var defaultProductsYAML []byte

type productSpec struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Type           string   `yaml:"type"`
	RiskLevel      string   `yaml:"risk_level"`
	RiskScore      float64  `yaml:"risk_score"`
	ExpectedReturn float64  `yaml:"expected_return"`
	MinInvestment  float64  `yaml:"min_investment"`
	Period         string   `yaml:"period"`
	Features       []string `yaml:"features"`
	Tags           []string `yaml:"tags"`
}

type productsFile struct {
	Products []productSpec `yaml:"products"`
}

// ParseProductsYAML decodes and validates a catalog definition
func ParseProductsYAML(data []byte) ([]domain.Product, error) {
	var file productsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse products file: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, fmt.Errorf("products file defines no products")
	}

	seen := make(map[string]bool, len(file.Products))
	result := make([]domain.Product, 0, len(file.Products))
	for i, spec := range file.Products {
		if spec.Name == "" {
			return nil, fmt.Errorf("product %d has no name", i+1)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate product name %q", spec.Name)
		}
		seen[spec.Name] = true

		productType := domain.ProductType(spec.Type)
		if !productType.Valid() {
			return nil, fmt.Errorf("product %q has unknown type %q", spec.Name, spec.Type)
		}
		riskLevel := domain.RiskLevel(spec.RiskLevel)
		if !riskLevel.Valid() {
			return nil, fmt.Errorf("product %q has unknown risk level %q", spec.Name, spec.RiskLevel)
		}
		if spec.RiskScore < 0 || spec.RiskScore > 1 {
			return nil, fmt.Errorf("product %q risk score must be within [0, 1], got %v", spec.Name, spec.RiskScore)
		}
		if spec.MinInvestment < 0 {
			return nil, fmt.Errorf("product %q min investment cannot be negative", spec.Name)
		}

		result = append(result, domain.Product{
			Name:           spec.Name,
			Description:    spec.Description,
			Type:           productType,
			RiskLevel:      riskLevel,
			RiskScore:      spec.RiskScore,
			ExpectedReturn: spec.ExpectedReturn,
			MinInvestment:  spec.MinInvestment,
			Period:         spec.Period,
			Features:       spec.Features,
			Tags:           spec.Tags,
			Active:         true,
		})
	}

	return result, nil
}

// DefaultProducts parses the embedded catalog definition
func DefaultProducts() ([]domain.Product, error) {
	return ParseProductsYAML(defaultProductsYAML)
}
