package scheduler

import (
	"github.com/rs/zerolog"
)

// CatalogSeeder loads the product catalog from a YAML file
type CatalogSeeder interface {
	Seed(path string) error
}

// CatalogRefreshJob re-reads the product catalog override file so edits
// to it show up without a restart
type CatalogRefreshJob struct {
	products CatalogSeeder
	path     string
	log      zerolog.Logger
}

// NewCatalogRefreshJob creates a new catalog refresh job
func NewCatalogRefreshJob(products CatalogSeeder, path string, log zerolog.Logger) *CatalogRefreshJob {
	return &CatalogRefreshJob{
		products: products,
		path:     path,
		log:      log.With().Str("job", "catalog_refresh").Logger(),
	}
}

// Name returns the job name
func (j *CatalogRefreshJob) Name() string {
	return "catalog_refresh"
}

// Run re-seeds the catalog from the override file. With no override file
// configured the embedded catalog is already loaded, nothing to do.
func (j *CatalogRefreshJob) Run() error {
	if j.path == "" {
		j.log.Debug().Msg("No catalog override file configured, skipping refresh")
		return nil
	}

	if err := j.products.Seed(j.path); err != nil {
		return err
	}

	j.log.Info().Str("path", j.path).Msg("Product catalog refreshed")
	return nil
}
