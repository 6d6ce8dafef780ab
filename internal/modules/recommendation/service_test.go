package recommendation

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/profile"
	testingpkg "github.com/finsight/finsight/internal/testing"
)

func newServiceUnderTest(t *testing.T) (*Service, *testingpkg.MockProfileSource, *testingpkg.MockProductSource) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "advisor")
	t.Cleanup(cleanup)

	profiles := testingpkg.NewMockProfileSource()
	products := testingpkg.NewMockProductSource()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	svc := NewService(profiles, products, repo, Config{}, zerolog.Nop())
	return svc, profiles, products
}

func TestRecommendForUser(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetProfile(testingpkg.NewRiskProfileFixture(domain.RiskLevelMedium))
	products.SetProducts(testingpkg.NewProductFixtures())

	rec, err := svc.RecommendForUser("")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, domain.DefaultUserID, rec.UserID)
	assert.Equal(t, domain.RiskLevelMedium, rec.RiskLevel)
	assert.False(t, rec.Fallback)
	assert.NotEmpty(t, rec.Positions)

	total := 0.0
	known := map[string]bool{"1": true, "2": true, "3": true, "4": true}
	for _, p := range rec.Positions {
		total += p.Weight
		assert.True(t, known[p.ProductID], "unexpected product id %s", p.ProductID)
	}
	assert.InDelta(t, 1.0, total, 1e-6)

	// The run is persisted and retrievable
	latest, err := svc.Latest("")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
	assert.Equal(t, rec.Positions, latest.Positions)
}

func TestRecommendForUserWithoutAssessment(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetError(profile.ErrNotFound)
	products.SetProducts(testingpkg.NewProductFixtures())

	rec, err := svc.RecommendForUser("")
	require.NoError(t, err)

	// Falls back to the balanced defaults instead of failing
	assert.Equal(t, domain.RiskLevelMedium, rec.RiskLevel)
	assert.NotEmpty(t, rec.Positions)
}

func TestRecommendForUserProfileErrorPropagates(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetError(errors.New("store offline"))
	products.SetProducts(testingpkg.NewProductFixtures())

	_, err := svc.RecommendForUser("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
}

func TestRecommendForUserCatalogErrorPropagates(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetProfile(testingpkg.NewRiskProfileFixture(domain.RiskLevelMedium))
	products.SetError(errors.New("catalog offline"))

	_, err := svc.RecommendForUser("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog offline")
}

func TestRecommendForUserEmptyCatalog(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetProfile(testingpkg.NewRiskProfileFixture(domain.RiskLevelMedium))
	products.SetProducts(nil)

	_, err := svc.RecommendForUser("")
	assert.ErrorIs(t, err, ErrInsufficientCandidates)
}

func TestRecommendForUserPersistsFallback(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetProfile(testingpkg.NewRiskProfileFixture(domain.RiskLevelLow))
	products.SetProducts([]domain.Product{
		{ID: 7, Name: "Aggressive Fund", Type: domain.ProductTypeFund, RiskLevel: domain.RiskLevelHigh, RiskScore: 0.9, ExpectedReturn: 0.2, Active: true},
		{ID: 8, Name: "Stock Basket", Type: domain.ProductTypeStock, RiskLevel: domain.RiskLevelHigh, RiskScore: 0.7, ExpectedReturn: 0.15, Active: true},
	})

	rec, err := svc.RecommendForUser("")
	require.NoError(t, err)

	assert.True(t, rec.Fallback)
	require.Len(t, rec.Positions, 1)
	assert.Equal(t, "8", rec.Positions[0].ProductID)
	assert.Equal(t, 1.0, rec.Positions[0].Weight)

	latest, err := svc.Latest("")
	require.NoError(t, err)
	assert.True(t, latest.Fallback)
}

func TestLatestNotFound(t *testing.T) {
	svc, _, _ := newServiceUnderTest(t)

	_, err := svc.Latest("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryOrdering(t *testing.T) {
	svc, profiles, products := newServiceUnderTest(t)

	profiles.SetProfile(testingpkg.NewRiskProfileFixture(domain.RiskLevelHigh))
	products.SetProducts(testingpkg.NewProductFixtures())

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := svc.RecommendForUser("")
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	history, err := svc.History("", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Newest first: the last run leads
	assert.Equal(t, ids[2], history[0].ID)

	limited, err := svc.History("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
