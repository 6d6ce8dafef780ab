package advisor

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/domain"
	testingpkg "github.com/finsight/finsight/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "advisor")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepositoryInsertAndGet(t *testing.T) {
	repo := newTestRepository(t)

	saved := &domain.Advice{
		ID:      "adv-1",
		UserID:  "u1",
		Kind:    domain.AdviceKindFinancial,
		Content: "Keep three months of expenses liquid.",
		Context: map[string]string{"month": "2025-07", "health_score": "80"},
	}
	require.NoError(t, repo.Insert(saved))

	got, err := repo.Get("adv-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.AdviceKindFinancial, got.Kind)
	assert.Equal(t, saved.Content, got.Content)
	assert.Equal(t, saved.Context, got.Context)
	assert.False(t, got.Read)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepositoryInsertWithoutContext(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Insert(&domain.Advice{
		ID:      "adv-1",
		UserID:  "u1",
		Kind:    domain.AdviceKindInvestment,
		Content: "Diversify across funds.",
	}))

	got, err := repo.Get("adv-1")
	require.NoError(t, err)
	assert.Nil(t, got.Context)
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := newTestRepository(t)

	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Insert(&domain.Advice{
			ID:      fmt.Sprintf("adv-%d", i),
			UserID:  "u1",
			Kind:    domain.AdviceKindFinancial,
			Content: content,
		}))
	}
	require.NoError(t, repo.Insert(&domain.Advice{
		ID:      "other",
		UserID:  "u2",
		Kind:    domain.AdviceKindInvestment,
		Content: "other user",
	}))

	list, err := repo.List("u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Content)
	assert.Equal(t, "first", list[2].Content)

	limited, err := repo.List("u1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "third", limited[0].Content)
}

func TestRepositoryMarkRead(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Insert(&domain.Advice{
		ID:      "adv-1",
		UserID:  "u1",
		Kind:    domain.AdviceKindPortfolio,
		Content: "Allocation explanation.",
	}))

	require.NoError(t, repo.MarkRead("adv-1"))

	got, err := repo.Get("adv-1")
	require.NoError(t, err)
	assert.True(t, got.Read)

	assert.ErrorIs(t, repo.MarkRead("missing"), ErrNotFound)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "advisor")
	t.Cleanup(cleanup)
	repo := NewRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.Insert(&domain.Advice{ID: "old", UserID: "u1", Kind: domain.AdviceKindFinancial, Content: "old"}))
	require.NoError(t, repo.Insert(&domain.Advice{ID: "recent", UserID: "u1", Kind: domain.AdviceKindFinancial, Content: "recent"}))

	_, err := db.Conn().Exec(`UPDATE advice SET created_at = '2024-01-01 00:00:00' WHERE id = 'old'`)
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan("2025-01-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get("old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get("recent")
	assert.NoError(t, err)
}
