package audit

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cage-booking-backend/internal/db"
)

func TestPgxRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))

	userID := "user-" + uuid.NewString()
	repo := NewPgxRepository(pool)

	first := &Entry{Kind: KindCheckoutRequested, UserID: userID, SlotID: "slot-7", Date: "2026-10-16", Price: 1200, AdvancePayment: 300, DuePayment: 900}
	require.NoError(t, repo.Append(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &Entry{Kind: KindCheckoutCreated, UserID: userID, SlotID: "slot-7", SessionID: "cs_test_1"}
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, &Entry{Kind: KindHoldExpired, UserID: "someone-else"}))

	entries, err := repo.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindCheckoutCreated, entries[0].Kind)
	assert.Equal(t, "cs_test_1", entries[0].SessionID)
	assert.Equal(t, int64(900), entries[1].DuePayment)

	limited, err := repo.ListByUser(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
