package demo

import (
	"context"
	"testing"
	"time"

	"homelyquad/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ownership, err := store.Units().GetOwnership(ctx, UnitID)
	require.NoError(t, err)
	assert.Equal(t, LandlordID, ownership.LandlordID)
	assert.Equal(t, OrgID, ownership.OrganizationID)

	leased, err := store.Units().HasActiveLease(ctx, UnitID, TenantID, time.Now())
	require.NoError(t, err)
	assert.True(t, leased)

	leased, err = store.Units().HasActiveLease(ctx, UnitID, OtherTenantID, time.Now())
	require.NoError(t, err)
	assert.False(t, leased)

	for _, id := range []int64{LandlordID, TenantID, WorkmanID, AdminID, ForeignTenantID} {
		user, err := store.Users().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Actor(id), user.Acting())
	}
}

func TestActor_Unknown(t *testing.T) {
	actor := Actor(999)
	assert.Equal(t, models.Role(""), actor.Role)
	assert.Equal(t, OrgID, actor.OrganizationID)
}
