package repository

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserGormRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewUserGormRepository(newTestDB(t))

	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: model.RoleUser}
	require.NoError(t, r.Create(ctx, u))
	assert.NotZero(t, u.ID)

	byName, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := r.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "alice", byEmail.Username)

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, model.RoleUser, byID.Role)
}

func TestUserGormRepository_NotFoundIsNilNil(t *testing.T) {
	ctx := context.Background()
	r := NewUserGormRepository(newTestDB(t))

	u, err := r.FindByUsername(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.FindByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserGormRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	r := NewUserGormRepository(newTestDB(t))

	require.NoError(t, r.Create(ctx, &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h", Role: model.RoleUser}))

	err := r.Create(ctx, &model.User{Username: "bob", Email: "other@example.com", PasswordHash: "h", Role: model.RoleUser})
	assert.ErrorIs(t, err, domainrepo.ErrDuplicate)

	err = r.Create(ctx, &model.User{Username: "bobby", Email: "bob@example.com", PasswordHash: "h", Role: model.RoleUser})
	assert.ErrorIs(t, err, domainrepo.ErrDuplicate)
}

func TestUserGormRepository_List(t *testing.T) {
	ctx := context.Background()
	r := NewUserGormRepository(newTestDB(t))

	for _, name := range []string{"admin", "carol", "dave"} {
		require.NoError(t, r.Create(ctx, &model.User{Username: name, Email: name + "@example.com", PasswordHash: "h", Role: model.RoleUser}))
	}

	users, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "dave", users[2].Username)
}
