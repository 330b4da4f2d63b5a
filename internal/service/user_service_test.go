package service

import (
	"context"
	"io"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	svc := NewUserService(repository.NewMemoryStore(), &logger)

	ann, err := svc.CreateUser(ctx, &models.User{Name: "ann", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, ann.ID)

	_, err = svc.CreateUser(ctx, &models.User{Name: "bob", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	for _, email := range []string{"@", "a@", "@example.com", ""} {
		_, err = svc.CreateUser(ctx, &models.User{Name: "bob", Email: email})
		assert.ErrorIs(t, err, domain.ErrValidation, email)
	}

	_, err = svc.CreateUser(ctx, &models.User{Name: "dup", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = svc.CreateUser(ctx, &models.User{Name: "dup", Email: " Ann@Example.COM "})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	bob, err := svc.CreateUser(ctx, &models.User{Name: "bob", Email: "Bob@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", bob.Email)

	shouted := "ANN@example.com"
	_, err = svc.UpdateUser(ctx, bob.ID, models.UserPatch{Email: &shouted})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	name := "anna"
	updated, err := svc.UpdateUser(ctx, ann.ID, models.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "anna", updated.Name)
	assert.Equal(t, "ann@example.com", updated.Email)

	_, err = svc.UpdateUser(ctx, 999, models.UserPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, svc.DeleteUser(ctx, ann.ID))
	_, err = svc.GetUser(ctx, ann.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
