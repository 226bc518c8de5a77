package service

import (
	"context"
	"errors"
	"presence-tracker/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterService_RegisterAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.employee(t, "E1", "Diop", "Awa", "Finance")
	f.employee(t, "E2", "Fall", "Fatou", "IT")

	_, err := f.roster.Register(ctx, RegisterRequest{Matricule: "E1", Nom: "X", Prenom: "Y", Departement: "IT"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = f.roster.Register(ctx, RegisterRequest{Matricule: "E3", Nom: "X"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	all, err := f.roster.List(ctx, models.DepartmentAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	it, err := f.roster.List(ctx, "it")
	require.NoError(t, err)
	require.Len(t, it, 1)
	assert.Equal(t, "E2", it[0].Matricule)

	_, err = f.roster.GetByMatricule(ctx, "E404")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestRosterService_LinkAndIdentify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.employee(t, "E1", "Diop", "Awa", "Finance")
	f.employee(t, "E2", "Fall", "Fatou", "IT")

	_, err := f.roster.Identify(ctx, 42)
	var rejection *models.IdentityRejection
	require.True(t, errors.As(err, &rejection))

	linked, err := f.roster.LinkChat(ctx, "E1", 42)
	require.NoError(t, err)
	require.NotNil(t, linked.ChatID)
	assert.Equal(t, int64(42), *linked.ChatID)

	identity, err := f.roster.Identify(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{EmployeeID: "E1", FullName: "Awa Diop", Department: "Finance"}, *identity)

	_, err = f.roster.LinkChat(ctx, "E2", 42)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = f.roster.LinkChat(ctx, "E404", 43)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	employee, err := f.roster.GetByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "E1", employee.Matricule)
}
