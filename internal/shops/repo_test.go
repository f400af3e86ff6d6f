package shops

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zepzep/zepzep-backend/pkg/db/dbtest"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
)

func TestFindShop(t *testing.T) {
	client := dbtest.Open(t)
	shop := dbtest.SeedShop(t, client.DB(), "Mama's Kitchen")
	repo := NewRepository(client.DB())

	got, err := repo.FindShop(context.Background(), shop.ID)
	require.NoError(t, err)
	require.Equal(t, "Mama's Kitchen", got.BusinessName)
	require.Equal(t, "Mama's Kitchen", FromModel(got).BusinessName)

	_, err = repo.FindShop(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
