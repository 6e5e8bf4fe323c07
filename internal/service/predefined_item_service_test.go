package service_test

import (
	"context"
	"testing"

	"gstbilling/internal/dto"
	"gstbilling/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedItems_DefaultsAndCRUD(t *testing.T) {
	svc := service.NewPredefinedItemService(newStubItemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.PredefinedItemRequest{Name: "Sand", HSN: "2505", DefaultRate: dec("40")})
	require.NoError(t, err)
	assert.Equal(t, "9", created.CGSTPercent.String())
	assert.Equal(t, "9", created.SGSTPercent.String())

	six := dec("6")
	id := uuid.MustParse(created.ID)
	updated, err := svc.Update(ctx, id, dto.PredefinedItemRequest{Name: "Sand (fine)", DefaultRate: dec("45"), CGSTPercent: &six, SGSTPercent: &six})
	require.NoError(t, err)
	assert.Equal(t, "Sand (fine)", updated.Name)
	assert.Equal(t, "6", updated.SGSTPercent.String())

	tpl, err := svc.Template(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "45", tpl.DefaultRate.String())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), service.ErrPredefinedItemNotFound)
	_, err = svc.Update(ctx, id, dto.PredefinedItemRequest{Name: "x"})
	assert.ErrorIs(t, err, service.ErrPredefinedItemNotFound)
}
