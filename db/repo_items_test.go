package db

import (
	"context"
	"testing"

	"Gin_postgres_redis_inventory_app/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCRUDWithAudit(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	it := &models.Item{
		ID:       uuid.NewString(),
		Code:     "HM-001",
		Name:     "Hammer",
		Category: "Tools",
		Quantity: 5,
		AddedBy:  "admin",
	}
	require.NoError(t, r.CreateItem(ctx, it, "admin"))
	assert.Equal(t, 1, reportCount(t, r, models.ReportItemAdd))

	got, err := r.FindItemByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "HM-001", got.Code)

	got.Name = "Claw Hammer"
	got.Quantity = 8
	require.NoError(t, r.UpdateItem(ctx, got, "admin"))
	assert.Equal(t, 1, reportCount(t, r, models.ReportItemEdit))

	// old/new 值进审计，界面上能看差异
	reps, err := r.ListReports(ctx, ReportsQuery{Type: models.ReportItemEdit})
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Contains(t, reps[0].OldValue, "quantity=5")
	assert.Contains(t, reps[0].NewValue, "quantity=8")

	require.NoError(t, r.DeleteItem(ctx, it.ID, "admin"))
	assert.Equal(t, 1, reportCount(t, r, models.ReportItemDelete))

	_, err = r.FindItemByID(ctx, it.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	err = r.DeleteItem(ctx, it.ID, "admin")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItemsFilters(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	seedItem(t, r, "Hammer", 5)
	seedItem(t, r, "Hand Saw", 2)
	drill := &models.Item{
		ID: uuid.NewString(), Code: "EL-001", Name: "Drill",
		Category: "Electric", Quantity: 1, AddedBy: "admin",
	}
	require.NoError(t, r.CreateItem(ctx, drill, "admin"))

	res, err := r.ListItems(ctx, ItemsQuery{Q: "ha"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = r.ListItems(ctx, ItemsQuery{Category: "Electric"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Drill", res.Items[0].Name)

	res, err = r.ListItems(ctx, ItemsQuery{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.Len(t, res.Items, 2)

	categories, err := r.DistinctItemCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electric", "Tools"}, categories)
}

func TestLowStockItems(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	seedItem(t, r, "Hammer", 10)
	seedItem(t, r, "Tape", 2)
	seedItem(t, r, "Glue", 0)

	low, err := r.LowStockItems(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Tape": 2, "Glue": 0}, low)
}
