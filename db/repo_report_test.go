package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_inventory_app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReportValidation(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	err := r.CreateReport(ctx, &models.Report{
		Type:        "made_up_type",
		PerformedBy: "admin",
		Details:     "x",
	})
	assert.Error(t, err)

	rep := &models.Report{
		Type:        models.ReportUserLogin,
		PerformedBy: "alice",
		Details:     "User 'alice' logged in.",
	}
	require.NoError(t, r.CreateReport(ctx, rep))
	assert.NotEmpty(t, rep.ID)
	assert.False(t, rep.Timestamp.IsZero())
}

func TestListReportsFilters(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	for _, typ := range []string{
		models.ReportUserLogin,
		models.ReportUserLogin,
		models.ReportItemAdd,
	} {
		require.NoError(t, r.CreateReport(ctx, &models.Report{
			Type: typ, PerformedBy: "alice", Details: "x",
		}))
	}
	require.NoError(t, r.CreateReport(ctx, &models.Report{
		Type: models.ReportUserLogin, PerformedBy: "bob", Details: "x",
	}))

	got, err := r.ListReports(ctx, ReportsQuery{Type: models.ReportUserLogin})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = r.ListReports(ctx, ReportsQuery{PerformedBy: "bob"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	future := time.Now().UTC().Add(time.Hour)
	got, err = r.ListReports(ctx, ReportsQuery{Start: &future})
	require.NoError(t, err)
	assert.Empty(t, got)

	types, err := r.DistinctReportTypes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.ReportUserLogin, models.ReportItemAdd}, types)
}

func TestDashboardAggregations(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	alice := seedUser(t, r, "alice", models.RoleClient)
	bob := seedUser(t, r, "bob", models.RoleClient)
	hammer := seedItem(t, r, "Hammer", 20)
	saw := seedItem(t, r, "Saw", 20)

	// alice：2 把锤子借出又还回（1 好 1 丢）
	b1, err := r.RequestBorrow(ctx, alice.ID, alice.Username, hammer.ID, 2)
	require.NoError(t, err)
	_, err = r.ApproveBorrow(ctx, b1.ID, "admin")
	require.NoError(t, err)
	_, err = r.RequestReturn(ctx, b1.ID, alice.ID, alice.Username)
	require.NoError(t, err)
	_, err = r.ApproveReturn(ctx, b1.ID, "admin", map[string]int{
		models.ConditionGood: 1,
		models.ConditionLost: 1,
	})
	require.NoError(t, err)

	// alice：3 把锯子被拒
	b2, err := r.RequestBorrow(ctx, alice.ID, alice.Username, saw.ID, 3)
	require.NoError(t, err)
	_, err = r.RejectBorrow(ctx, b2.ID, "admin")
	require.NoError(t, err)

	// bob：5 把锤子待审
	_, err = r.RequestBorrow(ctx, bob.ID, bob.Username, hammer.ID, 5)
	require.NoError(t, err)

	top, err := r.TopBorrowedItems(ctx, nil, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Hammer": 7, "Saw": 3}, top)

	status, err := r.BorrowStatusTotals(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.BorrowReturned: 1,
		models.BorrowRejected: 1,
		models.BorrowPending:  1,
	}, status)

	conds, err := r.ReturnConditionTotals(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.ConditionGood: 1,
		models.ConditionLost: 1,
	}, conds)

	activity, err := r.UserActivityTotals(ctx, nil, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, activity)

	rrTotals, err := r.ReturnRequestTotals(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.BorrowReturned: 1}, rrTotals)

	// 上个月没有任何借用
	now := time.Now().UTC()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	m, y := int(prev.Month()), prev.Year()
	top, err = r.TopBorrowedItems(ctx, &m, &y, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
