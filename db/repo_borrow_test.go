package db

import (
	"context"
	"errors"
	"sync"
	"testing"

	"Gin_postgres_redis_inventory_app/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, r *Repo, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "x",
		Role:          role,
		Status:        models.StatusActive,
		EmailVerified: true,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedItem(t *testing.T, r *Repo, name string, qty int) *models.Item {
	t.Helper()
	it := &models.Item{
		ID:       uuid.NewString(),
		Code:     "C-" + name,
		Name:     name,
		Category: "Tools",
		Quantity: qty,
		AddedBy:  "admin",
	}
	require.NoError(t, r.CreateItem(context.Background(), it, "admin"))
	return it
}

func itemQty(t *testing.T, r *Repo, id string) int {
	t.Helper()
	it, err := r.FindItemByID(context.Background(), id)
	require.NoError(t, err)
	return it.Quantity
}

func reportCount(t *testing.T, r *Repo, typ string) int {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(&models.Report{}).Where("type = ?", typ).Count(&n).Error)
	return int(n)
}

func TestBorrowLifecycle(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "alice", models.RoleClient)
	it := seedItem(t, r, "Hammer", 10)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowPending, b.Status)
	assert.Equal(t, "Hammer", b.ItemName)
	assert.Equal(t, "Tools", b.ItemCategory)
	// 申请不占库存
	assert.Equal(t, 10, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrow))

	b, err = r.ApproveBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowApproved, b.Status)
	assert.Equal(t, 7, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowApproved))
	assert.True(t, b.CanRequestReturn())

	b, err = r.RequestReturn(ctx, b.ID, u.ID, u.Username)
	require.NoError(t, err)
	assert.True(t, b.ReturnRequested)
	assert.False(t, b.CanRequestReturn())
	assert.Equal(t, models.BorrowApproved, b.Status)
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowReturnRequest))

	b, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{
		models.ConditionGood:    2,
		models.ConditionDamaged: 1,
		models.ConditionLost:    0,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowReturned, b.Status)
	require.NotNil(t, b.ReturnedAt)
	assert.Equal(t, 2, b.ConditionsOnReturn[models.ConditionGood])
	// 只有 Good 回库：7 + 2 = 9
	assert.Equal(t, 9, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowReturned))
}

func TestRequestBorrowRejectsBadQuantity(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "bob", models.RoleClient)
	it := seedItem(t, r, "Ladder", 2)

	_, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = r.RequestBorrow(ctx, u.ID, u.Username, uuid.NewString(), 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	// 失败的申请不留借用单也不留审计
	assert.Equal(t, 0, reportCount(t, r, models.ReportBorrow))
}

func TestApproveBorrowGuards(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "carol", models.RoleClient)
	it := seedItem(t, r, "Drill", 10)

	b1, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 7)
	require.NoError(t, err)
	b2, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 6)
	require.NoError(t, err)

	_, err = r.ApproveBorrow(ctx, b1.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, itemQty(t, r, it.ID))

	// 剩 3 件，6 件的申请批不下来，库存不动
	_, err = r.ApproveBorrow(ctx, b2.ID, "admin")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, itemQty(t, r, it.ID))
	got, err := r.FindBorrowByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowPending, got.Status)

	// 二次审批
	_, err = r.ApproveBorrow(ctx, b1.ID, "admin")
	assert.ErrorIs(t, err, ErrBorrowNotPending)
	assert.Equal(t, 3, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowApproved))

	_, err = r.ApproveBorrow(ctx, uuid.NewString(), "admin")
	assert.ErrorIs(t, err, ErrBorrowNotFound)
}

func TestApproveBorrowConcurrentSingleWinner(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "kate", models.RoleClient)
	it := seedItem(t, r, "Generator", 5)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 3)
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ApproveBorrow(ctx, b.ID, "admin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// 条件 UPDATE 保证两个并发审批恰好一胜一败
	var ok, notPending int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrBorrowNotPending):
			notPending++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notPending)

	// 库存只扣一次，审计只记一条
	assert.Equal(t, 2, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowApproved))
}

func TestRejectBorrow(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "dave", models.RoleClient)
	it := seedItem(t, r, "Saw", 4)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 2)
	require.NoError(t, err)

	b, err = r.RejectBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowRejected, b.Status)
	assert.Equal(t, 4, itemQty(t, r, it.ID))
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowRejected))

	// 拒了就定死了
	_, err = r.ApproveBorrow(ctx, b.ID, "admin")
	assert.ErrorIs(t, err, ErrBorrowNotPending)
	_, err = r.RejectBorrow(ctx, b.ID, "admin")
	assert.ErrorIs(t, err, ErrBorrowNotPending)
}

func TestRequestReturnGuards(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	owner := seedUser(t, r, "erin", models.RoleClient)
	other := seedUser(t, r, "frank", models.RoleClient)
	it := seedItem(t, r, "Wrench", 5)

	b, err := r.RequestBorrow(ctx, owner.ID, owner.Username, it.ID, 1)
	require.NoError(t, err)

	// Pending 状态还不能申请归还
	_, err = r.RequestReturn(ctx, b.ID, owner.ID, owner.Username)
	assert.ErrorIs(t, err, ErrBorrowNotApproved)

	_, err = r.ApproveBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)

	_, err = r.RequestReturn(ctx, b.ID, other.ID, other.Username)
	assert.ErrorIs(t, err, ErrNotBorrowOwner)

	_, err = r.RequestReturn(ctx, b.ID, owner.ID, owner.Username)
	require.NoError(t, err)

	_, err = r.RequestReturn(ctx, b.ID, owner.ID, owner.Username)
	assert.ErrorIs(t, err, ErrReturnAlreadyRequested)
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowReturnRequest))
}

func TestApproveReturnStockAdjust(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "gina", models.RoleClient)
	it := seedItem(t, r, "Rope", 10)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 10)
	require.NoError(t, err)
	_, err = r.ApproveBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, itemQty(t, r, it.ID))

	// 全部丢失：delta = -10，库存 0 不会变负
	b, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{
		models.ConditionGood: 0,
		models.ConditionLost: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowReturned, b.Status)
	assert.Equal(t, 0, itemQty(t, r, it.ID))

	_, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{models.ConditionGood: 1})
	assert.ErrorIs(t, err, ErrBorrowAlreadyReturned)
	assert.Equal(t, 1, reportCount(t, r, models.ReportBorrowReturned))
}

func TestApproveReturnRejectsNegativeConditions(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "nate", models.RoleClient)
	it := seedItem(t, r, "Ladder", 8)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 5)
	require.NoError(t, err)
	_, err = r.ApproveBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, 3, itemQty(t, r, it.ID))

	// 负的 Good 相当于偷偷扣库存，必须整单拒掉
	_, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{models.ConditionGood: -5})
	assert.ErrorIs(t, err, ErrInvalidCondition)

	// 库存、状态、审计都不能动
	assert.Equal(t, 3, itemQty(t, r, it.ID))
	got, err := r.FindBorrowByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowApproved, got.Status)
	assert.Nil(t, got.ConditionsOnReturn)
	assert.Equal(t, 0, reportCount(t, r, models.ReportBorrowReturned))

	// 合法的照常走
	_, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{
		models.ConditionGood: 4,
		models.ConditionLost: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, itemQty(t, r, it.ID))
}

func TestApproveReturnAfterItemDeleted(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "hank", models.RoleClient)
	it := seedItem(t, r, "Tarp", 3)

	b, err := r.RequestBorrow(ctx, u.ID, u.Username, it.ID, 2)
	require.NoError(t, err)
	_, err = r.ApproveBorrow(ctx, b.ID, "admin")
	require.NoError(t, err)

	require.NoError(t, r.DeleteItem(ctx, it.ID, "admin"))

	// 物品没了借用单照样能完结，快照还在
	b, err = r.ApproveReturn(ctx, b.ID, "admin", map[string]int{models.ConditionGood: 2})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowReturned, b.Status)
	assert.Equal(t, "Tarp", b.ItemName)
}

func TestListBorrowsFilters(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u1 := seedUser(t, r, "ivy", models.RoleClient)
	u2 := seedUser(t, r, "jack", models.RoleClient)
	it := seedItem(t, r, "Cart", 20)

	b1, err := r.RequestBorrow(ctx, u1.ID, u1.Username, it.ID, 1)
	require.NoError(t, err)
	_, err = r.RequestBorrow(ctx, u2.ID, u2.Username, it.ID, 2)
	require.NoError(t, err)
	_, err = r.ApproveBorrow(ctx, b1.ID, "admin")
	require.NoError(t, err)
	_, err = r.RequestReturn(ctx, b1.ID, u1.ID, u1.Username)
	require.NoError(t, err)

	res, err := r.ListBorrows(ctx, BorrowsQuery{Status: models.BorrowPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	rr := true
	res, err = r.ListBorrows(ctx, BorrowsQuery{ReturnRequested: &rr})
	require.NoError(t, err)
	require.Len(t, res.Borrows, 1)
	assert.Equal(t, b1.ID, res.Borrows[0].ID)

	mine, err := r.ListBorrowsByUser(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, u2.ID, mine[0].UserID)
}
