// db/repo_borrow.go
package db

import (
	"Gin_postgres_redis_inventory_app/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBorrowNotFound         = errors.New("borrow not found")
	ErrBorrowNotPending       = errors.New("borrow is not pending")
	ErrBorrowNotApproved      = errors.New("borrow is not approved")
	ErrBorrowAlreadyReturned  = errors.New("borrow already returned")
	ErrReturnAlreadyRequested = errors.New("return already requested")
	ErrNotBorrowOwner         = errors.New("borrow belongs to another user")
	ErrInsufficientStock      = errors.New("not enough stock")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrInvalidCondition       = errors.New("condition quantities must be non-negative")
)

// RequestBorrow 建 Pending 借用单并快照物品字段。
// 库存检查只是提示性的，不占库存；真正扣减在审批时做。
func (r *Repo) RequestBorrow(ctx context.Context, userID, username, itemID string, quantity int) (*models.Borrow, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	it, err := r.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if quantity > it.Quantity {
		return nil, ErrInsufficientStock
	}

	b := &models.Borrow{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		ItemID:       it.ID,
		ItemCode:     it.Code,
		ItemName:     it.Name,
		ItemCategory: it.Category,
		Quantity:     quantity,
		Status:       models.BorrowPending,
		RequestedAt:  time.Now().UTC(),
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		return createReportTx(tx, &models.Report{
			Type:        models.ReportBorrow,
			PerformedBy: username,
			TargetName:  it.Name,
			Details: fmt.Sprintf("User '%s' requested to borrow %d pcs of '%s' from category '%s'.",
				username, quantity, it.Name, it.Category),
		})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ApproveBorrow 审批：扣库存 + 置 Approved + 写审计，单事务。
// 两个条件 UPDATE 的 RowsAffected 保证并发审批最多成功一次，
// 且库存永远不会被扣成负数。
func (r *Repo) ApproveBorrow(ctx context.Context, borrowID, adminName string) (*models.Borrow, error) {
	var b models.Borrow
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}
		if b.Status != models.BorrowPending {
			return ErrBorrowNotPending
		}

		// 条件扣减：库存不足或物品已删则影响 0 行
		res := tx.Model(&models.Item{}).
			Where("id = ? AND quantity >= ?", b.ItemID, b.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", b.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Item{}).Where("id = ?", b.ItemID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrItemNotFound
			}
			return ErrInsufficientStock
		}

		// 状态翻转同样带条件，挡并发双审批
		res = tx.Model(&models.Borrow{}).
			Where("id = ? AND status = ?", b.ID, models.BorrowPending).
			Update("status", models.BorrowApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBorrowNotPending
		}
		b.Status = models.BorrowApproved

		return createReportTx(tx, &models.Report{
			Type:        models.ReportBorrowApproved,
			PerformedBy: adminName,
			TargetName:  b.ItemName,
			Details: fmt.Sprintf("Borrow request approved for %d pcs of '%s' by user '%s'",
				b.Quantity, b.ItemName, b.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// RejectBorrow 仅 Pending 可拒；不动库存（当时也没扣过）
func (r *Repo) RejectBorrow(ctx context.Context, borrowID, adminName string) (*models.Borrow, error) {
	var b models.Borrow
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}
		res := tx.Model(&models.Borrow{}).
			Where("id = ? AND status = ?", b.ID, models.BorrowPending).
			Update("status", models.BorrowRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBorrowNotPending
		}
		b.Status = models.BorrowRejected

		return createReportTx(tx, &models.Report{
			Type:        models.ReportBorrowRejected,
			PerformedBy: adminName,
			TargetName:  b.ItemName,
			Details: fmt.Sprintf("Borrow request rejected for %d pcs of '%s' by user '%s'",
				b.Quantity, b.ItemName, b.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// RequestReturn 只置位 ReturnRequested，状态不变。
// 各失败原因要能区分，前端提示不同文案。
func (r *Repo) RequestReturn(ctx context.Context, borrowID, userID, username string) (*models.Borrow, error) {
	var b models.Borrow
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}
		if b.UserID != userID {
			return ErrNotBorrowOwner
		}
		if b.Status != models.BorrowApproved {
			return ErrBorrowNotApproved
		}
		if b.ReturnRequested {
			return ErrReturnAlreadyRequested
		}

		res := tx.Model(&models.Borrow{}).
			Where("id = ? AND status = ? AND return_requested = ?", b.ID, models.BorrowApproved, false).
			Update("return_requested", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReturnAlreadyRequested
		}
		b.ReturnRequested = true

		return createReportTx(tx, &models.Report{
			Type:        models.ReportBorrowReturnRequest,
			PerformedBy: username,
			TargetName:  b.ItemName,
			Details:     fmt.Sprintf("Return requested for %d pcs of '%s'", b.Quantity, b.ItemName),
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ApproveReturn 置 Returned、原样保存状况数量、调库存 +Good-Lost。
// 状况数量不跟借出数量对账（管理员登记实际收到的东西），
// 但每项必须非负：负的 Good 等于偷偷扣库存。
// 物品在借出后被删掉时跳过库存调整，借用单照样完结。
func (r *Repo) ApproveReturn(ctx context.Context, borrowID, adminName string, conditions map[string]int) (*models.Borrow, error) {
	for _, n := range conditions {
		if n < 0 {
			return nil, ErrInvalidCondition
		}
	}

	var b models.Borrow
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}
		if b.Status == models.BorrowReturned {
			return ErrBorrowAlreadyReturned
		}

		now := time.Now().UTC()
		b.Status = models.BorrowReturned
		b.ConditionsOnReturn = conditions
		b.ReturnedAt = &now
		res := tx.Model(&models.Borrow{}).
			Where("id = ? AND status <> ?", b.ID, models.BorrowReturned).
			Select("status", "conditions_on_return", "returned_at").
			Updates(&b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBorrowAlreadyReturned
		}

		good := conditions[models.ConditionGood]
		damaged := conditions[models.ConditionDamaged]
		lost := conditions[models.ConditionLost]

		delta := good - lost // Damaged 记账但不增不减可用库存
		if delta != 0 {
			res := tx.Model(&models.Item{}).
				Where("id = ? AND quantity + ? >= 0", b.ItemID, delta).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 && delta < 0 {
				// 丢失数超过剩余库存时清零，不让库存变负
				if err := tx.Model(&models.Item{}).
					Where("id = ?", b.ItemID).
					UpdateColumn("quantity", 0).Error; err != nil {
					return err
				}
			}
			// 物品不存在时两次 UPDATE 都是 0 行，直接跳过
		}

		return createReportTx(tx, &models.Report{
			Type:        models.ReportBorrowReturned,
			PerformedBy: adminName,
			TargetName:  b.ItemName,
			Details: fmt.Sprintf("Approve the return of '%s'. %d good, %d damaged, %d lost. From user '%s'.",
				b.ItemName, good, damaged, lost, b.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) FindBorrowByID(ctx context.Context, id string) (*models.Borrow, error) {
	var b models.Borrow
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) ListBorrowsByUser(ctx context.Context, userID string) ([]models.Borrow, error) {
	var bs []models.Borrow
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&bs).Error
	return bs, err
}

type BorrowsQuery struct {
	Status          string
	UserID          string
	ItemID          string
	ReturnRequested *bool
	Page            int
	Size            int
}

type PagedBorrows struct {
	Total   int64           `json:"total"`
	Borrows []models.Borrow `json:"borrows"`
}

func (r *Repo) ListBorrows(ctx context.Context, q BorrowsQuery) (*PagedBorrows, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Borrow{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.ItemID != "" {
		tx = tx.Where("item_id = ?", q.ItemID)
	}
	if q.ReturnRequested != nil {
		tx = tx.Where("return_requested = ?", *q.ReturnRequested)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var bs []models.Borrow
	if err := tx.Order("requested_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&bs).Error; err != nil {
		return nil, err
	}
	return &PagedBorrows{Total: total, Borrows: bs}, nil
}
