// db/repo_dashboard.go
//
// 仪表盘聚合查询，都支持可选的 月/年 过滤（不传就是全量）。
package db

import (
	"Gin_postgres_redis_inventory_app/models"
	"context"
	"time"

	"gorm.io/gorm"
)

// 按月过滤 requested_at；month/year 任一缺省即不过滤
func (r *Repo) borrowsInMonth(ctx context.Context, month, year *int) *gorm.DB {
	tx := r.DB.WithContext(ctx).Model(&models.Borrow{})
	if month == nil || year == nil {
		return tx
	}
	start := time.Date(*year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return tx.Where("requested_at >= ? AND requested_at < ?", start, end)
}

type nameTotal struct {
	Name  string
	Total int
}

// TopBorrowedItems 借用量前 N 的物品（按快照名聚合，物品删了也算历史）
func (r *Repo) TopBorrowedItems(ctx context.Context, month, year *int, limit int) (map[string]int, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []nameTotal
	err := r.borrowsInMonth(ctx, month, year).
		Select("item_name AS name, SUM(quantity) AS total").
		Group("item_name").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Total
	}
	return out, nil
}

// BorrowStatusTotals 各状态的借用单数量
func (r *Repo) BorrowStatusTotals(ctx context.Context, month, year *int) (map[string]int, error) {
	var rows []nameTotal
	err := r.borrowsInMonth(ctx, month, year).
		Select("status AS name, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Total
	}
	return out, nil
}

// ReturnRequestTotals 已请求归还的单子按状态分布
func (r *Repo) ReturnRequestTotals(ctx context.Context, month, year *int) (map[string]int, error) {
	var rows []nameTotal
	err := r.borrowsInMonth(ctx, month, year).
		Where("return_requested = ?", true).
		Select("status AS name, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Total
	}
	return out, nil
}

// ReturnConditionTotals 归还状况合计。状况存的是 JSON map，
// 在内存里累加比下推到 SQL 简单
func (r *Repo) ReturnConditionTotals(ctx context.Context, month, year *int) (map[string]int, error) {
	var bs []models.Borrow
	if err := r.borrowsInMonth(ctx, month, year).Find(&bs).Error; err != nil {
		return nil, err
	}
	totals := map[string]int{}
	for _, b := range bs {
		for k, v := range b.ConditionsOnReturn {
			totals[k] += v
		}
	}
	return totals, nil
}

// UserActivityTotals 借用次数前 N 的用户
func (r *Repo) UserActivityTotals(ctx context.Context, month, year *int, limit int) (map[string]int, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []nameTotal
	err := r.borrowsInMonth(ctx, month, year).
		Select("username AS name, COUNT(*) AS total").
		Group("username").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Total
	}
	return out, nil
}
