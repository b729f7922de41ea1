// db/repo_items.go
package db

import (
	"Gin_postgres_redis_inventory_app/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("item not found")

func (r *Repo) CreateItem(ctx context.Context, it *models.Item, performedBy string) error {
	if err := r.DB.WithContext(ctx).Create(it).Error; err != nil {
		return err
	}
	if performedBy != "" {
		_ = r.CreateReport(ctx, &models.Report{
			Type:        models.ReportItemAdd,
			PerformedBy: performedBy,
			TargetName:  it.Name,
			Details: fmt.Sprintf("Added new item '%s' in category '%s' with quantity %d.",
				it.Name, it.Category, it.Quantity),
		})
	}
	return nil
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

type ItemsQuery struct {
	Q        string // 模糊搜索：code/name
	Category string // 精确匹配
	Page     int
	Size     int
}

type PagedItems struct {
	Total int64         `json:"total"`
	Items []models.Item `json:"items"`
}

func (r *Repo) ListItems(ctx context.Context, q ItemsQuery) (*PagedItems, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Item{})
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pat, pat)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Item
	if err := tx.Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return &PagedItems{Total: total, Items: items}, nil
}

// UpdateItem 整行替换；审计记录新旧数量/分类
func (r *Repo) UpdateItem(ctx context.Context, it *models.Item, performedBy string) error {
	old, err := r.FindItemByID(ctx, it.ID)
	if err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Save(it).Error; err != nil {
		return err
	}
	if performedBy != "" {
		_ = r.CreateReport(ctx, &models.Report{
			Type:        models.ReportItemEdit,
			PerformedBy: performedBy,
			TargetName:  it.Name,
			Details: fmt.Sprintf("Item '%s' updated from quantity %d (category %s) to quantity %d (category %s).",
				it.Name, old.Quantity, old.Category, it.Quantity, it.Category),
			OldValue: fmt.Sprintf("quantity=%d category=%s", old.Quantity, old.Category),
			NewValue: fmt.Sprintf("quantity=%d category=%s", it.Quantity, it.Category),
		})
	}
	return nil
}

// DeleteItem 允许删除仍有未归还借用的物品：Borrow 上有快照，历史不受影响
func (r *Repo) DeleteItem(ctx context.Context, id, performedBy string) error {
	it, err := r.FindItemByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error; err != nil {
		return err
	}
	if performedBy != "" {
		_ = r.CreateReport(ctx, &models.Report{
			Type:        models.ReportItemDelete,
			PerformedBy: performedBy,
			TargetName:  it.Name,
			Details:     fmt.Sprintf("Item '%s' in category '%s' was deleted.", it.Name, it.Category),
		})
	}
	return nil
}

// DistinctItemCategories 目录筛选下拉用
func (r *Repo) DistinctItemCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.DB.WithContext(ctx).Model(&models.Item{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// LowStockItems 库存预警：数量 <= threshold 的物品
func (r *Repo) LowStockItems(ctx context.Context, threshold int) (map[string]int, error) {
	var items []models.Item
	if err := r.DB.WithContext(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Name] = it.Quantity
	}
	return out, nil
}
