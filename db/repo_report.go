// db/repo_report.go
package db

import (
	"Gin_postgres_redis_inventory_app/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 审计日志只有追加和查询，没有改写/删除

func createReportTx(tx *gorm.DB, rep *models.Report) error {
	if !models.ValidReportType(rep.Type) {
		return fmt.Errorf("invalid report type %q", rep.Type)
	}
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.Timestamp.IsZero() {
		rep.Timestamp = time.Now().UTC()
	}
	return tx.Create(rep).Error
}

func (r *Repo) CreateReport(ctx context.Context, rep *models.Report) error {
	return createReportTx(r.DB.WithContext(ctx), rep)
}

type ReportsQuery struct {
	Type        string
	PerformedBy string
	Start       *time.Time
	End         *time.Time
	Skip        int
	Limit       int
}

// ListReports 最近的在前
func (r *Repo) ListReports(ctx context.Context, q ReportsQuery) ([]models.Report, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	tx := r.DB.WithContext(ctx).Model(&models.Report{})
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.PerformedBy != "" {
		tx = tx.Where("performed_by = ?", q.PerformedBy)
	}
	if q.Start != nil {
		tx = tx.Where("timestamp >= ?", *q.Start)
	}
	if q.End != nil {
		tx = tx.Where("timestamp <= ?", *q.End)
	}

	var reps []models.Report
	if err := tx.Order("timestamp DESC").
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}

func (r *Repo) DistinctReportTypes(ctx context.Context) ([]string, error) {
	var types []string
	if err := r.DB.WithContext(ctx).Model(&models.Report{}).
		Distinct("type").
		Order("type ASC").
		Pluck("type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
