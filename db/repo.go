package db

import (
	"Gin_postgres_redis_inventory_app/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

var ErrUserNotFound = errors.New("user not found")

// Users

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindUserByLogin 输入带 @ 按邮箱查，否则按用户名查
func (r *Repo) FindUserByLogin(ctx context.Context, input string) (*models.User, error) {
	if strings.Contains(input, "@") {
		return r.FindUserByEmail(ctx, input)
	}
	return r.FindUserByUsername(ctx, input)
}

// FindUserBySessionToken remember-me 恢复会话用；查不到不是错误
func (r *Repo) FindUserBySessionToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Where("session_token = ?", token).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) SaveUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

// UpdateUserAdmin 管理员改角色/状态，记 user_edit 审计
func (r *Repo) UpdateUserAdmin(ctx context.Context, u *models.User, performedBy string) error {
	old, err := r.FindUserByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if u.Status == models.StatusDeactivated {
		u.SessionToken = nil // 停用同时吊销 remember-me
	}
	if err := r.DB.WithContext(ctx).Save(u).Error; err != nil {
		return err
	}
	if performedBy != "" {
		_ = r.CreateReport(ctx, &models.Report{
			Type:        models.ReportUserEdit,
			PerformedBy: performedBy,
			TargetName:  u.Username,
			Details: fmt.Sprintf("User '%s' updated from Role '%s' / Status '%s' to Role '%s' / Status '%s'.",
				u.Username, old.Role, old.Status, u.Role, u.Status),
			OldValue: fmt.Sprintf("role=%s status=%s", old.Role, old.Status),
			NewValue: fmt.Sprintf("role=%s status=%s", u.Role, u.Status),
		})
	}
	return nil
}

func (r *Repo) DeactivateUser(ctx context.Context, userID, performedBy string) error {
	u, err := r.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"status":        models.StatusDeactivated,
		"session_token": nil, // 顺带吊销 remember-me
	}
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}
	_ = r.CreateReport(ctx, &models.Report{
		Type:        models.ReportUserDeactivate,
		PerformedBy: performedBy,
		TargetName:  u.Username,
		Details:     fmt.Sprintf("User '%s' was deactivated.", u.Username),
	})
	return nil
}

func (r *Repo) ActivateUser(ctx context.Context, userID, performedBy string) error {
	u, err := r.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("status", models.StatusActive).Error; err != nil {
		return err
	}
	_ = r.CreateReport(ctx, &models.Report{
		Type:        models.ReportUserActivate,
		PerformedBy: performedBy,
		TargetName:  u.Username,
		Details:     fmt.Sprintf("User '%s' was activated.", u.Username),
	})
	return nil
}

func (r *Repo) SetSessionToken(ctx context.Context, userID string, token *string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("session_token", token).Error
}

func (r *Repo) TouchUserLogin(ctx context.Context, userID, ip, ua string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
			"last_login_ua": ua,
		}).Error
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("last_seen_at", time.Now().UTC()).Error
}

// 列表（分页 + 关键词，匹配用户名/邮箱）
type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListUsersResult{}, err
	}

	var users []models.User
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Users: users, Total: total}, nil
}
