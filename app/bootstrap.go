// app/bootstrap.go
package app

import (
	"context"
	"errors"
	"log"

	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/models"
)

// BootstrapFirstAdmin 把 BOOTSTRAP_ADMIN_EMAIL 对应的账号提成管理员。
// 账号还没注册就只打一行提示，等注册后下次启动再提。
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapAdminEmail == "" {
		return
	}

	u, err := repo.FindUserByEmail(ctx, cfg.BootstrapAdminEmail)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			log.Printf("[BOOTSTRAP] admin account %s not registered yet, register it via %s/auth/register",
				cfg.BootstrapAdminEmail, cfg.WebOrigin)
			return
		}
		log.Printf("bootstrap admin lookup failed: %v", err)
		return
	}
	if u.Role == models.RoleAdmin {
		return
	}

	u.Role = models.RoleAdmin
	u.Status = models.StatusActive
	u.EmailVerified = true
	if err := repo.UpdateUserAdmin(ctx, u, "bootstrap"); err != nil {
		log.Printf("bootstrap admin promote failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] promoted %s to admin", cfg.BootstrapAdminEmail)
}
