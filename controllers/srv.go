// controllers/srv.go
package controllers

import (
	"context"
	"net/http"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/mail"
	"Gin_postgres_redis_inventory_app/models"
	"Gin_postgres_redis_inventory_app/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Mailer  mail.Sender
	Cfg     app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    db.NewRepo(a.DB),
		AppSess: a.AppSessions(),
		Mailer:  a.Mailer,
		Cfg:     a.Config,
	}
}

// --- helpers ---

// 登录成功：创建会话 + 发 cookie + 触发登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, u *models.User, ip, ua string) error {
	_ = s.Repo.TouchUserLogin(ctx, u.ID, ip, ua) // 不阻塞

	sid := uuid.NewString()
	if err := s.AppSess.Create(ctx, sid, u.ID, u.Username, u.Role); err != nil {
		return err
	}
	app.SetSessionCookie(w, s.Cfg, sid)
	return nil
}

// identity 从 AuthRequired 注入的上下文取当前用户
func identity(c *gin.Context) (userID, username, role string) {
	if v, ok := c.Get("userID"); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get("username"); ok {
		username, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		role, _ = v.(string)
	}
	return
}
