package app

import (
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/models"
	"Gin_postgres_redis_inventory_app/session"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AppSessionCookie = "app_session"
	RememberCookie   = "rememberme"
)

// AuthRequired 鉴权顺序（先命中先生效）：
//  1. 没有任何身份 -> 401，带上原始 path+query 给前端做登录跳回
//  2. 用户已停用/已删除 -> 清会话清 cookie，401（停用给单独的 reason）
//  3. 身份有效 -> userID/username/role 放进请求上下文
//
// 会话缺失但带着 rememberme cookie 时先尝试恢复会话；
// token 查不到不报错，落回“未登录”。
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var as *session.AppSession

		if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
			as, _ = appSess.Get(c.Request.Context(), ck.Value)
		}

		if as == nil {
			as = restoreFromRememberMe(c, appSess, repo, cfg)
		}

		if as == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{
				"error":    "unauthorized",
				"returnTo": c.Request.URL.RequestURI(),
			})
			return
		}

		// 每个请求都确认用户仍存在且未被停用
		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil || u.Status == models.StatusDeactivated {
			clearIdentity(c, appSess, cfg)
			if err == nil {
				// 停用账号把库里的 remember-me token 一并清掉，
				// 不然每次带 cookie 来都会先铸出一个马上作废的会话
				_ = repo.SetSessionToken(c.Request.Context(), u.ID, nil)
				c.AbortWithStatusJSON(http.StatusUnauthorized, H{
					"error":  "unauthorized",
					"reason": "account deactivated",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("role", u.Role)
		c.Next()
	}
}

func restoreFromRememberMe(c *gin.Context, appSess *session.AppSessionStore, repo *db.Repo, cfg Config) *session.AppSession {
	ck, err := c.Request.Cookie(RememberCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	u, err := repo.FindUserBySessionToken(c.Request.Context(), ck.Value)
	if err != nil {
		return nil // 静默落空
	}

	sid := uuid.NewString()
	if err := appSess.Create(c.Request.Context(), sid, u.ID, u.Username, u.Role); err != nil {
		return nil
	}
	SetSessionCookie(c.Writer, cfg, sid)
	return &session.AppSession{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func clearIdentity(c *gin.Context, appSess *session.AppSessionStore, cfg Config) {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		_ = appSess.Delete(c.Request.Context(), ck.Value)
	}
	ClearSessionCookie(c.Writer, cfg)
	ClearRememberCookie(c.Writer, cfg)
}

// AdminOnly 角色不符给 403，跟“未登录”的 401 区分开
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("role")
		if role, _ := v.(string); role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// ClientOnly 客户端页面管理员也可以看（跟原来的路径规则一致）
func ClientOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("role")
		role, _ := v.(string)
		if role != models.RoleClient && role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

func secureCookies(cfg Config) bool {
	return strings.HasPrefix(cfg.WebOrigin, "https://")
}

func SetSessionCookie(w http.ResponseWriter, cfg Config, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AppSessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secureCookies(cfg),
		MaxAge:   int(cfg.SessionTTL.Seconds()),
	})
}

func ClearSessionCookie(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secureCookies(cfg),
	})
}

func SetRememberCookie(w http.ResponseWriter, cfg Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secureCookies(cfg),
		MaxAge:   int(cfg.RememberTTL.Seconds()),
	})
}

func ClearRememberCookie(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secureCookies(cfg),
	})
}
