// controllers/user_controller.go 管理员的用户管理
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/models"

	"github.com/gin-gonic/gin"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=&page=&size=
func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	u, err := uc.Repo.FindUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

// PUT /api/users/:id 改角色 / 状态，写 user_edit 审计
func (uc *UserController) UpdateUser(c *gin.Context) {
	var in struct {
		Role   string `json:"role" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(in.Role) || !models.ValidStatus(in.Status) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid role or status"})
		return
	}

	ctx := c.Request.Context()
	u, err := uc.Repo.FindUserByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	u.Role = in.Role
	u.Status = in.Status

	_, adminName, _ := identity(c)
	if err := uc.Repo.UpdateUserAdmin(ctx, u, adminName); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	// 降到 deactivated 要把该用户的会话全部踢掉
	if u.Status == models.StatusDeactivated {
		_ = uc.AppSess.RevokeAllForUser(ctx, u.ID)
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/users/:id/deactivate
func (uc *UserController) Deactivate(c *gin.Context) {
	_, adminName, _ := identity(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := uc.Repo.DeactivateUser(ctx, id, adminName); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = uc.AppSess.RevokeAllForUser(ctx, id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /api/users/:id/activate
func (uc *UserController) Activate(c *gin.Context) {
	_, adminName, _ := identity(c)
	if err := uc.Repo.ActivateUser(c.Request.Context(), c.Param("id"), adminName); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
