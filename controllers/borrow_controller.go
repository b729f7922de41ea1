// controllers/borrow_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/models"
	"Gin_postgres_redis_inventory_app/util"

	"github.com/gin-gonic/gin"
)

type BorrowController struct{ *Srv }

func NewBorrowController(s *Srv) *BorrowController { return &BorrowController{Srv: s} }

// 把仓库层的哨兵错误翻译成 HTTP 状态码
func borrowErrStatus(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrBorrowNotFound):
		return http.StatusNotFound, "borrow not found"
	case errors.Is(err, db.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, db.ErrInsufficientStock):
		return http.StatusConflict, "insufficient stock"
	case errors.Is(err, db.ErrBorrowNotPending):
		return http.StatusConflict, "borrow is not pending"
	case errors.Is(err, db.ErrBorrowNotApproved):
		return http.StatusConflict, "borrow is not approved"
	case errors.Is(err, db.ErrReturnAlreadyRequested):
		return http.StatusConflict, "return already requested"
	case errors.Is(err, db.ErrBorrowAlreadyReturned):
		return http.StatusConflict, "borrow already returned"
	case errors.Is(err, db.ErrNotBorrowOwner):
		return http.StatusForbidden, "not your borrow"
	case errors.Is(err, db.ErrInvalidQuantity):
		return http.StatusBadRequest, "quantity must be at least 1"
	case errors.Is(err, db.ErrInvalidCondition):
		return http.StatusBadRequest, "condition quantities must be non-negative"
	}
	return http.StatusInternalServerError, err.Error()
}

// POST /api/borrows （client）
func (bc *BorrowController) RequestBorrow(c *gin.Context) {
	var in struct {
		ItemID   string `json:"itemId" binding:"required"`
		Quantity int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	userID, username, _ := identity(c)
	b, err := bc.Repo.RequestBorrow(c.Request.Context(), userID, username, in.ItemID, in.Quantity)
	if err != nil {
		code, msg := borrowErrStatus(err)
		if code >= 500 {
			util.BorrowsFailedTotal.WithLabelValues("internal").Inc()
		} else {
			util.BorrowsFailedTotal.WithLabelValues(msg).Inc()
		}
		c.JSON(code, app.H{"error": msg})
		return
	}
	util.BorrowsRequestedTotal.Inc()
	c.JSON(http.StatusCreated, b)
}

// GET /api/borrows/mine
func (bc *BorrowController) ListMine(c *gin.Context) {
	userID, _, _ := identity(c)
	list, err := bc.Repo.ListBorrowsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"borrows": list})
}

// GET /api/borrows?status=&userId=&page=&size= （管理员）
func (bc *BorrowController) ListAll(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.ValidBorrowStatus(status) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid status"})
		return
	}
	q := db.BorrowsQuery{
		Status: status,
		UserID: c.Query("userId"),
		ItemID: c.Query("itemId"),
	}
	if v := c.Query("returnRequested"); v != "" {
		rr := v == "true"
		q.ReturnRequested = &rr
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := bc.Repo.ListBorrows(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "borrows": res.Borrows})
}

// GET /api/borrows/:id
// 管理员看任意一条，client 只能看自己的
func (bc *BorrowController) GetBorrow(c *gin.Context) {
	b, err := bc.Repo.FindBorrowByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		code, msg := borrowErrStatus(err)
		c.JSON(code, app.H{"error": msg})
		return
	}
	userID, _, role := identity(c)
	if role != models.RoleAdmin && b.UserID != userID {
		c.JSON(http.StatusForbidden, app.H{"error": "not your borrow"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/borrows/:id/approve （管理员）
func (bc *BorrowController) Approve(c *gin.Context) {
	_, username, _ := identity(c)
	b, err := bc.Repo.ApproveBorrow(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		code, msg := borrowErrStatus(err)
		if errors.Is(err, db.ErrInsufficientStock) {
			util.BorrowsFailedTotal.WithLabelValues("insufficient stock").Inc()
		}
		c.JSON(code, app.H{"error": msg})
		return
	}
	util.BorrowsApprovedTotal.Inc()
	c.JSON(http.StatusOK, b)
}

// POST /api/borrows/:id/reject （管理员）
func (bc *BorrowController) Reject(c *gin.Context) {
	_, username, _ := identity(c)
	b, err := bc.Repo.RejectBorrow(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		code, msg := borrowErrStatus(err)
		c.JSON(code, app.H{"error": msg})
		return
	}
	util.BorrowsRejectedTotal.Inc()
	c.JSON(http.StatusOK, b)
}

// POST /api/borrows/:id/return-request （client，限本人）
func (bc *BorrowController) RequestReturn(c *gin.Context) {
	userID, username, _ := identity(c)
	b, err := bc.Repo.RequestReturn(c.Request.Context(), c.Param("id"), userID, username)
	if err != nil {
		code, msg := borrowErrStatus(err)
		c.JSON(code, app.H{"error": msg})
		return
	}
	util.ReturnsRequestedTotal.Inc()
	c.JSON(http.StatusOK, b)
}

// POST /api/borrows/:id/return-approve （管理员）
// body: {"conditions": {"Good": 2, "Damaged": 1, "Lost": 0}}
func (bc *BorrowController) ApproveReturn(c *gin.Context) {
	var in struct {
		Conditions map[string]int `json:"conditions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	_, username, _ := identity(c)
	b, err := bc.Repo.ApproveReturn(c.Request.Context(), c.Param("id"), username, in.Conditions)
	if err != nil {
		code, msg := borrowErrStatus(err)
		c.JSON(code, app.H{"error": msg})
		return
	}
	util.ReturnsApprovedTotal.Inc()
	c.JSON(http.StatusOK, b)
}
