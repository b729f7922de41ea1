// controllers/item_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

// POST /api/items （管理员）
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in struct {
		Code        string `json:"code" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Category    string `json:"category" binding:"required"`
		Description string `json:"description"`
		Quantity    int    `json:"quantity" binding:"min=0"`
		ImagePath   string `json:"imagePath"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	_, username, _ := identity(c)
	it := &models.Item{
		ID:          uuid.NewString(),
		Code:        in.Code,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Quantity:    in.Quantity,
		AddedBy:     username,
		ImagePath:   in.ImagePath,
	}
	if err := ic.Repo.CreateItem(c.Request.Context(), it, username); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, it)
}

// GET /api/items/:id
func (ic *ItemController) GetItem(c *gin.Context) {
	it, err := ic.Repo.FindItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, it)
}

// GET /api/items?q=&category=&page=&size=
func (ic *ItemController) ListItems(c *gin.Context) {
	q := db.ItemsQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := ic.Repo.ListItems(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "items": res.Items})
}

// GET /api/items/categories
func (ic *ItemController) Categories(c *gin.Context) {
	categories, err := ic.Repo.DistinctItemCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": categories})
}

// PUT /api/items/:id 整行替换（管理员）
func (ic *ItemController) UpdateItem(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		Code        string `json:"code" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Category    string `json:"category" binding:"required"`
		Description string `json:"description"`
		Quantity    int    `json:"quantity" binding:"min=0"`
		ImagePath   string `json:"imagePath"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	it, err := ic.Repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	it.Code = in.Code
	it.Name = in.Name
	it.Category = in.Category
	it.Description = in.Description
	it.Quantity = in.Quantity
	it.ImagePath = in.ImagePath

	_, username, _ := identity(c)
	if err := ic.Repo.UpdateItem(ctx, it, username); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/items/:id （管理员）。
// 有未归还借用也允许删：借用单上有快照，审计照样可查
func (ic *ItemController) DeleteItem(c *gin.Context) {
	_, username, _ := identity(c)
	err := ic.Repo.DeleteItem(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		if errors.Is(err, db.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
