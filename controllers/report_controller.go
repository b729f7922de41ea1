// controllers/report_controller.go 审计日志查询 + 仪表盘聚合
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/db"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// GET /api/reports?type=&performedBy=&start=&end=&skip=&limit=
func (rc *ReportController) ListReports(c *gin.Context) {
	q := db.ReportsQuery{
		Type:        c.Query("type"),
		PerformedBy: c.Query("performedBy"),
	}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "start must be RFC3339"})
			return
		}
		q.Start = &t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "end must be RFC3339"})
			return
		}
		q.End = &t
	}
	q.Skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	reports, err := rc.Repo.ListReports(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"reports": reports})
}

// GET /api/reports/types
func (rc *ReportController) Types(c *gin.Context) {
	types, err := rc.Repo.DistinctReportTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"types": types})
}

// month=1..12 year=2026，都缺省就是全量
func monthYear(c *gin.Context) (*int, *int, bool) {
	var month, year *int
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, app.H{"error": "month must be 1-12"})
			return nil, nil, false
		}
		month = &m
	}
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "bad year"})
			return nil, nil, false
		}
		year = &y
	}
	if month != nil && year == nil {
		y := time.Now().UTC().Year()
		year = &y
	}
	return month, year, true
}

// GET /api/dashboard/top-borrowed?month=&year=&limit=
func (rc *ReportController) TopBorrowed(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := rc.Repo.TopBorrowedItems(c.Request.Context(), month, year, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard/borrow-status?month=&year=
func (rc *ReportController) BorrowStatus(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}
	res, err := rc.Repo.BorrowStatusTotals(c.Request.Context(), month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard/return-requests?month=&year=
func (rc *ReportController) ReturnRequests(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}
	res, err := rc.Repo.ReturnRequestTotals(c.Request.Context(), month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard/return-conditions?month=&year=
func (rc *ReportController) ReturnConditions(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}
	res, err := rc.Repo.ReturnConditionTotals(c.Request.Context(), month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard/user-activity?month=&year=&limit=
func (rc *ReportController) UserActivity(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := rc.Repo.UserActivityTotals(c.Request.Context(), month, year, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard/low-stock
func (rc *ReportController) LowStock(c *gin.Context) {
	res, err := rc.Repo.LowStockItems(c.Request.Context(), rc.Cfg.LowStockThreshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
