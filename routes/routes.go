package routes

import (
	"time"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	itemCtl := controllers.NewItemController(s)
	borrowCtl := controllers.NewBorrowController(s)
	userCtl := controllers.NewUserController(s)
	reportCtl := controllers.NewReportController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo, a.Config)
	adminMW := app.AdminOnly()
	clientMW := app.ClientOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ------------------------------
	// 认证（公开）
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/verify-email", authCtl.VerifyEmail)
		auth.POST("/resend-verification", authCtl.ResendVerification)
		auth.POST("/login", authCtl.Login)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	authed := r.Group("/auth", authMW)
	{
		authed.GET("/whoami", authCtl.WhoAmI)
		authed.POST("/logout", authCtl.Logout)
	}

	// ------------------------------
	// 物品目录
	// ------------------------------
	items := r.Group("/api/items", authMW, seenMW)
	{
		items.GET("", itemCtl.ListItems) // ?q=&category=&page=&size=
		items.GET("/categories", itemCtl.Categories)
		items.GET("/:id", itemCtl.GetItem)
	}

	itemsAdmin := r.Group("/api/items", authMW, adminMW)
	{
		itemsAdmin.POST("", itemCtl.CreateItem)
		itemsAdmin.PUT("/:id", itemCtl.UpdateItem)
		itemsAdmin.DELETE("/:id", itemCtl.DeleteItem)
	}

	// ------------------------------
	// 借还流程
	// ------------------------------
	borrows := r.Group("/api/borrows", authMW, seenMW)
	{
		borrows.POST("", clientMW, borrowCtl.RequestBorrow)
		borrows.GET("/mine", borrowCtl.ListMine)
		borrows.GET("/:id", borrowCtl.GetBorrow)
		borrows.POST("/:id/return-request", clientMW, borrowCtl.RequestReturn)
	}

	borrowsAdmin := r.Group("/api/borrows", authMW, adminMW)
	{
		borrowsAdmin.GET("", borrowCtl.ListAll) // ?status=&userId=&itemId=&returnRequested=&page=&size=
		borrowsAdmin.POST("/:id/approve", borrowCtl.Approve)
		borrowsAdmin.POST("/:id/reject", borrowCtl.Reject)
		borrowsAdmin.POST("/:id/return-approve", borrowCtl.ApproveReturn)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", userCtl.ListUsers) // ?q=&page=&size=
		users.GET("/:id", userCtl.GetUser)
		users.PUT("/:id", userCtl.UpdateUser)
		users.POST("/:id/activate", userCtl.Activate)
		users.POST("/:id/deactivate", userCtl.Deactivate)
	}

	// ------------------------------
	// 审计日志 + 仪表盘（仅管理员）
	// ------------------------------
	reports := r.Group("/api/reports", authMW, adminMW)
	{
		reports.GET("", reportCtl.ListReports) // ?type=&performedBy=&start=&end=&skip=&limit=
		reports.GET("/types", reportCtl.Types)
	}

	dash := r.Group("/api/dashboard", authMW, adminMW)
	{
		dash.GET("/top-borrowed", reportCtl.TopBorrowed)
		dash.GET("/borrow-status", reportCtl.BorrowStatus)
		dash.GET("/return-requests", reportCtl.ReturnRequests)
		dash.GET("/return-conditions", reportCtl.ReturnConditions)
		dash.GET("/user-activity", reportCtl.UserActivity)
		dash.GET("/low-stock", reportCtl.LowStock)
	}
}
