package main

import (
	"context"
	"log"
	"os"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/config"
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/routes"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	// 首个管理员从环境变量提升
	app.BootstrapFirstAdmin(context.Background(), application.Config, db.NewRepo(application.DB))

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
