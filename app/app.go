package app

import (
	"Gin_postgres_redis_inventory_app/db"
	"Gin_postgres_redis_inventory_app/mail"
	"Gin_postgres_redis_inventory_app/session"
	"Gin_postgres_redis_inventory_app/util"
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Mailer mail.Sender
	Config Config

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	Env         string
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	SessionTTL  time.Duration
	RememberTTL time.Duration

	SMTPHost string
	SMTPPort string
	SMTPFrom string
	SMTPUser string
	SMTPPwd  string

	BootstrapAdminEmail string
	LowStockThreshold   int
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	if err := util.InitLogger(cfg.Env); err != nil {
		log.Fatalf("logger: %v", err)
	}

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Mailer ---
	var mailer mail.Sender = mail.LogSender{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPwd)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Mailer: mailer, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() {
	_ = a.RDB.Close()
	util.SyncLogger()
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttl := 24 * time.Hour
	if sec, err := strconv.Atoi(get("SESSION_TTL_SECONDS", "")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}
	rememberDays := 30
	if d, err := strconv.Atoi(get("REMEMBER_ME_DAYS", "")); err == nil && d > 0 {
		rememberDays = d
	}
	lowStock := 50
	if n, err := strconv.Atoi(get("LOW_STOCK_THRESHOLD", "")); err == nil && n > 0 {
		lowStock = n
	}

	return Config{
		Env:         get("ENV", "development"),
		RedisAddr:   get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		WebOrigin:   get("WEB_ORIGIN", "http://localhost:3000"),
		SessionTTL:  ttl,
		RememberTTL: time.Duration(rememberDays) * 24 * time.Hour,

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: get("SMTP_PORT", "587"),
		SMTPFrom: get("SMTP_FROM", "noreply@localhost"),
		SMTPUser: os.Getenv("SMTP_USERNAME"),
		SMTPPwd:  os.Getenv("SMTP_PASSWORD"),

		BootstrapAdminEmail: os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		LowStockThreshold:   lowStock,
	}
}
