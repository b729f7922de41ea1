// controllers/auth_controller.go
package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"Gin_postgres_redis_inventory_app/app"
	"Gin_postgres_redis_inventory_app/mail"
	"Gin_postgres_redis_inventory_app/models"
	"Gin_postgres_redis_inventory_app/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func verifyPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// 6 位数字验证码
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// remember-me 长效 token
func generateToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		Email           string `json:"email" binding:"required,email"`
		Username        string `json:"username" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if len(in.Password) < 8 {
		c.JSON(http.StatusBadRequest, app.H{"error": "password must be at least 8 characters long"})
		return
	}
	if in.Password != in.ConfirmPassword {
		c.JSON(http.StatusBadRequest, app.H{"error": "passwords do not match"})
		return
	}

	ctx := c.Request.Context()
	if _, err := ac.Repo.FindUserByUsername(ctx, in.Username); err == nil {
		c.JSON(http.StatusConflict, app.H{"error": "username or email already exists"})
		return
	}
	if _, err := ac.Repo.FindUserByEmail(ctx, in.Email); err == nil {
		c.JSON(http.StatusConflict, app.H{"error": "username or email already exists"})
		return
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	exp := time.Now().UTC().Add(15 * time.Minute)
	u := &models.User{
		ID:                    uuid.NewString(),
		Email:                 in.Email,
		Username:              in.Username,
		PasswordHash:          hash,
		Role:                  models.RoleClient,
		Status:                models.StatusInactive,
		EmailVerificationCode: generateCode(),
		EmailVerificationExp:  &exp,
	}
	if err := ac.Repo.CreateUser(ctx, u); err != nil {
		// 查重和插入之间并发注册撞了唯一索引，跟预查命中同样报 409
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, app.H{"error": "username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	mail.SendVerificationEmail(ac.Mailer, u.Email, u.EmailVerificationCode)

	_ = ac.Repo.CreateReport(ctx, &models.Report{
		Type:        models.ReportUserRegister,
		PerformedBy: u.Username,
		TargetName:  u.Username,
		Details:     fmt.Sprintf("User '%s' registered with email '%s'.", u.Username, u.Email),
	})

	c.JSON(http.StatusCreated, app.H{"ok": true, "email": u.Email})
}

// POST /auth/verify-email
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByEmail(ctx, in.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if u.EmailVerified {
		c.JSON(http.StatusOK, app.H{"ok": true})
		return
	}
	if u.EmailVerificationCode == "" || u.EmailVerificationCode != in.Code {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid verification code"})
		return
	}
	if u.EmailVerificationExp == nil || time.Now().UTC().After(*u.EmailVerificationExp) {
		c.JSON(http.StatusBadRequest, app.H{"error": "verification code expired"})
		return
	}

	u.EmailVerified = true
	u.Status = models.StatusActive
	u.EmailVerificationCode = ""
	u.EmailVerificationExp = nil
	if err := ac.Repo.SaveUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /auth/resend-verification
func (ac *AuthController) ResendVerification(c *gin.Context) {
	var in struct {
		Login string `json:"login" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByLogin(ctx, in.Login)
	if err != nil {
		// 不暴露账号是否存在
		c.JSON(http.StatusOK, app.H{"ok": true})
		return
	}
	if u.EmailVerified {
		c.JSON(http.StatusOK, app.H{"ok": true})
		return
	}

	exp := time.Now().UTC().Add(15 * time.Minute)
	u.EmailVerificationCode = generateCode()
	u.EmailVerificationExp = &exp
	if err := ac.Repo.SaveUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	mail.SendVerificationEmail(ac.Mailer, u.Email, u.EmailVerificationCode)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Login      string `json:"login" binding:"required"` // 用户名或邮箱
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByLogin(ctx, in.Login)
	if err != nil || !verifyPassword(in.Password, u.PasswordHash) {
		util.LoginsTotal.WithLabelValues("bad_credentials").Inc()
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid login credentials"})
		return
	}
	if u.Status == models.StatusDeactivated {
		util.LoginsTotal.WithLabelValues("deactivated").Inc()
		c.JSON(http.StatusForbidden, app.H{"error": "this account has been deactivated by the admin"})
		return
	}
	if !u.EmailVerified {
		util.LoginsTotal.WithLabelValues("unverified").Inc()
		c.JSON(http.StatusForbidden, app.H{"error": "please verify your email before logging in"})
		return
	}

	// 每次登录轮换 remember-me token
	token := generateToken()
	u.Status = models.StatusActive
	u.SessionToken = &token
	if err := ac.Repo.SaveUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	if err := ac.issueSession(ctx, c.Writer, u, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if in.RememberMe {
		app.SetRememberCookie(c.Writer, ac.Cfg, token)
	}

	_ = ac.Repo.CreateReport(ctx, &models.Report{
		Type:        models.ReportUserLogin,
		PerformedBy: u.Username,
		TargetName:  u.Username,
		Details:     fmt.Sprintf("User '%s' logged in successfully.", u.Username),
	})
	util.LoginsTotal.WithLabelValues("success").Inc()
	util.GetLogger().Info("user logged in", zap.String("username", u.Username))

	c.JSON(http.StatusOK, app.H{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}

// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AppSess.Delete(ctx, ck.Value)
	}
	if uid, _, _ := identity(c); uid != "" {
		_ = ac.Repo.SetSessionToken(ctx, uid, nil)
	}
	app.ClearSessionCookie(c.Writer, ac.Cfg)
	app.ClearRememberCookie(c.Writer, ac.Cfg)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /auth/forgot-password
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByEmail(ctx, in.Email)
	if err != nil {
		c.JSON(http.StatusOK, app.H{"ok": true}) // 不暴露账号是否存在
		return
	}

	exp := time.Now().UTC().Add(15 * time.Minute)
	u.PasswordResetCode = generateCode()
	u.PasswordResetExp = &exp
	if err := ac.Repo.SaveUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	mail.SendPasswordResetEmail(ac.Mailer, u.Email, u.PasswordResetCode)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /auth/reset-password
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var in struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if len(in.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, app.H{"error": "password must be at least 8 characters long"})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByEmail(ctx, in.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if u.PasswordResetCode == "" || u.PasswordResetCode != in.Code {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid reset code"})
		return
	}
	if u.PasswordResetExp == nil || time.Now().UTC().After(*u.PasswordResetExp) {
		c.JSON(http.StatusBadRequest, app.H{"error": "reset code expired"})
		return
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	u.PasswordHash = hash
	u.PasswordResetCode = ""
	u.PasswordResetExp = nil
	u.SessionToken = nil // 改密后旧的 remember-me 一并失效
	if err := ac.Repo.SaveUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	_ = ac.Repo.CreateReport(ctx, &models.Report{
		Type:        models.ReportUserPasswordReset,
		PerformedBy: u.Username,
		TargetName:  u.Username,
		Details:     fmt.Sprintf("User '%s' reset their password.", u.Username),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /auth/whoami
func (ac *AuthController) WhoAmI(c *gin.Context) {
	uid, uname, role := identity(c)
	c.JSON(http.StatusOK, app.H{"userID": uid, "username": uname, "role": role})
}
