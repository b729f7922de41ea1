package models

import "time"

// 角色/状态是闭合集合，入库前校验
const (
	RoleAdmin  = "admin"
	RoleClient = "client"

	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusDeactivated = "deactivated"
)

func ValidRole(r string) bool { return r == RoleAdmin || r == RoleClient }

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive || s == StatusDeactivated
}

type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'client'" json:"role"`
	Status       string `gorm:"size:20;not null;default:'inactive'" json:"status"`

	EmailVerified         bool       `gorm:"not null;default:false" json:"emailVerified"`
	EmailVerificationCode string     `gorm:"size:12" json:"-"`
	EmailVerificationExp  *time.Time `json:"-"`

	PasswordResetCode string     `gorm:"size:12" json:"-"`
	PasswordResetExp  *time.Time `json:"-"`

	// 长效 remember-me 凭据；登出或停用时清空
	SessionToken *string `gorm:"size:128;index" json:"-"`

	ProfilePicture string `gorm:"size:255" json:"profilePicture,omitempty"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "inv_users" }
