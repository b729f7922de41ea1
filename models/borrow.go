// models/borrow.go
package models

import "time"

const BorrowTable = "inv_borrows"

// 借用状态机：Pending -> Approved -> Returned；Pending -> Rejected。
// 不允许回退到 Pending。
const (
	BorrowPending  = "Pending"
	BorrowApproved = "Approved"
	BorrowRejected = "Rejected"
	BorrowReturned = "Returned"
)

func ValidBorrowStatus(s string) bool {
	switch s {
	case BorrowPending, BorrowApproved, BorrowRejected, BorrowReturned:
		return true
	}
	return false
}

// 归还状况标签；管理员登记数量时用作 map key
const (
	ConditionGood    = "Good"
	ConditionDamaged = "Damaged"
	ConditionLost    = "Lost"
)

type Borrow struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"type:uuid;index;not null" json:"userId"`
	Username string `gorm:"size:255;not null" json:"username"`

	// 下面 item_* 字段是申请时的快照，物品之后被改名/删除也不回填
	ItemID       string `gorm:"type:uuid;index;not null" json:"itemId"`
	ItemCode     string `gorm:"size:120;not null" json:"itemCode"`
	ItemName     string `gorm:"size:200;not null" json:"itemName"`
	ItemCategory string `gorm:"size:120;not null" json:"itemCategory"`

	Quantity int    `gorm:"not null" json:"quantity"`
	Status   string `gorm:"size:20;index;not null;default:'Pending'" json:"status"`

	// 与 Status 正交：仅 Approved 且未请求过时可置位
	ReturnRequested bool `gorm:"not null;default:false" json:"returnRequested"`

	RequestedAt time.Time  `gorm:"index;not null" json:"requestedAt"`
	ReturnedAt  *time.Time `gorm:"index" json:"returnedAt,omitempty"`

	// Good/Damaged/Lost -> 数量；仅 Returned 时有值，原样保存不校验总和
	ConditionsOnReturn map[string]int `gorm:"serializer:json" json:"conditionsOnReturn,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Borrow) TableName() string { return BorrowTable }

// CanRequestReturn 前端展示用
func (b *Borrow) CanRequestReturn() bool {
	return b.Status == BorrowApproved && !b.ReturnRequested
}
