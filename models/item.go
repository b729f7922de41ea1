// models/item.go
package models

import "time"

const ItemTable = "inv_items"

type Item struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string `gorm:"size:120;uniqueIndex;not null" json:"code"` // 唯一编号
	Name        string `gorm:"size:200;not null" json:"name"`
	Category    string `gorm:"size:120;index;not null" json:"category"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// 库存数量；永远 >= 0，扣减走条件 UPDATE
	Quantity int `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`

	AddedBy   string `gorm:"size:255" json:"addedBy"`
	ImagePath string `gorm:"size:255" json:"imagePath,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Item) TableName() string { return ItemTable }
