// models/report.go
package models

import "time"

const ReportTable = "inv_reports"

// Report 类型标签；审计日志只追加不改写
const (
	ReportBorrow              = "borrow"
	ReportBorrowApproved      = "borrow_approved"
	ReportBorrowRejected      = "borrow_rejected"
	ReportBorrowReturnRequest = "borrow_return_request"
	ReportBorrowReturned      = "borrow_returned"
	ReportItemAdd             = "item_add"
	ReportItemEdit            = "item_edit"
	ReportItemDelete          = "item_delete"
	ReportUserLogin           = "user_login"
	ReportUserRegister        = "user_register"
	ReportUserEdit            = "user_edit"
	ReportUserActivate        = "user_activate"
	ReportUserDeactivate      = "user_deactivate"
	ReportUserPasswordReset   = "user_password_reset"
)

func ValidReportType(t string) bool {
	switch t {
	case ReportBorrow, ReportBorrowApproved, ReportBorrowRejected,
		ReportBorrowReturnRequest, ReportBorrowReturned,
		ReportItemAdd, ReportItemEdit, ReportItemDelete,
		ReportUserLogin, ReportUserRegister, ReportUserEdit,
		ReportUserActivate, ReportUserDeactivate, ReportUserPasswordReset:
		return true
	}
	return false
}

type Report struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string    `gorm:"size:40;index;not null" json:"type"`
	PerformedBy string    `gorm:"size:255;index;not null" json:"performedBy"`
	TargetName  string    `gorm:"size:255" json:"targetName,omitempty"`
	Details     string    `gorm:"type:text;not null" json:"details"`
	Timestamp   time.Time `gorm:"index;not null" json:"timestamp"`

	// 变更前后快照，仅部分类型会填
	OldValue string `gorm:"type:text" json:"oldValue,omitempty"`
	NewValue string `gorm:"type:text" json:"newValue,omitempty"`
}

func (Report) TableName() string { return ReportTable }
