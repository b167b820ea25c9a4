// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// 请假状态
const (
	LeavePending   = "pending"
	LeaveApproved  = "approved"
	LeaveRejected  = "rejected"
	LeaveCancelled = "cancelled"
)

// Leave 请假记录
// 引擎只观察 approved 状态；pending/cancelled 不阻止排班
type Leave struct {
	BaseModel
	OrgID      uuid.UUID `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	StartDate  string    `json:"start_date" db:"start_date"` // YYYY-MM-DD（含）
	EndDate    string    `json:"end_date" db:"end_date"`     // YYYY-MM-DD（含）
	Status     string    `json:"status" db:"status"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
}

// IsApproved 检查请假是否已批准
func (l *Leave) IsApproved() bool {
	return l.Status == LeaveApproved
}

// Covers 检查请假是否覆盖某日期
func (l *Leave) Covers(date string) bool {
	return l.StartDate <= date && date <= l.EndDate
}

// Intersects 检查请假是否与日期范围相交
func (l *Leave) Intersects(dr DateRange) bool {
	return l.StartDate <= dr.EndDate && l.EndDate >= dr.StartDate
}

// Holiday 节假日（月/日记录，逐年生效）
type Holiday struct {
	ID    uuid.UUID `json:"id" db:"id"`
	OrgID uuid.UUID `json:"org_id" db:"org_id"`
	Name  string    `json:"name" db:"name"`
	Month int       `json:"month" db:"month"`
	Day   int       `json:"day" db:"day"`

	// SiteID 为空表示全国性节假日，对所有驻点生效；
	// 非空则仅对该驻点生效
	SiteID *uuid.UUID `json:"site_id,omitempty" db:"site_id"`
}

// MatchesDate 检查节假日是否落在某日期
func (h *Holiday) MatchesDate(date string) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return int(t.Month()) == h.Month && t.Day() == h.Day
}

// MatchesSite 检查节假日是否对某驻点生效
func (h *Holiday) MatchesSite(siteID *uuid.UUID) bool {
	if h.SiteID == nil {
		return true
	}
	if siteID == nil {
		return false
	}
	return *h.SiteID == *siteID
}
