// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// ShiftKind 班次时段类别（闭合枚举，由开始时刻推导）
type ShiftKind string

const (
	KindMorning   ShiftKind = "morning"
	KindAfternoon ShiftKind = "afternoon"
	KindEvening   ShiftKind = "evening"
)

// KindForStart 根据开始时刻（自午夜分钟数）推导班次类别
// 10 点前为 morning，14 点前为 afternoon，其余为 evening
func KindForStart(startMinutes int) ShiftKind {
	hour := (startMinutes % MinutesPerDay) / 60
	switch {
	case hour < 10:
		return KindMorning
	case hour < 14:
		return KindAfternoon
	default:
		return KindEvening
	}
}

// Shift 班次（引擎输出，也是再平衡时的既有障碍）
type Shift struct {
	BaseModel
	OrgID      uuid.UUID `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	Date       string    `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime  string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime    string    `json:"end_time" db:"end_time"`     // HH:MM，< StartTime 表示跨午夜
	Kind       ShiftKind `json:"kind" db:"kind"`

	// OnCall 区分驻场（presidio）与值班（reperibilità）两套名册，
	// 两套名册各自独立生成、互不检查重叠
	OnCall bool `json:"on_call" db:"on_call"`

	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
}

// Hours 返回班次时长（小时），跨午夜自动归一化
func (s *Shift) Hours() float64 {
	return ClockSpanHours(s.StartTime, s.EndTime)
}

// IsOnDate 检查班次是否在指定日期
func (s *Shift) IsOnDate(date string) bool {
	return s.Date == date
}

// UncoveredSlot 未覆盖时段（引擎输出的警告）
type UncoveredSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Role      Role   `json:"role"`
	Reason    string `json:"reason"`
}
