// Package model 定义排班生成引擎的核心数据模型
//
// 所有日期均为本地日历日期（Europe/Rome），格式 YYYY-MM-DD；
// 所有时刻均为本地钟表时间，格式 HH:MM，不携带时区。
package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// ClockLayout 钟表时间格式
const ClockLayout = "15:04"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Role 岗位角色
// 角色是用户可配置的自由文本标签（如 "Operatore"、"Tecnico"），
// 引擎只做精确相等比较；类型包装用于防止与普通字符串混用
type Role string

// String 返回角色名称
func (r Role) String() string { return string(r) }

// DateRange 日期范围（闭区间）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Contains 检查日期是否落在范围内
func (dr DateRange) Contains(date string) bool {
	return date >= dr.StartDate && date <= dr.EndDate
}

// Days 按升序枚举范围内的所有日期
func (dr DateRange) Days() []string {
	start, err1 := time.Parse(DateLayout, dr.StartDate)
	end, err2 := time.Parse(DateLayout, dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// NextDate 获取后一天日期
func NextDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// WeekdayOf 返回日期的星期编码（0=周一 .. 6=周日）
func WeekdayOf(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return -1
	}
	return (int(t.Weekday()) + 6) % 7
}

// DayIndex 返回日期的序数（自纪元起的天数），用于跨日时间运算
func DayIndex(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return int(t.Unix() / 86400)
}
