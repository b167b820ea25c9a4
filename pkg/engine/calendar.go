// Package engine 实现排班自动生成的核心算法
//
// 引擎是输入快照上的纯函数：读取员工、覆盖规则、请假、节假日
// 与既有班次，产出新班次与未覆盖警告，不做任何 I/O；
// 持久化是调用方的职责
package engine

import (
	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// HolidayCalendar 节假日历
// 回答"日期 D 对驻点 S 是否为节假日"；未知日期一律返回 false
type HolidayCalendar struct {
	holidays []*model.Holiday
}

// NewHolidayCalendar 创建节假日历
func NewHolidayCalendar(holidays []*model.Holiday) *HolidayCalendar {
	return &HolidayCalendar{holidays: holidays}
}

// IsHoliday 检查日期对某驻点是否为节假日
// 驻点为空的节假日记录对所有驻点生效
func (c *HolidayCalendar) IsHoliday(date string, siteID *uuid.UUID) bool {
	for _, h := range c.holidays {
		if h.MatchesDate(date) && h.MatchesSite(siteID) {
			return true
		}
	}
	return false
}

// LeaveIndex 请假索引
// 每次生成构建一次，把窗口内已批准的请假摊平为 (员工, 日期) 集合
type LeaveIndex struct {
	onLeave map[uuid.UUID]map[string]bool
}

// NewLeaveIndex 根据已批准的请假构建索引
// 只观察 approved 状态；pending/cancelled 不阻止排班
func NewLeaveIndex(leaves []*model.Leave, window model.DateRange) *LeaveIndex {
	idx := &LeaveIndex{onLeave: make(map[uuid.UUID]map[string]bool)}

	for _, l := range leaves {
		if !l.IsApproved() || !l.Intersects(window) {
			continue
		}

		// 只摊平与窗口相交的部分
		start := l.StartDate
		if start < window.StartDate {
			start = window.StartDate
		}
		end := l.EndDate
		if end > window.EndDate {
			end = window.EndDate
		}

		for _, day := range (model.DateRange{StartDate: start, EndDate: end}).Days() {
			if idx.onLeave[l.EmployeeID] == nil {
				idx.onLeave[l.EmployeeID] = make(map[string]bool)
			}
			idx.onLeave[l.EmployeeID][day] = true
		}
	}

	return idx
}

// OnLeave 检查员工在某日期是否休假
func (idx *LeaveIndex) OnLeave(employeeID uuid.UUID, date string) bool {
	return idx.onLeave[employeeID][date]
}
