// Package validator 对既有名册做一致性校验
//
// 引擎生成时已经规避了这些冲突，但名册允许人工改动；
// 校验器把人工编辑后违反的约束找出来，只报告不修复
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/turni/turni/pkg/engine"
	"github.com/turni/turni/pkg/model"
)

// 冲突类别
const (
	KindOverlap    = "overlap"      // 同日班次时间重叠
	KindBackToBack = "back_to_back" // 同日班次首尾相接（无间隙即无休息）
	KindLeave      = "leave"        // 班次落在已批准的请假上
	KindHoliday    = "holiday"      // 驻场班次落在节假日上
	KindOverlong   = "overlong"     // 班段超过 7 小时上限
)

// Conflict 一条冲突记录
type Conflict struct {
	Kind       string      `json:"kind"`
	EmployeeID uuid.UUID   `json:"employee_id"`
	Date       string      `json:"date"`
	Detail     string      `json:"detail"`
	ShiftIDs   []uuid.UUID `json:"shift_ids"`
}

// Report 校验报告
type Report struct {
	Conflicts []Conflict `json:"conflicts"`
	Checked   int        `json:"checked"`
}

// HasConflicts 检查是否存在冲突
func (r *Report) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Validate 校验一批班次
// 驻场与值班名册各自独立，跨名册的重叠不算冲突
func Validate(shifts []*model.Shift, leaves []*model.Leave, holidays []*model.Holiday, siteID *uuid.UUID) *Report {
	report := &Report{Checked: len(shifts)}
	cal := engine.NewHolidayCalendar(holidays)

	type dayKey struct {
		employee uuid.UUID
		date     string
		onCall   bool
	}
	byDay := make(map[dayKey][]*model.Shift)
	for _, s := range shifts {
		key := dayKey{s.EmployeeID, s.Date, s.OnCall}
		byDay[key] = append(byDay[key], s)
	}

	keys := make([]dayKey, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].employee.String() < keys[j].employee.String()
	})

	for _, key := range keys {
		day := byDay[key]
		sort.Slice(day, func(i, j int) bool { return day[i].StartTime < day[j].StartTime })

		for i, s := range day {
			checkLength(report, s)
			checkLeave(report, s, leaves)
			checkHoliday(report, s, cal, siteID)

			for _, other := range day[i+1:] {
				checkPair(report, s, other)
			}
		}
	}

	return report
}

// checkPair 检查同一员工同日两个班次的重叠与相接
// 不冲突要求严格不等：一个的结束必须早于另一个的开始
func checkPair(report *Report, a, b *model.Shift) {
	a0, a1, ok1 := shiftSpan(a)
	b0, b1, ok2 := shiftSpan(b)
	if !ok1 || !ok2 {
		return
	}

	switch {
	case a1 < b0 || b1 < a0:
		return
	case a1 == b0 || b1 == a0:
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       KindBackToBack,
			EmployeeID: a.EmployeeID,
			Date:       a.Date,
			Detail:     fmt.Sprintf("%s-%s 与 %s-%s 首尾相接", a.StartTime, a.EndTime, b.StartTime, b.EndTime),
			ShiftIDs:   []uuid.UUID{a.ID, b.ID},
		})
	default:
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       KindOverlap,
			EmployeeID: a.EmployeeID,
			Date:       a.Date,
			Detail:     fmt.Sprintf("%s-%s 与 %s-%s 重叠", a.StartTime, a.EndTime, b.StartTime, b.EndTime),
			ShiftIDs:   []uuid.UUID{a.ID, b.ID},
		})
	}
}

// checkLength 检查驻场班段是否超过 7 小时
// 引擎连段后移会产生多一分钟的开始偏差，放一分钟容差；
// 值班整窗分配，不受班段上限约束
func checkLength(report *Report, s *model.Shift) {
	if s.OnCall {
		return
	}
	start, end, ok := shiftSpan(s)
	if !ok {
		return
	}
	if end-start > engine.MaxSegmentMinutes+1 {
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       KindOverlong,
			EmployeeID: s.EmployeeID,
			Date:       s.Date,
			Detail:     fmt.Sprintf("%s-%s 时长 %.1f 小时，超过 7 小时上限", s.StartTime, s.EndTime, s.Hours()),
			ShiftIDs:   []uuid.UUID{s.ID},
		})
	}
}

// checkLeave 检查班次是否落在已批准的请假上
func checkLeave(report *Report, s *model.Shift, leaves []*model.Leave) {
	for _, l := range leaves {
		if l.EmployeeID != s.EmployeeID || !l.IsApproved() || !l.Covers(s.Date) {
			continue
		}
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       KindLeave,
			EmployeeID: s.EmployeeID,
			Date:       s.Date,
			Detail:     fmt.Sprintf("%s-%s 与已批准的请假（%s 至 %s）冲突", s.StartTime, s.EndTime, l.StartDate, l.EndDate),
			ShiftIDs:   []uuid.UUID{s.ID},
		})
		return
	}
}

// checkHoliday 检查驻场班次是否落在节假日上
// 值班在节假日属于正常业务，不算冲突
func checkHoliday(report *Report, s *model.Shift, cal *engine.HolidayCalendar, siteID *uuid.UUID) {
	if s.OnCall {
		return
	}
	if cal.IsHoliday(s.Date, siteID) {
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       KindHoliday,
			EmployeeID: s.EmployeeID,
			Date:       s.Date,
			Detail:     fmt.Sprintf("%s 为节假日，驻场班次 %s-%s 不应存在", s.Date, s.StartTime, s.EndTime),
			ShiftIDs:   []uuid.UUID{s.ID},
		})
	}
}

// shiftSpan 把班次换算为分钟区间，跨午夜时结束超过 1440
func shiftSpan(s *model.Shift) (int, int, bool) {
	start, err1 := model.ParseClock(s.StartTime)
	end, err2 := model.ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, start + model.SpanMinutes(start, end), true
}
