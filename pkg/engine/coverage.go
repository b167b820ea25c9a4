package engine

import (
	"sort"

	"github.com/turni/turni/pkg/model"
)

// Slot 某一天需要覆盖的时间窗口
// Start/End 为自当日午夜的分钟数，跨午夜时 End 超过 1440
type Slot struct {
	Date     string
	Start    int
	End      int
	Required model.RoleCount
}

// StartClock 返回窗口开始时刻 HH:MM
func (s *Slot) StartClock() string {
	return model.FormatClock(s.Start)
}

// EndClock 返回窗口结束时刻 HH:MM
func (s *Slot) EndClock() string {
	return model.FormatClock(s.End)
}

// Hours 返回窗口时长（小时）
func (s *Slot) Hours() float64 {
	return float64(s.End-s.Start) / 60.0
}

// slotsForDate 选出某一天生效的覆盖窗口
//
// 时间窗口完全相同的多条规则合并为一个窗口，角色需求按角色取最大值：
// 两条 08:00-14:00 各要 1 名 Operatore，合并后仍是 1 名，
// 避免重复配置把同一窗口的需求翻倍
//
// 节假日同时激活 weekday=7 与当天实际星期的规则（值班模式）；
// 驻场模式下节假日在上层直接跳过，不会走到这里
func slotsForDate(rules []*model.CoverageRule, date string, isHoliday bool) []*Slot {
	type windowKey struct{ start, end int }
	merged := make(map[windowKey]model.RoleCount)

	for _, r := range rules {
		if !r.AppliesOn(date, isHoliday) {
			continue
		}

		start, err := model.ParseClock(r.StartTime)
		if err != nil {
			continue
		}
		end, err := model.ParseClock(r.EndTime)
		if err != nil {
			continue
		}
		end = start + model.SpanMinutes(start, end)

		key := windowKey{start, end}
		if merged[key] == nil {
			merged[key] = make(model.RoleCount)
		}
		merged[key].MergeMax(r.RequiredRoles)
	}

	slots := make([]*Slot, 0, len(merged))
	for key, required := range merged {
		slots = append(slots, &Slot{
			Date:     date,
			Start:    key.start,
			End:      key.end,
			Required: required,
		})
	}

	// 开始时刻升序，保证同一输入的处理顺序确定
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start != slots[j].Start {
			return slots[i].Start < slots[j].Start
		}
		return slots[i].End < slots[j].End
	})

	return slots
}
