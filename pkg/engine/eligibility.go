package engine

import (
	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

const (
	// eveningEndMinutes 结束晚于 20:00 的班段触发次日休息限制
	eveningEndMinutes = 20 * 60
	// nightStartMinutes 开始不晚于 06:00 视为夜班
	nightStartMinutes = 6 * 60
	// nightEndMinutes 结束不晚于 08:00 视为夜班
	nightEndMinutes = 8 * 60
	// nightRestMinutes 夜班后的法定休息时长（11 小时）
	nightRestMinutes = 11 * 60
)

// interval 某日期上的占用区间，分钟数，跨午夜时 end 超过 1440
type interval struct {
	start int
	end   int
}

// nightMark 夜班标记，absEnd 为全局绝对分钟数（日序号*1440+分钟）
type nightMark struct {
	date   string
	absEnd int
}

// assignmentBook 分配台账
// 记录窗口内每名员工的全部占用（既有班次播种 + 本轮新分配），
// 供重叠、晚班休息与夜班休息规则查询
type assignmentBook struct {
	byUserDate map[uuid.UUID]map[string][]interval
	eveningOn  map[uuid.UUID]map[string]bool
	nights     map[uuid.UUID][]nightMark
}

func newAssignmentBook() *assignmentBook {
	return &assignmentBook{
		byUserDate: make(map[uuid.UUID]map[string][]interval),
		eveningOn:  make(map[uuid.UUID]map[string]bool),
		nights:     make(map[uuid.UUID][]nightMark),
	}
}

// Add 记录一段占用并更新晚班/夜班标记
func (b *assignmentBook) Add(employeeID uuid.UUID, date string, start, end int) {
	if b.byUserDate[employeeID] == nil {
		b.byUserDate[employeeID] = make(map[string][]interval)
	}
	b.byUserDate[employeeID][date] = append(b.byUserDate[employeeID][date], interval{start, end})

	if end > eveningEndMinutes {
		if b.eveningOn[employeeID] == nil {
			b.eveningOn[employeeID] = make(map[string]bool)
		}
		b.eveningOn[employeeID][date] = true
	}

	if start%model.MinutesPerDay <= nightStartMinutes || end%model.MinutesPerDay <= nightEndMinutes {
		b.nights[employeeID] = append(b.nights[employeeID], nightMark{
			date:   date,
			absEnd: model.DayIndex(date)*model.MinutesPerDay + end,
		})
	}
}

// SeedShift 把既有班次登记进台账
func (b *assignmentBook) SeedShift(s *model.Shift) {
	start, err := model.ParseClock(s.StartTime)
	if err != nil {
		return
	}
	end, err := model.ParseClock(s.EndTime)
	if err != nil {
		return
	}
	b.Add(s.EmployeeID, s.Date, start, start+model.SpanMinutes(start, end))
}

// conflicts 检查区间是否与员工在该日期的既有占用冲突
// 不重叠的条件是严格不等（t1 < a0 或 t0 > a1）：首尾相接视为冲突，
// 无间隙即无休息。allowAdjacent 放开相接（同日连段场景）
func (b *assignmentBook) conflicts(employeeID uuid.UUID, date string, start, end int, allowAdjacent bool) bool {
	for _, iv := range b.byUserDate[employeeID][date] {
		if end < iv.start || start > iv.end {
			continue
		}
		if allowAdjacent && (end == iv.start || start == iv.end) {
			continue
		}
		return true
	}
	return false
}

// eveningWorked 检查员工某日期是否有结束晚于 20:00 的班段
func (b *assignmentBook) eveningWorked(employeeID uuid.UUID, date string) bool {
	return b.eveningOn[employeeID][date]
}

// nightRestBlocked 检查夜班后 11 小时休息是否允许在 (date, start) 开工
// 只看早于 date 的夜班；同日占用由重叠规则负责
func (b *assignmentBook) nightRestBlocked(employeeID uuid.UUID, date string, start int) bool {
	absStart := model.DayIndex(date)*model.MinutesPerDay + start
	for _, n := range b.nights[employeeID] {
		if n.date >= date {
			continue
		}
		if absStart < n.absEnd+nightRestMinutes {
			return true
		}
	}
	return false
}

// adjacentEnd 检查员工在该日期是否有正好结束于 start 的占用
// 连段分配时调用方据此把落库的开始时刻后移一分钟，保持名册严格不相接
func (b *assignmentBook) adjacentEnd(employeeID uuid.UUID, date string, start int) bool {
	for _, iv := range b.byUserDate[employeeID][date] {
		if iv.end == start {
			return true
		}
	}
	return false
}

// Filter 资格过滤器
// 对 (日期, 班段, 角色) 算出可用员工集合
type Filter struct {
	book          *assignmentBook
	leaves        *LeaveIndex
	allowAdjacent bool
}

func newFilter(book *assignmentBook, leaves *LeaveIndex, allowAdjacent bool) *Filter {
	return &Filter{book: book, leaves: leaves, allowAdjacent: allowAdjacent}
}

// Eligible 检查员工能否承接某班段
//
// 完整模式依次检查：角色匹配、在职、未休假、无重叠或相接占用、
// 前一日无晚班、夜班后满 11 小时休息。
// relaxed 模式只保留前四条，丢弃跨日休息限制；
// 过滤结果为空时引擎用它重试一次
func (f *Filter) Eligible(e *model.Employee, role model.Role, date string, seg Segment, relaxed bool) bool {
	if !e.HasRole(role) {
		return false
	}
	if !e.IsActive() {
		return false
	}
	if f.leaves.OnLeave(e.ID, date) {
		return false
	}
	if f.book.conflicts(e.ID, date, seg.Start, seg.End, f.allowAdjacent) {
		return false
	}
	if relaxed {
		return true
	}
	if f.book.eveningWorked(e.ID, model.PreviousDate(date)) {
		return false
	}
	if f.book.nightRestBlocked(e.ID, date, seg.Start) {
		return false
	}
	return true
}

// Candidates 返回能承接班段的员工，保持输入顺序
func (f *Filter) Candidates(employees []*model.Employee, role model.Role, date string, seg Segment, relaxed bool) []*model.Employee {
	var out []*model.Employee
	for _, e := range employees {
		if f.Eligible(e, role, date, seg, relaxed) {
			out = append(out, e)
		}
	}
	return out
}

// AnyRoleCandidates 跨角色兜底：忽略角色匹配，其余宽松规则照常
// 值班模式在本角色完全无人时使用，产生替岗提示而非未覆盖警告
func (f *Filter) AnyRoleCandidates(employees []*model.Employee, date string, seg Segment) []*model.Employee {
	var out []*model.Employee
	for _, e := range employees {
		if !e.IsActive() {
			continue
		}
		if f.leaves.OnLeave(e.ID, date) {
			continue
		}
		if f.book.conflicts(e.ID, date, seg.Start, seg.End, f.allowAdjacent) {
			continue
		}
		out = append(out, e)
	}
	return out
}
