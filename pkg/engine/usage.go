package engine

import (
	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// Tracker 工时累计器
// 记录本轮生成窗口内每名员工的累计工时，
// 用既有班次播种，保证重跑与增量生成看到同一份负载
type Tracker struct {
	hours map[uuid.UUID]float64
}

// NewTracker 创建工时累计器
func NewTracker() *Tracker {
	return &Tracker{hours: make(map[uuid.UUID]float64)}
}

// Seed 用既有班次播种累计工时
func (t *Tracker) Seed(shifts []*model.Shift) {
	for _, s := range shifts {
		t.hours[s.EmployeeID] += s.Hours()
	}
}

// Add 累计一段新分配的工时
func (t *Tracker) Add(employeeID uuid.UUID, hours float64) {
	t.hours[employeeID] += hours
}

// Hours 返回员工的累计工时
func (t *Tracker) Hours(employeeID uuid.UUID) float64 {
	return t.hours[employeeID]
}

// RoleAverage 返回某角色所有在职员工的平均累计工时
// 分母是该角色的全部在职员工，不只是本班段的候选人，
// 否则角色平均会随过滤结果漂移
func (t *Tracker) RoleAverage(employees []*model.Employee, role model.Role) float64 {
	var sum float64
	var count int
	for _, e := range employees {
		if e.IsActive() && e.HasRole(role) {
			sum += t.hours[e.ID]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
