// Package stats 提供名册的统计视图
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// EmployeeLoad 单个员工的负载
type EmployeeLoad struct {
	EmployeeID uuid.UUID  `json:"employee_id"`
	Name       string     `json:"name"`
	Role       model.Role `json:"role"`
	Hours      float64    `json:"hours"`
	Capacity   float64    `json:"capacity"`
	Deviation  float64    `json:"deviation"` // 相对角色平均的偏差
}

// RoleFairness 单个角色的公平性指标
type RoleFairness struct {
	Role      model.Role     `json:"role"`
	Mean      float64        `json:"mean"`
	StdDev    float64        `json:"std_dev"`
	Employees []EmployeeLoad `json:"employees"`
}

// FairnessReport 公平性报告
type FairnessReport struct {
	Window model.DateRange `json:"window"`
	Roles  []RoleFairness  `json:"roles"`
}

// Fairness 计算窗口内各角色的工时分布
// 只统计在职员工；值班与驻场班次分开调用（按 OnCall 预先过滤）
func Fairness(employees []*model.Employee, shifts []*model.Shift, window model.DateRange) *FairnessReport {
	hours := make(map[uuid.UUID]float64)
	for _, s := range shifts {
		if window.Contains(s.Date) {
			hours[s.EmployeeID] += s.Hours()
		}
	}

	byRole := make(map[model.Role][]*model.Employee)
	for _, e := range employees {
		if e.IsActive() {
			byRole[e.Role] = append(byRole[e.Role], e)
		}
	}

	roles := make([]model.Role, 0, len(byRole))
	for r := range byRole {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	report := &FairnessReport{Window: window}
	for _, role := range roles {
		group := byRole[role]

		var sum float64
		for _, e := range group {
			sum += hours[e.ID]
		}
		mean := sum / float64(len(group))

		var variance float64
		loads := make([]EmployeeLoad, 0, len(group))
		for _, e := range group {
			h := hours[e.ID]
			variance += (h - mean) * (h - mean)
			loads = append(loads, EmployeeLoad{
				EmployeeID: e.ID,
				Name:       e.Name,
				Role:       e.Role,
				Hours:      h,
				Capacity:   e.CapacityHours(),
				Deviation:  h - mean,
			})
		}
		variance /= float64(len(group))

		sort.Slice(loads, func(i, j int) bool {
			if loads[i].Hours != loads[j].Hours {
				return loads[i].Hours > loads[j].Hours
			}
			return loads[i].Name < loads[j].Name
		})

		report.Roles = append(report.Roles, RoleFairness{
			Role:      role,
			Mean:      mean,
			StdDev:    math.Sqrt(variance),
			Employees: loads,
		})
	}

	return report
}
