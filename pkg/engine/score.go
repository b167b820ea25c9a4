package engine

import (
	"sort"

	"github.com/turni/turni/pkg/model"
)

const (
	// underBonusThreshold 角色平均差超过该值触发强优先
	underBonusThreshold = 20.0
	// underBonus 强优先加分，远大于其他排序维度的差距
	underBonus = 1000.0
)

// Picker 从候选集中挑选一名员工
// 驻场与值班两种模式各有一套排序策略
type Picker interface {
	Pick(candidates []*model.Employee, role model.Role, employees []*model.Employee, util *Tracker) *model.Employee
}

// fairnessPicker 公平性选人（驻场模式）
//
// 排序依据依次为：强优先加分（角色平均差 > 20 小时）、
// 角色平均差、个人容量差、累计工时升序；
// 全部持平时按员工 ID 升序，保证同一输入产出同一结果
type fairnessPicker struct{}

// NewFairnessPicker 创建驻场模式的选人器
func NewFairnessPicker() Picker {
	return &fairnessPicker{}
}

func (p *fairnessPicker) Pick(candidates []*model.Employee, role model.Role, employees []*model.Employee, util *Tracker) *model.Employee {
	if len(candidates) == 0 {
		return nil
	}

	roleAvg := util.RoleAverage(employees, role)

	type scored struct {
		emp         *model.Employee
		bonus       float64
		roleGap     float64
		personalGap float64
		hours       float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		hours := util.Hours(e.ID)
		roleGap := roleAvg - hours
		if roleGap < 0 {
			roleGap = 0
		}
		personalGap := e.CapacityHours() - hours
		if personalGap < 0 {
			personalGap = 0
		}
		var bonus float64
		if roleGap > underBonusThreshold {
			bonus = underBonus
		}
		ranked = append(ranked, scored{e, bonus, roleGap, personalGap, hours})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.bonus != b.bonus {
			return a.bonus > b.bonus
		}
		if a.roleGap != b.roleGap {
			return a.roleGap > b.roleGap
		}
		if a.personalGap != b.personalGap {
			return a.personalGap > b.personalGap
		}
		if a.hours != b.hours {
			return a.hours < b.hours
		}
		return a.emp.ID.String() < b.emp.ID.String()
	})

	return ranked[0].emp
}

// onCallPicker 值班选人（reperibilità 模式）
//
// 值班是正常排班之外的附加负荷，不做角色平均拉平，
// 只按累计工时升序轮转；未达 30% 容量上限的员工优先
type onCallPicker struct{}

// NewOnCallPicker 创建值班模式的选人器
func NewOnCallPicker() Picker {
	return &onCallPicker{}
}

func (p *onCallPicker) Pick(candidates []*model.Employee, role model.Role, employees []*model.Employee, util *Tracker) *model.Employee {
	if len(candidates) == 0 {
		return nil
	}

	type scored struct {
		emp   *model.Employee
		under bool
		hours float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		hours := util.Hours(e.ID)
		ranked = append(ranked, scored{e, hours < e.OnCallCapacityHours(), hours})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.under != b.under {
			return a.under
		}
		if a.hours != b.hours {
			return a.hours < b.hours
		}
		return a.emp.ID.String() < b.emp.ID.String()
	})

	return ranked[0].emp
}
