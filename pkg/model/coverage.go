// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// WeekdayHoliday 特殊星期编码：任意节假日
// 仅值班（reperibilità）规则使用；0..6 为周一..周日
const WeekdayHoliday = 7

// MaxCoverageHours 单条覆盖规则允许的最大时长（跨午夜归一化后）
const MaxCoverageHours = 16.0

// RoleCount 角色需求映射：角色 -> 所需人数（>=1）
type RoleCount map[Role]int

// UnmarshalJSON 解析角色需求
// 兼容两种历史形态：映射 {"Operatore": 2} 与旧的列表 ["Operatore","Tecnico"]，
// 列表形态按每角色 1 人归一化；归一化只在加载时发生一次
func (rc *RoleCount) UnmarshalJSON(data []byte) error {
	var asMap map[Role]int
	if err := json.Unmarshal(data, &asMap); err == nil {
		*rc = asMap
		return nil
	}

	var asList []Role
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("无法解析角色需求: %w", err)
	}

	m := make(RoleCount, len(asList))
	for _, r := range asList {
		if m[r] < 1 {
			m[r] = 1
		}
	}
	*rc = m
	return nil
}

// Roles 按名称升序返回所有角色（保证遍历顺序确定）
func (rc RoleCount) Roles() []Role {
	roles := make([]Role, 0, len(rc))
	for r := range rc {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Expand 按人数展开角色序列，如 {Operatore:2, Tecnico:1} -> [Operatore, Operatore, Tecnico]
func (rc RoleCount) Expand() []Role {
	var seq []Role
	for _, r := range rc.Roles() {
		for i := 0; i < rc[r]; i++ {
			seq = append(seq, r)
		}
	}
	return seq
}

// MergeMax 按角色取最大值合并另一份需求
// 两条时间窗口完全相同的规则各要 1 名 Operatore 时，合并结果是 1 不是 2
func (rc RoleCount) MergeMax(other RoleCount) {
	for r, n := range other {
		if n > rc[r] {
			rc[r] = n
		}
	}
}

// CoverageRule 覆盖规则
// 声明某个星期几的某时间窗口需要哪些角色在岗
type CoverageRule struct {
	BaseModel
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	Weekday   int       `json:"weekday" db:"weekday"`       // 0..6 周一..周日，7=任意节假日
	StartTime string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime   string    `json:"end_time" db:"end_time"`     // HH:MM，<= StartTime 表示跨午夜
	ValidFrom string    `json:"valid_from" db:"valid_from"` // YYYY-MM-DD（含）
	ValidTo   string    `json:"valid_to" db:"valid_to"`     // YYYY-MM-DD（含）
	Active    bool      `json:"active" db:"active"`

	RequiredRoles RoleCount `json:"required_roles" db:"required_roles"`
}

// ValidOn 检查规则的有效期是否覆盖日期
func (c *CoverageRule) ValidOn(date string) bool {
	return c.Active && c.ValidFrom <= date && date <= c.ValidTo
}

// AppliesOn 检查规则是否对某日期生效
// isHoliday 表示该日期是否为节假日（用于 weekday=7 的规则）
func (c *CoverageRule) AppliesOn(date string, isHoliday bool) bool {
	if !c.ValidOn(date) {
		return false
	}
	if c.Weekday == WeekdayHoliday {
		return isHoliday
	}
	return c.Weekday == WeekdayOf(date)
}

// Validate 检查规则自身是否合法
// 时长为零或超过 16 小时的规则不参与生成
func (c *CoverageRule) Validate() error {
	start, err := ParseClock(c.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(c.EndTime)
	if err != nil {
		return err
	}
	if start == end {
		return fmt.Errorf("开始与结束时刻相同")
	}
	if SpanHours(start, end) > MaxCoverageHours {
		return fmt.Errorf("时长 %.1f 小时超过上限 %.0f 小时", SpanHours(start, end), MaxCoverageHours)
	}
	if c.Weekday < 0 || c.Weekday > WeekdayHoliday {
		return fmt.Errorf("无效的星期编码 %d", c.Weekday)
	}
	if len(c.RequiredRoles) == 0 {
		return fmt.Errorf("角色需求为空")
	}
	return nil
}

// Hours 返回规则窗口的时长（小时）
func (c *CoverageRule) Hours() float64 {
	return ClockSpanHours(c.StartTime, c.EndTime)
}
