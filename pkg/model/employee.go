// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Employee 员工
type Employee struct {
	BaseModel
	OrgID  uuid.UUID `json:"org_id" db:"org_id"`
	Name   string    `json:"name" db:"name"`
	Email  string    `json:"email,omitempty" db:"email"`
	Role   Role      `json:"role" db:"role"`
	Active bool      `json:"active" db:"active"`

	// PartTimePercent 合同工时比例 [1,100]，100 表示全职
	// 公平性评分用它作为目标容量
	PartTimePercent int `json:"part_time_percent" db:"part_time_percent"`

	// SiteID 可选的驻点绑定；引擎不用它过滤员工，
	// 调用方如需按驻点筛选应在传入前完成
	SiteID *uuid.UUID `json:"site_id,omitempty" db:"site_id"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Active
}

// HasRole 检查员工是否持有某角色
func (e *Employee) HasRole(r Role) bool {
	return e.Role == r
}

// CapacityHours 返回公平性评分使用的目标容量
func (e *Employee) CapacityHours() float64 {
	return float64(e.PartTimePercent)
}

// OnCallCapacityHours 返回值班（reperibilità）的容量上限
// 值班是正常排班之外的附加负荷，上限为合同容量的 30%
func (e *Employee) OnCallCapacityHours() float64 {
	return 0.3 * float64(e.PartTimePercent)
}
