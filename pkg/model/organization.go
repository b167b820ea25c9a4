// Package model 定义排班生成引擎的核心数据模型
package model

// Organization 组织（租户）
// 员工、覆盖规则、请假、节假日与班次全部挂在组织下，
// 跨组织的数据互不可见
type Organization struct {
	BaseModel
	Name     string                 `json:"name" db:"name"`
	Code     string                 `json:"code" db:"code"`
	Settings map[string]interface{} `json:"settings,omitempty" db:"settings"`
}
