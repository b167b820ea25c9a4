package stats

import (
	"github.com/turni/turni/pkg/model"
)

// DayLoad 某一天的排班汇总
type DayLoad struct {
	Date   string                 `json:"date"`
	Shifts int                    `json:"shifts"`
	Hours  float64                `json:"hours"`
	ByRole map[model.Role]float64 `json:"by_role"`
}

// CoverageReport 窗口内逐日排班汇总
type CoverageReport struct {
	Window model.DateRange `json:"window"`
	Days   []DayLoad       `json:"days"`
	Total  float64         `json:"total_hours"`
}

// Coverage 按日期汇总窗口内的班次与工时
// 角色维度按员工当前角色归类，员工缺失时计入空角色
func Coverage(employees []*model.Employee, shifts []*model.Shift, window model.DateRange) *CoverageReport {
	roleOf := make(map[string]model.Role, len(employees))
	for _, e := range employees {
		roleOf[e.ID.String()] = e.Role
	}

	byDate := make(map[string]*DayLoad)
	report := &CoverageReport{Window: window}

	for _, s := range shifts {
		if !window.Contains(s.Date) {
			continue
		}
		day := byDate[s.Date]
		if day == nil {
			day = &DayLoad{Date: s.Date, ByRole: make(map[model.Role]float64)}
			byDate[s.Date] = day
		}
		h := s.Hours()
		day.Shifts++
		day.Hours += h
		day.ByRole[roleOf[s.EmployeeID.String()]] += h
		report.Total += h
	}

	for _, date := range window.Days() {
		if day, ok := byDate[date]; ok {
			report.Days = append(report.Days, *day)
		}
	}

	return report
}
