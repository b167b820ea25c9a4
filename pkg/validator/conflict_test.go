package validator

import (
	"testing"

	"github.com/turni/turni/pkg/model"
)

func testShift(emp *model.Employee, date, start, end string, onCall bool) *model.Shift {
	return &model.Shift{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		OnCall:     onCall,
	}
}

func newEmployee() *model.Employee {
	return &model.Employee{BaseModel: model.NewBaseModel(), Active: true}
}

func findKind(report *Report, kind string) *Conflict {
	for i := range report.Conflicts {
		if report.Conflicts[i].Kind == kind {
			return &report.Conflicts[i]
		}
	}
	return nil
}

func TestValidate_Clean(t *testing.T) {
	emp := newEmployee()
	shifts := []*model.Shift{
		testShift(emp, "2026-01-05", "08:00", "14:00", false),
		testShift(emp, "2026-01-05", "15:00", "20:00", false),
	}

	report := Validate(shifts, nil, nil, nil)
	if report.HasConflicts() {
		t.Errorf("错开的班次不应有冲突: %v", report.Conflicts)
	}
	if report.Checked != 2 {
		t.Errorf("Checked = %d, expected 2", report.Checked)
	}
}

func TestValidate_Overlap(t *testing.T) {
	emp := newEmployee()
	shifts := []*model.Shift{
		testShift(emp, "2026-01-05", "08:00", "14:00", false),
		testShift(emp, "2026-01-05", "12:00", "18:00", false),
	}

	report := Validate(shifts, nil, nil, nil)
	c := findKind(report, KindOverlap)
	if c == nil {
		t.Fatalf("应报告重叠冲突: %v", report.Conflicts)
	}
	if c.EmployeeID != emp.ID || c.Date != "2026-01-05" || len(c.ShiftIDs) != 2 {
		t.Errorf("冲突内容 = %+v", c)
	}
}

func TestValidate_BackToBack(t *testing.T) {
	emp := newEmployee()
	shifts := []*model.Shift{
		testShift(emp, "2026-01-05", "08:00", "14:00", false),
		testShift(emp, "2026-01-05", "14:00", "19:00", false),
	}

	report := Validate(shifts, nil, nil, nil)
	if findKind(report, KindBackToBack) == nil {
		t.Errorf("首尾相接应报告 back_to_back: %v", report.Conflicts)
	}
	if findKind(report, KindOverlap) != nil {
		t.Error("相接不应同时报告为重叠")
	}
}

func TestValidate_CrossRosterIgnored(t *testing.T) {
	// 驻场与值班名册各自独立，跨名册的重叠不算冲突
	emp := newEmployee()
	shifts := []*model.Shift{
		testShift(emp, "2026-01-05", "08:00", "14:00", false),
		testShift(emp, "2026-01-05", "08:00", "14:00", true),
	}

	report := Validate(shifts, nil, nil, nil)
	if report.HasConflicts() {
		t.Errorf("跨名册重叠不应报告: %v", report.Conflicts)
	}
}

func TestValidate_Leave(t *testing.T) {
	emp := newEmployee()
	shifts := []*model.Shift{testShift(emp, "2026-01-05", "08:00", "14:00", false)}
	leaves := []*model.Leave{
		{EmployeeID: emp.ID, StartDate: "2026-01-04", EndDate: "2026-01-06", Status: model.LeaveApproved},
	}

	report := Validate(shifts, leaves, nil, nil)
	if findKind(report, KindLeave) == nil {
		t.Errorf("请假期间的班次应报告冲突: %v", report.Conflicts)
	}

	// pending 请假不算
	leaves[0].Status = model.LeavePending
	report = Validate(shifts, leaves, nil, nil)
	if report.HasConflicts() {
		t.Errorf("未批准的请假不应报告: %v", report.Conflicts)
	}
}

func TestValidate_Holiday(t *testing.T) {
	emp := newEmployee()
	holidays := []*model.Holiday{{Month: 1, Day: 5, Name: "Festa"}}

	presidio := []*model.Shift{testShift(emp, "2026-01-05", "08:00", "14:00", false)}
	report := Validate(presidio, nil, holidays, nil)
	if findKind(report, KindHoliday) == nil {
		t.Errorf("节假日的驻场班次应报告冲突: %v", report.Conflicts)
	}

	// 值班在节假日属于正常业务
	oncall := []*model.Shift{testShift(emp, "2026-01-05", "08:00", "20:00", true)}
	report = Validate(oncall, nil, holidays, nil)
	if report.HasConflicts() {
		t.Errorf("节假日的值班不应报告: %v", report.Conflicts)
	}
}

func TestValidate_Overlong(t *testing.T) {
	emp := newEmployee()

	long := []*model.Shift{testShift(emp, "2026-01-05", "08:00", "16:00", false)} // 8 小时
	report := Validate(long, nil, nil, nil)
	if findKind(report, KindOverlong) == nil {
		t.Errorf("8 小时驻场班段应报告超长: %v", report.Conflicts)
	}

	// 连段后移产生的 7 小时 1 分钟在容差之内
	nudged := []*model.Shift{testShift(emp, "2026-01-05", "07:59", "15:00", false)}
	report = Validate(nudged, nil, nil, nil)
	if report.HasConflicts() {
		t.Errorf("一分钟容差内不应报告: %v", report.Conflicts)
	}

	// 值班整窗分配，不受班段上限约束
	oncall := []*model.Shift{testShift(emp, "2026-01-05", "18:00", "08:00", true)}
	report = Validate(oncall, nil, nil, nil)
	if report.HasConflicts() {
		t.Errorf("14 小时值班不应报告超长: %v", report.Conflicts)
	}
}
