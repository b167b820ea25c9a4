package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/model"
)

// 2026-01-05 是周一，2026-01-06 是周二
const (
	testMonday  = "2026-01-05"
	testTuesday = "2026-01-06"
)

func testEmployee(name string, role model.Role) *model.Employee {
	return &model.Employee{
		BaseModel:       model.NewBaseModel(),
		Name:            name,
		Role:            role,
		Active:          true,
		PartTimePercent: 100,
	}
}

func testInput(window model.DateRange, employees []*model.Employee, rules []*model.CoverageRule) *Input {
	return &Input{
		OrgID:     uuid.New(),
		Window:    window,
		Employees: employees,
		Rules:     rules,
	}
}

func TestEngine_Run_Basic(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 1 {
		t.Fatalf("班次数 = %d, expected 1", len(result.Shifts))
	}
	s := result.Shifts[0]
	if s.EmployeeID != emp.ID {
		t.Error("班次应分配给唯一的候选人")
	}
	if s.Date != testMonday || s.StartTime != "08:00" || s.EndTime != "14:00" {
		t.Errorf("班次 = %s %s-%s", s.Date, s.StartTime, s.EndTime)
	}
	if s.Kind != model.KindMorning {
		t.Errorf("Kind = %s, expected morning", s.Kind)
	}
	if s.OnCall {
		t.Error("驻场班次的 OnCall 应为 false")
	}
	if len(result.Uncovered) != 0 {
		t.Errorf("不应有未覆盖时段: %v", result.Uncovered)
	}
}

func TestEngine_Run_SegmentsLongWindow(t *testing.T) {
	// 12 小时窗口切成两段，两名员工各接一段
	a := testEmployee("Anna", "Operatore")
	b := testEmployee("Bruno", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{a, b},
		[]*model.CoverageRule{newRule(0, "08:00", "20:00", model.RoleCount{"Operatore": 1})},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 2 {
		t.Fatalf("班次数 = %d, expected 2", len(result.Shifts))
	}
	if result.Shifts[0].StartTime != "08:00" || result.Shifts[0].EndTime != "14:00" {
		t.Errorf("第一段 = %s-%s", result.Shifts[0].StartTime, result.Shifts[0].EndTime)
	}
	if result.Shifts[1].StartTime != "14:00" || result.Shifts[1].EndTime != "20:00" {
		t.Errorf("第二段 = %s-%s", result.Shifts[1].StartTime, result.Shifts[1].EndTime)
	}
	if result.Shifts[0].EmployeeID == result.Shifts[1].EmployeeID {
		t.Error("公平性选人应把两段分给不同员工")
	}
}

func TestEngine_Run_ChainedSegmentsNudge(t *testing.T) {
	// 只有一名员工时允许连段，落库的后一段开始后移一分钟
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "20:00", model.RoleCount{"Operatore": 1})},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 2 {
		t.Fatalf("班次数 = %d, expected 2: %v", len(result.Shifts), result.Uncovered)
	}
	if result.Shifts[1].StartTime != "14:01" {
		t.Errorf("连段的第二段开始 = %s, expected 14:01", result.Shifts[1].StartTime)
	}
	if result.Shifts[1].EndTime != "20:00" {
		t.Errorf("连段的第二段结束 = %s, expected 20:00", result.Shifts[1].EndTime)
	}
}

func TestEngine_Run_HolidaySkip(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testTuesday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{
			newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1}),
			newRule(1, "08:00", "14:00", model.RoleCount{"Operatore": 1}),
		},
	)
	in.Holidays = []*model.Holiday{{Month: 1, Day: 5, Name: "Festa"}}

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 1 {
		t.Fatalf("班次数 = %d, expected 1（节假日整天跳过）", len(result.Shifts))
	}
	if result.Shifts[0].Date != testTuesday {
		t.Errorf("班次日期 = %s, expected %s", result.Shifts[0].Date, testTuesday)
	}
}

func TestEngine_Run_NoCoverage(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		nil,
	)

	_, err := New(PresidioOptions()).Run(context.Background(), in)
	if err == nil {
		t.Fatal("无生效规则应返回错误")
	}
	if !apperrors.Is(err, apperrors.CodeNoCoverageForWindow) {
		t.Errorf("错误码 = %v, expected NO_COVERAGE_FOR_WINDOW", apperrors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "no coverage configured for the requested period") {
		t.Errorf("错误信息 = %q", err.Error())
	}
}

func TestEngine_Run_AllHolidayWindowIsNoCoverage(t *testing.T) {
	// 窗口内的每一天都被节假日跳过时，等同于没有任何生效规则
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)
	in.Holidays = []*model.Holiday{{Month: 1, Day: 5, Name: "Festa"}}

	_, err := New(PresidioOptions()).Run(context.Background(), in)
	if !apperrors.Is(err, apperrors.CodeNoCoverageForWindow) {
		t.Errorf("全节假日窗口应返回 NO_COVERAGE_FOR_WINDOW, got %v", err)
	}
}

func TestEngine_Run_InvalidWindow(t *testing.T) {
	in := testInput(model.DateRange{StartDate: "2026-01-10", EndDate: "2026-01-05"}, nil, nil)
	_, err := New(PresidioOptions()).Run(context.Background(), in)
	if !apperrors.Is(err, apperrors.CodeInvalidTimeRange) {
		t.Errorf("倒置窗口应返回 INVALID_TIME_RANGE, got %v", err)
	}

	in = testInput(model.DateRange{StartDate: "bad", EndDate: "2026-01-05"}, nil, nil)
	if _, err := New(PresidioOptions()).Run(context.Background(), in); err == nil {
		t.Error("非法日期应返回错误")
	}
}

func TestEngine_Run_InvalidRuleSkipped(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	bad := newRule(0, "08:00", "08:00", model.RoleCount{"Operatore": 1}) // 零时长
	good := newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{bad, good},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("无效规则不应中断运行: %v", err)
	}
	if len(result.Shifts) != 1 {
		t.Errorf("班次数 = %d, expected 1", len(result.Shifts))
	}
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "已跳过") {
		t.Errorf("应有一条跳过提示: %v", result.Notes)
	}
}

func TestEngine_Run_LeaveExcludes(t *testing.T) {
	a := testEmployee("Anna", "Operatore")
	b := testEmployee("Bruno", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{a, b},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)
	in.Leaves = []*model.Leave{
		{EmployeeID: a.ID, StartDate: testMonday, EndDate: testMonday, Status: model.LeaveApproved},
	}

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(result.Shifts) != 1 || result.Shifts[0].EmployeeID != b.ID {
		t.Error("休假员工不应被排班")
	}
}

func TestEngine_Run_Uncovered(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1, "Tecnico": 1})},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("个别角色无人可排不应中断运行: %v", err)
	}

	if len(result.Shifts) != 1 {
		t.Errorf("班次数 = %d, expected 1", len(result.Shifts))
	}
	if len(result.Uncovered) != 1 {
		t.Fatalf("未覆盖数 = %d, expected 1", len(result.Uncovered))
	}
	u := result.Uncovered[0]
	if u.Role != "Tecnico" || u.Reason != "no Tecnico available" {
		t.Errorf("未覆盖 = %+v", u)
	}
	if !strings.Contains(result.Message, "05/01/2026 08:00-14:00 (roles: Tecnico): no Tecnico available") {
		t.Errorf("汇总信息 = %q", result.Message)
	}
}

func TestEngine_Run_RelaxedRetry(t *testing.T) {
	// 唯一的员工前一日有晚班，完整规则排不出人，relaxed 重试后仍然排上
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testTuesday, EndDate: testTuesday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(1, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)
	in.Existing = []*model.Shift{{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Date:       testMonday,
		StartTime:  "15:00",
		EndTime:    "21:00",
	}}

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(result.Shifts) != 1 {
		t.Fatalf("relaxed 重试应排上唯一员工: uncovered=%v", result.Uncovered)
	}
}

func TestEngine_Run_Idempotent(t *testing.T) {
	// 用第一轮的输出作为既有班次重跑，第二轮不应再生成任何班次
	a := testEmployee("Anna", "Operatore")
	b := testEmployee("Bruno", "Operatore")
	employees := []*model.Employee{a, b}
	rules := []*model.CoverageRule{newRule(0, "08:00", "20:00", model.RoleCount{"Operatore": 1})}
	window := model.DateRange{StartDate: testMonday, EndDate: testMonday}

	first, err := New(PresidioOptions()).Run(context.Background(), testInput(window, employees, rules))
	if err != nil {
		t.Fatalf("第一轮失败: %v", err)
	}
	if len(first.Shifts) == 0 {
		t.Fatal("第一轮应生成班次")
	}

	in := testInput(window, employees, rules)
	in.Existing = first.Shifts

	second, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("第二轮失败: %v", err)
	}
	if second.CreatedCount() != 0 {
		t.Errorf("重跑生成了 %d 个班次, expected 0", second.CreatedCount())
	}
	if len(second.Uncovered) != 0 {
		t.Errorf("重跑不应产生未覆盖警告: %v", second.Uncovered)
	}
}

func TestEngine_Run_Deterministic(t *testing.T) {
	employees := []*model.Employee{
		testEmployee("Anna", "Operatore"),
		testEmployee("Bruno", "Operatore"),
		testEmployee("Carla", "Operatore"),
	}
	rules := []*model.CoverageRule{
		newRule(0, "08:00", "20:00", model.RoleCount{"Operatore": 2}),
		newRule(1, "08:00", "14:00", model.RoleCount{"Operatore": 1}),
	}
	window := model.DateRange{StartDate: testMonday, EndDate: testTuesday}

	first, err := New(PresidioOptions()).Run(context.Background(), testInput(window, employees, rules))
	if err != nil {
		t.Fatalf("第一轮失败: %v", err)
	}
	second, err := New(PresidioOptions()).Run(context.Background(), testInput(window, employees, rules))
	if err != nil {
		t.Fatalf("第二轮失败: %v", err)
	}

	if len(first.Shifts) != len(second.Shifts) {
		t.Fatalf("两轮班次数不同: %d vs %d", len(first.Shifts), len(second.Shifts))
	}
	for i := range first.Shifts {
		f, s := first.Shifts[i], second.Shifts[i]
		if f.EmployeeID != s.EmployeeID || f.Date != s.Date || f.StartTime != s.StartTime {
			t.Errorf("第 %d 个班次不一致: %v vs %v", i, f, s)
		}
	}
}

func TestEngine_Run_OnCall(t *testing.T) {
	a := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{a},
		[]*model.CoverageRule{newRule(0, "18:00", "08:00", model.RoleCount{"Operatore": 1})},
	)

	result, err := New(OnCallOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 1 {
		t.Fatalf("班次数 = %d, expected 1", len(result.Shifts))
	}
	s := result.Shifts[0]
	if !s.OnCall {
		t.Error("值班班次的 OnCall 应为 true")
	}
	// 值班不切分：14 小时整窗一个班次
	if s.StartTime != "18:00" || s.EndTime != "08:00" {
		t.Errorf("值班窗口 = %s-%s, expected 18:00-08:00", s.StartTime, s.EndTime)
	}
}

func TestEngine_Run_OnCall_HolidayRule(t *testing.T) {
	// 值班不跳过节假日，weekday=7 规则在节假日生效
	a := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testTuesday, EndDate: testTuesday},
		[]*model.Employee{a},
		[]*model.CoverageRule{newRule(model.WeekdayHoliday, "08:00", "20:00", model.RoleCount{"Operatore": 1})},
	)
	in.Holidays = []*model.Holiday{{Month: 1, Day: 6, Name: "Epifania"}}

	result, err := New(OnCallOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(result.Shifts) != 1 {
		t.Fatalf("节假日值班规则应生成班次: %v", result.Uncovered)
	}
}

func TestEngine_Run_OnCall_Substitution(t *testing.T) {
	// 本角色完全无人时扩大到任意在职员工，产生替岗提示而非未覆盖警告
	a := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{a},
		[]*model.CoverageRule{newRule(0, "18:00", "08:00", model.RoleCount{"Tecnico": 1})},
	)

	result, err := New(OnCallOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(result.Shifts) != 1 {
		t.Fatalf("替岗应生成班次: %v", result.Uncovered)
	}
	if len(result.Uncovered) != 0 {
		t.Errorf("替岗成功不应记未覆盖: %v", result.Uncovered)
	}
	found := false
	for _, n := range result.Notes {
		if strings.Contains(n, "替岗") && strings.Contains(n, "Anna") {
			found = true
		}
	}
	if !found {
		t.Errorf("应有替岗提示: %v", result.Notes)
	}
}

func TestEngine_Run_OnCall_SubstitutionIdempotent(t *testing.T) {
	// 替岗产生的班次持有人角色与规则不符，
	// 重跑时同样要抵扣需求，不能再排一遍
	a := testEmployee("Anna", "Operatore")
	b := testEmployee("Bruno", "Operatore")
	employees := []*model.Employee{a, b}
	rules := []*model.CoverageRule{newRule(0, "18:00", "08:00", model.RoleCount{"Tecnico": 1})}
	window := model.DateRange{StartDate: testMonday, EndDate: testMonday}

	first, err := New(OnCallOptions()).Run(context.Background(), testInput(window, employees, rules))
	if err != nil {
		t.Fatalf("第一轮失败: %v", err)
	}
	if len(first.Shifts) != 1 {
		t.Fatalf("第一轮应替岗生成 1 个班次: %v", first.Uncovered)
	}

	in := testInput(window, employees, rules)
	in.Existing = first.Shifts

	second, err := New(OnCallOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("第二轮失败: %v", err)
	}
	if second.CreatedCount() != 0 {
		t.Errorf("重跑生成了 %d 个班次, expected 0", second.CreatedCount())
	}
	if len(second.Uncovered) != 0 {
		t.Errorf("重跑不应产生未覆盖警告: %v", second.Uncovered)
	}
}

func TestEngine_Run_AllRulesInvalidCarriesNotes(t *testing.T) {
	// 全部规则无效时错误详情要带上跳过原因
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "08:00", model.RoleCount{"Operatore": 1})}, // 零时长
	)

	_, err := New(PresidioOptions()).Run(context.Background(), in)
	if !apperrors.Is(err, apperrors.CodeNoCoverageForWindow) {
		t.Fatalf("错误码 = %v, expected NO_COVERAGE_FOR_WINDOW", apperrors.GetCode(err))
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("错误类型 = %T, expected *AppError", err)
	}
	if !strings.Contains(appErr.Details, "已跳过") {
		t.Errorf("错误详情 = %q, 应包含被跳过规则的提示", appErr.Details)
	}
}

func TestEngine_Run_ExistingSeparatesRosters(t *testing.T) {
	// 值班既有班次不影响驻场生成：两套名册互不检查重叠
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)
	in.Existing = []*model.Shift{{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Date:       testMonday,
		StartTime:  "08:00",
		EndTime:    "14:00",
		OnCall:     true,
	}}

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(result.Shifts) != 1 {
		t.Errorf("值班既有班次不应抵扣驻场需求: created=%d", len(result.Shifts))
	}
}

func TestEngine_Run_ContextCancelled(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(PresidioOptions()).Run(ctx, in)
	if !apperrors.Is(err, apperrors.CodeTimeout) {
		t.Errorf("取消的上下文应返回 TIMEOUT, got %v", err)
	}
}

func TestEngine_Run_MessageSummary(t *testing.T) {
	emp := testEmployee("Anna", "Operatore")
	in := testInput(
		model.DateRange{StartDate: testMonday, EndDate: testMonday},
		[]*model.Employee{emp},
		[]*model.CoverageRule{newRule(0, "08:00", "14:00", model.RoleCount{"Operatore": 1})},
	)

	result, err := New(PresidioOptions()).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if !strings.Contains(result.Message, "共生成 1 个班次") {
		t.Errorf("Message = %q", result.Message)
	}
	if result.Duration <= 0 {
		t.Error("Duration 应为正值")
	}
}
