package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/logger"
	"github.com/turni/turni/pkg/model"
)

// Variant 生成模式
type Variant string

const (
	// VariantPresidio 驻场排班：窗口切分、节假日跳过、公平性选人
	VariantPresidio Variant = "presidio"
	// VariantOnCall 值班排班：整窗分配、节假日规则生效、按工时轮转
	VariantOnCall Variant = "oncall"
)

// Options 引擎行为参数
// 驻场与值班共用同一个驱动循环，差异全部收敛在这里
type Options struct {
	Variant Variant

	// Segmentation 把超过 7 小时的窗口切成班段
	Segmentation bool

	// HolidaySkip 节假日整天跳过，不生成任何班次
	HolidaySkip bool

	// AllowChainedSegments 允许同一员工承接同日相接的班段；
	// 落库时后一段开始时刻后移一分钟，保持名册严格不相接
	AllowChainedSegments bool

	// AnyRoleFallback 本角色完全无人时扩大到任意在职员工，
	// 以替岗提示代替未覆盖警告
	AnyRoleFallback bool

	picker Picker
}

// PresidioOptions 返回驻场模式的参数
func PresidioOptions() Options {
	return Options{
		Variant:              VariantPresidio,
		Segmentation:         true,
		HolidaySkip:          true,
		AllowChainedSegments: true,
		AnyRoleFallback:      false,
		picker:               NewFairnessPicker(),
	}
}

// OnCallOptions 返回值班模式的参数
func OnCallOptions() Options {
	return Options{
		Variant:              VariantOnCall,
		Segmentation:         false,
		HolidaySkip:          false,
		AllowChainedSegments: false,
		AnyRoleFallback:      true,
		picker:               NewOnCallPicker(),
	}
}

// Input 一次生成的输入快照
// 引擎不做任何 I/O，所有数据由调用方一次性装入
type Input struct {
	OrgID  uuid.UUID
	SiteID *uuid.UUID
	Window model.DateRange

	Employees []*model.Employee
	Rules     []*model.CoverageRule
	Leaves    []*model.Leave
	Holidays  []*model.Holiday

	// Existing 窗口内既有班次，用于播种工时与重叠检查；
	// 与班段完全重合的既有班次直接抵扣需求，重跑不会翻倍
	Existing []*model.Shift

	CreatedBy *uuid.UUID
}

// Result 一次生成的输出
type Result struct {
	Shifts    []*model.Shift
	Uncovered []model.UncoveredSlot

	// Notes 非警告级提示：被跳过的无效规则、替岗记录等
	Notes []string

	Message  string
	Duration time.Duration
}

// CreatedCount 返回新生成的班次数
func (r *Result) CreatedCount() int {
	return len(r.Shifts)
}

// Engine 排班生成引擎
type Engine struct {
	opts Options
	log  *logger.EngineLogger
}

// New 创建引擎
func New(opts Options) *Engine {
	if opts.picker == nil {
		if opts.Variant == VariantOnCall {
			opts.picker = NewOnCallPicker()
		} else {
			opts.picker = NewFairnessPicker()
		}
	}
	return &Engine{
		opts: opts,
		log:  logger.NewEngineLogger(string(opts.Variant)),
	}
}

// existingSeg 既有班次换算出的占用段，用于抵扣需求
type existingSeg struct {
	start int
	end   int
	role  model.Role
	used  bool
}

// Run 执行一次生成
//
// 单线程、同步、无 I/O；对输入快照是纯函数。
// 整个窗口内没有任何生效规则时返回 NoCoverageForWindow 错误；
// 个别班段无人可排只产生警告，不中断运行
func (e *Engine) Run(ctx context.Context, in *Input) (*Result, error) {
	began := time.Now()

	if err := validateWindow(in.Window); err != nil {
		return nil, err
	}

	validRules, notes := e.splitValidRules(in.Rules)
	e.log.StartRun(in.Window.StartDate, in.Window.EndDate, len(in.Employees), len(validRules))

	cal := NewHolidayCalendar(in.Holidays)
	leaves := NewLeaveIndex(in.Leaves, in.Window)

	util := NewTracker()
	book := newAssignmentBook()
	byRole := make(map[uuid.UUID]model.Role, len(in.Employees))
	for _, emp := range in.Employees {
		byRole[emp.ID] = emp.Role
	}

	existingByDate := make(map[string][]*existingSeg)
	for _, s := range in.Existing {
		if s.OnCall != (e.opts.Variant == VariantOnCall) {
			continue
		}
		util.Add(s.EmployeeID, s.Hours())
		book.SeedShift(s)

		start, err1 := model.ParseClock(s.StartTime)
		end, err2 := model.ParseClock(s.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if role, ok := byRole[s.EmployeeID]; ok {
			existingByDate[s.Date] = append(existingByDate[s.Date], &existingSeg{
				start: start,
				end:   start + model.SpanMinutes(start, end),
				role:  role,
			})
		}
	}

	result := &Result{Notes: notes}
	anyRule := false

	for _, day := range in.Window.Days() {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTimeout, "排班生成被中断")
		}

		holiday := cal.IsHoliday(day, in.SiteID)
		if holiday && e.opts.HolidaySkip {
			continue
		}

		slots := slotsForDate(validRules, day, holiday)
		if len(slots) > 0 {
			anyRule = true
		}

		for _, slot := range slots {
			for _, seg := range segmentsForSlot(slot, e.opts.Segmentation) {
				e.fillSegment(in, day, seg, slot.Required, util, book, leaves, existingByDate[day], result)
			}
		}
	}

	if !anyRule {
		err := apperrors.NoCoverageForWindow()
		if len(notes) > 0 {
			// 全部规则被跳过时把跳过原因带进错误，便于排查
			err = err.WithDetails(strings.Join(notes, "; "))
		}
		return nil, err
	}

	result.Duration = time.Since(began)
	result.Message = buildMessage(result)
	e.log.RunComplete(len(result.Shifts), len(result.Uncovered), result.Duration)

	return result, nil
}

// fillSegment 为一个班段逐角色分配员工
// 角色按人数展开，段内每个名额独立选人；
// 同段同角色的两个名额由重叠规则保证落在不同人身上
func (e *Engine) fillSegment(in *Input, day string, seg Segment, required model.RoleCount,
	util *Tracker, book *assignmentBook, leaves *LeaveIndex, existing []*existingSeg, result *Result) {

	filter := newFilter(book, leaves, e.opts.AllowChainedSegments)

	for _, role := range required.Expand() {
		if consumeExisting(existing, seg, role, e.opts.AnyRoleFallback) {
			continue
		}

		candidates := filter.Candidates(in.Employees, role, day, seg, false)
		if len(candidates) == 0 {
			candidates = filter.Candidates(in.Employees, role, day, seg, true)
			if len(candidates) > 0 {
				e.log.ConstraintRelaxed(day, seg.StartClock(), seg.EndClock(), string(role))
			}
		}

		substituted := false
		if len(candidates) == 0 && e.opts.AnyRoleFallback {
			candidates = filter.AnyRoleCandidates(in.Employees, day, seg)
			substituted = len(candidates) > 0
		}

		if len(candidates) == 0 {
			uncovered := model.UncoveredSlot{
				Date:      day,
				StartTime: seg.StartClock(),
				EndTime:   seg.EndClock(),
				Role:      role,
				Reason:    fmt.Sprintf("no %s available", role),
			}
			result.Uncovered = append(result.Uncovered, uncovered)
			e.log.SlotUncovered(day, seg.StartClock(), seg.EndClock(), string(role))
			continue
		}

		chosen := e.opts.picker.Pick(candidates, role, in.Employees, util)
		if substituted {
			result.Notes = append(result.Notes,
				fmt.Sprintf("%s %s-%s: 角色 %s 无人可用，由 %s（%s）替岗",
					day, seg.StartClock(), seg.EndClock(), role, chosen.Name, chosen.Role))
		}

		emitStart := seg.Start
		if e.opts.AllowChainedSegments && book.adjacentEnd(chosen.ID, day, emitStart) {
			// 同一人连段时把后一段开始后移一分钟，保持名册严格不相接
			emitStart++
		}

		shift := &model.Shift{
			OrgID:      in.OrgID,
			EmployeeID: chosen.ID,
			Date:       day,
			StartTime:  model.FormatClock(emitStart),
			EndTime:    seg.EndClock(),
			Kind:       model.KindForStart(seg.Start),
			OnCall:     e.opts.Variant == VariantOnCall,
			CreatedBy:  in.CreatedBy,
		}
		shift.ID = uuid.New()

		result.Shifts = append(result.Shifts, shift)
		book.Add(chosen.ID, day, emitStart, seg.End)
		util.Add(chosen.ID, float64(seg.End-emitStart)/60.0)
	}
}

// consumeExisting 抵扣与班段完全重合的既有班次
// 开始时刻允许一分钟偏差，兼容连段后移过的历史记录。
// anyRole 开启时，本角色无匹配的情况下异角色班次也可抵扣，
// 否则替岗产生的既有班次在重跑时会被重复排
func consumeExisting(existing []*existingSeg, seg Segment, role model.Role, anyRole bool) bool {
	var substitute *existingSeg
	for _, es := range existing {
		if es.used {
			continue
		}
		if es.end != seg.End {
			continue
		}
		if es.start != seg.Start && es.start != seg.Start+1 {
			continue
		}
		if es.role == role {
			es.used = true
			return true
		}
		if anyRole && substitute == nil {
			substitute = es
		}
	}
	if substitute != nil {
		substitute.used = true
		return true
	}
	return false
}

// splitValidRules 把覆盖规则分成有效与无效两组
// 无效规则（零时长、超 16 小时等）跳过并记一条提示，不中断运行
func (e *Engine) splitValidRules(rules []*model.CoverageRule) ([]*model.CoverageRule, []string) {
	var valid []*model.CoverageRule
	var notes []string
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			notes = append(notes, fmt.Sprintf("覆盖规则 %s 已跳过: %v", r.ID, err))
			e.log.RuleSkipped(r.ID.String(), err.Error())
			continue
		}
		valid = append(valid, r)
	}
	return valid, notes
}

// validateWindow 检查生成窗口
func validateWindow(w model.DateRange) error {
	start, err := time.Parse(model.DateLayout, w.StartDate)
	if err != nil {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("开始日期 %q 无效", w.StartDate))
	}
	end, err := time.Parse(model.DateLayout, w.EndDate)
	if err != nil {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("结束日期 %q 无效", w.EndDate))
	}
	if end.Before(start) {
		return apperrors.New(apperrors.CodeInvalidTimeRange, "结束日期早于开始日期")
	}
	return nil
}
