// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/turni/turni/internal/config"
	"github.com/turni/turni/internal/database"
	"github.com/turni/turni/internal/metrics"
	"github.com/turni/turni/internal/repository"
	"github.com/turni/turni/pkg/engine"
	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/model"
	"github.com/turni/turni/pkg/validator"
)

// GenerateHandler 排班生成处理器
// 驻场与值班两个入口共用同一套装载、求解、落库流程
type GenerateHandler struct {
	db        *database.DB
	cfg       *config.EngineConfig
	orgs      *repository.OrganizationRepository
	employees *repository.EmployeeRepository
	coverage  *repository.CoverageRepository
	leaves    *repository.LeaveRepository
	holidays  *repository.HolidayRepository
	shifts    *repository.ShiftRepository
}

// NewGenerateHandler 创建排班生成处理器
func NewGenerateHandler(db *database.DB, cfg *config.EngineConfig) *GenerateHandler {
	return &GenerateHandler{
		db:        db,
		cfg:       cfg,
		orgs:      repository.NewOrganizationRepository(db),
		employees: repository.NewEmployeeRepository(db),
		coverage:  repository.NewCoverageRepository(db),
		leaves:    repository.NewLeaveRepository(db),
		holidays:  repository.NewHolidayRepository(db),
		shifts:    repository.NewShiftRepository(db),
	}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	OrgID     string `json:"org_id"`
	SiteID    string `json:"site_id,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedBy string `json:"created_by,omitempty"`

	// Replace 为真时先软删除窗口内既有的引擎生成班次再重新生成；
	// 默认增量模式：既有班次抵扣需求，只补缺口
	Replace bool `json:"replace,omitempty"`
}

// ShiftOutput 班次输出
type ShiftOutput struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Kind       string  `json:"kind"`
	OnCall     bool    `json:"on_call"`
	Hours      float64 `json:"hours"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success   bool                  `json:"success"`
	Created   int                   `json:"created"`
	Message   string                `json:"message"`
	Shifts    []ShiftOutput         `json:"shifts"`
	Uncovered []model.UncoveredSlot `json:"uncovered,omitempty"`
	Notes     []string              `json:"notes,omitempty"`
	Duration  string                `json:"duration"`
}

// GeneratePresidio 生成驻场排班
func (h *GenerateHandler) GeneratePresidio(w http.ResponseWriter, r *http.Request) {
	opts := engine.PresidioOptions()
	opts.AllowChainedSegments = h.cfg.AllowChainedSegments
	h.generate(w, r, opts)
}

// GenerateOnCall 生成值班排班
func (h *GenerateHandler) GenerateOnCall(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, engine.OnCallOptions())
}

// generate 执行一次生成：读事务装载快照、内存求解、写事务整批落库
func (h *GenerateHandler) generate(w http.ResponseWriter, r *http.Request, opts engine.Options) {
	began := time.Now()
	variant := string(opts.Variant)

	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	input, appErr := h.buildInput(r.Context(), &req)
	if appErr != nil {
		metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
		respondError(w, appErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if req.Replace {
		removed, err := h.shifts.DeleteGeneratedInWindow(ctx, input.OrgID,
			input.Window.StartDate, input.Window.EndDate, opts.Variant == engine.VariantOnCall)
		if err != nil {
			metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
			respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "清理既有班次失败"))
			return
		}
		if removed > 0 {
			// 抵扣与重叠检查不应再看到被替换的班次
			input.Existing = nil
			existing, err := h.shifts.ListInWindow(ctx, input.OrgID, input.Window.StartDate, input.Window.EndDate)
			if err != nil {
				metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
				respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载既有班次失败"))
				return
			}
			input.Existing = existing
		}
	}

	eng := engine.New(opts)
	result, err := eng.Run(ctx, input)
	if err != nil {
		metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
		respondError(w, toAppError(err))
		return
	}

	// 落库前做一次一致性校验；引擎输出不应触发任何冲突
	check := validator.Validate(result.Shifts, input.Leaves, input.Holidays, input.SiteID)
	if check.HasConflicts() {
		for _, c := range check.Conflicts {
			metrics.RecordRosterConflicts(c.Kind, 1)
		}
		metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
		respondError(w, apperrors.New(apperrors.CodeRosterConflict, "生成结果未通过一致性校验").
			WithDetails(check.Conflicts[0].Detail))
		return
	}

	if len(result.Shifts) > 0 {
		err = h.db.Transaction(ctx, func(tx *sql.Tx) error {
			return repository.NewShiftRepository(tx).CreateBatch(ctx, result.Shifts)
		})
		if err != nil {
			metrics.RecordGeneration(variant, false, 0, 0, time.Since(began))
			respondError(w, toAppError(err))
			return
		}
	}

	metrics.RecordGeneration(variant, true, len(result.Shifts), len(result.Uncovered), result.Duration)

	outputs := make([]ShiftOutput, len(result.Shifts))
	for i, s := range result.Shifts {
		outputs[i] = ShiftOutput{
			ID:         s.ID.String(),
			EmployeeID: s.EmployeeID.String(),
			Date:       s.Date,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Kind:       string(s.Kind),
			OnCall:     s.OnCall,
			Hours:      s.Hours(),
		}
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:   true,
		Created:   result.CreatedCount(),
		Message:   result.Message,
		Shifts:    outputs,
		Uncovered: result.Uncovered,
		Notes:     result.Notes,
		Duration:  result.Duration.String(),
	})
}

// buildInput 校验请求并装载引擎输入快照
func (h *GenerateHandler) buildInput(ctx context.Context, req *GenerateRequest) (*engine.Input, *apperrors.AppError) {
	if appErr := validateGenerateRequest(req); appErr != nil {
		return nil, appErr
	}

	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的组织ID格式")
	}

	var siteID *uuid.UUID
	if req.SiteID != "" {
		id, err := uuid.Parse(req.SiteID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的驻点ID格式")
		}
		siteID = &id
	}

	var createdBy *uuid.UUID
	if req.CreatedBy != "" {
		id, err := uuid.Parse(req.CreatedBy)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的操作人ID格式")
		}
		createdBy = &id
	}

	window := model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}
	if days := len(window.Days()); days == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidTimeRange, "生成窗口无效")
	} else if days > h.cfg.MaxWindowDays {
		return nil, apperrors.New(apperrors.CodeInvalidTimeRange, "生成窗口超过允许的最大天数")
	}

	org, err := h.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载组织失败")
	}
	if org == nil {
		return nil, apperrors.NotFound("组织", req.OrgID)
	}

	employees, err := h.employees.ListActive(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载员工失败")
	}
	rules, err := h.coverage.ListActiveInWindow(ctx, orgID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载覆盖规则失败")
	}
	leaves, err := h.leaves.ListApprovedInWindow(ctx, orgID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载请假失败")
	}
	holidays, err := h.holidays.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载节假日失败")
	}
	existing, err := h.shifts.ListInWindow(ctx, orgID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载既有班次失败")
	}

	return &engine.Input{
		OrgID:     orgID,
		SiteID:    siteID,
		Window:    window,
		Employees: employees,
		Rules:     rules,
		Leaves:    leaves,
		Holidays:  holidays,
		Existing:  existing,
		CreatedBy: createdBy,
	}, nil
}

// validateGenerateRequest 验证请求
func validateGenerateRequest(req *GenerateRequest) *apperrors.AppError {
	ve := &apperrors.ValidationErrors{}

	if req.OrgID == "" {
		ve.Add("org_id", "组织ID不能为空")
	}
	if req.StartDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	}
	if req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}

	if req.StartDate != "" {
		if _, err := time.Parse(model.DateLayout, req.StartDate); err != nil {
			ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse(model.DateLayout, req.EndDate); err != nil {
			ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
