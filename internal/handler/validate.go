package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/turni/turni/internal/database"
	"github.com/turni/turni/internal/metrics"
	"github.com/turni/turni/internal/repository"
	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/model"
	"github.com/turni/turni/pkg/validator"
)

// ValidateHandler 名册校验处理器
type ValidateHandler struct {
	leaves   *repository.LeaveRepository
	holidays *repository.HolidayRepository
	shifts   *repository.ShiftRepository
}

// NewValidateHandler 创建名册校验处理器
func NewValidateHandler(db *database.DB) *ValidateHandler {
	return &ValidateHandler{
		leaves:   repository.NewLeaveRepository(db),
		holidays: repository.NewHolidayRepository(db),
		shifts:   repository.NewShiftRepository(db),
	}
}

// ValidateRequest 名册校验请求
type ValidateRequest struct {
	OrgID     string `json:"org_id"`
	SiteID    string `json:"site_id,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ValidateResponse 名册校验响应
type ValidateResponse struct {
	Valid     bool                 `json:"valid"`
	Checked   int                  `json:"checked"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Validate 校验窗口内的名册
// 引擎生成的班次不会有这些冲突，人工改动后才需要校验
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	orgID, siteID, appErr := parseOrgAndSite(req.OrgID, req.SiteID)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := validateWindowParams(req.StartDate, req.EndDate); appErr != nil {
		respondError(w, appErr)
		return
	}

	ctx := r.Context()
	shifts, err := h.shifts.ListInWindow(ctx, orgID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载班次失败"))
		return
	}
	leaves, err := h.leaves.ListApprovedInWindow(ctx, orgID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载请假失败"))
		return
	}
	holidays, err := h.holidays.ListByOrg(ctx, orgID)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载节假日失败"))
		return
	}

	report := validator.Validate(shifts, leaves, holidays, siteID)

	byKind := make(map[string]int)
	for _, c := range report.Conflicts {
		byKind[c.Kind]++
	}
	for kind, count := range byKind {
		metrics.RecordRosterConflicts(kind, count)
	}

	if report.Conflicts == nil {
		report.Conflicts = []validator.Conflict{}
	}
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:     !report.HasConflicts(),
		Checked:   report.Checked,
		Conflicts: report.Conflicts,
	})
}

// parseOrgAndSite 解析组织与可选驻点ID
func parseOrgAndSite(org, site string) (uuid.UUID, *uuid.UUID, *apperrors.AppError) {
	if org == "" {
		return uuid.Nil, nil, apperrors.New(apperrors.CodeInvalidInput, "组织ID不能为空")
	}
	orgID, err := uuid.Parse(org)
	if err != nil {
		return uuid.Nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的组织ID格式")
	}

	var siteID *uuid.UUID
	if site != "" {
		id, err := uuid.Parse(site)
		if err != nil {
			return uuid.Nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的驻点ID格式")
		}
		siteID = &id
	}
	return orgID, siteID, nil
}

// validateWindowParams 检查日期参数
func validateWindowParams(start, end string) *apperrors.AppError {
	ve := &apperrors.ValidationErrors{}
	if start == "" {
		ve.Add("start_date", "开始日期不能为空")
	} else if _, err := time.Parse(model.DateLayout, start); err != nil {
		ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
	}
	if end == "" {
		ve.Add("end_date", "结束日期不能为空")
	} else if _, err := time.Parse(model.DateLayout, end); err != nil {
		ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
