package handler

import (
	"net/http"

	"github.com/turni/turni/internal/database"
	"github.com/turni/turni/internal/metrics"
	"github.com/turni/turni/internal/repository"
	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/model"
	"github.com/turni/turni/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	employees *repository.EmployeeRepository
	shifts    *repository.ShiftRepository
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler(db *database.DB) *StatsHandler {
	return &StatsHandler{
		employees: repository.NewEmployeeRepository(db),
		shifts:    repository.NewShiftRepository(db),
	}
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                  `json:"success"`
	Data    *stats.FairnessReport `json:"data,omitempty"`
}

// CoverageResponse 覆盖汇总响应
type CoverageResponse struct {
	Success bool                  `json:"success"`
	Data    *stats.CoverageReport `json:"data,omitempty"`
}

// Fairness 公平性分析API
// GET /api/v1/stats/fairness?org_id=&start_date=&end_date=&on_call=
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	input, appErr := h.loadStatsInput(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	report := stats.Fairness(input.employees, input.shifts, input.window)

	for _, role := range report.Roles {
		metrics.SetFairnessStdDev(input.orgID, string(role.Role), role.StdDev)
	}

	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: report})
}

// Coverage 覆盖汇总API
// GET /api/v1/stats/coverage?org_id=&start_date=&end_date=&on_call=
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	input, appErr := h.loadStatsInput(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	report := stats.Coverage(input.employees, input.shifts, input.window)
	respondJSON(w, http.StatusOK, CoverageResponse{Success: true, Data: report})
}

type statsInput struct {
	orgID     string
	window    model.DateRange
	employees []*model.Employee
	shifts    []*model.Shift
}

// loadStatsInput 解析查询参数并装载统计输入
// 驻场与值班名册分开统计，on_call=true 切到值班侧
func (h *StatsHandler) loadStatsInput(r *http.Request) (*statsInput, *apperrors.AppError) {
	if r.Method != http.MethodGet {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "仅支持GET方法")
	}

	q := r.URL.Query()
	orgID, _, appErr := parseOrgAndSite(q.Get("org_id"), "")
	if appErr != nil {
		return nil, appErr
	}
	start, end := q.Get("start_date"), q.Get("end_date")
	if appErr := validateWindowParams(start, end); appErr != nil {
		return nil, appErr
	}
	onCall := q.Get("on_call") == "true"

	ctx := r.Context()
	employees, err := h.employees.ListActive(ctx, orgID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载员工失败")
	}
	all, err := h.shifts.ListInWindow(ctx, orgID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "装载班次失败")
	}

	var shifts []*model.Shift
	for _, s := range all {
		if s.OnCall == onCall {
			shifts = append(shifts, s)
		}
	}

	return &statsInput{
		orgID:     orgID.String(),
		window:    model.DateRange{StartDate: start, EndDate: end},
		employees: employees,
		shifts:    shifts,
	}, nil
}
