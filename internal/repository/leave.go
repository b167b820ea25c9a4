// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// LeaveRepository 请假仓储
type LeaveRepository struct {
	db DB
}

// NewLeaveRepository 创建请假仓储
func NewLeaveRepository(db DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, org_id, employee_id, start_date, end_date, status, reason, created_at, updated_at`

// Create 创建请假记录
func (r *LeaveRepository) Create(ctx context.Context, l *model.Leave) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
		INSERT INTO leaves (
			id, org_id, employee_id, start_date, end_date, status, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.OrgID, l.EmployeeID, l.StartDate, l.EndDate, l.Status, l.Reason, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建请假记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取请假记录
func (r *LeaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	query := fmt.Sprintf(`SELECT %s FROM leaves WHERE id = $1 AND deleted_at IS NULL`, leaveColumns)

	l := &model.Leave{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.OrgID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.Reason,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询请假记录失败: %w", err)
	}

	return l, nil
}

// UpdateStatus 更新请假状态
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE leaves SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新请假状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("请假记录不存在")
	}

	return nil
}

// ListApprovedInWindow 获取与窗口相交的已批准请假
func (r *LeaveRepository) ListApprovedInWindow(ctx context.Context, orgID uuid.UUID, startDate, endDate string) ([]*model.Leave, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leaves
		WHERE org_id = $1 AND status = $2 AND deleted_at IS NULL
			AND start_date <= $4 AND end_date >= $3
		ORDER BY start_date
	`, leaveColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID, model.LeaveApproved, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询请假记录失败: %w", err)
	}
	defer rows.Close()

	var leaves []*model.Leave
	for rows.Next() {
		l := &model.Leave{}
		if err := rows.Scan(
			&l.ID, &l.OrgID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.Reason,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		leaves = append(leaves, l)
	}

	return leaves, nil
}

// HolidayRepository 节假日仓储
type HolidayRepository struct {
	db DB
}

// NewHolidayRepository 创建节假日仓储
func NewHolidayRepository(db DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create 创建节假日
func (r *HolidayRepository) Create(ctx context.Context, h *model.Holiday) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	query := `
		INSERT INTO holidays (id, org_id, name, month, day, site_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, h.ID, h.OrgID, h.Name, h.Month, h.Day, h.SiteID)
	if err != nil {
		return fmt.Errorf("创建节假日失败: %w", err)
	}

	return nil
}

// Delete 删除节假日
func (r *HolidayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除节假日失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("节假日不存在")
	}

	return nil
}

// ListByOrg 获取组织的全部节假日
// 节假日是月/日记录，数量很小，整表装入引擎
func (r *HolidayRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.Holiday, error) {
	query := `
		SELECT id, org_id, name, month, day, site_id
		FROM holidays
		WHERE org_id = $1
		ORDER BY month, day
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询节假日失败: %w", err)
	}
	defer rows.Close()

	var holidays []*model.Holiday
	for rows.Next() {
		h := &model.Holiday{}
		if err := rows.Scan(&h.ID, &h.OrgID, &h.Name, &h.Month, &h.Day, &h.SiteID); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		holidays = append(holidays, h)
	}

	return holidays, nil
}
