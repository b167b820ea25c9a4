// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/turni/turni/pkg/errors"
	"github.com/turni/turni/pkg/model"
)

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, org_id, employee_id, date, start_time, end_time, kind, on_call, created_by, created_at, updated_at`

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, s *model.Shift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `
		INSERT INTO shifts (
			id, org_id, employee_id, date, start_time, end_time, kind, on_call,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OrgID, s.EmployeeID, s.Date, s.StartTime, s.EndTime, s.Kind, s.OnCall,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return translateShiftError(err)
	}

	return nil
}

// CreateBatch 批量创建班次
// 生成结果整批写入同一条 INSERT，配合外层事务保证全有或全无；
// 撞上 (org_id, employee_id, date, start_time) 唯一约束说明
// 有并发写入者抢先提交，翻译为写入冲突错误由调用方重试
func (r *ShiftRepository) CreateBatch(ctx context.Context, shifts []*model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	var values []string
	var args []interface{}
	argIndex := 1

	now := time.Now()
	for _, s := range shifts {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.CreatedAt = now
		s.UpdatedAt = now

		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3, argIndex+4, argIndex+5,
			argIndex+6, argIndex+7, argIndex+8, argIndex+9, argIndex+10,
		))
		args = append(args,
			s.ID, s.OrgID, s.EmployeeID, s.Date, s.StartTime, s.EndTime, s.Kind, s.OnCall,
			s.CreatedBy, s.CreatedAt, s.UpdatedAt,
		)
		argIndex += 11
	}

	query := fmt.Sprintf(`
		INSERT INTO shifts (
			id, org_id, employee_id, date, start_time, end_time, kind, on_call,
			created_by, created_at, updated_at
		) VALUES %s
	`, strings.Join(values, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateShiftError(err)
	}

	return nil
}

// GetByID 根据ID获取班次
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1 AND deleted_at IS NULL`, shiftColumns)

	s := &model.Shift{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.OrgID, &s.EmployeeID, &s.Date, &s.StartTime, &s.EndTime, &s.Kind, &s.OnCall,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}

	return s, nil
}

// Delete 软删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shifts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

// ListInWindow 获取窗口内的班次
// 驻场与值班名册共用一张表，引擎按 on_call 标志自行过滤
func (r *ShiftRepository) ListInWindow(ctx context.Context, orgID uuid.UUID, startDate, endDate string) ([]*model.Shift, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE org_id = $1 AND date >= $2 AND date <= $3 AND deleted_at IS NULL
		ORDER BY date, start_time
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// ListByEmployee 获取员工在日期范围内的班次
func (r *ShiftRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]*model.Shift, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE employee_id = $1 AND date >= $2 AND date <= $3 AND deleted_at IS NULL
		ORDER BY date, start_time
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, employeeID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// DeleteGeneratedInWindow 软删除窗口内某名册的全部引擎生成班次
// 人工创建的班次（created_by 为空）不受影响
func (r *ShiftRepository) DeleteGeneratedInWindow(ctx context.Context, orgID uuid.UUID, startDate, endDate string, onCall bool) (int64, error) {
	query := `
		UPDATE shifts SET deleted_at = $5
		WHERE org_id = $1 AND date >= $2 AND date <= $3 AND on_call = $4
			AND created_by IS NOT NULL AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, orgID, startDate, endDate, onCall, time.Now())
	if err != nil {
		return 0, fmt.Errorf("删除生成班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// scanShifts 扫描班次结果集
func scanShifts(rows *sql.Rows) ([]*model.Shift, error) {
	var shifts []*model.Shift
	for rows.Next() {
		s := &model.Shift{}
		if err := rows.Scan(
			&s.ID, &s.OrgID, &s.EmployeeID, &s.Date, &s.StartTime, &s.EndTime, &s.Kind, &s.OnCall,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

// translateShiftError 把驱动错误翻译为应用错误
func translateShiftError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.PersistenceConflict(pqErr.Detail)
	}
	return fmt.Errorf("写入班次失败: %w", err)
}
