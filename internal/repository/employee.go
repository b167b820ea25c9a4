// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// EmployeeRepository 员工仓储
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, org_id, name, email, role, active, part_time_percent, site_id, created_at, updated_at`

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `
		INSERT INTO employees (
			id, org_id, name, email, role, active, part_time_percent, site_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OrgID, e.Name, e.Email, e.Role, e.Active,
		e.PartTimePercent, e.SiteID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取员工
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1 AND deleted_at IS NULL`, employeeColumns)

	e := &model.Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.OrgID, &e.Name, &e.Email, &e.Role, &e.Active,
		&e.PartTimePercent, &e.SiteID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询员工失败: %w", err)
	}

	return e, nil
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	e.UpdatedAt = time.Now()

	query := `
		UPDATE employees SET
			name = $2, email = $3, role = $4, active = $5,
			part_time_percent = $6, site_id = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Email, e.Role, e.Active, e.PartTimePercent, e.SiteID, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// Delete 软删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// List 查询员工列表
func (r *EmployeeRepository) List(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Status != "" {
		active := filter.Status == "active"
		conditions = append(conditions, fmt.Sprintf("active = $%d", argIndex))
		args = append(args, active)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, employeeColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		e := &model.Employee{}
		if err := rows.Scan(
			&e.ID, &e.OrgID, &e.Name, &e.Email, &e.Role, &e.Active,
			&e.PartTimePercent, &e.SiteID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描行失败: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, total, nil
}

// ListActive 获取组织下所有在职员工
// 生成引擎一次性装入全量在职员工，不做分页
func (r *EmployeeRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*model.Employee, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE org_id = $1 AND active = true AND deleted_at IS NULL
		ORDER BY name ASC
	`, employeeColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询在职员工失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		e := &model.Employee{}
		if err := rows.Scan(
			&e.ID, &e.OrgID, &e.Name, &e.Email, &e.Role, &e.Active,
			&e.PartTimePercent, &e.SiteID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}
