// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/turni/turni/pkg/model"
)

// CoverageRepository 覆盖规则仓储
type CoverageRepository struct {
	db DB
}

// NewCoverageRepository 创建覆盖规则仓储
func NewCoverageRepository(db DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

const coverageColumns = `id, org_id, weekday, start_time, end_time, valid_from, valid_to, active, required_roles, created_at, updated_at`

// Create 创建覆盖规则
func (r *CoverageRepository) Create(ctx context.Context, c *model.CoverageRule) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	rolesJSON, err := json.Marshal(c.RequiredRoles)
	if err != nil {
		return fmt.Errorf("序列化角色需求失败: %w", err)
	}

	query := `
		INSERT INTO coverage_rules (
			id, org_id, weekday, start_time, end_time, valid_from, valid_to,
			active, required_roles, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.OrgID, c.Weekday, c.StartTime, c.EndTime, c.ValidFrom, c.ValidTo,
		c.Active, rolesJSON, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建覆盖规则失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取覆盖规则
func (r *CoverageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CoverageRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM coverage_rules WHERE id = $1 AND deleted_at IS NULL`, coverageColumns)

	c, err := scanCoverageRule(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询覆盖规则失败: %w", err)
	}

	return c, nil
}

// Update 更新覆盖规则
func (r *CoverageRepository) Update(ctx context.Context, c *model.CoverageRule) error {
	c.UpdatedAt = time.Now()

	rolesJSON, err := json.Marshal(c.RequiredRoles)
	if err != nil {
		return fmt.Errorf("序列化角色需求失败: %w", err)
	}

	query := `
		UPDATE coverage_rules SET
			weekday = $2, start_time = $3, end_time = $4, valid_from = $5, valid_to = $6,
			active = $7, required_roles = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.Weekday, c.StartTime, c.EndTime, c.ValidFrom, c.ValidTo,
		c.Active, rolesJSON, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新覆盖规则失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("覆盖规则不存在")
	}

	return nil
}

// Delete 软删除覆盖规则
func (r *CoverageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE coverage_rules SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除覆盖规则失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("覆盖规则不存在")
	}

	return nil
}

// ListActiveInWindow 获取有效期与窗口相交的启用规则
// 逐日筛选与合并由引擎完成，这里只做粗过滤
func (r *CoverageRepository) ListActiveInWindow(ctx context.Context, orgID uuid.UUID, startDate, endDate string) ([]*model.CoverageRule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM coverage_rules
		WHERE org_id = $1 AND active = true AND deleted_at IS NULL
			AND valid_from <= $3 AND valid_to >= $2
		ORDER BY weekday, start_time
	`, coverageColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询覆盖规则失败: %w", err)
	}
	defer rows.Close()

	var rules []*model.CoverageRule
	for rows.Next() {
		c, err := scanCoverageRule(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		rules = append(rules, c)
	}

	return rules, nil
}

// scanCoverageRule 扫描一行覆盖规则
// required_roles 为 JSONB，历史数据中可能是角色列表而非映射，
// 归一化由 RoleCount 的反序列化统一处理
func scanCoverageRule(row Scanner) (*model.CoverageRule, error) {
	c := &model.CoverageRule{}
	var rolesJSON []byte
	if err := row.Scan(
		&c.ID, &c.OrgID, &c.Weekday, &c.StartTime, &c.EndTime, &c.ValidFrom, &c.ValidTo,
		&c.Active, &rolesJSON, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rolesJSON, &c.RequiredRoles); err != nil {
		return nil, fmt.Errorf("解析角色需求失败: %w", err)
	}
	return c, nil
}
