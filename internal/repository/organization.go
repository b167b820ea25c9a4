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

// OrganizationRepository 组织仓储
type OrganizationRepository struct {
	db DB
}

// NewOrganizationRepository 创建组织仓储
func NewOrganizationRepository(db DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create 创建组织
func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	settingsJSON, err := json.Marshal(org.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, code, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Code, settingsJSON, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建组织失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取组织
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, name, code, settings, created_at, updated_at
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据Code获取组织
func (r *OrganizationRepository) GetByCode(ctx context.Context, code string) (*model.Organization, error) {
	query := `
		SELECT id, name, code, settings, created_at, updated_at
		FROM organizations
		WHERE code = $1 AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *OrganizationRepository) scanOne(row *sql.Row) (*model.Organization, error) {
	org := &model.Organization{}
	var settingsJSON []byte

	err := row.Scan(&org.ID, &org.Name, &org.Code, &settingsJSON, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询组织失败: %w", err)
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &org.Settings); err != nil {
			return nil, fmt.Errorf("解析settings失败: %w", err)
		}
	}

	return org, nil
}
