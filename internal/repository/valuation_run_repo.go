package repository

import (
	"context"

	"forestval/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ValuationRunRepository interface {
	Create(ctx context.Context, run *model.ValuationRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ValuationRun, error)
	List(ctx context.Context, status string, page, limit int) ([]model.ValuationRun, int64, error)
}

type valuationRunRepository struct {
	db *gorm.DB
}

func NewValuationRunRepository(db *gorm.DB) ValuationRunRepository {
	return &valuationRunRepository{db: db}
}

func (r *valuationRunRepository) Create(ctx context.Context, run *model.ValuationRun) error {
	return GetDB(ctx, r.db).Create(run).Error
}

func (r *valuationRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ValuationRun, error) {
	var run model.ValuationRun
	if err := GetDB(ctx, r.db).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first; an empty status matches every run.
func (r *valuationRunRepository) List(ctx context.Context, status string, page, limit int) ([]model.ValuationRun, int64, error) {
	var runs []model.ValuationRun
	var total int64

	scoped := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&model.ValuationRun{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := scoped().Order("created_at desc").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}
