package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Preload("Answers").Preload("CategoryScores").First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) LatestByUser(userID uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser 历史列表不带逐题明细，避免大结果集。
func (r *AssessmentRepository) ListByUser(userID uint, limit int) ([]model.Assessment, error) {
	var as []model.Assessment
	query := r.DB.Preload("CategoryScores").
		Where("user_id = ?", userID).Order("completed_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&as).Error
	return as, err
}

// ListRecentByUser 最近几次测评的主记录，弱项聚合用，不带关联数据。
func (r *AssessmentRepository) ListRecentByUser(userID uint, limit int) ([]model.Assessment, error) {
	var as []model.Assessment
	err := r.DB.Where("user_id = ?", userID).
		Order("completed_at desc").Limit(limit).Find(&as).Error
	return as, err
}
