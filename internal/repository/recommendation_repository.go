package repository

import (
	"time"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type RecommendationRepository struct {
	DB *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{DB: db}
}

func (r *RecommendationRepository) Create(rec *model.Recommendation) error {
	return r.DB.Create(rec).Error
}

func (r *RecommendationRepository) Save(rec *model.Recommendation) error {
	return r.DB.Save(rec).Error
}

// FindOpen 查找 (user, type, target) 上仍处于 pending/viewed 的记录，用于去重刷新。
func (r *RecommendationRepository) FindOpen(userID uint, recType model.RecommendationType, targetID uint) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := r.DB.Where("user_id = ? AND type = ? AND target_id = ? AND status IN ?",
		userID, recType, targetID, []model.RecommendationStatus{model.RecPending, model.RecViewed}).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FirstPendingUnexpired 未过期 pending 中优先级最高的一条。
func (r *RecommendationRepository) FirstPendingUnexpired(userID uint) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := r.DB.Where("user_id = ? AND status = ? AND expires_at > ?",
		userID, model.RecPending, time.Now()).
		Order("priority desc, created_at desc").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListActive 未过期的 pending/viewed 记录，按优先级降序。
func (r *RecommendationRepository) ListActive(userID uint, limit int) ([]model.Recommendation, error) {
	var recs []model.Recommendation
	query := r.DB.Where("user_id = ? AND status IN ? AND expires_at > ?",
		userID, []model.RecommendationStatus{model.RecPending, model.RecViewed}, time.Now()).
		Order("priority desc, created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&recs).Error
	return recs, err
}

func (r *RecommendationRepository) FindByIDForUser(id, userID uint) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
