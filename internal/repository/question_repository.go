package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

// FindByIDs 返回 id -> 题目 映射，缺失的 id 不报错、直接不出现在结果里。
func (r *QuestionRepository) FindByIDs(ids []uint) (map[uint]*model.Question, error) {
	var qs []model.Question
	if err := r.DB.Where("id IN ?", ids).Find(&qs).Error; err != nil {
		return nil, err
	}
	result := make(map[uint]*model.Question, len(qs))
	for i := range qs {
		result[qs[i].ID] = &qs[i]
	}
	return result, nil
}

func (r *QuestionRepository) ListByFilter(category string, difficulty model.SkillLevel, limit int) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.Model(&model.Question{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListByCategories(categories []string, limit int) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.Where("category IN ?", categories)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListByCategory(category string, limit int) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.Where("category = ?", category)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListAll(limit int) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.Model(&model.Question{})
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&qs).Error
	return qs, err
}

type CategorySummary struct {
	Category     string   `json:"category"`
	Count        int64    `json:"count"`
	Difficulties []string `json:"difficulties"`
}

// Categories 聚合题库的类别、题量与难度分布。
func (r *QuestionRepository) Categories() ([]CategorySummary, error) {
	var categories []string
	if err := r.DB.Model(&model.Question{}).Distinct("category").
		Order("category asc").Pluck("category", &categories).Error; err != nil {
		return nil, err
	}

	summaries := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		var count int64
		if err := r.DB.Model(&model.Question{}).Where("category = ?", category).
			Count(&count).Error; err != nil {
			return nil, err
		}
		var difficulties []string
		if err := r.DB.Model(&model.Question{}).Where("category = ?", category).
			Distinct("difficulty").Pluck("difficulty", &difficulties).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, CategorySummary{
			Category:     category,
			Count:        count,
			Difficulties: difficulties,
		})
	}
	return summaries, nil
}

func (r *QuestionRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Count(&count).Error
	return count, err
}
