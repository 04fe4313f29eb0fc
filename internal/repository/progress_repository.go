package repository

import (
	"errors"
	"time"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserLesson(userID, lessonID uint) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkStatus 按 (user, lesson) 写入进度记录，已存在则更新状态。
// 重复完成同一节课不会二次计数：返回值表示这次调用是否把记录推进到了 completed。
func (r *ProgressRepository) MarkStatus(userID uint, lesson *model.Lesson, status model.ProgressStatus) (bool, error) {
	now := time.Now()
	existing, err := r.FindByUserLesson(userID, lesson.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		p := &model.Progress{
			UserID:         userID,
			LessonID:       lesson.ID,
			CourseID:       lesson.CourseID,
			Status:         status,
			LastAccessedAt: now,
		}
		if status == model.ProgressCompleted {
			p.ProgressPercent = 100
			p.CompletedAt = &now
		}
		return status == model.ProgressCompleted, r.DB.Create(p).Error
	}

	newlyCompleted := status == model.ProgressCompleted && existing.Status != model.ProgressCompleted
	existing.Status = status
	existing.LastAccessedAt = now
	if status == model.ProgressCompleted {
		existing.ProgressPercent = 100
		if existing.CompletedAt == nil {
			existing.CompletedAt = &now
		}
	}
	return newlyCompleted, r.DB.Save(existing).Error
}

func (r *ProgressRepository) CountCompleted(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Progress{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.ProgressCompleted).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) ListByUser(userID uint, status model.ProgressStatus) ([]model.Progress, error) {
	var ps []model.Progress
	query := r.DB.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("last_accessed_at desc").Find(&ps).Error
	return ps, err
}

func (r *ProgressRepository) LatestByUser(userID uint) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.Where("user_id = ?", userID).Order("last_accessed_at desc").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompletedLessonIDs 用户已完成的课时 id 集合。
func (r *ProgressRepository) CompletedLessonIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.Progress{}).
		Where("user_id = ? AND status = ?", userID, model.ProgressCompleted).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// SumTimeSpent 用户在某课程的累计学习秒数。
func (r *ProgressRepository) SumTimeSpent(userID, courseID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.Progress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Select("COALESCE(SUM(time_spent), 0)").Scan(&total).Error
	return total, err
}
