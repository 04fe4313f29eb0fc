package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) FindActiveByCourse(courseID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Preload("Questions").
		Where("course_id = ? AND is_active = ?", courseID, true).
		First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Preload("Questions").First(&exam, id).Error
	return &exam, err
}

func (r *ExamRepository) CountCompletedAttempts(userID, examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ? AND status = ?", userID, examID, model.AttemptCompleted).
		Count(&count).Error
	return count, err
}

func (r *ExamRepository) ListCompletedAttempts(userID, examID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("user_id = ? AND exam_id = ? AND status = ?", userID, examID, model.AttemptCompleted).
		Order("attempt_number desc").Find(&attempts).Error
	return attempts, err
}

func (r *ExamRepository) FindInProgressAttempt(userID, examID uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.DB.Where("user_id = ? AND exam_id = ? AND status = ?", userID, examID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// CreateAttempt 创建进行中的答题记录。(user_id, exam_id, open) 唯一索引保证
// 并发开考时只有一个请求成功，其余得到 gorm.ErrDuplicatedKey。
func (r *ExamRepository) CreateAttempt(attempt *model.ExamAttempt) error {
	open := true
	attempt.Open = &open
	attempt.Status = model.AttemptInProgress
	return r.DB.Create(attempt).Error
}

// SaveAttempt 终态时清空 Open 列以释放唯一索引。
func (r *ExamRepository) SaveAttempt(attempt *model.ExamAttempt) error {
	if attempt.Status != model.AttemptInProgress {
		attempt.Open = nil
	}
	return r.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(attempt).Error
}

func (r *ExamRepository) FindAttemptByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.DB.Preload("Answers").First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
