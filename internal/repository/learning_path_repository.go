package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

// CreateSupersedingActive 在同一事务内暂停现有 active 路径并创建新路径。
// (user_id, active) 唯一索引兜底"每用户至多一条 active"；并发下撞唯一键时
// 返回 gorm.ErrDuplicatedKey，调用方按"已存在"处理。
func (r *LearningPathRepository) CreateSupersedingActive(path *model.LearningPath) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.LearningPath{}).
			Where("user_id = ? AND status = ?", path.UserID, model.PathActive).
			Updates(map[string]interface{}{"status": model.PathPaused, "active": nil}).Error; err != nil {
			return err
		}

		active := true
		path.Active = &active
		path.Status = model.PathActive
		return tx.Create(path).Error
	})
}

func (r *LearningPathRepository) FindActiveByUser(userID uint) (*model.LearningPath, error) {
	var path model.LearningPath
	err := r.DB.Preload("Courses", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Courses.Course").
		Where("user_id = ? AND status = ?", userID, model.PathActive).
		First(&path).Error
	if err != nil {
		return nil, err
	}
	return &path, nil
}

func (r *LearningPathRepository) FindByIDForUser(id, userID uint) (*model.LearningPath, error) {
	var path model.LearningPath
	err := r.DB.Preload("Courses", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Courses.Course").
		Where("id = ? AND user_id = ?", id, userID).
		First(&path).Error
	if err != nil {
		return nil, err
	}
	return &path, nil
}

func (r *LearningPathRepository) ListByUser(userID uint) ([]model.LearningPath, error) {
	var paths []model.LearningPath
	err := r.DB.Preload("Courses", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Courses.Course").
		Where("user_id = ?", userID).Order("created_at desc").Find(&paths).Error
	return paths, err
}

// Save 持久化路径及其课程条目；状态离开 active 时清空 Active 列以释放唯一索引。
func (r *LearningPathRepository) Save(path *model.LearningPath) error {
	if path.Status != model.PathActive {
		path.Active = nil
	} else if path.Active == nil {
		active := true
		path.Active = &active
	}
	return r.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(path).Error
}

func (r *LearningPathRepository) SaveCourseEntry(entry *model.PathCourse) error {
	return r.DB.Save(entry).Error
}
