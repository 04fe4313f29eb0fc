package repository

import (
	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

// ListPublishedByDifficulties 候选课程目录，按 id 升序保证排序稳定可复现。
func (r *CourseRepository) ListPublishedByDifficulties(difficulties []model.SkillLevel) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("is_published = ? AND difficulty IN ?", true, difficulties).
		Order("id asc").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListPublished() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("is_published = ?", true).Order("id asc").Find(&courses).Error
	return courses, err
}

// FirstPublishedMatch 按难度与类别找第一门已发布课程，可排除指定课程。
func (r *CourseRepository) FirstPublishedMatch(difficulty model.SkillLevel, categories []string, excludeIDs []uint) (*model.Course, error) {
	var course model.Course
	query := r.DB.Where("is_published = ? AND difficulty = ?", true, difficulty)
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	err := query.Order("id asc").First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FirstPublishedByTopic 类别或标签模糊匹配指定主题的第一门已发布课程。
func (r *CourseRepository) FirstPublishedByTopic(topic string) (*model.Course, error) {
	var course model.Course
	pattern := "%" + topic + "%"
	err := r.DB.Where("is_published = ? AND (category LIKE ? OR tags LIKE ?)", true, pattern, pattern).
		Order("id asc").First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
