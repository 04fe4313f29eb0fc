package service

import (
	"errors"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	Courses  *repository.CourseRepository
	Lessons  *repository.LessonRepository
	Progress *repository.ProgressRepository
}

func NewCourseService(
	courses *repository.CourseRepository,
	lessons *repository.LessonRepository,
	progress *repository.ProgressRepository,
) *CourseService {
	return &CourseService{Courses: courses, Lessons: lessons, Progress: progress}
}

func (s *CourseService) ListPublished() ([]model.Course, error) {
	return s.Courses.ListPublished()
}

// CourseDetail 课程详情：课时列表加当前用户的完成情况。
type CourseDetail struct {
	Course           model.Course   `json:"course"`
	Lessons          []model.Lesson `json:"lessons"`
	CompletedLessons int            `json:"completedLessons"`
	Completion       int            `json:"completion"`
}

func (s *CourseService) GetDetail(userID, courseID uint) (*CourseDetail, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	lessons, err := s.Lessons.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}

	completed := int64(0)
	if userID != 0 {
		completed, err = s.Progress.CountCompleted(userID, courseID)
		if err != nil {
			return nil, err
		}
	}

	return &CourseDetail{
		Course:           *course,
		Lessons:          lessons,
		CompletedLessons: int(completed),
		Completion:       util.RoundPercent(int(completed), len(lessons)),
	}, nil
}

// GetLesson 课时必须属于指定课程，跨课程的 ID 组合按不存在处理。
func (s *CourseService) GetLesson(courseID, lessonID uint) (*model.Lesson, error) {
	lesson, err := s.Lessons.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	if lesson.CourseID != courseID {
		return nil, util.ErrLessonNotFound
	}
	return lesson, nil
}
