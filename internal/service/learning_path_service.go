package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"gorm.io/gorm"
)

const hoursPerLesson = 0.5

type LearningPathService struct {
	Paths       *repository.LearningPathRepository
	Courses     *repository.CourseRepository
	Lessons     *repository.LessonRepository
	Progress    *repository.ProgressRepository
	Assessments *repository.AssessmentRepository
	Users       *repository.UserRepository
	Engine      config.EngineConfig
	Bus         *event.Bus
}

func NewLearningPathService(
	paths *repository.LearningPathRepository,
	courses *repository.CourseRepository,
	lessons *repository.LessonRepository,
	progress *repository.ProgressRepository,
	assessments *repository.AssessmentRepository,
	users *repository.UserRepository,
	engine config.EngineConfig,
	bus *event.Bus,
) *LearningPathService {
	return &LearningPathService{
		Paths:       paths,
		Courses:     courses,
		Lessons:     lessons,
		Progress:    progress,
		Assessments: assessments,
		Users:       users,
		Engine:      engine,
		Bus:         bus,
	}
}

type ScoredCourse struct {
	Course model.Course `json:"course"`
	Score  float64      `json:"score"`
}

// DifficultyWindow 技能等级可见的课程难度区间。
func DifficultyWindow(level model.SkillLevel) []model.SkillLevel {
	switch level {
	case model.Intermediate:
		return []model.SkillLevel{model.Beginner, model.Intermediate}
	case model.Advanced:
		return []model.SkillLevel{model.Intermediate, model.Advanced}
	}
	return []model.SkillLevel{model.Beginner}
}

// RankCourses 对候选课程打分并降序排列。加权项：偏好主题 +30、
// 弱项标签命中 +40、难度完全匹配 +20、评分 ×2、热度 min(报名数/10, 10)。
// 稳定排序：同分课程保持目录顺序。
func RankCourses(courses []model.Course, user *model.User, weakTopics []string) []ScoredCourse {
	scored := make([]ScoredCourse, len(courses))
	for i, course := range courses {
		var score float64

		if user.PreferredTopics.Contains(course.Category) {
			score += 30
		}

		if len(weakTopics) > 0 && courseAddressesWeakness(course.Tags, weakTopics) {
			score += 40
		}

		if course.Difficulty == user.SkillLevel {
			score += 20
		}

		score += course.Rating * 2
		score += math.Min(float64(course.EnrolledCount)/10, 10)

		scored[i] = ScoredCourse{Course: course, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func courseAddressesWeakness(tags model.StringList, weakTopics []string) bool {
	for _, tag := range tags {
		lowerTag := strings.ToLower(tag)
		for _, weak := range weakTopics {
			if strings.Contains(strings.ToLower(weak), lowerTag) {
				return true
			}
		}
	}
	return false
}

// Generate 生成新路径并接替现有 active 路径（旧路径转 paused）。
func (s *LearningPathService) Generate(userID uint) (*model.LearningPath, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	weakTopics := model.StringList{}
	strongTopics := model.StringList{}
	if latest, err := s.Assessments.LatestByUser(userID); err == nil {
		weakTopics = latest.WeakTopics
		strongTopics = latest.StrongTopics
	}

	candidates, err := s.Courses.ListPublishedByDifficulties(DifficultyWindow(user.SkillLevel))
	if err != nil {
		return nil, err
	}

	ranked := RankCourses(candidates, user, weakTopics)

	take := user.TimeAvailability.CoursesPerWeek() * 4
	if take < 4 {
		take = 4
	}
	if take > len(ranked) {
		take = len(ranked)
	}
	selected := ranked[:take]

	now := time.Now()
	totalLessons := 0
	entries := make([]model.PathCourse, len(selected))
	for i, sc := range selected {
		entries[i] = model.PathCourse{
			CourseID: sc.Course.ID,
			Order:    i + 1,
			Status:   model.PathCourseNotStarted,
		}
		if i == 0 {
			entries[i].Status = model.PathCourseInProgress
			entries[i].StartedAt = &now
		}
		totalLessons += sc.Course.TotalLessons
	}

	totalHours := float64(totalLessons) * hoursPerLesson
	estimatedWeeks := int(math.Ceil(totalHours / float64(user.TimeAvailability.HoursPerWeek())))

	focusTopic := "General"
	if len(user.PreferredTopics) > 0 {
		focusTopic = user.PreferredTopics[0]
	}
	targetGoal := user.LearningGoals
	if targetGoal == "" {
		targetGoal = "Skill improvement"
	}

	path := &model.LearningPath{
		UserID:            userID,
		Title:             fmt.Sprintf("%s %s Learning Path", user.SkillLevel, focusTopic),
		Description:       fmt.Sprintf("Personalized learning path for your %s skill level, focusing on %s.", user.SkillLevel, strings.Join(append([]string{}, user.PreferredTopics...), ", ")),
		Type:              "skill-based",
		Difficulty:        user.SkillLevel,
		TargetGoal:        targetGoal,
		EstimatedDuration: fmt.Sprintf("%d weeks", estimatedWeeks),
		TotalHours:        totalHours,
		Courses:           entries,
		FocusAreas:        user.PreferredTopics,
		WeakTopics:        weakTopics,
		StrongTopics:      strongTopics,
		GeneratedBy:       "engine",
	}

	if err := s.Paths.CreateSupersedingActive(path); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发生成撞唯一索引：视为已存在，返回当前 active 路径
			return s.Active(userID)
		}
		return nil, err
	}

	return s.Paths.FindByIDForUser(path.ID, userID)
}

func (s *LearningPathService) Active(userID uint) (*model.LearningPath, error) {
	path, err := s.Paths.FindActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, err
	}
	return path, nil
}

func (s *LearningPathService) List(userID uint) ([]model.LearningPath, error) {
	return s.Paths.ListByUser(userID)
}

func (s *LearningPathService) GetByID(userID, pathID uint) (*model.LearningPath, error) {
	path, err := s.Paths.FindByIDForUser(pathID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, err
	}
	return path, nil
}

func (s *LearningPathService) UpdateStatus(userID, pathID uint, status model.PathStatus) (*model.LearningPath, error) {
	switch status {
	case model.PathActive, model.PathPaused, model.PathCompleted, model.PathAbandoned:
	default:
		return nil, util.NewValidationError("invalid path status")
	}

	path, err := s.GetByID(userID, pathID)
	if err != nil {
		return nil, err
	}

	path.Status = status
	if err := s.Paths.Save(path); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NewBusinessRuleError("another learning path is already active", nil)
		}
		return nil, err
	}
	return path, nil
}

// ApplyLessonProgress 课时完成驱动路径推进：按整数完成计数推导课程进度，
// 课程达到 100% 时标记完成并激活下一门；路径进度为完成课程占比。
func (s *LearningPathService) ApplyLessonProgress(userID, lessonID uint, status model.ProgressStatus) (*model.LearningPath, error) {
	lesson, err := s.Lessons.FindByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	newlyCompleted, err := s.Progress.MarkStatus(userID, lesson, status)
	if err != nil {
		return nil, err
	}

	if newlyCompleted && s.Bus != nil {
		s.Bus.Publish(event.Event{
			Type:     event.LessonCompleted,
			UserID:   userID,
			CourseID: lesson.CourseID,
			LessonID: lessonID,
		})
	}

	path, err := s.Paths.FindActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, err
	}

	idx := -1
	for i := range path.Courses {
		if path.Courses[i].CourseID == lesson.CourseID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return path, nil
	}

	if newlyCompleted {
		entry := &path.Courses[idx]
		entry.LessonsDone++

		totalLessons := s.courseLessonCount(entry)
		entry.Progress = util.RoundPercent(entry.LessonsDone, totalLessons)
		if entry.Progress > 100 {
			entry.Progress = 100
		}

		if entry.LessonsDone >= totalLessons && entry.Status != model.PathCourseCompleted {
			now := time.Now()
			entry.Progress = 100
			entry.Status = model.PathCourseCompleted
			entry.CompletedAt = &now

			if idx+1 < len(path.Courses) && path.Courses[idx+1].Status == model.PathCourseNotStarted {
				path.Courses[idx+1].Status = model.PathCourseInProgress
				path.Courses[idx+1].StartedAt = &now
			}

			path.Progress = path.CalculateProgress()
			if path.Progress >= 100 {
				path.Status = model.PathCompleted
			}

			if err := s.Paths.Save(path); err != nil {
				return nil, err
			}
		} else {
			// 课程未完结：路径进度只统计完成课程，只需落当前条目
			if err := s.Paths.SaveCourseEntry(entry); err != nil {
				return nil, err
			}
		}
	}

	return path, nil
}

func (s *LearningPathService) courseLessonCount(entry *model.PathCourse) int {
	if entry.Course != nil && entry.Course.TotalLessons > 0 {
		return entry.Course.TotalLessons
	}
	count, err := s.Lessons.CountByCourse(entry.CourseID)
	if err != nil || count == 0 {
		return 1
	}
	return int(count)
}
