package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecommendationService struct {
	Recs        *repository.RecommendationRepository
	Paths       *repository.LearningPathRepository
	Lessons     *repository.LessonRepository
	Courses     *repository.CourseRepository
	Progress    *repository.ProgressRepository
	Assessments *repository.AssessmentRepository
	Users       *repository.UserRepository
	Engine      config.EngineConfig
}

func NewRecommendationService(
	recs *repository.RecommendationRepository,
	paths *repository.LearningPathRepository,
	lessons *repository.LessonRepository,
	courses *repository.CourseRepository,
	progress *repository.ProgressRepository,
	assessments *repository.AssessmentRepository,
	users *repository.UserRepository,
	engine config.EngineConfig,
) *RecommendationService {
	return &RecommendationService{
		Recs:        recs,
		Paths:       paths,
		Lessons:     lessons,
		Courses:     courses,
		Progress:    progress,
		Assessments: assessments,
		Users:       users,
		Engine:      engine,
	}
}

// RegisterHandlers 订阅领域事件，评分与进度代码由此与推荐组件解耦。
func (s *RecommendationService) RegisterHandlers(bus *event.Bus) {
	bus.Subscribe(event.AssessmentCompleted, s.HandleEvent)
	bus.Subscribe(event.LessonCompleted, s.HandleEvent)
	bus.Subscribe(event.UserReturn, s.HandleEvent)
}

func (s *RecommendationService) ttl() time.Duration {
	days := s.Engine.RecommendationTTLDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

type RecommendationInput struct {
	Type        model.RecommendationType
	Title       string
	Description string
	Reason      string
	Priority    int
	TargetID    uint
	TargetType  model.TargetType
	Metadata    model.JSONMap
}

// CreateOrUpdate (user, type, target) 上已有 pending/viewed 记录时刷新内容
// 与过期时间，否则新建。同一目标重复触发永不产生重复行。
func (s *RecommendationService) CreateOrUpdate(userID uint, input RecommendationInput) (*model.Recommendation, error) {
	expiresAt := time.Now().Add(s.ttl())

	existing, err := s.Recs.FindOpen(userID, input.Type, input.TargetID)
	if err == nil {
		existing.Title = input.Title
		existing.Description = input.Description
		existing.Reason = input.Reason
		existing.Priority = input.Priority
		existing.Metadata = input.Metadata
		existing.ExpiresAt = expiresAt
		return existing, s.Recs.Save(existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec := &model.Recommendation{
		UserID:      userID,
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		Reason:      input.Reason,
		Priority:    input.Priority,
		TargetID:    input.TargetID,
		TargetType:  input.TargetType,
		Metadata:    input.Metadata,
		Status:      model.RecPending,
		ExpiresAt:   expiresAt,
	}
	return rec, s.Recs.Create(rec)
}

// NextAction 下一步建议，规则短路依次评估：
//  1. 已有未过期 pending（按优先级）直接返回；
//  2. 活跃路径且有进行中的课时 → 继续该课时（优先级 8）；
//  3. 活跃路径首门未完成课程的下一节未完成课时（优先级 9）；
//  4. 无测评或最近测评超过 7 天 → 建议测评（优先级 9）；
//  5. 按技能等级与偏好主题推荐新课程（优先级 7）；
//  6. 均不命中时返回 nil，不视为错误。
func (s *RecommendationService) NextAction(userID uint) (*model.Recommendation, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	if rec, err := s.Recs.FirstPendingUnexpired(userID); err == nil {
		return rec, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	activePath, pathErr := s.Paths.FindActiveByUser(userID)
	if pathErr != nil && !errors.Is(pathErr, gorm.ErrRecordNotFound) {
		return nil, pathErr
	}

	if activePath != nil {
		if rec, ok, err := s.continueInProgressLesson(userID, activePath); err != nil {
			return nil, err
		} else if ok {
			return rec, nil
		}

		if rec, ok, err := s.nextPathLesson(userID, activePath); err != nil {
			return nil, err
		} else if ok {
			return rec, nil
		}
	}

	latest, err := s.Assessments.LatestByUser(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stale := errors.Is(err, gorm.ErrRecordNotFound)
	if err == nil && time.Since(latest.CompletedAt) > s.ttl() {
		stale = true
	}
	if stale {
		reason := "Start with an assessment to evaluate your current skills"
		if latest != nil {
			reason = "Your last assessment was over a week ago"
		}
		return s.CreateOrUpdate(userID, RecommendationInput{
			Type:        model.RecSkillGap,
			Title:       "Take a Skill Assessment",
			Description: "Complete a skill assessment to get personalized course recommendations",
			Reason:      reason,
			Priority:    9,
			TargetType:  model.TargetAssessment,
		})
	}

	course, err := s.Courses.FirstPublishedMatch(user.SkillLevel, user.PreferredTopics, nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.CreateOrUpdate(userID, RecommendationInput{
		Type:        model.RecNewCourse,
		Title:       "Start: " + course.Title,
		Description: course.Description,
		Reason:      fmt.Sprintf("This course matches your %s level and interests", user.SkillLevel),
		Priority:    7,
		TargetID:    course.ID,
		TargetType:  model.TargetCourse,
		Metadata: model.JSONMap{
			"difficulty": string(course.Difficulty),
			"category":   course.Category,
		},
	})
}

func (s *RecommendationService) continueInProgressLesson(userID uint, path *model.LearningPath) (*model.Recommendation, bool, error) {
	inProgress, err := s.Progress.ListByUser(userID, model.ProgressInProgress)
	if err != nil {
		return nil, false, err
	}

	for _, p := range inProgress {
		if !pathContainsCourse(path, p.CourseID) {
			continue
		}
		lesson, err := s.Lessons.FindByID(p.LessonID)
		if err != nil {
			continue
		}
		rec, err := s.CreateOrUpdate(userID, RecommendationInput{
			Type:        model.RecNextLesson,
			Title:       "Continue: " + lesson.Title,
			Description: fmt.Sprintf("You're %d%% through this lesson", p.ProgressPercent),
			Reason:      "Continue where you left off",
			Priority:    8,
			TargetID:    lesson.ID,
			TargetType:  model.TargetLesson,
			Metadata: model.JSONMap{
				"estimatedTime": lesson.Duration,
				"category":      "continuation",
			},
		})
		return rec, err == nil, err
	}
	return nil, false, nil
}

func (s *RecommendationService) nextPathLesson(userID uint, path *model.LearningPath) (*model.Recommendation, bool, error) {
	completed, err := s.Progress.CompletedLessonIDs(userID)
	if err != nil {
		return nil, false, err
	}

	for i := range path.Courses {
		entry := &path.Courses[i]
		if entry.Status == model.PathCourseCompleted || entry.Status == model.PathCourseSkipped {
			continue
		}
		lessons, err := s.Lessons.ListByCourse(entry.CourseID)
		if err != nil {
			return nil, false, err
		}
		for _, lesson := range lessons {
			if completed[lesson.ID] {
				continue
			}
			courseTitle := fmt.Sprintf("course %d", entry.CourseID)
			category := ""
			if entry.Course != nil {
				courseTitle = entry.Course.Title
				category = entry.Course.Category
			}
			rec, err := s.CreateOrUpdate(userID, RecommendationInput{
				Type:        model.RecNextLesson,
				Title:       lesson.Title,
				Description: "Next in your learning path: " + courseTitle,
				Reason:      "Following your personalized learning path",
				Priority:    9,
				TargetID:    lesson.ID,
				TargetType:  model.TargetLesson,
				Metadata: model.JSONMap{
					"estimatedTime": lesson.Duration,
					"category":      category,
				},
			})
			return rec, err == nil, err
		}
	}
	return nil, false, nil
}

func pathContainsCourse(path *model.LearningPath, courseID uint) bool {
	for _, entry := range path.Courses {
		if entry.CourseID == courseID {
			return true
		}
	}
	return false
}

type PracticeRecommendation struct {
	Type   string       `json:"type"`
	Topic  string       `json:"topic"`
	Course model.Course `json:"course"`
	Reason string       `json:"reason"`
}

// Practice 聚合最近三次测评的弱项（按新近优先去重，至多 3 个），
// 给出对应的练习课程。反复出现的弱项不会因为最新一次测评没覆盖就丢失。
func (s *RecommendationService) Practice(userID uint) ([]PracticeRecommendation, error) {
	recent, err := s.Assessments.ListRecentByUser(userID, 3)
	if err != nil {
		return nil, err
	}

	recommendations := []PracticeRecommendation{}
	seen := map[string]bool{}
	weakTopics := []string{}
	for _, assessment := range recent {
		for _, topic := range assessment.WeakTopics {
			if seen[topic] || len(weakTopics) >= 3 {
				continue
			}
			seen[topic] = true
			weakTopics = append(weakTopics, topic)
		}
	}

	for _, topic := range weakTopics {
		course, err := s.Courses.FirstPublishedByTopic(topic)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		recommendations = append(recommendations, PracticeRecommendation{
			Type:   "practice",
			Topic:  topic,
			Course: *course,
			Reason: fmt.Sprintf("Strengthen your %s skills", topic),
		})
	}
	return recommendations, nil
}

func (s *RecommendationService) Recent(userID uint, limit int) ([]model.Recommendation, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.Recs.ListActive(userID, limit)
}

func (s *RecommendationService) List(userID uint) ([]model.Recommendation, error) {
	return s.Recs.ListActive(userID, 10)
}

// Overview GET /learning-path/recommendations 的聚合视图。
type RecommendationOverview struct {
	NextAction              *model.Recommendation    `json:"nextAction"`
	PracticeRecommendations []PracticeRecommendation `json:"practiceRecommendations"`
	RecentRecommendations   []model.Recommendation   `json:"recentRecommendations"`
}

func (s *RecommendationService) Overview(userID uint) (*RecommendationOverview, error) {
	nextAction, err := s.NextAction(userID)
	if err != nil {
		return nil, err
	}
	practice, err := s.Practice(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Recent(userID, 5)
	if err != nil {
		return nil, err
	}
	return &RecommendationOverview{
		NextAction:              nextAction,
		PracticeRecommendations: practice,
		RecentRecommendations:   recent,
	}, nil
}

// UpdateStatus 标记建议为已采纳/已忽略。
func (s *RecommendationService) UpdateStatus(userID, recID uint, status model.RecommendationStatus) (*model.Recommendation, error) {
	switch status {
	case model.RecViewed, model.RecActed, model.RecDismissed:
	default:
		return nil, util.NewValidationError("invalid recommendation status")
	}

	rec, err := s.Recs.FindByIDForUser(recID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("recommendation not found")
		}
		return nil, err
	}

	rec.Status = status
	if status == model.RecActed || status == model.RecDismissed {
		now := time.Now()
		rec.ActionedAt = &now
	}
	return rec, s.Recs.Save(rec)
}

// HandleEvent 领域事件触发的建议创建。
func (s *RecommendationService) HandleEvent(e event.Event) {
	var err error
	switch e.Type {
	case event.LessonCompleted:
		err = s.onLessonCompleted(e)
	case event.AssessmentCompleted:
		err = s.onAssessmentCompleted(e)
	case event.UserReturn:
		err = s.onUserReturn(e)
	}
	if err != nil {
		logger.Log.Error("recommendation trigger failed",
			zap.String("event", string(e.Type)),
			zap.Uint("userId", e.UserID),
			zap.Error(err))
	}
}

// onLessonCompleted 课程只差一节课完成时创建里程碑建议。
func (s *RecommendationService) onLessonCompleted(e event.Event) error {
	totalLessons, err := s.Lessons.CountByCourse(e.CourseID)
	if err != nil || totalLessons == 0 {
		return err
	}
	completedCount, err := s.Progress.CountCompleted(e.UserID, e.CourseID)
	if err != nil {
		return err
	}
	if completedCount != totalLessons-1 {
		return nil
	}

	course, err := s.Courses.FindByID(e.CourseID)
	if err != nil {
		return err
	}
	_, err = s.CreateOrUpdate(e.UserID, RecommendationInput{
		Type:        model.RecMilestone,
		Title:       "Almost there! Complete " + course.Title,
		Description: "Just one lesson left to complete this course",
		Reason:      "Finish strong and earn your certificate!",
		Priority:    10,
		TargetID:    course.ID,
		TargetType:  model.TargetCourse,
	})
	return err
}

// onAssessmentCompleted 存在弱项时创建技能差距建议。
func (s *RecommendationService) onAssessmentCompleted(e event.Event) error {
	if len(e.WeakTopics) == 0 {
		return nil
	}
	_, err := s.CreateOrUpdate(e.UserID, RecommendationInput{
		Type:        model.RecSkillGap,
		Title:       "Skill Gap Detected",
		Description: "Focus areas: " + strings.Join(e.WeakTopics, ", "),
		Reason:      "Practice these topics to improve your performance",
		Priority:    8,
		TargetID:    e.AssessmentID,
		TargetType:  model.TargetAssessment,
		Metadata: model.JSONMap{
			"weakTopics":      e.WeakTopics,
			"assessmentScore": e.Percentage,
		},
	})
	return err
}

// onUserReturn 最近一条进度仍是进行中时欢迎回归。
func (s *RecommendationService) onUserReturn(e event.Event) error {
	latest, err := s.Progress.LatestByUser(e.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if latest.Status != model.ProgressInProgress {
		return nil
	}

	title := "your lesson"
	if lesson, err := s.Lessons.FindByID(latest.LessonID); err == nil {
		title = lesson.Title
	}
	_, err = s.CreateOrUpdate(e.UserID, RecommendationInput{
		Type:        model.RecNextLesson,
		Title:       "Welcome Back!",
		Description: "Continue: " + title,
		Reason:      "Pick up where you left off",
		Priority:    10,
		TargetID:    latest.LessonID,
		TargetType:  model.TargetLesson,
	})
	return err
}
